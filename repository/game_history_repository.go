package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"luckybit/database"
	"luckybit/domain/entities"
)

// GameHistoryRepository implements the GameHistoryRepository interface
type GameHistoryRepository struct {
	q Queryable
}

// NewGameHistoryRepository creates a new game history repository
func NewGameHistoryRepository(db *database.DB) *GameHistoryRepository {
	return &GameHistoryRepository{q: db.Pool}
}

// newGameHistoryRepositoryWithTx creates a new game history repository bound to a transaction
func newGameHistoryRepositoryWithTx(tx Queryable) *GameHistoryRepository {
	return &GameHistoryRepository{q: tx}
}

// Record appends a settled round and sets its generated ID
func (r *GameHistoryRepository) Record(ctx context.Context, round *entities.GameRound) error {
	gameDataJSON, err := json.Marshal(round.GameData)
	if err != nil {
		return fmt.Errorf("failed to marshal game data: %w", err)
	}

	query := `
		INSERT INTO game_history
		(account_id, game_type, bet_amount, currency, is_win, win_amount, multiplier, game_data, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		round.AccountID,
		round.GameType,
		round.BetAmount,
		round.Currency,
		round.IsWin,
		round.WinAmount,
		round.Multiplier,
		gameDataJSON,
		round.SessionID,
	).Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record game round for account %d: %w", round.AccountID, err)
	}

	return nil
}

// GetByAccount returns the most recent rounds for an account
func (r *GameHistoryRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.GameRound, error) {
	query := `
		SELECT id, account_id, game_type, bet_amount, currency, is_win, win_amount, multiplier, game_data, session_id, created_at
		FROM game_history
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get game history for account %d: %w", accountID, err)
	}
	defer rows.Close()

	return scanRounds(rows)
}

// RecentWinners returns the most recent winning rounds across all accounts
func (r *GameHistoryRepository) RecentWinners(ctx context.Context, limit int) ([]*entities.GameRound, error) {
	query := `
		SELECT id, account_id, game_type, bet_amount, currency, is_win, win_amount, multiplier, game_data, session_id, created_at
		FROM game_history
		WHERE is_win
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent winners: %w", err)
	}
	defer rows.Close()

	return scanRounds(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRounds(rows pgxRows) ([]*entities.GameRound, error) {
	var rounds []*entities.GameRound
	for rows.Next() {
		var round entities.GameRound
		var gameDataJSON []byte

		err := rows.Scan(
			&round.ID,
			&round.AccountID,
			&round.GameType,
			&round.BetAmount,
			&round.Currency,
			&round.IsWin,
			&round.WinAmount,
			&round.Multiplier,
			&gameDataJSON,
			&round.SessionID,
			&round.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game round: %w", err)
		}
		if len(gameDataJSON) > 0 {
			if err := json.Unmarshal(gameDataJSON, &round.GameData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal game data: %w", err)
			}
		}
		rounds = append(rounds, &round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate game rounds: %w", err)
	}

	return rounds, nil
}
