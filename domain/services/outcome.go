package services

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"luckybit/domain/entities"
)

// The house outcome model: every game shares one win decision computed from
// the account's balance in the reference currency. Balances at or above the
// lock threshold can never win; below it the round wins with a flat global
// probability. Per-game generators then bias their own randomness so the
// visible payload matches the decision.
var (
	winLockThreshold = decimal.NewFromInt(150)
	winProbability   = 0.45
)

const slotsWinMultiplier = 1.1

// slotSymbols is the reel alphabet
var slotSymbols = []string{"cherry", "lemon", "orange", "bell", "star", "seven", "diamond"}

// plinkoMultipliers is the fixed 16-bucket payout table, symmetric around the
// center. Buckets at or above 1.0 count as wins; the rest return partial value.
var plinkoMultipliers = []float64{2.0, 1.8, 1.6, 1.4, 1.0, 0.8, 0.6, 0.4, 0.4, 0.6, 0.8, 1.0, 1.4, 1.6, 1.8, 2.0}

const plinkoRows = 16

// decideOutcome computes the win/lose decision for a round. It runs once per
// round; generators never decide independently.
func decideOutcome(balanceInReference decimal.Decimal, rng *rand.Rand) bool {
	if balanceInReference.GreaterThanOrEqual(winLockThreshold) {
		return false
	}
	return rng.Float64() < winProbability
}

// renderOutcome produces the game-specific payload for a pre-computed
// decision. Bet and payout amounts are denominated in the round's currency.
func renderOutcome(gameType entities.GameType, decision bool, bet decimal.Decimal, cur entities.Currency, dice *entities.DiceParams, rng *rand.Rand) (*entities.GameResult, error) {
	switch gameType {
	case entities.GameTypeSlots:
		return renderSlots(decision, bet, cur, rng), nil
	case entities.GameTypeDice:
		return renderDice(decision, bet, cur, dice, rng)
	case entities.GameTypePlinko:
		return renderPlinko(decision, bet, cur, rng), nil
	case entities.GameTypePlinkoMaster:
		return renderPlinkoMaster(decision, bet, cur, rng), nil
	default:
		return nil, fmt.Errorf("%w: %s", entities.ErrUnsupportedGame, gameType)
	}
}

// renderSlots draws 5 reels. A win forces the three central reels to one
// randomly chosen symbol; a loss re-rolls a central reel if the win pattern
// shows up by accident.
func renderSlots(decision bool, bet decimal.Decimal, cur entities.Currency, rng *rand.Rand) *entities.GameResult {
	reels := make([]string, 5)
	for i := range reels {
		reels[i] = slotSymbols[rng.Intn(len(slotSymbols))]
	}

	if decision {
		symbol := slotSymbols[rng.Intn(len(slotSymbols))]
		reels[1], reels[2], reels[3] = symbol, symbol, symbol
		return &entities.GameResult{
			IsWin:      true,
			WinAmount:  cur.Round(bet.Mul(decimal.NewFromFloat(slotsWinMultiplier))),
			Multiplier: slotsWinMultiplier,
			GameData:   map[string]any{"reels": reels},
		}
	}

	for reels[1] == reels[2] && reels[2] == reels[3] {
		reels[2] = slotSymbols[rng.Intn(len(slotSymbols))]
	}
	return &entities.GameResult{
		IsWin:      false,
		WinAmount:  decimal.Zero,
		Multiplier: 0,
		GameData:   map[string]any{"reels": reels},
	}
}

// renderDice rolls a 100-sided die against the player's prediction. A natural
// roll that contradicts the decision is redrawn from the sub-range matching
// the intended outcome instead of reject-looping.
func renderDice(decision bool, bet decimal.Decimal, cur entities.Currency, params *entities.DiceParams, rng *rand.Rand) (*entities.GameResult, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: dice requires a prediction", entities.ErrInvalidBet)
	}
	if params.Prediction < 2 || params.Prediction > 98 {
		return nil, fmt.Errorf("%w: prediction must be between 2 and 98", entities.ErrInvalidBet)
	}

	var winChance int
	if params.RollOver {
		winChance = 100 - params.Prediction
	} else {
		winChance = params.Prediction - 1
	}
	multiplier := 99.0 / float64(winChance)

	roll := rollInRange(rng, 1, 100)
	won := (params.RollOver && roll >= params.Prediction) || (!params.RollOver && roll <= params.Prediction)
	if won != decision {
		roll = redrawDice(decision, params, rng)
	}

	result := &entities.GameResult{
		IsWin:      decision,
		WinAmount:  decimal.Zero,
		Multiplier: 0,
		GameData: map[string]any{
			"roll":       roll,
			"prediction": params.Prediction,
			"roll_over":  params.RollOver,
		},
	}
	if decision {
		result.WinAmount = cur.Round(bet.Mul(decimal.NewFromFloat(multiplier)))
		result.Multiplier = multiplier
	}
	return result, nil
}

// redrawDice picks a roll from the sub-range that matches the intended outcome
func redrawDice(decision bool, params *entities.DiceParams, rng *rand.Rand) int {
	switch {
	case decision && params.RollOver:
		return rollInRange(rng, params.Prediction, 100)
	case decision && !params.RollOver:
		return rollInRange(rng, 1, params.Prediction)
	case !decision && params.RollOver:
		return rollInRange(rng, 1, params.Prediction-1)
	default:
		return rollInRange(rng, params.Prediction+1, 100)
	}
}

func rollInRange(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// renderPlinko drops the ball into a bucket drawn uniformly from the set
// whose multiplier matches the decision. Unlike the other games a payout is
// always returned: sub-1.0 buckets still pay partial value.
func renderPlinko(decision bool, bet decimal.Decimal, cur entities.Currency, rng *rand.Rand) *entities.GameResult {
	bucket := pickBucket(decision, rng)
	return plinkoResult(bucket, bet, cur, map[string]any{"bucket": bucket})
}

// renderPlinkoMaster simulates the ball's row-by-row path. The path is biased
// toward the target bucket each row with residual randomness, so the client
// animation stays plausible instead of teleporting.
func renderPlinkoMaster(decision bool, bet decimal.Decimal, cur entities.Currency, rng *rand.Rand) *entities.GameResult {
	bucket := pickBucket(decision, rng)
	path := riggedPath(bucket, rng)
	return plinkoResult(bucket, bet, cur, map[string]any{"bucket": bucket, "path": path})
}

// pickBucket draws uniformly among buckets matching the decision's sign
func pickBucket(decision bool, rng *rand.Rand) int {
	var candidates []int
	for i, m := range plinkoMultipliers {
		if (m >= 1.0) == decision {
			candidates = append(candidates, i)
		}
	}
	return candidates[rng.Intn(len(candidates))]
}

// riggedPath generates a left/right sequence over plinkoRows rows that lands
// exactly on the target bucket. Each row goes right with probability
// needed/remaining, which keeps the trajectory random while converging.
func riggedPath(target int, rng *rand.Rand) []string {
	path := make([]string, plinkoRows)
	needed := target
	for row := 0; row < plinkoRows; row++ {
		remaining := plinkoRows - row
		if rng.Float64() < float64(needed)/float64(remaining) {
			path[row] = "R"
			needed--
		} else {
			path[row] = "L"
		}
	}
	return path
}

func plinkoResult(bucket int, bet decimal.Decimal, cur entities.Currency, gameData map[string]any) *entities.GameResult {
	multiplier := plinkoMultipliers[bucket]
	return &entities.GameResult{
		IsWin:      multiplier >= 1.0,
		WinAmount:  cur.Round(bet.Mul(decimal.NewFromFloat(multiplier))),
		Multiplier: multiplier,
		GameData:   gameData,
	}
}
