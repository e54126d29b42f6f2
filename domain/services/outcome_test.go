package services

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luckybit/domain/entities"
)

func testRng(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestDecideOutcome_BalanceLock(t *testing.T) {
	rng := testRng(1)

	t.Run("never wins at or above the threshold", func(t *testing.T) {
		for i := 0; i < 10000; i++ {
			assert.False(t, decideOutcome(decimal.NewFromInt(150), rng))
		}
		for i := 0; i < 10000; i++ {
			assert.False(t, decideOutcome(decimal.NewFromInt(5000), rng))
		}
	})

	t.Run("win rate below the threshold is near the configured probability", func(t *testing.T) {
		wins := 0
		const rounds = 20000
		for i := 0; i < rounds; i++ {
			if decideOutcome(decimal.NewFromInt(100), rng) {
				wins++
			}
		}
		rate := float64(wins) / float64(rounds)
		assert.InDelta(t, 0.45, rate, 0.02)
	})

	t.Run("threshold applies to the reference balance not the raw number", func(t *testing.T) {
		// 149.99 is still below the lock
		won := false
		for i := 0; i < 1000; i++ {
			if decideOutcome(decimal.RequireFromString("149.99"), rng) {
				won = true
				break
			}
		}
		assert.True(t, won)
	})
}

func TestRenderSlots(t *testing.T) {
	bet := decimal.NewFromInt(100)

	t.Run("win forces three matching central reels", func(t *testing.T) {
		for seed := int64(0); seed < 200; seed++ {
			result := renderSlots(true, bet, entities.CurrencyUSD, testRng(seed))
			reels := result.GameData["reels"].([]string)
			require.Len(t, reels, 5)
			assert.Equal(t, reels[1], reels[2])
			assert.Equal(t, reels[2], reels[3])
			assert.True(t, result.IsWin)
			assert.True(t, result.WinAmount.Equal(decimal.NewFromInt(110)), "got %s", result.WinAmount)
			assert.Equal(t, 1.1, result.Multiplier)
		}
	})

	t.Run("loss never shows the win pattern", func(t *testing.T) {
		for seed := int64(0); seed < 200; seed++ {
			result := renderSlots(false, bet, entities.CurrencyUSD, testRng(seed))
			reels := result.GameData["reels"].([]string)
			broken := reels[1] != reels[2] || reels[2] != reels[3]
			assert.True(t, broken, "seed %d produced a winning pattern on a loss", seed)
			assert.False(t, result.IsWin)
			assert.True(t, result.WinAmount.IsZero())
		}
	})

	t.Run("payout rounds to currency precision", func(t *testing.T) {
		// 0.33 * 1.1 = 0.363, rounded to two fiat decimals
		result := renderSlots(true, decimal.RequireFromString("0.33"), entities.CurrencyUSD, testRng(7))
		assert.True(t, result.WinAmount.Equal(decimal.RequireFromString("0.36")), "got %s", result.WinAmount)
	})
}

func TestRenderDice(t *testing.T) {
	bet := decimal.NewFromInt(10)

	t.Run("rejects missing params", func(t *testing.T) {
		_, err := renderDice(true, bet, entities.CurrencyUSD, nil, testRng(1))
		assert.ErrorIs(t, err, entities.ErrInvalidBet)
	})

	t.Run("rejects out of range predictions", func(t *testing.T) {
		for _, prediction := range []int{0, 1, 99, 100, -5} {
			_, err := renderDice(true, bet, entities.CurrencyUSD, &entities.DiceParams{Prediction: prediction}, testRng(1))
			assert.ErrorIs(t, err, entities.ErrInvalidBet, "prediction %d", prediction)
		}
	})

	t.Run("winning roll always matches the prediction", func(t *testing.T) {
		for seed := int64(0); seed < 300; seed++ {
			params := &entities.DiceParams{Prediction: 50, RollOver: seed%2 == 0}
			result, err := renderDice(true, bet, entities.CurrencyUSD, params, testRng(seed))
			require.NoError(t, err)

			roll := result.GameData["roll"].(int)
			if params.RollOver {
				assert.GreaterOrEqual(t, roll, 50)
			} else {
				assert.LessOrEqual(t, roll, 50)
			}
			assert.True(t, result.IsWin)
		}
	})

	t.Run("losing roll always contradicts the prediction", func(t *testing.T) {
		for seed := int64(0); seed < 300; seed++ {
			params := &entities.DiceParams{Prediction: 50, RollOver: seed%2 == 0}
			result, err := renderDice(false, bet, entities.CurrencyUSD, params, testRng(seed))
			require.NoError(t, err)

			roll := result.GameData["roll"].(int)
			if params.RollOver {
				assert.Less(t, roll, 50)
			} else {
				assert.Greater(t, roll, 50)
			}
			assert.False(t, result.IsWin)
			assert.True(t, result.WinAmount.IsZero())
		}
	})

	t.Run("prediction 50 pays about 2x", func(t *testing.T) {
		params := &entities.DiceParams{Prediction: 50, RollOver: true}
		result, err := renderDice(true, bet, entities.CurrencyUSD, params, testRng(3))
		require.NoError(t, err)

		// winChance = 50, multiplier = 99/50 = 1.98
		assert.InDelta(t, 1.98, result.Multiplier, 1e-9)
		assert.True(t, result.WinAmount.Equal(decimal.RequireFromString("19.80")), "got %s", result.WinAmount)
	})

	t.Run("narrow predictions pay more", func(t *testing.T) {
		wide, err := renderDice(true, bet, entities.CurrencyUSD, &entities.DiceParams{Prediction: 10, RollOver: true}, testRng(3))
		require.NoError(t, err)
		narrow, err := renderDice(true, bet, entities.CurrencyUSD, &entities.DiceParams{Prediction: 90, RollOver: true}, testRng(3))
		require.NoError(t, err)
		assert.Greater(t, narrow.Multiplier, wide.Multiplier)
	})
}

func TestRenderPlinko(t *testing.T) {
	bet := decimal.NewFromInt(100)

	t.Run("win lands in a bucket paying at least 1x", func(t *testing.T) {
		for seed := int64(0); seed < 200; seed++ {
			result := renderPlinko(true, bet, entities.CurrencyUSD, testRng(seed))
			assert.True(t, result.IsWin)
			assert.GreaterOrEqual(t, result.Multiplier, 1.0)
			assert.True(t, result.WinAmount.GreaterThanOrEqual(bet))
		}
	})

	t.Run("loss still pays partial value", func(t *testing.T) {
		for seed := int64(0); seed < 200; seed++ {
			result := renderPlinko(false, bet, entities.CurrencyUSD, testRng(seed))
			assert.False(t, result.IsWin)
			assert.Less(t, result.Multiplier, 1.0)
			assert.True(t, result.WinAmount.IsPositive())
			assert.True(t, result.WinAmount.LessThan(bet))
		}
	})

	t.Run("bucket index is within the table", func(t *testing.T) {
		for seed := int64(0); seed < 100; seed++ {
			result := renderPlinko(seed%2 == 0, bet, entities.CurrencyUSD, testRng(seed))
			bucket := result.GameData["bucket"].(int)
			assert.GreaterOrEqual(t, bucket, 0)
			assert.Less(t, bucket, len(plinkoMultipliers))
			assert.Equal(t, plinkoMultipliers[bucket], result.Multiplier)
		}
	})
}

func TestRenderPlinkoMaster(t *testing.T) {
	bet := decimal.NewFromInt(50)

	t.Run("path lands exactly on the bucket", func(t *testing.T) {
		for seed := int64(0); seed < 300; seed++ {
			result := renderPlinkoMaster(seed%2 == 0, bet, entities.CurrencyUSD, testRng(seed))

			bucket := result.GameData["bucket"].(int)
			path := result.GameData["path"].([]string)
			require.Len(t, path, plinkoRows)

			rights := 0
			for _, step := range path {
				if step == "R" {
					rights++
				} else {
					require.Equal(t, "L", step)
				}
			}
			assert.Equal(t, bucket, rights, "seed %d", seed)
		}
	})

	t.Run("decision controls the payout sign", func(t *testing.T) {
		win := renderPlinkoMaster(true, bet, entities.CurrencyUSD, testRng(11))
		loss := renderPlinkoMaster(false, bet, entities.CurrencyUSD, testRng(11))
		assert.GreaterOrEqual(t, win.Multiplier, 1.0)
		assert.Less(t, loss.Multiplier, 1.0)
	})
}

func TestRenderOutcome_UnsupportedGame(t *testing.T) {
	_, err := renderOutcome(entities.GameType("roulette"), true, decimal.NewFromInt(1), entities.CurrencyUSD, nil, testRng(1))
	assert.ErrorIs(t, err, entities.ErrUnsupportedGame)
}
