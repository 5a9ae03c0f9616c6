package dice

import (
	"math/rand/v2"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// randomRoller implements Roller with uniformly distributed rolls
type randomRoller struct{}

// NewRandomRoller creates a new random dice roller
func NewRandomRoller() Roller {
	return &randomRoller{}
}

// Roll implements Roller.Roll
func (r *randomRoller) Roll(count, sides, bonus int) (*RollResult, error) {
	if count < 1 {
		return nil, dnderr.InvalidArgumentf("invalid dice count %d", count).WithMeta("count", count)
	}
	if sides < 1 {
		return nil, dnderr.InvalidArgumentf("invalid dice size %d", sides).WithMeta("sides", sides)
	}

	rolls := make([]int, count)
	for i := range rolls {
		rolls[i] = rand.IntN(sides) + 1
	}

	return NewRollResult(sides, bonus, rolls), nil
}
