package mockdice

import (
	"fmt"
	"sync"

	"github.com/KirkDiggler/initiative-tracker/internal/dice"
)

// ScriptedRoller implements dice.Roller for testing with predetermined results
type ScriptedRoller struct {
	mu        sync.Mutex
	rolls     []int
	rollIndex int
}

// NewScriptedRoller creates a roller that returns rolls in order
func NewScriptedRoller(rolls ...int) *ScriptedRoller {
	return &ScriptedRoller{
		rolls: rolls,
	}
}

// SetNextRoll queues one more roll result
func (m *ScriptedRoller) SetNextRoll(roll int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = append(m.rolls, roll)
}

// SetRolls replaces the queued rolls
func (m *ScriptedRoller) SetRolls(rolls []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = rolls
	m.rollIndex = 0
}

// Remaining reports how many queued rolls have not been used yet
func (m *ScriptedRoller) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rolls) - m.rollIndex
}

func (m *ScriptedRoller) next() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rollIndex >= len(m.rolls) {
		return 0, fmt.Errorf("no more predetermined rolls available (used %d of %d)", m.rollIndex, len(m.rolls))
	}

	roll := m.rolls[m.rollIndex]
	m.rollIndex++
	return roll, nil
}

// Roll implements dice.Roller.Roll
func (m *ScriptedRoller) Roll(count, sides, bonus int) (*dice.RollResult, error) {
	rolls := make([]int, count)
	for i := 0; i < count; i++ {
		roll, err := m.next()
		if err != nil {
			return nil, err
		}
		if roll < 1 || roll > sides {
			return nil, fmt.Errorf("invalid roll %d for d%d", roll, sides)
		}
		rolls[i] = roll
	}

	return dice.NewRollResult(sides, bonus, rolls), nil
}
