package dice

// D20 is the die every initiative roll is made with
const D20 = 20

// RollResult describes the outcome of a single Roll call
type RollResult struct {
	Total    int
	Rolls    []int
	Bonus    int
	Count    int
	Sides    int
	RawTotal int
	IsCrit   bool // natural maximum on a single die
	IsFumble bool // natural 1 on a single die
}

// Roller provides an interface for rolling dice
// This allows us to inject scripted rolls in tests
type Roller interface {
	// Roll rolls count dice with the given sides and adds a bonus
	Roll(count, sides, bonus int) (*RollResult, error)
}

// NewRollResult assembles a RollResult from already rolled dice
func NewRollResult(sides, bonus int, rolls []int) *RollResult {
	raw := 0
	for _, r := range rolls {
		raw += r
	}

	result := &RollResult{
		Total:    raw + bonus,
		Rolls:    rolls,
		Bonus:    bonus,
		Count:    len(rolls),
		Sides:    sides,
		RawTotal: raw,
	}

	if len(rolls) == 1 {
		result.IsCrit = rolls[0] == sides
		result.IsFumble = rolls[0] == 1
	}

	return result
}
