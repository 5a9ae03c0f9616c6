package combat

import (
	"sort"

	"github.com/KirkDiggler/initiative-tracker/internal/dice"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// NoTurn is the cursor value when nobody can act
const NoTurn = -1

// ErrNoValidTurn is returned when every participant is out of the fight
var ErrNoValidTurn = dnderr.FailedPrecondition("no valid next turn")

// Roster is the ordered list of live participants and the turn cursor.
// Positions are only meaningful until the next mutation. Roster does no locking of its own.
type Roster struct {
	participants []*Participant
	currentTurn  int
	round        int
}

// NewRoster creates a roster holding the given participants in initiative order
func NewRoster(participants ...*Participant) *Roster {
	r := &Roster{}
	r.participants = append(r.participants, participants...)
	r.Sort()
	return r
}

// Participants returns the live participants in turn order
func (r *Roster) Participants() []*Participant {
	return r.participants
}

// Len returns the number of participants
func (r *Roster) Len() int {
	return len(r.participants)
}

// CurrentTurn returns the cursor, or NoTurn
func (r *Roster) CurrentTurn() int {
	return r.currentTurn
}

// Round returns how many rounds have been started since the last reset
func (r *Roster) Round() int {
	return r.round
}

// At returns the participant at index
func (r *Roster) At(index int) (*Participant, error) {
	if index < 0 || index >= len(r.participants) {
		return nil, dnderr.NotFoundf("no participant at position %d", index).
			WithMeta("index", index)
	}
	return r.participants[index], nil
}

// Current returns the participant whose turn it is, or nil
func (r *Roster) Current() *Participant {
	if r.currentTurn < 0 || r.currentTurn >= len(r.participants) {
		return nil
	}
	return r.participants[r.currentTurn]
}

// SetCurrentTurn moves the cursor to index
func (r *Roster) SetCurrentTurn(index int) error {
	if _, err := r.At(index); err != nil {
		return err
	}
	r.currentTurn = index
	return nil
}

// Add appends a participant and restores initiative order
func (r *Roster) Add(p *Participant) {
	r.participants = append(r.participants, p)
	r.Sort()
}

// Append adds participants without sorting. Callers sort once they are done merging.
func (r *Roster) Append(participants ...*Participant) {
	r.participants = append(r.participants, participants...)
}

// ReplacePlayers drops every player and appends the given ones. Callers sort afterward.
func (r *Roster) ReplacePlayers(players []*Participant) {
	kept := make([]*Participant, 0, len(r.participants)+len(players))
	for _, p := range r.participants {
		if !p.IsPlayer() {
			kept = append(kept, p)
		}
	}
	r.participants = append(kept, players...)
}

// Sort orders by initiative, highest first. Ties fall back to the name in reverse
// lexical order so equal rolls always land in the same place.
func (r *Roster) Sort() {
	sort.SliceStable(r.participants, func(i, j int) bool {
		a, b := r.participants[i], r.participants[j]
		if a.InitiativeRoll != b.InitiativeRoll {
			return a.InitiativeRoll > b.InitiativeRoll
		}
		return a.Name > b.Name
	})
}

// Remove deletes the participant at index, keeping the cursor on the same participant
// when possible
func (r *Roster) Remove(index int) error {
	if _, err := r.At(index); err != nil {
		return err
	}

	r.participants = append(r.participants[:index], r.participants[index+1:]...)

	if index < r.currentTurn {
		r.currentTurn--
	}

	switch {
	case len(r.participants) == 0:
		r.currentTurn = NoTurn
	case r.currentTurn >= len(r.participants):
		r.currentTurn = len(r.participants) - 1
	}

	return nil
}

// SetInitiatives applies a batch of index -> roll updates and sorts once.
// Indices outside the roster are skipped. It returns how many updates were applied.
func (r *Roster) SetInitiatives(rolls map[int]int) int {
	applied := 0
	for index, roll := range rolls {
		p, err := r.At(index)
		if err != nil {
			continue
		}
		p.InitiativeRoll = roll
		applied++
	}
	r.Sort()
	return applied
}

// AdvanceTurn moves the cursor to the next participant still in the fight, wrapping
// around. The cursor is left alone when nobody qualifies.
func (r *Roster) AdvanceTurn() error {
	n := len(r.participants)
	if n == 0 {
		return ErrNoValidTurn
	}

	start := r.currentTurn
	if start < NoTurn {
		start = NoTurn
	}

	for i := 0; i < n; i++ {
		next := (start + 1 + i) % n
		if !r.participants[next].IsTerminal() {
			r.currentTurn = next
			return nil
		}
	}

	return ErrNoValidTurn
}

// AdvanceRound starts a new round: timed effects tick down, non-players roll fresh
// initiative, the roster is re-sorted and the cursor goes to the first participant
// still in the fight. Participants out of the fight are frozen as they are.
func (r *Roster) AdvanceRound(roller dice.Roller) error {
	// Draw every roll up front so a roller failure leaves the roster untouched
	rolls := make(map[*Participant]*dice.RollResult)
	for _, p := range r.participants {
		if p.IsPlayer() || p.IsTerminal() {
			continue
		}
		result, err := roller.Roll(1, dice.D20, 0)
		if err != nil {
			return dnderr.Wrapf(err, "failed to roll initiative for %s", p.Name)
		}
		rolls[p] = result
	}

	for _, p := range r.participants {
		if p.IsTerminal() {
			continue
		}
		p.decayEffects()
		if result, ok := rolls[p]; ok {
			p.applyInitiative(result)
		}
	}

	r.Sort()
	r.round++

	r.currentTurn = NoTurn
	for i, p := range r.participants {
		if !p.IsTerminal() {
			r.currentTurn = i
			break
		}
	}

	return nil
}

// ResetToPlayers ends the fight, keeping only the players
func (r *Roster) ResetToPlayers() {
	players := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		if p.IsPlayer() {
			players = append(players, p)
		}
	}
	r.participants = players
	r.currentTurn = 0
	r.round = 0
}

// ResetAll empties the roster
func (r *Roster) ResetAll() {
	r.participants = nil
	r.currentTurn = 0
	r.round = 0
}

// Snapshot returns deep copies of the participants in turn order
func (r *Roster) Snapshot() []*Participant {
	out := make([]*Participant, len(r.participants))
	for i, p := range r.participants {
		out[i] = p.Clone()
	}
	return out
}
