package combat

import (
	"github.com/KirkDiggler/initiative-tracker/internal/dice"
)

// Role decides which persistence bucket a participant belongs to and whether its
// initiative is re-rolled every round
type Role string

const (
	RolePlayer  Role = "player"
	RoleMonster Role = "monster"
	RoleAlly    Role = "ally"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RolePlayer, RoleMonster, RoleAlly:
		return true
	}
	return false
}

// Archetypes with special meaning. Any other type string uses the graduated wound track.
const (
	TypeExtra = "Extra"
	TypeJoker = "Joker"
)

// DefaultPlayerInitiative is the placeholder roll a player joins with until the
// moderator enters the real value
const DefaultPlayerInitiative = 10

// StatusEffect is a named status on a participant. A nil Duration lasts until removed.
type StatusEffect struct {
	Name     string `json:"name"`
	Duration *int   `json:"duration"`
}

// Participant is one combatant in the roster
type Participant struct {
	Name           string
	Role           Role
	Type           string
	InitiativeRoll int
	IsCritical     bool
	Wounds         int
	Portrait       *string
	Statuses       []StatusEffect
}

// NewPlayer creates a player character. Players are always Jokers.
func NewPlayer(name string) *Participant {
	return &Participant{
		Name:           name,
		Role:           RolePlayer,
		Type:           TypeJoker,
		InitiativeRoll: DefaultPlayerInitiative,
	}
}

// NewNPC creates a monster or ally with the given archetype and starting initiative
func NewNPC(name string, role Role, pType string, initiative int) *Participant {
	if pType == "" {
		pType = TypeExtra
	}
	return &Participant{
		Name:           name,
		Role:           role,
		Type:           pType,
		InitiativeRoll: initiative,
	}
}

// IsPlayer returns true for player characters
func (p *Participant) IsPlayer() bool {
	return p.Role == RolePlayer
}

// IsExtra returns true when a single wound takes the participant out
func (p *Participant) IsExtra() bool {
	return p.Type == TypeExtra
}

// HasStatus checks whether any status entry carries the given name
func (p *Participant) HasStatus(name string) bool {
	for _, s := range p.Statuses {
		if s.Name == name {
			return true
		}
	}
	return false
}

// RerollInitiative draws a fresh d20 and records whether it was a natural maximum
func (p *Participant) RerollInitiative(roller dice.Roller) error {
	result, err := roller.Roll(1, dice.D20, 0)
	if err != nil {
		return err
	}
	p.applyInitiative(result)
	return nil
}

func (p *Participant) applyInitiative(result *dice.RollResult) {
	p.InitiativeRoll = result.Total
	p.IsCritical = result.IsCrit
}

// Clone returns a deep copy that shares no memory with p
func (p *Participant) Clone() *Participant {
	if p == nil {
		return nil
	}

	clone := *p
	if p.Portrait != nil {
		portrait := *p.Portrait
		clone.Portrait = &portrait
	}
	if p.Statuses != nil {
		clone.Statuses = make([]StatusEffect, len(p.Statuses))
		for i, s := range p.Statuses {
			clone.Statuses[i] = StatusEffect{Name: s.Name}
			if s.Duration != nil {
				d := *s.Duration
				clone.Statuses[i].Duration = &d
			}
		}
	}
	return &clone
}

// filterStatuses keeps the entries for which keep returns true. The result is nil when
// nothing survives so an emptied list compares equal to a fresh participant.
func filterStatuses(statuses []StatusEffect, keep func(StatusEffect) bool) []StatusEffect {
	var out []StatusEffect
	for _, s := range statuses {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
