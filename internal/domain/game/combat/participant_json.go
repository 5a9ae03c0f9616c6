package combat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// participantData is the on-disk shape of a participant
type participantData struct {
	Name           string         `json:"name"`
	Role           Role           `json:"role"`
	PType          string         `json:"p_type"`
	IsPlayer       bool           `json:"is_player"`
	InitiativeRoll int            `json:"initiative_roll"`
	IsCritical     bool           `json:"is_critical"`
	Wounds         int            `json:"wounds"`
	Portrait       *string        `json:"portrait"`
	Statuses       []StatusEffect `json:"statuses"`
}

// legacyParticipantData accepts every record shape that has been written over time.
// The computed "status" key of older files is not declared and is therefore dropped.
type legacyParticipantData struct {
	Name           string        `json:"name"`
	Role           Role          `json:"role"`
	PType          *string       `json:"p_type"`
	Type           *string       `json:"type"`
	InitiativeRoll int           `json:"initiative_roll"`
	IsCritical     bool          `json:"is_critical"`
	Wounds         int           `json:"wounds"`
	Portrait       *string       `json:"portrait"`
	Statuses       []statusEntry `json:"statuses"`
}

// statusEntry is either a bare status name or a {name, duration} object
type statusEntry struct {
	StatusEffect
}

// UnmarshalJSON implements json.Unmarshaler
func (e *statusEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		e.StatusEffect = StatusEffect{Name: name}
		return nil
	}

	var effect StatusEffect
	if err := json.Unmarshal(data, &effect); err != nil {
		return fmt.Errorf("status entry: %w", err)
	}
	e.StatusEffect = effect
	return nil
}

// MarshalJSON implements json.Marshaler
func (p *Participant) MarshalJSON() ([]byte, error) {
	statuses := p.Statuses
	if statuses == nil {
		statuses = []StatusEffect{}
	}

	return json.Marshal(&participantData{
		Name:           p.Name,
		Role:           p.Role,
		PType:          p.Type,
		IsPlayer:       p.IsPlayer(),
		InitiativeRoll: p.InitiativeRoll,
		IsCritical:     p.IsCritical,
		Wounds:         p.Wounds,
		Portrait:       p.Portrait,
		Statuses:       statuses,
	})
}

// UnmarshalJSON implements json.Unmarshaler, normalizing legacy records
func (p *Participant) UnmarshalJSON(data []byte) error {
	var raw legacyParticipantData
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	pType := ""
	switch {
	case raw.PType != nil:
		pType = *raw.PType
	case raw.Type != nil:
		pType = *raw.Type
	}

	var statuses []StatusEffect
	for _, s := range raw.Statuses {
		statuses = append(statuses, s.StatusEffect)
	}

	*p = Participant{
		Name:           raw.Name,
		Role:           raw.Role,
		Type:           pType,
		InitiativeRoll: raw.InitiativeRoll,
		IsCritical:     raw.IsCritical,
		Wounds:         raw.Wounds,
		Portrait:       raw.Portrait,
		Statuses:       statuses,
	}
	if p.clampWounds() {
		p.syncWoundStatuses()
	}
	return nil
}
