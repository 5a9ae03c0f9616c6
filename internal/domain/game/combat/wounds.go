package combat

// Wound track thresholds for non-Extra participants
const (
	MaxWounds       = 5
	IncapacitatedAt = 4
	MaxExtraWounds  = 1
)

// Statuses owned by the wound track. They are never added through AddEffect.
const (
	StatusIncapacitated = "Incapacitated"
	StatusDead          = "Dead"
)

func isWoundStatus(name string) bool {
	return name == StatusIncapacitated || name == StatusDead
}

func (p *Participant) stripWoundStatuses() {
	p.Statuses = filterStatuses(p.Statuses, func(s StatusEffect) bool {
		return !isWoundStatus(s.Name)
	})
}

// ApplyWound moves the participant one step along its wound track.
// Re-applying a wound at the cap is a no-op.
func (p *Participant) ApplyWound() {
	if p.IsExtra() {
		if p.Wounds >= MaxExtraWounds {
			return
		}
		p.stripWoundStatuses()
		p.Wounds = MaxExtraWounds
		p.Statuses = append(p.Statuses, StatusEffect{Name: StatusDead})
		return
	}

	if p.Wounds >= MaxWounds {
		return
	}

	p.stripWoundStatuses()
	p.Wounds++

	switch {
	case p.Wounds >= MaxWounds:
		p.Statuses = append(p.Statuses, StatusEffect{Name: StatusDead})
	case p.Wounds >= IncapacitatedAt:
		p.Statuses = append(p.Statuses, StatusEffect{Name: StatusIncapacitated})
	}
}

// RemoveWound heals one wound. An Extra healed to zero is simply back in the fight.
func (p *Participant) RemoveWound() {
	if p.Wounds <= 0 {
		return
	}

	p.Wounds--
	p.stripWoundStatuses()

	if !p.IsExtra() && p.Wounds >= IncapacitatedAt {
		p.Statuses = append(p.Statuses, StatusEffect{Name: StatusIncapacitated})
	}
}

// woundCap is the highest wound count the participant's type can carry
func (p *Participant) woundCap() int {
	if p.IsExtra() {
		return MaxExtraWounds
	}
	return MaxWounds
}

// clampWounds keeps Wounds within the track of the current type and reports a change
func (p *Participant) clampWounds() bool {
	switch {
	case p.Wounds < 0:
		p.Wounds = 0
	case p.Wounds > p.woundCap():
		p.Wounds = p.woundCap()
	default:
		return false
	}
	return true
}

// syncWoundStatuses re-attaches the wound-derived status matching Wounds
func (p *Participant) syncWoundStatuses() {
	p.stripWoundStatuses()

	if p.IsExtra() {
		if p.Wounds >= MaxExtraWounds {
			p.Statuses = append(p.Statuses, StatusEffect{Name: StatusDead})
		}
		return
	}

	switch {
	case p.Wounds >= MaxWounds:
		p.Statuses = append(p.Statuses, StatusEffect{Name: StatusDead})
	case p.Wounds >= IncapacitatedAt:
		p.Statuses = append(p.Statuses, StatusEffect{Name: StatusIncapacitated})
	}
}

// SetType changes the participant's type and moves its wounds onto the new track.
// A wounded Joker turned Extra is out of the fight; an out Extra turned Principal keeps one wound.
func (p *Participant) SetType(pType string) {
	if p.Type == pType {
		return
	}

	p.Type = pType
	p.clampWounds()
	p.syncWoundStatuses()
}
