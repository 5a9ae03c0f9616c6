package combat

// Named effects a moderator can put on a participant
const (
	EffectShaken      = "Shaken"
	EffectEntangled   = "Entangled"
	EffectBlinded     = "Blinded"
	EffectDeafened    = "Deafened"
	EffectFrightened  = "Frightened"
	EffectBound       = "Bound"
	EffectUnconscious = "Unconscious"
)

var recognizedEffects = []string{
	EffectShaken,
	EffectEntangled,
	EffectBlinded,
	EffectDeafened,
	EffectFrightened,
	EffectBound,
	EffectUnconscious,
}

// Effects lists the recognized effect names in display order
func Effects() []string {
	out := make([]string, len(recognizedEffects))
	copy(out, recognizedEffects)
	return out
}

// IsRecognizedEffect reports whether name can be added with AddEffect
func IsRecognizedEffect(name string) bool {
	for _, e := range recognizedEffects {
		if e == name {
			return true
		}
	}
	return false
}

// AddEffect attaches a named effect. A duration of zero or less lasts until removed.
// It returns false without changing anything when the name is unknown or already present.
func (p *Participant) AddEffect(name string, duration int) bool {
	if !IsRecognizedEffect(name) || p.HasStatus(name) {
		return false
	}

	effect := StatusEffect{Name: name}
	if duration > 0 {
		effect.Duration = &duration
	}
	p.Statuses = append(p.Statuses, effect)
	return true
}

// RemoveEffect drops every entry with the given name. Wound statuses follow the wound
// track and are left alone. It returns false when nothing was removed.
func (p *Participant) RemoveEffect(name string) bool {
	if isWoundStatus(name) || !p.HasStatus(name) {
		return false
	}

	p.Statuses = filterStatuses(p.Statuses, func(s StatusEffect) bool {
		return s.Name != name
	})
	return true
}

// decayEffects ticks every timed effect down by one round and drops the expired ones
func (p *Participant) decayEffects() {
	p.Statuses = filterStatuses(p.Statuses, func(s StatusEffect) bool {
		if s.Duration == nil {
			return true
		}
		*s.Duration--
		return *s.Duration > 0
	})
}
