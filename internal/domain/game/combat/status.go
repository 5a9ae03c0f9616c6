package combat

import "fmt"

// StatusClass is the display class derived from a participant's wounds
type StatusClass string

const (
	ClassNone          StatusClass = ""
	ClassWounded       StatusClass = "status-wounded"
	ClassIncapacitated StatusClass = "status-incapacitated"
	ClassDead          StatusClass = "status-dead"
	// ClassOut is never produced by DerivedStatus but older clients treat it as terminal
	ClassOut StatusClass = "status-out"
)

// Labels shown for the wound-derived states
const (
	LabelOutOfTheFight = "Out of the Fight"
	LabelDead          = "Dead"
	LabelIncapacitated = "Incapacitated"
)

// Status is the read-only projection of (type, wounds) used for display and turn
// eligibility. It is recomputed on every call and never stored.
type Status struct {
	Text  string      `json:"text"`
	Class StatusClass `json:"class"`
	Malus int         `json:"malus"`
}

// IsTerminal is true when the participant no longer takes turns or decays effects
func (s Status) IsTerminal() bool {
	return s.Class == ClassDead || s.Class == ClassOut
}

// DerivedStatus computes the display status from the wound track
func (p *Participant) DerivedStatus() Status {
	if p.IsExtra() {
		if p.Wounds >= MaxExtraWounds {
			return Status{Text: LabelOutOfTheFight, Class: ClassDead}
		}
		return Status{}
	}

	if p.Wounds <= 0 {
		return Status{}
	}

	status := Status{
		Text:  fmt.Sprintf("-%d", p.Wounds),
		Class: ClassWounded,
		Malus: p.Wounds,
	}

	switch {
	case p.Wounds >= MaxWounds:
		status.Text = LabelDead
		status.Class = ClassDead
	case p.Wounds >= IncapacitatedAt:
		status.Text = LabelIncapacitated
		status.Class = ClassIncapacitated
	}

	return status
}

// IsTerminal is shorthand for DerivedStatus().IsTerminal()
func (p *Participant) IsTerminal() bool {
	return p.DerivedStatus().IsTerminal()
}
