package combat

import (
	"strings"
	"time"
	"unicode"

	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// DateLayout is the timestamp format stored in encounter snapshots
const DateLayout = "2006-01-02 15:04:05"

// UnnamedEncounter is listed for snapshots that carry no name
const UnnamedEncounter = "Unnamed"

const encounterRefExt = ".json"

// EncounterSnapshot is a saved group of NPCs for re-use. Players are never stored here.
type EncounterSnapshot struct {
	Name        string         `json:"name"`
	Monsters    []*Participant `json:"monsters"`
	Allies      []*Participant `json:"allies"`
	DateCreated string         `json:"date_created"`
}

// EncounterSummary is the listing metadata of a stored snapshot
type EncounterSummary struct {
	Name         string `json:"name"`
	Filename     string `json:"filename"`
	DateCreated  string `json:"date_created"`
	MonsterCount int    `json:"monster_count"`
	AllyCount    int    `json:"ally_count"`
}

// NewEncounterSnapshot copies the monsters and allies out of participants
func NewEncounterSnapshot(name string, participants []*Participant, createdAt time.Time) *EncounterSnapshot {
	snapshot := &EncounterSnapshot{
		Name:        name,
		Monsters:    []*Participant{},
		Allies:      []*Participant{},
		DateCreated: createdAt.Format(DateLayout),
	}

	for _, p := range participants {
		switch p.Role {
		case RoleMonster:
			snapshot.Monsters = append(snapshot.Monsters, p.Clone())
		case RoleAlly:
			snapshot.Allies = append(snapshot.Allies, p.Clone())
		}
	}

	return snapshot
}

// Participants returns monsters followed by allies
func (s *EncounterSnapshot) Participants() []*Participant {
	out := make([]*Participant, 0, len(s.Monsters)+len(s.Allies))
	out = append(out, s.Monsters...)
	out = append(out, s.Allies...)
	return out
}

// Summary builds the listing entry for the snapshot stored under ref
func (s *EncounterSnapshot) Summary(ref string) *EncounterSummary {
	name := s.Name
	if name == "" {
		name = UnnamedEncounter
	}
	return &EncounterSummary{
		Name:         name,
		Filename:     ref,
		DateCreated:  s.DateCreated,
		MonsterCount: len(s.Monsters),
		AllyCount:    len(s.Allies),
	}
}

// EncounterRef derives the storage reference for an encounter name. Whitespace becomes
// underscores, so saving twice under one name overwrites the same entry.
func EncounterRef(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", dnderr.Validation("encounter name is required")
	}
	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." {
		return "", dnderr.Validationf("encounter name %q contains a path separator", name)
	}

	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, name) + encounterRefExt, nil
}

// ValidateEncounterRef checks that ref is a bare snapshot reference and not a path
func ValidateEncounterRef(ref string) error {
	if ref == "" || !strings.HasSuffix(ref, encounterRefExt) {
		return dnderr.InvalidArgumentf("invalid encounter reference %q", ref)
	}
	if strings.ContainsAny(ref, `/\`) {
		return dnderr.InvalidArgumentf("invalid encounter reference %q", ref)
	}
	return nil
}
