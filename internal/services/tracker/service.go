package tracker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/KirkDiggler/initiative-tracker/internal/dice"
	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/events"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories/encounters"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories/players"
	"github.com/rs/zerolog/log"
)

// Service is the moderator-facing tracker. Participants are addressed by their position in
// the order returned by Participants; any mutation can shift those positions.
type Service interface {
	// AddParticipant adds a player or NPC and re-sorts
	AddParticipant(ctx context.Context, input *AddParticipantInput) (*combat.Participant, error)

	// EditParticipant updates the fields set in input and re-sorts
	EditParticipant(ctx context.Context, index int, input *EditParticipantInput) (*combat.Participant, error)

	// RemoveParticipant deletes the participant at index
	RemoveParticipant(ctx context.Context, index int) error

	// ApplyWound adds one wound to the participant at index
	ApplyWound(ctx context.Context, index int) (*combat.Participant, error)

	// RemoveWound heals one wound from the participant at index
	RemoveWound(ctx context.Context, index int) (*combat.Participant, error)

	// AddEffect attaches a named effect. Unknown or duplicate names are validation errors.
	AddEffect(ctx context.Context, index int, name string, duration int) error

	// RemoveEffect removes every effect with the given name
	RemoveEffect(ctx context.Context, index int, name string) error

	// UpdateInitiatives applies index -> roll updates in one batch and returns how many applied
	UpdateInitiatives(ctx context.Context, rolls map[int]int) (int, error)

	// NextTurn moves the cursor to the next participant still in the fight
	NextTurn(ctx context.Context) (int, error)

	// NewRound ticks effects, re-rolls NPC initiative and returns the new cursor
	NewRound(ctx context.Context) (int, error)

	// ResetCombat keeps only the players
	ResetCombat(ctx context.Context) error

	// ResetAll empties the roster
	ResetAll(ctx context.Context) error

	// Participants returns copies of the participants in turn order
	Participants(ctx context.Context) []*combat.Participant

	// CurrentTurn returns the cursor, or combat.NoTurn
	CurrentTurn(ctx context.Context) int

	// CurrentParticipant returns a copy of the participant whose turn it is, or nil
	CurrentParticipant(ctx context.Context) *combat.Participant

	// Round returns the number of rounds started since the last reset
	Round(ctx context.Context) int

	// Effects lists the effect names AddEffect accepts
	Effects(ctx context.Context) []string

	// SavePlayers overwrites the stored player roster with the current players
	SavePlayers(ctx context.Context) error

	// LoadPlayers replaces the live players with the stored ones. It returns false when
	// nothing was ever saved.
	LoadPlayers(ctx context.Context) (bool, error)

	// SaveEncounter stores the monsters and allies under name and returns the reference
	SaveEncounter(ctx context.Context, name string) (string, error)

	// LoadEncounter appends a stored encounter with fresh initiative and returns how many
	// participants joined
	LoadEncounter(ctx context.Context, ref string) (int, error)

	// ListEncounters summarizes the stored encounters
	ListEncounters(ctx context.Context) ([]*combat.EncounterSummary, error)
}

// AddParticipantInput contains data for adding a participant
type AddParticipantInput struct {
	Name     string
	Role     combat.Role
	Type     string // NPCs only; empty means Extra
	Portrait string
}

// EditParticipantInput holds the fields to change. Nil fields are left alone and an
// empty Portrait clears it.
type EditParticipantInput struct {
	Name       *string
	Initiative *int
	Role       *combat.Role
	Type       *string
	Portrait   *string
}

// TimeProvider supplies the creation time of saved encounters
type TimeProvider interface {
	Now() time.Time
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Roster       *combat.Roster
	Notifier     events.Notifier
	Roller       dice.Roller
	Players      players.Repository
	Encounters   encounters.Repository
	TimeProvider TimeProvider
}

type service struct {
	mu           sync.Mutex
	roster       *combat.Roster
	notifier     events.Notifier
	roller       dice.Roller
	players      players.Repository
	encounters   encounters.Repository
	timeProvider TimeProvider
}

// NewService creates a new tracker service
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("service config is required")
	}
	if cfg.Notifier == nil {
		panic("notifier is required")
	}
	if cfg.Players == nil {
		panic("players repository is required")
	}
	if cfg.Encounters == nil {
		panic("encounters repository is required")
	}

	svc := &service{
		roster:       cfg.Roster,
		notifier:     cfg.Notifier,
		roller:       cfg.Roller,
		players:      cfg.Players,
		encounters:   cfg.Encounters,
		timeProvider: cfg.TimeProvider,
	}

	if svc.roster == nil {
		svc.roster = combat.NewRoster()
	}
	if svc.roller == nil {
		svc.roller = dice.NewRandomRoller()
	}
	if svc.timeProvider == nil {
		svc.timeProvider = realTimeProvider{}
	}

	return svc
}

// mutate runs fn under the lock and notifies once when it succeeds
func (s *service) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(); err != nil {
		return err
	}

	s.notifier.Notify()
	return nil
}

// AddParticipant adds a player or NPC and re-sorts
func (s *service) AddParticipant(_ context.Context, input *AddParticipantInput) (*combat.Participant, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input cannot be nil")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, dnderr.Validation("participant name is required")
	}
	if !input.Role.IsValid() {
		return nil, dnderr.Validationf("unknown role %q", input.Role)
	}

	var added *combat.Participant
	err := s.mutate(func() error {
		var p *combat.Participant
		if input.Role == combat.RolePlayer {
			p = combat.NewPlayer(name)
		} else {
			p = combat.NewNPC(name, input.Role, strings.TrimSpace(input.Type), 0)
			if err := p.RerollInitiative(s.roller); err != nil {
				return dnderr.Wrapf(err, "failed to roll initiative for %s", name)
			}
		}

		if input.Portrait != "" {
			portrait := input.Portrait
			p.Portrait = &portrait
		}

		s.roster.Add(p)
		added = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("name", added.Name).Str("role", string(added.Role)).Int("initiative", added.InitiativeRoll).Msg("participant added")
	return added, nil
}

// EditParticipant updates the fields set in input and re-sorts
func (s *service) EditParticipant(_ context.Context, index int, input *EditParticipantInput) (*combat.Participant, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input cannot be nil")
	}

	var name string
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, dnderr.Validation("participant name cannot be empty")
		}
	}
	if input.Role != nil && !input.Role.IsValid() {
		return nil, dnderr.Validationf("unknown role %q", *input.Role)
	}

	var edited *combat.Participant
	err := s.mutate(func() error {
		p, err := s.roster.At(index)
		if err != nil {
			return err
		}

		if input.Name != nil {
			p.Name = name
		}
		if input.Initiative != nil {
			p.InitiativeRoll = *input.Initiative
		}
		if input.Role != nil {
			p.Role = *input.Role
		}
		if input.Type != nil && strings.TrimSpace(*input.Type) != "" {
			p.SetType(strings.TrimSpace(*input.Type))
		}
		if input.Portrait != nil {
			if *input.Portrait == "" {
				p.Portrait = nil
			} else {
				portrait := *input.Portrait
				p.Portrait = &portrait
			}
		}

		s.roster.Sort()
		edited = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return edited, nil
}

// RemoveParticipant deletes the participant at index
func (s *service) RemoveParticipant(_ context.Context, index int) error {
	return s.mutate(func() error {
		return s.roster.Remove(index)
	})
}

// ApplyWound adds one wound to the participant at index
func (s *service) ApplyWound(_ context.Context, index int) (*combat.Participant, error) {
	return s.updateParticipant(index, (*combat.Participant).ApplyWound)
}

// RemoveWound heals one wound from the participant at index
func (s *service) RemoveWound(_ context.Context, index int) (*combat.Participant, error) {
	return s.updateParticipant(index, (*combat.Participant).RemoveWound)
}

func (s *service) updateParticipant(index int, fn func(*combat.Participant)) (*combat.Participant, error) {
	var updated *combat.Participant
	err := s.mutate(func() error {
		p, err := s.roster.At(index)
		if err != nil {
			return err
		}
		fn(p)
		updated = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddEffect attaches a named effect to the participant at index
func (s *service) AddEffect(_ context.Context, index int, name string, duration int) error {
	return s.mutate(func() error {
		p, err := s.roster.At(index)
		if err != nil {
			return err
		}

		if !combat.IsRecognizedEffect(name) {
			return dnderr.Validationf("unknown effect %q", name).WithMeta("effect", name)
		}
		if !p.AddEffect(name, duration) {
			return dnderr.Validationf("%s already has %s", p.Name, name).WithMeta("effect", name)
		}
		return nil
	})
}

// RemoveEffect removes every effect with the given name from the participant at index
func (s *service) RemoveEffect(_ context.Context, index int, name string) error {
	return s.mutate(func() error {
		p, err := s.roster.At(index)
		if err != nil {
			return err
		}
		p.RemoveEffect(name)
		return nil
	})
}

// UpdateInitiatives applies a batch of initiative changes and notifies once
func (s *service) UpdateInitiatives(_ context.Context, rolls map[int]int) (int, error) {
	var applied int
	err := s.mutate(func() error {
		applied = s.roster.SetInitiatives(rolls)
		return nil
	})
	return applied, err
}

// NextTurn moves the cursor to the next participant still in the fight
func (s *service) NextTurn(_ context.Context) (int, error) {
	var turn int
	err := s.mutate(func() error {
		if err := s.roster.AdvanceTurn(); err != nil {
			return err
		}
		turn = s.roster.CurrentTurn()
		return nil
	})
	if err != nil {
		return combat.NoTurn, err
	}
	return turn, nil
}

// NewRound ticks effects, re-rolls NPC initiative and returns the new cursor
func (s *service) NewRound(_ context.Context) (int, error) {
	var turn, round int
	err := s.mutate(func() error {
		if err := s.roster.AdvanceRound(s.roller); err != nil {
			return err
		}
		turn = s.roster.CurrentTurn()
		round = s.roster.Round()
		return nil
	})
	if err != nil {
		return combat.NoTurn, err
	}

	log.Debug().Int("round", round).Int("turn", turn).Msg("new round")
	return turn, nil
}

// ResetCombat keeps only the players
func (s *service) ResetCombat(_ context.Context) error {
	return s.mutate(func() error {
		s.roster.ResetToPlayers()
		return nil
	})
}

// ResetAll empties the roster
func (s *service) ResetAll(_ context.Context) error {
	return s.mutate(func() error {
		s.roster.ResetAll()
		return nil
	})
}

// Participants returns copies of the participants in turn order
func (s *service) Participants(_ context.Context) []*combat.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roster.Snapshot()
}

// CurrentTurn returns the cursor
func (s *service) CurrentTurn(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roster.CurrentTurn()
}

// CurrentParticipant returns a copy of the participant whose turn it is, or nil
func (s *service) CurrentParticipant(_ context.Context) *combat.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roster.Current().Clone()
}

// Round returns the number of rounds started since the last reset
func (s *service) Round(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roster.Round()
}

// Effects lists the effect names AddEffect accepts
func (s *service) Effects(_ context.Context) []string {
	return combat.Effects()
}
