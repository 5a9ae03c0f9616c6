package tracker

import (
	"context"

	"github.com/KirkDiggler/initiative-tracker/internal/dice"
	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/rs/zerolog/log"
)

// SavePlayers overwrites the stored player roster with the current players
func (s *service) SavePlayers(ctx context.Context) error {
	s.mu.Lock()
	var roster []*combat.Participant
	for _, p := range s.roster.Participants() {
		if p.IsPlayer() {
			roster = append(roster, p.Clone())
		}
	}
	s.mu.Unlock()

	if roster == nil {
		roster = []*combat.Participant{}
	}

	if err := s.players.Save(ctx, roster); err != nil {
		return dnderr.Wrap(err, "failed to save players")
	}

	log.Info().Int("players", len(roster)).Msg("players saved")
	return nil
}

// LoadPlayers replaces the live players with the stored ones
func (s *service) LoadPlayers(ctx context.Context) (bool, error) {
	loaded, err := s.players.Load(ctx)
	if err != nil {
		if dnderr.IsNotFound(err) {
			log.Info().Msg("no saved players")
			return false, nil
		}
		return false, dnderr.Wrap(err, "failed to load players")
	}

	err = s.mutate(func() error {
		s.roster.ReplacePlayers(loaded)
		s.roster.Sort()
		return nil
	})
	if err != nil {
		return false, err
	}

	log.Info().Int("players", len(loaded)).Msg("players loaded")
	return true, nil
}

// SaveEncounter stores the current monsters and allies under name
func (s *service) SaveEncounter(ctx context.Context, name string) (string, error) {
	if _, err := combat.EncounterRef(name); err != nil {
		return "", err
	}

	s.mu.Lock()
	snapshot := combat.NewEncounterSnapshot(name, s.roster.Participants(), s.timeProvider.Now())
	s.mu.Unlock()

	ref, err := s.encounters.Save(ctx, snapshot)
	if err != nil {
		return "", dnderr.Wrapf(err, "failed to save encounter %q", name)
	}

	log.Info().Str("encounter", ref).Int("monsters", len(snapshot.Monsters)).Int("allies", len(snapshot.Allies)).Msg("encounter saved")
	return ref, nil
}

// LoadEncounter appends a stored encounter. Every participant still in the fight gets a
// fresh initiative roll; the rest keep what they were saved with.
func (s *service) LoadEncounter(ctx context.Context, ref string) (int, error) {
	if err := combat.ValidateEncounterRef(ref); err != nil {
		return 0, err
	}

	snapshot, err := s.encounters.Get(ctx, ref)
	if err != nil {
		return 0, dnderr.Wrapf(err, "failed to load encounter %s", ref)
	}
	incoming := snapshot.Participants()

	err = s.mutate(func() error {
		if err := rerollLoaded(incoming, s.roller); err != nil {
			return err
		}
		s.roster.Append(incoming...)
		s.roster.Sort()
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Str("encounter", ref).Int("participants", len(incoming)).Msg("encounter loaded")
	return len(incoming), nil
}

func rerollLoaded(participants []*combat.Participant, roller dice.Roller) error {
	rolls := make([]int, len(participants))
	for i, p := range participants {
		if p.IsTerminal() {
			continue
		}
		result, err := roller.Roll(1, dice.D20, 0)
		if err != nil {
			return dnderr.Wrapf(err, "failed to roll initiative for %s", p.Name)
		}
		rolls[i] = result.Total
	}

	for i, p := range participants {
		if p.IsTerminal() {
			continue
		}
		p.InitiativeRoll = rolls[i]
		p.IsCritical = false
	}
	return nil
}

// ListEncounters summarizes the stored encounters
func (s *service) ListEncounters(ctx context.Context) ([]*combat.EncounterSummary, error) {
	summaries, err := s.encounters.List(ctx)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to list encounters")
	}
	return summaries, nil
}
