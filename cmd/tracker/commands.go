package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	"github.com/KirkDiggler/initiative-tracker/internal/events"
	"github.com/KirkDiggler/initiative-tracker/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func listEncounters(ctx context.Context, out io.Writer, provider *services.Provider) error {
	summaries, err := provider.Tracker.ListEncounters(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REF\tNAME\tCREATED\tMONSTERS\tALLIES")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", s.Filename, s.Name, s.DateCreated, s.MonsterCount, s.AllyCount)
	}
	return w.Flush()
}

func listPlayers(ctx context.Context, out io.Writer, provider *services.Provider) error {
	loaded, err := provider.Tracker.LoadPlayers(ctx)
	if err != nil {
		return err
	}
	if !loaded {
		fmt.Fprintln(out, "no saved players")
		return nil
	}

	return printRoster(out, provider.Tracker.Participants(ctx), combat.NoTurn)
}

func preview(ctx context.Context, out io.Writer, provider *services.Provider, ref string) error {
	if _, err := provider.Tracker.LoadPlayers(ctx); err != nil {
		return err
	}
	if _, err := provider.Tracker.LoadEncounter(ctx, ref); err != nil {
		return err
	}

	turn, err := provider.Tracker.NewRound(ctx)
	if err != nil {
		return err
	}
	// Nothing listens in a one-shot preview
	provider.Bus.Drain()

	return printRoster(out, provider.Tracker.Participants(ctx), turn)
}

func printRoster(out io.Writer, participants []*combat.Participant, turn int) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\t#\tNAME\tROLE\tTYPE\tINIT\tSTATUS\tEFFECTS")
	for i, p := range participants {
		marker := ""
		if i == turn {
			marker = ">"
		}

		initiative := fmt.Sprint(p.InitiativeRoll)
		if p.IsCritical {
			initiative += "!"
		}

		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			marker, i, p.Name, p.Role, p.Type, initiative, p.DerivedStatus().Text, formatEffects(p.Statuses))
	}
	return w.Flush()
}

func formatEffects(statuses []combat.StatusEffect) string {
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if s.Duration != nil {
			parts = append(parts, fmt.Sprintf("%s(%d)", s.Name, *s.Duration))
			continue
		}
		parts = append(parts, s.Name)
	}
	return strings.Join(parts, ", ")
}

func watch(ctx context.Context, out io.Writer, client redis.UniversalClient, channel string) error {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	log.Info().Str("channel", channel).Msg("watching roster changes")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			change, err := events.DecodeChange(msg.Payload)
			if err != nil {
				log.Warn().Err(err).Msg("ignoring malformed change")
				continue
			}
			fmt.Fprintf(out, "%s  %s\n", change.At.Format(combat.DateLayout), change.ID)
		}
	}
}
