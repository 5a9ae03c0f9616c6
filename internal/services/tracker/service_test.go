package tracker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mockdice "github.com/KirkDiggler/initiative-tracker/internal/dice/mock"
	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/events"
	mockevents "github.com/KirkDiggler/initiative-tracker/internal/events/mock"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories/encounters"
	mockplayers "github.com/KirkDiggler/initiative-tracker/internal/repositories/players/mock"
	"github.com/KirkDiggler/initiative-tracker/internal/services/tracker"
	"github.com/KirkDiggler/initiative-tracker/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixedTime struct {
	now time.Time
}

func (f fixedTime) Now() time.Time { return f.now }

var savedAt = time.Date(2024, 3, 9, 18, 4, 5, 0, time.Local)

type fixture struct {
	svc        tracker.Service
	notifier   *mockevents.MockNotifier
	players    *mockplayers.MockRepository
	encounters encounters.Repository
	roller     *mockdice.ScriptedRoller
}

func newFixture(t *testing.T, participants ...*combat.Participant) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		notifier:   mockevents.NewMockNotifier(ctrl),
		players:    mockplayers.NewMockRepository(ctrl),
		encounters: encounters.NewInMemoryRepository(),
		roller:     mockdice.NewScriptedRoller(),
	}
	f.svc = tracker.NewService(&tracker.ServiceConfig{
		Roster:       combat.NewRoster(participants...),
		Notifier:     f.notifier,
		Roller:       f.roller,
		Players:      f.players,
		Encounters:   f.encounters,
		TimeProvider: fixedTime{now: savedAt},
	})
	return f
}

func (f *fixture) names() []string {
	var out []string
	for _, p := range f.svc.Participants(context.Background()) {
		out = append(out, p.Name)
	}
	return out
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	assert.Panics(t, func() { tracker.NewService(nil) })
	assert.Panics(t, func() {
		tracker.NewService(&tracker.ServiceConfig{
			Players:    mockplayers.NewMockRepository(gomock.NewController(t)),
			Encounters: encounters.NewInMemoryRepository(),
		})
	})
}

func TestAddParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("player joins as a Joker at the default initiative", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.EXPECT().Notify().Times(1)

		p, err := f.svc.AddParticipant(ctx, &tracker.AddParticipantInput{Name: " Ana ", Role: combat.RolePlayer, Type: "Principal"})
		require.NoError(t, err)
		assert.Equal(t, "Ana", p.Name)
		assert.Equal(t, combat.TypeJoker, p.Type)
		assert.Equal(t, combat.DefaultPlayerInitiative, p.InitiativeRoll)
		assert.Equal(t, 0, f.roller.Remaining())
	})

	t.Run("npc rolls initiative and defaults to Extra", func(t *testing.T) {
		f := newFixture(t)
		f.roller.SetRolls([]int{20})
		f.notifier.EXPECT().Notify().Times(1)

		p, err := f.svc.AddParticipant(ctx, &tracker.AddParticipantInput{Name: "Goblin", Role: combat.RoleMonster, Portrait: "goblin.png"})
		require.NoError(t, err)
		assert.Equal(t, combat.TypeExtra, p.Type)
		assert.Equal(t, 20, p.InitiativeRoll)
		assert.True(t, p.IsCritical)
		require.NotNil(t, p.Portrait)
		assert.Equal(t, "goblin.png", *p.Portrait)
	})

	t.Run("validation failures change nothing", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.AddParticipant(ctx, &tracker.AddParticipantInput{Name: "  ", Role: combat.RolePlayer})
		assert.True(t, dnderr.IsValidation(err))

		_, err = f.svc.AddParticipant(ctx, &tracker.AddParticipantInput{Name: "Ana", Role: "dragon"})
		assert.True(t, dnderr.IsValidation(err))

		_, err = f.svc.AddParticipant(ctx, nil)
		assert.True(t, dnderr.IsInvalidArgument(err))

		assert.Empty(t, f.svc.Participants(ctx))
	})

	t.Run("roller failure adds nothing", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.AddParticipant(ctx, &tracker.AddParticipantInput{Name: "Orc", Role: combat.RoleMonster})
		require.Error(t, err)
		assert.Empty(t, f.svc.Participants(ctx))
	})
}

func TestUpdateInitiatives_SortsAndNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		testutils.CreateTestPlayer("Bea"),
		testutils.CreateTestPlayer("Ana"),
		testutils.CreateTestPlayer("Cal"),
	)
	f.notifier.EXPECT().Notify().Times(1)

	// Order before the update is Cal, Bea, Ana (all at 10)
	applied, err := f.svc.UpdateInitiatives(ctx, map[int]int{0: 15, 1: 10, 2: 10, 9: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, applied)
	assert.Equal(t, []string{"Cal", "Bea", "Ana"}, f.names())
}

func TestEditParticipant(t *testing.T) {
	ctx := context.Background()
	portrait := "old.png"
	orc := testutils.CreateTestMonster("Orc", 12)
	orc.Portrait = &portrait

	f := newFixture(t, orc, testutils.CreateTestPlayer("Ana"))
	require.Equal(t, []string{"Orc", "Ana"}, f.names())

	t.Run("updates fields and re-sorts", func(t *testing.T) {
		f.notifier.EXPECT().Notify().Times(1)

		name, initiative, role, pType, empty := "Orc Chief", 3, combat.RoleAlly, "Principal", ""
		edited, err := f.svc.EditParticipant(ctx, 0, &tracker.EditParticipantInput{
			Name:       &name,
			Initiative: &initiative,
			Role:       &role,
			Type:       &pType,
			Portrait:   &empty,
		})
		require.NoError(t, err)

		assert.Equal(t, &combat.Participant{
			Name:           "Orc Chief",
			Role:           combat.RoleAlly,
			Type:           "Principal",
			InitiativeRoll: 3,
		}, edited)
		assert.Equal(t, []string{"Ana", "Orc Chief"}, f.names())
	})

	t.Run("invalid input is rejected before touching the roster", func(t *testing.T) {
		blank := " "
		_, err := f.svc.EditParticipant(ctx, 0, &tracker.EditParticipantInput{Name: &blank})
		assert.True(t, dnderr.IsValidation(err))

		bad := combat.Role("boss")
		_, err = f.svc.EditParticipant(ctx, 0, &tracker.EditParticipantInput{Role: &bad})
		assert.True(t, dnderr.IsValidation(err))

		_, err = f.svc.EditParticipant(ctx, 5, &tracker.EditParticipantInput{})
		assert.True(t, dnderr.IsNotFound(err))
	})
}

func TestEditParticipant_TypeChangeMovesWoundTrack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.CreateTestWounded(testutils.CreateTestPlayer("Ana"), 4))
	f.notifier.EXPECT().Notify().Times(2)

	extra := combat.TypeExtra
	edited, err := f.svc.EditParticipant(ctx, 0, &tracker.EditParticipantInput{Type: &extra})
	require.NoError(t, err)

	assert.Equal(t, combat.TypeExtra, edited.Type)
	assert.Equal(t, 1, edited.Wounds)
	assert.Equal(t, []combat.StatusEffect{{Name: combat.StatusDead}}, edited.Statuses)
	assert.Equal(t, combat.LabelOutOfTheFight, edited.DerivedStatus().Text)

	healed, err := f.svc.RemoveWound(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, healed.Wounds)
	assert.Empty(t, healed.Statuses)
	assert.Equal(t, combat.Status{}, healed.DerivedStatus())
}

func TestRemoveParticipant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		testutils.CreateTestMonster("A", 20),
		testutils.CreateTestMonster("B", 15),
		testutils.CreateTestMonster("C", 10),
	)

	f.notifier.EXPECT().Notify().Times(2)
	_, err := f.svc.NextTurn(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, f.svc.CurrentTurn(ctx))

	require.NoError(t, f.svc.RemoveParticipant(ctx, 0))
	assert.Equal(t, 0, f.svc.CurrentTurn(ctx))
	assert.Equal(t, "B", f.svc.CurrentParticipant(ctx).Name)

	err = f.svc.RemoveParticipant(ctx, 7)
	assert.True(t, dnderr.IsNotFound(err))
}

func TestWounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.CreateTestMonster("Goblin", 12))
	f.notifier.EXPECT().Notify().Times(3)

	p, err := f.svc.ApplyWound(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Wounds)
	assert.True(t, p.IsTerminal())

	p, err = f.svc.ApplyWound(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Wounds, "a second wound on an Extra is a no-op")

	p, err = f.svc.RemoveWound(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Wounds)
	assert.False(t, p.HasStatus(combat.StatusDead))

	_, err = f.svc.ApplyWound(ctx, 1)
	assert.True(t, dnderr.IsNotFound(err))
}

func TestEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.CreateTestPlayer("Ana"))

	t.Run("accepted effect notifies", func(t *testing.T) {
		f.notifier.EXPECT().Notify().Times(1)
		require.NoError(t, f.svc.AddEffect(ctx, 0, combat.EffectShaken, 2))
	})

	t.Run("rejected effects are validation errors without a notification", func(t *testing.T) {
		err := f.svc.AddEffect(ctx, 0, combat.EffectShaken, 1)
		assert.True(t, dnderr.IsValidation(err))

		err = f.svc.AddEffect(ctx, 0, "Sleepy", 1)
		assert.True(t, dnderr.IsValidation(err))

		err = f.svc.AddEffect(ctx, 0, combat.StatusDead, 0)
		assert.True(t, dnderr.IsValidation(err))

		err = f.svc.AddEffect(ctx, 3, combat.EffectBound, 0)
		assert.True(t, dnderr.IsNotFound(err))
	})

	t.Run("remove", func(t *testing.T) {
		f.notifier.EXPECT().Notify().Times(1)
		require.NoError(t, f.svc.RemoveEffect(ctx, 0, combat.EffectShaken))
		assert.Empty(t, f.svc.Participants(ctx)[0].Statuses)
	})

	assert.Equal(t, combat.Effects(), f.svc.Effects(ctx))
}

func TestNextTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("skips participants out of the fight", func(t *testing.T) {
		f := newFixture(t,
			testutils.CreateTestMonster("A", 20),
			testutils.CreateTestWounded(testutils.CreateTestMonster("B", 15), 1),
			testutils.CreateTestMonster("C", 10),
		)
		f.notifier.EXPECT().Notify().Times(1)

		turn, err := f.svc.NextTurn(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, turn)
	})

	t.Run("everyone dead leaves the cursor alone", func(t *testing.T) {
		f := newFixture(t,
			testutils.CreateTestWounded(testutils.CreateTestMonster("A", 20), 1),
			testutils.CreateTestWounded(testutils.CreateTestAlly("B", "Principal", 5), 5),
		)

		_, err := f.svc.NextTurn(ctx)
		assert.ErrorIs(t, err, combat.ErrNoValidTurn)
		assert.True(t, dnderr.IsFailedPrecondition(err))
		assert.Equal(t, 0, f.svc.CurrentTurn(ctx))
	})
}

func TestNewRound(t *testing.T) {
	ctx := context.Background()
	one, two := 1, 2

	ana := testutils.CreateTestPlayer("Ana")
	ana.Statuses = []combat.StatusEffect{
		{Name: combat.EffectShaken, Duration: &one},
		{Name: combat.EffectBlinded, Duration: &two},
		{Name: combat.EffectBound},
	}
	dead := testutils.CreateTestWounded(testutils.CreateTestMonster("Rat", 4), 1)
	orc := testutils.CreateTestMonster("Orc", 11)

	f := newFixture(t, ana, dead, orc)
	f.roller.SetRolls([]int{20})
	f.notifier.EXPECT().Notify().Times(1)

	turn, err := f.svc.NewRound(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, turn)
	assert.Equal(t, 1, f.svc.Round(ctx))
	assert.Equal(t, []string{"Orc", "Ana", "Rat"}, f.names())

	participants := f.svc.Participants(ctx)
	assert.True(t, participants[0].IsCritical)
	assert.Equal(t, 4, participants[2].InitiativeRoll, "terminal participants keep their roll")

	two = 1
	assert.Equal(t, []combat.StatusEffect{
		{Name: combat.EffectBlinded, Duration: &two},
		{Name: combat.EffectBound},
	}, participants[1].Statuses)

	t.Run("roller failure changes nothing", func(t *testing.T) {
		before := f.svc.Participants(ctx)

		_, err := f.svc.NewRound(ctx)
		require.Error(t, err)
		assert.Equal(t, before, f.svc.Participants(ctx))
		assert.Equal(t, 1, f.svc.Round(ctx))
	})
}

func TestResets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.CreateTestParty()...)
	f.notifier.EXPECT().Notify().Times(3)

	_, err := f.svc.NextTurn(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.ResetCombat(ctx))
	assert.Equal(t, []string{"Bea", "Ana"}, f.names())
	assert.Equal(t, 0, f.svc.CurrentTurn(ctx))

	require.NoError(t, f.svc.ResetAll(ctx))
	assert.Empty(t, f.svc.Participants(ctx))
	assert.Equal(t, 0, f.svc.CurrentTurn(ctx))
	assert.Nil(t, f.svc.CurrentParticipant(ctx))
}

func TestParticipants_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.CreateTestPlayer("Ana"))

	f.svc.Participants(ctx)[0].Wounds = 3

	assert.Equal(t, 0, f.svc.Participants(ctx)[0].Wounds)
}

func TestConcurrentMutationsStaySorted(t *testing.T) {
	ctx := context.Background()
	var notified atomic.Int32
	roller := mockdice.NewScriptedRoller()
	for i := 0; i < 50; i++ {
		roller.SetNextRoll(i%20 + 1)
	}

	svc := tracker.NewService(&tracker.ServiceConfig{
		Notifier:   events.NotifierFunc(func() { notified.Add(1) }),
		Roller:     roller,
		Players:    mockplayers.NewMockRepository(gomock.NewController(t)),
		Encounters: encounters.NewInMemoryRepository(),
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddParticipant(ctx, &tracker.AddParticipantInput{Name: "Goblin", Role: combat.RoleMonster})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	participants := svc.Participants(ctx)
	require.Len(t, participants, 50)
	assert.Equal(t, int32(50), notified.Load())
	for i := 1; i < len(participants); i++ {
		assert.GreaterOrEqual(t, participants[i-1].InitiativeRoll, participants[i].InitiativeRoll)
	}
}

func TestSavePlayers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.CreateTestParty()...)

	t.Run("writes only the players", func(t *testing.T) {
		f.players.EXPECT().Save(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, roster []*combat.Participant) error {
			require.Len(t, roster, 2)
			assert.Equal(t, "Bea", roster[0].Name)
			assert.Equal(t, "Ana", roster[1].Name)
			return nil
		})

		require.NoError(t, f.svc.SavePlayers(ctx))
	})

	t.Run("storage failure is reported", func(t *testing.T) {
		f.players.EXPECT().Save(ctx, gomock.Any()).Return(dnderr.New(dnderr.CodeInternal, "disk full"))

		err := f.svc.SavePlayers(ctx)
		assert.True(t, dnderr.IsInternal(err))
	})

	t.Run("no players saves an empty list", func(t *testing.T) {
		empty := newFixture(t, testutils.CreateTestMonster("Orc", 3))
		empty.players.EXPECT().Save(ctx, []*combat.Participant{}).Return(nil)

		require.NoError(t, empty.svc.SavePlayers(ctx))
	})
}

func TestLoadPlayers(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces live players and keeps npcs", func(t *testing.T) {
		f := newFixture(t, testutils.CreateTestPlayer("Old"), testutils.CreateTestMonster("Orc", 12))
		f.notifier.EXPECT().Notify().Times(1)

		stored := testutils.CreateTestPlayer("Ana")
		stored.InitiativeRoll = 18
		f.players.EXPECT().Load(ctx).Return([]*combat.Participant{stored, testutils.CreateTestPlayer("Bea")}, nil)

		loaded, err := f.svc.LoadPlayers(ctx)
		require.NoError(t, err)
		assert.True(t, loaded)
		assert.Equal(t, []string{"Ana", "Orc", "Bea"}, f.names())
	})

	t.Run("nothing stored is not an error", func(t *testing.T) {
		f := newFixture(t, testutils.CreateTestPlayer("Old"))
		f.players.EXPECT().Load(ctx).Return(nil, dnderr.NotFound("players file not found"))

		loaded, err := f.svc.LoadPlayers(ctx)
		require.NoError(t, err)
		assert.False(t, loaded)
		assert.Equal(t, []string{"Old"}, f.names())
	})

	t.Run("malformed store fails and leaves the roster alone", func(t *testing.T) {
		f := newFixture(t, testutils.CreateTestPlayer("Old"))
		f.players.EXPECT().Load(ctx).Return(nil, dnderr.WrapWithCode(errors.New("unexpected end of JSON input"), dnderr.CodeInternal, "failed to decode players"))

		loaded, err := f.svc.LoadPlayers(ctx)
		require.Error(t, err)
		assert.False(t, loaded)
		assert.Equal(t, []string{"Old"}, f.names())
	})
}

func TestSaveAndLoadEncounter(t *testing.T) {
	ctx := context.Background()

	orc := testutils.CreateTestMonster("Orc", 7)
	orc.IsCritical = true
	ghoul := testutils.CreateTestWounded(testutils.CreateTestAlly("Ghoul", "Principal", 7), 5)

	f := newFixture(t, testutils.CreateTestPlayer("Ana"), orc, ghoul)

	ref, err := f.svc.SaveEncounter(ctx, "Crypt Night")
	require.NoError(t, err)
	assert.Equal(t, "Crypt_Night.json", ref)

	summaries, err := f.svc.ListEncounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*combat.EncounterSummary{{
		Name:         "Crypt Night",
		Filename:     "Crypt_Night.json",
		DateCreated:  savedAt.Format(combat.DateLayout),
		MonsterCount: 1,
		AllyCount:    1,
	}}, summaries)

	f.notifier.EXPECT().Notify().Times(2)
	require.NoError(t, f.svc.ResetCombat(ctx))

	f.roller.SetRolls([]int{20})
	added, err := f.svc.LoadEncounter(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 0, f.roller.Remaining(), "only the live monster rolls")

	participants := f.svc.Participants(ctx)
	require.Equal(t, []string{"Orc", "Ana", "Ghoul"}, f.names())

	loadedOrc := participants[0]
	assert.Equal(t, 20, loadedOrc.InitiativeRoll)
	assert.False(t, loadedOrc.IsCritical, "load clears the critical flag")

	loadedGhoul := participants[2]
	assert.Equal(t, 7, loadedGhoul.InitiativeRoll, "terminal participants keep their stored roll")
	assert.Equal(t, 5, loadedGhoul.Wounds)
}

func TestSaveAndLoadEncounter_DottedName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.CreateTestMonster("Goblin", 9))

	ref, err := f.svc.SaveEncounter(ctx, "..Goblins")
	require.NoError(t, err)
	assert.Equal(t, "..Goblins.json", ref)

	summaries, err := f.svc.ListEncounters(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, ref, summaries[0].Filename)

	f.notifier.EXPECT().Notify().Times(1)
	f.roller.SetRolls([]int{11})
	added, err := f.svc.LoadEncounter(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"Goblin", "Goblin"}, f.names())
}

func TestLoadEncounter_RerollsIntoDieRange(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	repo := encounters.NewInMemoryRepository()
	_, err := repo.Save(ctx, &combat.EncounterSnapshot{
		Name:     "Ambush",
		Monsters: []*combat.Participant{testutils.CreateTestMonster("Orc", 7)},
		Allies:   []*combat.Participant{},
	})
	require.NoError(t, err)

	notifier := mockevents.NewMockNotifier(ctrl)
	notifier.EXPECT().Notify().Times(1)
	svc := tracker.NewService(&tracker.ServiceConfig{
		Notifier:   notifier,
		Players:    mockplayers.NewMockRepository(ctrl),
		Encounters: repo,
	})

	_, err = svc.LoadEncounter(ctx, "Ambush.json")
	require.NoError(t, err)

	roll := svc.Participants(ctx)[0].InitiativeRoll
	assert.GreaterOrEqual(t, roll, 1)
	assert.LessOrEqual(t, roll, 20)
}

func TestEncounterErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.CreateTestMonster("Orc", 7))

	_, err := f.svc.SaveEncounter(ctx, "")
	assert.True(t, dnderr.IsValidation(err))

	_, err = f.svc.LoadEncounter(ctx, "Missing.json")
	assert.True(t, dnderr.IsNotFound(err))

	_, err = f.svc.LoadEncounter(ctx, "../players.json")
	assert.True(t, dnderr.IsInvalidArgument(err))

	t.Run("roller failure adds nobody", func(t *testing.T) {
		_, err := f.svc.SaveEncounter(ctx, "Solo")
		require.NoError(t, err)

		_, err = f.svc.LoadEncounter(ctx, "Solo.json")
		require.Error(t, err)
		assert.Len(t, f.svc.Participants(ctx), 1)
	})
}
