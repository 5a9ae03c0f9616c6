package testutils

import (
	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
)

// CreateTestPlayer creates a fresh player at the default player initiative
func CreateTestPlayer(name string) *combat.Participant {
	return combat.NewPlayer(name)
}

// CreateTestMonster creates an Extra monster with the given initiative
func CreateTestMonster(name string, initiative int) *combat.Participant {
	return combat.NewNPC(name, combat.RoleMonster, combat.TypeExtra, initiative)
}

// CreateTestAlly creates an ally of the given combat type
func CreateTestAlly(name, pType string, initiative int) *combat.Participant {
	return combat.NewNPC(name, combat.RoleAlly, pType, initiative)
}

// CreateTestWounded applies wounds to p and returns it
func CreateTestWounded(p *combat.Participant, wounds int) *combat.Participant {
	for i := 0; i < wounds; i++ {
		p.ApplyWound()
	}
	return p
}

// CreateTestParty returns two players, a monster and an ally
func CreateTestParty() []*combat.Participant {
	return []*combat.Participant{
		CreateTestPlayer("Ana"),
		CreateTestPlayer("Bea"),
		CreateTestMonster("Goblin", 12),
		CreateTestAlly("Guard", "Principal", 7),
	}
}

// CreateTestSnapshot creates a stored encounter with one monster and one ally
func CreateTestSnapshot(name string) *combat.EncounterSnapshot {
	return &combat.EncounterSnapshot{
		Name:        name,
		Monsters:    []*combat.Participant{CreateTestMonster("Orc", 14)},
		Allies:      []*combat.Participant{CreateTestAlly("Elf", "Principal", 3)},
		DateCreated: "2024-03-09 18:04:05",
	}
}
