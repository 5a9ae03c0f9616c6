package players

//go:generate mockgen -destination=mock/mock_repository.go -package=mockplayers -source=repository.go

import (
	"context"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
)

// Repository stores the persistent player roster
type Repository interface {
	// Save overwrites the stored roster with players
	Save(ctx context.Context, players []*combat.Participant) error

	// Load returns the stored roster, or a not-found error when nothing was ever saved
	Load(ctx context.Context) ([]*combat.Participant, error)
}
