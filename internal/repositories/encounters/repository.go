package encounters

//go:generate mockgen -destination=mock/mock_repository.go -package=mockencrepo -source=repository.go

import (
	"context"
	"encoding/json"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
)

// Repository defines the interface for encounter snapshot storage
type Repository interface {
	// Save stores the snapshot under the reference derived from its name, replacing any
	// snapshot saved under the same name, and returns that reference
	Save(ctx context.Context, snapshot *combat.EncounterSnapshot) (string, error)

	// Get retrieves a snapshot by reference
	Get(ctx context.Context, ref string) (*combat.EncounterSnapshot, error)

	// List returns summaries of every readable snapshot, ordered by reference
	List(ctx context.Context) ([]*combat.EncounterSummary, error)
}

func snapshotRef(snapshot *combat.EncounterSnapshot) (string, error) {
	if snapshot == nil {
		return "", dnderr.InvalidArgument("snapshot cannot be nil")
	}
	return combat.EncounterRef(snapshot.Name)
}

func encodeSnapshot(snapshot *combat.EncounterSnapshot) (string, []byte, error) {
	ref, err := snapshotRef(snapshot)
	if err != nil {
		return "", nil, err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to encode encounter")
	}

	return ref, data, nil
}

func decodeSnapshot(data []byte) (*combat.EncounterSnapshot, error) {
	var snapshot combat.EncounterSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to decode encounter")
	}

	snapshot.Monsters = compact(snapshot.Monsters)
	snapshot.Allies = compact(snapshot.Allies)
	return &snapshot, nil
}

func compact(participants []*combat.Participant) []*combat.Participant {
	out := make([]*combat.Participant, 0, len(participants))
	for _, p := range participants {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
