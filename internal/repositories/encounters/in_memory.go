package encounters

import (
	"context"
	"sort"
	"sync"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories"
	"github.com/rs/zerolog/log"
)

// inMemoryRepository keeps encoded snapshots so reads never share memory with writers
type inMemoryRepository struct {
	mu         sync.RWMutex
	encounters map[string][]byte
}

// NewInMemoryRepository creates a new in-memory encounter repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		encounters: make(map[string][]byte),
	}
}

// Save stores the snapshot
func (r *inMemoryRepository) Save(_ context.Context, snapshot *combat.EncounterSnapshot) (string, error) {
	ref, data, err := encodeSnapshot(snapshot)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.encounters[ref] = data
	return ref, nil
}

// Get retrieves a snapshot by reference
func (r *inMemoryRepository) Get(_ context.Context, ref string) (*combat.EncounterSnapshot, error) {
	if err := combat.ValidateEncounterRef(ref); err != nil {
		return nil, err
	}

	r.mu.RLock()
	data, exists := r.encounters[ref]
	r.mu.RUnlock()

	if !exists {
		return nil, repositories.NewRecordNotFoundError("encounter", ref)
	}

	return decodeSnapshot(data)
}

// List returns summaries ordered by reference
func (r *inMemoryRepository) List(_ context.Context) ([]*combat.EncounterSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]*combat.EncounterSummary, 0, len(r.encounters))
	for ref, data := range r.encounters {
		snapshot, err := decodeSnapshot(data)
		if err != nil {
			log.Warn().Err(err).Str("encounter", ref).Msg("skipping unreadable encounter")
			continue
		}
		summaries = append(summaries, snapshot.Summary(ref))
	}

	sortSummaries(summaries)
	return summaries, nil
}

func sortSummaries(summaries []*combat.EncounterSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Filename < summaries[j].Filename
	})
}
