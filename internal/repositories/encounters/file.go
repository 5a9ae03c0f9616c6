package encounters

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog/log"
)

// FileRepoConfig holds configuration for the file repository
type FileRepoConfig struct {
	Dir string
}

// fileRepository stores one JSON file per snapshot, named by its reference
type fileRepository struct {
	dir string
}

// NewFileRepository creates a directory-backed encounter repository
func NewFileRepository(cfg *FileRepoConfig) Repository {
	if cfg == nil || cfg.Dir == "" {
		panic("encounters directory is required")
	}

	return &fileRepository{dir: cfg.Dir}
}

// Save writes the snapshot atomically
func (r *fileRepository) Save(_ context.Context, snapshot *combat.EncounterSnapshot) (string, error) {
	ref, err := snapshotRef(snapshot)
	if err != nil {
		return "", err
	}

	data, err := repositories.EncodeJSON(snapshot)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to create encounters directory")
	}

	if err := renameio.WriteFile(filepath.Join(r.dir, ref), data, 0o644); err != nil {
		return "", dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to write encounter").WithMeta("ref", ref)
	}

	return ref, nil
}

// Get reads a snapshot file
func (r *fileRepository) Get(_ context.Context, ref string) (*combat.EncounterSnapshot, error) {
	if err := combat.ValidateEncounterRef(ref); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(r.dir, ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repositories.NewRecordNotFoundError("encounter", ref)
		}
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to read encounter").WithMeta("ref", ref)
	}

	return decodeSnapshot(data)
}

// List summarizes every .json file in the directory. Unreadable files are skipped.
func (r *fileRepository) List(_ context.Context) ([]*combat.EncounterSummary, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*combat.EncounterSummary{}, nil
		}
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to list encounters")
	}

	summaries := make([]*combat.EncounterSummary, 0, len(entries))
	for _, entry := range entries {
		ref := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(ref, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(r.dir, ref))
		if err != nil {
			log.Warn().Err(err).Str("encounter", ref).Msg("skipping unreadable encounter")
			continue
		}

		snapshot, err := decodeSnapshot(data)
		if err != nil {
			log.Warn().Err(err).Str("encounter", ref).Msg("skipping malformed encounter")
			continue
		}

		summaries = append(summaries, snapshot.Summary(ref))
	}

	sortSummaries(summaries)
	return summaries, nil
}
