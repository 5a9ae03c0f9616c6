package players

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/KirkDiggler/initiative-tracker/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/initiative-tracker/internal/errors"
	"github.com/KirkDiggler/initiative-tracker/internal/repositories"
	"github.com/google/renameio/v2"
)

// FileRepoConfig holds configuration for the file repository
type FileRepoConfig struct {
	Path string
}

type fileRepository struct {
	path string
}

// NewFileRepository creates a players repository backed by a single JSON file
func NewFileRepository(cfg *FileRepoConfig) Repository {
	if cfg == nil || cfg.Path == "" {
		panic("players file path is required")
	}

	return &fileRepository{path: cfg.Path}
}

// Save replaces the file contents atomically, so a failed write keeps the previous roster
func (r *fileRepository) Save(_ context.Context, players []*combat.Participant) error {
	if players == nil {
		players = []*combat.Participant{}
	}

	data, err := repositories.EncodeJSON(players)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to create players directory")
	}

	if err := renameio.WriteFile(r.path, data, 0o644); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to write players file")
	}

	return nil
}

// Load reads and decodes the players file
func (r *fileRepository) Load(_ context.Context) ([]*combat.Participant, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repositories.NewRecordNotFoundError("players file", r.path)
		}
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to read players file")
	}

	return decodePlayers(data)
}

func decodePlayers(data []byte) ([]*combat.Participant, error) {
	var players []*combat.Participant
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInternal, "failed to decode players")
	}

	out := make([]*combat.Participant, 0, len(players))
	for _, p := range players {
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}
