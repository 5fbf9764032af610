package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrInvalidKey is returned for keys that are empty, absolute or escape the
// output directory
var ErrInvalidKey = errors.New("invalid artifact key")

// ErrArtifactExists is returned when a key is already taken
var ErrArtifactExists = errors.New("artifact already exists")

// ArtifactStore handles plot and report output
type ArtifactStore interface {
	Save(ctx context.Context, key string, write func(io.Writer) error) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	DeleteFile(ctx context.Context, key string) error
}

type fsStore struct {
	fs  afero.Fs
	dir string
}

// Config holds configuration for the artifact store
type Config struct {
	Dir string
}

// NewFSStore creates an artifact store rooted at cfg.Dir on fs
func NewFSStore(fs afero.Fs, cfg Config) (ArtifactStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := fs.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &fsStore{
		fs:  afero.NewBasePathFs(fs, cfg.Dir),
		dir: cfg.Dir,
	}, nil
}

// ArtifactKey names an artifact <prefix>-<kind>.<ext>
func ArtifactKey(prefix, kind, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, kind, strings.TrimPrefix(ext, "."))
}

// Save streams an artifact into the store and returns its path on the
// underlying filesystem. A failed write removes the partial file.
func (s *fsStore) Save(ctx context.Context, key string, write func(io.Writer) error) (string, error) {
	name, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if dir := path.Dir(name); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	f, err := s.fs.Create(name)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		s.fs.Remove(name)
		return "", fmt.Errorf("failed to write artifact %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close artifact %s: %w", key, err)
	}

	return filepath.Join(s.dir, filepath.FromSlash(name)), nil
}

// Exists reports whether an artifact is present
func (s *fsStore) Exists(ctx context.Context, key string) (bool, error) {
	name, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, name)
}

// DeleteFile removes an artifact; deleting a missing artifact is not an error
func (s *fsStore) DeleteFile(ctx context.Context, key string) error {
	name, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

func cleanKey(key string) (string, error) {
	if key == "" || path.IsAbs(key) || filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	name := path.Clean(filepath.ToSlash(key))
	if name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return name, nil
}
