package metadata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/srcsetter/internal/imagetext"
	"gopkg.in/yaml.v3"
)

// Sidecar keeps metadata in a YAML file next to each image, e.g.
// photo.jpg.yaml:
//
//	title: Harbour at dusk
//	description: Fishing boats moored in the inner harbour.
type Sidecar struct {
	Root string
}

func NewSidecar(root string) *Sidecar {
	return &Sidecar{Root: root}
}

func (s *Sidecar) file(path string) string {
	return filepath.Join(s.Root, filepath.FromSlash(path)) + ".yaml"
}

func (s *Sidecar) Get(ctx context.Context, path string) (*imagetext.Metadata, error) {
	data, err := os.ReadFile(s.file(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar for %s: %w", path, err)
	}

	var meta imagetext.Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar for %s: %w", path, err)
	}
	return &meta, nil
}

func (s *Sidecar) Set(ctx context.Context, path string, meta imagetext.Metadata) error {
	data, err := yaml.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("failed to marshal sidecar: %w", err)
	}
	if err := os.WriteFile(s.file(path), data, 0644); err != nil {
		return fmt.Errorf("failed to write sidecar for %s: %w", path, err)
	}
	return nil
}
