// Package descriptor reads workspace descriptors from disk.
package descriptor

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/artpar/uniform/internal/core/domain"
)

const (
	// DefaultFile is the workspace descriptor looked up in a workspace root.
	DefaultFile = "uniform.json"
	// DefaultOverlay is merged onto the descriptor when present.
	DefaultOverlay = "env.json"
)

// fallbacks are tried in order when the default descriptor is absent.
var fallbacks = []string{"uniform.yaml", "uniform.yml"}

// Options select the files Load reads.
type Options struct {
	File    string // descriptor file name, relative to the root
	Overlay string // overlay file name, relative to the root; "-" disables it
}

// Load reads the workspace descriptor in root and applies the overlay
// when one exists.
func Load(root string, opts Options) (*domain.WorkspaceConfig, error) {
	file := opts.File
	if file == "" {
		file = DefaultFile
	}
	overlay := opts.Overlay
	if overlay == "" {
		overlay = DefaultOverlay
	}

	path, err := locate(root, file)
	if err != nil {
		return nil, err
	}
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	if overlay == "-" {
		return cfg, nil
	}
	overlayPath := filepath.Join(root, overlay)
	if _, err := os.Stat(overlayPath); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	extra, err := readFile(overlayPath)
	if err != nil {
		return nil, err
	}
	return cfg.Merge(extra), nil
}

// locate returns the descriptor path. Only the default file name falls
// back to the YAML spellings, and only when the previous candidate does
// not exist.
func locate(root, file string) (string, error) {
	candidates := []string{file}
	if file == DefaultFile {
		candidates = append(candidates, fallbacks...)
	}
	for _, name := range candidates {
		path := filepath.Join(root, name)
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", domain.NewConfigError(path, "cannot access descriptor", domain.NewIOError("stat", path, err))
		}
	}
	return "", domain.NewConfigError(filepath.Join(root, file), "workspace descriptor not found", domain.ErrWorkspaceMissing)
}

func readFile(path string) (*domain.WorkspaceConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewConfigError(path, "cannot read descriptor", domain.NewIOError("read", path, err))
	}
	cfg, err := domain.ParseWorkspaceConfig(content)
	if err != nil {
		return nil, domain.NewConfigError(path, "invalid descriptor", err)
	}
	return cfg, nil
}
