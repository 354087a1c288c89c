package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage writes files under root and references them as baseURL/<name>. The HTTP
// server exposes root at baseURL.
type LocalStorage struct {
	root    string
	baseURL string
}

func NewLocalStorage(root, baseURL string) *LocalStorage {
	return &LocalStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) Store(ctx context.Context, data []byte, name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return s.baseURL + "/" + clean, nil
}

// Delete removes the file behind uri. Unknown or already missing files are not an error.
func (s *LocalStorage) Delete(ctx context.Context, uri string) error {
	name, ok := strings.CutPrefix(uri, s.baseURL+"/")
	if !ok {
		return fmt.Errorf("reference %q is not managed by local storage", uri)
	}
	clean, err := cleanName(name)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(clean))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return nil
}

func cleanName(name string) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean != strings.TrimPrefix(name, "/") {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return clean, nil
}
