package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const localScheme = "local://"

// LocalStore keeps objects under a root directory. URIs look like
// local://contracts/<id>.pdf with the path relative to the root.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return localScheme + key, nil
}

func (s *LocalStore) Get(_ context.Context, uri string) ([]byte, error) {
	key, ok := strings.CutPrefix(uri, localScheme)
	if !ok {
		return nil, fmt.Errorf("not a local blob uri: %q", uri)
	}
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

func (s *LocalStore) Delete(_ context.Context, uri string) error {
	key, ok := strings.CutPrefix(uri, localScheme)
	if !ok {
		return fmt.Errorf("not a local blob uri: %q", uri)
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// resolve joins the key under the root and rejects traversal outside it.
func (s *LocalStore) resolve(key string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid blob key: %q", key)
	}
	return path, nil
}
