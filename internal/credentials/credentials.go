package credentials

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
	"gopkg.in/yaml.v3"
)

// Store holds one API key per provider
type Store interface {
	Get(id providers.ID) (string, bool)
	Set(id providers.ID, secret string) error
}

// FileStore keeps keys in a YAML file readable only by the owner.
// A provider without a stored key falls back to the <PROVIDER>_API_KEY environment variable.
type FileStore struct {
	path string
	mu   sync.RWMutex
	keys map[providers.ID]string
}

// Open loads the key file at path. A missing file is treated as empty.
func Open(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		keys: make(map[providers.ID]string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.keys); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	if s.keys == nil {
		s.keys = make(map[providers.ID]string)
	}

	return s, nil
}

// EnvVar is the environment variable consulted for a provider's key
func EnvVar(id providers.ID) string {
	return strings.ToUpper(string(id)) + "_API_KEY"
}

func (s *FileStore) Get(id providers.ID) (string, bool) {
	s.mu.RLock()
	key, ok := s.keys[id]
	s.mu.RUnlock()
	if ok && key != "" {
		return key, true
	}

	key = strings.TrimSpace(os.Getenv(EnvVar(id)))
	return key, key != ""
}

// Set stores the key and rewrites the file. An empty secret removes the provider's entry.
// Memory is only updated once the file has been written.
func (s *FileStore) Set(id providers.ID, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := maps.Clone(s.keys)
	secret = strings.TrimSpace(secret)
	if secret == "" {
		delete(keys, id)
	} else {
		keys[id] = secret
	}

	data, err := yaml.Marshal(keys)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	s.keys = keys
	return nil
}

// Providers lists the providers that currently have a key, from the file or the environment
func (s *FileStore) Providers() []providers.ID {
	var ids []providers.ID
	for _, id := range providers.All {
		if _, ok := s.Get(id); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
