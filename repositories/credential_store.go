package repositories

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// CredentialStore is a durable key=secret mapping backed by a flat
// file, one entry per line. Scheduled jobs store their repository
// password here keyed by schedule id so the OS trigger can authenticate
// without an interactive header. Mutations are serialized.
type CredentialStore struct {
	mu   sync.Mutex
	path string
}

func NewCredentialStore(dataDir string) (*CredentialStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &CredentialStore{path: filepath.Join(dataDir, "password-store")}, nil
}

func (s *CredentialStore) load() (map[string]string, error) {
	entries := map[string]string{}
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open password store: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		entries[key] = value
	}
	return entries, scanner.Err()
}

func (s *CredentialStore) save(entries map[string]string) error {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, entries[k])
	}
	return os.WriteFile(s.path, []byte(b.String()), 0o600)
}

// Put stores a secret under the given key, replacing any previous value.
func (s *CredentialStore) Put(key, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[key] = secret
	return s.save(entries)
}

// Get returns the secret stored under key.
func (s *CredentialStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", false, err
	}
	secret, ok := entries[key]
	return secret, ok, nil
}

// Delete removes the secret stored under key. Deleting an absent key is
// a no-op.
func (s *CredentialStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return s.save(entries)
}
