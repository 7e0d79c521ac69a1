// Package secrets is the single collaborator through which services persist
// sensitive values (generated database passwords). Values live in one
// per-user file, encrypted at rest, never world-readable. Services receive a
// *Store by injection and must not do their own secret file I/O.
package secrets

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/orkesta/orkesta/internal/fsutil"
)

const (
	storeFile = "secrets.json.enc"
	keyFile   = "secrets.key"

	keySize   = 32
	nonceSize = 24
)

// DefaultDir returns the per-user secret directory (~/.config/orkesta).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("secrets: resolve home: %w", err)
	}
	return filepath.Join(home, ".config", "orkesta"), nil
}

// Store reads and writes the encrypted secret file. Safe for concurrent use.
type Store struct {
	dir    string
	logger *slog.Logger

	mu sync.Mutex
}

// New creates a Store rooted at dir. The directory is created lazily with
// 0700 on first write.
func New(dir string, logger *slog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger.With("component", "secrets"),
	}
}

// Get returns the named secret. The second return reports presence.
func (s *Store) Get(name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	value, ok := values[name]
	return value, ok, nil
}

// Set stores the named secret, creating the store on first use.
func (s *Store) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[name] = value
	return s.save(values)
}

// Delete removes the named secret. Deleting an absent secret is a no-op.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[name]; !ok {
		return nil
	}
	delete(values, name)
	return s.save(values)
}

func (s *Store) load() (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, storeFile))
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("secrets: read store: %w", err)
	}

	key, err := s.ensureKey()
	if err != nil {
		return nil, err
	}

	if len(data) < nonceSize {
		return nil, errors.New("secrets: store file corrupt: too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])

	plaintext, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &key)
	if !ok {
		// Fail closed: a wrong key or tampered file never yields partial data.
		return nil, errors.New("secrets: store file cannot be decrypted")
	}

	values := make(map[string]string)
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("secrets: parse store: %w", err)
	}
	return values, nil
}

func (s *Store) save(values map[string]string) error {
	key, err := s.ensureKey()
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("secrets: marshal store: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("secrets: generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &key)

	if err := fsutil.WriteFileAtomic(filepath.Join(s.dir, storeFile), sealed, 0o600); err != nil {
		return fmt.Errorf("secrets: write store: %w", err)
	}
	return nil
}

// ensureKey loads the encryption key, generating one on first use. A key
// file of the wrong size is an error, never silently regenerated: that would
// orphan existing secrets.
func (s *Store) ensureKey() ([keySize]byte, error) {
	var key [keySize]byte

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return key, fmt.Errorf("secrets: create dir: %w", err)
	}

	path := filepath.Join(s.dir, keyFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if _, err := rand.Read(key[:]); err != nil {
			return key, fmt.Errorf("secrets: generate key: %w", err)
		}
		if err := fsutil.WriteFileAtomic(path, key[:], 0o600); err != nil {
			return key, fmt.Errorf("secrets: write key: %w", err)
		}
		s.logger.Info("encryption key generated", "path", path)
		return key, nil
	}
	if err != nil {
		return key, fmt.Errorf("secrets: read key: %w", err)
	}
	if len(data) != keySize {
		return key, fmt.Errorf("secrets: key file %s has wrong size %d", path, len(data))
	}
	copy(key[:], data)
	return key, nil
}
