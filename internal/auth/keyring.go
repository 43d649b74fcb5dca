package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "reelscout"

	// CredentialsFile is the plaintext fallback used when no keyring is available.
	CredentialsFile = "credentials.json"
)

// ErrNotFound is returned when no secret is stored under a name.
var ErrNotFound = errors.New("credentials not found")

// Credentials is a stored secret and when it was saved.
type Credentials struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// Store handles credential storage, preferring system keychain.
type Store struct {
	useKeyring  bool
	fallbackDir string
}

// NewStore creates a credential store.
func NewStore(fallbackDir string) *Store {
	if os.Getenv("REELSCOUT_NO_KEYRING") != "" {
		return &Store{useKeyring: false, fallbackDir: fallbackDir}
	}

	// Probe the keyring; headless Linux boxes often have none.
	testKey := key("probe")
	if err := keyring.Set(serviceName, testKey, "probe"); err == nil {
		_ = keyring.Delete(serviceName, testKey)
		return &Store{useKeyring: true, fallbackDir: fallbackDir}
	}
	fmt.Fprintf(os.Stderr, "warning: system keyring unavailable, credentials stored in plaintext at %s\n",
		filepath.Join(fallbackDir, CredentialsFile))
	return &Store{useKeyring: false, fallbackDir: fallbackDir}
}

func key(name string) string {
	return "reelscout::" + name
}

// Load retrieves the credentials stored under name.
func (s *Store) Load(name string) (*Credentials, error) {
	if s.useKeyring {
		return s.loadFromKeyring(name)
	}
	return s.loadFromFile(name)
}

// Save stores credentials under name.
func (s *Store) Save(name string, creds *Credentials) error {
	if s.useKeyring {
		return s.saveToKeyring(name, creds)
	}
	return s.saveToFile(name, creds)
}

// Delete removes the credentials stored under name. Deleting a missing
// name returns ErrNotFound.
func (s *Store) Delete(name string) error {
	if s.useKeyring {
		err := keyring.Delete(serviceName, key(name))
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.deleteFromFile(name)
}

func (s *Store) loadFromKeyring(name string) (*Credentials, error) {
	data, err := keyring.Get(serviceName, key(name))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	return &creds, nil
}

func (s *Store) saveToKeyring(name string, creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, key(name), string(data))
}

// Path returns the plaintext fallback location.
func (s *Store) Path() string {
	return filepath.Join(s.fallbackDir, CredentialsFile)
}

func (s *Store) loadAllFromFile() (map[string]*Credentials, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*Credentials), nil
		}
		return nil, err
	}

	var all map[string]*Credentials
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.Path(), err)
	}
	if all == nil {
		all = make(map[string]*Credentials)
	}
	return all, nil
}

func (s *Store) saveAllToFile(all map[string]*Credentials) error {
	if err := os.MkdirAll(s.fallbackDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(s.fallbackDir, "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	// Windows refuses to rename over an existing file.
	dest := s.Path()
	if err := os.Rename(tmpPath, dest); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(dest)
			return os.Rename(tmpPath, dest)
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *Store) loadFromFile(name string) (*Credentials, error) {
	all, err := s.loadAllFromFile()
	if err != nil {
		return nil, err
	}
	creds, ok := all[name]
	if !ok || creds == nil {
		return nil, ErrNotFound
	}
	return creds, nil
}

func (s *Store) saveToFile(name string, creds *Credentials) error {
	all, err := s.loadAllFromFile()
	if err != nil {
		return err
	}
	all[name] = creds
	return s.saveAllToFile(all)
}

func (s *Store) deleteFromFile(name string) error {
	all, err := s.loadAllFromFile()
	if err != nil {
		return err
	}
	if _, ok := all[name]; !ok {
		return ErrNotFound
	}
	delete(all, name)
	if len(all) == 0 {
		if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return s.saveAllToFile(all)
}

// MigrateToKeyring moves secrets from the plaintext file into the keyring
// and removes the file once every entry has been copied.
func (s *Store) MigrateToKeyring() error {
	if !s.useKeyring {
		return nil
	}

	all, err := s.loadAllFromFile()
	if err != nil {
		return nil //nolint:nilerr // an unreadable file has nothing to migrate
	}
	if len(all) == 0 {
		return nil
	}

	for name, creds := range all {
		if err := s.saveToKeyring(name, creds); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", name, err)
		}
	}

	_ = os.Remove(s.Path())
	return nil
}

// UsingKeyring returns true if the store is using the system keyring.
func (s *Store) UsingKeyring() bool {
	return s.useKeyring
}
