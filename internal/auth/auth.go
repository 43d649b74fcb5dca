// Package auth stores and resolves the API secrets reelscout talks to
// TMDB and Appwrite with.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/reelscout/reelscout/internal/config"
	"github.com/reelscout/reelscout/internal/output"
)

// Secret names.
const (
	TMDB     = "tmdb"
	Appwrite = "appwrite"
)

// Names lists the known secrets in display order.
var Names = []string{TMDB, Appwrite}

var envVars = map[string]string{
	TMDB:     "TMDB_API_KEY",
	Appwrite: "APPWRITE_API_KEY",
}

// EnvVar returns the environment variable that overrides a stored secret.
func EnvVar(name string) string {
	return envVars[name]
}

// Source says where a resolved secret came from.
type Source string

const (
	SourceNone    Source = "none"
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
	SourceFile    Source = "file"
)

// Status describes one secret for `auth status`.
type Status struct {
	Name    string    `json:"name"`
	Present bool      `json:"present"`
	Source  Source    `json:"source"`
	EnvVar  string    `json:"env_var"`
	Masked  string    `json:"masked,omitempty"`
	SavedAt time.Time `json:"saved_at,omitzero"`
}

// Manager resolves secrets from the environment first, then the store.
type Manager struct {
	store  *Store
	getenv func(string) string
	now    func() time.Time

	mu sync.Mutex
}

// NewManager creates a manager backed by the keyring, falling back to
// credentials.json in the global config directory.
func NewManager() *Manager {
	return NewManagerWithStore(NewStore(config.GlobalConfigDir()))
}

// NewManagerWithStore creates a manager over an existing store.
func NewManagerWithStore(store *Store) *Manager {
	return &Manager{store: store, getenv: os.Getenv, now: time.Now}
}

// Store returns the underlying credential store.
func (m *Manager) Store() *Store {
	return m.store
}

func known(name string) error {
	if _, ok := envVars[name]; !ok {
		return output.ErrUsageHint(
			fmt.Sprintf("Unknown credential %q", name),
			"Known credentials: "+strings.Join(Names, ", "))
	}
	return nil
}

func (m *Manager) storeSource() Source {
	if m.store.UsingKeyring() {
		return SourceKeyring
	}
	return SourceFile
}

// Resolve returns the secret stored under name. A missing secret is not an
// error: it resolves to "" with SourceNone.
func (m *Manager) Resolve(name string) (string, Source, error) {
	if err := known(name); err != nil {
		return "", SourceNone, err
	}
	if v := strings.TrimSpace(m.getenv(envVars[name])); v != "" {
		return v, SourceEnv, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.store.Load(name)
	if errors.Is(err, ErrNotFound) {
		return "", SourceNone, nil
	}
	if err != nil {
		return "", SourceNone, err
	}
	return creds.Token, m.storeSource(), nil
}

// Token is Resolve without the source. Store failures resolve to "".
func (m *Manager) Token(name string) string {
	token, _, err := m.Resolve(name)
	if err != nil {
		return ""
	}
	return token
}

// Login stores token under name.
func (m *Manager) Login(name, token string) error {
	if err := known(name); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return output.ErrUsage("Token cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store.Save(name, &Credentials{Token: token, SavedAt: m.now().UTC()})
}

// Logout removes the stored secret. It reports whether anything was removed.
func (m *Manager) Logout(name string) (bool, error) {
	if err := known(name); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.Delete(name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Status reports every known secret.
func (m *Manager) Status() ([]Status, error) {
	statuses := make([]Status, 0, len(Names))
	for _, name := range Names {
		st := Status{Name: name, Source: SourceNone, EnvVar: envVars[name]}
		if v := strings.TrimSpace(m.getenv(envVars[name])); v != "" {
			st.Present = true
			st.Source = SourceEnv
			st.Masked = Mask(v)
			statuses = append(statuses, st)
			continue
		}

		m.mu.Lock()
		creds, err := m.store.Load(name)
		m.mu.Unlock()
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return nil, err
		default:
			st.Present = creds.Token != ""
			st.Source = m.storeSource()
			st.Masked = Mask(creds.Token)
			st.SavedAt = creds.SavedAt
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Mask hides all but the last four characters of a secret.
func Mask(token string) string {
	if token == "" {
		return ""
	}
	r := []rune(token)
	if len(r) <= 8 {
		return "****"
	}
	return "****" + string(r[len(r)-4:])
}
