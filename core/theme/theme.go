package theme

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

var errInvalidTheme = errors.New("invalid theme")

func Parse(s string) (Theme, error) {
	switch t := Theme(core.CleanString(s, true /* lower */)); t {
	case Light, Dark:
		return t, nil
	default:
		return "", errors.Wrap(errInvalidTheme, s)
	}
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

type (
	// PlatformPreference reports the theme preferred by the platform, if any.
	PlatformPreference func() (Theme, bool)

	// Applier exposes the active theme to the document root.
	Applier interface {
		ApplyTheme(Theme)
	}

	ApplierFunc func(Theme)
)

func (fn ApplierFunc) ApplyTheme(t Theme) { fn(t) }

// NoPreference is a PlatformPreference that never has one.
func NoPreference() (Theme, bool) { return "", false }

// Manager owns the light/dark preference of one client.
type Manager struct {
	storage core.LocalStorage
	applier Applier
	logger  core.Logger

	mu    sync.RWMutex
	theme Theme
}

// New seeds the theme from storage, then the platform preference, then Light, and applies it.
// storage, preferred, applier and logger may all be nil.
func New(storage core.LocalStorage, preferred PlatformPreference, applier Applier, logger core.Logger) *Manager {
	m := &Manager{
		storage: storage,
		applier: applier,
		logger:  logger,
	}
	m.theme = m.initial(preferred)
	m.apply()
	return m
}

func (m *Manager) initial(preferred PlatformPreference) Theme {
	if m.storage != nil {
		raw, ok, err := m.storage.GetItem(core.ThemeStorageKey)
		switch {
		case err != nil:
			m.debug("reading theme preference", err)
		case ok:
			if t, err := Parse(raw); err == nil {
				return t
			}
			m.debug("ignoring stored theme", map[string]interface{}{"theme": raw})
		}
	}
	if preferred != nil {
		if t, ok := preferred(); ok {
			return t
		}
	}
	return Light
}

func (m *Manager) Theme() Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

// Toggle flips the theme and returns the new one.
func (m *Manager) Toggle() Theme {
	m.mu.Lock()
	m.theme = m.theme.Opposite()
	m.mu.Unlock()

	m.persist()
	m.apply()
	return m.Theme()
}

func (m *Manager) Set(t Theme) error {
	if _, err := Parse(string(t)); err != nil {
		return err
	}
	m.mu.Lock()
	m.theme = t
	m.mu.Unlock()

	m.persist()
	m.apply()
	return nil
}

// persist saves the theme. A missing or failing storage is tolerated.
func (m *Manager) persist() {
	if m.storage == nil {
		return
	}
	if err := m.storage.SetItem(core.ThemeStorageKey, string(m.Theme())); err != nil {
		m.debug("persisting theme preference", err)
	}
}

func (m *Manager) apply() {
	if m.applier != nil {
		m.applier.ApplyTheme(m.Theme())
	}
}

func (m *Manager) debug(msg string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
