package core

import "github.com/pkg/errors"

// Local storage keys.
const (
	SessionStorageKey = "currentUser"
	ThemeStorageKey   = "theme"
)

// ErrStorageFull is returned by LocalStorage.SetItem when an entry does not fit the medium.
var ErrStorageFull = errors.New("local storage entry too large")

// LocalStorage is a client-side key/value medium holding string entries,
// like a browser's localStorage.
type LocalStorage interface {
	// GetItem returns the stored value and whether it was present.
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}
