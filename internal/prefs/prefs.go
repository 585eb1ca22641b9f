package prefs

import "errors"

// Keys persisted by the scheduler and the settings surface.
const (
	KeyNotificationTime    = "notification_time"
	KeyNotificationEnabled = "notification_enabled"
	KeySelectedCity        = "selected_city"
)

// ErrPersistence wraps read/write failures of the underlying store.
var ErrPersistence = errors.New("prefs: persistence error")

// Store is plain key-value persistence. Get returns false when the key is
// absent; absence is not an error.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}
