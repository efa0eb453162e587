package modes

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateID     = errors.New("mode already registered")
	ErrNotFound        = errors.New("mode not found")
	ErrInvalidSettings = errors.New("invalid mode settings")
)

// SettingsError reports a malformed settings value for a mode.
type SettingsError struct {
	Mode    ID
	Field   string
	Value   interface{}
	Message string
}

func (e *SettingsError) Error() string {
	msg := fmt.Sprintf("%s settings: %s", e.Mode, e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	return msg + ": " + e.Message
}

func (e *SettingsError) Unwrap() error { return ErrInvalidSettings }
