package errclass

import "fmt"

// Error is a stable, machine-readable error class. An Error may carry an
// underlying cause so callers can still match the original condition
// (e.g. fs.ErrNotExist) through errors.Is.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return e.Code
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithMessage returns a new Error with the same Code but a specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

// WithMessagef returns a new Error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a new Error with the same Code carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Wrapf returns a new Error carrying err as its cause and a formatted message.
func (e *Error) Wrapf(err error, format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...), Err: err}
}

// All stable error classes.
var (
	ErrNameInvalid        = &Error{Code: "E_NAME_INVALID"}
	ErrLockBusy           = &Error{Code: "E_LOCK_BUSY"}
	ErrLockNotHeld        = &Error{Code: "E_LOCK_NOT_HELD"}
	ErrHeartbeatLost      = &Error{Code: "E_HEARTBEAT_LOST"}
	ErrHistoryChainBroken = &Error{Code: "E_HISTORY_CHAIN_BROKEN"}
	ErrConfigInvalid      = &Error{Code: "E_CONFIG_INVALID"}
)
