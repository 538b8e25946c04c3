package model

// LockState describes the observable state of a named cluster lock.
type LockState string

const (
	// LockStateFree means a probe could acquire (and immediately released) the lock.
	LockStateFree LockState = "free"
	// LockStateHeld means a probe could not acquire the lock.
	LockStateHeld LockState = "held"
)

// LockStatus is the result of probing a named cluster lock.
type LockStatus struct {
	Name  string    `json:"name"`
	State LockState `json:"state"`
}
