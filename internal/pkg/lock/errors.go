package lock

import "errors"

// Lock-related errors.
var (
	// ErrLockHeld is returned when another owner holds the lock. Acquisition
	// never waits for it to be released.
	ErrLockHeld = errors.New("lock is held by another owner")

	// ErrLockLost is returned when the lease expired or was taken over before
	// it could be renewed or released.
	ErrLockLost = errors.New("lock lease lost")
)
