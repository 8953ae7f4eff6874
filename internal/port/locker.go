package port

import "context"

// Locker is the single-writer serialization point shared by every service
// operating on one record store.
type Locker interface {
	// Lock blocks until the lock is held or ctx is done. The returned func
	// releases it.
	Lock(ctx context.Context) (unlock func(), err error)
}
