package arena

import "errors"

var (
	// ErrDestroyed names use of an arena that has already been torn
	// down. No operation in this package returns it: Alloc on a
	// destroyed arena yields Null and a second Destroy returns nil.
	ErrDestroyed = errors.New("arena: use after destroy")

	// ErrPinsOutstanding is returned by Destroy when a shared arena
	// still has live pins after DestroyTimeoutMS of waiting.
	ErrPinsOutstanding = errors.New("arena: destroy timed out with pins outstanding")

	// ErrHasChildren names a destroy with undestroyed children. Destroy
	// does not return it: it destroys any remaining children first.
	ErrHasChildren = errors.New("arena: destroy called with live children")
)
