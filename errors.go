package framehistory

import "errors"

var (
	// ErrNotFound is returned by lookups when no slot has been filled yet.
	// Compositors should skip the overlay for that video frame.
	ErrNotFound = errors.New("framehistory: no matching frame")

	// ErrStaleHandle is returned when a Handle is used after its slot was
	// recycled by a later allocation.
	ErrStaleHandle = errors.New("framehistory: handle slot has been overwritten")
)
