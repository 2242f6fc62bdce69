package catalog

import "errors"

var (
	// ErrSourceUnavailable marks a data source that failed to load or returned
	// a shape the loader does not understand. Loaders absorb it into an empty source.
	ErrSourceUnavailable = errors.New("catalog source unavailable")
	// ErrNotFound is returned by detail sources when the backend has no such valve.
	ErrNotFound = errors.New("valve not found")
	// ErrStaleSelection is returned by Selection.Enrich when the selection moved
	// on before the detail response arrived.
	ErrStaleSelection = errors.New("selection changed before enrichment completed")
)
