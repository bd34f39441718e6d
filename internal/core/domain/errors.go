package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedStore indicates no adapter is registered for a store.
	ErrUnsupportedStore = errors.New("unsupported store")

	// ErrRunInProgress indicates a crawl for the store is already running.
	ErrRunInProgress = errors.New("run in progress")

	// Crawl Errors.

	// ErrNoListings indicates no listing card appeared within the wait timeout.
	ErrNoListings = errors.New("no listings found")

	// ErrAdvanceFailed indicates every interaction strategy failed to move
	// to the next batch. It terminates the category, keeping partial results.
	ErrAdvanceFailed = errors.New("advance failed")

	// ErrSessionLost indicates the browser session no longer responds.
	// It is fatal for the whole crawl run.
	ErrSessionLost = errors.New("browser session lost")

	// ErrSessionClosed indicates an operation on a closed session.
	ErrSessionClosed = errors.New("browser session closed")

	// ErrElementStale indicates an element handle no longer refers to a live node.
	ErrElementStale = errors.New("stale element")

	// Catalog Errors.

	// ErrReloadFailed indicates a store reload was rolled back.
	ErrReloadFailed = errors.New("reload failed")
)
