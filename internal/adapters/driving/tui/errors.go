package tui

import "errors"

// ErrNoStores is returned when the live view has no stores to display.
var ErrNoStores = errors.New("tui: at least one store is required")
