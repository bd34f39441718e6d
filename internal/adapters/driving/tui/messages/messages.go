// Package messages defines the Bubbletea messages fed to the live crawl view.
// Refresh observers translate callbacks into these and send them to the program.
package messages

import (
	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

// StoreStarted is sent when a store's crawl begins.
type StoreStarted struct {
	Store string
}

// CategoryDone carries a finished category batch.
type CategoryDone struct {
	Store string
	Batch domain.CategoryBatch
}

// StoreFinished is sent once a store has been crawled and reloaded.
type StoreFinished struct {
	Store  string
	Report *domain.RunReport
	Err    error
}

// RunDone is sent when every requested store has finished.
type RunDone struct {
	Err error
}
