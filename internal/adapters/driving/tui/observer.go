package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/tui/messages"
	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driving"
)

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Observer forwards refresh callbacks to the live view.
type Observer struct {
	sender Sender
}

var _ driving.RunObserver = (*Observer)(nil)

// NewObserver creates an observer sending to s.
func NewObserver(s Sender) *Observer {
	return &Observer{sender: s}
}

// StoreStarted implements driving.RunObserver.
func (o *Observer) StoreStarted(store string) {
	o.sender.Send(messages.StoreStarted{Store: store})
}

// CategoryDone implements driving.RunObserver.
func (o *Observer) CategoryDone(store string, batch domain.CategoryBatch) {
	o.sender.Send(messages.CategoryDone{Store: store, Batch: batch})
}

// StoreFinished implements driving.RunObserver.
func (o *Observer) StoreFinished(store string, report *domain.RunReport, err error) {
	o.sender.Send(messages.StoreFinished{Store: store, Report: report, Err: err})
}
