// Package tui provides the live terminal view for crawl runs.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/tui/messages"
	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/tui/progress"
	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/tui/styles"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driving"
)

// Work is a refresh run reporting to the given observer.
type Work func(ctx context.Context, observer driving.RunObserver) error

// App runs the live crawl view alongside a refresh run.
type App struct {
	model   *progress.Model
	options []tea.ProgramOption
}

// NewApp creates a live view for the given stores.
func NewApp(stores []string, opts ...tea.ProgramOption) (*App, error) {
	if len(stores) == 0 {
		return nil, ErrNoStores
	}
	return &App{
		model:   progress.New(stores, styles.DefaultStyles()),
		options: opts,
	}, nil
}

// Run starts work in the background and renders its progress until it
// finishes. Quitting the view cancels the work and waits for it to stop.
func (a *App) Run(ctx context.Context, work Work) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(a.model, a.options...)

	workErr := make(chan error, 1)
	go func() {
		err := work(ctx, NewObserver(program))
		program.Send(messages.RunDone{Err: err})
		workErr <- err
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-workErr
		return fmt.Errorf("running live view: %w", err)
	}

	cancel()
	return <-workErr
}

// Model returns the underlying view model.
func (a *App) Model() *progress.Model {
	return a.model
}
