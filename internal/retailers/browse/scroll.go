package browse

import (
	"context"

	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
)

// ScrollAdvance scrolls by step and reports whether the viewport moved.
// When the step does not move it, the page is forced to its bottom and
// compared again, which triggers lazy loaders that watch the end of the page.
func ScrollAdvance(ctx context.Context, s driven.BrowserSession, t Timing) (bool, error) {
	before, err := Offset(ctx, s)
	if err != nil {
		return false, err
	}

	if err := s.ScrollBy(ctx, t.ScrollStep); err != nil {
		return false, err
	}
	if err := Pause(ctx, t.ScrollPause); err != nil {
		return false, err
	}

	after, err := Offset(ctx, s)
	if err != nil {
		return false, err
	}
	if after > before {
		return true, nil
	}

	if _, err := s.RunScript(ctx, ScriptScrollToBottom); err != nil {
		return false, err
	}
	if err := Pause(ctx, t.ScrollPause); err != nil {
		return false, err
	}

	after, err = Offset(ctx, s)
	if err != nil {
		return false, err
	}
	return after > before, nil
}
