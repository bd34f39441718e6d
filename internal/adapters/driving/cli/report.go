package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/tui/styles"
	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

// maxListedFailures caps the skipped categories printed per store.
const maxListedFailures = 10

func renderReport(s *styles.Styles, r domain.RunReport) string {
	var b strings.Builder

	b.WriteString(s.Store.UnsetWidth().Render(r.Crawl.Store))
	if d := r.Duration(); d > 0 {
		b.WriteString(s.Muted.Render(fmt.Sprintf("  %s", d.Round(time.Second))))
	}
	b.WriteString("\n")

	c := r.Crawl
	fmt.Fprintf(&b, "categories  %d attempted, %d succeeded, %s\n",
		c.Attempted, c.Succeeded, skippedLabel(s, c.Skipped))
	fmt.Fprintf(&b, "listings    %d normalised\n", c.Records)

	switch {
	case r.DryRun:
		b.WriteString(s.Muted.Render("catalog     untouched (dry run)"))
	case r.Reload != nil:
		b.WriteString(s.Success.Render(fmt.Sprintf("catalog     %d products, %d categories created, %d links (%d products replaced)",
			r.Reload.ProductsInserted, r.Reload.CategoriesCreated, r.Reload.LinksCreated, r.Reload.ProductsRemoved)))
	default:
		b.WriteString(s.Error.Render("catalog     not reloaded"))
	}

	for i, f := range c.Failures {
		if i == maxListedFailures {
			b.WriteString("\n" + s.Muted.Render(fmt.Sprintf("  … %d more", len(c.Failures)-maxListedFailures)))
			break
		}
		b.WriteString("\n" + s.Muted.Render(fmt.Sprintf("  %s: %s", f.Category, f.Reason)))
	}

	return s.Panel.Render(b.String())
}

func skippedLabel(s *styles.Styles, n int) string {
	label := fmt.Sprintf("%d skipped", n)
	if n > 0 {
		return s.Warning.Render(label)
	}
	return label
}
