package harness

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render writes the per-vector table and a one-line summary to w.
func (r *Report) Render(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Vector", "Method", "Outcome", "Expected", "Unit", "Binding"})
	for _, res := range r.Results {
		tw.AppendRow(table.Row{
			res.Vector,
			res.Method,
			res.Outcome.String(),
			truncate(res.Expected, 48),
			truncate(res.Unit, 48),
			truncate(res.Binding, 48),
		})
	}
	tw.Render()

	passed := 0
	for _, res := range r.Results {
		if res.Outcome == Pass {
			passed++
		}
	}
	fmt.Fprintf(w, "tier=%s vectors=%d passed=%d failed=%d\n",
		r.Tier, len(r.Results), passed, len(r.Results)-passed)
	for _, res := range r.Failing() {
		fmt.Fprintf(w, "  FAIL %s (%s): %s\n", res.Vector, res.Outcome, res.Detail)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
