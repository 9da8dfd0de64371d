package ui

import (
	"fmt"

	"github.com/Makepad-fr/todolist/internal/model"
)

const maxTextWidth = 80

// ListLines builds the panel body for list: a header with counts, a
// progress bar, the items (flat or grouped by pending/done) and a tip.
func ListLines(list model.List, group bool) []string {
	t := Current()
	d, p := list.Stats()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		C(t.Title, "Todos"),
		C(t.Success, t.SymDone), d,
		C(t.Pending, t.SymPending), p,
		C(t.Accent, "Total"), len(list),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, C(t.Muted, ProgressBar(d, d+p, 28)))
	lines = append(lines, "")
	if group {
		lines = append(lines, groupLines(list)...)
	} else {
		lines = append(lines, flatLines(list, 1)...)
	}
	lines = append(lines, "")
	lines = append(lines, C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	return lines
}

// flatLines numbers items from start; the numbers are the 1-based indexes
// `done` and `rm` accept.
func flatLines(list model.List, start int) []string {
	t := Current()
	if len(list) == 0 {
		return []string{C(t.Muted, "no items")}
	}
	out := make([]string, 0, len(list))
	for i, it := range list {
		idx := fmt.Sprintf("%2d.", start+i)
		box, color := t.BoxUnchecked, t.Muted
		if it.Completed {
			box, color = t.BoxChecked, t.Success
		}
		out = append(out, fmt.Sprintf("%s %s %s", C(dim, idx), C(color, box), Truncate(it.Text, maxTextWidth)))
	}
	return out
}

// groupLines keeps each item's position in the full list so the printed
// numbers stay valid indexes.
func groupLines(list model.List) []string {
	t := Current()
	var pend, done []string
	for i, it := range list {
		line := flatLines(model.List{it}, i+1)[0]
		if it.Completed {
			done = append(done, line)
		} else {
			pend = append(pend, line)
		}
	}
	section := func(title string, items []string) []string {
		out := []string{C(t.Accent, title)}
		if len(items) == 0 {
			return append(out, C(t.Muted, "(none)"))
		}
		return append(out, items...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
