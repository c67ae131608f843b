package listview

import "strings"

// halfViewportDivisor is used to center the selection in the viewport.
const halfViewportDivisor = 2

// RenderFunc renders the item at index. selected is true for the cursor row.
type RenderFunc[T any] func(index int, item T, selected bool) string

// Window is the half-open range [From, To) of a list that fits the viewport.
type Window struct {
	From int
	To   int
}

// Above returns how many items are hidden above the window.
func (w Window) Above() int {
	return w.From
}

// Below returns how many of total items are hidden below the window.
func (w Window) Below(total int) int {
	return max(total-w.To, 0)
}

// Visible returns the window of at most height items that keeps selected in
// view, centered where the list allows it. A non-positive height shows everything.
func Visible(total, selected, height int) Window {
	if total <= 0 {
		return Window{}
	}
	if height <= 0 || height >= total {
		return Window{From: 0, To: total}
	}

	selected = min(max(selected, 0), total-1)

	from := selected - height/halfViewportDivisor
	if from < 0 {
		from = 0
	}
	to := from + height
	if to > total {
		to = total
		from = to - height
	}
	return Window{From: from, To: to}
}

// Render draws items[w.From:w.To], one per line, without a trailing newline.
func Render[T any](items []T, w Window, selected int, fn RenderFunc[T]) string {
	to := min(w.To, len(items))
	lines := make([]string, 0, max(to-w.From, 0))
	for i := w.From; i < to; i++ {
		lines = append(lines, fn(i, items[i], i == selected))
	}
	return strings.Join(lines, "\n")
}
