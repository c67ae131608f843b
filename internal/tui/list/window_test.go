package listview

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisible(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		selected int
		height   int
		want     Window
	}{
		{"empty", 0, 0, 10, Window{}},
		{"fits", 5, 4, 10, Window{0, 5}},
		{"unbounded", 50, 10, 0, Window{0, 50}},
		{"top", 100, 0, 10, Window{0, 10}},
		{"centered", 100, 50, 10, Window{45, 55}},
		{"bottom", 100, 99, 10, Window{90, 100}},
		{"selection past end is clamped", 100, 500, 10, Window{90, 100}},
		{"negative selection is clamped", 100, -3, 10, Window{0, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Visible(tt.total, tt.selected, tt.height))
		})
	}
}

func TestWindowHidden(t *testing.T) {
	w := Window{From: 45, To: 55}
	assert.Equal(t, 45, w.Above())
	assert.Equal(t, 45, w.Below(100))
	assert.Equal(t, 0, Window{0, 10}.Below(5))
}

func TestRender(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	out := Render(items, Window{From: 1, To: 3}, 2, func(i int, item string, selected bool) string {
		if selected {
			return fmt.Sprintf("> %d %s", i, item)
		}
		return fmt.Sprintf("  %d %s", i, item)
	})
	assert.Equal(t, "  1 b\n> 2 c", out)

	assert.Empty(t, Render(items, Window{}, 0, func(int, string, bool) string { return "x" }))
}
