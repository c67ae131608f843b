package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/datasetctl/internal/batch"
	"github.com/rshade/datasetctl/internal/dataset"
	"github.com/rshade/datasetctl/internal/render"
	listview "github.com/rshade/datasetctl/internal/tui/list"
)

// Column layout.
const (
	indexWidth       = 4
	nameWidthRatio   = 4
	descWidthRatio   = 8
	recordsWidth     = 12
	minNameWidth     = 12
	minDescWidth     = 16
	snapshotMaxLines = 8
	columnGap        = 2

	// Lines outside the row table: title, page line, table headers, status, help.
	formChromeLines     = 10
	snapshotChromeLines = 2
	minVisibleRows      = 3
)

// View renders the current view.
func (m *FormModel) View() string {
	if m.state == FormStateQuitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(RenderFormHeader(m.controller.Pagination(), len(m.controller.Datasets()), m.controller.Search(), m.controller.Dirty()))
	sb.WriteString("\n\n")

	if m.showSnapshot {
		sb.WriteString(RenderDatasetList(m.controller.Datasets(), snapshotMaxLines))
		sb.WriteString("\n")
	}

	rows := m.controller.Rows()
	editor := ""
	if m.state == FormStateEditing {
		editor = m.input.View()
	}
	sb.WriteString(m.renderRowTable(rows, editor))
	sb.WriteString("\n")

	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")
	sb.WriteString(RenderFormHelp(m.state))

	return lipgloss.NewStyle().MaxWidth(m.width).Render(sb.String())
}

// RenderFormHeader renders the title and the page position.
func RenderFormHeader(p dataset.Pagination, fetched int, search string, dirty bool) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Datasets"))
	sb.WriteString("\n")
	sb.WriteString(LabelStyle.Render(render.PageFooter(p, fetched)))
	if search != "" {
		sb.WriteString(LabelStyle.Render("  search: "))
		sb.WriteString(ValueStyle.Render(search))
	}
	if dirty {
		sb.WriteString(WarningStyle.Render("  [modified]"))
	}
	return sb.String()
}

// RenderDatasetList renders the read-only snapshot of the last fetch as
// "name - description (records)" lines, at most maxLines of them.
func RenderDatasetList(datasets []dataset.Row, maxLines int) string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("Datasets on server"))
	sb.WriteString("\n")

	if len(datasets) == 0 {
		sb.WriteString(MutedStyle.Italic(true).Render("  none"))
		sb.WriteString("\n")
		return sb.String()
	}

	for i, d := range datasets {
		if i == maxLines {
			sb.WriteString(MutedStyle.Render(fmt.Sprintf("  ... %d more", len(datasets)-maxLines)))
			sb.WriteString("\n")
			break
		}
		sb.WriteString(fmt.Sprintf("  %s - %s (%s)\n",
			ValueStyle.Render(d.Name),
			LabelStyle.Render(d.Description),
			ValueStyle.Render(render.FormatRecords(d.Records)),
		))
	}
	return sb.String()
}

// cellWidth returns the display width of column col for the current window.
func (m *FormModel) cellWidth(col int) int {
	avail := m.width - indexWidth - recordsWidth - columnGap*len(dataset.Fields)
	switch col {
	case 0:
		return max(minNameWidth, avail*nameWidthRatio/(nameWidthRatio+descWidthRatio))
	case 1:
		return max(minDescWidth, avail*descWidthRatio/(nameWidthRatio+descWidthRatio))
	default:
		return recordsWidth
	}
}

func (m *FormModel) renderRowTable(rows []dataset.Row, editor string) string {
	var sb strings.Builder

	sb.WriteString(HeaderStyle.Render("Edit rows"))
	sb.WriteString("\n")
	sb.WriteString(LabelStyle.Render(m.padRow("#", []string{"Name", "Description", "Records"})))
	sb.WriteString("\n")

	if len(rows) == 0 {
		sb.WriteString(MutedStyle.Italic(true).Render("  no rows, press a to add one"))
		sb.WriteString("\n")
		return sb.String()
	}

	win := listview.Visible(len(rows), m.focusedRow, m.rowViewportHeight())
	if n := win.Above(); n > 0 {
		sb.WriteString(MutedStyle.Render(fmt.Sprintf("  ... %d rows above", n)))
		sb.WriteString("\n")
	}
	sb.WriteString(listview.Render(rows, win, m.focusedRow, func(i int, row dataset.Row, _ bool) string {
		return m.renderRow(i, row, editor)
	}))
	sb.WriteString("\n")
	if n := win.Below(len(rows)); n > 0 {
		sb.WriteString(MutedStyle.Render(fmt.Sprintf("  ... %d rows below", n)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *FormModel) renderRow(i int, row dataset.Row, editor string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-*d", indexWidth, i))
	for col, field := range dataset.Fields {
		width := m.cellWidth(col)
		value, _ := row.Field(field)
		focused := i == m.focusedRow && col == m.focusedCol

		var cell string
		switch {
		case focused && editor != "":
			cell = editor
		case focused:
			cell = SelectedStyle.Render(fmt.Sprintf("%-*s", width, render.Truncate(value, width)))
		case value == "":
			cell = MutedStyle.Render(fmt.Sprintf("%-*s", width, "-"))
		default:
			cell = ValueStyle.Render(fmt.Sprintf("%-*s", width, render.Truncate(value, width)))
		}
		sb.WriteString(strings.Repeat(" ", columnGap))
		sb.WriteString(cell)
	}
	return sb.String()
}

// rowViewportHeight is the number of editable rows that fit under the header,
// snapshot and status lines.
func (m *FormModel) rowViewportHeight() int {
	used := formChromeLines
	if m.showSnapshot {
		used += snapshotMaxLines + snapshotChromeLines
	}
	return max(m.height-used, minVisibleRows)
}

func (m *FormModel) padRow(index string, cells []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-*s", indexWidth, index))
	for col, c := range cells {
		sb.WriteString(strings.Repeat(" ", columnGap))
		sb.WriteString(fmt.Sprintf("%-*s", m.cellWidth(col), c))
	}
	return sb.String()
}

func (m *FormModel) renderStatus() string {
	if m.state == FormStateBusy {
		return RenderLoading(m.loading)
	}

	var lines []string
	if m.confirmQuit {
		lines = append(lines, WarningStyle.Render("Unsaved changes. Press q again to quit."))
	}
	if msg := m.controller.Message(); msg != "" {
		lines = append(lines, SuccessStyle.Render(msg))
	}
	if summary := RenderReportSummary(m.report); summary != "" {
		lines = append(lines, summary)
	}
	if m.err != nil {
		lines = append(lines, ErrorStyle.Render("Error: "+m.err.Error()))
	}
	return strings.Join(lines, "\n")
}

// RenderReportSummary describes failed chunks of a submit, or returns "" when
// every chunk went through.
func RenderReportSummary(report *batch.Report) string {
	if report == nil || report.Failed() == 0 {
		return ""
	}
	return WarningStyle.Render(fmt.Sprintf("%d of %d chunks failed (chunks %s); see log for details",
		report.Failed(), len(report.Chunks), joinInts(report.FailedIndices(), 1)))
}

func joinInts(values []int, offset int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v + offset)
	}
	return strings.Join(parts, ", ")
}

// RenderFormHelp renders the keyboard shortcuts for the given state.
func RenderFormHelp(state FormState) string {
	var shortcuts []string
	switch state {
	case FormStateEditing:
		shortcuts = []string{"Enter: Save", "Tab: Save and next", "Esc: Cancel"}
	case FormStateBusy:
		shortcuts = []string{"Ctrl+C: Quit"}
	case FormStateBrowsing, FormStateQuitting:
		shortcuts = []string{
			"↑/↓/←/→: Move",
			"Enter: Edit",
			"a: Add row",
			"d: Remove row",
			"s: Submit",
			"r: Reload",
			"n/p: Page",
			"u: Undo edits",
			"q: Quit",
		}
	}
	return MutedStyle.Render(strings.Join(shortcuts, " | "))
}
