package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/datasetctl/internal/apitest"
	"github.com/rshade/datasetctl/internal/batch"
	"github.com/rshade/datasetctl/internal/client"
	"github.com/rshade/datasetctl/internal/dataset"
	"github.com/rshade/datasetctl/internal/form"
)

func newTestModel(t *testing.T, rows ...dataset.Row) (*FormModel, *apitest.Server, *form.Controller) {
	t.Helper()
	srv := apitest.NewServer(t, rows...)
	api, err := client.New(srv.URL)
	require.NoError(t, err)
	ctrl, err := form.New(api)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	return NewFormModel(context.Background(), ctrl), srv, ctrl
}

func keyPress(k string) tea.KeyMsg {
	switch k {
	case keyEnter:
		return tea.KeyMsg{Type: tea.KeyEnter}
	case keyEsc:
		return tea.KeyMsg{Type: tea.KeyEsc}
	case keyTab:
		return tea.KeyMsg{Type: tea.KeyTab}
	case keyUp:
		return tea.KeyMsg{Type: tea.KeyUp}
	case keyDown:
		return tea.KeyMsg{Type: tea.KeyDown}
	case keyLeft:
		return tea.KeyMsg{Type: tea.KeyLeft}
	case keyRight:
		return tea.KeyMsg{Type: tea.KeyRight}
	case keyDelete:
		return tea.KeyMsg{Type: tea.KeyDelete}
	case keyCtrlC:
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// press sends a key and returns the resulting command without running it.
func press(m *FormModel, k string) tea.Cmd {
	_, cmd := m.Update(keyPress(k))
	return cmd
}

// drain runs fetch and submit commands synchronously and feeds their results back.
// Spinner ticks are dropped so the loop ends.
func drain(t *testing.T, m *FormModel, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(t, m, c)
		}
	case spinner.TickMsg:
	case datasetsFetchedMsg, submitDoneMsg:
		_, next := m.Update(msg)
		require.Nil(t, next)
	}
}

func typeText(m *FormModel, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func seedRows(n int) []dataset.Row {
	rows := make([]dataset.Row, n)
	for i := range n {
		rows[i] = dataset.Row{
			Name:        fmt.Sprintf("set-%02d", i),
			Description: "seeded row",
			Records:     json.Number(strconv.Itoa(i * 10)),
		}
	}
	return rows
}

func TestNewFormModel(t *testing.T) {
	m, _, _ := newTestModel(t)

	assert.Equal(t, FormStateBusy, m.State())
	assert.Equal(t, formDefaultWidth, m.width)
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Fetching datasets...")
}

func TestFormModel_InitialFetch(t *testing.T) {
	t.Run("populates rows and snapshot", func(t *testing.T) {
		m, srv, ctrl := newTestModel(t, dataset.Row{Name: "alpha-set", Description: "first", Records: "1200"})

		drain(t, m, m.Init())

		assert.Equal(t, FormStateBrowsing, m.State())
		require.Len(t, ctrl.Rows(), 1)
		assert.Len(t, srv.ListCalls(), 1)

		view := m.View()
		assert.Contains(t, view, "alpha-set - first (1,200)")
		assert.Contains(t, view, "page 1 of 1")
		assert.NotContains(t, view, "[modified]")
	})

	t.Run("failure keeps the blank row and shows the error", func(t *testing.T) {
		m, srv, ctrl := newTestModel(t)
		srv.FailList(http.StatusInternalServerError)

		drain(t, m, m.Init())

		assert.Equal(t, FormStateBrowsing, m.State())
		require.Error(t, m.Err())
		assert.Len(t, ctrl.Rows(), 1)
		assert.Contains(t, m.View(), "Error:")
	})
}

func TestFormModel_Navigation(t *testing.T) {
	m, _, _ := newTestModel(t, seedRows(3)...)
	drain(t, m, m.Init())

	press(m, keyUp)
	row, col := m.Focus()
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)

	press(m, keyDown)
	press(m, "j")
	press(m, keyDown)
	row, _ = m.Focus()
	assert.Equal(t, 2, row, "stops at the last row")

	press(m, keyRight)
	press(m, "l")
	press(m, keyRight)
	_, col = m.Focus()
	assert.Equal(t, 2, col, "stops at the last column")

	press(m, keyLeft)
	press(m, "k")
	row, col = m.Focus()
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)
}

func TestFormModel_Edit(t *testing.T) {
	t.Run("enter commits", func(t *testing.T) {
		m, _, ctrl := newTestModel(t, seedRows(1)...)
		drain(t, m, m.Init())

		press(m, keyEnter)
		require.Equal(t, FormStateEditing, m.State())
		assert.Equal(t, "set-00", m.input.Value())

		typeText(m, "-x")
		press(m, keyEnter)

		assert.Equal(t, FormStateBrowsing, m.State())
		assert.Equal(t, "set-00-x", ctrl.Rows()[0].Name)
		assert.Contains(t, m.View(), "[modified]")
	})

	t.Run("esc cancels", func(t *testing.T) {
		m, _, ctrl := newTestModel(t, seedRows(1)...)
		drain(t, m, m.Init())

		press(m, "e")
		typeText(m, "zzz")
		press(m, keyEsc)

		assert.Equal(t, FormStateBrowsing, m.State())
		assert.Equal(t, "set-00", ctrl.Rows()[0].Name)
	})

	t.Run("tab saves and moves to the next cell", func(t *testing.T) {
		m, _, ctrl := newTestModel(t, seedRows(1)...)
		drain(t, m, m.Init())

		press(m, keyEnter)
		typeText(m, "!")
		press(m, keyTab)

		assert.Equal(t, FormStateEditing, m.State())
		_, col := m.Focus()
		assert.Equal(t, 1, col)
		assert.Equal(t, "seeded row", m.input.Value())
		assert.Equal(t, "set-00!", ctrl.Rows()[0].Name)
	})

	t.Run("keys are not actions while editing", func(t *testing.T) {
		m, _, ctrl := newTestModel(t, seedRows(1)...)
		drain(t, m, m.Init())

		press(m, keyEnter)
		typeText(m, "qads")
		assert.Equal(t, FormStateEditing, m.State())
		assert.Equal(t, 1, ctrl.RowCount())
	})
}

func TestFormModel_AddRemove(t *testing.T) {
	m, _, ctrl := newTestModel(t, seedRows(2)...)
	drain(t, m, m.Init())

	press(m, "a")
	assert.Equal(t, FormStateEditing, m.State(), "new row opens the editor")
	row, col := m.Focus()
	assert.Equal(t, 2, row)
	assert.Equal(t, 0, col)
	press(m, keyEsc)

	rows := ctrl.Rows()
	require.Len(t, rows, 3)
	assert.True(t, rows[2].Equal(dataset.Row{Records: "0"}))

	press(m, "d")
	assert.Equal(t, 2, ctrl.RowCount())
	row, _ = m.Focus()
	assert.Equal(t, 1, row, "focus clamped after removing the last row")

	press(m, keyUp)
	press(m, keyDelete)
	rows = ctrl.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "set-01", rows[0].Name)

	press(m, "d")
	press(m, "d")
	assert.Equal(t, 0, ctrl.RowCount())
	assert.Contains(t, m.View(), "no rows, press a to add one")

	press(m, "u")
	assert.Equal(t, 2, ctrl.RowCount(), "undo restores the fetched rows")
}

func TestFormModel_Submit(t *testing.T) {
	t.Run("shows success message", func(t *testing.T) {
		m, srv, ctrl := newTestModel(t, seedRows(3)...)
		drain(t, m, m.Init())

		cmd := press(m, "s")
		assert.Equal(t, FormStateBusy, m.State())
		assert.Contains(t, m.View(), "Uploading datasets in chunks...")
		drain(t, m, cmd)

		assert.Equal(t, FormStateBrowsing, m.State())
		assert.Equal(t, form.SuccessMessage, ctrl.Message())
		assert.Contains(t, m.View(), form.SuccessMessage)
		assert.Equal(t, []int{3}, srv.BatchSizes())
		require.NotNil(t, m.Report())
		assert.Zero(t, m.Report().Failed())
	})

	t.Run("failed chunk is summarized", func(t *testing.T) {
		m, srv, _ := newTestModel(t, seedRows(2)...)
		srv.FailBatch(0, http.StatusInternalServerError)
		drain(t, m, m.Init())

		drain(t, m, press(m, "s"))

		view := m.View()
		assert.Contains(t, view, form.SuccessMessage)
		assert.Contains(t, view, "1 of 1 chunks failed (chunks 1)")
	})

	t.Run("validation error focuses the row", func(t *testing.T) {
		m, srv, _ := newTestModel(t, seedRows(2)...)
		drain(t, m, m.Init())

		press(m, "a")
		press(m, keyEsc)
		press(m, keyUp)
		drain(t, m, press(m, "s"))

		var verr *form.ValidationError
		require.True(t, errors.As(m.Err(), &verr))
		row, _ := m.Focus()
		assert.Equal(t, 2, row)
		assert.Empty(t, srv.Batches())
		assert.Contains(t, m.View(), "required field is empty")
	})
}

func TestFormModel_Paging(t *testing.T) {
	m, srv, ctrl := newTestModel(t, seedRows(25)...)
	drain(t, m, m.Init())

	assert.Nil(t, press(m, "p"), "no previous page")

	drain(t, m, press(m, "n"))
	assert.Equal(t, 1, ctrl.Pagination().Page)
	assert.Equal(t, "set-10", ctrl.Rows()[0].Name)

	drain(t, m, press(m, "p"))
	assert.Equal(t, 0, ctrl.Pagination().Page)

	drain(t, m, press(m, "r"))
	assert.Len(t, srv.ListCalls(), 4)
}

func TestFormModel_BusyIgnoresKeys(t *testing.T) {
	m, _, ctrl := newTestModel(t)

	require.Equal(t, FormStateBusy, m.State())
	assert.Nil(t, press(m, "a"))
	assert.Equal(t, 1, ctrl.RowCount())
}

func TestFormModel_Quit(t *testing.T) {
	t.Run("clean form quits at once", func(t *testing.T) {
		m, _, _ := newTestModel(t, seedRows(1)...)
		drain(t, m, m.Init())

		cmd := press(m, "q")
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Equal(t, FormStateQuitting, m.State())
		assert.Empty(t, m.View())
	})

	t.Run("unsaved edits ask for confirmation", func(t *testing.T) {
		m, _, _ := newTestModel(t, seedRows(1)...)
		drain(t, m, m.Init())
		press(m, "a")
		press(m, keyEsc)

		assert.Nil(t, press(m, "q"))
		assert.Contains(t, m.View(), "Unsaved changes")

		press(m, keyDown)
		assert.NotContains(t, m.View(), "Unsaved changes")

		press(m, "q")
		cmd := press(m, "q")
		require.NotNil(t, cmd)
		assert.Equal(t, FormStateQuitting, m.State())
	})

	t.Run("ctrl+c always quits", func(t *testing.T) {
		m, _, ctrl := newTestModel(t)
		cmd := press(m, keyCtrlC)
		require.NotNil(t, cmd)
		assert.Equal(t, FormStateQuitting, m.State())
		assert.ErrorIs(t, ctrl.FetchDatasets(context.Background()), form.ErrClosed)
	})
}

func TestFormModel_WindowSize(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Equal(t, 60, m.width)
	assert.Equal(t, 20, m.height)
	assert.Equal(t, minNameWidth, m.cellWidth(0))
}

func TestRenderDatasetList(t *testing.T) {
	assert.Contains(t, RenderDatasetList(nil, 5), "none")

	out := RenderDatasetList(seedRows(4), 2)
	assert.Contains(t, out, "set-00 - seeded row (0)")
	assert.Contains(t, out, "set-01 - seeded row (10)")
	assert.NotContains(t, out, "set-02")
	assert.Contains(t, out, "... 2 more")
}

func TestRenderReportSummary(t *testing.T) {
	assert.Empty(t, RenderReportSummary(nil))
	assert.Empty(t, RenderReportSummary(&batch.Report{Chunks: []batch.ChunkResult{{Index: 0}}}))

	report := &batch.Report{Chunks: []batch.ChunkResult{
		{Index: 0}, {Index: 1, Err: errors.New("boom")}, {Index: 2, Err: errors.New("boom")},
	}}
	assert.Contains(t, RenderReportSummary(report), "2 of 3 chunks failed (chunks 2, 3)")
}

func TestRenderFormHelp(t *testing.T) {
	assert.Contains(t, RenderFormHelp(FormStateBrowsing), "s: Submit")
	assert.Contains(t, RenderFormHelp(FormStateEditing), "Esc: Cancel")
	assert.Equal(t, "Ctrl+C: Quit", RenderFormHelp(FormStateBusy))
}

func TestFormModel_RowWindow(t *testing.T) {
	m, _, ctrl := newTestModel(t)
	drain(t, m, m.Init())
	ctrl.ReplaceRows(seedRows(40))

	view := m.View()
	assert.Contains(t, view, "set-00")
	assert.NotContains(t, view, "set-39")
	assert.Contains(t, view, "rows below")
	assert.NotContains(t, view, "rows above")

	for range 39 {
		press(m, "j")
	}
	require.Equal(t, 39, m.focusedRow)

	view = m.View()
	assert.Contains(t, view, "set-39")
	assert.NotContains(t, view, "set-00")
	assert.Contains(t, view, "rows above")
	assert.NotContains(t, view, "rows below")
}
