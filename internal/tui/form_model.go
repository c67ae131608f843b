package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/datasetctl/internal/batch"
	"github.com/rshade/datasetctl/internal/dataset"
	"github.com/rshade/datasetctl/internal/form"
)

// FormState is the current mode of the form TUI.
type FormState int

const (
	// FormStateBrowsing lets the user move between cells and trigger actions.
	FormStateBrowsing FormState = iota
	// FormStateEditing routes keys to the cell editor.
	FormStateEditing
	// FormStateBusy waits for a fetch or submit to finish.
	FormStateBusy
	// FormStateQuitting indicates the application is exiting.
	FormStateQuitting
)

// datasetsFetchedMsg is sent when a page fetch completes.
type datasetsFetchedMsg struct {
	err error
}

// submitDoneMsg is sent when a chunked submit completes.
type submitDoneMsg struct {
	report *batch.Report
	err    error
}

// Default dimensions for the form model.
const (
	formDefaultWidth  = 100
	formDefaultHeight = 30
	cellInputLimit    = 256
)

// FormModel is the Bubble Tea model for the dataset form.
type FormModel struct {
	ctx        context.Context
	controller *form.Controller

	state      FormState
	focusedRow int
	focusedCol int
	input      textinput.Model
	loading    *LoadingState

	// Status line
	err          error
	report       *batch.Report
	confirmQuit  bool
	showSnapshot bool

	width  int
	height int
}

// NewFormModel creates a form bound to controller. The first fetch starts in Init.
func NewFormModel(ctx context.Context, controller *form.Controller) *FormModel {
	ti := textinput.New()
	ti.CharLimit = cellInputLimit
	ti.Prompt = ""

	return &FormModel{
		ctx:          ctx,
		controller:   controller,
		state:        FormStateBusy,
		input:        ti,
		loading:      NewLoadingState("Fetching datasets..."),
		showSnapshot: true,
		width:        formDefaultWidth,
		height:       formDefaultHeight,
	}
}

// Init starts the spinner and the initial fetch.
func (m *FormModel) Init() tea.Cmd {
	return tea.Batch(m.loading.Init(), m.fetchCmd())
}

// Update handles messages and updates the model state.
func (m *FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.cellWidth(m.focusedCol)
		return m, nil

	case datasetsFetchedMsg:
		return m.handleFetched(msg)

	case submitDoneMsg:
		return m.handleSubmitted(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.state == FormStateBusy {
		return m, m.loading.Update(msg)
	}
	if m.state == FormStateEditing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *FormModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == keyCtrlC {
		return m.quit()
	}

	switch m.state {
	case FormStateEditing:
		return m.handleEditKey(msg)
	case FormStateBrowsing:
		return m.handleBrowseKey(msg)
	case FormStateBusy, FormStateQuitting:
		// Keys are ignored until the request finishes.
	}
	return m, nil
}

func (m *FormModel) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "q" {
		m.confirmQuit = false
	}

	switch key {
	case "q":
		if m.controller.Dirty() && !m.confirmQuit {
			m.confirmQuit = true
			return m, nil
		}
		return m.quit()

	case keyUp, "k":
		if m.focusedRow > 0 {
			m.focusedRow--
		}

	case keyDown, "j":
		if m.focusedRow < m.controller.RowCount()-1 {
			m.focusedRow++
		}

	case keyLeft, "h", keyShiftTab:
		if m.focusedCol > 0 {
			m.focusedCol--
		}

	case keyRight, "l", keyTab:
		if m.focusedCol < len(dataset.Fields)-1 {
			m.focusedCol++
		}

	case keyEnter, "e":
		return m.startEdit()

	case "a":
		m.focusedRow = m.controller.AddRow()
		m.focusedCol = 0
		return m.startEdit()

	case "d", keyDelete:
		if m.controller.RemoveRow(m.focusedRow) {
			m.clampFocus()
		}

	case "u":
		m.controller.Reset()
		m.clampFocus()

	case "r":
		return m.startFetch("Fetching datasets...")

	case "n", keyPgDown:
		if m.controller.NextPage() {
			return m.startFetch("Fetching next page...")
		}

	case "p", keyPgUp:
		if m.controller.PrevPage() {
			return m.startFetch("Fetching previous page...")
		}

	case "s", keyCtrlS:
		return m.startSubmit()

	case "v":
		m.showSnapshot = !m.showSnapshot
	}

	return m, nil
}

func (m *FormModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEnter:
		return m.commitEdit(false)
	case keyTab:
		return m.commitEdit(true)
	case keyEsc:
		m.input.Blur()
		m.input.Reset()
		m.state = FormStateBrowsing
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startEdit opens the editor on the focused cell.
func (m *FormModel) startEdit() (tea.Model, tea.Cmd) {
	rows := m.controller.Rows()
	if m.focusedRow >= len(rows) {
		return m, nil
	}

	value, _ := rows[m.focusedRow].Field(dataset.Fields[m.focusedCol])
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Width = m.cellWidth(m.focusedCol)
	m.state = FormStateEditing
	m.err = nil
	return m, m.input.Focus()
}

// commitEdit stores the editor value; advance moves on to the next cell.
func (m *FormModel) commitEdit(advance bool) (tea.Model, tea.Cmd) {
	field := dataset.Fields[m.focusedCol]
	if err := m.controller.HandleChange(m.focusedRow, field, m.input.Value()); err != nil {
		m.err = err
	}
	m.input.Blur()
	m.state = FormStateBrowsing

	if advance && m.focusedCol < len(dataset.Fields)-1 {
		m.focusedCol++
		return m.startEdit()
	}
	return m, nil
}

func (m *FormModel) startFetch(message string) (tea.Model, tea.Cmd) {
	m.state = FormStateBusy
	m.loading.SetMessage(message)
	return m, tea.Batch(m.loading.Init(), m.fetchCmd())
}

func (m *FormModel) startSubmit() (tea.Model, tea.Cmd) {
	m.state = FormStateBusy
	m.err = nil
	m.report = nil
	m.controller.ClearMessage()
	m.loading.SetMessage("Uploading datasets in chunks...")
	return m, tea.Batch(m.loading.Init(), m.submitCmd())
}

// fetchCmd loads the current page off the UI goroutine.
func (m *FormModel) fetchCmd() tea.Cmd {
	ctx := m.ctx
	controller := m.controller
	return func() tea.Msg {
		return datasetsFetchedMsg{err: controller.FetchDatasets(ctx)}
	}
}

// submitCmd runs the chunked submit off the UI goroutine.
func (m *FormModel) submitCmd() tea.Cmd {
	ctx := m.ctx
	controller := m.controller
	return func() tea.Msg {
		report, err := controller.HandleChunkedSubmit(ctx)
		return submitDoneMsg{report: report, err: err}
	}
}

func (m *FormModel) handleFetched(msg datasetsFetchedMsg) (tea.Model, tea.Cmd) {
	if m.state == FormStateQuitting {
		return m, nil
	}
	m.state = FormStateBrowsing
	m.err = msg.err
	m.clampFocus()
	return m, nil
}

func (m *FormModel) handleSubmitted(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	if m.state == FormStateQuitting {
		return m, nil
	}
	m.state = FormStateBrowsing
	m.report = msg.report
	m.err = msg.err

	var verr *form.ValidationError
	if errors.As(msg.err, &verr) {
		m.focusedRow = verr.Index
		m.clampFocus()
	}
	return m, nil
}

func (m *FormModel) quit() (tea.Model, tea.Cmd) {
	m.state = FormStateQuitting
	m.controller.Close()
	return m, tea.Quit
}

func (m *FormModel) clampFocus() {
	n := m.controller.RowCount()
	if m.focusedRow >= n {
		m.focusedRow = n - 1
	}
	if m.focusedRow < 0 {
		m.focusedRow = 0
	}
}

// State returns the current mode.
func (m *FormModel) State() FormState {
	return m.state
}

// Focus returns the focused row and column.
func (m *FormModel) Focus() (int, int) {
	return m.focusedRow, m.focusedCol
}

// Err returns the error shown in the status line, if any.
func (m *FormModel) Err() error {
	return m.err
}

// Report returns the outcome of the last submit.
func (m *FormModel) Report() *batch.Report {
	return m.report
}
