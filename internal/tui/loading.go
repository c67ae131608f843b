package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoadingState drives the spinner shown while a request is in flight.
type LoadingState struct {
	spinner spinner.Model
	message string
}

// NewLoadingState creates a spinner with the given message.
func NewLoadingState(message string) *LoadingState {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorSpinner)
	return &LoadingState{spinner: s, message: message}
}

// Init starts the spinner.
func (l *LoadingState) Init() tea.Cmd {
	return l.spinner.Tick
}

// SetMessage changes the text next to the spinner.
func (l *LoadingState) SetMessage(message string) {
	l.message = message
}

// Update advances the spinner on tick messages.
func (l *LoadingState) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return cmd
}

// RenderLoading returns the spinner line, or plain text when loading is nil.
func RenderLoading(loading *LoadingState) string {
	if loading == nil {
		return "Loading..."
	}
	return fmt.Sprintf("%s %s", loading.spinner.View(), loading.message)
}
