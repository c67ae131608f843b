package tui

import "github.com/charmbracelet/lipgloss"

// Palette shared by every view.
const (
	ColorHeader    = lipgloss.Color("39")
	ColorLabel     = lipgloss.Color("245")
	ColorValue     = lipgloss.Color("252")
	ColorHighlight = lipgloss.Color("212")
	ColorMuted     = lipgloss.Color("240")
	ColorSpinner   = lipgloss.Color("205")
	ColorSuccess   = lipgloss.Color("42")
	ColorError     = lipgloss.Color("196")
	ColorWarning   = lipgloss.Color("214")
	ColorBorder    = lipgloss.Color("63")
)

// Shared styles.
//
//nolint:gochecknoglobals // lipgloss styles are immutable values.
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorHeader).
			Bold(true).
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
	HeaderStyle   = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle    = lipgloss.NewStyle().Foreground(ColorValue)
	SelectedStyle = lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true).Reverse(true)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	SuccessStyle  = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	ErrorStyle    = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
)

// Key names as reported by tea.KeyMsg.String.
const (
	keyCtrlC    = "ctrl+c"
	keyCtrlS    = "ctrl+s"
	keyEnter    = "enter"
	keyEsc      = "esc"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
	keyUp       = "up"
	keyDown     = "down"
	keyLeft     = "left"
	keyRight    = "right"
	keyDelete   = "delete"
	keyPgUp     = "pgup"
	keyPgDown   = "pgdown"
)
