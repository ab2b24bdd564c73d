package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette.
var (
	colorPrimary = lipgloss.Color("#3b82f6")
	colorMuted   = lipgloss.Color("#6b7280")
	colorSuccess = lipgloss.Color("#22c55e")
	colorWarning = lipgloss.Color("#f59e0b")
	colorError   = lipgloss.Color("#ef4444")
)

// Styles holds the lipgloss styles used in text mode. Styles built for a
// non-terminal writer render without escape codes.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// StatusSuccess and StatusFailed are pre-rendered status icons
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style

	// Active and Inactive color entity status labels
	Active   lipgloss.Style
	Inactive lipgloss.Style
}

// NewStyles builds styles bound to w. When isTTY is false the color
// profile is forced to ASCII.
func NewStyles(w io.Writer, isTTY bool) *Styles {
	lr := lipgloss.NewRenderer(w)
	if isTTY {
		lr.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
	} else {
		lr.SetColorProfile(termenv.Ascii)
	}

	return &Styles{
		Header1:       lr.NewStyle().Bold(true).Foreground(colorPrimary),
		Header2:       lr.NewStyle().Bold(true),
		Bold:          lr.NewStyle().Bold(true),
		Muted:         lr.NewStyle().Foreground(colorMuted),
		Success:       lr.NewStyle().Foreground(colorSuccess),
		Warning:       lr.NewStyle().Foreground(colorWarning),
		Error:         lr.NewStyle().Foreground(colorError).Bold(true),
		Info:          lr.NewStyle().Foreground(colorPrimary),
		StatusSuccess: lr.NewStyle().Foreground(colorSuccess).SetString("✓"),
		StatusFailed:  lr.NewStyle().Foreground(colorError).SetString("✗"),
		Active:        lr.NewStyle().Foreground(colorSuccess),
		Inactive:      lr.NewStyle().Foreground(colorMuted).Italic(true),
	}
}
