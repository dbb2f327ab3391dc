// Package style provides shared colors and icons for terminal output.
package style

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/bootdrive/internal/ui/output"
)

// Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
	Circle  = "○"
)

// Styles renders listings for one output stream.
type Styles struct {
	Path    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Failure lipgloss.Style
}

// New creates Styles for w. NO_COLOR disables every color.
func New(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(output.ColorProfile())
	return Styles{
		Path:    r.NewStyle().Foreground(Iris),
		Muted:   r.NewStyle().Foreground(Slate),
		Success: r.NewStyle().Foreground(Green),
		Warning: r.NewStyle().Foreground(Yellow),
		Failure: r.NewStyle().Foreground(Red),
	}
}
