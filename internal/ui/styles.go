package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette - single accent color, matching the rest of the CLI output.
const (
	ColorCyan     = "51"  // Primary accent
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Borders, separators
	ColorRed      = "196" // Errors
)

// Styles holds all UI styles for the form.
type Styles struct {
	Header        lipgloss.Style
	Label         lipgloss.Style
	Help          lipgloss.Style
	Error         lipgloss.Style
	Panel         lipgloss.Style
	Entry         lipgloss.Style
	EntrySelected lipgloss.Style
}

// DefaultStyles returns styled components for TTY mode.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorCyan)),
		Label:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Help:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
		Entry: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWhite)),
		EntrySelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorCyan)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Header:        lipgloss.NewStyle(),
		Label:         lipgloss.NewStyle(),
		Help:          lipgloss.NewStyle(),
		Error:         lipgloss.NewStyle(),
		Panel:         lipgloss.NewStyle(),
		Entry:         lipgloss.NewStyle(),
		EntrySelected: lipgloss.NewStyle().Bold(true),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor honors the NO_COLOR convention.
func DetectNoColor() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}
