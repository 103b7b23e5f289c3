package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	paragraphStyle = lipgloss.NewStyle().Margin(1, 0, 0, 2)
	keywordStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#ECFD65"})
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#009900", Dark: "#00D787"})
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"})
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})
)

// paragraph wraps long-form command help to the terminal width.
func paragraph(s string) string {
	w := 80
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if tw, _, err := term.GetSize(fd); err == nil && tw > 0 && tw < w {
			w = tw
		}
	}
	return paragraphStyle.Width(w - 4).Render(s)
}

func keyword(s string) string { return keywordStyle.Render(s) }
