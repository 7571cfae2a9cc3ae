package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme bundles the palette, symbols and border used by every renderer.
// All UI helpers pull from `current`.
type Theme struct {
	Name                          string
	Title, Muted, Accent, Success lipgloss.Style
	Error, Selected, Button       lipgloss.Style
	Border                        lipgloss.Border
	BorderColor                   lipgloss.TerminalColor
	SymOK, SymFail                string
}

var current = classic()

// detected is the terminal profile in effect before any theme ran.
var detected = lipgloss.ColorProfile()

func classic() Theme {
	return Theme{
		Name:        "classic",
		Title:       lipgloss.NewStyle().Bold(true),
		Muted:       lipgloss.NewStyle().Faint(true),
		Accent:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Selected:    lipgloss.NewStyle().Bold(true).Reverse(true),
		Button:      lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("12")).Foreground(lipgloss.Color("0")),
		Border:      lipgloss.RoundedBorder(),
		BorderColor: lipgloss.Color("8"),
		SymOK:       "✔",
		SymFail:     "✖",
	}
}

// SetTheme selects classic, neon or mono. Unknown names mean classic.
// Mono drops to the ASCII profile; the others restore the detected one.
func SetTheme(name string) {
	profile := detected
	switch strings.ToLower(name) {
	case "neon":
		t := classic()
		t.Name = "neon"
		t.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
		t.Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
		t.Button = t.Button.Background(lipgloss.Color("13"))
		t.BorderColor = lipgloss.Color("13")
		current = t
	case "mono":
		plain := lipgloss.NewStyle()
		current = Theme{
			Name:        "mono",
			Title:       plain.Bold(true),
			Muted:       plain,
			Accent:      plain,
			Success:     plain,
			Error:       plain,
			Selected:    plain.Reverse(true),
			Button:      plain.Padding(0, 1).Reverse(true),
			Border:      lipgloss.NormalBorder(),
			BorderColor: lipgloss.NoColor{},
			SymOK:       "ok",
			SymFail:     "x",
		}
		profile = termenv.Ascii
	default:
		current = classic()
	}
	lipgloss.SetColorProfile(profile)
}

// Current exposes what renderers need.
func Current() Theme { return current }
