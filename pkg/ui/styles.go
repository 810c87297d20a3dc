package ui

import "github.com/charmbracelet/lipgloss"

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonOrange  = lipgloss.Color("#FF6700")
	alertRed    = lipgloss.Color("#FF0000")
	dimWhite    = lipgloss.Color("#B0B0B0")
)

// styles are bound to a renderer so colors follow the output's capabilities
type styles struct {
	logo    lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	warning lipgloss.Style
	dim     lipgloss.Style
	panel   lipgloss.Style
	kind    map[string]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		logo:    r.NewStyle().Foreground(neonCyan).Bold(true),
		label:   r.NewStyle().Foreground(neonCyan).Bold(true),
		value:   r.NewStyle().Foreground(neonYellow),
		success: r.NewStyle().Foreground(neonGreen).Bold(true),
		err:     r.NewStyle().Foreground(alertRed).Bold(true),
		warning: r.NewStyle().Foreground(neonOrange).Bold(true),
		dim:     r.NewStyle().Foreground(dimWhite).Faint(true),
		panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonMagenta).
			Padding(0, 1),
		kind: map[string]lipgloss.Style{
			"image":   r.NewStyle().Foreground(neonGreen).Width(7),
			"video":   r.NewStyle().Foreground(neonMagenta).Width(7),
			"profile": r.NewStyle().Foreground(neonCyan).Width(7),
		},
	}
}
