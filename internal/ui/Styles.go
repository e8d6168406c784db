package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Mshel/ptcruisers/internal/race"
	"github.com/charmbracelet/lipgloss"
)

// --- Styling Definitions ---

type styles struct {
	track    lipgloss.Style
	panel    lipgloss.Style
	heading  lipgloss.Style
	faint    lipgloss.Style
	car      lipgloss.Style
	flat     lipgloss.Style
	finish   lipgloss.Style
	finished lipgloss.Style
}

// newStyles binds every style to renderer so SSH sessions get colors that
// match their own terminal.
func newStyles(renderer *lipgloss.Renderer) styles {
	return styles{
		track: renderer.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		panel: renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 2).
			Width(30),
		heading:  renderer.NewStyle().Bold(true),
		faint:    renderer.NewStyle().Faint(true),
		car:      renderer.NewStyle().Foreground(lipgloss.Color("87")),
		flat:     renderer.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		finish:   renderer.NewStyle().Foreground(lipgloss.Color("172")),
		finished: renderer.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

// FormatStandings renders standings with the default renderer.
func FormatStandings(standings race.Standings) string {
	return renderStandings(newStyles(lipgloss.DefaultRenderer()), standings)
}

// renderStandings lists finishers first, then the rest by distance.
func renderStandings(s styles, standings race.Standings) string {
	ordered := append(race.Standings(nil), standings...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if (ordered[i].Status == race.Finished) != (ordered[j].Status == race.Finished) {
			return ordered[i].Status == race.Finished
		}
		return ordered[i].Distance > ordered[j].Distance
	})

	var sb strings.Builder
	for _, standing := range ordered {
		var status string
		switch {
		case !standing.Started:
			status = s.faint.Render("did not start")
		case standing.Status == race.Finished:
			status = s.finished.Render(standing.Status.String())
		case standing.Status == race.FlatTire:
			status = s.flat.Render(standing.Status.String())
		default:
			status = standing.Status.String()
		}
		sb.WriteString(fmt.Sprintf("%d. %-6s %3d  %s\n", standing.Lane, standing.Name, standing.Distance, status))
	}
	return sb.String()
}
