package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mshel/ptcruisers/internal/display"
	"github.com/Mshel/ptcruisers/internal/race"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const RefreshInterval = 50 * time.Millisecond

// Messages driving the race view
type RefreshMsg time.Time

type RaceFinishedMsg struct {
	Standings race.Standings
	Err       error
}

// --- Key bindings ---

type keyMap struct {
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Quit}} }

var defaultKeys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// RaceModel runs one race on an in-memory grid and shows it. The grid is
// only ever read through the coordinator, under the race's lock.
type RaceModel struct {
	coordinator *race.Coordinator
	racers      []*race.Racer
	styles      styles
	keys        keyMap
	help        help.Model

	startedAt time.Time
	Elapsed   time.Duration
	Finished  bool
	Standings race.Standings
	RaceErr   error

	ScreenWidth  int
	ScreenHeight int
}

// NewRaceModel expects coordinator to draw on a *display.GridSurface.
// A nil renderer means the default one.
func NewRaceModel(coordinator *race.Coordinator, racers []*race.Racer, renderer *lipgloss.Renderer) RaceModel {
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}
	return RaceModel{
		coordinator: coordinator,
		racers:      racers,
		styles:      newStyles(renderer),
		keys:        defaultKeys,
		help:        help.New(),
		startedAt:   time.Now(),
	}
}

func (m RaceModel) Init() tea.Cmd {
	return tea.Batch(m.runRace(), refresh())
}

// runRace blocks inside its command until every engine has stopped.
func (m RaceModel) runRace() tea.Cmd {
	coordinator, racers := m.coordinator, m.racers
	return func() tea.Msg {
		standings, err := coordinator.Run(racers)
		return RaceFinishedMsg{Standings: standings, Err: err}
	}
}

func refresh() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return RefreshMsg(t)
	})
}

func (m RaceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.ScreenWidth, m.ScreenHeight = msg.Width, msg.Height
		m.help.Width = msg.Width

	case RefreshMsg:
		if m.Finished {
			return m, nil
		}
		m.Elapsed = time.Time(msg).Sub(m.startedAt)
		return m, refresh()

	case RaceFinishedMsg:
		m.Finished = true
		m.Standings = msg.Standings
		m.RaceErr = msg.Err
		m.Elapsed = time.Since(m.startedAt)
	}

	return m, nil
}

func (m RaceModel) View() string {
	track := m.styles.track.Render(m.renderTrack())
	panel := m.styles.panel.Render(m.renderStatusPanel())

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, track, panel),
		m.help.View(m.keys),
	)
}

// renderTrack copies the lane rows out of the grid while holding the lock.
func (m RaceModel) renderTrack() string {
	var rows []string
	m.coordinator.Inspect(func(surface display.Surface) {
		if grid, ok := surface.(*display.GridSurface); ok {
			rows = grid.Rows()
		}
	})
	// row 0 is blank and the last row only holds the parked cursor
	if len(rows) > 2 {
		rows = rows[1 : len(rows)-1]
	}

	lanes := make([]string, 0, len(rows))
	for _, row := range rows {
		lanes = append(lanes, m.renderLane(row))
	}
	return strings.Join(lanes, "\n")
}

// renderLane colors one lane. The first '~' of a lane is always the car
// front, since everything behind the car is blank.
func (m RaceModel) renderLane(row string) string {
	finish := strings.LastIndexByte(row, '|')
	front := strings.IndexByte(row, '~')

	var sb strings.Builder
	for i, c := range row {
		switch {
		case i == finish:
			sb.WriteString(m.styles.finish.Render(string(c)))
		case front >= 0 && i >= front && i < front+m.coordinator.Config.CarWidth():
			carStyle := m.styles.car
			if front+1 < len(row) && row[front+1] == 'X' {
				carStyle = m.styles.flat
			}
			sb.WriteString(carStyle.Render(string(c)))
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

func (m RaceModel) renderStatusPanel() string {
	var statusContent strings.Builder

	statusContent.WriteString(m.styles.heading.Render("--- Race ---") + "\n")
	statusContent.WriteString(fmt.Sprintf("Racers: %d\n", len(m.racers)))
	statusContent.WriteString(fmt.Sprintf("Elapsed: %s\n", m.Elapsed.Truncate(10*time.Millisecond)))

	if !m.Finished {
		statusContent.WriteString(m.styles.faint.Render("racing..."))
		return statusContent.String()
	}

	statusContent.WriteString("\n" + m.styles.heading.Render("--- Standings ---") + "\n")
	statusContent.WriteString(renderStandings(m.styles, m.Standings))
	if m.RaceErr != nil {
		statusContent.WriteString("\n" + m.styles.flat.Render("some engines never started"))
	}
	return statusContent.String()
}
