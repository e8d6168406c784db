package ui

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Mshel/ptcruisers/internal/display"
	"github.com/Mshel/ptcruisers/internal/race"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

func newTestModel(t *testing.T, names ...string) RaceModel {
	t.Helper()
	cfg := race.DefaultConfig()
	cfg.FinishLine = 3
	cfg.MinDelay, cfg.MaxDelay, cfg.FlatThreshold = 1, 2, 0
	cfg.DelayUnit = time.Microsecond

	racers, err := race.NewRacers(names, cfg)
	if err != nil {
		t.Fatalf("NewRacers failed: %v", err)
	}
	grid := display.NewGridSurface(race.SurfaceSize(cfg, len(racers)))
	coordinator := race.NewCoordinator(cfg, grid, race.WithLogger(log.New(io.Discard)))
	return NewRaceModel(coordinator, racers, lipgloss.NewRenderer(io.Discard))
}

func TestRaceModelRunsToStandings(t *testing.T) {
	m := newTestModel(t, "ada", "bob")

	if !strings.Contains(m.View(), "racing...") {
		t.Errorf("Expected the view to show a running race")
	}

	msg := m.runRace()()
	finished, ok := msg.(RaceFinishedMsg)
	if !ok {
		t.Fatalf("Expected RaceFinishedMsg, got %T", msg)
	}

	updated, cmd := m.Update(finished)
	if cmd != nil {
		t.Errorf("Expected no follow-up command after the race")
	}
	m = updated.(RaceModel)
	if !m.Finished || m.Standings.Count(race.Finished) != 2 {
		t.Fatalf("Expected two finishers, got %+v", m.Standings)
	}

	view := m.View()
	for _, want := range []string{"~O=ada----o>", "~O=bob----o>", "Standings", "finished", "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected the view to contain %q:\n%s", want, view)
		}
	}
}

func TestRaceModelQuits(t *testing.T) {
	m := newTestModel(t, "ada", "bob")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("Expected tea.QuitMsg")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if cmd != nil {
		t.Errorf("Expected other keys to be ignored")
	}
}

func TestRaceModelRefreshStopsAfterFinish(t *testing.T) {
	m := newTestModel(t, "ada", "bob")

	updated, cmd := m.Update(RefreshMsg(time.Now()))
	if cmd == nil {
		t.Errorf("Expected another refresh while racing")
	}
	m = updated.(RaceModel)

	updated, _ = m.Update(RaceFinishedMsg{})
	_, cmd = updated.(RaceModel).Update(RefreshMsg(time.Now()))
	if cmd != nil {
		t.Errorf("Expected refreshes to stop once the race is over")
	}
}

func TestFormatStandingsOrder(t *testing.T) {
	out := FormatStandings(race.Standings{
		{Name: "slow", Lane: 1, Distance: 2, Status: race.FlatTire, Started: true},
		{Name: "ghost", Lane: 2, Status: race.Running},
		{Name: "fast", Lane: 3, Distance: 60, Status: race.Finished, Started: true},
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %q", out)
	}
	if !strings.Contains(lines[0], "fast") || !strings.Contains(lines[1], "slow") || !strings.Contains(lines[2], "did not start") {
		t.Errorf("Unexpected order:\n%s", out)
	}
}
