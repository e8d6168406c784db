package race

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

// --- Test helpers ---

// scriptedSource replays fixed draws and then repeats the last one.
type scriptedSource struct {
	draws []int
	calls int
}

func (source *scriptedSource) Draw(min, max int) int {
	source.calls++
	if len(source.draws) == 0 {
		return min
	}
	if source.calls <= len(source.draws) {
		return source.draws[source.calls-1]
	}
	return source.draws[len(source.draws)-1]
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.FinishLine = 10
	cfg.DelayUnit = time.Microsecond
	return cfg
}

func mustRacer(t *testing.T, name string, lane int, cfg Config) *Racer {
	t.Helper()
	racer, err := NewRacer(name, lane, cfg)
	if err != nil {
		t.Fatalf("NewRacer(%q, %d) failed: %v", name, lane, err)
	}
	return racer
}

// --- Creation ---

func TestNewRacerGraphic(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name    string
		graphic string
	}{
		{"Ada", "~O=Ada----o>"},
		{"Ferrar", "~O=Ferrar-o>"},
		{"Z", "~O=Z------o>"},
		{"", "~O=-------o>"},
	}

	for lane, tt := range tests {
		racer := mustRacer(t, tt.name, lane+1, cfg)
		if racer.Graphic() != tt.graphic {
			t.Errorf("Expected graphic %q for %q, got %q", tt.graphic, tt.name, racer.Graphic())
		}
		if racer.Width() != cfg.CarWidth() {
			t.Errorf("Expected width %d, got %d", cfg.CarWidth(), racer.Width())
		}
		if racer.Distance() != 0 || racer.Status() != Running {
			t.Errorf("Expected a fresh racer at 0 running, got %d %s", racer.Distance(), racer.Status())
		}
		if racer.Lane() != lane+1 {
			t.Errorf("Expected lane %d, got %d", lane+1, racer.Lane())
		}
	}
}

func TestNewRacerWidthFollowsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxNameLen = 10
	racer := mustRacer(t, "Sebastian", 1, cfg)
	if racer.Width() != 16 || len(racer.Graphic()) != 16 {
		t.Errorf("Expected width 16, got %d (%q)", racer.Width(), racer.Graphic())
	}
}

func TestNewRacerRejectsLongName(t *testing.T) {
	_, err := NewRacer("Lightning", 1, DefaultConfig())
	if !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("Expected ErrNameTooLong, got %v", err)
	}
	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrNameTooLong to also match ErrInvalidName")
	}
}

func TestNewRacerRejectsBadLane(t *testing.T) {
	if _, err := NewRacer("Ada", 0, DefaultConfig()); !errors.Is(err, ErrInvalidLanes) {
		t.Errorf("Expected ErrInvalidLanes for lane 0, got %v", err)
	}
}

func TestNewRacersAssignsLanesInOrder(t *testing.T) {
	racers, err := NewRacers([]string{"a", "b", "c"}, DefaultConfig())
	if err != nil {
		t.Fatalf("NewRacers failed: %v", err)
	}
	for i, racer := range racers {
		if racer.Lane() != i+1 {
			t.Errorf("Expected %s in lane %d, got %d", racer.Name(), i+1, racer.Lane())
		}
	}

	if _, err := NewRacers([]string{"a", "toolongname"}, DefaultConfig()); !errors.Is(err, ErrNameTooLong) {
		t.Errorf("Expected ErrNameTooLong, got %v", err)
	}
}

// --- Advance ---

func TestAdvanceFlatThresholdBoundary(t *testing.T) {
	cfg := testConfig()

	atThreshold := mustRacer(t, "flat", 1, cfg)
	outcome := atThreshold.Advance(&scriptedSource{draws: []int{cfg.FlatThreshold}}, cfg)
	if outcome.Status != FlatTire || outcome.Continue() {
		t.Errorf("Expected a draw of %d to be a flat tire, got %s", cfg.FlatThreshold, outcome.Status)
	}
	if atThreshold.Distance() != 0 {
		t.Errorf("Expected a flat tire to keep distance 0, got %d", atThreshold.Distance())
	}
	if got := atThreshold.Graphic(); got[wheelIndex] != flatWheelGlyph {
		t.Errorf("Expected the wheel to show %c, got %q", flatWheelGlyph, got)
	}

	aboveThreshold := mustRacer(t, "moves", 2, cfg)
	outcome = aboveThreshold.Advance(&scriptedSource{draws: []int{cfg.FlatThreshold + 1}}, cfg)
	if outcome.Status != Running || !outcome.Continue() {
		t.Errorf("Expected a draw of %d to move, got %s", cfg.FlatThreshold+1, outcome.Status)
	}
	if aboveThreshold.Distance() != 1 {
		t.Errorf("Expected distance 1, got %d", aboveThreshold.Distance())
	}
	if got := aboveThreshold.Graphic(); got[wheelIndex] != wheelGlyph {
		t.Errorf("Expected an intact wheel, got %q", got)
	}
}

func TestAdvanceIsMonotonicUntilFinish(t *testing.T) {
	cfg := testConfig()
	racer := mustRacer(t, "steady", 1, cfg)
	source := &scriptedSource{draws: []int{cfg.FlatThreshold + 1}}

	previous := racer.Distance()
	steps := 0
	for {
		outcome := racer.Advance(source, cfg)
		steps++
		if racer.Distance() != previous+1 {
			t.Fatalf("Expected distance %d after step %d, got %d", previous+1, steps, racer.Distance())
		}
		previous = racer.Distance()
		if !outcome.Continue() {
			break
		}
	}

	if racer.Status() != Finished {
		t.Errorf("Expected finished, got %s", racer.Status())
	}
	if racer.Distance() != cfg.FinishLine || steps != cfg.FinishLine {
		t.Errorf("Expected %d steps to reach %d, got %d steps at %d", cfg.FinishLine, cfg.FinishLine, steps, racer.Distance())
	}
}

func TestAdvanceSleepsForTheDraw(t *testing.T) {
	cfg := testConfig()
	cfg.DelayUnit = time.Millisecond
	racer := mustRacer(t, "nap", 1, cfg)

	start := time.Now()
	racer.Advance(&scriptedSource{draws: []int{20}}, cfg)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Expected Advance to sleep at least 20ms, slept %s", elapsed)
	}
}

func TestAdvanceTerminalStatusIsAbsorbing(t *testing.T) {
	cfg := testConfig()

	flat := mustRacer(t, "flat", 1, cfg)
	flat.Advance(&scriptedSource{draws: []int{0}}, cfg)
	source := &scriptedSource{draws: []int{cfg.FlatThreshold + 1}}
	for i := 0; i < 3; i++ {
		if outcome := flat.Advance(source, cfg); outcome.Status != FlatTire {
			t.Errorf("Expected flat tire to stick, got %s", outcome.Status)
		}
	}
	if source.calls != 0 {
		t.Errorf("Expected no draws after a flat tire, got %d", source.calls)
	}
	if flat.Distance() != 0 {
		t.Errorf("Expected distance to stay 0, got %d", flat.Distance())
	}

	cfg.FinishLine = 1
	done := mustRacer(t, "done", 2, cfg)
	done.Advance(source, cfg)
	graphic := done.Graphic()
	done.Advance(&scriptedSource{draws: []int{0}}, cfg)
	if done.Status() != Finished || done.Distance() != 1 {
		t.Errorf("Expected finished at 1, got %s at %d", done.Status(), done.Distance())
	}
	if done.Graphic() != graphic {
		t.Errorf("Expected graphic %q to stay after finishing, got %q", graphic, done.Graphic())
	}
}

func TestDestroyReleasesGraphic(t *testing.T) {
	racer := mustRacer(t, "gone", 1, DefaultConfig())
	racer.Destroy()
	if !racer.Destroyed() || racer.Width() != 0 {
		t.Errorf("Expected a destroyed racer to hold no graphic")
	}
}

func TestClockSourceStaysInRange(t *testing.T) {
	source := ClockSource(1)
	for i := 0; i < 1000; i++ {
		if draw := source.Draw(5, 9); draw < 5 || draw >= 9 {
			t.Fatalf("Expected a draw in [5, 9), got %d", draw)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Expected the default config to be valid, got %v", err)
	}

	broken := []func(*Config){
		func(cfg *Config) { cfg.MaxNameLen = 0 },
		func(cfg *Config) { cfg.FinishLine = 0 },
		func(cfg *Config) { cfg.MaxDelay = cfg.MinDelay },
		func(cfg *Config) { cfg.MinDelay = -1 },
		func(cfg *Config) { cfg.DelayUnit = -time.Second },
		func(cfg *Config) { cfg.MaxDelay = math.MaxInt },
		func(cfg *Config) { cfg.MaxDelay = int(math.MaxInt64/int64(time.Millisecond)) + 2 },
	}
	for i, breakIt := range broken {
		cfg := DefaultConfig()
		breakIt(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("case %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
}

func TestConfigValidateLargestDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDelay = int(math.MaxInt64/int64(cfg.DelayUnit)) + 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected the largest representable delay to be valid, got %v", err)
	}
	cfg.DelayUnit = 0
	cfg.MaxDelay = math.MaxInt
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected a zero unit to accept any delay, got %v", err)
	}
}

func TestAdvanceUsesTheRaceFinishLine(t *testing.T) {
	built := testConfig()
	racer := mustRacer(t, "ada", 1, built)

	raced := built
	raced.FinishLine = 2
	source := &scriptedSource{draws: []int{50}}
	for racer.Advance(source, raced).Continue() {
	}
	if racer.Status() != Finished || racer.Distance() != 2 {
		t.Errorf("Expected to finish at 2, got %s at %d", racer.Status(), racer.Distance())
	}
}

func TestSurfaceSize(t *testing.T) {
	cfg := DefaultConfig()
	rows, cols := SurfaceSize(cfg, 3)
	if rows != 5 {
		t.Errorf("Expected 5 rows, got %d", rows)
	}
	if want := cfg.FinishLine + cfg.CarWidth() + 1; cols != want {
		t.Errorf("Expected %d columns, got %d", want, cols)
	}
	if !strings.HasPrefix(Usage, "Usage: pt-cruisers") {
		t.Errorf("Unexpected usage line %q", Usage)
	}
}
