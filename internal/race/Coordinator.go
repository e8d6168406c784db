package race

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Mshel/ptcruisers/internal/display"
	"github.com/charmbracelet/log"
)

// Launcher starts an engine. Launch must either start run concurrently and
// return nil, or return an error without ever calling run.
type Launcher interface {
	Launch(racer *Racer, run func()) error
}

// GoroutineLauncher runs every engine on its own goroutine.
type GoroutineLauncher struct{}

func (GoroutineLauncher) Launch(_ *Racer, run func()) error {
	go run()
	return nil
}

// Standing is the final state of one racer, captured after every engine
// has returned.
type Standing struct {
	Name     string
	Lane     int
	Distance int
	Status   Status
	// Started is false when the racer's engine could not be launched.
	Started bool
}

type Standings []Standing

// Count returns how many racers ended with the given status.
func (standings Standings) Count(status Status) int {
	count := 0
	for _, standing := range standings {
		if standing.Status == status {
			count++
		}
	}
	return count
}

type Coordinator struct {
	Config   Config
	Screen   *display.Locked
	Launcher Launcher
	Sources  SourceFactory
	Logger   *log.Logger
}

type Option func(*Coordinator)

func WithLauncher(launcher Launcher) Option {
	return func(coordinator *Coordinator) { coordinator.Launcher = launcher }
}

func WithLogger(logger *log.Logger) Option {
	return func(coordinator *Coordinator) { coordinator.Logger = logger }
}

func WithSourceFactory(sources SourceFactory) Option {
	return func(coordinator *Coordinator) { coordinator.Sources = sources }
}

// NewCoordinator wraps surface in the single lock of the run.
func NewCoordinator(cfg Config, surface display.Surface, opts ...Option) *Coordinator {
	coordinator := &Coordinator{
		Config:   cfg,
		Screen:   display.NewLocked(surface),
		Launcher: GoroutineLauncher{},
		Sources:  ClockSource,
		Logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(coordinator)
	}
	return coordinator
}

// Inspect lets a reader look at the surface between two renders.
func (coordinatorInst *Coordinator) Inspect(fn func(display.Surface)) {
	coordinatorInst.Screen.Inspect(fn)
}

// Run races every racer to a terminal status and destroys them, on every
// path including a rejected config or lane layout. A launch
// failure is logged and reported in the returned error, but the other
// racers still run and are still waited for.
func (coordinatorInst *Coordinator) Run(racers []*Racer) (Standings, error) {
	defer destroyAll(racers)
	if err := coordinatorInst.Config.Validate(); err != nil {
		return nil, err
	}
	if err := checkLanes(racers); err != nil {
		return nil, err
	}

	coordinatorInst.drawTrack(racers)

	var wg sync.WaitGroup
	var spawnErrs []error
	started := make([]bool, len(racers))

	for i, racer := range racers {
		engine := &Engine{
			Racer:  racer,
			Config: coordinatorInst.Config,
			Source: coordinatorInst.Sources(racer.Lane()),
			Screen: coordinatorInst.Screen,
			Logger: coordinatorInst.Logger,
		}

		wg.Add(1)
		err := coordinatorInst.Launcher.Launch(racer, func() {
			defer wg.Done()
			engine.Run()
		})
		if err != nil {
			wg.Done()
			closeSource(engine.Source)
			coordinatorInst.Logger.Error("engine spawn failed",
				"racer", racer.Name(), "lane", racer.Lane(), "error", err)
			spawnErrs = append(spawnErrs,
				fmt.Errorf("%w: racer %q in lane %d: %w", ErrEngineSpawn, racer.Name(), racer.Lane(), err))
			continue
		}
		started[i] = true
	}

	wg.Wait()

	lastLane := 0
	standings := make(Standings, 0, len(racers))
	for i, racer := range racers {
		lastLane = max(lastLane, racer.Lane())
		standings = append(standings, Standing{
			Name:     racer.Name(),
			Lane:     racer.Lane(),
			Distance: racer.Distance(),
			Status:   racer.Status(),
			Started:  started[i],
		})
	}

	if err := coordinatorInst.Screen.Draw(func(surface display.Surface) {
		surface.SetCursor(lastLane+1, 0)
	}); err != nil {
		coordinatorInst.Logger.Warn("final cursor placement failed", "error", err)
	}

	coordinatorInst.Logger.Info("race over",
		"racers", len(racers),
		"finished", standings.Count(Finished),
		"flat", standings.Count(FlatTire))

	return standings, errors.Join(spawnErrs...)
}

// drawTrack clears the surface and draws the finish marker of every lane.
func (coordinatorInst *Coordinator) drawTrack(racers []*Racer) {
	finishColumn := coordinatorInst.Config.FinishColumn()
	err := coordinatorInst.Screen.Draw(func(surface display.Surface) {
		surface.Clear()
		for _, racer := range racers {
			surface.SetCursor(racer.Lane(), finishColumn)
			surface.WriteChar(finishGlyph)
		}
	})
	if err != nil {
		coordinatorInst.Logger.Warn("track render failed", "error", err)
	}
}

// checkLanes requires the lanes to be a permutation of 1..len(racers).
func checkLanes(racers []*Racer) error {
	seen := make(map[int]bool, len(racers))
	for _, racer := range racers {
		if racer == nil {
			return fmt.Errorf("%w: nil racer", ErrInvalidLanes)
		}
		lane := racer.Lane()
		if lane < 1 || lane > len(racers) {
			return fmt.Errorf("%w: lane %d outside 1..%d", ErrInvalidLanes, lane, len(racers))
		}
		if seen[lane] {
			return fmt.Errorf("%w: lane %d used twice", ErrInvalidLanes, lane)
		}
		seen[lane] = true
	}
	return nil
}

func destroyAll(racers []*Racer) {
	for _, racer := range racers {
		racer.Destroy()
	}
}
