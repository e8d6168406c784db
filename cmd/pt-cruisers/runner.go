package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Mshel/ptcruisers/internal/display"
	"github.com/Mshel/ptcruisers/internal/race"
	"github.com/Mshel/ptcruisers/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const (
	displayAnsi  = "ansi"
	displayTcell = "tcell"
	displayTui   = "tui"
)

type options struct {
	display   string
	finish    int
	threshold int
	unit      time.Duration
	logLevel  string
	logFile   string
	strategy  string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, positional, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, race.Usage)
		return 1
	}

	logger, closeLog, err := newLogger(opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	cfg := race.DefaultConfig()
	cfg.FinishLine = opts.finish
	cfg.FlatThreshold = opts.threshold
	cfg.DelayUnit = opts.unit

	arguments, err := race.ParseArguments(positional, cfg.MaxNameLen)
	if err != nil {
		logger.Debug("rejected command line", "verdict", race.Classify(err), "error", err)
		fmt.Fprintln(stderr, race.ErrorMessage(err, cfg.MaxNameLen))
		return 1
	}
	cfg = arguments.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	racers, err := race.NewRacers(arguments.Names, cfg)
	if err != nil {
		fmt.Fprintln(stderr, race.ErrorMessage(err, cfg.MaxNameLen))
		return 1
	}
	coordinatorOpts := []race.Option{race.WithLogger(logger)}
	if opts.strategy != "" {
		sources, err := loadStrategy(opts.strategy, logger)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		coordinatorOpts = append(coordinatorOpts, race.WithSourceFactory(sources))
	}
	checkTerminalWidth(cfg, len(racers), logger)

	switch opts.display {
	case displayTcell:
		err = raceOnTcell(cfg, racers, logger, coordinatorOpts)
	case displayTui:
		err = raceOnTui(cfg, racers, stdout, coordinatorOpts)
	default:
		err = raceOnAnsi(cfg, racers, logger, stdout, coordinatorOpts)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	fs := flag.NewFlagSet("pt-cruisers", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.display, "display", displayAnsi, "Display: ansi, tcell, tui")
	fs.IntVar(&opts.finish, "finish", race.DefaultFinishLine, "Finish line distance")
	fs.IntVar(&opts.threshold, "threshold", race.DefaultFlatThreshold, "Delay draws at or below this are flat tires")
	fs.DurationVar(&opts.unit, "unit", race.DefaultDelayUnit, "Duration of one delay unit")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	fs.StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")
	fs.StringVar(&opts.strategy, "strategy", "", "Lua script defining nextDelay(lane, min, max)")

	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}
	switch opts.display {
	case displayAnsi, displayTcell, displayTui:
	default:
		return options{}, nil, fmt.Errorf("unknown display %q", opts.display)
	}
	return opts, fs.Args(), nil
}

func newLogger(opts options, stderr io.Writer) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, nil, err
	}

	out, closeLog := stderr, func() {}
	if opts.logFile != "" {
		file, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closeLog = file, func() { file.Close() }
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "pt-cruisers",
		Level:           level,
	})
	return logger, closeLog, nil
}

// checkTerminalWidth only warns: a narrow terminal clips the track but the
// race still runs.
func checkTerminalWidth(cfg race.Config, lanes int, logger *log.Logger) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return
	}
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		logger.Debug("could not read terminal size", "error", err)
		return
	}
	rows, cols := race.SurfaceSize(cfg, lanes)
	if width < cols || height < rows {
		logger.Warn("terminal smaller than the track", "need", fmt.Sprintf("%dx%d", cols, rows), "have", fmt.Sprintf("%dx%d", width, height))
	}
}

func loadStrategy(path string, logger *log.Logger) (race.SourceFactory, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy: %w", err)
	}
	sources, err := race.NewLuaSourceFactory(string(script), logger)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", path, err)
	}
	logger.Info("delay strategy loaded", "path", path)
	return sources, nil
}

func requireTerminal(mode string) error {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return nil
	}
	return fmt.Errorf("-display %s needs a terminal on stdout", mode)
}

func raceOnAnsi(cfg race.Config, racers []*race.Racer, logger *log.Logger, stdout io.Writer, coordinatorOpts []race.Option) error {
	surface := display.NewAnsiSurface(stdout)
	defer surface.Close()

	coordinator := race.NewCoordinator(cfg, surface, coordinatorOpts...)
	if _, err := coordinator.Run(racers); err != nil {
		// spawn failures are already logged per racer and do not fail the race
		logger.Error("race finished with errors", "error", err)
	}
	return nil
}

func raceOnTcell(cfg race.Config, racers []*race.Racer, logger *log.Logger, coordinatorOpts []race.Option) error {
	if err := requireTerminal(displayTcell); err != nil {
		return err
	}
	surface, err := display.OpenTcellSurface()
	if err != nil {
		return fmt.Errorf("open screen: %w", err)
	}
	defer surface.Close()

	coordinator := race.NewCoordinator(cfg, surface, coordinatorOpts...)
	if _, err := coordinator.Run(racers); err != nil {
		logger.Error("race finished with errors", "error", err)
	}

	showClosingMessage(coordinator.Screen, logger)
	surface.WaitForKey()
	return nil
}

// showClosingMessage writes the prompt where the cursor was parked.
func showClosingMessage(screen *display.Locked, logger *log.Logger) {
	if err := screen.Draw(func(s display.Surface) {
		display.WriteString(s, "race over, press any key")
	}); err != nil {
		logger.Warn("closing message render failed", "error", err)
	}
}

func raceOnTui(cfg race.Config, racers []*race.Racer, stdout io.Writer, coordinatorOpts []race.Option) error {
	if err := requireTerminal(displayTui); err != nil {
		return err
	}
	grid := display.NewGridSurface(race.SurfaceSize(cfg, len(racers)))
	coordinator := race.NewCoordinator(cfg, grid, coordinatorOpts...)

	program := tea.NewProgram(ui.NewRaceModel(coordinator, racers, nil), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("race view: %w", err)
	}

	if model, ok := final.(ui.RaceModel); ok && model.Finished {
		fmt.Fprint(stdout, ui.FormatStandings(model.Standings))
	}
	return nil
}
