package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Mshel/ptcruisers/internal/display"
	"github.com/Mshel/ptcruisers/internal/race"
	"github.com/Mshel/ptcruisers/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
)

const (
	defaultHost string = "0.0.0.0"
	defaultPort string = "6996"

	maxConnectionsPerIP = 2
	shutdownTimeout     = 30 * time.Second
)

type serverConfig struct {
	Host        string
	Port        string
	HostKeyPath string
}

func loadServerConfig(getenv func(string) string) serverConfig {
	cfg := serverConfig{
		Host:        getenv("PTCRUISERS_HOST"),
		Port:        getenv("PTCRUISERS_PORT"),
		HostKeyPath: getenv("PTCRUISERS_HOST_KEY_PATH"),
	}
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.HostKeyPath == "" {
		cfg.HostKeyPath = ".ssh/pt_cruisers_ed25519"
	}
	return cfg
}

func (cfg serverConfig) Address() string {
	return net.JoinHostPort(cfg.Host, cfg.Port)
}

// --- Connection limiting ---

type connectionLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	limit  int
}

func newConnectionLimiter(limit int) *connectionLimiter {
	return &connectionLimiter{counts: make(map[string]int), limit: limit}
}

// acquire takes a slot for ip and reports the count it would have reached.
func (limiter *connectionLimiter) acquire(ip string) (int, bool) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if limiter.counts[ip] >= limiter.limit {
		return limiter.counts[ip] + 1, false
	}
	limiter.counts[ip]++
	return limiter.counts[ip], true
}

func (limiter *connectionLimiter) release(ip string) int {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	limiter.counts[ip]--
	if limiter.counts[ip] <= 0 {
		delete(limiter.counts, ip)
		return 0
	}
	return limiter.counts[ip]
}

func getIP(s ssh.Session) string {
	if addr, ok := s.RemoteAddr().(*net.TCPAddr); ok {
		return addr.IP.String()
	}
	return s.RemoteAddr().String()
}

func (limiter *connectionLimiter) middleware(next ssh.Handler) ssh.Handler {
	return func(s ssh.Session) {
		ip := getIP(s)

		count, ok := limiter.acquire(ip)
		if !ok {
			log.Warn("Connection denied: IP limit exceeded", "ip", ip, "attempted_count", count, "current_limit", limiter.limit)
			fmt.Fprintf(s, "Too many active connections from your IP (%d/%d). Please try again later.\r\n", count, limiter.limit)
			_ = s.Exit(1)
			return
		}

		log.Info("Connection accepted", "ip", ip, "current_count", count, "limit", limiter.limit)
		next(s)
		log.Info("Connection closed", "ip", ip, "count_after", limiter.release(ip))
	}
}

// --- Race sessions ---

// raceArgumentsMiddleware rejects a session whose command is not a valid
// race before any terminal UI starts.
func raceArgumentsMiddleware(next ssh.Handler) ssh.Handler {
	return func(s ssh.Session) {
		if _, err := race.ParseArguments(s.Command(), race.DefaultMaxNameLen); err != nil {
			log.Debug("rejected race", "command", strings.Join(s.Command(), " "), "verdict", race.Classify(err))
			fmt.Fprintln(s.Stderr(), race.ErrorMessage(err, race.DefaultMaxNameLen))
			fmt.Fprintln(s.Stderr(), "Try: ssh -p "+defaultPort+" <host> -- [max-speed-delay] name1 name2 [name3...]")
			_ = s.Exit(1)
			return
		}
		next(s)
	}
}

// newRaceModel builds an independent race for one session.
func newRaceModel(s ssh.Session) (ui.RaceModel, error) {
	arguments, err := race.ParseArguments(s.Command(), race.DefaultMaxNameLen)
	if err != nil {
		return ui.RaceModel{}, err
	}
	cfg := arguments.Apply(race.DefaultConfig())
	racers, err := race.NewRacers(arguments.Names, cfg)
	if err != nil {
		return ui.RaceModel{}, err
	}

	grid := display.NewGridSurface(race.SurfaceSize(cfg, len(racers)))
	logger := log.Default().With("session", s.Context().SessionID())
	coordinator := race.NewCoordinator(cfg, grid, race.WithLogger(logger))
	return ui.NewRaceModel(coordinator, racers, bubbletea.MakeRenderer(s)), nil
}

func viewHandler(s ssh.Session) (tea.Model, []tea.ProgramOption) {
	model, err := newRaceModel(s)
	if err != nil {
		log.Error("Could not build race", "error", err)
		return nil, nil
	}
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

func main() {
	log.SetLevel(log.DebugLevel)

	cfg := loadServerConfig(os.Getenv)
	limiter := newConnectionLimiter(maxConnectionsPerIP)

	sshServer, serverCreateErr := wish.NewServer(
		wish.WithAddress(cfg.Address()),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(viewHandler),
			activeterm.Middleware(),
			raceArgumentsMiddleware,
			logging.Middleware(),
			limiter.middleware,
		),
	)
	if serverCreateErr != nil {
		log.Error("Failed to create ssh server", "error", serverCreateErr)
		os.Exit(1)
	}

	serverDoneChannel := make(chan os.Signal, 1)
	signal.Notify(serverDoneChannel, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	log.Info("Starting SSH server", "address", cfg.Address())
	go func() {
		if err := sshServer.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Error("Could not start server", "error", err)
			serverDoneChannel <- nil
		}
	}()

	<-serverDoneChannel

	log.Info("Stopping SSH server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sshServer.Shutdown(ctx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Error("Could not stop server", "error", err)
	}
}
