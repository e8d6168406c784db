package race

import (
	"io"

	"github.com/Mshel/ptcruisers/internal/display"
	"github.com/charmbracelet/log"
)

// Engine drives one racer from its first step to a terminal status.
type Engine struct {
	Racer  *Racer
	Config Config
	Source DelaySource
	Screen *display.Locked
	Logger *log.Logger
}

// Run loops advance then render until the racer stops. The screen lock is
// only taken for the render, never across the sleep inside Advance.
func (engineInst *Engine) Run() {
	defer closeSource(engineInst.Source)
	for {
		outcome := engineInst.Racer.Advance(engineInst.Source, engineInst.Config)
		engineInst.render()
		if !outcome.Continue() {
			engineInst.Logger.Debug("racer stopped",
				"racer", engineInst.Racer.Name(),
				"lane", engineInst.Racer.Lane(),
				"distance", engineInst.Racer.Distance(),
				"status", outcome.Status)
			return
		}
	}
}

func (engineInst *Engine) render() {
	racer := engineInst.Racer
	graphic := racer.Graphic()
	err := engineInst.Screen.Draw(func(surface display.Surface) {
		drawCar(surface, racer.Lane(), racer.Distance(), graphic)
	})
	if err != nil {
		engineInst.Logger.Warn("render failed", "racer", racer.Name(), "error", err)
	}
}

// drawCar erases the column behind the car, when there is one, and draws
// the car starting at column distance.
func drawCar(surface display.Surface, row, distance int, graphic string) {
	if distance > 0 {
		surface.SetCursor(row, distance-1)
		surface.WriteChar(' ')
	} else {
		surface.SetCursor(row, 0)
	}
	display.WriteString(surface, graphic)
}

// closeSource releases sources that hold resources, such as interpreters.
func closeSource(source DelaySource) {
	if closer, ok := source.(io.Closer); ok {
		_ = closer.Close()
	}
}
