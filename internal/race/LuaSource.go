package race

import (
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"
)

// LuaDelayFunction is the global a strategy script must define:
//
//	function nextDelay(lane, min, max) return min + 10 end
const LuaDelayFunction = "nextDelay"

// LuaSource draws delays by calling a Lua strategy. Each source owns its
// own interpreter, so it must stay with the one engine it was built for.
// A failing call falls back to the clock source for that draw.
type LuaSource struct {
	state    *lua.LState
	lane     int
	fallback DelaySource
	logger   *log.Logger
	warned   bool
}

// NewLuaSourceFactory checks the script once and returns a factory that
// gives every lane a fresh interpreter running it.
func NewLuaSourceFactory(script string, logger *log.Logger) (SourceFactory, error) {
	if logger == nil {
		logger = log.Default()
	}
	check, err := NewLuaSource(script, 0, logger)
	if err != nil {
		return nil, err
	}
	check.Close()

	return func(lane int) DelaySource {
		source, err := NewLuaSource(script, lane, logger)
		if err != nil {
			logger.Error("lua strategy did not load, using the clock", "lane", lane, "error", err)
			return ClockSource(lane)
		}
		return source
	}, nil
}

func NewLuaSource(script string, lane int, logger *log.Logger) (*LuaSource, error) {
	state := lua.NewState()
	if err := state.DoString(script); err != nil {
		state.Close()
		return nil, fmt.Errorf("%w: %w", ErrInvalidStrategy, err)
	}
	if fn := state.GetGlobal(LuaDelayFunction); fn.Type() != lua.LTFunction {
		state.Close()
		return nil, fmt.Errorf("%w: %s is %s, expected function", ErrInvalidStrategy, LuaDelayFunction, fn.Type())
	}
	return &LuaSource{
		state:    state,
		lane:     lane,
		fallback: ClockSource(lane),
		logger:   logger,
	}, nil
}

// Draw calls nextDelay(lane, min, max) and clamps the answer into [min, max).
func (source *LuaSource) Draw(min, max int) int {
	if source.state == nil {
		return source.fallback.Draw(min, max)
	}

	err := source.state.CallByParam(lua.P{
		Fn:      source.state.GetGlobal(LuaDelayFunction),
		NRet:    1,
		Protect: true,
	}, lua.LNumber(source.lane), lua.LNumber(min), lua.LNumber(max))
	if err != nil {
		source.warnOnce("lua strategy call failed", err)
		return source.fallback.Draw(min, max)
	}

	ret := source.state.Get(-1)
	source.state.Pop(1)
	number, ok := ret.(lua.LNumber)
	if !ok {
		source.warnOnce("lua strategy returned a non-number", fmt.Errorf("got %s", ret.Type()))
		return source.fallback.Draw(min, max)
	}
	return clampDelay(float64(number), min, max)
}

// Close releases the interpreter. Later draws use the fallback.
func (source *LuaSource) Close() error {
	if source.state != nil {
		source.state.Close()
		source.state = nil
	}
	return nil
}

func (source *LuaSource) warnOnce(msg string, err error) {
	if source.warned {
		return
	}
	source.warned = true
	source.logger.Warn(msg, "lane", source.lane, "error", err)
}

func clampDelay(value float64, min, max int) int {
	switch {
	case math.IsNaN(value) || value < float64(min):
		return min
	case value >= float64(max):
		return max - 1
	}
	return int(value)
}
