package race

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultMaxNameLen    = 6
	DefaultFinishLine    = 60
	DefaultMaxDelay      = 200
	DefaultFlatThreshold = 3
	DefaultDelayUnit     = time.Millisecond

	// Glyphs of the car graphic and the track.
	frontGlyph     = '~'
	wheelGlyph     = 'O'
	flatWheelGlyph = 'X'
	connectorGlyph = '='
	paddingGlyph   = '-'
	rearGlyph      = 'o'
	tailGlyph      = '>'
	finishGlyph    = '|'

	wheelIndex = 1
	// car graphic width beyond the name column: "~O=" + one hyphen + "o>"
	graphicOverhead = 6
)

// Config is shared by every racer of one run. It is a value: each engine
// gets its own copy and nothing in it is mutated after the race starts.
type Config struct {
	MaxNameLen int
	FinishLine int
	// Delays are drawn from [MinDelay, MaxDelay) in DelayUnit steps.
	MinDelay  int
	MaxDelay  int
	DelayUnit time.Duration
	// A draw at or below FlatThreshold is a flat tire.
	FlatThreshold int
}

func DefaultConfig() Config {
	return Config{
		MaxNameLen:    DefaultMaxNameLen,
		FinishLine:    DefaultFinishLine,
		MinDelay:      0,
		MaxDelay:      DefaultMaxDelay,
		DelayUnit:     DefaultDelayUnit,
		FlatThreshold: DefaultFlatThreshold,
	}
}

func (cfg Config) Validate() error {
	switch {
	case cfg.MaxNameLen <= 0:
		return fmt.Errorf("%w: max name length %d", ErrInvalidConfig, cfg.MaxNameLen)
	case cfg.FinishLine <= 0:
		return fmt.Errorf("%w: finish line %d", ErrInvalidConfig, cfg.FinishLine)
	case cfg.MinDelay < 0 || cfg.MaxDelay <= cfg.MinDelay:
		return fmt.Errorf("%w: delay range [%d, %d)", ErrInvalidConfig, cfg.MinDelay, cfg.MaxDelay)
	case cfg.DelayUnit < 0:
		return fmt.Errorf("%w: delay unit %s", ErrInvalidConfig, cfg.DelayUnit)
	case cfg.DelayUnit > 0 && int64(cfg.MaxDelay-1) > math.MaxInt64/int64(cfg.DelayUnit):
		return fmt.Errorf("%w: max delay %d of %s overflows a duration", ErrInvalidConfig, cfg.MaxDelay, cfg.DelayUnit)
	}
	return nil
}

// CarWidth is the fixed width of every car graphic.
func (cfg Config) CarWidth() int {
	return cfg.MaxNameLen + graphicOverhead
}

// FinishColumn is where the finish marker is drawn. A finished car ends
// just before it.
func (cfg Config) FinishColumn() int {
	return cfg.FinishLine + cfg.CarWidth()
}

// SurfaceSize is the area a race of the given number of lanes draws on.
// Row 0 stays blank, lanes use rows 1..lanes, and the cursor is parked on
// the row after the last lane.
func SurfaceSize(cfg Config, lanes int) (rows, cols int) {
	return lanes + 2, cfg.FinishColumn() + 1
}
