package race

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

const Usage = "Usage: pt-cruisers [max-speed-delay] name1 name2 [name3...]"

const minRacers = 2

// Arguments is a validated positional command line.
type Arguments struct {
	// MaxDelay is the user supplied upper bound of the delay draw; it is only
	// meaningful when DelayOverride is set.
	MaxDelay      int
	DelayOverride bool
	Names         []string
}

// Apply returns cfg with the delay override applied.
func (arguments Arguments) Apply(cfg Config) Config {
	if arguments.DelayOverride {
		cfg.MaxDelay = arguments.MaxDelay
	}
	return cfg
}

// ParseArguments validates "[max-speed-delay] name1 name2 [name3...]".
// The first argument is a delay override when it starts with a positive
// integer. A name may not start with an integer and may not be longer than
// maxNameLen. Errors wrap ErrInvalidArguments or ErrNameTooLong.
func ParseArguments(args []string, maxNameLen int) (Arguments, error) {
	if len(args) < minRacers {
		return Arguments{}, fmt.Errorf("%w: need at least %d racers", ErrInvalidArguments, minRacers)
	}

	var arguments Arguments
	if delay, ok := leadingInt(args[0]); ok && delay > 0 {
		arguments.MaxDelay = delay
		arguments.DelayOverride = true
		args = args[1:]
		if len(args) < minRacers {
			return Arguments{}, fmt.Errorf("%w: need at least %d racers after the delay", ErrInvalidArguments, minRacers)
		}
	}

	for _, name := range args {
		if _, ok := leadingInt(name); ok {
			return Arguments{}, fmt.Errorf("%w: racer name %q looks like a number", ErrInvalidArguments, name)
		}
		if len(name) > maxNameLen {
			return Arguments{}, fmt.Errorf("%w: racer names must not exceed length %d", ErrNameTooLong, maxNameLen)
		}
	}
	arguments.Names = append([]string(nil), args...)
	return arguments, nil
}

// ErrorMessage is the line printed for a failed validation.
func ErrorMessage(err error, maxNameLen int) string {
	if Classify(err) == VerdictNameTooLong {
		return fmt.Sprintf("Error: racer names must not exceed length %d.", maxNameLen)
	}
	return Usage
}

// leadingInt reads a base 10 integer prefix the way strtol does: optional
// leading white space, an optional sign, then at least one digit. Values out
// of range saturate.
func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, false
	}

	value, err := strconv.ParseInt(s[start:i], 10, 0)
	if err != nil {
		if !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		if s[start] == '-' {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}
	return int(value), true
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
