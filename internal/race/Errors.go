package race

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrInvalidName      = errors.New("invalid racer name")
	ErrNameTooLong      = fmt.Errorf("%w: name too long", ErrInvalidName)
	ErrEngineSpawn      = errors.New("engine spawn failed")
	ErrInvalidConfig    = errors.New("invalid race config")
	ErrInvalidLanes     = errors.New("invalid lanes")
	ErrInvalidStrategy  = errors.New("invalid delay strategy")
)

// Verdict tags the outcome of command-line validation.
type Verdict int

const (
	VerdictOk Verdict = iota
	VerdictUsage
	VerdictNameTooLong
)

func (verdict Verdict) String() string {
	switch verdict {
	case VerdictOk:
		return "ok"
	case VerdictUsage:
		return "usage error"
	case VerdictNameTooLong:
		return "name too long"
	default:
		return fmt.Sprintf("Verdict(%d)", int(verdict))
	}
}

// Classify maps a validation error onto its Verdict. Anything that is not a
// name length problem is a usage problem.
func Classify(err error) Verdict {
	switch {
	case err == nil:
		return VerdictOk
	case errors.Is(err, ErrNameTooLong):
		return VerdictNameTooLong
	default:
		return VerdictUsage
	}
}
