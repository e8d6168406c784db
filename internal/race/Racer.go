package race

import (
	"fmt"
	"strings"
	"time"
)

type Status int

const (
	Running Status = iota
	FlatTire
	Finished
)

func (status Status) String() string {
	switch status {
	case Running:
		return "running"
	case FlatTire:
		return "flat tire"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("Status(%d)", int(status))
	}
}

// Terminal reports whether no further step can happen.
func (status Status) Terminal() bool {
	return status == FlatTire || status == Finished
}

// StepOutcome is the result of one Advance call.
type StepOutcome struct {
	Delay  int
	Status Status
}

// Continue reports whether the engine should keep looping.
func (outcome StepOutcome) Continue() bool {
	return outcome.Status == Running
}

// Racer is owned by its engine once the race starts: only that engine may
// call Advance, and nothing else reads it until the engine has returned.
type Racer struct {
	name     string
	lane     int
	distance int
	status   Status

	// frame is the car graphic built once at creation; the wheel byte is
	// kept apart so a flat tire never edits the frame in place.
	frame []byte
	wheel byte
}

// NewRacer builds a racer for the given lane.
func NewRacer(name string, lane int, cfg Config) (*Racer, error) {
	if len(name) > cfg.MaxNameLen {
		return nil, fmt.Errorf("%w: %q is %d long, max %d", ErrNameTooLong, name, len(name), cfg.MaxNameLen)
	}
	if lane < 1 {
		return nil, fmt.Errorf("%w: lane %d", ErrInvalidLanes, lane)
	}

	var frame strings.Builder
	frame.Grow(cfg.CarWidth())
	frame.WriteByte(frontGlyph)
	frame.WriteByte(wheelGlyph)
	frame.WriteByte(connectorGlyph)
	frame.WriteString(name)
	frame.WriteString(strings.Repeat(string(paddingGlyph), cfg.MaxNameLen-len(name)+1))
	frame.WriteByte(rearGlyph)
	frame.WriteByte(tailGlyph)

	return &Racer{
		name:   name,
		lane:   lane,
		status: Running,
		frame:  []byte(frame.String()),
		wheel:  wheelGlyph,
	}, nil
}

// NewRacers builds one racer per name, in lanes 1..len(names).
func NewRacers(names []string, cfg Config) ([]*Racer, error) {
	racers := make([]*Racer, 0, len(names))
	for i, name := range names {
		racer, err := NewRacer(name, i+1, cfg)
		if err != nil {
			return nil, err
		}
		racers = append(racers, racer)
	}
	return racers, nil
}

func (racer *Racer) Name() string    { return racer.name }
func (racer *Racer) Lane() int       { return racer.lane }
func (racer *Racer) Distance() int   { return racer.distance }
func (racer *Racer) Status() Status  { return racer.status }
func (racer *Racer) Width() int      { return len(racer.frame) }
func (racer *Racer) Destroyed() bool { return racer.frame == nil }

// Graphic returns the car as currently drawn.
func (racer *Racer) Graphic() string {
	graphic := make([]byte, len(racer.frame))
	copy(graphic, racer.frame)
	if len(graphic) > wheelIndex {
		graphic[wheelIndex] = racer.wheel
	}
	return string(graphic)
}

// Advance performs one step. A low draw blows the tire; otherwise the
// calling goroutine sleeps for the drawn delay and moves one column.
// Once the racer is terminal Advance changes nothing.
func (racer *Racer) Advance(source DelaySource, cfg Config) StepOutcome {
	if racer.status.Terminal() {
		return StepOutcome{Status: racer.status}
	}

	delay := source.Draw(cfg.MinDelay, cfg.MaxDelay)
	if delay <= cfg.FlatThreshold {
		racer.wheel = flatWheelGlyph
		racer.status = FlatTire
		return StepOutcome{Delay: delay, Status: racer.status}
	}

	time.Sleep(time.Duration(delay) * cfg.DelayUnit)
	racer.distance++
	if racer.distance >= cfg.FinishLine {
		racer.distance = cfg.FinishLine
		racer.status = Finished
	}
	return StepOutcome{Delay: delay, Status: racer.status}
}

// Destroy drops the graphic buffer. The racer is unusable afterwards.
func (racer *Racer) Destroy() {
	if racer == nil {
		return
	}
	racer.frame = nil
}
