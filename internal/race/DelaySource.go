package race

import (
	"math/rand"
	"time"
)

// DelaySource draws the per-step delay of one racer, in [min, max).
// A source belongs to exactly one engine and is never shared.
type DelaySource interface {
	Draw(min, max int) int
}

// SourceFactory builds the delay source of the racer in the given lane.
type SourceFactory func(lane int) DelaySource

type randomSource struct {
	rng *rand.Rand
}

func (source *randomSource) Draw(min, max int) int {
	return min + source.rng.Intn(max-min)
}

// ClockSource seeds a fresh generator from the wall clock and the lane, so
// racers started in the same nanosecond still draw differently.
func ClockSource(lane int) DelaySource {
	return &randomSource{
		rng: rand.New(rand.NewSource(time.Now().UnixNano() + int64(lane))),
	}
}
