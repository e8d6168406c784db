// Package display holds the drawing targets a race renders onto.
//
// A Surface is a character grid with a single write cursor. Surfaces are not
// safe for concurrent use; every writer goes through one Locked wrapper, which
// owns the only mutex of a run.
package display

import "sync"

// Surface is the minimal drawing contract of a race: clear, move the cursor,
// write one character at the cursor and advance it by one column.
// Coordinates are 0-based, row first.
type Surface interface {
	Clear()
	SetCursor(row, col int)
	WriteChar(c rune)
	// Flush makes everything written so far visible.
	Flush() error
}

// Locked serializes access to a Surface. One Draw call is one atomic unit:
// no other Draw or Inspect runs until it has flushed.
type Locked struct {
	mu      sync.Mutex
	surface Surface
}

func NewLocked(surface Surface) *Locked {
	return &Locked{surface: surface}
}

// Draw runs fn with exclusive access to the surface, then flushes it.
func (lockedInst *Locked) Draw(fn func(Surface)) error {
	lockedInst.mu.Lock()
	defer lockedInst.mu.Unlock()

	fn(lockedInst.surface)
	return lockedInst.surface.Flush()
}

// Inspect runs fn with exclusive access to the surface without flushing.
// Readers use it to look at a consistent frame.
func (lockedInst *Locked) Inspect(fn func(Surface)) {
	lockedInst.mu.Lock()
	defer lockedInst.mu.Unlock()

	fn(lockedInst.surface)
}

// WriteString writes every rune of s starting at the current cursor.
func WriteString(surface Surface, s string) {
	for _, c := range s {
		surface.WriteChar(c)
	}
}
