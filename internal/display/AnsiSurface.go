package display

import (
	"bufio"
	"io"
	"strconv"
)

// ANSI control sequences, xterm compatible.
var (
	csiClear      = []byte("\x1b[2J\x1b[H")
	csiCursorHide = []byte("\x1b[?25l")
	csiCursorShow = []byte("\x1b[?25h")
	csi           = []byte("\x1b[")
)

// AnsiSurface draws straight onto a terminal stream with CSI sequences.
// Output is buffered until Flush. The first write error sticks and is
// reported by every later Flush.
type AnsiSurface struct {
	out *bufio.Writer
	err error
}

func NewAnsiSurface(w io.Writer) *AnsiSurface {
	return &AnsiSurface{out: bufio.NewWriter(w)}
}

func (ansiSurface *AnsiSurface) Clear() {
	ansiSurface.write(csiCursorHide)
	ansiSurface.write(csiClear)
}

// SetCursor moves to the 0-based (row, col), emitted as 1-based CUP.
func (ansiSurface *AnsiSurface) SetCursor(row, col int) {
	ansiSurface.write(csi)
	ansiSurface.write(strconv.AppendInt(nil, int64(max(row, 0)+1), 10))
	ansiSurface.write([]byte{';'})
	ansiSurface.write(strconv.AppendInt(nil, int64(max(col, 0)+1), 10))
	ansiSurface.write([]byte{'H'})
}

func (ansiSurface *AnsiSurface) WriteChar(c rune) {
	if ansiSurface.err != nil {
		return
	}
	if _, err := ansiSurface.out.WriteRune(c); err != nil {
		ansiSurface.err = err
	}
}

func (ansiSurface *AnsiSurface) Flush() error {
	if ansiSurface.err != nil {
		return ansiSurface.err
	}
	if err := ansiSurface.out.Flush(); err != nil {
		ansiSurface.err = err
	}
	return ansiSurface.err
}

// Close shows the cursor again and flushes.
func (ansiSurface *AnsiSurface) Close() error {
	ansiSurface.write(csiCursorShow)
	return ansiSurface.Flush()
}

func (ansiSurface *AnsiSurface) write(seq []byte) {
	if ansiSurface.err != nil {
		return
	}
	if _, err := ansiSurface.out.Write(seq); err != nil {
		ansiSurface.err = err
	}
}
