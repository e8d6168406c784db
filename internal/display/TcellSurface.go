package display

import (
	"github.com/gdamore/tcell/v2"
)

var (
	tcellDefaultStyle = tcell.StyleDefault
	tcellFlatStyle    = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	tcellFinishStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// TcellSurface draws onto a tcell screen. The screen must already be
// initialized; Close finalizes it.
type TcellSurface struct {
	Screen    tcell.Screen
	cursorRow int
	cursorCol int
}

func NewTcellSurface(screen tcell.Screen) *TcellSurface {
	return &TcellSurface{Screen: screen}
}

// OpenTcellSurface creates and initializes a screen on the controlling terminal.
func OpenTcellSurface() (*TcellSurface, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return NewTcellSurface(screen), nil
}

func (tcellSurface *TcellSurface) Clear() {
	tcellSurface.Screen.Clear()
	tcellSurface.cursorRow, tcellSurface.cursorCol = 0, 0
}

func (tcellSurface *TcellSurface) SetCursor(row, col int) {
	tcellSurface.cursorRow, tcellSurface.cursorCol = row, col
}

func (tcellSurface *TcellSurface) WriteChar(c rune) {
	style := tcellDefaultStyle
	switch c {
	case 'X':
		style = tcellFlatStyle
	case '|':
		style = tcellFinishStyle
	}
	tcellSurface.Screen.SetContent(tcellSurface.cursorCol, tcellSurface.cursorRow, c, nil, style)
	tcellSurface.cursorCol++
}

func (tcellSurface *TcellSurface) Flush() error {
	tcellSurface.Screen.ShowCursor(tcellSurface.cursorCol, tcellSurface.cursorRow)
	tcellSurface.Screen.Show()
	return nil
}

// WaitForKey blocks until a key is pressed on the screen.
func (tcellSurface *TcellSurface) WaitForKey() {
	for {
		switch tcellSurface.Screen.PollEvent().(type) {
		case *tcell.EventKey:
			return
		case nil:
			return
		}
	}
}

func (tcellSurface *TcellSurface) Close() {
	tcellSurface.Screen.Fini()
}
