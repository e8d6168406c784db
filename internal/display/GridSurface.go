package display

import "strings"

// GridSurface is an in-memory Surface. Cells start as blanks; writes outside
// the grid are dropped but still move the cursor.
type GridSurface struct {
	cells     [][]rune
	cursorRow int
	cursorCol int
}

func NewGridSurface(rows, cols int) *GridSurface {
	grid := &GridSurface{cells: make([][]rune, rows)}
	for row := range grid.cells {
		grid.cells[row] = make([]rune, cols)
	}
	grid.Clear()
	return grid
}

func (grid *GridSurface) Clear() {
	for _, line := range grid.cells {
		for col := range line {
			line[col] = ' '
		}
	}
	grid.cursorRow, grid.cursorCol = 0, 0
}

func (grid *GridSurface) SetCursor(row, col int) {
	grid.cursorRow, grid.cursorCol = row, col
}

func (grid *GridSurface) WriteChar(c rune) {
	if grid.inBounds(grid.cursorRow, grid.cursorCol) {
		grid.cells[grid.cursorRow][grid.cursorCol] = c
	}
	grid.cursorCol++
}

func (grid *GridSurface) Flush() error { return nil }

// Cursor reports the current cursor position.
func (grid *GridSurface) Cursor() (row, col int) {
	return grid.cursorRow, grid.cursorCol
}

// Size reports the grid bounds.
func (grid *GridSurface) Size() (rows, cols int) {
	if len(grid.cells) == 0 {
		return 0, 0
	}
	return len(grid.cells), len(grid.cells[0])
}

// Row returns the content of one row, or "" when row is out of range.
func (grid *GridSurface) Row(row int) string {
	if row < 0 || row >= len(grid.cells) {
		return ""
	}
	return string(grid.cells[row])
}

// Rows returns every row of the grid, top to bottom.
func (grid *GridSurface) Rows() []string {
	rows := make([]string, len(grid.cells))
	for row := range grid.cells {
		rows[row] = string(grid.cells[row])
	}
	return rows
}

func (grid *GridSurface) String() string {
	return strings.Join(grid.Rows(), "\n")
}

func (grid *GridSurface) inBounds(row, col int) bool {
	return row >= 0 && row < len(grid.cells) && col >= 0 && col < len(grid.cells[row])
}
