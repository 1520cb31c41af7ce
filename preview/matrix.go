// Package preview draws routing domains and their routes as character grids.
package preview

import (
	"errors"
	"strings"

	"riserroute/core"
)

// ErrOutOfBounds is returned when a cell lies outside the matrix.
var ErrOutOfBounds = errors.New("position out of bounds")

// Cell is one character of a matrix. Trade is set for route cells so viewers can color them.
type Cell struct {
	Rune  rune
	Trade core.SystemType
}

// Matrix is a rune grid with row 0 at the top.
//
// Matrix is not safe for concurrent writes.
type Matrix struct {
	cells  [][]Cell
	width  int
	height int
}

// NewMatrix creates a blank matrix. It returns nil for a non-positive size.
func NewMatrix(width, height int) *Matrix {
	if width <= 0 || height <= 0 {
		return nil
	}
	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
		for x := range cells[y] {
			cells[y][x] = Cell{Rune: ' '}
		}
	}
	return &Matrix{cells: cells, width: width, height: height}
}

// Size returns the width and height of the matrix.
func (m *Matrix) Size() (width, height int) {
	return m.width, m.height
}

// Get returns the cell at x, y, or a blank cell out of bounds.
func (m *Matrix) Get(x, y int) Cell {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return Cell{Rune: ' '}
	}
	return m.cells[y][x]
}

// Set places a cell.
func (m *Matrix) Set(x, y int, c Cell) error {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return ErrOutOfBounds
	}
	m.cells[y][x] = c
	return nil
}

func (m *Matrix) setClipped(x, y int, c Cell) {
	if x >= 0 && x < m.width && y >= 0 && y < m.height {
		m.cells[y][x] = c
	}
}

// DrawLine draws a line between two cells using Bresenham's algorithm, clipping at the edges.
func (m *Matrix) DrawLine(x1, y1, x2, y2 int, c Cell) {
	dx, dy := abs(x2-x1), abs(y2-y1)
	x, y := x1, y1
	xInc, yInc := 1, 1
	if x1 > x2 {
		xInc = -1
	}
	if y1 > y2 {
		yInc = -1
	}

	if dx > dy {
		err := dx / 2
		for x != x2 {
			m.setClipped(x, y, c)
			err -= dy
			if err < 0 {
				y += yInc
				err += dx
			}
			x += xInc
		}
	} else {
		err := dy / 2
		for y != y2 {
			m.setClipped(x, y, c)
			err -= dx
			if err < 0 {
				x += xInc
				err += dy
			}
			y += yInc
		}
	}
	m.setClipped(x2, y2, c)
}

// String returns the matrix as text with newlines between rows.
func (m *Matrix) String() string {
	var sb strings.Builder
	sb.Grow(m.height * (m.width + 1))
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			sb.WriteRune(m.cells[y][x].Rune)
		}
		if y < m.height-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
