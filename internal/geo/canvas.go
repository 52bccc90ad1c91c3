package geo

import (
	"strings"

	"github.com/paulmach/orb"
)

const (
	glyphEmpty = ' '
	glyphPath  = '·'
	glyphStart = 'A'
	glyphEnd   = 'B'
	glyphStop  = '*'
)

// Canvas rasterizes geometry into a Width x Height grid of runes whose
// viewport is fitted to Bound.
type Canvas struct {
	Width  int
	Height int
	Bound  orb.Bound

	cells [][]rune
}

// NewCanvas creates a blank canvas fitted to bound.
func NewCanvas(width, height int, bound orb.Bound) *Canvas {
	if width < 2 {
		width = 2
	}
	if height < 2 {
		height = 2
	}
	cells := make([][]rune, height)
	for y := range cells {
		cells[y] = []rune(strings.Repeat(string(glyphEmpty), width))
	}
	return &Canvas{Width: width, Height: height, Bound: bound, cells: cells}
}

// Project maps a point to a cell. ok is false for points outside the bound.
func (c *Canvas) Project(p orb.Point) (x, y int, ok bool) {
	if !c.Bound.Contains(p) {
		return 0, 0, false
	}
	x = scale(p.Lon(), c.Bound.Min.Lon(), c.Bound.Max.Lon(), c.Width)
	// Rows grow downwards, latitude grows upwards.
	y = c.Height - 1 - scale(p.Lat(), c.Bound.Min.Lat(), c.Bound.Max.Lat(), c.Height)
	return x, y, true
}

func scale(v, lo, hi float64, n int) int {
	span := hi - lo
	if span <= 0 {
		return (n - 1) / 2
	}
	i := int((v-lo)/span*float64(n-1) + 0.5)
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// DrawPath draws the line through every point, marking the first and last.
// It returns how many points landed on the canvas.
func (c *Canvas) DrawPath(ls orb.LineString) int {
	drawn := 0
	prevX, prevY, havePrev := 0, 0, false
	for _, p := range ls {
		x, y, ok := c.Project(p)
		if !ok {
			havePrev = false
			continue
		}
		drawn++
		if havePrev {
			c.line(prevX, prevY, x, y)
		} else {
			c.set(x, y, glyphPath)
		}
		prevX, prevY, havePrev = x, y, true
	}
	if len(ls) > 0 {
		c.Mark(ls[0], glyphStart)
		c.Mark(ls[len(ls)-1], glyphEnd)
	}
	return drawn
}

// Mark puts a single glyph at p.
func (c *Canvas) Mark(p orb.Point, glyph rune) bool {
	x, y, ok := c.Project(p)
	if ok {
		c.cells[y][x] = glyph
	}
	return ok
}

// MarkStop marks a suggested stop.
func (c *Canvas) MarkStop(p orb.Point) bool {
	return c.Mark(p, glyphStop)
}

// At returns the glyph in a cell.
func (c *Canvas) At(x, y int) rune {
	return c.cells[y][x]
}

func (c *Canvas) set(x, y int, r rune) {
	if c.cells[y][x] == glyphEmpty {
		c.cells[y][x] = r
	}
}

// line is Bresenham between two cells.
func (c *Canvas) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.set(x0, y0, glyphPath)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// String renders the grid, one line per row.
func (c *Canvas) String() string {
	var b strings.Builder
	for y, row := range c.cells {
		b.WriteString(strings.TrimRight(string(row), string(glyphEmpty)))
		if y < len(c.cells)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RenderRoute decodes an encoded polyline and draws it on a canvas fitted to
// its bounds.
func RenderRoute(encoded string, width, height int) (*Canvas, orb.LineString, error) {
	ls, err := DecodePolyline(encoded)
	if err != nil {
		return nil, nil, err
	}
	bound, err := Fit(ls...)
	if err != nil {
		return nil, nil, err
	}
	c := NewCanvas(width, height, bound)
	c.DrawPath(ls)
	return c, ls, nil
}
