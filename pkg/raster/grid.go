// Package raster implements the shared 2D character grid that every
// layout stage rasterizes onto: width-aware writes, line drawing with
// junction-glyph resolution, box borders, arrowheads, and label overlay,
// all reconciled through the fixed priority table of §4.5.
package raster

import (
	"strings"

	"github.com/mermaid-ascii/ma/pkg/config"
	"github.com/mermaid-ascii/ma/pkg/width"
)

// Priority is the glyph-provenance tag used to resolve overlapping
// writes. Higher always wins; a write at priority p never clobbers a
// cell already holding a strictly higher priority.
type Priority int

const (
	PriorityBlank Priority = iota
	PriorityFill
	PriorityLineSegment
	PriorityLineJunction
	PriorityBoxEdge
	PriorityBoxCorner
	PriorityArrowhead
	PriorityLabel
)

// Style is a line style: solid, dotted, or thick. Thick dominates solid
// dominates dotted when two differently-styled lines cross.
type Style int

const (
	StyleSolid Style = iota
	StyleDotted
	StyleThick
)

// Dir is a compass direction, used both for the 4-neighbor line mask and
// for arrowhead orientation.
type Dir uint8

const (
	North Dir = 1 << iota
	South
	East
	West
)

// ArrowKind is the head shape drawn by Arrowhead.
type ArrowKind int

const (
	ArrowFilled ArrowKind = iota
	ArrowOpen
	ArrowCross
)

type cell struct {
	r         rune
	priority  Priority
	hasLine   bool
	lineMask  uint8
	heavy     bool
	allDotted bool
	set       bool
	cont      bool // continuation cell of a wide rune to the west
}

// Grid is a rectangular matrix of cells. The rasterizer is its only
// writer; layout stages invoke it sequentially, so no aliasing or
// synchronization is required (§5).
type Grid struct {
	rows   [][]cell
	w, h   int
	glyphs glyphTable
}

// NewGrid allocates a grid of the given display-column width and row
// height.
func NewGrid(w, h int, gs config.GlyphSet) *Grid {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	g := &Grid{w: w, h: h, glyphs: tableFor(gs)}
	g.rows = make([][]cell, h)
	for i := range g.rows {
		g.rows[i] = make([]cell, w)
	}
	return g
}

// Width and Height report the grid's current dimensions.
func (g *Grid) Width() int  { return g.w }
func (g *Grid) Height() int { return g.h }

// Grow resizes the grid in place to at least (w, h), preserving existing
// content. Used when final dimensions are not known until content is
// partially laid out.
func (g *Grid) Grow(w, h int) {
	if w <= g.w && h <= g.h {
		return
	}
	if w < g.w {
		w = g.w
	}
	if h < g.h {
		h = g.h
	}
	newRows := make([][]cell, h)
	for y := 0; y < h; y++ {
		row := make([]cell, w)
		if y < len(g.rows) {
			copy(row, g.rows[y])
		}
		newRows[y] = row
	}
	g.rows = newRows
	g.w, g.h = w, h
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.w && y < g.h
}

// Put writes ch at (x, y) if priority is at least the existing cell's
// priority. A double-width ch also claims (x+1, y) as a continuation
// cell; it is not written if that would run past the right edge.
func (g *Grid) Put(x, y int, ch rune, priority Priority) {
	if !g.inBounds(x, y) {
		return
	}
	cur := &g.rows[y][x]
	if cur.set && priority < cur.priority {
		return
	}
	rw := width.RuneWidth(ch)
	if rw == 2 && x+1 >= g.w {
		rw = 1 // clip rather than overflow the grid
	}
	*cur = cell{r: ch, priority: priority, set: true}
	if rw == 2 {
		g.rows[y][x+1] = cell{priority: priority, set: true, cont: true}
	}
}

// Text writes s left-to-right starting at (x, y), honoring display
// width per rune and clipping at the grid's right edge.
func (g *Grid) Text(x, y int, s string, priority Priority) {
	cx := x
	for _, r := range s {
		rw := width.RuneWidth(r)
		if cx >= g.w {
			break
		}
		if cx+rw > g.w && rw == 2 {
			break
		}
		g.Put(cx, y, r, priority)
		if rw == 0 {
			rw = 1
		}
		cx += rw
	}
}

// Fill writes ch at every cell of the rectangle (x, y, w, h) with
// PriorityFill, used for block/note backgrounds before borders are
// drawn over them.
func (g *Grid) Fill(x, y, w, h int, ch rune) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			g.Put(col, row, ch, PriorityFill)
		}
	}
}

// HLine draws a horizontal run at row y from x1 to x2 inclusive
// (regardless of argument order), merging with any existing line mask
// so that crossings and corners resolve to the correct junction glyph.
func (g *Grid) HLine(x1, x2, y int, style Style) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		bits := uint8(East | West)
		if x == x1 && x == x2 {
			bits = 0
		} else if x == x1 {
			bits = uint8(East)
		} else if x == x2 {
			bits = uint8(West)
		}
		g.mergeLine(x, y, bits, style)
	}
}

// VLine draws a vertical run at column x from y1 to y2 inclusive.
func (g *Grid) VLine(x, y1, y2 int, style Style) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for y := y1; y <= y2; y++ {
		bits := uint8(North | South)
		if y == y1 && y == y2 {
			bits = 0
		} else if y == y1 {
			bits = uint8(South)
		} else if y == y2 {
			bits = uint8(North)
		}
		g.mergeLine(x, y, bits, style)
	}
}

func (g *Grid) mergeLine(x, y int, bits uint8, style Style) {
	if !g.inBounds(x, y) || bits == 0 {
		return
	}
	cur := &g.rows[y][x]
	if cur.set && !cur.hasLine && cur.priority > PriorityLineJunction {
		return // a box edge/corner, arrowhead, or label owns this cell
	}

	mask := bits
	heavy := style == StyleThick
	allDotted := style == StyleDotted
	if cur.hasLine {
		mask |= cur.lineMask
		heavy = heavy || cur.heavy
		allDotted = allDotted && cur.allDotted
	}

	straight := mask == uint8(North|South) || mask == uint8(East|West) ||
		mask == uint8(North) || mask == uint8(South) || mask == uint8(East) || mask == uint8(West)

	priority := PriorityLineSegment
	if !straight {
		priority = PriorityLineJunction
	}

	var r rune
	switch {
	case straight && allDotted:
		if mask == uint8(North|South) || mask == uint8(North) || mask == uint8(South) {
			r = g.glyphs.dashedVertical
		} else {
			r = g.glyphs.dashedHorizontal
		}
	case heavy:
		r = g.glyphs.heavyJunction[mask]
	default:
		r = g.glyphs.lightJunction[mask]
	}

	g.rows[y][x] = cell{r: r, priority: priority, hasLine: true, lineMask: mask, heavy: heavy, allDotted: allDotted, set: true}
}

// Box draws a bordered rectangle: corners at priority PriorityBoxCorner,
// edges at PriorityBoxEdge.
func (g *Grid) Box(x, y, w, h int, style Style) {
	if w <= 0 || h <= 0 {
		return
	}
	s := g.glyphs.box(style)
	g.Put(x, y, s.topLeft, PriorityBoxCorner)
	g.Put(x+w-1, y, s.topRight, PriorityBoxCorner)
	g.Put(x, y+h-1, s.bottomLeft, PriorityBoxCorner)
	g.Put(x+w-1, y+h-1, s.bottomRight, PriorityBoxCorner)
	for cx := x + 1; cx < x+w-1; cx++ {
		g.Put(cx, y, s.horizontal, PriorityBoxEdge)
		g.Put(cx, y+h-1, s.horizontal, PriorityBoxEdge)
	}
	for cy := y + 1; cy < y+h-1; cy++ {
		g.Put(x, cy, s.vertical, PriorityBoxEdge)
		g.Put(x+w-1, cy, s.vertical, PriorityBoxEdge)
	}
}

// Arrowhead writes a single head glyph at (x, y) oriented by dir.
func (g *Grid) Arrowhead(x, y int, dir Dir, kind ArrowKind) {
	if kind == ArrowCross {
		g.Put(x, y, g.glyphs.cross, PriorityArrowhead)
		return
	}
	open := kind == ArrowOpen
	var r rune
	switch dir {
	case North:
		r = g.glyphs.arrowUp
		if open {
			r = g.glyphs.openArrowUp
		}
	case South:
		r = g.glyphs.arrowDown
		if open {
			r = g.glyphs.openArrowDown
		}
	case East:
		r = g.glyphs.arrowRight
		if open {
			r = g.glyphs.openArrowRight
		}
	case West:
		r = g.glyphs.arrowLeft
		if open {
			r = g.glyphs.openArrowLeft
		}
	}
	g.Put(x, y, r, PriorityArrowhead)
}

// Lines renders the grid as a slice of strings, each padded with spaces
// to the grid's full display width (§8 property 1: rectangularity).
func (g *Grid) Lines() []string {
	out := make([]string, g.h)
	for y, row := range g.rows {
		var sb strings.Builder
		for x := 0; x < len(row); x++ {
			c := row[x]
			if c.cont {
				continue
			}
			if !c.set || c.r == 0 {
				sb.WriteByte(' ')
				continue
			}
			sb.WriteRune(c.r)
		}
		out[y] = sb.String()
	}
	return out
}
