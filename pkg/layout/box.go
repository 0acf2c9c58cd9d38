// Package layout assigns coordinates to a parsed diagram's nodes,
// lifelines, and entities, then rasterizes them onto a shared grid,
// forming stages 3 and 4 of the pipeline: layout engine and rasterizer.
package layout

import (
	"strings"

	"github.com/mermaid-ascii/ma/pkg/parser"
	"github.com/mermaid-ascii/ma/pkg/raster"
	"github.com/mermaid-ascii/ma/pkg/width"
)

const (
	boxHeight  = 3 // top border + label row + bottom border, single-line label
	boxHPad    = 2 // columns on each side of the label: one border plus one space
	minBoxSize = 5
)

// boxWidth returns the display-column width of a node box sized to hold
// label on a single line, including the shape's own border columns.
func boxWidth(label string) int {
	w := width.StringWidth(label) + boxHPad*2
	if w < minBoxSize {
		w = minBoxSize
	}
	return w
}

// boxHeightFor returns the box height needed to hold n label lines.
func boxHeightFor(n int) int {
	if n < 1 {
		n = 1
	}
	return n + 2
}

// wrapLabel greedily word-wraps label on whitespace into lines no wider
// than maxWidth display columns. maxWidth <= 0 disables wrapping. A
// single word wider than maxWidth is kept on its own (overflowing) line
// rather than split mid-token (§4.2 width cap).
func wrapLabel(label string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{label}
	}
	words := strings.Fields(label)
	if len(words) == 0 {
		return []string{""}
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := lines[len(lines)-1]
		if width.StringWidth(last)+1+width.StringWidth(w) <= maxWidth {
			lines[len(lines)-1] = last + " " + w
		} else {
			lines = append(lines, w)
		}
	}
	return lines
}

// wrappedBoxWidth returns the box width and word-wrapped label lines for
// label constrained to at most wrapAt display columns of content (before
// border/padding). wrapAt <= 0 means unwrapped.
func wrappedBoxWidth(label string, wrapAt int) (lines []string, w int) {
	lines = wrapLabel(label, wrapAt)
	maxLine := 0
	for _, l := range lines {
		if lw := width.StringWidth(l); lw > maxLine {
			maxLine = lw
		}
	}
	w = maxLine + boxHPad*2
	if w < minBoxSize {
		w = minBoxSize
	}
	return lines, w
}

// shapeCorners returns the four corner overrides for shape, or a glyph
// set with zero runes where raster.Box's default square corners should
// stand (rect, subroutine, cylinder).
type corners struct{ tl, tr, bl, br rune }

func shapeCorners(s parser.Shape) corners {
	switch s {
	case parser.ShapeRound, parser.ShapeStadium, parser.ShapeCircle, parser.ShapeDoubleCircle:
		return corners{'╭', '╮', '╰', '╯'}
	case parser.ShapeDiamond, parser.ShapeHexagon:
		return corners{'◇', '◇', '◇', '◇'}
	case parser.ShapeParallelogram:
		return corners{'/', '/', '/', '/'}
	case parser.ShapeTrapezoid:
		return corners{'/', '\\', '\\', '/'}
	default:
		return corners{}
	}
}

// drawNodeBox renders one flowchart node's box and its full, single-line
// label at (x, y) with the given outer width, honoring its shape's
// corner decoration.
func drawNodeBox(g *raster.Grid, x, y, w int, n *parser.Node) {
	drawNodeBoxLines(g, x, y, w, []string{n.Label}, n.Shape)
}

// drawNodeBoxLines renders a node box sized to boxHeightFor(len(lines)),
// one label line per interior row; subroutine and double-circle shapes
// add extra decoration inside the same footprint. Used directly when the
// width cap has forced a node's label to wrap across multiple lines
// (§4.2).
func drawNodeBoxLines(g *raster.Grid, x, y, w int, lines []string, shape parser.Shape) {
	h := boxHeightFor(len(lines))
	g.Box(x, y, w, h, raster.StyleSolid)
	c := shapeCorners(shape)
	if c.tl != 0 {
		g.Put(x, y, c.tl, raster.PriorityBoxCorner)
		g.Put(x+w-1, y, c.tr, raster.PriorityBoxCorner)
		g.Put(x, y+h-1, c.bl, raster.PriorityBoxCorner)
		g.Put(x+w-1, y+h-1, c.br, raster.PriorityBoxCorner)
	}
	if shape == parser.ShapeSubroutine {
		for row := 1; row < h-1; row++ {
			g.Put(x+1, y+row, '║', raster.PriorityBoxEdge)
			g.Put(x+w-2, y+row, '║', raster.PriorityBoxEdge)
		}
	}
	if shape == parser.ShapeDoubleCircle {
		g.Box(x+1, y, w-2, h, raster.StyleSolid)
	}
	if shape == parser.ShapeCylinder {
		g.Text(x+1, y, repeatRune('_', w-2), raster.PriorityBoxEdge)
	}
	for i, line := range lines {
		line = width.Truncate(line, w-2)
		line = width.Center(line, w-2)
		g.Text(x+1, y+1+i, line, raster.PriorityLabel)
	}
}

func repeatRune(r rune, n int) string {
	if n <= 0 {
		return ""
	}
	rs := make([]rune, n)
	for i := range rs {
		rs[i] = r
	}
	return string(rs)
}

func lineStyle(s parser.EdgeStyle) raster.Style {
	switch s {
	case parser.EdgeDotted:
		return raster.StyleDotted
	case parser.EdgeThick:
		return raster.StyleThick
	default:
		return raster.StyleSolid
	}
}
