package layout

import (
	"fmt"

	"github.com/mermaid-ascii/ma/pkg/config"
	"github.com/mermaid-ascii/ma/pkg/ma"
	"github.com/mermaid-ascii/ma/pkg/parser"
	"github.com/mermaid-ascii/ma/pkg/raster"
	"github.com/mermaid-ascii/ma/pkg/width"
)

const (
	erColGutter = 6
	erMinGutter = 1
	erEntityPad = 2
)

// erWrapCapLadder is tried, widest first, when the unwrapped layout
// exceeds the configured maximum width (§4.2).
var erWrapCapLadder = []int{0, 24, 18, 14, 11, 9, 7, 5}

var cardinalityGlyph = map[parser.Cardinality]string{
	parser.CardExactlyOne: "||",
	parser.CardZeroOrOne:  "o|",
	parser.CardOneOrMany:  "|{",
	parser.CardZeroOrMany: "o{",
}

// erFit is the outcome of fitting every entity box to the configured
// maximum width: each one's column, box width, wrapped name lines, and
// box height, plus the overall canvas width and tallest entity height.
type erFit struct {
	xOf, wOf, hOf   map[string]int
	nameLinesOf     map[string][]string
	canvasW         int
	maxEntityHeight int
}

// measureEntities lays out one column per entity, wrapping each name to
// at most wrapCap display columns (0 = unwrapped) and spacing columns by
// gutter.
func measureEntities(ir *parser.ErIR, wrapCap, gutter int) erFit {
	xOf := make(map[string]int, len(ir.Entities))
	wOf := make(map[string]int, len(ir.Entities))
	hOf := make(map[string]int, len(ir.Entities))
	nameLinesOf := make(map[string][]string, len(ir.Entities))
	x := 0
	maxEntityHeight := 0
	for _, e := range ir.Entities {
		nameLines, w := wrappedBoxWidth(e.Name, wrapCap)
		for _, a := range e.Attributes {
			if aw := width.StringWidth(attributeLine(a)) + erEntityPad*2; aw > w {
				w = aw
			}
		}
		h := entityHeightFor(len(nameLines), len(e.Attributes))
		xOf[e.Name] = x
		wOf[e.Name] = w
		hOf[e.Name] = h
		nameLinesOf[e.Name] = nameLines
		if h > maxEntityHeight {
			maxEntityHeight = h
		}
		x += w + gutter
	}
	canvasW := x - gutter
	if canvasW < 1 {
		canvasW = 1
	}
	return erFit{xOf: xOf, wOf: wOf, hOf: hOf, nameLinesOf: nameLinesOf, canvasW: canvasW, maxEntityHeight: maxEntityHeight}
}

// fitEntities finds an entity layout that fits within cfg's configured
// maximum width, first trying progressively narrower name wrapping at
// the default gutter, then progressively smaller gutters at the
// narrowest wrap, per the width-cap mitigation order of §4.2. It fails
// with KindLayoutTooWide only once both levers are exhausted.
func fitEntities(ir *parser.ErIR, cfg config.Config) (erFit, error) {
	fit := measureEntities(ir, erWrapCapLadder[0], erColGutter)
	if !cfg.HasMaxWidth() || fit.canvasW <= cfg.MaxWidthOr(fit.canvasW) {
		return fit, nil
	}

	for _, wrapCap := range erWrapCapLadder[1:] {
		fit = measureEntities(ir, wrapCap, erColGutter)
		if fit.canvasW <= cfg.MaxWidthOr(fit.canvasW) {
			return fit, nil
		}
	}

	narrowest := erWrapCapLadder[len(erWrapCapLadder)-1]
	for gutter := erColGutter - 1; gutter >= erMinGutter; gutter-- {
		fit = measureEntities(ir, narrowest, gutter)
		if fit.canvasW <= cfg.MaxWidthOr(fit.canvasW) {
			return fit, nil
		}
	}

	return erFit{}, ma.LayoutTooWidef(
		"ER diagram requires %d columns but the configured maximum is %d", fit.canvasW, cfg.MaxWidthOr(0))
}

// LayoutER packs every entity into a single row of boxes (header, name,
// one row per attribute), then routes each relationship as a single
// inline connector directly between the two adjacent entity boxes it
// names, carrying its cardinality glyphs flush against each box and its
// label at the connector's midpoint, e.g. `||──places──o{` (§4.4).
func LayoutER(ir *parser.ErIR, cfg config.Config) (*raster.Grid, error) {
	if len(ir.Entities) == 0 {
		return raster.NewGrid(0, 0, cfg.GlyphSet), nil
	}

	fit, err := fitEntities(ir, cfg)
	if err != nil {
		return nil, err
	}

	rows := make(map[string]int, len(ir.Relationships))
	maxRow := 1
	for _, r := range ir.Relationships {
		row := assignRelationshipRow(r, rows)
		if row > maxRow {
			maxRow = row
		}
	}
	canvasH := fit.maxEntityHeight
	if maxRow+2 > canvasH {
		canvasH = maxRow + 2
	}

	g := raster.NewGrid(fit.canvasW, canvasH, cfg.GlyphSet)
	for _, e := range ir.Entities {
		drawEntityBox(g, fit.xOf[e.Name], 0, fit.wOf[e.Name], fit.nameLinesOf[e.Name], e)
	}
	rows = make(map[string]int, len(ir.Relationships))
	for _, r := range ir.Relationships {
		routeRelationship(g, r, fit.xOf, fit.wOf, rows)
	}

	return g, nil
}

// gutterKey identifies the column gap a relationship's connector is
// drawn in, independent of which entity is named Left vs. Right.
func gutterKey(leftName, rightName string) string {
	if leftName > rightName {
		leftName, rightName = rightName, leftName
	}
	return leftName + "\x00" + rightName
}

// assignRelationshipRow reserves the next free row within r's gutter so
// two relationships sharing a pair of adjacent entities don't overlap.
func assignRelationshipRow(r *parser.Relationship, rows map[string]int) int {
	key := gutterKey(r.Left, r.Right)
	row := 1 + rows[key]
	rows[key] = rows[key] + 1
	return row
}

// entityHeightFor returns the box height needed for an entity whose name
// wraps to nameLines lines and which has attrCount attribute rows: top
// and bottom borders, one row per name line, and (when attrCount > 0) a
// separator row plus one row per attribute.
func entityHeightFor(nameLines, attrCount int) int {
	h := 2 + nameLines
	if attrCount > 0 {
		h += 1 + attrCount
	}
	return h
}

func attributeLine(a parser.Attribute) string {
	if a.Key != "" {
		return fmt.Sprintf("%s %s %s", a.Type, a.Name, a.Key)
	}
	return fmt.Sprintf("%s %s", a.Type, a.Name)
}

// drawEntityBox renders one entity's box: its (possibly wrapped) name
// lines, a separator row, and one row per attribute, sized to
// entityHeightFor(len(nameLines), len(e.Attributes)) so wrapping a long
// name never collides with the separator or the attribute rows below it.
func drawEntityBox(g *raster.Grid, x, y, w int, nameLines []string, e *parser.Entity) {
	h := entityHeightFor(len(nameLines), len(e.Attributes))
	g.Box(x, y, w, h, raster.StyleSolid)
	for i, line := range nameLines {
		g.Text(x+1, y+1+i, width.Center(width.Truncate(line, w-2), w-2), raster.PriorityLabel)
	}
	sepRow := y + 1 + len(nameLines)
	if len(e.Attributes) > 0 {
		g.HLine(x+1, x+w-2, sepRow, raster.StyleSolid)
	}
	for i, a := range e.Attributes {
		line := width.Truncate(attributeLine(a), w-2)
		g.Text(x+1, sepRow+1+i, line, raster.PriorityLabel)
	}
}

// routeRelationship draws r as one inline connector in the column gutter
// between its two entities: a horizontal rule (solid or dashed per
// r.Dashed) from one box's right edge to the other's left edge, with
// each end's cardinality glyph flush against its box and the
// relationship label centered on the rule, e.g. `||──places──o{`.
func routeRelationship(g *raster.Grid, r *parser.Relationship, xOf, wOf map[string]int, rows map[string]int) {
	style := raster.StyleSolid
	if r.Dashed {
		style = raster.StyleDotted
	}

	leftName, rightName := r.Left, r.Right
	leftCard, rightCard := cardinalityGlyph[r.LeftCard], cardinalityGlyph[r.RightCard]
	if xOf[leftName] > xOf[rightName] {
		leftName, rightName = rightName, leftName
		leftCard, rightCard = rightCard, leftCard
	}
	leftEdge := xOf[leftName] + wOf[leftName]
	rightEdge := xOf[rightName]
	row := assignRelationshipRow(r, rows)

	if rightEdge <= leftEdge {
		return
	}
	g.HLine(leftEdge, rightEdge-1, row, style)
	g.Text(leftEdge, row, leftCard, raster.PriorityLabel)
	g.Text(rightEdge-width.StringWidth(rightCard), row, rightCard, raster.PriorityLabel)

	if r.Label != "" {
		mid := leftEdge + (rightEdge-leftEdge)/2 - width.StringWidth(r.Label)/2
		g.Text(mid, row, r.Label, raster.PriorityLabel)
	}
}
