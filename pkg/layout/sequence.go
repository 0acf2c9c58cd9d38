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
	seqLifelineGutter = 6
	seqMinGutter      = 1
	seqNoteHeight     = 3
	seqActivationPad  = 1
)

// seqWrapCapLadder is tried, widest first, when the unwrapped layout
// exceeds the configured maximum width (§4.2).
var seqWrapCapLadder = []int{0, 24, 18, 14, 11, 9, 7, 5}

// LayoutSequence places one lifeline column per participant in
// declaration/first-appearance order, assigns rows to events in source
// order (two per message, three per note, one per block divider or
// destroy), and rasterizes headers, lifelines, activation bars,
// messages, notes, and block regions (§4.3).
func LayoutSequence(ir *parser.SequenceIR, cfg config.Config) (*raster.Grid, error) {
	if len(ir.Participants) == 0 {
		return raster.NewGrid(0, 0, cfg.GlyphSet), nil
	}

	fit, err := fitSequenceParticipants(ir, cfg)
	if err != nil {
		return nil, err
	}
	xOf, widthOf := fit.xOf, fit.widthOf
	canvasW := fit.canvasW
	rowOf, totalRows := scheduleSequenceRows(ir, fit.headerH)
	canvasH := totalRows

	g := raster.NewGrid(canvasW, canvasH, cfg.GlyphSet)

	drawLifelines(g, ir, fit, rowOf, canvasH)
	drawActivationBars(g, ir, xOf, rowOf)

	var blocks []blockSpan
	autonumberOn := cfg.AutonumberDefault
	number, step := 0, 1
	for i, e := range ir.Events {
		y := rowOf[i]
		switch e.Kind {
		case parser.EventMessage:
			label := e.Label
			if autonumberOn {
				number += step
				label = fmt.Sprintf("%d: %s", number, label)
			}
			drawMessage(g, xOf, e, y, label)
		case parser.EventNote:
			drawNote(g, xOf, widthOf, e, y)
		case parser.EventBlockStart:
			margin := blockMargin(len(blocks), canvasW)
			blocks = append(blocks, blockSpan{start: y, margin: margin})
			drawBlockDivider(g, margin, canvasW-1-margin, y, "["+string(e.BlockKind)+blockLabelSuffix(e.BlockLabel))
		case parser.EventBlockBranch:
			if n := len(blocks); n > 0 {
				top := blocks[n-1]
				drawBlockDivider(g, top.margin, canvasW-1-top.margin, y, "["+string(e.BranchKind)+blockLabelSuffix(e.BlockLabel))
			}
		case parser.EventBlockEnd:
			if n := len(blocks); n > 0 {
				top := blocks[n-1]
				blocks = blocks[:n-1]
				drawBlockDivider(g, top.margin, canvasW-1-top.margin, y, "[end]")
				g.VLine(top.margin, top.start, y, raster.StyleDotted)
				g.VLine(canvasW-1-top.margin, top.start, y, raster.StyleDotted)
			}
		case parser.EventDestroy:
			g.Put(xOf[e.Participant], y, '✗', raster.PriorityLabel)
		case parser.EventAutonumberOn:
			autonumberOn = true
			number = e.AutonumberStart - e.AutonumberStep
			step = e.AutonumberStep
		case parser.EventAutonumberOff:
			autonumberOn = false
		}
	}

	return g, nil
}

func blockLabelSuffix(label string) string {
	if label == "" {
		return "]"
	}
	return " " + label + "]"
}

// sequenceFit is the outcome of fitting every participant header to the
// configured maximum width: each one's lifeline column, box width, and
// wrapped label lines, plus the shared header height and canvas width.
type sequenceFit struct {
	xOf, widthOf map[string]int
	linesOf      map[string][]string
	headerH      int
	canvasW      int
}

// measureParticipants lays out one column per participant, wrapping each
// header's label to at most wrapCap display columns (0 = unwrapped) and
// spacing columns by gutter, returning the fitted layout. The canvas is
// widened so every self-message label fits to the right of its lifeline.
func measureParticipants(ir *parser.SequenceIR, wrapCap, gutter int) sequenceFit {
	xOf := make(map[string]int, len(ir.Participants))
	widthOf := make(map[string]int, len(ir.Participants))
	linesOf := make(map[string][]string, len(ir.Participants))
	headerH := boxHeightFor(1)
	x := 0
	for _, p := range ir.Participants {
		lines, w := wrappedBoxWidth(p.Display, wrapCap)
		linesOf[p.ID] = lines
		widthOf[p.ID] = w
		xOf[p.ID] = x + w/2
		x += w + gutter
		if h := boxHeightFor(len(lines)); h > headerH {
			headerH = h
		}
	}
	canvasW := x - gutter + 1
	if canvasW < 1 {
		canvasW = 1
	}
	for _, e := range ir.Events {
		if e.Kind == parser.EventMessage && e.From == e.To {
			if need := xOf[e.From] + 1 + width.StringWidth(e.Label); need > canvasW {
				canvasW = need
			}
		}
	}
	return sequenceFit{xOf: xOf, widthOf: widthOf, linesOf: linesOf, headerH: headerH, canvasW: canvasW}
}

// fitSequenceParticipants finds a participant layout that fits within
// cfg's configured maximum width, first trying progressively narrower
// header-label wrapping at the default gutter, then progressively
// smaller gutters at the narrowest wrap, per the width-cap mitigation
// order of §4.2. It fails with KindLayoutTooWide only once both levers
// are exhausted.
func fitSequenceParticipants(ir *parser.SequenceIR, cfg config.Config) (sequenceFit, error) {
	fit := measureParticipants(ir, seqWrapCapLadder[0], seqLifelineGutter)
	if !cfg.HasMaxWidth() || fit.canvasW <= cfg.MaxWidthOr(fit.canvasW) {
		return fit, nil
	}

	for _, wrapCap := range seqWrapCapLadder[1:] {
		fit = measureParticipants(ir, wrapCap, seqLifelineGutter)
		if fit.canvasW <= cfg.MaxWidthOr(fit.canvasW) {
			return fit, nil
		}
	}

	narrowest := seqWrapCapLadder[len(seqWrapCapLadder)-1]
	for gutter := seqLifelineGutter - 1; gutter >= seqMinGutter; gutter-- {
		fit = measureParticipants(ir, narrowest, gutter)
		if fit.canvasW <= cfg.MaxWidthOr(fit.canvasW) {
			return fit, nil
		}
	}

	return sequenceFit{}, ma.LayoutTooWidef(
		"sequence diagram requires %d columns but the configured maximum is %d", fit.canvasW, cfg.MaxWidthOr(0))
}

// scheduleSequenceRows assigns a grid row to every event, reserving
// extra rows for notes, self-message loops, a label row above each
// message arrow, and the participant header (sized headerH tall to hold
// its tallest wrapped label).
func scheduleSequenceRows(ir *parser.SequenceIR, headerH int) ([]int, int) {
	rowOf := make([]int, len(ir.Events))
	y := headerH
	for i, e := range ir.Events {
		rowOf[i] = y
		switch e.Kind {
		case parser.EventMessage:
			if e.From == e.To {
				y += 2
			} else {
				rowOf[i] = y + 1 // label on row y, arrow on row y+1
				y += 2
			}
		case parser.EventNote:
			y += seqNoteHeight
		case parser.EventBlockStart, parser.EventBlockBranch, parser.EventBlockEnd:
			y++
		case parser.EventDestroy:
			y++
		}
	}
	return rowOf, y
}

// drawLifelines draws each participant's (possibly wrapped) header box
// and its vertical dotted lifeline, truncated to the rows between its
// create and destroy events when those are present (§4.3 create/destroy
// invariant).
func drawLifelines(g *raster.Grid, ir *parser.SequenceIR, fit sequenceFit, rowOf []int, canvasH int) {
	for _, p := range ir.Participants {
		x, w := fit.xOf[p.ID], fit.widthOf[p.ID]
		drawNodeBoxLines(g, x-w/2, 0, w, fit.linesOf[p.ID], parser.ShapeRect)

		bottom := canvasH - 1
		if p.DestroyedAt >= 0 && p.DestroyedAt < len(rowOf) {
			bottom = rowOf[p.DestroyedAt]
		}
		top := fit.headerH
		if p.CreatedAt >= 0 && p.CreatedAt < len(rowOf) {
			top = rowOf[p.CreatedAt]
		}
		if bottom > top {
			g.VLine(x, top, bottom, raster.StyleDotted)
		}
	}
}

// drawActivationBars renders activation spans as a 3-column-wide solid
// box over the lifeline, offset one column per nesting depth so nested
// activations remain visually distinguishable.
func drawActivationBars(g *raster.Grid, ir *parser.SequenceIR, xOf map[string]int, rowOf []int) {
	type span struct{ start, depth int }
	stacks := make(map[string][]span)

	open := func(id string, row int) {
		stacks[id] = append(stacks[id], span{start: row, depth: len(stacks[id])})
	}
	closeAt := func(id string, row int) {
		s := stacks[id]
		if len(s) == 0 {
			return
		}
		top := s[len(s)-1]
		stacks[id] = s[:len(s)-1]
		x := xOf[id] + top.depth
		g.Box(x-1, top.start, 3, row-top.start+1, raster.StyleSolid)
	}

	for i, e := range ir.Events {
		row := rowOf[i]
		switch e.Kind {
		case parser.EventActivate:
			open(e.Participant, row)
		case parser.EventDeactivate:
			closeAt(e.Participant, row)
		case parser.EventMessage:
			if e.Activate {
				open(e.To, row)
			}
			if e.Deactivate {
				closeAt(e.From, row)
			}
		}
	}
}

func drawMessage(g *raster.Grid, xOf map[string]int, e parser.Event, y int, label string) {
	style := raster.StyleSolid
	if e.MsgStyle == parser.ArrowDotted {
		style = raster.StyleDotted
	}

	from, to := xOf[e.From], xOf[e.To]
	if e.From == e.To {
		loopX := from + seqLifelineGutter/2
		g.HLine(from, loopX, y, style)
		g.VLine(loopX, y, y+1, style)
		g.HLine(from, loopX, y+1, style)
		g.Text(from+1, y, label, raster.PriorityLabel)
		drawMessageHead(g, from, y+1, raster.West, e.MsgHead)
		return
	}

	g.HLine(minInt(from, to), maxInt(from, to), y, style)
	mid := minInt(from, to) + 1
	g.Text(mid, y-1, label, raster.PriorityLabel)
	if to > from {
		drawMessageHead(g, to, y, raster.East, e.MsgHead)
	} else {
		drawMessageHead(g, to, y, raster.West, e.MsgHead)
	}
}

func drawMessageHead(g *raster.Grid, x, y int, dir raster.Dir, head parser.MessageHead) {
	kind := raster.ArrowFilled
	switch head {
	case parser.MsgHeadCross:
		kind = raster.ArrowCross
	case parser.MsgHeadOpen:
		kind = raster.ArrowOpen
	}
	g.Arrowhead(x, y, dir, kind)
}

func drawNote(g *raster.Grid, xOf, widthOf map[string]int, e parser.Event, y int) {
	var left, right int
	switch e.NotePlacement {
	case parser.NoteLeftOf:
		p := e.NoteParticipants[0]
		right = xOf[p] - widthOf[p]/2 - 1
		left = right - boxWidth(e.NoteText)
	case parser.NoteRightOf:
		p := e.NoteParticipants[0]
		left = xOf[p] + widthOf[p]/2 + 1
		right = left + boxWidth(e.NoteText)
	default: // NoteOver
		first, last := e.NoteParticipants[0], e.NoteParticipants[len(e.NoteParticipants)-1]
		left = xOf[first] - boxWidth(e.NoteText)/2
		right = xOf[last] + boxWidth(e.NoteText)/2
	}
	if left < 0 {
		left = 0
	}
	w := right - left
	if w < minBoxSize {
		w = minBoxSize
	}
	g.Box(left, y, w, seqNoteHeight, raster.StyleSolid)
	g.Text(left+1, y+1, width.Center(width.Truncate(e.NoteText, w-2), w-2), raster.PriorityLabel)
}

// blockSpan tracks an open block's start row and side-column inset so its
// enclosing border can be completed once the matching end row is known.
type blockSpan struct {
	start  int
	margin int
}

// blockMargin insets each nested block by 2 columns per nesting depth so
// sibling and parent block borders stay visually distinguishable, never
// insetting past the canvas midpoint.
func blockMargin(depth, canvasW int) int {
	m := depth * 2
	if max := canvasW/2 - 1; m > max {
		m = max
	}
	if m < 0 {
		m = 0
	}
	return m
}

// drawBlockDivider draws one dashed separator (block start, a branch such
// as else/and, or end) spanning [left, right] at row y, labeled in its
// top-left corner. The block's left/right vertical sides are drawn
// separately once its end row is known, so together they fully enclose
// every event between start and end (§4.3).
func drawBlockDivider(g *raster.Grid, left, right, y int, label string) {
	g.HLine(left, right, y, raster.StyleDotted)
	g.Text(left+1, y, label, raster.PriorityLabel)
}
