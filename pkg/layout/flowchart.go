package layout

import (
	"sort"

	"github.com/mermaid-ascii/ma/pkg/config"
	"github.com/mermaid-ascii/ma/pkg/lexer"
	"github.com/mermaid-ascii/ma/pkg/ma"
	"github.com/mermaid-ascii/ma/pkg/parser"
	"github.com/mermaid-ascii/ma/pkg/raster"
)

const (
	flowColGutter = 4 // min horizontal gap between two node boxes in a row
	flowMinGutter = 1 // floor the gutter is reduced to before giving up (§4.2 width cap)
	flowChannel   = 2 // rows reserved between layer rows for edge routing
	flowSideLane  = 2 // columns right of the layout (TD) or rows below it (LR) reserved for back-edge detours
)

// wrapCapLadder is the sequence of per-node label content widths tried,
// widest (unwrapped) first, when the unwrapped layout exceeds max_width.
// 0 means "no wrap".
var wrapCapLadder = []int{0, 24, 18, 14, 11, 9, 7, 5}

// LayoutFlowchart assigns DAG layers by longest path from sources,
// orders nodes within a layer by barycenter sweep, places node boxes on
// a row-per-layer grid, and routes edges as orthogonal L-shaped paths,
// merging shared spans into bus tees via the rasterizer's line-mask
// logic. Cyclic edges are detected as back-edges and routed around the
// layout's bounding box instead of between layers (§4.2 invariant).
//
// Subgraph members are kept contiguous within the layer they land in and
// a boundary rectangle is drawn around each subgraph's bounding box (§4.2).
//
// When max_width is set and the natural layout is too wide, node labels
// are greedily word-wrapped in progressively narrower steps; if still
// too wide, the inter-column gutter is reduced down to a floor of 1
// before LayoutFlowchart finally fails with LayoutTooWide (§4.2).
func LayoutFlowchart(ir *parser.FlowchartIR, cfg config.Config) (*raster.Grid, error) {
	if len(ir.Nodes) == 0 {
		return raster.NewGrid(0, 0, cfg.GlyphSet), nil
	}

	forward, back := splitBackEdges(ir)
	layerOf := assignLayers(ir, forward)
	layers := groupByLayer(ir, layerOf)
	orderWithinLayers(layers, forward)
	enforceSubgraphContiguity(layers, nodeSubgraphOf(ir))

	if lexer.Reversed(ir.RawDirection) {
		for i, j := 0, len(layers)-1; i < j; i, j = i+1, j-1 {
			layers[i], layers[j] = layers[j], layers[i]
		}
	}

	td := ir.Direction == lexer.DirTD

	fit, err := fitFlowchartLayout(ir, layers, td, cfg)
	if err != nil {
		return nil, err
	}

	canvasW, canvasH := fit.canvasW, fit.canvasH
	if len(ir.Subgraphs) > 0 {
		for id, p := range fit.pos {
			fit.pos[id] = point{p.x + 1, p.y + 1}
		}
		canvasW += 2
		canvasH += 2
	}

	g := raster.NewGrid(canvasW, canvasH, cfg.GlyphSet)
	for _, sg := range ir.Subgraphs {
		drawSubgraphBoundary(g, sg, fit.pos, fit.widths)
	}
	for _, n := range ir.Nodes {
		p := fit.pos[n.ID]
		drawNodeBoxLines(g, p.x, p.y, fit.widths[n.ID], fit.lines[n.ID], n.Shape)
	}
	for _, e := range forward {
		routeForwardEdge(g, e, fit.pos, fit.widths, fit.heights, td)
	}
	for _, e := range back {
		routeBackEdge(g, e, fit.pos, fit.widths, fit.heights, canvasW, canvasH, td)
	}

	return g, nil
}

type point struct{ x, y int }

// flowchartFit is one candidate (wrap cap, gutter) layout attempt's
// result: positions, box footprints, and overall canvas size.
type flowchartFit struct {
	pos              map[string]point
	widths, heights  map[string]int
	lines            map[string][]string
	canvasW, canvasH int
}

// fitFlowchartLayout tries the unwrapped layout first; if max_width is
// exceeded it re-measures with progressively narrower word-wrapped
// labels, and if still too wide, progressively smaller gutters at the
// narrowest wrap, before giving up with LayoutTooWide (§4.2).
func fitFlowchartLayout(ir *parser.FlowchartIR, layers []flowLayer, td bool, cfg config.Config) (flowchartFit, error) {
	measure := func(wrapCap, gutter int) flowchartFit {
		widths := make(map[string]int, len(ir.Nodes))
		heights := make(map[string]int, len(ir.Nodes))
		lines := make(map[string][]string, len(ir.Nodes))
		for _, n := range ir.Nodes {
			ls, w := wrappedBoxWidth(n.Label, wrapCap)
			widths[n.ID] = w
			heights[n.ID] = boxHeightFor(len(ls))
			lines[n.ID] = ls
		}
		pos, canvasW, canvasH := placeNodes(layers, widths, heights, td, gutter)
		return flowchartFit{pos: pos, widths: widths, heights: heights, lines: lines, canvasW: canvasW, canvasH: canvasH}
	}

	fit := measure(0, flowColGutter)
	if !cfg.HasMaxWidth() || fit.canvasW <= cfg.MaxWidthOr(fit.canvasW) {
		return fit, nil
	}

	for _, wrapCap := range wrapCapLadder[1:] {
		fit = measure(wrapCap, flowColGutter)
		if fit.canvasW <= cfg.MaxWidthOr(fit.canvasW) {
			return fit, nil
		}
	}

	narrowestWrap := wrapCapLadder[len(wrapCapLadder)-1]
	for gutter := flowColGutter - 1; gutter >= flowMinGutter; gutter-- {
		fit = measure(narrowestWrap, gutter)
		if fit.canvasW <= cfg.MaxWidthOr(fit.canvasW) {
			return fit, nil
		}
	}

	return flowchartFit{}, ma.LayoutTooWidef(
		"flowchart requires %d columns but the configured maximum is %d", fit.canvasW, cfg.MaxWidthOr(0))
}

// splitBackEdges partitions edges into a DAG-forming forward set and a
// back-edge set, found via DFS tree-edge classification: an edge to a
// node still on the active recursion stack is a back-edge.
func splitBackEdges(ir *parser.FlowchartIR) (forward, back []*parser.Edge) {
	adj := make(map[string][]*parser.Edge)
	for _, e := range ir.Edges {
		adj[e.From] = append(adj[e.From], e)
	}

	state := make(map[string]int) // 0=unvisited, 1=active, 2=done
	var visit func(id string)
	visit = func(id string) {
		state[id] = 1
		for _, e := range adj[id] {
			switch state[e.To] {
			case 1:
				e.Back = true
				back = append(back, e)
			case 0:
				forward = append(forward, e)
				visit(e.To)
			default:
				forward = append(forward, e)
			}
		}
		state[id] = 2
	}
	for _, n := range ir.Nodes {
		if state[n.ID] == 0 {
			visit(n.ID)
		}
	}
	return forward, back
}

// assignLayers computes each node's layer as the longest path in edge
// count from any source (indegree-zero node in the forward DAG).
func assignLayers(ir *parser.FlowchartIR, forward []*parser.Edge) map[string]int {
	indeg := make(map[string]int)
	adj := make(map[string][]string)
	for _, n := range ir.Nodes {
		indeg[n.ID] = 0
	}
	for _, e := range forward {
		indeg[e.To]++
		adj[e.From] = append(adj[e.From], e.To)
	}

	layer := make(map[string]int)
	var queue []string
	for _, n := range ir.Nodes {
		if indeg[n.ID] == 0 {
			queue = append(queue, n.ID)
			layer[n.ID] = 0
		}
	}
	remaining := make(map[string]int, len(indeg))
	for k, v := range indeg {
		remaining[k] = v
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, to := range adj[id] {
			if layer[id]+1 > layer[to] {
				layer[to] = layer[id] + 1
			}
			remaining[to]--
			if remaining[to] == 0 {
				queue = append(queue, to)
			}
		}
	}
	// Any node never reached (pure cycle with no source) defaults to
	// layer 0 alongside its strongly-connected peers.
	return layer
}

type flowLayer struct {
	nodes []*parser.Node
}

func groupByLayer(ir *parser.FlowchartIR, layerOf map[string]int) []flowLayer {
	maxLayer := 0
	for _, n := range ir.Nodes {
		if l := layerOf[n.ID]; l > maxLayer {
			maxLayer = l
		}
	}
	layers := make([]flowLayer, maxLayer+1)
	for _, n := range ir.Nodes {
		l := layerOf[n.ID]
		layers[l].nodes = append(layers[l].nodes, n)
	}
	return layers
}

// orderWithinLayers runs a small fixed number of barycenter sweeps,
// positioning each node at the mean column index of its neighbors in
// the adjacent layer, to reduce edge crossings between layers.
func orderWithinLayers(layers []flowLayer, forward []*parser.Edge) {
	colOf := make(map[string]int)
	for _, l := range layers {
		for i, n := range l.nodes {
			colOf[n.ID] = i
		}
	}
	neighborsDown := make(map[string][]string)
	neighborsUp := make(map[string][]string)
	for _, e := range forward {
		neighborsDown[e.From] = append(neighborsDown[e.From], e.To)
		neighborsUp[e.To] = append(neighborsUp[e.To], e.From)
	}

	const sweeps = 4
	for pass := 0; pass < sweeps; pass++ {
		downward := pass%2 == 0
		if downward {
			for li := 1; li < len(layers); li++ {
				sortByBarycenter(layers[li].nodes, colOf, neighborsUp)
				for i, n := range layers[li].nodes {
					colOf[n.ID] = i
				}
			}
		} else {
			for li := len(layers) - 2; li >= 0; li-- {
				sortByBarycenter(layers[li].nodes, colOf, neighborsDown)
				for i, n := range layers[li].nodes {
					colOf[n.ID] = i
				}
			}
		}
	}
}

func sortByBarycenter(nodes []*parser.Node, colOf map[string]int, neighbors map[string][]string) {
	bary := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		ns := neighbors[n.ID]
		if len(ns) == 0 {
			bary[n.ID] = float64(colOf[n.ID])
			continue
		}
		sum := 0
		for _, id := range ns {
			sum += colOf[id]
		}
		bary[n.ID] = float64(sum) / float64(len(ns))
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return bary[nodes[i].ID] < bary[nodes[j].ID]
	})
}

// nodeSubgraphOf maps every node id to the id of its innermost enclosing
// subgraph, walking the subgraph forest's Members lists recursively.
func nodeSubgraphOf(ir *parser.FlowchartIR) map[string]string {
	group := make(map[string]string)
	var walk func(sg *parser.Subgraph)
	walk = func(sg *parser.Subgraph) {
		for _, id := range sg.Members {
			if _, ok := group[id]; !ok {
				group[id] = sg.ID
			}
		}
		for _, c := range sg.Children {
			walk(c)
		}
	}
	for _, sg := range ir.Subgraphs {
		walk(sg)
	}
	return group
}

// enforceSubgraphContiguity stable-sorts each layer so that every
// subgraph's members occupy a contiguous run of columns, preserving the
// barycenter pass's relative ordering between groups (§4.2: subgraph
// members form a contiguous ordering window).
func enforceSubgraphContiguity(layers []flowLayer, group map[string]string) {
	if len(group) == 0 {
		return
	}
	for li := range layers {
		nodes := layers[li].nodes
		keyOf := func(n *parser.Node) string {
			if g, ok := group[n.ID]; ok {
				return g
			}
			return "\x00" + n.ID // ungrouped nodes keep their own slot
		}
		firstPos := make(map[string]int, len(nodes))
		for i, n := range nodes {
			k := keyOf(n)
			if _, ok := firstPos[k]; !ok {
				firstPos[k] = i
			}
		}
		sort.SliceStable(nodes, func(i, j int) bool {
			return firstPos[keyOf(nodes[i])] < firstPos[keyOf(nodes[j])]
		})
	}
}

// gatherMembers recursively collects every node id directly or
// transitively a member of sg (including its nested subgraphs).
func gatherMembers(sg *parser.Subgraph) []string {
	ids := append([]string{}, sg.Members...)
	for _, c := range sg.Children {
		ids = append(ids, gatherMembers(c)...)
	}
	return ids
}

// drawSubgraphBoundary draws a boundary rectangle around the bounding box
// of sg's member node boxes, with sg's label overlaid on the top border,
// then recurses into nested subgraphs (§4.2).
func drawSubgraphBoundary(g *raster.Grid, sg *parser.Subgraph, pos map[string]point, widths map[string]int) {
	ids := gatherMembers(sg)
	found := false
	var minX, minY, maxX, maxY int
	for _, id := range ids {
		p, ok := pos[id]
		if !ok {
			continue
		}
		w := widths[id]
		if !found || p.x < minX {
			minX = p.x
		}
		if !found || p.y < minY {
			minY = p.y
		}
		if !found || p.x+w > maxX {
			maxX = p.x + w
		}
		if !found || p.y+boxHeight > maxY {
			maxY = p.y + boxHeight
		}
		found = true
	}
	if !found {
		return
	}

	bx, by := minX-1, minY-1
	bw, bh := maxX-minX+2, maxY-minY+2
	if bx < 0 {
		bx = 0
	}
	if by < 0 {
		by = 0
	}
	g.Box(bx, by, bw, bh, raster.StyleSolid)
	if sg.Display != "" {
		g.Text(bx+2, by, " "+sg.Display+" ", raster.PriorityLabel)
	}
	for _, c := range sg.Children {
		drawSubgraphBoundary(g, c, pos, widths)
	}
}

// placeNodes assigns pixel coordinates: for TD, layers stack as rows and
// nodes spread across columns; for LR, layers become columns and nodes
// spread across rows. Row/column thickness is each layer's tallest node
// (TD) or widest node (LR), honoring per-node heights from word-wrapped
// labels. Returns node positions and overall canvas size.
func placeNodes(layers []flowLayer, widths, heights map[string]int, td bool, gutter int) (map[string]point, int, int) {
	pos := make(map[string]point)

	if td {
		y := 0
		maxRowWidth := 0
		for _, l := range layers {
			x := 0
			rowHeight := boxHeight
			for _, n := range l.nodes {
				pos[n.ID] = point{x, y}
				x += widths[n.ID] + gutter
				if heights[n.ID] > rowHeight {
					rowHeight = heights[n.ID]
				}
			}
			if x > maxRowWidth {
				maxRowWidth = x
			}
			y += rowHeight + flowChannel
		}
		canvasW := maxRowWidth - gutter
		if canvasW < 1 {
			canvasW = 1
		}
		canvasH := y - flowChannel
		return pos, canvasW + flowSideLane, canvasH
	}

	x := 0
	maxColHeight := 0
	laneWidths := make([]int, len(layers))
	for li, l := range layers {
		lw := 0
		for _, n := range l.nodes {
			if widths[n.ID] > lw {
				lw = widths[n.ID]
			}
		}
		laneWidths[li] = lw
	}
	for li, l := range layers {
		y := 0
		for _, n := range l.nodes {
			pos[n.ID] = point{x, y}
			y += heights[n.ID] + flowChannel
		}
		if y > maxColHeight {
			maxColHeight = y
		}
		x += laneWidths[li] + gutter
	}
	canvasH := maxColHeight - flowChannel
	if canvasH < 1 {
		canvasH = 1
	}
	canvasW := x - gutter
	return pos, canvasW, canvasH + flowSideLane
}

// routeForwardEdge draws an L-shaped path from the bottom (or right, for
// LR) center of the source box to the top (or left) center of the
// target box, through a mid-channel row/column shared by all edges
// crossing the same gap, so parallel edges collapse into bus tees.
func routeForwardEdge(g *raster.Grid, e *parser.Edge, pos map[string]point, widths, heights map[string]int, td bool) {
	style := lineStyle(e.Style)
	fp, tp := pos[e.From], pos[e.To]

	if td {
		fromX := fp.x + widths[e.From]/2
		toX := tp.x + widths[e.To]/2
		fromY := fp.y + heights[e.From] - 1
		toY := tp.y
		midY := fromY + (toY-fromY)/2
		if midY == fromY {
			midY = fromY + 1
		}
		g.VLine(fromX, fromY, midY, style)
		g.HLine(fromX, toX, midY, style)
		g.VLine(toX, midY, toY, style)
		if e.Label != "" {
			g.Text(minInt(fromX, toX)+1, midY-1, e.Label, raster.PriorityLabel)
		}
		if e.Head == parser.HeadArrow {
			g.Arrowhead(toX, toY, raster.South, raster.ArrowFilled)
		}
		return
	}

	fromY := fp.y + heights[e.From]/2
	toY := tp.y + heights[e.To]/2
	fromX := fp.x + widths[e.From] - 1
	toX := tp.x
	midX := fromX + (toX-fromX)/2
	if midX == fromX {
		midX = fromX + 1
	}
	g.HLine(fromX, midX, fromY, style)
	g.VLine(midX, fromY, toY, style)
	g.HLine(midX, toX, toY, style)
	if e.Label != "" {
		g.Text(midX+1, minInt(fromY, toY), e.Label, raster.PriorityLabel)
	}
	if e.Head == parser.HeadArrow {
		g.Arrowhead(toX, toY, raster.East, raster.ArrowFilled)
	}
}

// routeBackEdge draws a back-edge around the bounding box of the nodes
// it connects, via a side lane, rather than attempting to route it
// through the forward layer channels.
func routeBackEdge(g *raster.Grid, e *parser.Edge, pos map[string]point, widths, heights map[string]int, canvasW, canvasH int, td bool) {
	style := lineStyle(e.Style)
	fp, tp := pos[e.From], pos[e.To]
	laneX := canvasW - 1

	if td {
		fromY := fp.y + heights[e.From]/2
		toY := tp.y + heights[e.To]/2
		fromX := fp.x + widths[e.From] - 1
		toX := tp.x + widths[e.To] - 1
		g.HLine(fromX, laneX, fromY, style)
		g.VLine(laneX, minInt(fromY, toY), maxInt(fromY, toY), style)
		g.HLine(toX, laneX, toY, style)
		if e.Head == parser.HeadArrow {
			g.Arrowhead(toX, toY, raster.West, raster.ArrowFilled)
		}
		return
	}

	fromX := fp.x + widths[e.From]/2
	toX := tp.x + widths[e.To]/2
	laneY := canvasH - 1
	fromY := fp.y + heights[e.From] - 1
	toY := tp.y + heights[e.To] - 1
	g.VLine(fromX, fromY, laneY, style)
	g.HLine(minInt(fromX, toX), maxInt(fromX, toX), laneY, style)
	g.VLine(toX, toY, laneY, style)
	if e.Head == parser.HeadArrow {
		g.Arrowhead(toX, toY, raster.North, raster.ArrowFilled)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
