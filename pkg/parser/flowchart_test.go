package parser

import (
	"testing"

	"github.com/mermaid-ascii/ma/pkg/lexer"
)

func mustLex(t *testing.T, source string) *lexer.Result {
	t.Helper()
	r, err := lexer.Lex(source)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	return r
}

func TestParseFlowchartBasicChain(t *testing.T) {
	ir, err := ParseFlowchart(mustLex(t, "graph LR\nA --> B --> C"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ir.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(ir.Nodes))
	}
	if len(ir.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(ir.Edges))
	}
	if ir.Edges[0].From != "A" || ir.Edges[0].To != "B" {
		t.Errorf("edge 0 = %+v", ir.Edges[0])
	}
	if ir.Edges[1].From != "B" || ir.Edges[1].To != "C" {
		t.Errorf("edge 1 = %+v", ir.Edges[1])
	}
}

func TestParseFlowchartShapesAndLabels(t *testing.T) {
	source := `graph TD
A[Rect] --> B(Round)
B --> C{Diamond}
C --> D((Circle))
D --> E(((DoubleCircle)))
E --> F([Stadium])
F --> G[[Subroutine]]
G --> H[(Cylinder)]
H --> I{{Hexagon}}
I --> J[/Parallelogram/]
J --> K[\AltParallelogram\]
K --> L[/Trapezoid\]
`
	ir, err := ParseFlowchart(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]struct {
		label string
		shape Shape
	}{
		"A": {"Rect", ShapeRect},
		"B": {"Round", ShapeRound},
		"C": {"Diamond", ShapeDiamond},
		"D": {"Circle", ShapeCircle},
		"E": {"DoubleCircle", ShapeDoubleCircle},
		"F": {"Stadium", ShapeStadium},
		"G": {"Subroutine", ShapeSubroutine},
		"H": {"Cylinder", ShapeCylinder},
		"I": {"Hexagon", ShapeHexagon},
		"J": {"Parallelogram", ShapeParallelogram},
		"K": {"AltParallelogram", ShapeParallelogram},
		"L": {"Trapezoid", ShapeTrapezoid},
	}
	for id, w := range want {
		n, ok := ir.NodeIndex[id]
		if !ok {
			t.Errorf("node %s not found", id)
			continue
		}
		if n.Label != w.label || n.Shape != w.shape {
			t.Errorf("node %s = {%q, %q}, want {%q, %q}", id, n.Label, n.Shape, w.label, w.shape)
		}
	}
}

func TestParseFlowchartMultiTarget(t *testing.T) {
	ir, err := ParseFlowchart(mustLex(t, "graph TD\nA --> B & C & D"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ir.Edges) != 3 {
		t.Fatalf("expected 3 edges from multi-target sugar, got %d", len(ir.Edges))
	}
	targets := map[string]bool{}
	for _, e := range ir.Edges {
		if e.From != "A" {
			t.Errorf("edge from = %q, want A", e.From)
		}
		targets[e.To] = true
	}
	for _, want := range []string{"B", "C", "D"} {
		if !targets[want] {
			t.Errorf("missing edge to %s", want)
		}
	}
}

func TestParseFlowchartEdgeLabels(t *testing.T) {
	ir, err := ParseFlowchart(mustLex(t, "graph TD\nA{Decision} -->|Yes| B[Action]\nA -->|No| C(Skip)"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ir.Edges[0].Label != "Yes" || ir.Edges[1].Label != "No" {
		t.Errorf("labels = %q, %q", ir.Edges[0].Label, ir.Edges[1].Label)
	}
}

func TestParseFlowchartInlineLabel(t *testing.T) {
	ir, err := ParseFlowchart(mustLex(t, "graph TD\nA -- hello --> B"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ir.Edges) != 1 || ir.Edges[0].Label != "hello" {
		t.Fatalf("edges = %+v", ir.Edges)
	}
}

func TestParseFlowchartEdgeStyles(t *testing.T) {
	ir, err := ParseFlowchart(mustLex(t, "graph TD\nA --> B\nC --- D\nE -.-> F\nG -.- H\nI ==> J\nK === L"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		style EdgeStyle
		head  ArrowHead
	}{
		{EdgeSolid, HeadArrow},
		{EdgeSolid, HeadNone},
		{EdgeDotted, HeadArrow},
		{EdgeDotted, HeadNone},
		{EdgeThick, HeadArrow},
		{EdgeThick, HeadNone},
	}
	if len(ir.Edges) != len(want) {
		t.Fatalf("got %d edges, want %d", len(ir.Edges), len(want))
	}
	for i, w := range want {
		if ir.Edges[i].Style != w.style || ir.Edges[i].Head != w.head {
			t.Errorf("edge %d = {%q,%q}, want {%q,%q}", i, ir.Edges[i].Style, ir.Edges[i].Head, w.style, w.head)
		}
	}
}

func TestParseFlowchartSubgraph(t *testing.T) {
	source := `graph TD
subgraph sub1 [My Group]
A --> B
end
A --> C
`
	ir, err := ParseFlowchart(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ir.Subgraphs) != 1 {
		t.Fatalf("expected 1 subgraph, got %d", len(ir.Subgraphs))
	}
	sg := ir.Subgraphs[0]
	if sg.ID != "sub1" || sg.Display != "My Group" {
		t.Errorf("subgraph = %+v", sg)
	}
	if len(sg.Members) != 2 {
		t.Errorf("subgraph members = %v, want [A B]", sg.Members)
	}
}

func TestParseFlowchartNestedSubgraph(t *testing.T) {
	source := `graph TD
subgraph outer
A --> B
subgraph inner
B --> C
end
end
`
	ir, err := ParseFlowchart(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ir.Subgraphs) != 1 {
		t.Fatalf("expected 1 top-level subgraph, got %d", len(ir.Subgraphs))
	}
	if len(ir.Subgraphs[0].Children) != 1 {
		t.Fatalf("expected 1 nested subgraph, got %d", len(ir.Subgraphs[0].Children))
	}
}

func TestParseFlowchartUnterminatedSubgraph(t *testing.T) {
	_, err := ParseFlowchart(mustLex(t, "graph TD\nsubgraph sub1\nA --> B"))
	if err == nil {
		t.Fatal("expected error for unterminated subgraph")
	}
}

func TestParseFlowchartUnmatchedEnd(t *testing.T) {
	_, err := ParseFlowchart(mustLex(t, "graph TD\nA --> B\nend"))
	if err == nil {
		t.Fatal("expected error for unmatched end")
	}
}

func TestParseFlowchartStyleDirectivesIgnored(t *testing.T) {
	source := "graph TD\nA --> B\nstyle A fill:#f9f\nclassDef foo fill:#fff\nclick A callback\n"
	ir, err := ParseFlowchart(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ir.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(ir.Nodes))
	}
}
