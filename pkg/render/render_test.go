package render

import (
	"strings"
	"testing"

	"github.com/mermaid-ascii/ma/pkg/config"
	"github.com/mermaid-ascii/ma/pkg/ma"
)

func TestRenderFlowchartBasicChain(t *testing.T) {
	out, err := Render("graph LR\nA --> B --> C", config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"A", "B", "C"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderIsRectangular(t *testing.T) {
	out, err := Render("graph TD\nA{Decision} -->|Yes| B[Action]\nA -->|No| C(Skip)", config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(out, "\n")
	width := -1
	for _, l := range lines {
		n := len([]rune(l))
		if width == -1 {
			width = n
		} else if n != width {
			t.Errorf("line %q has %d runes, want %d", l, n, width)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	source := "sequenceDiagram\nAlice->>Bob: Hello\nBob-->>Alice: Hi there"
	a, err := Render(source, config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Render(source, config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("render is not deterministic:\n%s\n---\n%s", a, b)
	}
}

func TestRenderSequenceExample(t *testing.T) {
	source := "sequenceDiagram\nAlice->>Bob: Hello\nBob-->>Alice: Hi there"
	out, err := Render(source, config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Alice", "Bob", "Hello", "Hi there"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderERExample(t *testing.T) {
	source := "erDiagram\nCUSTOMER ||--o{ ORDER : places\nORDER ||--|{ LINE_ITEM : contains"
	out, err := Render(source, config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"CUSTOMER", "ORDER", "LINE_ITEM"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderWidthCapTooNarrow(t *testing.T) {
	cfg, err := config.Default().WithMaxWidth(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = Render("graph LR\nAAAAAAAAAA --> BBBBBBBBBB", cfg)
	if err == nil {
		t.Fatal("expected layout-too-wide error")
	}
	var merr *ma.Error
	if e, ok := err.(*ma.Error); ok {
		merr = e
	}
	if merr == nil || merr.Kind != ma.KindLayoutTooWide {
		t.Errorf("error = %v, want KindLayoutTooWide", err)
	}
}

func TestRenderParseErrorPropagates(t *testing.T) {
	_, err := Render("not a real diagram", config.Default())
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRenderSelfMessage(t *testing.T) {
	out, err := Render("sequenceDiagram\nparticipant A\nA->>A: loop", config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "loop") {
		t.Errorf("output missing self-message label:\n%s", out)
	}
}

func TestRenderASCIIGlyphSetHasNoUnicode(t *testing.T) {
	cfg, err := config.Default().WithGlyphSet(string(config.GlyphSetASCII))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := Render("graph LR\nA --> B", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range out {
		if r > 127 && r != '\n' {
			t.Errorf("ascii glyph set produced non-ascii rune %q in:\n%s", r, out)
		}
	}
}

func TestRenderIdempotentOnRerender(t *testing.T) {
	source := "graph TD\nA --> B\nB --> C\nC --> A"
	first, err := Render(source, config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Render(source, config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("re-rendering identical source produced different output")
	}
}
