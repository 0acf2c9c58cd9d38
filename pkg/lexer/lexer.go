// Package lexer splits Mermaid source into comment-stripped, blank-free
// lines and classifies the diagram kind by sniffing a keyword off the
// first non-blank line, as its own pipeline stage so the per-kind
// parsers in pkg/parser start from a clean line stream.
package lexer

import (
	"strings"

	"github.com/mermaid-ascii/ma/pkg/ma"
)

// Kind identifies which of the three supported diagram families a
// source belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindSequence
	KindFlowchart
	KindER
)

func (k Kind) String() string {
	switch k {
	case KindSequence:
		return "sequenceDiagram"
	case KindFlowchart:
		return "flowchart"
	case KindER:
		return "erDiagram"
	default:
		return "unknown"
	}
}

// Line is one logical, comment-stripped, non-blank source line, tagged
// with its 1-based line number in the original input.
type Line struct {
	Number int
	Text   string
}

// FlowDirection is the flowchart/graph direction token that may follow
// the diagram keyword, normalized per §9's RL/BT mapping.
type FlowDirection string

const (
	DirTD FlowDirection = "TD"
	DirLR FlowDirection = "LR"
)

// Result is the output of lexing: diagram kind, flowchart direction (if
// applicable), and the stripped line stream.
type Result struct {
	Kind Kind
	// Direction is the native direction layout should use.
	Direction FlowDirection
	// RawDirection is the original token before RL/BT normalization,
	// e.g. "RL" or "BT", so layout can mirror layer order (§9).
	RawDirection string
	Lines        []Line
}

// Lex strips comments and blank lines from source, then classifies the
// diagram kind and (for flowcharts) direction from the first remaining
// line.
func Lex(source string) (*Result, error) {
	raw := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")

	var lines []Line
	for i, l := range raw {
		stripped := stripComment(l)
		if strings.TrimSpace(stripped) == "" {
			continue
		}
		lines = append(lines, Line{Number: i + 1, Text: stripped})
	}

	if len(lines) == 0 {
		return nil, ma.ParseErrorf(1, 1, "empty-input", "input contains no diagram content")
	}

	first := strings.TrimSpace(lines[0].Text)
	fields := strings.Fields(first)
	keyword := fields[0]

	res := &Result{Lines: lines[1:]}

	switch {
	case strings.EqualFold(keyword, "sequenceDiagram"):
		res.Kind = KindSequence
	case strings.EqualFold(keyword, "erDiagram"):
		res.Kind = KindER
	case strings.EqualFold(keyword, "graph"), strings.EqualFold(keyword, "flowchart"):
		res.Kind = KindFlowchart
		dir := "TD"
		if len(fields) > 1 {
			dir = strings.ToUpper(fields[1])
		}
		normalized, err := normalizeDirection(dir, lines[0].Number)
		if err != nil {
			return nil, err
		}
		res.Direction = normalized
		res.RawDirection = dir
	default:
		return nil, ma.ParseErrorf(lines[0].Number, 1, "unexpected-token",
			"unrecognized diagram keyword %q; expected sequenceDiagram, graph, flowchart, or erDiagram", keyword)
	}

	return res, nil
}

// normalizeDirection maps the six Mermaid direction tokens onto the two
// this renderer lays out natively, per the open question in §9: RL is
// treated as a mirrored LR, BT as a mirrored TD. The mirroring itself is
// applied by the flowchart layout stage, which reverses layer order when
// the source direction was RL/BT; the lexer only records which native
// direction applies.
func normalizeDirection(dir string, line int) (FlowDirection, error) {
	switch dir {
	case "TD", "TB":
		return DirTD, nil
	case "LR":
		return DirLR, nil
	case "RL":
		return DirLR, nil
	case "BT":
		return DirTD, nil
	default:
		return "", ma.ParseErrorf(line, 1, "bad-direction",
			"invalid flowchart direction %q; must be one of TD, TB, BT, LR, RL", dir)
	}
}

// Reversed reports whether the original (pre-normalization) direction
// token was RL or BT, so layout can mirror layer order.
func Reversed(rawDirection string) bool {
	d := strings.ToUpper(strings.TrimSpace(rawDirection))
	return d == "RL" || d == "BT"
}

// stripComment removes a trailing "%% ..." comment from a line, unless
// the "%%" sequence falls inside a double-quoted span.
func stripComment(line string) string {
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case '%':
			if !inQuotes && i+1 < len(line) && line[i+1] == '%' {
				return line[:i]
			}
		}
	}
	return line
}
