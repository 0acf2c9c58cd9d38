package parser

import (
	"regexp"
	"strings"

	"github.com/mermaid-ascii/ma/pkg/lexer"
	"github.com/mermaid-ascii/ma/pkg/ma"
)

// Cardinality is one of the four ER cardinalities, independent of which
// of its two mirrored glyph variants appeared in the source.
type Cardinality string

const (
	CardExactlyOne Cardinality = "exactly-one"
	CardZeroOrOne  Cardinality = "zero-or-one"
	CardOneOrMany  Cardinality = "one-or-many"
	CardZeroOrMany Cardinality = "zero-or-many"
)

// cardinalityGlyph is the literal two-character token written on each
// side of a relationship, per §6's authoritative glyph list.
var cardinalityGlyph = map[string]Cardinality{
	"||": CardExactlyOne,
	"|o": CardZeroOrOne,
	"o|": CardZeroOrOne,
	"|{": CardOneOrMany,
	"}|": CardOneOrMany,
	"o{": CardZeroOrMany,
	"}o": CardZeroOrMany,
}

// Attribute is one row of an entity's attribute list.
type Attribute struct {
	Type string
	Name string
	Key  string // "PK", "FK", "UK", or "" if none
}

// Entity is an ER box with an ordered attribute list.
type Entity struct {
	Name       string
	Attributes []Attribute
	Line       int
}

// Relationship connects two entities with mirrored cardinality glyphs
// and a label, e.g. "CUSTOMER ||--o{ ORDER : places".
type Relationship struct {
	Left, Right         string
	LeftCard, RightCard Cardinality
	Label                string
	Dashed               bool
	Line                 int
}

// ErIR is the parsed form of an erDiagram.
type ErIR struct {
	Entities      []*Entity
	EntityIndex   map[string]*Entity
	Relationships []*Relationship
}

func (ir *ErIR) entity(name string, line int) *Entity {
	if e, ok := ir.EntityIndex[name]; ok {
		return e
	}
	e := &Entity{Name: name, Line: line}
	ir.EntityIndex[name] = e
	ir.Entities = append(ir.Entities, e)
	return e
}

var (
	relationshipRe = regexp.MustCompile(
		`^([A-Za-z0-9_]+)\s*(\|\||o\||\|o|\}\||\|\{|\}o|o\{)(--|\.\.)(\|\||o\||\|o|\}\||\|\{|\}o|o\{)\s*([A-Za-z0-9_]+)\s*:\s*(.*)$`,
	)
	entityBlockOpenRe = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*\{$`)
)

// ParseER builds an ErIR from a lexed erDiagram result.
func ParseER(lex *lexer.Result) (*ErIR, error) {
	ir := &ErIR{EntityIndex: make(map[string]*Entity)}

	var current *Entity
	for _, ln := range lex.Lines {
		line := strings.TrimSpace(ln.Text)

		if current != nil {
			if line == "}" {
				current = nil
				continue
			}
			attr, err := parseAttributeLine(line, ln.Number)
			if err != nil {
				return nil, err
			}
			current.Attributes = append(current.Attributes, attr)
			continue
		}

		if m := entityBlockOpenRe.FindStringSubmatch(line); m != nil {
			current = ir.entity(m[1], ln.Number)
			continue
		}

		if m := relationshipRe.FindStringSubmatch(line); m != nil {
			left, leftTok, conn, rightTok, right, label := m[1], m[2], m[3], m[4], m[5], m[6]
			ir.entity(left, ln.Number)
			ir.entity(right, ln.Number)
			ir.Relationships = append(ir.Relationships, &Relationship{
				Left:      left,
				Right:     right,
				LeftCard:  cardinalityGlyph[leftTok],
				RightCard: cardinalityGlyph[rightTok],
				Label:     label,
				Dashed:    conn == "..",
				Line:      ln.Number,
			})
			continue
		}

		return nil, ma.ParseErrorf(ln.Number, 1, "unexpected-token", "unrecognized ER statement %q", line)
	}

	if current != nil {
		return nil, ma.ParseErrorf(current.Line, 1, "unterminated-block", "entity block %q is never closed with '}'", current.Name)
	}

	return ir, nil
}

func parseAttributeLine(line string, lineNo int) (Attribute, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Attribute{}, ma.ParseErrorf(lineNo, 1, "unexpected-token", "expected \"type name\" in entity attribute, got %q", line)
	}
	attr := Attribute{Type: fields[0], Name: fields[1]}
	if len(fields) >= 3 {
		switch strings.ToUpper(fields[2]) {
		case "PK", "FK", "UK":
			attr.Key = strings.ToUpper(fields[2])
		}
	}
	return attr, nil
}
