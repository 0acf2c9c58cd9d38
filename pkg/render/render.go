// Package render is the driver: it ties together the lexer, parser,
// layout, and rasterizer stages, turning raw Mermaid source into the
// final line-oriented text the CLI writes to stdout (§5).
package render

import (
	"strings"

	"github.com/mermaid-ascii/ma/pkg/config"
	"github.com/mermaid-ascii/ma/pkg/layout"
	"github.com/mermaid-ascii/ma/pkg/lexer"
	"github.com/mermaid-ascii/ma/pkg/ma"
	"github.com/mermaid-ascii/ma/pkg/parser"
	"github.com/mermaid-ascii/ma/pkg/raster"
)

// Render parses source and lays it out under cfg, returning the
// rendered diagram as a single newline-joined string with no trailing
// newline. Every error returned is a *ma.Error so the caller can map it
// to an exit code via ErrorKind.ExitCode.
func Render(source string, cfg config.Config) (string, error) {
	diagram, err := parser.Parse(source)
	if err != nil {
		return "", err
	}

	var grid *raster.Grid
	switch diagram.Kind {
	case lexer.KindSequence:
		g, err := layout.LayoutSequence(diagram.Sequence, cfg)
		if err != nil {
			return "", err
		}
		grid = g
	case lexer.KindFlowchart:
		g, err := layout.LayoutFlowchart(diagram.Flowchart, cfg)
		if err != nil {
			return "", err
		}
		grid = g
	case lexer.KindER:
		g, err := layout.LayoutER(diagram.ER, cfg)
		if err != nil {
			return "", err
		}
		grid = g
	default:
		return "", ma.ParseErrorf(1, 1, "unexpected-token", "unrecognized diagram kind")
	}

	return strings.Join(grid.Lines(), "\n"), nil
}
