// Package parser builds typed intermediate representations — one of
// SequenceIR, FlowchartIR, or ErIR — from lexed Mermaid source, holding
// exactly one parsed shape per source file.
package parser

import "github.com/mermaid-ascii/ma/pkg/lexer"

// Diagram is the tagged union of the three supported IRs. Exactly one
// of Sequence, Flowchart, or ER is non-nil, matching Kind.
type Diagram struct {
	Kind      lexer.Kind
	Sequence  *SequenceIR
	Flowchart *FlowchartIR
	ER        *ErIR
}

// Parse lexes source and builds the appropriate IR for its diagram kind.
func Parse(source string) (*Diagram, error) {
	lexed, err := lexer.Lex(source)
	if err != nil {
		return nil, err
	}

	switch lexed.Kind {
	case lexer.KindSequence:
		ir, err := ParseSequence(lexed)
		if err != nil {
			return nil, err
		}
		return &Diagram{Kind: lexed.Kind, Sequence: ir}, nil
	case lexer.KindFlowchart:
		ir, err := ParseFlowchart(lexed)
		if err != nil {
			return nil, err
		}
		return &Diagram{Kind: lexed.Kind, Flowchart: ir}, nil
	case lexer.KindER:
		ir, err := ParseER(lexed)
		if err != nil {
			return nil, err
		}
		return &Diagram{Kind: lexed.Kind, ER: ir}, nil
	default:
		return nil, nil
	}
}
