package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mermaid-ascii/ma/pkg/lexer"
	"github.com/mermaid-ascii/ma/pkg/ma"
)

// ArrowStyle is the line style of a sequence message.
type ArrowStyle string

const (
	ArrowSolid  ArrowStyle = "solid"
	ArrowDotted ArrowStyle = "dotted"
)

// MessageHead is the arrowhead kind of a sequence message. Arrows ending
// in ">>" are filled and arrows ending in "x" are cross; the plain "->"
// and "-->" arrows map to MsgHeadOpen and are drawn with an open
// arrowhead. There is no head-less message.
type MessageHead string

const (
	MsgHeadFilled MessageHead = "filled"
	MsgHeadOpen   MessageHead = "open"
	MsgHeadCross  MessageHead = "cross"
)

// NotePlacement is where a note is drawn relative to its participant(s).
type NotePlacement string

const (
	NoteLeftOf  NotePlacement = "left-of"
	NoteRightOf NotePlacement = "right-of"
	NoteOver    NotePlacement = "over"
)

// BlockKind is one of Mermaid's seven sequence-diagram block types.
type BlockKind string

const (
	BlockLoop     BlockKind = "loop"
	BlockAlt      BlockKind = "alt"
	BlockOpt      BlockKind = "opt"
	BlockBreak    BlockKind = "break"
	BlockPar      BlockKind = "par"
	BlockCritical BlockKind = "critical"
	BlockRect     BlockKind = "rect"
)

// BranchKind is one of the three block-separator keywords, each valid
// only inside its matching block kind.
type BranchKind string

const (
	BranchElse   BranchKind = "else"
	BranchAnd    BranchKind = "and"
	BranchOption BranchKind = "option"
)

var branchForBlock = map[BlockKind]BranchKind{
	BlockAlt:      BranchElse,
	BlockPar:      BranchAnd,
	BlockCritical: BranchOption,
}

// EventKind discriminates the sequence-diagram event union.
type EventKind int

const (
	EventMessage EventKind = iota
	EventNote
	EventBlockStart
	EventBlockBranch
	EventBlockEnd
	EventActivate
	EventDeactivate
	EventCreate
	EventDestroy
	EventAutonumberOn
	EventAutonumberOff
)

// Event is the tagged-union member for one line of sequence-diagram
// behavior. Only the fields relevant to Kind are populated.
type Event struct {
	Kind EventKind
	Line int

	From, To string
	Label    string
	MsgStyle ArrowStyle
	MsgHead  MessageHead
	Activate bool // '+' shorthand: activate the target
	Deactivate bool // '-' shorthand: deactivate the source

	NotePlacement    NotePlacement
	NoteParticipants []string
	NoteText         string

	BlockKind  BlockKind
	BranchKind BranchKind
	BlockLabel string

	Participant string

	AutonumberStart int
	AutonumberStep  int
}

// Participant is a sequence-diagram lifeline.
type Participant struct {
	ID          string
	Display     string
	IsActor     bool
	CreatedAt   int // event index at which "create" ran; -1 if declared upfront
	DestroyedAt int // event index at which "destroy" ran; -1 if never destroyed
}

// SequenceIR is the parsed form of a sequenceDiagram.
type SequenceIR struct {
	Participants []*Participant
	index        map[string]*Participant
	Events       []Event
}

func (ir *SequenceIR) participant(id string) *Participant {
	if p, ok := ir.index[id]; ok {
		return p
	}
	p := &Participant{ID: id, Display: id, CreatedAt: -1, DestroyedAt: -1}
	ir.index[id] = p
	ir.Participants = append(ir.Participants, p)
	return p
}

var (
	participantDeclRe = regexp.MustCompile(`(?i)^(participant|actor)\s+([A-Za-z0-9_]+)(?:\s+as\s+(.+))?$`)
	createDeclRe      = regexp.MustCompile(`(?i)^create\s+(participant|actor)\s+([A-Za-z0-9_]+)(?:\s+as\s+(.+))?$`)
	destroyRe         = regexp.MustCompile(`(?i)^destroy\s+([A-Za-z0-9_]+)$`)
	activateRe        = regexp.MustCompile(`(?i)^activate\s+([A-Za-z0-9_]+)$`)
	deactivateRe      = regexp.MustCompile(`(?i)^deactivate\s+([A-Za-z0-9_]+)$`)
	noteRe            = regexp.MustCompile(`(?i)^Note\s+(left of|right of|over)\s+([A-Za-z0-9_]+(?:\s*,\s*[A-Za-z0-9_]+)*)\s*:\s*(.*)$`)
	autonumberOnRe    = regexp.MustCompile(`(?i)^autonumber(?:\s+(\d+))?(?:\s+(\d+))?$`)
	autonumberOffRe   = regexp.MustCompile(`(?i)^autonumber\s+off$`)
	messageRe         = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*(-->>|--x|-->|->>|-x|->)\s*([+-]?)([A-Za-z0-9_]+)\s*:\s*(.*)$`)
	blockStartRe      = regexp.MustCompile(`(?i)^(loop|alt|opt|break|par|critical|rect)\b\s*(.*)$`)
	blockBranchRe     = regexp.MustCompile(`(?i)^(else|and|option)\b\s*(.*)$`)
)

// ParseSequence builds a SequenceIR from a lexed sequenceDiagram result.
func ParseSequence(lex *lexer.Result) (*SequenceIR, error) {
	ir := &SequenceIR{index: make(map[string]*Participant)}
	var blockStack []BlockKind

	for _, ln := range lex.Lines {
		line := strings.TrimSpace(ln.Text)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		switch {
		case lower == "end":
			if len(blockStack) == 0 {
				return nil, ma.ParseErrorf(ln.Number, 1, "unexpected-token", "unmatched 'end'")
			}
			blockStack = blockStack[:len(blockStack)-1]
			ir.Events = append(ir.Events, Event{Kind: EventBlockEnd, Line: ln.Number})
			continue

		case autonumberOffRe.MatchString(line):
			ir.Events = append(ir.Events, Event{Kind: EventAutonumberOff, Line: ln.Number})
			continue

		case strings.HasPrefix(lower, "autonumber"):
			m := autonumberOnRe.FindStringSubmatch(line)
			start, step := 1, 1
			if m != nil {
				if m[1] != "" {
					start, _ = strconv.Atoi(m[1])
				}
				if m[2] != "" {
					step, _ = strconv.Atoi(m[2])
				}
			}
			ir.Events = append(ir.Events, Event{Kind: EventAutonumberOn, Line: ln.Number, AutonumberStart: start, AutonumberStep: step})
			continue

		case createDeclRe.MatchString(line):
			m := createDeclRe.FindStringSubmatch(line)
			id := m[2]
			p := ir.participant(id)
			p.IsActor = strings.EqualFold(m[1], "actor")
			if m[3] != "" {
				p.Display = m[3]
			}
			p.CreatedAt = len(ir.Events)
			ir.Events = append(ir.Events, Event{Kind: EventCreate, Line: ln.Number, Participant: id})
			continue

		case destroyRe.MatchString(line):
			m := destroyRe.FindStringSubmatch(line)
			id := m[1]
			if _, ok := ir.index[id]; !ok {
				return nil, ma.ParseErrorf(ln.Number, 1, "undeclared-participant", "destroy of undeclared participant %q", id)
			}
			p := ir.participant(id)
			p.DestroyedAt = len(ir.Events)
			ir.Events = append(ir.Events, Event{Kind: EventDestroy, Line: ln.Number, Participant: id})
			continue

		case participantDeclRe.MatchString(line):
			m := participantDeclRe.FindStringSubmatch(line)
			id := m[2]
			p := ir.participant(id)
			p.IsActor = strings.EqualFold(m[1], "actor")
			if m[3] != "" {
				p.Display = m[3]
			}
			continue

		case activateRe.MatchString(line):
			m := activateRe.FindStringSubmatch(line)
			ir.participant(m[1])
			ir.Events = append(ir.Events, Event{Kind: EventActivate, Line: ln.Number, Participant: m[1]})
			continue

		case deactivateRe.MatchString(line):
			m := deactivateRe.FindStringSubmatch(line)
			ir.participant(m[1])
			ir.Events = append(ir.Events, Event{Kind: EventDeactivate, Line: ln.Number, Participant: m[1]})
			continue

		case noteRe.MatchString(line):
			m := noteRe.FindStringSubmatch(line)
			var placement NotePlacement
			switch strings.ToLower(m[1]) {
			case "left of":
				placement = NoteLeftOf
			case "right of":
				placement = NoteRightOf
			default:
				placement = NoteOver
			}
			var ps []string
			for _, part := range strings.Split(m[2], ",") {
				id := strings.TrimSpace(part)
				ir.participant(id)
				ps = append(ps, id)
			}
			ir.Events = append(ir.Events, Event{
				Kind: EventNote, Line: ln.Number,
				NotePlacement: placement, NoteParticipants: ps, NoteText: m[3],
			})
			continue

		case blockBranchRe.MatchString(line):
			m := blockBranchRe.FindStringSubmatch(line)
			kind := BranchKind(strings.ToLower(m[1]))
			if len(blockStack) == 0 {
				return nil, ma.ParseErrorf(ln.Number, 1, "unexpected-token", "%q outside any block", kind)
			}
			want, ok := branchForBlock[blockStack[len(blockStack)-1]]
			if !ok || want != kind {
				return nil, ma.ParseErrorf(ln.Number, 1, "unexpected-token",
					"%q is not valid inside a %q block", kind, blockStack[len(blockStack)-1])
			}
			ir.Events = append(ir.Events, Event{Kind: EventBlockBranch, Line: ln.Number, BranchKind: kind, BlockLabel: m[2]})
			continue

		case blockStartRe.MatchString(line):
			m := blockStartRe.FindStringSubmatch(line)
			kind := BlockKind(strings.ToLower(m[1]))
			blockStack = append(blockStack, kind)
			ir.Events = append(ir.Events, Event{Kind: EventBlockStart, Line: ln.Number, BlockKind: kind, BlockLabel: m[2]})
			continue

		case messageRe.MatchString(line):
			m := messageRe.FindStringSubmatch(line)
			from, arrow, prefix, to, label := m[1], m[2], m[3], m[4], m[5]
			ir.participant(from)
			ir.participant(to)
			ir.Events = append(ir.Events, Event{
				Kind: EventMessage, Line: ln.Number,
				From: from, To: to, Label: label,
				MsgStyle:   arrowStyle(arrow),
				MsgHead:    arrowHead(arrow),
				Activate:   prefix == "+",
				Deactivate: prefix == "-",
			})
			continue

		default:
			return nil, ma.ParseErrorf(ln.Number, 1, "unexpected-token", "unrecognized sequence-diagram statement %q", line)
		}
	}

	if len(blockStack) > 0 {
		return nil, ma.ParseErrorf(lex.Lines[len(lex.Lines)-1].Number, 1, "unterminated-block",
			"block %q is never closed with 'end'", blockStack[len(blockStack)-1])
	}

	if err := validateSequence(ir); err != nil {
		return nil, err
	}

	return ir, nil
}

func arrowStyle(arrow string) ArrowStyle {
	if strings.Contains(arrow, "--") {
		return ArrowDotted
	}
	return ArrowSolid
}

func arrowHead(arrow string) MessageHead {
	switch {
	case strings.HasSuffix(arrow, "x"):
		return MsgHeadCross
	case strings.HasSuffix(arrow, ">>"):
		return MsgHeadFilled
	default:
		return MsgHeadOpen
	}
}

// validateSequence checks the activation-LIFO and destroy-then-no-more-
// events invariants named in §3.
func validateSequence(ir *SequenceIR) error {
	activeStack := make(map[string][]int)
	destroyed := make(map[string]int)

	touchesParticipant := func(e Event, id string) bool {
		switch e.Kind {
		case EventMessage:
			return e.From == id || e.To == id
		case EventNote:
			for _, p := range e.NoteParticipants {
				if p == id {
					return true
				}
			}
			return false
		case EventActivate, EventDeactivate, EventCreate, EventDestroy:
			return e.Participant == id
		}
		return false
	}

	for i, e := range ir.Events {
		for id, at := range destroyed {
			if i > at && touchesParticipant(e, id) && e.Kind != EventDestroy {
				return ma.SemanticErrorf(e.Line, "destroyed-participant", "participant %q used after it was destroyed", id)
			}
		}

		switch e.Kind {
		case EventActivate:
			activeStack[e.Participant] = append(activeStack[e.Participant], i)
		case EventDeactivate:
			stack := activeStack[e.Participant]
			if len(stack) == 0 {
				return ma.SemanticErrorf(e.Line, "not-active", "deactivating %q which is not active", e.Participant)
			}
			activeStack[e.Participant] = stack[:len(stack)-1]
		case EventMessage:
			if e.Activate {
				activeStack[e.To] = append(activeStack[e.To], i)
			}
			if e.Deactivate {
				stack := activeStack[e.From]
				if len(stack) == 0 {
					return ma.SemanticErrorf(e.Line, "not-active", "deactivating %q which is not active", e.From)
				}
				activeStack[e.From] = stack[:len(stack)-1]
			}
		case EventDestroy:
			destroyed[e.Participant] = i
		}
	}

	return nil
}
