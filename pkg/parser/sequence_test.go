package parser

import "testing"

func TestParseSequenceBasic(t *testing.T) {
	source := "sequenceDiagram\nAlice->>Bob: Hello\nBob-->>Alice: Hi there"
	ir, err := ParseSequence(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ir.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(ir.Participants))
	}
	if ir.Participants[0].ID != "Alice" || ir.Participants[1].ID != "Bob" {
		t.Errorf("participant order = %v", ir.Participants)
	}
	if len(ir.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(ir.Events))
	}
	m0 := ir.Events[0]
	if m0.Kind != EventMessage || m0.From != "Alice" || m0.To != "Bob" || m0.Label != "Hello" {
		t.Errorf("event 0 = %+v", m0)
	}
	if m0.MsgStyle != ArrowSolid || m0.MsgHead != MsgHeadFilled {
		t.Errorf("event 0 style/head = %v/%v", m0.MsgStyle, m0.MsgHead)
	}
	m1 := ir.Events[1]
	if m1.MsgStyle != ArrowDotted || m1.MsgHead != MsgHeadFilled {
		t.Errorf("event 1 style/head = %v/%v", m1.MsgStyle, m1.MsgHead)
	}
}

func TestParseSequenceArrowVariants(t *testing.T) {
	source := `sequenceDiagram
A->B: solid open head
A->>B: solid filled
A-->B: dotted open head
A-->>B: dotted filled
A-xB: solid cross
A--xB: dotted cross
`
	ir, err := ParseSequence(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		style ArrowStyle
		head  MessageHead
	}{
		{ArrowSolid, MsgHeadOpen},
		{ArrowSolid, MsgHeadFilled},
		{ArrowDotted, MsgHeadOpen},
		{ArrowDotted, MsgHeadFilled},
		{ArrowSolid, MsgHeadCross},
		{ArrowDotted, MsgHeadCross},
	}
	if len(ir.Events) != len(want) {
		t.Fatalf("got %d events, want %d", len(ir.Events), len(want))
	}
	for i, w := range want {
		if ir.Events[i].MsgStyle != w.style || ir.Events[i].MsgHead != w.head {
			t.Errorf("event %d = {%v,%v}, want {%v,%v}", i, ir.Events[i].MsgStyle, ir.Events[i].MsgHead, w.style, w.head)
		}
	}
}

func TestParseSequenceActivateShorthand(t *testing.T) {
	source := "sequenceDiagram\nAlice->>+Bob: Hello\nBob-->>-Alice: Hi"
	ir, err := ParseSequence(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ir.Events[0].Activate {
		t.Error("expected Activate shorthand on first message")
	}
	if !ir.Events[1].Deactivate {
		t.Error("expected Deactivate shorthand on second message")
	}
}

func TestParseSequenceExplicitActivation(t *testing.T) {
	source := "sequenceDiagram\nactivate Alice\ndeactivate Alice"
	ir, err := ParseSequence(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ir.Events[0].Kind != EventActivate || ir.Events[1].Kind != EventDeactivate {
		t.Errorf("events = %+v", ir.Events)
	}
}

func TestParseSequenceUnmatchedDeactivate(t *testing.T) {
	_, err := ParseSequence(mustLex(t, "sequenceDiagram\ndeactivate Alice"))
	if err == nil {
		t.Fatal("expected semantic error for deactivating a non-active participant")
	}
}

func TestParseSequenceNotes(t *testing.T) {
	source := `sequenceDiagram
participant A
participant B
Note left of A: left note
Note right of B: right note
Note over A,B: spanning note
`
	ir, err := ParseSequence(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantPlacements := []NotePlacement{NoteLeftOf, NoteRightOf, NoteOver}
	for i, want := range wantPlacements {
		if ir.Events[i].NotePlacement != want {
			t.Errorf("note %d placement = %v, want %v", i, ir.Events[i].NotePlacement, want)
		}
	}
	if len(ir.Events[2].NoteParticipants) != 2 {
		t.Errorf("spanning note participants = %v", ir.Events[2].NoteParticipants)
	}
}

func TestParseSequenceBlocks(t *testing.T) {
	source := `sequenceDiagram
alt success
Alice->>Bob: ok
else failure
Alice->>Bob: fail
end
`
	ir, err := ParseSequence(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kinds := []EventKind{EventBlockStart, EventMessage, EventBlockBranch, EventMessage, EventBlockEnd}
	if len(ir.Events) != len(kinds) {
		t.Fatalf("got %d events, want %d", len(ir.Events), len(kinds))
	}
	for i, k := range kinds {
		if ir.Events[i].Kind != k {
			t.Errorf("event %d kind = %v, want %v", i, ir.Events[i].Kind, k)
		}
	}
	if ir.Events[0].BlockKind != BlockAlt || ir.Events[0].BlockLabel != "success" {
		t.Errorf("block start = %+v", ir.Events[0])
	}
	if ir.Events[2].BranchKind != BranchElse {
		t.Errorf("branch = %+v", ir.Events[2])
	}
}

func TestParseSequenceBranchWrongBlock(t *testing.T) {
	_, err := ParseSequence(mustLex(t, "sequenceDiagram\nloop x\nand y\nend"))
	if err == nil {
		t.Fatal("expected error for 'and' inside a loop block")
	}
}

func TestParseSequenceCreateDestroy(t *testing.T) {
	source := "sequenceDiagram\nAlice->>Bob: hi\ncreate participant Carol\nBob->>Carol: join\ndestroy Carol\nBob->>Alice: done"
	ir, err := ParseSequence(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ir.Events[1].Kind != EventCreate || ir.Events[1].Participant != "Carol" {
		t.Errorf("create event = %+v", ir.Events[1])
	}
	if ir.Events[3].Kind != EventDestroy {
		t.Errorf("destroy event = %+v", ir.Events[3])
	}
}

func TestParseSequenceUseAfterDestroy(t *testing.T) {
	source := "sequenceDiagram\ncreate participant Carol\ndestroy Carol\nCarol->>Alice: too late"
	_, err := ParseSequence(mustLex(t, source))
	if err == nil {
		t.Fatal("expected semantic error for use after destroy")
	}
}

func TestParseSequenceAutonumber(t *testing.T) {
	source := "sequenceDiagram\nautonumber\nAlice->>Bob: hi\nautonumber off"
	ir, err := ParseSequence(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ir.Events[0].Kind != EventAutonumberOn || ir.Events[0].AutonumberStart != 1 || ir.Events[0].AutonumberStep != 1 {
		t.Errorf("autonumber on = %+v", ir.Events[0])
	}
	if ir.Events[2].Kind != EventAutonumberOff {
		t.Errorf("autonumber off = %+v", ir.Events[2])
	}
}

func TestParseSequenceAutonumberWithArgs(t *testing.T) {
	ir, err := ParseSequence(mustLex(t, "sequenceDiagram\nautonumber 10 5\nAlice->>Bob: hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ir.Events[0].AutonumberStart != 10 || ir.Events[0].AutonumberStep != 5 {
		t.Errorf("autonumber args = %+v", ir.Events[0])
	}
}

func TestParseSequenceAliasDeclaration(t *testing.T) {
	ir, err := ParseSequence(mustLex(t, "sequenceDiagram\nparticipant A as Alice Smith\nA->>A: ping"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ir.Participants[0].Display != "Alice Smith" {
		t.Errorf("display = %q", ir.Participants[0].Display)
	}
}
