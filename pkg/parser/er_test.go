package parser

import "testing"

func TestParseERBasic(t *testing.T) {
	source := "erDiagram\nCUSTOMER ||--o{ ORDER : places\nORDER ||--|{ LINE_ITEM : contains"
	ir, err := ParseER(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ir.Entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(ir.Entities))
	}
	if len(ir.Relationships) != 2 {
		t.Fatalf("expected 2 relationships, got %d", len(ir.Relationships))
	}
	r0 := ir.Relationships[0]
	if r0.Left != "CUSTOMER" || r0.Right != "ORDER" || r0.Label != "places" {
		t.Errorf("relationship 0 = %+v", r0)
	}
	if r0.LeftCard != CardExactlyOne || r0.RightCard != CardZeroOrMany {
		t.Errorf("relationship 0 cardinalities = %v/%v", r0.LeftCard, r0.RightCard)
	}
	if r0.Dashed {
		t.Error("relationship 0 should be solid")
	}
	r1 := ir.Relationships[1]
	if r1.RightCard != CardOneOrMany {
		t.Errorf("relationship 1 right card = %v, want one-or-many", r1.RightCard)
	}
}

func TestParseERDashedRelationship(t *testing.T) {
	ir, err := ParseER(mustLex(t, "erDiagram\nA |o..o| B : maybe"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ir.Relationships[0].Dashed {
		t.Error("expected dashed relationship")
	}
}

func TestParseERAttributes(t *testing.T) {
	source := `erDiagram
CUSTOMER {
    string name
    string custNumber PK
    int age
}
CUSTOMER ||--o{ ORDER : places
`
	ir, err := ParseER(mustLex(t, source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cust, ok := ir.EntityIndex["CUSTOMER"]
	if !ok {
		t.Fatal("CUSTOMER entity not found")
	}
	if len(cust.Attributes) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(cust.Attributes))
	}
	if cust.Attributes[1].Key != "PK" {
		t.Errorf("custNumber key = %q, want PK", cust.Attributes[1].Key)
	}
	if cust.Attributes[0].Type != "string" || cust.Attributes[0].Name != "name" {
		t.Errorf("attribute 0 = %+v", cust.Attributes[0])
	}
}

func TestParseERUnterminatedEntityBlock(t *testing.T) {
	_, err := ParseER(mustLex(t, "erDiagram\nCUSTOMER {\nstring name"))
	if err == nil {
		t.Fatal("expected error for unterminated entity block")
	}
}

func TestParseERAllCardinalityGlyphs(t *testing.T) {
	for glyph, want := range cardinalityGlyph {
		source := "erDiagram\nA " + glyph + "--" + glyph + " B : rel"
		ir, err := ParseER(mustLex(t, source))
		if err != nil {
			t.Fatalf("glyph %q: unexpected error: %v", glyph, err)
		}
		if ir.Relationships[0].LeftCard != want {
			t.Errorf("glyph %q: LeftCard = %v, want %v", glyph, ir.Relationships[0].LeftCard, want)
		}
	}
}
