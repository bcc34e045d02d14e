package filter

import "testing"

func TestNewMatch(t *testing.T) {
	c, err := NewMatch("skills", "go", "rust")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Key() != "skills" || len(c.Values()) != 2 {
		t.Errorf("condition = %+v", c)
	}
}

func TestNewMatch_Validation(t *testing.T) {
	if _, err := NewMatch("", "go"); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := NewMatch("skills"); err == nil {
		t.Error("expected error for no values")
	}
	if _, err := NewMatch("skills", "go", ""); err == nil {
		t.Error("expected error for empty value")
	}
}

func TestNewExpression_TooMany(t *testing.T) {
	conds := make([]Condition, MaxConditionsPerGroup+1)
	if _, err := NewExpression(conds, nil); err == nil {
		t.Error("expected error for too many must conditions")
	}
	if _, err := NewExpression(nil, conds); err == nil {
		t.Error("expected error for too many must_not conditions")
	}
}

func TestScope(t *testing.T) {
	if !Scope("").IsEmpty() {
		t.Error("empty scope should produce empty expression")
	}
	e := Scope("acme")
	if e.IsEmpty() || len(e.Must()) != 1 {
		t.Fatalf("expression = %+v", e)
	}
	if c := e.Must()[0]; c.Key() != "scope" || c.Values()[0] != "acme" {
		t.Errorf("condition = %+v", c)
	}
}
