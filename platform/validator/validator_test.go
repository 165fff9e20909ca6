package validator

import "testing"

type sample struct {
	Query string `validate:"required,notblank,max=10"`
}

func TestNotBlankRejectsWhitespace(t *testing.T) {
	v := New()
	if err := v.Struct(sample{Query: "   "}); err == nil {
		t.Fatalf("expected whitespace-only query to fail")
	}
	if err := v.Struct(sample{Query: "main st"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.Struct(sample{Query: "far too long for this"}); err == nil {
		t.Fatalf("expected max length to be enforced")
	}
}
