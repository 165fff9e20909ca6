package address

import "testing"

func TestCursorPeekAndNext(t *testing.T) {
	c := newCursor(Scan("100 main st"))
	if c.remaining() != 3 {
		t.Fatalf("expected 3 remaining, got %d", c.remaining())
	}
	if got := c.peek(-1).Text; got != "st" {
		t.Fatalf("expected peek(-1) st, got %q", got)
	}
	if got := c.peek(5).Type; got != End {
		t.Fatalf("expected End beyond the stream, got %s", got)
	}

	for i := 0; i < 3; i++ {
		c.next()
	}
	if c.next().Type != End || c.next().Type != End {
		t.Fatalf("next must stay on End")
	}
	if c.peek(-1).Type != End {
		t.Fatalf("peek(-1) on an exhausted cursor must be End")
	}
	c.backup()
	if c.next().Text != "st" {
		t.Fatalf("backup should un-consume st")
	}
}

func TestCursorRestoreIgnoresLaterRemovals(t *testing.T) {
	c := newCursor(Scan("block of main block"))
	cp := c.save()

	if _, at := c.pluck(isWord("block")); at != 0 {
		t.Fatalf("expected pluck at offset 0, got %d", at)
	}
	c.removeLast()
	if c.remaining() != 2 {
		t.Fatalf("expected 2 remaining, got %d", c.remaining())
	}

	c.restore(cp)
	if c.remaining() != 4 || c.peek(0).Text != "block" || c.peek(-1).Text != "block" {
		t.Fatalf("restore did not bring back the original stream")
	}
	if _, at := c.pluck(isWord("missing")); at != -1 {
		t.Fatalf("expected -1 for no match, got %d", at)
	}
}
