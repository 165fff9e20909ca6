package address

// cursor walks a token slice that always ends with the End token. Removal
// copies the slice, so a saved checkpoint never observes later edits.
type cursor struct {
	toks []Token
	pos  int
}

// checkpoint is an O(1) snapshot of a cursor.
type checkpoint struct {
	toks []Token
	pos  int
}

func newCursor(toks []Token) *cursor {
	if len(toks) == 0 || toks[len(toks)-1].Type != End {
		toks = append(append([]Token(nil), toks...), endToken)
	}
	return &cursor{toks: toks}
}

// next consumes the front token. It never advances past End.
func (c *cursor) next() Token {
	t := c.toks[c.pos]
	if t.Type != End {
		c.pos++
	}
	return t
}

// backup un-consumes the last token returned by next.
func (c *cursor) backup() {
	if c.pos > 0 {
		c.pos--
	}
}

// peek looks at the token i places ahead without consuming it. A negative
// index counts back from End: peek(-1) is the last real token.
func (c *cursor) peek(i int) Token {
	idx := c.pos + i
	if i < 0 {
		idx = len(c.toks) - 1 + i
		if idx < c.pos {
			return endToken
		}
	}
	if idx < 0 || idx >= len(c.toks) {
		return endToken
	}
	return c.toks[idx]
}

// remaining counts the tokens ahead, excluding End.
func (c *cursor) remaining() int {
	return len(c.toks) - 1 - c.pos
}

// any reports whether a token ahead satisfies match.
func (c *cursor) any(match func(Token) bool) bool {
	for _, t := range c.toks[c.pos : len(c.toks)-1] {
		if match(t) {
			return true
		}
	}
	return false
}

// pluck removes the first token ahead satisfying match and returns its
// offset from the front, or -1 when nothing matched.
func (c *cursor) pluck(match func(Token) bool) (Token, int) {
	for i := c.pos; i < len(c.toks)-1; i++ {
		if match(c.toks[i]) {
			t := c.toks[i]
			c.removeAt(i)
			return t, i - c.pos
		}
	}
	return endToken, -1
}

// removeAt drops the token at absolute index i.
func (c *cursor) removeAt(i int) {
	out := make([]Token, 0, len(c.toks)-1)
	out = append(out, c.toks[:i]...)
	out = append(out, c.toks[i+1:]...)
	c.toks = out
}

// removeLast drops the last real token.
func (c *cursor) removeLast() {
	if c.remaining() > 0 {
		c.removeAt(len(c.toks) - 2)
	}
}

func (c *cursor) save() checkpoint {
	return checkpoint{toks: c.toks, pos: c.pos}
}

func (c *cursor) restore(cp checkpoint) {
	c.toks = cp.toks
	c.pos = cp.pos
}

func isWord(text string) func(Token) bool {
	return func(t Token) bool {
		return t.Type == Word && t.Text == text
	}
}
