package address

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Address is the structured form of a street address. It is never modified
// after Parse returns.
type Address struct {
	Number          *int     `json:"number,omitempty" yaml:"number,omitempty"`
	IsBlock         bool     `json:"is_block" yaml:"is_block"`
	StreetDirection string   `json:"street_direction,omitempty" yaml:"street_direction,omitempty"`
	StreetName      string   `json:"street_name" yaml:"street_name"`
	StreetType      string   `json:"street_type,omitempty" yaml:"street_type,omitempty"`
	Unit            string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	City            string   `json:"city,omitempty" yaml:"city,omitempty"`
	CrossStreet     *Address `json:"cross_street,omitempty" yaml:"cross_street,omitempty"`
}

// HasNumber reports whether a house number was parsed.
func (a *Address) HasNumber() bool {
	return a != nil && a.Number != nil
}

// IsHighway reports whether the street was recognised as a highway.
func (a *Address) IsHighway() bool {
	return a != nil && a.StreetType == HighwayType
}

// String renders the address as "100 N Main St", followed by " / cross"
// for intersections.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 5)
	if a.Number != nil {
		parts = append(parts, strconv.Itoa(*a.Number))
	}
	if a.IsBlock {
		parts = append(parts, "Block of")
	}
	if a.StreetDirection != "" {
		parts = append(parts, a.StreetDirection)
	}
	if a.StreetName != "" {
		parts = append(parts, a.StreetName)
	}
	if a.StreetType != "" && a.StreetType != HighwayType {
		parts = append(parts, titleWord(a.StreetType))
	}
	s := strings.Join(parts, " ")
	if a.CrossStreet != nil {
		s += " / " + a.CrossStreet.String()
	}
	return s
}

// ParseError reports input that does not contain a usable street.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse address %q: %s", e.Input, e.Reason)
}

var directions = map[string]string{
	"n": "N", "s": "S", "e": "E", "w": "W",
	"ne": "NE", "nw": "NW", "se": "SE", "sw": "SW",
	"north": "N", "south": "S", "east": "E", "west": "W",
	"northeast": "NE", "northwest": "NW", "southeast": "SE", "southwest": "SW",
}

var ordinals = map[string]bool{"st": true, "nd": true, "rd": true, "th": true}

var unitMarkers = map[string]bool{"apt": true, "unit": true, "ste": true, "suite": true}

const (
	maxUnitTokens  = 2
	maxUnitWordLen = 3
)

// Parser turns free-form address strings into Address values. A Parser
// holds no per-call state and may be shared between goroutines.
type Parser struct {
	suffixes *Suffixes
}

// NewParser returns a parser using the given dictionary, or the embedded
// default when suffixes is nil.
func NewParser(suffixes *Suffixes) *Parser {
	if suffixes == nil {
		suffixes = DefaultSuffixes()
	}
	return &Parser{suffixes: suffixes}
}

// Suffixes returns the dictionary used by the parser.
func (p *Parser) Suffixes() *Suffixes {
	return p.suffixes
}

// Parse parses text into an Address. Text containing "/" is an
// intersection: the part after the first slash becomes CrossStreet. Text
// after the first comma of each part is taken as the city.
func (p *Parser) Parse(text string) (*Address, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Input: text, Reason: "empty address"}
	}

	first, rest, isCross := strings.Cut(text, "/")
	addr, err := p.parseOne(first)
	if err != nil {
		return nil, err
	}
	if !isCross {
		return addr, nil
	}

	cross, err := p.parseOne(rest)
	if err != nil {
		return nil, err
	}
	addr.CrossStreet = cross
	if addr.City == "" {
		addr.City = cross.City
	}
	return addr, nil
}

// state accumulates one parse. It is discarded when parseOne returns.
type state struct {
	p    *Parser
	c    *cursor
	addr *Address

	strippedType string
}

func (p *Parser) parseOne(text string) (*Address, error) {
	street, city, _ := strings.Cut(text, ",")
	if strings.TrimSpace(street) == "" {
		return nil, &ParseError{Input: text, Reason: "empty address"}
	}

	s := &state{
		p:    p,
		c:    newCursor(Scan(street)),
		addr: &Address{City: titleCase(strings.Join(strings.Fields(city), " "))},
	}

	s.stripUnit()
	s.stripTrailingType()
	s.parseNumber()
	s.stripBlock()
	s.parseDirection()

	if !s.parseHighway() && !s.parseNumberedStreet() {
		s.parseSimpleStreet()
	}

	if s.addr.StreetName == "" {
		if s.strippedType == "" {
			return nil, &ParseError{Input: text, Reason: "no street name"}
		}
		// "100 Park": the only word left was also a street type.
		s.addr.StreetName = titleWord(s.strippedType)
		s.addr.StreetType = ""
	}
	return s.addr, nil
}

// stripUnit removes a trailing "#B", "Apt 4" or "Suite 200" designator. The
// marker only counts after a street word and before a short designator, so
// "150 Ste Genevieve Ave" and "200 Unit Rd" keep their names.
func (s *state) stripUnit() {
	sawWord := false
	for i := 0; i < s.c.remaining(); i++ {
		t := s.c.peek(i)
		isMarker := (t.Type == Other && t.Text == "#") || (t.Type == Word && unitMarkers[t.Text])
		if !isMarker || !sawWord || !s.isUnitDesignator(i+1) {
			if t.Type == Word {
				sawWord = true
			}
			continue
		}
		parts := make([]string, 0, s.c.remaining()-i-1)
		for s.c.remaining() > i+1 {
			parts = append([]string{strings.ToUpper(s.c.peek(-1).Text)}, parts...)
			s.c.removeLast()
		}
		s.c.removeLast()
		s.addr.Unit = strings.Join(parts, "")
		return
	}
}

// isUnitDesignator reports whether the tokens from offset i to the end
// look like "4", "B", "4B" or "200": at most two numbers or short words
// that are not street types.
func (s *state) isUnitDesignator(i int) bool {
	n := s.c.remaining() - i
	if n < 1 || n > maxUnitTokens {
		return false
	}
	for ; i < s.c.remaining(); i++ {
		t := s.c.peek(i)
		switch t.Type {
		case Number:
		case Word:
			if len(t.Text) > maxUnitWordLen {
				return false
			}
			if _, ok := s.p.suffixes.Canonical(t.Text); ok {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (s *state) stripTrailingType() {
	last := s.c.peek(-1)
	if last.Type != Word {
		return
	}
	if ordinals[last.Text] && s.c.peek(-2).Type == Number {
		return
	}
	canon, ok := s.p.suffixes.Canonical(last.Text)
	if !ok {
		return
	}
	s.addr.StreetType = canon
	s.strippedType = last.Text
	s.c.removeLast()
}

func (s *state) parseNumber() {
	t := s.c.peek(0)
	if t.Type != Number {
		return
	}
	if next := s.c.peek(1); next.Type == Word && ordinals[next.Text] {
		return
	}
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		return
	}
	s.c.next()
	s.addr.Number = &n
}

func (s *state) stripBlock() {
	for {
		_, at := s.c.pluck(isWord("block"))
		if at < 0 {
			return
		}
		s.addr.IsBlock = true
		if isWord("of")(s.c.peek(at)) {
			s.c.removeAt(s.c.pos + at)
		}
	}
}

func (s *state) parseDirection() {
	t := s.c.peek(0)
	if t.Type != Word || s.c.remaining() <= 1 {
		return
	}
	if dir, ok := directions[t.Text]; ok {
		s.c.next()
		s.addr.StreetDirection = dir
	}
}

func (s *state) parseNumberedStreet() bool {
	if s.c.remaining() == 0 {
		return false
	}
	t := s.c.next()
	if t.Type != Number {
		s.c.backup()
		return false
	}
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		s.c.backup()
		return false
	}

	name := strconv.Itoa(n)
	if next := s.c.peek(0); next.Type == Word && ordinals[next.Text] {
		s.c.next()
		name += next.Text
	}
	if rest := s.joinRemaining(); rest != "" {
		name += " " + rest
	}
	s.addr.StreetName = name
	return true
}

func (s *state) parseSimpleStreet() {
	s.addr.StreetName = s.joinRemaining()
}

// joinRemaining consumes every token ahead and returns them title-cased.
// It returns "" when no word or number is left.
func (s *state) joinRemaining() string {
	words := make([]string, 0, s.c.remaining())
	usable := false
	for s.c.remaining() > 0 {
		t := s.c.next()
		if t.Text == "" {
			continue
		}
		if t.Type == Word || t.Type == Number {
			usable = true
		}
		words = append(words, t.Text)
	}
	if !usable {
		return ""
	}
	return titleCase(strings.Join(words, " "))
}

// titleCase capitalises each space-separated word.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	caser := cases.Title(language.English)
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = titleWordWith(caser, w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	return titleWordWith(cases.Title(language.English), w)
}

// titleWordWith keeps "10th" lower case; cases.Title would give "10Th".
func titleWordWith(caser cases.Caser, w string) string {
	for _, r := range w {
		if unicode.IsDigit(r) {
			return strings.ToLower(w)
		}
		break
	}
	return caser.String(w)
}
