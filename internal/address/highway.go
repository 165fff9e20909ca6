package address

import (
	"strconv"
	"strings"
)

// HighwayType is the street type assigned to highways.
const HighwayType = "highway"

var boundDirections = map[string]string{"nb": "N", "sb": "S", "eb": "E", "wb": "W"}

var highwaySuffixWords = map[string]bool{"business": true, "bus": true, "loop": true}

// parseHighway speculatively reads the rest of the stream as a highway
// ("Old US Hwy 80 Business", "I-5 NB"). Words before the keyword qualify
// the name; words after it are appended ("Hwy 94 Frontage"). The cursor is
// restored when no keyword or route number is found.
func (s *state) parseHighway() bool {
	if !s.c.any(func(t Token) bool { return t.Type == Word && s.p.suffixes.IsHighway(t.Text) }) {
		return false
	}

	cp := s.c.save()
	var (
		keyword    string
		number     = -1
		direction  string
		adjectives []string
		suffix     []string
		trailing   bool
	)

	for s.c.remaining() > 0 {
		t := s.c.next()
		switch t.Type {
		case Number:
			if number < 0 {
				if n, err := strconv.Atoi(t.Text); err == nil {
					number = n
				}
			}
		case Word:
			word := strings.Trim(t.Text, "-")
			switch {
			case word == "":
			case keyword == "" && s.p.suffixes.IsHighway(t.Text):
				keyword = "Highway"
				if word == "i" || word == "interstate" {
					keyword = "Interstate"
				}
			case boundDirections[word] != "":
				direction = boundDirections[word]
			case highwaySuffixWords[word]:
				suffix = append(suffix, titleWord(word))
			case keyword == "":
				adjectives = append(adjectives, highwayAdjective(word))
			default:
				suffix = append(suffix, titleWord(word))
				trailing = true
			}
		}
	}

	if keyword == "" || number < 0 {
		s.c.restore(cp)
		return false
	}

	parts := append(adjectives, keyword, strconv.Itoa(number))
	parts = append(parts, suffix...)
	s.addr.StreetName = strings.Join(parts, " ")
	// "Hwy 94 Frontage Rd" is a road named after the highway, not the highway.
	if !trailing || s.strippedType == "" {
		s.addr.StreetType = HighwayType
	}
	if direction != "" {
		s.addr.StreetDirection = direction
	}
	return true
}

// highwayAdjective keeps short route qualifiers such as "US" upper case.
func highwayAdjective(word string) string {
	if len(word) <= 2 {
		return strings.ToUpper(word)
	}
	return titleWord(word)
}
