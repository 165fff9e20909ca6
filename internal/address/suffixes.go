package address

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed suffixes.csv
var defaultSuffixesCSV string

// highwayCanonicals lists the canonical street types that denote a highway.
var highwayCanonicals = map[string]bool{
	"hwy":  true,
	"fwy":  true,
	"expy": true,
	"tpke": true,
}

// highwayDesignators are route prefixes that never appear as a trailing
// street type but still mark a highway ("I-5", "SR 94", "Route 66").
var highwayDesignators = []string{"i", "interstate", "sr", "route", "rte"}

// Suffixes maps street-type synonyms to their canonical abbreviation.
// It is read-only after construction and safe for concurrent use.
type Suffixes struct {
	canonical map[string]string
	highway   *regexp.Regexp
}

var (
	defaultOnce     sync.Once
	defaultSuffixes *Suffixes
)

// DefaultSuffixes returns the process-wide dictionary built from the
// embedded USPS suffix table.
func DefaultSuffixes() *Suffixes {
	defaultOnce.Do(func() {
		s, err := LoadSuffixes(strings.NewReader(defaultSuffixesCSV))
		if err != nil {
			panic(fmt.Sprintf("address: embedded suffixes.csv: %v", err))
		}
		defaultSuffixes = s
	})
	return defaultSuffixes
}

// LoadSuffixesFile reads a dictionary from a CSV file on disk.
func LoadSuffixesFile(path string) (*Suffixes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSuffixes(f)
}

// LoadSuffixes builds a dictionary from two-column CSV rows of
// raw suffix and canonical form. A leading "raw,canonical" header is skipped.
func LoadSuffixes(r io.Reader) (*Suffixes, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	s := &Suffixes{canonical: make(map[string]string)}
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read suffixes: %w", err)
		}
		raw := strings.ToLower(strings.TrimSpace(record[0]))
		canonical := strings.ToLower(strings.TrimSpace(record[1]))
		if first {
			first = false
			if raw == "raw" && canonical == "canonical" {
				continue
			}
		}
		if raw == "" || canonical == "" {
			continue
		}
		s.canonical[raw] = canonical
	}
	if len(s.canonical) == 0 {
		return nil, errors.New("suffix table is empty")
	}

	s.highway = buildHighwayPattern(s.canonical)
	return s, nil
}

func buildHighwayPattern(canonical map[string]string) *regexp.Regexp {
	words := append([]string(nil), highwayDesignators...)
	for raw, canon := range canonical {
		if highwayCanonicals[canon] {
			words = append(words, raw)
		}
	}
	// Longest first so alternation never stops at a shorter prefix.
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`^(?:` + strings.Join(quoted, "|") + `)-?$`)
}

// Canonical returns the canonical street type for word.
func (s *Suffixes) Canonical(word string) (string, bool) {
	canon, ok := s.canonical[strings.ToLower(word)]
	return canon, ok
}

// IsHighway reports whether word marks a highway: a highway street type
// or a route designator, with or without a trailing dash.
func (s *Suffixes) IsHighway(word string) bool {
	return s.highway.MatchString(strings.ToLower(word))
}

// Len returns the number of raw suffixes known to the dictionary.
func (s *Suffixes) Len() int {
	return len(s.canonical)
}
