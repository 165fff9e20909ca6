package geocoder

import (
	"context"
	"strings"
	"sync"
)

// NoJurisdiction is the code used for unincorporated or unknown cities.
const NoJurisdiction = "NONE"

// jurisdictions maps lower-cased city names to place codes. It is loaded
// from the places table on first successful use and is read-only after.
type jurisdictions struct {
	mu     sync.Mutex
	loaded bool
	byName map[string]string
}

func (j *jurisdictions) load(ctx context.Context, ref Reference) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.loaded {
		return nil
	}

	places, err := ref.Places(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(places))
	for _, p := range places {
		if !strings.EqualFold(p.Type, "city") {
			continue
		}
		byName[strings.ToLower(strings.TrimSpace(p.Name))] = p.Code
	}
	j.byName = byName
	j.loaded = true
	return nil
}

// resolve returns the place code for city, or NoJurisdiction. load must
// have succeeded first.
func (j *jurisdictions) resolve(city string) string {
	name := strings.ToLower(strings.TrimSpace(city))
	if name == "" {
		return NoJurisdiction
	}
	if code, ok := j.byName[name]; ok {
		return code
	}
	return NoJurisdiction
}
