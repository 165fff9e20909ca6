package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"geocoder_backend/internal/address"
	"geocoder_backend/internal/batch"
	"geocoder_backend/internal/geocoder"

	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"

	cacheConnectTimeout = 3 * time.Second
)

// render writes v in the requested format. The text format is a single
// line for the common result types and YAML for anything else.
func render(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatText, "":
		if line, ok := textLine(v); ok {
			_, err := fmt.Fprintln(w, line)
			return err
		}
		return render(w, formatYAML, v)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func textLine(v interface{}) (string, bool) {
	switch t := v.(type) {
	case *address.Address:
		return t.String(), true
	case *geocoder.Result:
		return fmt.Sprintf("%s\t%s\t%s\t%d\t%s",
			strconv.FormatFloat(t.X, 'f', -1, 64),
			strconv.FormatFloat(t.Y, 'f', -1, 64),
			t.Type, t.Quality, t.CodedAddress), true
	case *geocoder.Node:
		return fmt.Sprintf("%s\t%s\t%s / %s",
			strconv.FormatFloat(t.X, 'f', -1, 64),
			strconv.FormatFloat(t.Y, 'f', -1, 64),
			t.Street1, t.Street2), true
	case batch.Stats:
		return fmt.Sprintf("rows=%d matched=%d failed=%d duration=%s", t.Rows, t.Matched, t.Failed, t.Duration), true
	}
	return "", false
}
