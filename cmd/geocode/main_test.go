package main

import (
	"bytes"
	"strings"
	"testing"

	"geocoder_backend/internal/geocoder"

	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"geocode"}, args...))
	return out.String(), err
}

func TestParseCommandText(t *testing.T) {
	out, err := runApp(t, "parse", "100", "block", "of", "w", "broadway", "avenue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "100 Block of W Broadway Ave" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestParseCommandYAML(t *testing.T) {
	out, err := runApp(t, "--format", "yaml", "parse", "I-5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "street_name: Interstate 5") || !strings.Contains(out, "street_type: highway") {
		t.Fatalf("unexpected yaml %q", out)
	}
}

func TestParseCommandRejectsNonsense(t *testing.T) {
	if _, err := runApp(t, "parse", "&&&"); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestSuffixesCommand(t *testing.T) {
	out, err := runApp(t, "--format", "json", "suffixes", "avenue", "xyzzy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"avenue": "ave"`) || !strings.Contains(out, `"xyzzy": ""`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestAreaCommand(t *testing.T) {
	out, err := runApp(t, "--format", "yaml", "area", "--bounds", "-117.3,32.5,-116.9,33.0", "--cell", "1000", "--", "-117.29999", "32.99999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "col: 0") || !strings.Contains(out, "row: 0") {
		t.Fatalf("expected the north-west cell, got %q", out)
	}

	if _, err := runApp(t, "area", "--bounds", "1,2,3"); err == nil {
		t.Fatalf("expected an error for short bounds")
	}
}

func TestRenderResultText(t *testing.T) {
	var out bytes.Buffer
	res := &geocoder.Result{X: 1.5, Y: 2, Type: geocoder.MatchInterpolated, Quality: 30, CodedAddress: "1020 Main St, LM"}
	if err := render(&out, formatText, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "1.5\t2\tcns/seginterp\t30\t1020 Main St, LM" {
		t.Fatalf("unexpected line %q", got)
	}
	if err := render(&out, "xml", res); err == nil {
		t.Fatalf("expected an error for an unknown format")
	}
}
