package checker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evolbug/kailua/internal/testharness"
)

// runCase checks a fixture's main file against a resolver built from its
// other --& sections, returning every diagnostic reported across the
// whole require graph the way the pipeline would see them.
func runCase(t *testing.T, c *testharness.Case) []string {
	t.Helper()
	if len(c.Files) == 0 {
		t.Fatalf("case %q has no source", c.Name)
	}
	main := c.Files[0]
	others := map[string]string{}
	for _, f := range c.Files[1:] {
		others[f.Path] = f.Source
	}
	resolve := func(path string) (string, bool) {
		src, ok := others[path]
		return src, ok
	}

	diags := checkSource(main.Source, resolve)
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.Error())
	}
	return msgs
}

func TestBoundaryScenarios(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "..", "testdata", "boundary_scenarios.kailua"))
	if err != nil {
		t.Fatalf("unexpected error opening fixture: %v", err)
	}
	defer f.Close()

	cases, err := testharness.Parse(f)
	if err != nil {
		t.Fatalf("unexpected error parsing fixture: %v", err)
	}
	if len(cases) != 7 {
		t.Fatalf("expected 7 boundary-scenario cases, got %d", len(cases))
	}

	for _, c := range cases {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			msgs := runCase(t, c)
			joined := strings.Join(msgs, "\n")

			hasError := false
			for _, m := range msgs {
				if strings.Contains(m, "[K-A") {
					hasError = true
				}
			}
			switch c.Verdict {
			case testharness.VerdictError:
				if !hasError {
					t.Fatalf("expected an error-level diagnostic, got:\n%s", joined)
				}
			case testharness.VerdictOK:
				if hasError {
					t.Fatalf("expected no error-level diagnostics, got:\n%s", joined)
				}
			}

			for _, exp := range c.Expects {
				found := false
				for _, m := range msgs {
					if strings.Contains(m, exp.Message) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected a diagnostic containing %q, got:\n%s", exp.Message, joined)
				}
			}
		})
	}
}
