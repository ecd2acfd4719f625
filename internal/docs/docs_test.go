package docs

import (
	"strings"
	"testing"
)

func TestTopics_TitlesAndSummaries(t *testing.T) {
	topics := Topics()
	var names []string
	for _, tp := range topics {
		names = append(names, tp.Name)
		if tp.Title == "" || tp.Summary == "" {
			t.Fatalf("topic %q missing title or summary: %#v", tp.Name, tp)
		}
	}
	if strings.Join(names, ",") != "folders,lines,sharing,training" {
		t.Fatalf("unexpected topics: %v", names)
	}
	if topics[3].Title != "Training" || !strings.HasPrefix(topics[3].Summary, "`repertoire train <id>`") {
		t.Fatalf("unexpected training topic: %#v", topics[3])
	}
}

func TestGet_NamesAndAliases(t *testing.T) {
	for _, tp := range Topics() {
		body, ok := Get(strings.ToUpper(tp.Name))
		if !ok || !strings.HasPrefix(body, "# ") {
			t.Fatalf("topic %q: ok=%v body=%q", tp.Name, ok, body)
		}
	}
	for alias, want := range map[string]string{"PGN": "lines", "drill": "training", "roots": "folders", "sync": "sharing"} {
		if got, ok := Resolve(alias); !ok || got != want {
			t.Fatalf("Resolve(%q) = %q, %v; want %q", alias, got, ok, want)
		}
	}
	if _, ok := Get("nope"); ok {
		t.Fatalf("expected unknown topic to be missing")
	}
	if _, ok := Get("../docs"); ok {
		t.Fatalf("expected path-like topic to be missing")
	}
}
