package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Name  string   `json:"name"`
	Notes []string `json:"notes"`
	Ply   int      `json:"ply"`
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": sample{Name: "Najdorf", Notes: []string{""}, Ply: 10}}, "json", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := `{"data":{"name":"Najdorf","notes":[""],"ply":10}}` + "\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestWrite_YAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": sample{Name: "Najdorf", Notes: []string{}, Ply: 10}}, "yaml", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"data:", "  name: Najdorf", "  ply: 10", "  notes: []"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, 1, "edn", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if Valid("edn") || !Valid("yaml") {
		t.Fatalf("Valid disagrees with Write")
	}
}
