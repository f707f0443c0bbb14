package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newTestPrinter(format Format) (*Printer, *bytes.Buffer) {
	p := NewPrinter(format)
	p.noColor = true
	buf := &bytes.Buffer{}
	p.SetWriter(buf)
	return p, buf
}

func TestRenderText(t *testing.T) {
	p, buf := newTestPrinter(FormatText)
	if err := p.Render("", map[string]any{"b": 2, "a": 1}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "a:") || !strings.Contains(out, "b:") {
		t.Fatalf("output = %q", out)
	}
	if strings.Index(out, "a:") > strings.Index(out, "b:") {
		t.Fatal("map keys must render sorted")
	}
}

func TestRenderJSON(t *testing.T) {
	p, buf := newTestPrinter(FormatJSON)
	if err := p.Render("", map[string]any{"ok": true}); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if decoded["ok"] != true {
		t.Fatalf("decoded = %v", decoded)
	}
}

func TestRenderYAML(t *testing.T) {
	p, buf := newTestPrinter(FormatYAML)
	if err := p.Render("", map[string]any{"name": "web01"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "name: web01") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestQuietSuppressesEverything(t *testing.T) {
	p, buf := newTestPrinter(FormatText)
	p.SetQuiet(true)
	p.Render("label", "value")
	p.RenderError("oops")
	p.RenderDocs(map[string]string{"a.b": "doc"})
	if buf.Len() != 0 {
		t.Fatalf("quiet printer wrote %q", buf.String())
	}
}

func TestRenderDocsSorted(t *testing.T) {
	p, buf := newTestPrinter(FormatText)
	if err := p.RenderDocs(map[string]string{"z.z": "last", "a.a": "first", "m.m": ""}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Index(out, "a.a") > strings.Index(out, "z.z") {
		t.Fatal("docs must render sorted by name")
	}
	if !strings.Contains(out, "(undocumented)") {
		t.Fatal("empty doc should render a placeholder")
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"json": FormatJSON,
		"YAML": FormatYAML,
		"yml":  FormatYAML,
		"text": FormatText,
		"":     FormatText,
	}
	for in, want := range cases {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", in, got, want)
		}
	}
}
