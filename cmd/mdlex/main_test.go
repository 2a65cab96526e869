package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pkt.systems/mdlex"
)

func TestReadInputsConcatenates(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.md")
	second := filepath.Join(dir, "b.md")
	if err := os.WriteFile(first, []byte("one "), 0o644); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := os.WriteFile(second, []byte("two"), 0o644); err != nil {
		t.Fatalf("write second: %v", err)
	}
	src, err := readInputs(strings.NewReader(" and stdin "), []string{first, "-", second})
	if err != nil {
		t.Fatalf("readInputs: %v", err)
	}
	if string(src) != "one  and stdin two" {
		t.Fatalf("unexpected concatenated content: %q", string(src))
	}
}

func TestReadInputsDefaultsToStdin(t *testing.T) {
	src, err := readInputs(strings.NewReader("# piped\n"), nil)
	if err != nil {
		t.Fatalf("readInputs: %v", err)
	}
	if string(src) != "# piped\n" {
		t.Fatalf("unexpected stdin content: %q", string(src))
	}
	if _, err := readInputs(strings.NewReader(""), []string{"  "}); err == nil {
		t.Fatalf("expected error for empty argument")
	}
	if _, err := readInputs(strings.NewReader(""), []string{filepath.Join(t.TempDir(), "missing.md")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResolveOutputCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.txt")
	w, closer, err := resolveOutput(path)
	if err != nil {
		t.Fatalf("resolveOutput: %v", err)
	}
	if _, err := io.WriteString(w, "ok"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "ok" {
		t.Fatalf("unexpected output %q (%v)", got, err)
	}
}

func TestEncoderForRejectsUnknownFormat(t *testing.T) {
	for _, format := range []string{"tree", "json", "yaml", ""} {
		if _, err := encoderFor(format); err != nil {
			t.Fatalf("encoderFor(%q): %v", format, err)
		}
	}
	if _, err := encoderFor("xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestWriteTreeShowsNesting(t *testing.T) {
	doc, err := mdlex.Lex("# Title\n\n- a *b*\n")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	var out bytes.Buffer
	if err := writeTree(&out, doc.Tokens, 80); err != nil {
		t.Fatalf("writeTree: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	want := []string{
		`heading depth=1 "Title"`,
		`  text "Title"`,
		`space`,
		`list`,
		`  list_item "a *b*"`,
		`    text "a *b*"`,
		`      text "a "`,
		`      em "b"`,
		`        text "b"`,
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTreeClipsToWidth(t *testing.T) {
	doc, err := mdlex.Lex(strings.Repeat("word ", 40) + "\n")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	var out bytes.Buffer
	if err := writeTree(&out, doc.Tokens, 30); err != nil {
		t.Fatalf("writeTree: %v", err)
	}
	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		if n := len([]rune(line)); n > 30 {
			t.Fatalf("line exceeds width (%d): %q", n, line)
		}
		if !strings.HasSuffix(line, "…") {
			t.Fatalf("expected truncated line, got %q", line)
		}
	}
}

func TestWriteDocumentJSON(t *testing.T) {
	doc, err := mdlex.Lex("[x]\n\n[x]: /url \"t\"\n")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	var out bytes.Buffer
	if err := writeDocument(&out, "json", doc, 80); err != nil {
		t.Fatalf("writeDocument: %v", err)
	}
	var decoded struct {
		Tokens []struct {
			Type string `json:"type"`
		} `json:"tokens"`
		Links map[string]mdlex.Link `json:"links"`
	}
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if len(decoded.Tokens) == 0 || decoded.Tokens[0].Type != "paragraph" {
		t.Fatalf("unexpected tokens: %+v", decoded.Tokens)
	}
	if diff := cmp.Diff(map[string]mdlex.Link{"x": {Href: "/url", Title: "t"}}, decoded.Links); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteLinksTree(t *testing.T) {
	links, err := mdlex.ScanReferences("[Foo]: /a\n[bar]: /b 'B'\n")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var out bytes.Buffer
	if err := writeLinks(&out, "tree", links); err != nil {
		t.Fatalf("writeLinks: %v", err)
	}
	want := "[foo]: /a\n[bar]: /b \"B\"\n"
	if out.String() != want {
		t.Fatalf("unexpected links output:\n%q\nwant\n%q", out.String(), want)
	}
}

func TestLexDocumentFallsBackOnTimeout(t *testing.T) {
	src := "> " + strings.Repeat("quoted ", 200) + "\n"
	lexer := mdlex.NewLexer(mdlex.WithStepLimit(16))
	logger := slog.New(slog.DiscardHandler)
	doc, err := lexDocument(lexer, src, logger)
	if err != nil {
		t.Fatalf("lexDocument: %v", err)
	}
	if len(doc.Tokens) != 1 || doc.Tokens[0].Type != mdlex.TokenParagraph {
		t.Fatalf("expected single paragraph fallback, got %d tokens", len(doc.Tokens))
	}
	if doc.Raw() != src {
		t.Fatalf("fallback raw mismatch")
	}
}

func TestFitURLDropsScheme(t *testing.T) {
	if got := fitURL("https://example.com/a", 19); got != "example.com/a" {
		t.Fatalf("fitURL = %q", got)
	}
	if got := fitURL("https://example.com/abcdef", 8); got != "https:/…" {
		t.Fatalf("fitURL = %q", got)
	}
}
