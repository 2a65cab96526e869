package mdlex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func corpusPaths(t *testing.T) []string {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join("testdata", "*.md"))
	if err != nil {
		t.Fatalf("glob testdata: %v", err)
	}
	if len(paths) == 0 {
		t.Fatalf("no markdown files found under testdata")
	}
	return paths
}

// TestCorpusInvariants lexes every testdata/*.md file and checks the
// structural invariants of the result.
func TestCorpusInvariants(t *testing.T) {
	for _, path := range corpusPaths(t) {
		t.Run(filepath.Base(path), func(t *testing.T) {
			src, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read %s: %v", path, err)
			}
			for _, mangle := range []bool{false, true} {
				doc, err := LexBytes(src, WithFrontMatter(true), WithMangle(mangle))
				if err != nil {
					t.Fatalf("lex %s: %v", path, err)
				}
				checkDocumentInvariants(t, string(src), doc)
			}
		})
	}
}

func checkDocumentInvariants(t *testing.T, src string, doc *Document) {
	t.Helper()
	if diff := cmp.Diff(Normalize(src), doc.Raw()); diff != "" {
		t.Fatalf("raw round trip (-want +got):\n%s", diff)
	}
	Walk(doc.Tokens, func(tok *Token) bool {
		switch tok.Type {
		case TokenHeading:
			if tok.Depth < 1 || tok.Depth > 6 {
				t.Fatalf("heading depth %d out of range: %q", tok.Depth, tok.Raw)
			}
		case TokenTable:
			if len(tok.Align) != len(tok.Header) {
				t.Fatalf("table has %d aligns for %d header cells", len(tok.Align), len(tok.Header))
			}
			for i, row := range tok.Rows {
				if len(row) != len(tok.Header) {
					t.Fatalf("table row %d has %d cells, header has %d", i, len(row), len(tok.Header))
				}
			}
		}
		return true
	})
	checkBlockInlines(t, doc.Tokens)
}

// checkBlockInlines requires the inline tokens of every leaf block to
// partition its text and emphasis to stay inside its delimiters.
func checkBlockInlines(t *testing.T, blocks []Token) {
	t.Helper()
	for i := range blocks {
		b := &blocks[i]
		switch b.Type {
		case TokenParagraph, TokenHeading, TokenText:
			checkInlines(t, b.Text, b.Tokens)
		case TokenTable:
			for _, c := range b.Header {
				checkInlines(t, c.Text, c.Tokens)
			}
			for _, row := range b.Rows {
				for _, c := range row {
					checkInlines(t, c.Text, c.Tokens)
				}
			}
		case TokenBlockquote, TokenList, TokenListItem:
			checkBlockInlines(t, b.Tokens)
		}
	}
}

func checkInlines(t *testing.T, text string, tokens []Token) {
	t.Helper()
	if got := concatRaw(tokens); got != text {
		t.Fatalf("inline raw %q does not cover block text %q", got, text)
	}
	Walk(tokens, func(tok *Token) bool {
		switch tok.Type {
		case TokenEm, TokenStrong, TokenDel:
			if got := concatRaw(tok.Tokens); got != tok.Text {
				t.Fatalf("%s children %q != %q", tok.Type, got, tok.Text)
			}
			n := (len(tok.Raw) - len(tok.Text)) / 2
			if n < 1 || tok.Raw[n:len(tok.Raw)-n] != tok.Text {
				t.Fatalf("%s raw %q does not wrap %q", tok.Type, tok.Raw, tok.Text)
			}
		}
		return true
	})
}

func TestCorpusFrontMatterMeta(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "frontmatter.md"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	doc, err := LexBytes(src, WithFrontMatter(true))
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if len(doc.Tokens) == 0 || doc.Tokens[0].Type != TokenFrontMatter {
		t.Fatalf("expected leading front_matter token, got %v", doc.Tokens)
	}
	if title := doc.Tokens[0].Meta["title"]; title != "Front matter" {
		t.Fatalf("unexpected title %v", title)
	}
}
