package mdlex

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLexFrontMatterAtStart(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		body string
		meta map[string]any
	}{
		{
			name: "yaml",
			src:  "---\ntitle: Post\ncount: 3\n---\n\n# Hello\n\nBody.\n",
			body: "title: Post\ncount: 3\n",
			meta: map[string]any{"title": "Post", "count": 3},
		},
		{
			name: "toml",
			src:  "+++\ntitle = \"Post\"\n+++\n\n# Hello\n",
			body: "title = \"Post\"\n",
		},
		{
			name: "json",
			src:  ";;;\n{\"title\": \"Post\"}\n;;;\n\n# Hello\n",
			body: "{\"title\": \"Post\"}\n",
			meta: map[string]any{"title": "Post"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			doc := mustLex(t, tc.src, WithFrontMatter(true))
			fm := doc.Tokens[0]
			if fm.Type != TokenFrontMatter {
				t.Fatalf("expected front_matter, got %v", tokenTypes(doc.Tokens))
			}
			if fm.Text != tc.body {
				t.Fatalf("body = %q, want %q", fm.Text, tc.body)
			}
			if diff := cmp.Diff(tc.meta, fm.Meta); diff != "" {
				t.Fatalf("meta (-want +got):\n%s", diff)
			}
			if doc.Raw() != tc.src {
				t.Fatalf("raw = %q", doc.Raw())
			}
			var headings int
			Walk(doc.Tokens, func(tok *Token) bool {
				if tok.Type == TokenHeading && tok.Text == "Hello" {
					headings++
				}
				return true
			})
			if headings != 1 {
				t.Fatalf("expected the heading after front matter")
			}
		})
	}
}

func TestLexFrontMatterIsOnlyCheckedAtStart(t *testing.T) {
	t.Parallel()
	doc := mustLex(t, "# Intro\n\n+++\ntitle = \"Keep me\"\n+++\n\nTail\n", WithFrontMatter(true))
	for _, tok := range doc.Tokens {
		if tok.Type == TokenFrontMatter {
			t.Fatalf("front matter found after the first line")
		}
	}
}

func TestLexUnclosedFrontMatterIsNotConsumed(t *testing.T) {
	t.Parallel()
	doc := mustLex(t, "---\ntitle: x\n\nbody\n", WithFrontMatter(true))
	if doc.Tokens[0].Type == TokenFrontMatter {
		t.Fatalf("unclosed front matter consumed")
	}
}

func TestLexFrontMatterNeedsMetadata(t *testing.T) {
	t.Parallel()
	doc := mustLex(t, "---\nplain words\n---\n", WithFrontMatter(true))
	if doc.Tokens[0].Type != TokenHr {
		t.Fatalf("expected thematic break, got %s", doc.Tokens[0].Type)
	}
}

func TestLexFrontMatterDecodeFailureLogs(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	doc := mustLex(t, "---\ntitle: [unclosed\n---\nbody\n", WithFrontMatter(true), WithLogger(logger))
	fm := doc.Tokens[0]
	if fm.Type != TokenFrontMatter || fm.Meta != nil {
		t.Fatalf("expected undecoded front matter, got %+v", fm)
	}
	if !strings.Contains(logs.String(), "front matter not decoded") {
		t.Fatalf("missing warning in logs: %q", logs.String())
	}
}
