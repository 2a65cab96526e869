package mdlex

import (
	"html"
	"testing"
)

func TestSmartypants(t *testing.T) {
	cases := map[string]string{
		"a -- b --- c":   "a – b — c",
		"'single'":       "‘single’",
		`he said "hi"`:   "he said “hi”",
		"wait...":        "wait…",
		"plain":          "plain",
		"(\"x\") ['y']": "(“x”) [‘y’]",
	}
	for in, want := range cases {
		if got := smartypants(in); got != want {
			t.Fatalf("smartypants(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMangleIsStableAndDecodes(t *testing.T) {
	addr := "someone@example.com"
	first := mangle(addr)
	if first != mangle(addr) {
		t.Fatalf("mangle is not deterministic")
	}
	if !mangledRegexp.MatchString(first) {
		t.Fatalf("unexpected mangled form %q", first)
	}
	if got := html.UnescapeString(first); got != addr {
		t.Fatalf("mangled text decodes to %q", got)
	}
}

func TestMangleAngleAutolink(t *testing.T) {
	doc := mustLex(t, "<a@b.co>")
	link := doc.Tokens[0].Tokens[0]
	if link.Type != TokenLink {
		t.Fatalf("expected link, got %s", link.Type)
	}
	if html.UnescapeString(link.Href) != "mailto:a@b.co" || html.UnescapeString(link.Text) != "a@b.co" {
		t.Fatalf("unexpected link %q %q", link.Href, link.Text)
	}
	if html.UnescapeString(link.Tokens[0].Text) != "a@b.co" {
		t.Fatalf("child text not mangled: %q", link.Tokens[0].Text)
	}
}

func TestMangleLeavesURLAutolinks(t *testing.T) {
	doc := mustLex(t, "<https://example.com>")
	if href := doc.Tokens[0].Tokens[0].Href; href != "https://example.com" {
		t.Fatalf("href = %q", href)
	}
}

func TestSmartypantsSkipsRawHTML(t *testing.T) {
	doc := mustLex(t, "<kbd>--</kbd> --", WithSmartypants(true))
	var texts []string
	Walk(doc.Tokens[0].Tokens, func(tok *Token) bool {
		if tok.Type == TokenText {
			texts = append(texts, tok.Text)
		}
		return true
	})
	if len(texts) != 2 || texts[0] != "--" || texts[1] != " –" {
		t.Fatalf("unexpected texts %q", texts)
	}
}
