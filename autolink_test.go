package mdlex

import "testing"

func TestMatchExtAutolink(t *testing.T) {
	cases := []struct {
		in    string
		text  string
		href  string
		email bool
	}{
		{in: "www.commonmark.org", text: "www.commonmark.org", href: "http://www.commonmark.org"},
		{in: "www.commonmark.org/help?x=1.", text: "www.commonmark.org/help?x=1", href: "http://www.commonmark.org/help?x=1"},
		{in: "https://example.com/a_(b)) tail", text: "https://example.com/a_(b)", href: "https://example.com/a_(b)"},
		{in: "www.google.com/search?q=commonmark&hl;", text: "www.google.com/search?q=commonmark", href: "http://www.google.com/search?q=commonmark"},
		{in: "http://a.b<c", text: "http://a.b", href: "http://a.b"},
		{in: "foo@bar.example.com.", text: "foo@bar.example.com", href: "mailto:foo@bar.example.com", email: true},
		{in: "a.b-c_d@a.b", text: "a.b-c_d@a.b", href: "mailto:a.b-c_d@a.b", email: true},
		{in: "a.b-c_d@a.b-", text: ""},
		{in: "www.under_score.com", text: ""},
		{in: "plain text", text: ""},
	}
	for _, tc := range cases {
		n, href, email := matchExtAutolink(tc.in)
		if got := tc.in[:n]; got != tc.text {
			t.Fatalf("matchExtAutolink(%q) text = %q, want %q", tc.in, got, tc.text)
		}
		if n == 0 {
			continue
		}
		if href != tc.href || email != tc.email {
			t.Fatalf("matchExtAutolink(%q) = %q %v, want %q %v", tc.in, href, email, tc.href, tc.email)
		}
	}
}

func TestExtAutolinkNeedsBoundary(t *testing.T) {
	doc := mustLex(t, "xwww.example.com (www.example.com)", WithMangle(false))
	var hrefs []string
	Walk(doc.Tokens, func(tok *Token) bool {
		if tok.Type == TokenLink {
			hrefs = append(hrefs, tok.Href)
		}
		return true
	})
	if len(hrefs) != 1 || hrefs[0] != "http://www.example.com" {
		t.Fatalf("unexpected autolinks %q", hrefs)
	}
}
