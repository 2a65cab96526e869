package mdlex

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// smartypantsRules are applied in order; the quote rules rely on the dashes
// having been replaced first.
var smartypantsRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`---`), "—"},
	{regexp.MustCompile(`--`), "–"},
	{regexp.MustCompile(`(^|[-\x{2014}/(\[{"\s])'`), "${1}‘"},
	{regexp.MustCompile(`'`), "’"},
	{regexp.MustCompile(`(^|[-\x{2014}/(\[{\x{2018}\s])"`), "${1}“"},
	{regexp.MustCompile(`"`), "”"},
	{regexp.MustCompile(`\.{3}`), "…"},
}

// smartypants replaces ASCII quotes, dashes and ellipses with their
// typographic forms.
func smartypants(s string) string {
	if strings.IndexAny(s, "-'\".") < 0 {
		return s
	}
	for _, r := range smartypantsRules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// mangle encodes every character of s as a numeric character reference.
// Whether a character uses the decimal or hexadecimal form is taken from the
// BLAKE3 hash of s, so output is stable for equal input.
func mangle(s string) string {
	sum := blake3.Sum256([]byte(s))
	var b strings.Builder
	b.Grow(len(s) * 6)
	i := 0
	for _, r := range s {
		bits := sum[(i/8)%len(sum)]
		b.WriteString("&#")
		if bits>>(i%8)&1 == 1 {
			b.WriteByte('x')
			b.WriteString(strconv.FormatInt(int64(r), 16))
		} else {
			b.WriteString(strconv.Itoa(int(r)))
		}
		b.WriteByte(';')
		i++
	}
	return b.String()
}

func isEmailAutolink(t *Token) bool {
	if t.Type != TokenLink || !strings.HasPrefix(t.Href, "mailto:") || t.Href[len("mailto:"):] != t.Text {
		return false
	}
	return t.Raw == t.Text || t.Raw == "<"+t.Text+">"
}

// textPass applies smartypants and mangling to finished inline tokens. Text
// following an opening raw HTML tag such as <pre> or <kbd> is left alone.
func textPass(tokens []Token, opts *Options) {
	if !opts.Smartypants && !opts.Mangle {
		return
	}
	rawBlock := false
	var walk func([]Token)
	walk = func(tokens []Token) {
		for i := range tokens {
			t := &tokens[i]
			switch t.Type {
			case TokenHTML:
				rawBlock = t.InRawBlock
			case TokenText:
				if opts.Smartypants && !rawBlock {
					t.Text = smartypants(t.Text)
				}
			case TokenImage:
				if opts.Smartypants {
					t.Text = smartypants(t.Text)
				}
			case TokenLink:
				if opts.Mangle && isEmailAutolink(t) {
					m := mangle(t.Text)
					t.Href = mangle(t.Href)
					t.Text = m
					for j := range t.Tokens {
						t.Tokens[j].Text = m
					}
					continue
				}
			}
			walk(t.Tokens)
		}
	}
	walk(tokens)
}
