// Package tokdump writes token trees as indented outlines. The outline names
// each token with the attributes that matter to a renderer and is the format
// of the testdata golden files.
package tokdump

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"pkt.systems/mdlex"
)

// Write writes one line per token to w, children indented by two spaces.
// Table cells appear under "header" and "row" lines.
func Write(w io.Writer, tokens []mdlex.Token) error {
	d := dumper{w: w}
	d.tokens(tokens, 0)
	return d.err
}

// String returns the outline of tokens.
func String(tokens []mdlex.Token) string {
	var b strings.Builder
	_ = Write(&b, tokens)
	return b.String()
}

// GoldenOptions are the options the testdata golden files are lexed with.
// Mangling is off so email addresses stay readable.
func GoldenOptions() []mdlex.Option {
	return []mdlex.Option{mdlex.WithFrontMatter(true), mdlex.WithMangle(false)}
}

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) line(depth int, s string) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), s)
}

func (d *dumper) tokens(tokens []mdlex.Token, depth int) {
	for i := range tokens {
		d.token(&tokens[i], depth)
	}
}

func (d *dumper) token(t *mdlex.Token, depth int) {
	d.line(depth, t.Type.String()+attrs(t)+content(t))
	if t.Type != mdlex.TokenTable {
		d.tokens(t.Tokens, depth+1)
		return
	}
	d.line(depth+1, "header")
	d.cells(t.Header, depth+2)
	for _, row := range t.Rows {
		d.line(depth+1, "row")
		d.cells(row, depth+2)
	}
}

func (d *dumper) cells(cells []mdlex.TableCell, depth int) {
	for _, c := range cells {
		d.line(depth, fmt.Sprintf("cell %q", c.Text))
		d.tokens(c.Tokens, depth+1)
	}
}

func attrs(t *mdlex.Token) string {
	var b strings.Builder
	switch t.Type {
	case mdlex.TokenHeading:
		fmt.Fprintf(&b, " depth=%d", t.Depth)
	case mdlex.TokenCode:
		b.WriteString(" " + t.CodeBlockStyle)
		if t.Lang != "" {
			b.WriteString(" lang=" + t.Lang)
		}
	case mdlex.TokenList:
		if t.Ordered {
			fmt.Fprintf(&b, " ordered start=%d", t.Start)
		}
		if t.Loose {
			b.WriteString(" loose")
		}
	case mdlex.TokenListItem:
		if t.Task {
			b.WriteString(" task")
		}
		if t.Checked {
			b.WriteString(" checked")
		}
	case mdlex.TokenLink, mdlex.TokenImage:
		fmt.Fprintf(&b, " href=%q", t.Href)
		if t.Title != "" {
			fmt.Fprintf(&b, " title=%q", t.Title)
		}
	case mdlex.TokenDef:
		fmt.Fprintf(&b, " label=%q href=%q", t.Tag, t.Href)
		if t.Title != "" {
			fmt.Fprintf(&b, " title=%q", t.Title)
		}
	case mdlex.TokenHTML:
		if t.Pre {
			b.WriteString(" pre")
		}
		if t.InLink {
			b.WriteString(" in_link")
		}
		if t.InRawBlock {
			b.WriteString(" in_raw_block")
		}
	case mdlex.TokenTable:
		names := make([]string, len(t.Align))
		for i, a := range t.Align {
			names[i] = string(a)
			if a == mdlex.AlignNone {
				names[i] = "none"
			}
		}
		b.WriteString(" align=" + strings.Join(names, ","))
	case mdlex.TokenFrontMatter:
		keys := make([]string, 0, len(t.Meta))
		for k := range t.Meta {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		b.WriteString(" meta=" + strings.Join(keys, ","))
	}
	return b.String()
}

// content is the quoted text shown after the attributes. Space tokens show
// their raw text; containers show none.
func content(t *mdlex.Token) string {
	switch t.Type {
	case mdlex.TokenSpace:
		return fmt.Sprintf(" %q", t.Raw)
	case mdlex.TokenBlockquote, mdlex.TokenList, mdlex.TokenListItem, mdlex.TokenTable,
		mdlex.TokenHr, mdlex.TokenBr, mdlex.TokenDef, mdlex.TokenFrontMatter:
		return ""
	}
	if t.Text == "" {
		return ""
	}
	return fmt.Sprintf(" %q", t.Text)
}
