package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/reflow/ansi"
	"pkt.systems/mdlex"
)

const treeIndent = "  "

// writeTree prints one line per token, children indented below their
// parent. Lines are clipped to width.
func writeTree(w io.Writer, tokens []mdlex.Token, width int) error {
	tw := &treeWriter{w: w, width: width}
	tw.tokens(tokens, 0)
	return tw.err
}

type treeWriter struct {
	w     io.Writer
	width int
	err   error
}

func (tw *treeWriter) line(depth int, head, preview string) {
	if tw.err != nil {
		return
	}
	prefix := strings.Repeat(treeIndent, depth) + head
	if preview != "" {
		room := tw.width - ansi.PrintableRuneWidth(prefix) - 1
		if room > 0 {
			prefix += " " + truncateWithEllipsis(preview, room)
		}
	}
	_, tw.err = fmt.Fprintln(tw.w, truncateWithEllipsis(prefix, tw.width))
}

func (tw *treeWriter) tokens(tokens []mdlex.Token, depth int) {
	for i := range tokens {
		tw.token(&tokens[i], depth)
	}
}

func (tw *treeWriter) token(t *mdlex.Token, depth int) {
	tw.line(depth, tw.head(t), preview(t))
	if t.Type == mdlex.TokenTable {
		tw.line(depth+1, "header", "")
		tw.cells(t.Header, depth+2)
		for i, row := range t.Rows {
			tw.line(depth+1, "row "+strconv.Itoa(i+1), "")
			tw.cells(row, depth+2)
		}
		return
	}
	tw.tokens(t.Tokens, depth+1)
}

func (tw *treeWriter) cells(cells []mdlex.TableCell, depth int) {
	for _, cell := range cells {
		tw.line(depth, "cell", strconv.Quote(cell.Text))
		tw.tokens(cell.Tokens, depth+1)
	}
}

// head renders the token type and the attributes that matter for it.
func (tw *treeWriter) head(t *mdlex.Token) string {
	var attrs []string
	add := func(format string, args ...any) {
		attrs = append(attrs, fmt.Sprintf(format, args...))
	}
	switch t.Type {
	case mdlex.TokenHeading:
		add("depth=%d", t.Depth)
	case mdlex.TokenCode:
		add("style=%s", t.CodeBlockStyle)
		if t.Lang != "" {
			add("lang=%s", t.Lang)
		}
	case mdlex.TokenList:
		if t.Ordered {
			add("ordered start=%d", t.Start)
		}
		if t.Loose {
			add("loose")
		}
	case mdlex.TokenListItem:
		if t.Task {
			add("task checked=%t", t.Checked)
		}
	case mdlex.TokenTable:
		aligns := make([]string, len(t.Align))
		for i, a := range t.Align {
			aligns[i] = string(a)
			if a == mdlex.AlignNone {
				aligns[i] = "none"
			}
		}
		add("align=[%s]", strings.Join(aligns, ","))
	case mdlex.TokenHTML:
		if t.Pre {
			add("pre")
		}
		if t.InLink {
			add("in-link")
		}
		if t.InRawBlock {
			add("in-raw-block")
		}
	case mdlex.TokenLink, mdlex.TokenImage, mdlex.TokenDef:
		if t.Tag != "" {
			add("label=%s", strconv.Quote(t.Tag))
		}
		add("href=%s", fitURL(t.Href, max(tw.width/3, 8)))
		if t.Title != "" {
			add("title=%s", strconv.Quote(t.Title))
		}
	}
	if len(attrs) == 0 {
		return t.Type.String()
	}
	return t.Type.String() + " " + strings.Join(attrs, " ")
}

func preview(t *mdlex.Token) string {
	switch t.Type {
	case mdlex.TokenSpace, mdlex.TokenHr, mdlex.TokenBr, mdlex.TokenTable,
		mdlex.TokenList, mdlex.TokenBlockquote, mdlex.TokenDef:
		return ""
	case mdlex.TokenHTML:
		return strconv.Quote(t.Raw)
	}
	if t.Text == "" {
		return ""
	}
	return strconv.Quote(t.Text)
}

func truncateWithEllipsis(text string, limit int) string {
	if ansi.PrintableRuneWidth(text) <= limit {
		return text
	}
	if limit <= 0 {
		return ""
	}
	if limit == 1 {
		return "…"
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

// fitURL drops the scheme before truncating a URL that does not fit.
func fitURL(url string, limit int) string {
	if ansi.PrintableRuneWidth(url) <= limit {
		return url
	}
	if idx := strings.Index(url, "://"); idx != -1 {
		trimmed := url[idx+3:]
		if ansi.PrintableRuneWidth(trimmed) <= limit {
			return trimmed
		}
	}
	return truncateWithEllipsis(url, limit)
}
