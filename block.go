package mdlex

import (
	"slices"
	"strings"
)

// blockLexer splits normalized source into block tokens. Link reference
// definitions found at any depth are recorded in refs.
type blockLexer struct {
	opts   *Options
	mode   mode
	refs   *LinkTableBuilder
	budget *budget
	depth  int

	// off is the offset of the remaining source within the text being lexed.
	// lazy holds the sorted offsets of the lazy continuation lines of that text.
	off  int
	lazy []int
}

func (l *blockLexer) reset(opts *Options, refs *LinkTableBuilder, b *budget) {
	l.opts = opts
	l.mode = opts.mode()
	l.refs = refs
	l.budget = b
	l.depth = 0
	l.off = 0
	l.lazy = nil
}

// blockTokens appends the block tokens of src to tokens. Every rule stops
// before the line terminator of its last line; that terminator is folded into
// the previous token's raw text by the space rule.
func (l *blockLexer) blockTokens(src string, tokens []Token) []Token {
	for len(src) > 0 {
		if n := matchSpace(src); n > 0 {
			if src[:n] == "\n" && len(tokens) > 0 {
				tokens[len(tokens)-1].Raw += "\n"
			} else {
				tokens = append(tokens, Token{Type: TokenSpace, Raw: src[:n]})
			}
			src = src[n:]
			l.off += n
			continue
		}
		tok, n := l.next(src)
		tokens = append(tokens, tok)
		src = src[n:]
		l.off += n
	}
	return tokens
}

// next applies the block rules in priority order and returns the first match.
// The final fallback consumes one line, so next always makes progress.
func (l *blockLexer) next(src string) (Token, int) {
	if tok, n, ok := l.code(src); ok {
		return tok, n
	}
	if tok, n, ok := l.fences(src); ok {
		return tok, n
	}
	if tok, n, ok := l.heading(src); ok {
		return tok, n
	}
	if tok, n, ok := l.hr(src); ok {
		return tok, n
	}
	if tok, n, ok := l.blockquote(src); ok {
		return tok, n
	}
	if tok, n, ok := l.list(src); ok {
		return tok, n
	}
	if tok, n, ok := l.html(src); ok {
		return tok, n
	}
	if tok, n, ok := l.lheading(src); ok {
		return tok, n
	}
	if l.mode == modeGFM {
		if tok, n, ok := l.table(src); ok {
			return tok, n
		}
	}
	if tok, n, ok := l.def(src); ok {
		return tok, n
	}
	if tok, n, ok := l.paragraph(src); ok {
		return tok, n
	}
	line, _ := lineAt(src, 0)
	if line == "" {
		line = src[:1]
	}
	return Token{Type: TokenText, Raw: line, Text: line}, len(line)
}

// nested lexes the content of a container block. lazy lists the offsets of
// the lines in text that were taken as lazy continuation lines.
func (l *blockLexer) nested(text string, lazy []int) []Token {
	l.budget.spend(RuleContainer, len(text))
	if l.depth >= maxNestingDepth {
		throw(&RuleTimeoutError{Rule: RuleContainer, Depth: l.depth})
	}
	off, outer := l.off, l.lazy
	l.depth++
	l.off, l.lazy = 0, lazy
	tokens := l.blockTokens(text, nil)
	l.off, l.lazy = off, outer
	l.depth--
	return tokens
}

// isLazy reports whether the line at pos of the remaining source is a lazy
// continuation line of the enclosing container.
func (l *blockLexer) isLazy(pos int) bool {
	if len(l.lazy) == 0 {
		return false
	}
	_, ok := slices.BinarySearch(l.lazy, l.off+pos)
	return ok
}

func (l *blockLexer) code(src string) (Token, int, bool) {
	m, ok := matchIndentedCode(src)
	if !ok {
		return Token{}, 0, false
	}
	return Token{
		Type:           TokenCode,
		Raw:            src[:m.n],
		CodeBlockStyle: CodeBlockIndented,
		Text:           m.text,
	}, m.n, true
}

func (l *blockLexer) fences(src string) (Token, int, bool) {
	m, ok := matchFencedCode(src)
	if !ok {
		return Token{}, 0, false
	}
	return Token{
		Type:           TokenCode,
		Raw:            src[:m.n],
		Lang:           m.lang,
		CodeBlockStyle: CodeBlockFenced,
		Text:           m.text,
	}, m.n, true
}

func (l *blockLexer) heading(src string) (Token, int, bool) {
	line, _ := lineAt(src, 0)
	depth, text, ok := parseHeading(line, l.mode)
	if !ok {
		return Token{}, 0, false
	}
	return Token{
		Type:   TokenHeading,
		Raw:    line,
		Depth:  depth,
		Text:   text,
		Anchor: l.opts.HeaderIDs,
	}, len(line), true
}

func (l *blockLexer) hr(src string) (Token, int, bool) {
	line, _ := lineAt(src, 0)
	if !isThematicBreak(line) {
		return Token{}, 0, false
	}
	return Token{Type: TokenHr, Raw: line}, len(line), true
}

func (l *blockLexer) html(src string) (Token, int, bool) {
	m, ok := matchHTMLBlock(src, l.budget)
	if !ok {
		return Token{}, 0, false
	}
	raw := src[:m.n]
	if l.opts.Sanitize {
		return Token{
			Type:   TokenParagraph,
			Raw:    raw,
			Text:   raw,
			Tokens: []Token{{Type: TokenText, Raw: raw, Text: raw}},
		}, m.n, true
	}
	return Token{Type: TokenHTML, Raw: raw, Text: raw, Pre: m.pre}, m.n, true
}

func (l *blockLexer) lheading(src string) (Token, int, bool) {
	if _, ok := matchDef(src); ok {
		return Token{}, 0, false
	}
	m, ok := matchSetextHeading(src, l.mode, l.isLazy)
	if !ok {
		return Token{}, 0, false
	}
	return Token{
		Type:   TokenHeading,
		Raw:    src[:m.n],
		Depth:  m.depth,
		Text:   m.text,
		Anchor: l.opts.HeaderIDs,
	}, m.n, true
}

func (l *blockLexer) table(src string) (Token, int, bool) {
	m, ok := matchTable(src, l.mode, l.isLazy)
	if !ok {
		return Token{}, 0, false
	}
	l.budget.spend(RuleTable, (len(m.rows)+1)*len(m.align))
	tok := Token{
		Type:   TokenTable,
		Raw:    src[:m.n],
		Align:  m.align,
		Header: make([]TableCell, len(m.header)),
		Rows:   make([][]TableCell, len(m.rows)),
	}
	for i, text := range m.header {
		tok.Header[i] = TableCell{Text: text}
	}
	for i, row := range m.rows {
		cells := make([]TableCell, len(row))
		for j, text := range row {
			cells[j] = TableCell{Text: text}
		}
		tok.Rows[i] = cells
	}
	return tok, m.n, true
}

func (l *blockLexer) def(src string) (Token, int, bool) {
	line, _ := lineAt(src, 0)
	l.budget.spend(RuleDef, len(line))
	m, ok := matchDef(src)
	if !ok {
		return Token{}, 0, false
	}
	l.refs.Add(m.label, m.href, m.title)
	return Token{
		Type:  TokenDef,
		Raw:   src[:m.n],
		Tag:   NormalizeLabel(m.label),
		Href:  m.href,
		Title: m.title,
	}, m.n, true
}

func (l *blockLexer) paragraph(src string) (Token, int, bool) {
	m, ok := matchParagraph(src, l.mode, l.isLazy)
	if !ok {
		return Token{}, 0, false
	}
	return Token{Type: TokenParagraph, Raw: src[:m.n], Text: m.text}, m.n, true
}

// containerState follows the content of a block quote or list item line by
// line, tracking whether a paragraph is open for lazy continuation lines.
type containerState struct {
	fence    fenceOpen
	inFence  bool
	paraOpen bool
}

func (c *containerState) feed(line string, m mode) {
	if c.inFence {
		if isFenceClose(line, c.fence) {
			c.inFence = false
		}
		return
	}
	if isBlank(line) {
		c.paraOpen = false
		return
	}
	if f, ok := parseFenceOpen(line); ok {
		c.fence = f
		c.inFence = true
		c.paraOpen = false
		return
	}
	if indent, _ := leadingIndentCount(line); indent > 3 {
		return
	}
	if c.paraOpen && !interruptsParagraph(line, m) {
		return
	}
	if rest, ok := stripQuoteMarker(line); ok {
		c.paraOpen = !isBlank(rest)
		return
	}
	if lm, ok := parseListMarker(line, m); ok && !isThematicBreak(line) {
		c.paraOpen = !lm.blank
		return
	}
	if _, _, ok := parseHeading(line, m); ok {
		c.paraOpen = false
		return
	}
	if isThematicBreak(line) {
		c.paraOpen = false
		return
	}
	if _, ok := htmlBlockStart(line); ok {
		c.paraOpen = false
		return
	}
	c.paraOpen = true
}

// lazy reports whether an unmarked line continues the open paragraph.
func (c *containerState) lazy(line string, m mode) bool {
	return c.paraOpen && !c.inFence && !interruptsParagraph(line, m)
}

func (l *blockLexer) blockquote(src string) (Token, int, bool) {
	first, _ := lineAt(src, 0)
	if _, ok := stripQuoteMarker(first); !ok {
		return Token{}, 0, false
	}
	var (
		lines []string
		lazy  []int
		state containerState
		end   int
		off   int
	)
	for pos := 0; pos < len(src); {
		line, next := lineAt(src, pos)
		if rest, ok := stripQuoteMarker(line); ok {
			lines = append(lines, rest)
			state.feed(rest, l.mode)
		} else if state.lazy(line, l.mode) {
			lines = append(lines, line)
			lazy = append(lazy, off)
		} else {
			break
		}
		off += len(lines[len(lines)-1]) + 1
		end = pos + len(line)
		pos = next
	}
	text := strings.Join(lines, "\n")
	return Token{
		Type:   TokenBlockquote,
		Raw:    src[:end],
		Text:   text,
		Tokens: l.nested(text, lazy),
	}, end, true
}
