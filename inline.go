package mdlex

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// inlineLexer turns the text of one block into inline tokens. It builds a
// linked list of nodes over the source and resolves emphasis and links with a
// delimiter stack.
type inlineLexer struct {
	src    string
	pos    int
	opts   *Options
	mode   mode
	links  *LinkTable
	budget *budget

	nodes  nodeList
	delims delimStack

	inLink     bool
	inRawBlock bool

	// Closers known to be absent from the rest of the source.
	noBacktickRun map[int]bool
	noCloser      [4]bool
}

const (
	closerComment = iota
	closerInstruction
	closerDecl
	closerCDATA
)

func (p *inlineLexer) reset(src string, opts *Options, links *LinkTable, b *budget) {
	p.src = src
	p.pos = 0
	p.opts = opts
	p.mode = opts.mode()
	p.links = links
	p.budget = b
	p.nodes = nodeList{}
	p.delims.reset()
	p.inLink = false
	p.inRawBlock = false
	clear(p.noBacktickRun)
	p.noCloser = [4]bool{}
}

// tokenize lexes the whole source and returns the finished tokens.
func (p *inlineLexer) tokenize() []Token {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; c {
		case '\\':
			p.escape()
		case '`':
			p.codespan()
		case '<':
			p.angle()
		case '&':
			p.entity()
		case '*', '_':
			p.delimRun(c)
		case '~':
			if p.mode == modeGFM {
				p.delimRun(c)
			} else {
				p.text()
			}
		case '[':
			p.openBracket(false)
		case '!':
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '[' {
				p.openBracket(true)
			} else {
				p.text()
			}
		case ']':
			p.closeBracket()
		case '\n':
			p.lineBreak(p.pos, p.pos)
		case ' ':
			if end := p.spaceRunEnd(p.pos); end < len(p.src) && p.src[end] == '\n' {
				p.lineBreak(p.pos, end)
			} else {
				p.text()
			}
		default:
			if p.autolinkAllowed(p.pos) && p.extAutolink() {
				continue
			}
			p.text()
		}
	}
	p.processEmphasis(nil)
	return p.finish(p.nodes)
}

func (p *inlineLexer) push(tok Token, start, end int) *inode {
	n := &inode{tok: tok, start: start, end: end}
	p.nodes.push(n)
	return n
}

func (p *inlineLexer) pushText(start, end int) *inode {
	return p.push(Token{Type: TokenText, Text: p.src[start:end]}, start, end)
}

func (p *inlineLexer) spaceRunEnd(i int) int {
	for i < len(p.src) && p.src[i] == ' ' {
		i++
	}
	return i
}

// text consumes at least one byte of literal text and stops before the next
// byte that may start another construct.
func (p *inlineLexer) text() {
	start := p.pos
	i := start + 1
	for i < len(p.src) {
		c := p.src[i]
		if isInlineSpecial(c, p.mode) {
			break
		}
		if c == ' ' {
			end := p.spaceRunEnd(i)
			if end < len(p.src) && p.src[end] == '\n' {
				break
			}
			i = end
			continue
		}
		if p.autolinkAllowed(i) {
			if n, _, _ := matchExtAutolink(p.src[i:]); n > 0 {
				break
			}
		}
		i++
	}
	p.pushText(start, i)
	p.pos = i
}

func isInlineSpecial(c byte, m mode) bool {
	switch c {
	case '\\', '`', '<', '&', '*', '_', '[', ']', '!', '\n':
		return true
	case '~':
		return m == modeGFM
	}
	return false
}

func (p *inlineLexer) escape() {
	start := p.pos
	if start+1 < len(p.src) {
		c := p.src[start+1]
		if isASCIIPunct(c) {
			p.push(Token{Type: TokenEscape, Text: string(c)}, start, start+2)
			p.pos = start + 2
			return
		}
		if c == '\n' {
			p.push(Token{Type: TokenBr}, start, start+2)
			p.pos = p.skipIndent(start + 2)
			return
		}
	}
	p.pushText(start, start+1)
	p.pos = start + 1
}

// lineBreak handles a line ending preceded by the spaces in src[start:nl].
func (p *inlineLexer) lineBreak(start, nl int) {
	if nl-start >= 2 || p.opts.Breaks {
		p.push(Token{Type: TokenBr}, start, nl+1)
		p.pos = p.skipIndent(nl + 1)
		return
	}
	end := p.spaceRunEnd(nl + 1)
	p.push(Token{Type: TokenText, Text: "\n"}, start, end)
	p.pos = end
}

// skipIndent drops the leading spaces of a continuation line from the text.
func (p *inlineLexer) skipIndent(i int) int {
	end := p.spaceRunEnd(i)
	if end > i {
		p.push(Token{Type: TokenText}, i, end)
	}
	return end
}

func (p *inlineLexer) codespan() {
	start := p.pos
	n := 1
	for start+n < len(p.src) && p.src[start+n] == '`' {
		n++
	}
	closer := -1
	if !p.noBacktickRun[n] {
		closer = p.findBacktickRun(start+n, n)
	}
	if closer < 0 {
		if p.noBacktickRun == nil {
			p.noBacktickRun = make(map[int]bool)
		}
		p.noBacktickRun[n] = true
		p.pushText(start, start+n)
		p.pos = start + n
		return
	}
	text := normalizeCodeSpan(p.src[start+n : closer])
	p.push(Token{Type: TokenCodespan, Text: text}, start, closer+n)
	p.pos = closer + n
}

// findBacktickRun returns the offset of the next run of exactly n backticks at
// or after i, or -1.
func (p *inlineLexer) findBacktickRun(i, n int) int {
	for i < len(p.src) {
		j := strings.IndexByte(p.src[i:], '`')
		if j < 0 {
			p.budget.spend(RuleCodeSpan, len(p.src)-i)
			return -1
		}
		p.budget.spend(RuleCodeSpan, j+1)
		i += j
		k := i
		for k < len(p.src) && p.src[k] == '`' {
			k++
		}
		if k-i == n {
			return i
		}
		i = k
	}
	return -1
}

func normalizeCodeSpan(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) >= 2 && s[0] == ' ' && s[len(s)-1] == ' ' && strings.Trim(s, " ") != "" {
		s = s[1 : len(s)-1]
	}
	return s
}

func (p *inlineLexer) entity() {
	start := p.pos
	if ent := entityRegexp.FindString(p.src[start:]); ent != "" {
		if decoded := html.UnescapeString(ent); decoded != ent {
			p.push(Token{Type: TokenText, Text: decoded}, start, start+len(ent))
			p.pos = start + len(ent)
			return
		}
	}
	p.text()
}

func (p *inlineLexer) delimRun(c byte) {
	start := p.pos
	end := start + 1
	for end < len(p.src) && p.src[end] == c {
		end++
	}
	p.pos = end
	n := p.pushText(start, end)
	if c == '~' && end-start > 2 {
		return
	}
	canOpen, canClose := flanking(p.src, start, end, c, p.mode)
	if !canOpen && !canClose {
		return
	}
	n.delim = true
	p.delims.push(&delim{
		ch:       c,
		node:     n,
		n:        end - start,
		orig:     end - start,
		canOpen:  canOpen,
		canClose: canClose,
	})
}

// angle handles '<': autolinks and raw HTML, or a literal '<'.
func (p *inlineLexer) angle() {
	start := p.pos
	rest := p.src[start:]
	if m := autolinkRegexp.FindString(rest); m != "" {
		url := m[1 : len(m)-1]
		p.pushLink(url, url, start, start+len(m))
		p.pos = start + len(m)
		return
	}
	if m := emailAutolinkRegexp.FindString(rest); m != "" {
		addr := m[1 : len(m)-1]
		p.pushLink("mailto:"+addr, addr, start, start+len(m))
		p.pos = start + len(m)
		return
	}
	if n := p.rawHTML(rest); n > 0 {
		p.pushHTML(start, start+n)
		p.pos = start + n
		return
	}
	p.text()
}

// rawHTML returns the length of the inline HTML construct at the start of s.
func (p *inlineLexer) rawHTML(s string) int {
	switch {
	case strings.HasPrefix(s, "<!-->"):
		return 5
	case strings.HasPrefix(s, "<!--->"):
		return 6
	case strings.HasPrefix(s, "<!--"):
		return p.scanCloser(s, 4, "-->", closerComment)
	case strings.HasPrefix(s, "<?"):
		return p.scanCloser(s, 2, "?>", closerInstruction)
	case strings.HasPrefix(s, "<![CDATA["):
		return p.scanCloser(s, 9, "]]>", closerCDATA)
	case len(s) > 2 && s[1] == '!' && isASCIILetter(s[2]):
		return p.scanCloser(s, 2, ">", closerDecl)
	case strings.HasPrefix(s, "</"):
		return len(closingTagRegexp.FindString(s))
	}
	return len(openTagRegexp.FindString(s))
}

func (p *inlineLexer) scanCloser(s string, from int, closer string, kind int) int {
	if p.noCloser[kind] {
		return 0
	}
	i := strings.Index(s[from:], closer)
	if i < 0 {
		p.budget.spend(RuleInlineHTML, len(s))
		p.noCloser[kind] = true
		return 0
	}
	p.budget.spend(RuleInlineHTML, i+from)
	return from + i + len(closer)
}

func (p *inlineLexer) pushHTML(start, end int) {
	raw := p.src[start:end]
	if p.opts.Sanitize {
		p.push(Token{Type: TokenText, Text: raw}, start, end)
		return
	}
	if m := anchorTagRegexp.FindStringSubmatch(raw); m != nil {
		p.inLink = m[1] == ""
	} else if m := rawBlockTagRegexp.FindStringSubmatch(raw); m != nil {
		p.inRawBlock = m[1] == ""
	}
	p.push(Token{
		Type:       TokenHTML,
		Text:       raw,
		InLink:     p.inLink,
		InRawBlock: p.inRawBlock,
	}, start, end)
}

// pushLink adds an autolink whose visible text is the source text it covers.
func (p *inlineLexer) pushLink(href, text string, start, end int) {
	p.push(Token{
		Type:   TokenLink,
		Href:   href,
		Text:   text,
		Tokens: []Token{{Type: TokenText, Raw: text, Text: text}},
	}, start, end)
}

// autolinkAllowed reports whether an extended autolink may start at i.
func (p *inlineLexer) autolinkAllowed(i int) bool {
	return p.mode == modeGFM && p.delims.links == 0 && !p.inLink && p.autolinkBoundary(i)
}

func (p *inlineLexer) autolinkBoundary(i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(p.src[:i])
	switch r {
	case '*', '_', '~', '(':
		return true
	}
	return unicode.IsSpace(r)
}

func (p *inlineLexer) extAutolink() bool {
	n, href, _ := matchExtAutolink(p.src[p.pos:])
	if n == 0 {
		return false
	}
	p.pushLink(href, p.src[p.pos:p.pos+n], p.pos, p.pos+n)
	p.pos += n
	return true
}

func (p *inlineLexer) openBracket(image bool) {
	start := p.pos
	width := 1
	if image {
		width = 2
	}
	n := p.pushText(start, start+width)
	p.pos = start + width
	p.delims.push(&delim{
		ch:         '[',
		node:       n,
		image:      image,
		active:     true,
		labelStart: start + width,
	})
}

// closeBracket resolves ']' against the nearest bracket opener as an inline
// link, a full, collapsed or shortcut reference, or literal text.
func (p *inlineLexer) closeBracket() {
	pos := p.pos
	var opener *delim
	for d := p.delims.tail; d != nil; d = d.prev {
		p.budget.spend(RuleLink, 1)
		if d.bracket() {
			opener = d
			break
		}
	}
	if opener == nil {
		p.pushText(pos, pos+1)
		p.pos = pos + 1
		return
	}
	if !opener.active {
		p.delims.remove(opener)
		p.pushText(pos, pos+1)
		p.pos = pos + 1
		return
	}
	label := p.src[opener.labelStart:pos]
	after := pos + 1
	href, title, end, ok := p.linkTarget(label, after)
	if !ok {
		p.delims.remove(opener)
		p.pushText(pos, pos+1)
		p.pos = pos + 1
		return
	}

	p.processEmphasis(opener)
	on := opener.node
	children := p.nodes.cut(on, nil)
	n := &inode{tok: Token{Href: href, Title: title}, start: on.start, end: end}
	if opener.image {
		n.tok.Type = TokenImage
		n.tok.Text = plainText(p.finish(children))
	} else {
		n.tok.Type = TokenLink
		n.tok.Text = label
		n.children = children
	}
	p.nodes.insertAfter(on, n)
	p.nodes.remove(on)
	p.delims.remove(opener)
	if !opener.image {
		for d := p.delims.tail; d != nil; d = d.prev {
			if d.bracket() && !d.image {
				d.active = false
			}
		}
	}
	p.pos = end
}

// linkTarget resolves the link whose text ends just before after.
func (p *inlineLexer) linkTarget(label string, after int) (href, title string, end int, ok bool) {
	if after < len(p.src) && p.src[after] == '(' {
		n, href, title, far, ok := parseInlineTail(p.src[after:])
		p.budget.spend(RuleLink, far)
		if ok {
			return href, title, after + n, true
		}
	}
	if after < len(p.src) && p.src[after] == '[' {
		ref, n, valid := parseLinkLabel(p.src[after:])
		p.budget.spend(RuleLink, n)
		if valid {
			if ref == "" {
				ref = label
			}
			if !validLabel(ref) {
				return "", "", 0, false
			}
			l, ok := p.links.Lookup(ref)
			return l.Href, l.Title, after + n, ok
		}
	}
	if !validLabel(label) {
		return "", "", 0, false
	}
	l, ok := p.links.Lookup(label)
	return l.Href, l.Title, after, ok
}

// parseLinkLabel parses "[label]" at the start of s. An empty label reports
// valid with ref "" for collapsed references.
func parseLinkLabel(s string) (ref string, n int, valid bool) {
	for i := 1; i < len(s) && i <= maxLabelLen+1; i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) && isASCIIPunct(s[i+1]) {
				i++
			}
		case '[':
			return "", i, false
		case ']':
			ref = s[1:i]
			if ref != "" && strings.Trim(ref, " \t\n") == "" {
				return "", i + 1, false
			}
			return ref, i + 1, true
		}
	}
	return "", len(s), false
}

// validLabel reports whether text can serve as a reference label.
func validLabel(text string) bool {
	if len(text) > maxLabelLen || strings.Trim(text, " \t\n") == "" {
		return false
	}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '[', ']':
			return false
		}
	}
	return true
}

// parseInlineTail parses "(destination title)" at the start of s. far is the
// number of bytes examined.
func parseInlineTail(s string) (n int, href, title string, far int, ok bool) {
	p := skipTailSpace(s, 1)
	if p < len(s) && s[p] == ')' {
		return p + 1, "", "", p + 1, true
	}
	href, e, ok := parseLinkDestination(s, p)
	if !ok {
		return 0, "", "", max(e, p), false
	}
	q := skipTailSpace(s, e)
	if q < len(s) && s[q] == ')' {
		return q + 1, href, "", q + 1, true
	}
	if q == e {
		return 0, "", "", q, false
	}
	title, e, ok = parseLinkTitle(s, q)
	if !ok {
		return 0, "", "", max(e, q), false
	}
	q = skipTailSpace(s, e)
	if q < len(s) && s[q] == ')' {
		return q + 1, href, title, q + 1, true
	}
	return 0, "", "", q, false
}

func skipTailSpace(s string, p int) int {
	newline := false
	for p < len(s) {
		switch s[p] {
		case ' ', '\t':
		case '\n':
			if newline {
				return p
			}
			newline = true
		default:
			return p
		}
		p++
	}
	return p
}

// finish converts a node list to tokens, merging adjacent text. Adjacent
// nodes cover contiguous source, so a merged run whose parts are all verbatim
// takes its text straight from the source; otherwise the text is built once.
func (p *inlineLexer) finish(list nodeList) []Token {
	var out []Token
	for n := list.head; n != nil; n = n.next {
		tok := p.finishNode(n)
		if tok.Type != TokenText || n.next == nil || n.next.tok.Type != TokenText {
			out = append(out, tok)
			continue
		}
		start := n.start
		var b strings.Builder
		verbatim := tok.Text == tok.Raw
		if !verbatim {
			b.WriteString(tok.Text)
		}
		for n.next != nil && n.next.tok.Type == TokenText {
			n = n.next
			next := p.finishNode(n)
			if verbatim && next.Text != next.Raw {
				verbatim = false
				b.WriteString(p.src[start:n.start])
			}
			if !verbatim {
				b.WriteString(next.Text)
			}
		}
		tok.Raw = p.src[start:n.end]
		if verbatim {
			tok.Text = tok.Raw
		} else {
			tok.Text = b.String()
		}
		out = append(out, tok)
	}
	return out
}

func (p *inlineLexer) finishNode(n *inode) Token {
	tok := n.tok
	tok.Raw = p.src[n.start:n.end]
	switch {
	case n.delim:
		tok.Text = tok.Raw
	case tok.Type == TokenEm || tok.Type == TokenStrong || tok.Type == TokenDel:
		tok.Text = p.src[n.start+n.use : n.end-n.use]
		tok.Tokens = p.finish(n.children)
	case tok.Type == TokenLink && n.children.head != nil:
		tok.Tokens = p.finish(n.children)
	}
	return tok
}

// plainText flattens inline tokens to the text an image uses as alt text.
func plainText(tokens []Token) string {
	var b strings.Builder
	var walk func([]Token)
	walk = func(tokens []Token) {
		for i := range tokens {
			t := &tokens[i]
			switch t.Type {
			case TokenLink, TokenEm, TokenStrong, TokenDel:
				walk(t.Tokens)
			case TokenBr:
				b.WriteByte('\n')
			default:
				b.WriteString(t.Text)
			}
		}
	}
	walk(tokens)
	return b.String()
}

// unescapeString resolves backslash escapes and entity references.
func unescapeString(s string) string {
	if strings.IndexByte(s, '\\') < 0 && strings.IndexByte(s, '&') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && isASCIIPunct(s[i+1]) {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		if c == '&' {
			if ent := entityRegexp.FindString(s[i:]); ent != "" {
				b.WriteString(html.UnescapeString(ent))
				i += len(ent) - 1
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
