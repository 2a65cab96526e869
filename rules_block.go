package mdlex

import (
	"strings"
)

// Block rules are pure matchers over the remaining source. They never build
// tokens; the block lexer turns their results into tokens.

// lineAt returns the line starting at pos without its terminator, and the index
// just past the terminator (or len(src) on the last line).
func lineAt(src string, pos int) (string, int) {
	i := strings.IndexByte(src[pos:], '\n')
	if i < 0 {
		return src[pos:], len(src)
	}
	return src[pos : pos+i], pos + i + 1
}

func isBlank(line string) bool {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return false
		}
	}
	return true
}

// leadingIndentCount returns the indentation width in columns (tabs advance to
// the next multiple of four) and the number of bytes it spans.
func leadingIndentCount(s string) (int, int) {
	col := 0
	i := 0
	for i < len(s) {
		switch s[i] {
		case ' ':
			col++
		case '\t':
			col += 4 - col%4
		default:
			return col, i
		}
		i++
	}
	return col, i
}

// skipColumns drops up to n columns of leading whitespace from s, which starts
// at column col. A tab that is only partly consumed leaves its remaining columns
// as spaces.
func skipColumns(s string, col, n int) string {
	i := 0
	for n > 0 && i < len(s) {
		switch s[i] {
		case ' ':
			n--
			col++
			i++
		case '\t':
			w := 4 - col%4
			if w > n {
				return spaceString[:w-n] + s[i+1:]
			}
			n -= w
			col += w
			i++
		default:
			return s[i:]
		}
	}
	return s[i:]
}

// contentFrom drops up to n columns of leading whitespace from s, which starts
// at column col, and expands the tabs of the indentation that remains so the
// result measures correctly from column zero. Container content is lexed this
// way; everything past the indentation is kept byte for byte.
func contentFrom(s string, col, n int) string {
	i := 0
	for n > 0 && i < len(s) && isSpace(s[i]) {
		w := 1
		if s[i] == '\t' {
			w = 4 - col%4
		}
		if w > n {
			return expandFrom(spaceString[:w-n]+s[i+1:], col+n)
		}
		n -= w
		col += w
		i++
	}
	return expandFrom(s[i:], col)
}

var spaceString = strings.Repeat(" ", 64)

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// matchSpace returns the length of the run of line terminators and blank lines
// at the start of src.
func matchSpace(src string) int {
	n := 0
	for n < len(src) {
		i := n
		for i < len(src) && isSpace(src[i]) {
			i++
		}
		if i == len(src) {
			if i == n {
				break
			}
			return i
		}
		if src[i] != '\n' {
			break
		}
		n = i + 1
	}
	return n
}

func isThematicBreak(line string) bool {
	indent, i := leadingIndentCount(line)
	if indent > 3 {
		return false
	}
	var ch byte
	count := 0
	for ; i < len(line); i++ {
		c := line[i]
		switch {
		case isSpace(c):
			continue
		case c == '-' || c == '*' || c == '_':
			if ch == 0 {
				ch = c
			} else if c != ch {
				return false
			}
			count++
		default:
			return false
		}
	}
	return count >= 3
}

// parseHeading matches an ATX heading line and returns its depth and trimmed
// content.
func parseHeading(line string, m mode) (int, string, bool) {
	indent, i := leadingIndentCount(line)
	if indent > 3 && m != modePedantic {
		return 0, "", false
	}
	text := line[i:]
	level := 0
	for level < len(text) && text[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := text[level:]
	if rest != "" && !isSpace(rest[0]) && m != modePedantic {
		return 0, "", false
	}
	content := strings.Trim(rest, " \t")
	trimmed := strings.TrimRight(content, "#")
	if len(trimmed) < len(content) {
		switch {
		case trimmed == "":
			content = ""
		case isSpace(trimmed[len(trimmed)-1]):
			content = strings.TrimRight(trimmed, " \t")
		case m == modePedantic:
			content = strings.TrimRight(trimmed, " \t")
		}
	}
	return level, content, true
}

// setextUnderline matches a setext heading underline and returns the depth it
// assigns.
func setextUnderline(line string) (int, bool) {
	indent, i := leadingIndentCount(line)
	if indent > 3 || i == len(line) {
		return 0, false
	}
	ch := line[i]
	if ch != '=' && ch != '-' {
		return 0, false
	}
	for i < len(line) && line[i] == ch {
		i++
	}
	if !isBlank(line[i:]) {
		return 0, false
	}
	if ch == '=' {
		return 1, true
	}
	return 2, true
}

type fenceOpen struct {
	indent int
	marker byte
	count  int
	info   string
}

func parseFenceOpen(line string) (fenceOpen, bool) {
	indent, i := leadingIndentCount(line)
	if indent > 3 || i == len(line) {
		return fenceOpen{}, false
	}
	ch := line[i]
	if ch != '`' && ch != '~' {
		return fenceOpen{}, false
	}
	j := i
	for j < len(line) && line[j] == ch {
		j++
	}
	if j-i < 3 {
		return fenceOpen{}, false
	}
	info := line[j:]
	if ch == '`' && strings.IndexByte(info, '`') >= 0 {
		return fenceOpen{}, false
	}
	return fenceOpen{indent: indent, marker: ch, count: j - i, info: strings.Trim(info, " \t")}, true
}

func isFenceClose(line string, f fenceOpen) bool {
	indent, i := leadingIndentCount(line)
	if indent > 3 {
		return false
	}
	j := i
	for j < len(line) && line[j] == f.marker {
		j++
	}
	return j-i >= f.count && isBlank(line[j:])
}

// stripQuoteMarker removes a block quote marker and the optional space after it.
func stripQuoteMarker(line string) (string, bool) {
	indent, i := leadingIndentCount(line)
	if indent > 3 || i == len(line) || line[i] != '>' {
		return "", false
	}
	return contentFrom(line[i+1:], indent+1, 1), true
}

type listMarker struct {
	indent  int
	ordered bool
	bullet  byte
	start   int
	width   int
	offset  int
	content string
	blank   bool
}

// parseListMarker matches a list item marker and computes the column at which
// item content starts.
func parseListMarker(line string, m mode) (listMarker, bool) {
	indent, i := leadingIndentCount(line)
	if indent > 3 && m != modePedantic {
		return listMarker{}, false
	}
	text := line[i:]
	if text == "" {
		return listMarker{}, false
	}
	lm := listMarker{indent: indent}
	switch text[0] {
	case '-', '+', '*':
		lm.bullet = text[0]
		lm.width = 1
	default:
		j := 0
		for j < len(text) && j < 10 && text[j] >= '0' && text[j] <= '9' {
			j++
		}
		if j == 0 || j > 9 || j >= len(text) {
			return listMarker{}, false
		}
		if text[j] != '.' && (text[j] != ')' || m == modePedantic) {
			return listMarker{}, false
		}
		num := 0
		for k := 0; k < j; k++ {
			num = num*10 + int(text[k]-'0')
		}
		lm.ordered = true
		lm.bullet = text[j]
		lm.start = num
		lm.width = j + 1
	}
	after := text[lm.width:]
	if after != "" && !isSpace(after[0]) {
		return listMarker{}, false
	}
	markerEnd := indent + lm.width
	if isBlank(after) {
		lm.blank = true
		lm.offset = markerEnd + 1
		return lm, true
	}
	pad, _ := leadingIndentCount(expandFrom(after, markerEnd))
	if pad >= 5 {
		lm.offset = markerEnd + 1
		lm.content = contentFrom(after, markerEnd, 1)
	} else {
		lm.offset = markerEnd + pad
		lm.content = contentFrom(after, markerEnd, pad)
	}
	return lm, true
}

// expandFrom turns leading tabs of s, which starts at column col, into spaces so
// leadingIndentCount measures them from column zero.
func expandFrom(s string, col int) string {
	if strings.IndexByte(s, '\t') < 0 {
		return s
	}
	var b strings.Builder
	i := 0
	for ; i < len(s) && isSpace(s[i]); i++ {
		if s[i] == ' ' {
			b.WriteByte(' ')
			col++
			continue
		}
		w := 4 - col%4
		b.WriteString(spaceString[:w])
		col += w
	}
	b.WriteString(s[i:])
	return b.String()
}

// sameList reports whether an item marker continues the list opened by first.
func sameList(first, next listMarker) bool {
	return first.ordered == next.ordered && first.bullet == next.bullet
}

// interruptsParagraph reports whether line ends a paragraph by starting another
// block. Blank lines also end paragraphs.
func interruptsParagraph(line string, m mode) bool {
	if isBlank(line) {
		return true
	}
	indent, _ := leadingIndentCount(line)
	if indent > 3 {
		return false
	}
	if isThematicBreak(line) {
		return true
	}
	if _, _, ok := parseHeading(line, m); ok {
		return true
	}
	if _, ok := parseFenceOpen(line); ok {
		return true
	}
	if _, ok := stripQuoteMarker(line); ok {
		return true
	}
	if lm, ok := parseListMarker(line, m); ok && !lm.blank {
		if !lm.ordered || lm.start == 1 || m == modePedantic {
			return true
		}
	}
	if class, ok := htmlBlockStart(line); ok && class != htmlClassTag {
		return true
	}
	return false
}

type headingMatch struct {
	n     int
	depth int
	text  string
}

// lineTest reports a property of the line starting at a byte offset of the
// source handed to a matcher.
type lineTest func(pos int) bool

// matchSetextHeading collects paragraph lines and succeeds when they are
// followed by a setext underline. Lines for which lazy reports true continue
// the paragraph and never act as an underline.
func matchSetextHeading(src string, m mode, lazy lineTest) (headingMatch, bool) {
	first, next := lineAt(src, 0)
	if isBlank(first) {
		return headingMatch{}, false
	}
	if indent, _ := leadingIndentCount(first); indent > 3 {
		return headingMatch{}, false
	}
	lines := []string{first}
	for next < len(src) {
		line, after := lineAt(src, next)
		if depth, ok := setextUnderline(line); ok && (lazy == nil || !lazy(next)) {
			text := joinParagraphLines(lines)
			if text == "" {
				return headingMatch{}, false
			}
			return headingMatch{n: next + len(line), depth: depth, text: text}, true
		}
		if interruptsParagraph(line, m) || tableInterrupts(src, next, m, lazy) {
			break
		}
		lines = append(lines, line)
		next = after
	}
	return headingMatch{}, false
}

type paragraphMatch struct {
	n    int
	text string
}

// matchParagraph consumes the first line and every following line that does
// not interrupt a paragraph.
func matchParagraph(src string, m mode, lazy lineTest) (paragraphMatch, bool) {
	first, next := lineAt(src, 0)
	if isBlank(first) {
		return paragraphMatch{}, false
	}
	lines := []string{first}
	end := len(first)
	for next < len(src) {
		line, after := lineAt(src, next)
		if interruptsParagraph(line, m) || tableInterrupts(src, next, m, lazy) {
			break
		}
		lines = append(lines, line)
		end = next + len(line)
		next = after
	}
	return paragraphMatch{n: end, text: joinParagraphLines(lines)}, true
}

// joinParagraphLines strips the indentation of every line and the trailing
// whitespace of the last one.
func joinParagraphLines(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimLeft(line, " \t"))
	}
	return strings.TrimRight(b.String(), " \t")
}

type codeMatch struct {
	n    int
	lang string
	text string
}

// matchIndentedCode consumes lines indented by four or more columns and blank
// lines between them.
func matchIndentedCode(src string) (codeMatch, bool) {
	var lines []string
	end := 0
	kept := 0
	pos := 0
	for pos < len(src) {
		line, next := lineAt(src, pos)
		if isBlank(line) {
			lines = append(lines, skipColumns(line, 0, 4))
			pos = next
			if next == len(src) {
				break
			}
			continue
		}
		indent, _ := leadingIndentCount(line)
		if indent < 4 {
			break
		}
		lines = append(lines, skipColumns(line, 0, 4))
		kept = len(lines)
		end = pos + len(line)
		pos = next
	}
	if kept == 0 {
		return codeMatch{}, false
	}
	return codeMatch{n: end, text: strings.Join(lines[:kept], "\n")}, true
}

// matchFencedCode consumes a fenced code block up to and including its closing
// fence, or to the end of src when the fence is never closed.
func matchFencedCode(src string) (codeMatch, bool) {
	first, pos := lineAt(src, 0)
	f, ok := parseFenceOpen(first)
	if !ok {
		return codeMatch{}, false
	}
	end := len(first)
	var lines []string
	for pos < len(src) {
		line, next := lineAt(src, pos)
		if isFenceClose(line, f) {
			end = pos + len(line)
			break
		}
		lines = append(lines, skipColumns(line, 0, f.indent))
		end = pos + len(line)
		pos = next
	}
	lang := f.info
	if i := strings.IndexAny(lang, " \t"); i >= 0 {
		lang = lang[:i]
	}
	return codeMatch{n: end, lang: unescapeString(lang), text: strings.Join(lines, "\n")}, true
}

type defMatch struct {
	n     int
	label string
	href  string
	title string
}

// matchDef matches a link reference definition. Labels may span lines but not
// blank lines; the title may sit on the line after the destination.
func matchDef(src string) (defMatch, bool) {
	indent, i := leadingIndentCount(src)
	if indent > 3 || i >= len(src) || src[i] != '[' {
		return defMatch{}, false
	}
	labelStart := i + 1
	j := labelStart
	for ; j < len(src); j++ {
		c := src[j]
		if c == '\\' && j+1 < len(src) && isASCIIPunct(src[j+1]) {
			j++
			continue
		}
		if c == '[' {
			return defMatch{}, false
		}
		if c == ']' {
			break
		}
		if c == '\n' {
			if line, _ := lineAt(src, j+1); isBlank(line) {
				return defMatch{}, false
			}
		}
		if j-labelStart > maxLabelLen {
			return defMatch{}, false
		}
	}
	if j >= len(src) || j+1 >= len(src) || src[j+1] != ':' {
		return defMatch{}, false
	}
	label := src[labelStart:j]
	if strings.Trim(label, " \t\n") == "" {
		return defMatch{}, false
	}
	p := skipDefWhitespace(src, j+2)
	if p < 0 || p >= len(src) || src[p] == '\n' {
		return defMatch{}, false
	}
	dest, destEnd, ok := parseLinkDestination(src, p)
	if !ok {
		return defMatch{}, false
	}
	lineEnd := destEnd
	for lineEnd < len(src) && isSpace(src[lineEnd]) {
		lineEnd++
	}
	destEndsLine := lineEnd == len(src) || src[lineEnd] == '\n'
	if destEnd == p {
		return defMatch{}, false
	}
	t := skipDefWhitespace(src, destEnd)
	if t > destEnd && t < len(src) {
		if title, titleEnd, ok := parseLinkTitle(src, t); ok {
			e := titleEnd
			for e < len(src) && isSpace(src[e]) {
				e++
			}
			if e == len(src) || src[e] == '\n' {
				return defMatch{n: e, label: label, href: dest, title: title}, true
			}
		}
	}
	if !destEndsLine {
		return defMatch{}, false
	}
	return defMatch{n: lineEnd, label: label, href: dest}, true
}

// skipDefWhitespace skips spaces, tabs and at most one line ending. It returns
// -1 when a blank line follows.
func skipDefWhitespace(src string, p int) int {
	for p < len(src) && isSpace(src[p]) {
		p++
	}
	if p < len(src) && src[p] == '\n' {
		p++
		line, _ := lineAt(src, p)
		if isBlank(line) {
			return -1
		}
		for p < len(src) && isSpace(src[p]) {
			p++
		}
	}
	return p
}

// parseLinkDestination parses an angle-bracketed or bare link destination
// starting at p and returns the unescaped destination and the end offset. On
// failure the offset is where scanning stopped.
func parseLinkDestination(src string, p int) (string, int, bool) {
	if p < len(src) && src[p] == '<' {
		var b strings.Builder
		for i := p + 1; i < len(src); i++ {
			switch c := src[i]; c {
			case '>':
				return unescapeString(b.String()), i + 1, true
			case '\n', '<':
				return "", i, false
			case '\\':
				if i+1 < len(src) && isASCIIPunct(src[i+1]) {
					b.WriteByte('\\')
					b.WriteByte(src[i+1])
					i++
					continue
				}
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		}
		return "", len(src), false
	}
	depth := 0
	i := p
	for ; i < len(src); i++ {
		c := src[i]
		if c <= ' ' || c == 0x7f {
			break
		}
		switch c {
		case '\\':
			if i+1 < len(src) && isASCIIPunct(src[i+1]) {
				i++
			}
		case '(':
			depth++
			if depth > 32 {
				return "", i, false
			}
		case ')':
			if depth == 0 {
				return unescapeString(src[p:i]), i, true
			}
			depth--
		}
	}
	if depth != 0 {
		return "", i, false
	}
	return unescapeString(src[p:i]), i, true
}

// parseLinkTitle parses a quoted or parenthesized title starting at p.
func parseLinkTitle(src string, p int) (string, int, bool) {
	if p >= len(src) {
		return "", p, false
	}
	opener := src[p]
	closer := opener
	switch opener {
	case '"', '\'':
	case '(':
		closer = ')'
	default:
		return "", p, false
	}
	for i := p + 1; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src) && isASCIIPunct(src[i+1]):
			i++
		case c == closer:
			return unescapeString(src[p+1 : i]), i + 1, true
		case c == opener && opener == '(':
			return "", i, false
		case c == '\n':
			if line, _ := lineAt(src, i+1); isBlank(line) {
				return "", i, false
			}
		}
	}
	return "", len(src), false
}

type tableMatch struct {
	n      int
	align  []Align
	header []string
	rows   [][]string
}

// tableInterrupts reports whether a GFM table starts at the line at pos. A
// table head ends a paragraph unless its delimiter row is a lazy line.
func tableInterrupts(src string, pos int, m mode, lazy lineTest) bool {
	if m != modeGFM {
		return false
	}
	h, ok := matchTableHead(src[pos:])
	return ok && (lazy == nil || !lazy(pos+h.delimPos))
}

type tableHead struct {
	align    []Align
	header   []string
	delimPos int
	// end is the end of the delimiter row; next is the start of the line after it.
	end  int
	next int
}

// matchTableHead matches a header row followed by a delimiter row with the
// same number of cells.
func matchTableHead(src string) (tableHead, bool) {
	headerLine, next := lineAt(src, 0)
	if next >= len(src) {
		return tableHead{}, false
	}
	if indent, _ := leadingIndentCount(headerLine); indent > 3 {
		return tableHead{}, false
	}
	delimLine, after := lineAt(src, next)
	align, ok := parseDelimiterRow(delimLine)
	if !ok {
		return tableHead{}, false
	}
	if strings.IndexByte(headerLine, '|') < 0 && strings.IndexByte(delimLine, '|') < 0 {
		return tableHead{}, false
	}
	header := splitCells(headerLine)
	if len(header) != len(align) {
		return tableHead{}, false
	}
	return tableHead{
		align:    align,
		header:   header,
		delimPos: next,
		end:      next + len(delimLine),
		next:     after,
	}, true
}

// matchTable matches a GFM table: a table head and body rows up to a blank
// line or another block.
func matchTable(src string, m mode, lazy lineTest) (tableMatch, bool) {
	h, ok := matchTableHead(src)
	if !ok || (lazy != nil && lazy(h.delimPos)) {
		return tableMatch{}, false
	}
	align, header := h.align, h.header
	end := h.end
	var rows [][]string
	pos := h.next
	for pos < len(src) {
		line, nl := lineAt(src, pos)
		if isBlank(line) || interruptsParagraph(line, m) {
			break
		}
		rows = append(rows, normalizeCells(splitCells(line), len(align)))
		end = pos + len(line)
		pos = nl
	}
	return tableMatch{n: end, align: align, header: header, rows: rows}, true
}

func parseDelimiterRow(line string) ([]Align, bool) {
	indent, i := leadingIndentCount(line)
	if indent > 3 {
		return nil, false
	}
	s := strings.TrimRight(line[i:], " \t")
	if s == "" || strings.IndexByte(s, '-') < 0 {
		return nil, false
	}
	piped := strings.IndexByte(s, '|') >= 0
	s = strings.TrimPrefix(s, "|")
	s = strings.TrimSuffix(s, "|")
	parts := strings.Split(s, "|")
	align := make([]Align, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(part, " \t")
		if part == "" {
			return nil, false
		}
		left := part[0] == ':'
		right := len(part) > 1 && part[len(part)-1] == ':'
		core := strings.TrimSuffix(strings.TrimPrefix(part, ":"), ":")
		if core == "" || strings.Trim(core, "-") != "" {
			return nil, false
		}
		switch {
		case left && right:
			align = append(align, AlignCenter)
		case left:
			align = append(align, AlignLeft)
		case right:
			align = append(align, AlignRight)
		default:
			align = append(align, AlignNone)
		}
	}
	if len(align) == 1 && !piped {
		return nil, false
	}
	return align, true
}

// splitCells splits a table row on unescaped pipes. Escaped pipes lose their
// backslash; other escapes are left for the inline tokenizer.
func splitCells(line string) []string {
	s := strings.Trim(line, " \t")
	if strings.HasPrefix(s, "|") {
		s = s[1:]
	}
	if strings.HasSuffix(s, "|") && !strings.HasSuffix(s, "\\|") {
		s = s[:len(s)-1]
	}
	var cells []string
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == '|' {
			b.WriteByte('|')
			i++
			continue
		}
		if c == '|' {
			cells = append(cells, strings.Trim(b.String(), " \t"))
			b.Reset()
			continue
		}
		b.WriteByte(c)
	}
	cells = append(cells, strings.Trim(b.String(), " \t"))
	return cells
}

func normalizeCells(cells []string, n int) []string {
	if len(cells) > n {
		return cells[:n]
	}
	for len(cells) < n {
		cells = append(cells, "")
	}
	return cells
}
