package mdlex

import (
	"regexp"
	"strings"
)

var taskPrefixRegexp = regexp.MustCompile(`^\[([ xX])\][ \t]+`)

// itemScan is the extent of one list item.
type itemScan struct {
	lines []string
	// lazy holds the offsets of lazy continuation lines in the joined lines.
	lazy []int
	// end is the end of the last non-blank line of the item.
	end int
	// next is the start of the first line after the item, past any blank lines.
	next          int
	trailingBlank bool
}

func (l *blockLexer) list(src string) (Token, int, bool) {
	first, _ := lineAt(src, 0)
	lead, ok := parseListMarker(first, l.mode)
	if !ok {
		return Token{}, 0, false
	}
	list := Token{Type: TokenList, Ordered: lead.ordered}
	if lead.ordered {
		list.Start = lead.start
	}
	var (
		scans  []itemScan
		starts []int
	)
	loose := false
	pos := 0
	for pos < len(src) {
		line, _ := lineAt(src, pos)
		lm, ok := parseListMarker(line, l.mode)
		if !ok || !sameList(lead, lm) {
			break
		}
		if pos > 0 && isThematicBreak(line) {
			break
		}
		if len(scans) > 0 && scans[len(scans)-1].trailingBlank {
			loose = true
		}
		s := l.scanItem(src, pos, lm)
		scans = append(scans, s)
		starts = append(starts, pos)
		pos = s.next
	}
	end := scans[len(scans)-1].end
	for i, s := range scans {
		rawEnd := s.next
		if i == len(scans)-1 {
			rawEnd = s.end
		}
		item := l.listItem(src[starts[i]:rawEnd], s)
		if itemSpread(item.Tokens) {
			loose = true
		}
		list.Tokens = append(list.Tokens, item)
	}
	list.Raw = src[:end]
	list.Loose = loose
	for i := range list.Tokens {
		item := &list.Tokens[i]
		item.Loose = loose
		if loose {
			continue
		}
		for j := range item.Tokens {
			if item.Tokens[j].Type == TokenParagraph {
				item.Tokens[j].Type = TokenText
			}
		}
	}
	return list, end, true
}

// scanItem finds the lines belonging to the item whose marker line starts at
// pos. Content lines have the item's content indentation removed.
func (l *blockLexer) scanItem(src string, pos int, lm listMarker) itemScan {
	first, next := lineAt(src, pos)
	s := itemScan{end: pos + len(first), next: next}
	lines := []string{lm.content}
	off := len(lm.content) + 1
	var state containerState
	state.feed(lm.content, l.mode)
	blanks := 0
	for next < len(src) {
		line, after := lineAt(src, next)
		if isBlank(line) {
			if lm.blank && len(lines) == 1 {
				// An item that starts with a blank line ends at the next one.
				// The blank lines stay between items so the list goes on.
				for next < len(src) {
					if line, after := lineAt(src, next); isBlank(line) {
						next = after
						continue
					}
					break
				}
				s.lines = lines
				s.next = next
				s.trailingBlank = true
				return s
			}
			lines = append(lines, contentFrom(line, 0, lm.offset))
			off += len(lines[len(lines)-1]) + 1
			state.feed("", l.mode)
			blanks++
			next = after
			continue
		}
		indent, _ := leadingIndentCount(line)
		switch {
		case indent >= lm.offset:
			content := contentFrom(line, 0, lm.offset)
			lines = append(lines, content)
			state.feed(content, l.mode)
		case blanks == 0 && !startsItem(line, l.mode) && state.lazy(line, l.mode):
			lines = append(lines, line)
			s.lazy = append(s.lazy, off)
		default:
			s.lines = lines[:len(lines)-blanks]
			s.next = next
			s.trailingBlank = blanks > 0
			return s
		}
		off += len(lines[len(lines)-1]) + 1
		blanks = 0
		s.end = next + len(line)
		next = after
	}
	s.lines = lines[:len(lines)-blanks]
	s.next = next
	s.trailingBlank = blanks > 0
	return s
}

func startsItem(line string, m mode) bool {
	_, ok := parseListMarker(line, m)
	return ok
}

// listItem builds an item token from its raw text and scanned content.
func (l *blockLexer) listItem(raw string, s itemScan) Token {
	lines := s.lines
	shift := 0
	if len(lines) > 1 && lines[0] == "" {
		lines = lines[1:]
		shift = 1
	}
	text := strings.Join(lines, "\n")
	item := Token{Type: TokenListItem, Raw: raw}
	if l.mode == modeGFM {
		if m := taskPrefixRegexp.FindStringSubmatch(text); m != nil {
			item.Task = true
			item.Checked = m[1] != " "
			text = text[len(m[0]):]
			shift += len(m[0])
		}
	}
	var lazy []int
	for _, off := range s.lazy {
		if off >= shift {
			lazy = append(lazy, off-shift)
		}
	}
	item.Text = text
	item.Tokens = l.nested(text, lazy)
	return item
}

// itemSpread reports whether two direct children of an item are separated by
// a blank line.
func itemSpread(tokens []Token) bool {
	for i, tok := range tokens {
		if tok.Type != TokenSpace || i == 0 || i == len(tokens)-1 {
			continue
		}
		if strings.Count(tok.Raw, "\n") >= 2 {
			return true
		}
	}
	return false
}
