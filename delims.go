package mdlex

import (
	"unicode"
	"unicode/utf8"
)

// inode is a node of the inline list. Emphasis and links take ownership of
// the nodes between their delimiters as children.
type inode struct {
	tok        Token
	start, end int
	// delim marks delimiter-run text whose span shrinks as runs are matched.
	delim bool
	// use is the delimiter length on each side of emphasis nodes.
	use        int
	children   nodeList
	prev, next *inode
}

type nodeList struct {
	head, tail *inode
}

func (l *nodeList) push(n *inode) {
	n.prev = l.tail
	n.next = nil
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
}

func (l *nodeList) remove(n *inode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}

func (l *nodeList) insertAfter(at, n *inode) {
	n.prev = at
	n.next = at.next
	if at.next != nil {
		at.next.prev = n
	} else {
		l.tail = n
	}
	at.next = n
}

// cut detaches the nodes strictly between a and b and returns them. A nil b
// cuts to the end of the list.
func (l *nodeList) cut(a, b *inode) nodeList {
	first := a.next
	if first == b {
		return nodeList{}
	}
	last := l.tail
	if b != nil {
		last = b.prev
	}
	a.next = b
	if b != nil {
		b.prev = a
	} else {
		l.tail = a
	}
	first.prev = nil
	last.next = nil
	return nodeList{head: first, tail: last}
}

// delim is an entry of the delimiter stack: an emphasis run or a bracket.
type delim struct {
	ch   byte
	node *inode
	// n is the unmatched length of the run; orig is its length when scanned.
	n, orig           int
	canOpen, canClose bool

	image      bool
	active     bool
	labelStart int

	prev, next *delim
}

func (d *delim) bracket() bool {
	return d.ch == '['
}

type delimStack struct {
	head, tail *delim
	// links counts link openers on the stack; extended autolinks are not
	// recognized inside link text.
	links int
}

func (s *delimStack) push(d *delim) {
	d.prev = s.tail
	d.next = nil
	if s.tail != nil {
		s.tail.next = d
	} else {
		s.head = d
	}
	s.tail = d
	if d.bracket() && !d.image {
		s.links++
	}
}

func (s *delimStack) remove(d *delim) {
	if d.prev != nil {
		d.prev.next = d.next
	} else {
		s.head = d.next
	}
	if d.next != nil {
		d.next.prev = d.prev
	} else {
		s.tail = d.prev
	}
	if d.bracket() && !d.image {
		s.links--
	}
}

func (s *delimStack) reset() {
	*s = delimStack{}
}

func emphasisIndex(ch byte) int {
	switch ch {
	case '_':
		return 1
	case '~':
		return 2
	}
	return 0
}

// flanking classifies a delimiter run occupying src[start:end].
func flanking(src string, start, end int, ch byte, m mode) (canOpen, canClose bool) {
	prev, next := ' ', ' '
	if start > 0 {
		prev, _ = utf8.DecodeLastRuneInString(src[:start])
	}
	if end < len(src) {
		next, _ = utf8.DecodeRuneInString(src[end:])
	}
	left := !unicode.IsSpace(next) &&
		(!isPunctuation(next) || unicode.IsSpace(prev) || isPunctuation(prev))
	right := !unicode.IsSpace(prev) &&
		(!isPunctuation(prev) || unicode.IsSpace(next) || isPunctuation(next))
	if ch != '_' || m == modePedantic {
		return left, right
	}
	return left && (!right || isPunctuation(prev)), right && (!left || isPunctuation(next))
}

func isPunctuation(r rune) bool {
	if r < utf8.RuneSelf {
		return isASCIIPunct(byte(r))
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isASCIIPunct(c byte) bool {
	return ('!' <= c && c <= '/') || (':' <= c && c <= '@') ||
		('[' <= c && c <= '`') || ('{' <= c && c <= '~')
}

// processEmphasis matches delimiter runs above bottom into em, strong and del
// nodes, then drops every delimiter above bottom from the stack.
func (p *inlineLexer) processEmphasis(bottom *delim) {
	var openersBottom [3][3][2]*delim
	for i := range openersBottom {
		for j := range openersBottom[i] {
			openersBottom[i][j] = [2]*delim{bottom, bottom}
		}
	}
	closer := p.delims.head
	if bottom != nil {
		closer = bottom.next
	}
	for closer != nil {
		p.budget.spend(RuleEmphasis, 1)
		if closer.bracket() || !closer.canClose {
			closer = closer.next
			continue
		}
		canOpen := 0
		if closer.canOpen {
			canOpen = 1
		}
		stop := &openersBottom[emphasisIndex(closer.ch)][closer.orig%3][canOpen]
		var opener *delim
		for o := closer.prev; o != nil && o != *stop; o = o.prev {
			p.budget.spend(RuleEmphasis, 1)
			if o.ch == closer.ch && o.canOpen && matchable(o, closer) {
				opener = o
				break
			}
		}
		if opener == nil {
			*stop = closer.prev
			next := closer.next
			if !closer.canOpen {
				p.delims.remove(closer)
			}
			closer = next
			continue
		}

		use, typ := 1, TokenEm
		switch {
		case closer.ch == '~':
			use, typ = closer.n, TokenDel
		case opener.n >= 2 && closer.n >= 2:
			use, typ = 2, TokenStrong
		}
		on, cn := opener.node, closer.node
		on.end -= use
		cn.start += use
		e := &inode{tok: Token{Type: typ}, start: on.end, end: cn.start, use: use}
		e.children = p.nodes.cut(on, cn)
		p.nodes.insertAfter(on, e)
		for d := closer.prev; d != opener; {
			prev := d.prev
			p.delims.remove(d)
			d = prev
		}
		opener.n -= use
		closer.n -= use
		if opener.n == 0 {
			p.nodes.remove(on)
			p.delims.remove(opener)
		}
		if closer.n == 0 {
			next := closer.next
			p.nodes.remove(cn)
			p.delims.remove(closer)
			closer = next
		}
	}
	for d := p.delims.tail; d != nil && d != bottom; {
		prev := d.prev
		p.delims.remove(d)
		d = prev
	}
}

// matchable applies the rule of three for * and _ and the equal length rule
// for ~.
func matchable(opener, closer *delim) bool {
	if closer.ch == '~' {
		return opener.n == closer.n
	}
	if (opener.canClose || closer.canOpen) &&
		(opener.orig+closer.orig)%3 == 0 &&
		!(opener.orig%3 == 0 && closer.orig%3 == 0) {
		return false
	}
	return true
}
