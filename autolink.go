package mdlex

import (
	"regexp"
	"strings"
)

var (
	extEmailRegexp   = regexp.MustCompile(`^[a-zA-Z0-9._+-]+@[a-zA-Z0-9_-]+(?:\.[a-zA-Z0-9_-]+)+`)
	trailingEntityRe = regexp.MustCompile(`&[a-zA-Z0-9]+;$`)
)

// matchExtAutolink matches a GFM extended autolink (www., http://, https://,
// ftp:// or a bare email address) at the start of s. It returns the length of
// the link text and its destination.
func matchExtAutolink(s string) (n int, href string, email bool) {
	if s == "" {
		return 0, "", false
	}
	if n, href := matchURLAutolink(s); n > 0 {
		return n, href, false
	}
	m := extEmailRegexp.FindString(s)
	if m == "" {
		return 0, "", false
	}
	switch m[len(m)-1] {
	case '-', '_':
		return 0, "", false
	}
	return len(m), "mailto:" + m, true
}

func matchURLAutolink(s string) (int, string) {
	var prefix string
	var i int
	switch {
	case strings.HasPrefix(s, "www."):
		prefix = "http://"
	case strings.HasPrefix(s, "http://"):
		i = len("http://")
	case strings.HasPrefix(s, "https://"):
		i = len("https://")
	case strings.HasPrefix(s, "ftp://"):
		i = len("ftp://")
	default:
		return 0, ""
	}
	d := domainLen(s[i:])
	if d == 0 {
		return 0, ""
	}
	end := i + d
	for end < len(s) && !isURLStop(s[end]) {
		end++
	}
	end = trimAutolinkTail(s[:end], i+1)
	if !validDomain(strings.TrimRight(s[i:min(end, i+d)], ".")) {
		return 0, ""
	}
	return end, prefix + s[:end]
}

func isURLStop(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '<'
}

// domainLen returns the length of the run of domain characters at the start of s.
func domainLen(s string) int {
	i := 0
	for i < len(s) {
		c := s[i]
		if isASCIILetter(c) || ('0' <= c && c <= '9') || c == '-' || c == '_' || c == '.' || c >= 0x80 {
			i++
			continue
		}
		break
	}
	return i
}

// validDomain requires at least one period and no underscores in the last two
// segments.
func validDomain(d string) bool {
	segs := strings.Split(d, ".")
	if len(segs) < 2 {
		return false
	}
	for _, seg := range segs {
		if seg == "" {
			return false
		}
	}
	for _, seg := range segs[len(segs)-2:] {
		if strings.IndexByte(seg, '_') >= 0 {
			return false
		}
	}
	return true
}

// trimAutolinkTail drops trailing punctuation, unbalanced closing parentheses
// and entity-like suffixes from an autolink, never shrinking below minLen.
func trimAutolinkTail(s string, minLen int) int {
	end := len(s)
	for end > minLen {
		switch c := s[end-1]; c {
		case '?', '!', '.', ',', ':', '*', '_', '~':
			end--
			continue
		case ')':
			if strings.Count(s[:end], ")") > strings.Count(s[:end], "(") {
				end--
				continue
			}
		case ';':
			if loc := trailingEntityRe.FindStringIndex(s[:end]); loc != nil {
				end = loc[0]
				continue
			}
		}
		break
	}
	return end
}
