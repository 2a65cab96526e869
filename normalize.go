package mdlex

import "strings"

// Normalize applies the source normalization performed once by Lex: CRLF and CR
// become LF and NUL becomes U+FFFD. Tabs are left in place; block rules measure
// them in columns. The raw text of a document's top-level tokens concatenates
// to Normalize(src).
func Normalize(src string) string {
	if strings.IndexByte(src, '\r') >= 0 {
		src = strings.ReplaceAll(src, "\r\n", "\n")
		src = strings.ReplaceAll(src, "\r", "\n")
	}
	if strings.IndexByte(src, 0) >= 0 {
		src = strings.ReplaceAll(src, "\x00", "�")
	}
	return src
}
