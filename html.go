package mdlex

import (
	"regexp"
	"strings"

	"golang.org/x/net/html/atom"
)

// HTML block start conditions, numbered as in CommonMark.
const (
	htmlClassRaw         = 1
	htmlClassComment     = 2
	htmlClassInstruction = 3
	htmlClassDecl        = 4
	htmlClassCDATA       = 5
	htmlClassBlockTag    = 6
	htmlClassTag         = 7
)

const (
	openTag = `<` +
		`[a-zA-Z][a-zA-Z0-9-]*` + // tag name
		(`(?:` +
			`[ \t\n]+` + // whitespace
			`[a-zA-Z_:][a-zA-Z0-9_\.:-]*` + // attribute name
			`(?:[ \t\n]*=[ \t\n]*(?:[^ \t\n"'=<>` + "`" + `]+|'[^']*'|"[^"]*"))?` + // attribute value
			`)*`) +
		`[ \t\n]*` +
		`/?>`
	closingTag = `</[a-zA-Z][a-zA-Z0-9-]*[ \t\n]*>`
)

var (
	htmlRawStartRegexp = regexp.MustCompile(`^ {0,3}<(?i:pre|script|style|textarea)(?:[ \t>]|$)`)
	htmlRawEndRegexp   = regexp.MustCompile(`</(?i:pre|script|style|textarea)>`)
	htmlTagLineRegexp  = regexp.MustCompile(`^ {0,3}(?:` + openTag + `|` + closingTag + `)[ \t]*$`)

	openTagRegexp    = regexp.MustCompile(`^` + openTag)
	closingTagRegexp = regexp.MustCompile(`^` + closingTag)
	entityRegexp     = regexp.MustCompile(`^&(?:[a-zA-Z][a-zA-Z0-9]{1,31}|#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6});`)
	autolinkRegexp   = regexp.MustCompile(`^<` +
		`[a-zA-Z][a-zA-Z0-9+.-]{1,31}` + // scheme
		`:[^\x00-\x20<>]*` +
		`>`)
	emailAutolinkRegexp = regexp.MustCompile("^<[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*>")

	rawBlockTagRegexp = regexp.MustCompile(`^<(/?)(?i:pre|code|kbd|script)(?:[\s>/]|$)`)
	anchorTagRegexp   = regexp.MustCompile(`^<(/?)(?i:a)(?:[\s>/]|$)`)
)

var htmlBlockEnds = [...]string{
	htmlClassComment:     "-->",
	htmlClassInstruction: "?>",
	htmlClassDecl:        ">",
	htmlClassCDATA:       "]]>",
}

var blockTagNames = []string{
	"address", "article", "aside", "base", "basefont", "blockquote", "body",
	"caption", "center", "col", "colgroup", "dd", "details", "dialog", "dir",
	"div", "dl", "dt", "fieldset", "figcaption", "figure", "footer", "form",
	"frame", "frameset", "h1", "h2", "h3", "h4", "h5", "h6", "head", "header",
	"hr", "html", "iframe", "legend", "li", "link", "main", "menu", "menuitem",
	"nav", "noframes", "ol", "optgroup", "option", "p", "param", "search",
	"section", "summary", "table", "tbody", "td", "tfoot", "th", "thead",
	"title", "tr", "track", "ul",
}

var (
	blockTagAtoms = map[atom.Atom]bool{}
	// blockTagExtra holds names the atom table does not know.
	blockTagExtra = map[string]bool{}
)

func init() {
	for _, name := range blockTagNames {
		if a := atom.Lookup([]byte(name)); a != 0 {
			blockTagAtoms[a] = true
		} else {
			blockTagExtra[name] = true
		}
	}
}

func isBlockTag(name string) bool {
	name = strings.ToLower(name)
	if a := atom.Lookup([]byte(name)); a != 0 {
		return blockTagAtoms[a]
	}
	return blockTagExtra[name]
}

// htmlBlockStart reports which HTML block start condition line satisfies.
func htmlBlockStart(line string) (int, bool) {
	indent, i := leadingIndentCount(line)
	if indent > 3 || i >= len(line) || line[i] != '<' {
		return 0, false
	}
	rest := line[i:]
	switch {
	case htmlRawStartRegexp.MatchString(line):
		return htmlClassRaw, true
	case strings.HasPrefix(rest, "<!--"):
		return htmlClassComment, true
	case strings.HasPrefix(rest, "<?"):
		return htmlClassInstruction, true
	case strings.HasPrefix(rest, "<![CDATA["):
		return htmlClassCDATA, true
	case len(rest) > 2 && rest[1] == '!' && isASCIILetter(rest[2]):
		return htmlClassDecl, true
	}
	if blockTagStart(rest) {
		return htmlClassBlockTag, true
	}
	if htmlTagLineRegexp.MatchString(line) {
		return htmlClassTag, true
	}
	return 0, false
}

// blockTagStart matches "<name" or "</name" for a known block-level tag name
// followed by whitespace, the end of the line, ">" or "/>".
func blockTagStart(s string) bool {
	i := 1
	if i < len(s) && s[i] == '/' {
		i++
	}
	j := i
	for j < len(s) && (isASCIILetter(s[j]) || (j > i && s[j] >= '0' && s[j] <= '9')) {
		j++
	}
	if j == i || !isBlockTag(s[i:j]) {
		return false
	}
	rest := s[j:]
	return rest == "" || isSpace(rest[0]) || rest[0] == '>' || strings.HasPrefix(rest, "/>")
}

// htmlBlockEnd reports whether line satisfies the end condition of class.
// Classes 6 and 7 end at a blank line, which the caller handles.
func htmlBlockEnd(class int, line string) bool {
	switch class {
	case htmlClassRaw:
		return htmlRawEndRegexp.MatchString(line)
	case htmlClassComment, htmlClassInstruction, htmlClassDecl, htmlClassCDATA:
		return strings.Contains(line, htmlBlockEnds[class])
	}
	return false
}

type htmlMatch struct {
	n   int
	pre bool
}

// matchHTMLBlock consumes an HTML block through the line that satisfies its end
// condition, or up to the next blank line for classes 6 and 7.
func matchHTMLBlock(src string, b *budget) (htmlMatch, bool) {
	first, pos := lineAt(src, 0)
	class, ok := htmlBlockStart(first)
	if !ok {
		return htmlMatch{}, false
	}
	m := htmlMatch{n: len(first), pre: class == htmlClassRaw}
	if class >= htmlClassBlockTag {
		for pos < len(src) {
			line, next := lineAt(src, pos)
			b.spend(RuleHTMLBlock, 1)
			if isBlank(line) {
				break
			}
			m.n = pos + len(line)
			pos = next
		}
		return m, true
	}
	if htmlBlockEnd(class, first[strings.IndexByte(first, '<')+1:]) {
		return m, true
	}
	for pos < len(src) {
		line, next := lineAt(src, pos)
		b.spend(RuleHTMLBlock, 1)
		m.n = pos + len(line)
		if htmlBlockEnd(class, line) {
			break
		}
		pos = next
	}
	return m, true
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
