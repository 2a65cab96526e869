package mdlex

import "fmt"

// Token is a node of the token tree. Only the fields relevant to Type are set.
type Token struct {
	Type   TokenType `json:"type" yaml:"type"`
	Raw    string    `json:"raw" yaml:"raw"`
	Text   string    `json:"text,omitempty" yaml:"text,omitempty"`
	Tokens []Token   `json:"tokens,omitempty" yaml:"tokens,omitempty"`

	Href  string `json:"href,omitempty" yaml:"href,omitempty"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Tag   string `json:"tag,omitempty" yaml:"tag,omitempty"`

	Depth  int  `json:"depth,omitempty" yaml:"depth,omitempty"`
	Anchor bool `json:"anchor,omitempty" yaml:"anchor,omitempty"`

	Lang           string `json:"lang,omitempty" yaml:"lang,omitempty"`
	CodeBlockStyle string `json:"codeBlockStyle,omitempty" yaml:"codeBlockStyle,omitempty"`

	Ordered bool `json:"ordered,omitempty" yaml:"ordered,omitempty"`
	Start   int  `json:"start,omitempty" yaml:"start,omitempty"`
	Loose   bool `json:"loose,omitempty" yaml:"loose,omitempty"`
	Task    bool `json:"task,omitempty" yaml:"task,omitempty"`
	Checked bool `json:"checked,omitempty" yaml:"checked,omitempty"`

	Align  []Align       `json:"align,omitempty" yaml:"align,omitempty"`
	Header []TableCell   `json:"header,omitempty" yaml:"header,omitempty"`
	Rows   [][]TableCell `json:"rows,omitempty" yaml:"rows,omitempty"`

	Pre        bool `json:"pre,omitempty" yaml:"pre,omitempty"`
	InLink     bool `json:"inLink,omitempty" yaml:"inLink,omitempty"`
	InRawBlock bool `json:"inRawBlock,omitempty" yaml:"inRawBlock,omitempty"`

	Meta map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// TableCell is one cell of a table header or body row.
type TableCell struct {
	Text   string  `json:"text" yaml:"text"`
	Tokens []Token `json:"tokens,omitempty" yaml:"tokens,omitempty"`
}

// Align is the alignment of a table column.
type Align string

const (
	AlignNone   Align = ""
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Code block styles.
const (
	CodeBlockFenced   = "fenced"
	CodeBlockIndented = "indented"
)

type tokenType uint8

// TokenType is the exported alias of tokenType for renderers and tooling.
type TokenType = tokenType

const (
	tokenSpace tokenType = iota
	tokenCode
	tokenHeading
	tokenTable
	tokenHr
	tokenBlockquote
	tokenList
	tokenListItem
	tokenHTML
	tokenParagraph
	tokenText
	tokenDef
	tokenEscape
	tokenLink
	tokenImage
	tokenStrong
	tokenEm
	tokenCodespan
	tokenBr
	tokenDel
	tokenFrontMatter
	tokenTypeCount
)

const (
	// TokenSpace is a run of blank lines between blocks.
	TokenSpace TokenType = tokenSpace
	// TokenCode is a fenced or indented code block.
	TokenCode TokenType = tokenCode
	// TokenHeading is an ATX or setext heading.
	TokenHeading TokenType = tokenHeading
	// TokenTable is a GFM table.
	TokenTable TokenType = tokenTable
	// TokenHr is a thematic break.
	TokenHr TokenType = tokenHr
	// TokenBlockquote is a block quote; Tokens holds nested blocks.
	TokenBlockquote TokenType = tokenBlockquote
	// TokenList is a bullet or ordered list; Tokens holds list items.
	TokenList TokenType = tokenList
	// TokenListItem is one list item; Tokens holds nested blocks.
	TokenListItem TokenType = tokenListItem
	// TokenHTML is a raw HTML block or inline tag.
	TokenHTML TokenType = tokenHTML
	// TokenParagraph is a paragraph.
	TokenParagraph TokenType = tokenParagraph
	// TokenText is literal text (block text in tight lists, or inline text).
	TokenText TokenType = tokenText
	// TokenDef is a link reference definition.
	TokenDef TokenType = tokenDef
	// TokenEscape is a backslash escape.
	TokenEscape TokenType = tokenEscape
	// TokenLink is an inline, reference or autolink link.
	TokenLink TokenType = tokenLink
	// TokenImage is an image.
	TokenImage TokenType = tokenImage
	// TokenStrong is strong emphasis.
	TokenStrong TokenType = tokenStrong
	// TokenEm is emphasis.
	TokenEm TokenType = tokenEm
	// TokenCodespan is a code span.
	TokenCodespan TokenType = tokenCodespan
	// TokenBr is a hard line break.
	TokenBr TokenType = tokenBr
	// TokenDel is GFM strikethrough.
	TokenDel TokenType = tokenDel
	// TokenFrontMatter is a leading metadata block, only emitted with WithFrontMatter.
	TokenFrontMatter TokenType = tokenFrontMatter
)

var tokenTypeNames = [tokenTypeCount]string{
	tokenSpace:       "space",
	tokenCode:        "code",
	tokenHeading:     "heading",
	tokenTable:       "table",
	tokenHr:          "hr",
	tokenBlockquote:  "blockquote",
	tokenList:        "list",
	tokenListItem:    "list_item",
	tokenHTML:        "html",
	tokenParagraph:   "paragraph",
	tokenText:        "text",
	tokenDef:         "def",
	tokenEscape:      "escape",
	tokenLink:        "link",
	tokenImage:       "image",
	tokenStrong:      "strong",
	tokenEm:          "em",
	tokenCodespan:    "codespan",
	tokenBr:          "br",
	tokenDel:         "del",
	tokenFrontMatter: "front_matter",
}

func (t tokenType) String() string {
	if t < tokenTypeCount {
		return tokenTypeNames[t]
	}
	return fmt.Sprintf("tokenType(%d)", uint8(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t tokenType) MarshalText() ([]byte, error) {
	if t >= tokenTypeCount {
		return nil, fmt.Errorf("unknown token type %d", uint8(t))
	}
	return []byte(tokenTypeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *tokenType) UnmarshalText(b []byte) error {
	for i, name := range tokenTypeNames {
		if name == string(b) {
			*t = tokenType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown token type %q", b)
}

// Document is the result of lexing one source text.
type Document struct {
	Tokens  []Token    `json:"tokens" yaml:"tokens"`
	Links   *LinkTable `json:"links" yaml:"links"`
	Options Options    `json:"-" yaml:"-"`
}

// Raw returns the concatenated raw text of the top-level tokens, which equals the
// normalized source.
func (d *Document) Raw() string {
	n := 0
	for i := range d.Tokens {
		n += len(d.Tokens[i].Raw)
	}
	buf := make([]byte, 0, n)
	for i := range d.Tokens {
		buf = append(buf, d.Tokens[i].Raw...)
	}
	return string(buf)
}

// Walk calls fn for every token in depth-first document order, including table cell
// children. Returning false from fn skips the token's children.
func Walk(tokens []Token, fn func(*Token) bool) {
	for i := range tokens {
		tok := &tokens[i]
		if !fn(tok) {
			continue
		}
		for j := range tok.Header {
			Walk(tok.Header[j].Tokens, fn)
		}
		for _, row := range tok.Rows {
			for j := range row {
				Walk(row[j].Tokens, fn)
			}
		}
		Walk(tok.Tokens, fn)
	}
}
