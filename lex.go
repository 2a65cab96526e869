package mdlex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

var statePool = sync.Pool{
	New: func() any {
		return &lexState{}
	},
}

var readerPool = sync.Pool{
	New: func() any {
		return bufio.NewReaderSize(nil, 4096)
	},
}

// lexState is the scratch state of one Lex call.
type lexState struct {
	opts   Options
	budget budget
	block  blockLexer
	inline inlineLexer
}

func (st *lexState) release() {
	st.block = blockLexer{}
	noBacktickRun := st.inline.noBacktickRun
	clear(noBacktickRun)
	st.inline = inlineLexer{noBacktickRun: noBacktickRun}
	st.opts = Options{}
	statePool.Put(st)
}

// Lexer tokenizes Markdown with a fixed configuration. A Lexer is safe for
// concurrent use; each call works on its own state.
type Lexer struct {
	opts Options
}

// NewLexer returns a Lexer configured by DefaultOptions and opts.
func NewLexer(opts ...Option) *Lexer {
	return &Lexer{opts: buildOptions(opts)}
}

// Options returns the lexer configuration.
func (lx *Lexer) Options() Options {
	return lx.opts
}

// Lex tokenizes src into a document.
func Lex(src string, opts ...Option) (*Document, error) {
	return NewLexer(opts...).Lex(src)
}

// LexBytes tokenizes src into a document.
func LexBytes(src []byte, opts ...Option) (*Document, error) {
	return NewLexer(opts...).Lex(string(src))
}

// LexReader reads r to the end and tokenizes its contents.
func LexReader(r io.Reader, opts ...Option) (*Document, error) {
	return NewLexer(opts...).LexReader(r)
}

// ScanReferences collects the link reference definitions of src without
// tokenizing inline content.
func ScanReferences(src string, opts ...Option) (*LinkTable, error) {
	return NewLexer(opts...).ScanReferences(src)
}

// InlineTokens tokenizes text as the content of a single block, resolving
// reference links against links, which may be nil.
func InlineTokens(text string, links *LinkTable, opts ...Option) ([]Token, error) {
	return NewLexer(opts...).InlineTokens(text, links)
}

// Lex tokenizes src into a document. Malformed UTF-8 is reported as an
// *EncodingError and a rule that exhausts the step budget as a
// *RuleTimeoutError.
func (lx *Lexer) Lex(src string) (*Document, error) {
	doc, err := lx.lex(src)
	if err != nil {
		lx.logFailure(err, len(src))
		return nil, fmt.Errorf("lex: %w", err)
	}
	return doc, nil
}

// LexReader reads r to the end and tokenizes its contents.
func (lx *Lexer) LexReader(r io.Reader) (*Document, error) {
	if r == nil {
		return nil, fmt.Errorf("lex: reader is nil")
	}
	reader := readerPool.Get().(*bufio.Reader)
	reader.Reset(r)
	var b strings.Builder
	_, err := reader.WriteTo(&b)
	reader.Reset(nil)
	readerPool.Put(reader)
	if err != nil {
		return nil, fmt.Errorf("lex: read: %w", err)
	}
	return lx.Lex(b.String())
}

// ScanReferences runs the block pass over src and returns the frozen link
// reference table.
func (lx *Lexer) ScanReferences(src string) (*LinkTable, error) {
	links, err := lx.scan(src)
	if err != nil {
		lx.logFailure(err, len(src))
		return nil, fmt.Errorf("scan references: %w", err)
	}
	return links, nil
}

// InlineTokens tokenizes text as the content of a single block.
func (lx *Lexer) InlineTokens(text string, links *LinkTable) ([]Token, error) {
	tokens, err := lx.inlineOnly(text, links)
	if err != nil {
		lx.logFailure(err, len(text))
		return nil, fmt.Errorf("inline: %w", err)
	}
	return tokens, nil
}

func (lx *Lexer) logFailure(err error, size int) {
	var te *RuleTimeoutError
	if errors.As(err, &te) {
		lx.opts.logger().Debug("rule step budget exceeded",
			"rule", te.Rule, "steps", te.Steps, "depth", te.Depth, "bytes", size)
	}
}

func (lx *Lexer) acquire(srcLen int) *lexState {
	st := statePool.Get().(*lexState)
	st.opts = lx.opts
	st.budget = newBudget(st.opts.StepLimit, srcLen)
	return st
}

func (lx *Lexer) lex(src string) (doc *Document, err error) {
	if err := checkUTF8(src); err != nil {
		return nil, err
	}
	src = Normalize(src)
	st := lx.acquire(len(src))
	defer st.release()
	defer catch(&err)

	refs := NewLinkTableBuilder()
	st.block.reset(&st.opts, refs, &st.budget)
	tokens := st.block.document(src)
	links := refs.Freeze()
	st.inlinePass(tokens, links)
	lx.opts.logger().Debug("lexed document",
		"bytes", len(src), "tokens", len(tokens), "links", links.Len(),
		"mode", st.opts.mode().String(), "steps", st.budget.used)
	return &Document{Tokens: tokens, Links: links, Options: lx.opts}, nil
}

func (lx *Lexer) scan(src string) (links *LinkTable, err error) {
	if err := checkUTF8(src); err != nil {
		return nil, err
	}
	src = Normalize(src)
	st := lx.acquire(len(src))
	defer st.release()
	defer catch(&err)

	refs := NewLinkTableBuilder()
	st.block.reset(&st.opts, refs, &st.budget)
	st.block.document(src)
	return refs.Freeze(), nil
}

func (lx *Lexer) inlineOnly(text string, links *LinkTable) (tokens []Token, err error) {
	if err := checkUTF8(text); err != nil {
		return nil, err
	}
	st := lx.acquire(len(text))
	defer st.release()
	defer catch(&err)

	if links == nil {
		links = emptyLinkTable
	}
	return st.inlineTokens(text, links), nil
}

// document lexes the top level of a document, starting with an optional
// front matter block.
func (l *blockLexer) document(src string) []Token {
	var tokens []Token
	if l.opts.FrontMatter {
		if tok, n, ok := l.frontMatterToken(src); ok {
			tokens = append(tokens, tok)
			src = src[n:]
			l.off = n
		}
	}
	return l.blockTokens(src, tokens)
}

// inlinePass tokenizes the inline content of every block that carries text.
func (st *lexState) inlinePass(tokens []Token, links *LinkTable) {
	for i := range tokens {
		tok := &tokens[i]
		switch tok.Type {
		case TokenParagraph, TokenHeading, TokenText:
			if tok.Tokens == nil {
				tok.Tokens = st.inlineTokens(tok.Text, links)
			}
		case TokenTable:
			for j := range tok.Header {
				tok.Header[j].Tokens = st.inlineTokens(tok.Header[j].Text, links)
			}
			for _, row := range tok.Rows {
				for j := range row {
					row[j].Tokens = st.inlineTokens(row[j].Text, links)
				}
			}
		case TokenBlockquote, TokenList, TokenListItem:
			st.inlinePass(tok.Tokens, links)
		}
	}
}

func (st *lexState) inlineTokens(text string, links *LinkTable) []Token {
	if text == "" {
		return nil
	}
	st.inline.reset(text, &st.opts, links, &st.budget)
	tokens := st.inline.tokenize()
	textPass(tokens, &st.opts)
	return tokens
}
