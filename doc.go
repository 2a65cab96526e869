// Package mdlex tokenizes Markdown into a typed token tree.
//
// The lexer follows CommonMark and adds the GitHub flavored extensions: tables,
// strikethrough, task list items and extended autolinks. Output is meant for
// renderers; the lexer never emits HTML and never escapes text.
//
// Lexing runs in two passes. The block pass splits the source into headings,
// lists, block quotes, code, tables and paragraphs, and records link reference
// definitions. The inline pass then tokenizes the text of every block against
// the now frozen reference table.
//
// Core properties:
//   - Raw text of the top-level tokens concatenates to the normalized source
//   - Every table row has exactly as many cells as the header
//   - Degenerate input degrades to text; only malformed UTF-8 and runaway rules fail
//   - Documents are independent; a Lexer can be shared across goroutines
//
// Example:
//
//	doc, err := mdlex.Lex("# Hello\n\nSee [the docs][docs].\n\n[docs]: https://example.com\n")
//	if err != nil {
//		log.Fatal(err)
//	}
//	mdlex.Walk(doc.Tokens, func(t *mdlex.Token) bool {
//		if t.Type == mdlex.TokenLink {
//			fmt.Println(t.Href)
//		}
//		return true
//	})
//
// Behavior is configured with Options such as WithGFM, WithPedantic, WithBreaks
// and WithSmartypants.
package mdlex
