package mdlex

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxFrontMatterScanBytes = 64 * 1024

type frontMatterMatch struct {
	n     int
	delim string
	body  string
}

// matchFrontMatter matches a metadata block at the very start of src: a
// delimiter line of ---, +++ or ;;; followed by a metadata-looking line and a
// matching closing delimiter within the scan window.
func matchFrontMatter(src string) (frontMatterMatch, bool) {
	openLine, pos := lineAt(src, 0)
	delim, ok := parseOpeningFrontMatterDelimiter(openLine)
	if !ok || pos >= len(src) {
		return frontMatterMatch{}, false
	}
	second, _ := lineAt(src, pos)
	if !frontMatterMetadataLikely(second) {
		return frontMatterMatch{}, false
	}
	bodyStart := pos
	for pos < len(src) && pos <= maxFrontMatterScanBytes {
		line, next := lineAt(src, pos)
		if strings.TrimSpace(line) == delim {
			return frontMatterMatch{
				n:     pos + len(line),
				delim: delim,
				body:  src[bodyStart:pos],
			}, true
		}
		pos = next
	}
	return frontMatterMatch{}, false
}

func parseOpeningFrontMatterDelimiter(line string) (string, bool) {
	switch trimmed := strings.TrimSpace(strings.TrimPrefix(line, "\ufeff")); trimmed {
	case "---", "+++", ";;;":
		return trimmed, true
	}
	return "", false
}

func frontMatterMetadataLikely(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return true
	}
	return strings.Contains(trimmed, ":") || strings.Contains(trimmed, "=")
}

// decodeFrontMatter decodes YAML (---) and JSON (;;;) metadata. TOML (+++)
// blocks are kept as raw text only.
func decodeFrontMatter(m frontMatterMatch) (map[string]any, error) {
	if m.delim == "+++" {
		return nil, nil
	}
	var meta map[string]any
	if err := yaml.Unmarshal([]byte(m.body), &meta); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	return meta, nil
}

// frontMatterToken lexes a leading metadata block. Decoding failures are
// logged and leave Meta empty; the block is still consumed.
func (l *blockLexer) frontMatterToken(src string) (Token, int, bool) {
	m, ok := matchFrontMatter(src)
	if !ok {
		return Token{}, 0, false
	}
	tok := Token{Type: TokenFrontMatter, Raw: src[:m.n], Text: m.body}
	meta, err := decodeFrontMatter(m)
	if err != nil {
		l.opts.logger().Warn("front matter not decoded", "delimiter", m.delim, "error", err)
	}
	tok.Meta = meta
	return tok, m.n, true
}
