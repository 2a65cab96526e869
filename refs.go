package mdlex

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
)

// maxLabelLen is the longest link label, in bytes, that can match a definition.
const maxLabelLen = 999

// Link is the destination and title of a link reference definition.
type Link struct {
	Href  string `json:"href" yaml:"href"`
	Title string `json:"title" yaml:"title"`
}

// LinkTableBuilder collects link reference definitions during the block pass.
// Freeze turns it into a read-only LinkTable; the builder is unusable afterwards.
type LinkTableBuilder struct {
	links  map[string]Link
	order  []string
	frozen bool
}

// NewLinkTableBuilder returns an empty builder.
func NewLinkTableBuilder() *LinkTableBuilder {
	return &LinkTableBuilder{links: make(map[string]Link)}
}

// Add records a definition. It reports false when the label is empty after
// normalization or already defined; the first definition for a label wins.
func (b *LinkTableBuilder) Add(label, href, title string) bool {
	if b.frozen {
		panic("mdlex: Add on frozen LinkTableBuilder")
	}
	key := NormalizeLabel(label)
	if key == "" {
		return false
	}
	if _, ok := b.links[key]; ok {
		return false
	}
	b.links[key] = Link{Href: href, Title: title}
	b.order = append(b.order, key)
	return true
}

// Freeze ends the write phase and returns the immutable table.
func (b *LinkTableBuilder) Freeze() *LinkTable {
	if b.frozen {
		panic("mdlex: LinkTableBuilder frozen twice")
	}
	b.frozen = true
	t := &LinkTable{links: b.links, order: b.order}
	b.links = nil
	b.order = nil
	return t
}

// LinkTable maps normalized labels to link reference definitions. It is
// immutable and safe for concurrent reads.
type LinkTable struct {
	links map[string]Link
	order []string
}

// Lookup normalizes label and returns its definition.
func (t *LinkTable) Lookup(label string) (Link, bool) {
	if t == nil || len(t.links) == 0 || len(label) > maxLabelLen {
		return Link{}, false
	}
	l, ok := t.links[NormalizeLabel(label)]
	return l, ok
}

// Len returns the number of definitions.
func (t *LinkTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.links)
}

// Labels returns the normalized labels in definition order.
func (t *LinkTable) Labels() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Map returns a copy of the table keyed by normalized label.
func (t *LinkTable) Map() map[string]Link {
	out := make(map[string]Link, t.Len())
	if t == nil {
		return out
	}
	for k, v := range t.links {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the table as an object keyed by normalized label.
func (t *LinkTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Map())
}

// MarshalYAML encodes the table as a mapping keyed by normalized label.
func (t *LinkTable) MarshalYAML() (any, error) {
	return t.Map(), nil
}

var emptyLinkTable = &LinkTable{}

// NormalizeLabel trims a link label, collapses internal whitespace runs to a
// single space and applies Unicode case folding.
func NormalizeLabel(label string) string {
	label = strings.Trim(label, " \t\n")
	if label == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(label))
	space := false
	ascii := true
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch c {
		case ' ', '\t', '\n':
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		if c >= 0x80 {
			ascii = false
		} else if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	s := b.String()
	if ascii {
		return s
	}
	return cases.Fold().String(s)
}
