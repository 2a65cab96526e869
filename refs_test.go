package mdlex

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"Foo":            "foo",
		"  Foo \t\n Bar ": "foo bar",
		"ΑΓΩ":            "αγω",
		"":               "",
		" \n ":           "",
	}
	for in, want := range cases {
		if got := NormalizeLabel(in); got != want {
			t.Fatalf("NormalizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLinkTableBuilder(t *testing.T) {
	b := NewLinkTableBuilder()
	if !b.Add("Foo", "/a", "A") {
		t.Fatalf("first definition rejected")
	}
	if b.Add("FOO", "/b", "") {
		t.Fatalf("duplicate definition accepted")
	}
	if b.Add("  ", "/c", "") {
		t.Fatalf("empty label accepted")
	}
	b.Add("bar  baz", "/d", "")
	table := b.Freeze()

	if diff := cmp.Diff([]string{"foo", "bar baz"}, table.Labels()); diff != "" {
		t.Fatalf("labels (-want +got):\n%s", diff)
	}
	link, ok := table.Lookup("fOo")
	if !ok || link != (Link{Href: "/a", Title: "A"}) {
		t.Fatalf("lookup = %+v %v", link, ok)
	}
	if _, ok := table.Lookup("Bar\nBaz"); !ok {
		t.Fatalf("lookup should collapse whitespace")
	}
	if _, ok := table.Lookup("missing"); ok {
		t.Fatalf("unexpected definition")
	}
}

func TestLinkTableBuilderFrozen(t *testing.T) {
	b := NewLinkTableBuilder()
	b.Freeze()
	defer func() {
		if recover() == nil {
			t.Fatalf("Add after Freeze should panic")
		}
	}()
	b.Add("x", "/x", "")
}

func TestNilLinkTable(t *testing.T) {
	var table *LinkTable
	if table.Len() != 0 || table.Labels() != nil || len(table.Map()) != 0 {
		t.Fatalf("nil table should be empty")
	}
	if _, ok := table.Lookup("x"); ok {
		t.Fatalf("nil table lookup should miss")
	}
}

func TestScanReferencesFindsNestedDefinitions(t *testing.T) {
	src := "> [q]: /quoted\n\n- [l]: /listed\n\n[top]: </with space> (paren title)\n"
	table, err := ScanReferences(src)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := map[string]Link{
		"q":   {Href: "/quoted"},
		"l":   {Href: "/listed"},
		"top": {Href: "/with space", Title: "paren title"},
	}
	if diff := cmp.Diff(want, table.Map()); diff != "" {
		t.Fatalf("definitions (-want +got):\n%s", diff)
	}
}

func TestDefinitionAfterUse(t *testing.T) {
	doc := mustLex(t, "[later]\n\n[later]: /x\n")
	link := doc.Tokens[0].Tokens[0]
	if link.Type != TokenLink || link.Href != "/x" {
		t.Fatalf("forward reference not resolved: %+v", link)
	}
}
