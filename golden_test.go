package mdlex_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/mdlex"
	"pkt.systems/mdlex/internal/tokdump"
)

// TestCorpusGolden compares the token outline of every testdata/*.md file
// with its .tokens.golden companion. Run go run ./cmd/gen-golden after an
// intended change.
func TestCorpusGolden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.md"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("no markdown files found under testdata: %v", err)
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			src, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read %s: %v", path, err)
			}
			goldenPath := strings.TrimSuffix(path, ".md") + ".tokens.golden"
			want, err := os.ReadFile(goldenPath)
			if err != nil {
				t.Fatalf("read golden %s: %v", goldenPath, err)
			}
			doc, err := mdlex.LexBytes(src, tokdump.GoldenOptions()...)
			if err != nil {
				t.Fatalf("lex %s: %v", path, err)
			}
			if got := tokdump.String(doc.Tokens); got != string(want) {
				t.Fatalf("token mismatch %s\n%s", path, firstDiffContext(string(want), got, 3))
			}
		})
	}
}

func firstDiffContext(want string, got string, ctx int) string {
	wantLines := strings.Split(want, "\n")
	gotLines := strings.Split(got, "\n")
	max := len(wantLines)
	if len(gotLines) > max {
		max = len(gotLines)
	}
	diffAt := -1
	for i := 0; i < max; i++ {
		var w, g string
		if i < len(wantLines) {
			w = wantLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		if w != g {
			diffAt = i
			break
		}
	}
	if diffAt == -1 {
		return "---want---\n" + want + "\n---got---\n" + got
	}
	start := diffAt - ctx
	if start < 0 {
		start = 0
	}
	end := diffAt + ctx
	if end >= max {
		end = max - 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "first difference at line %d\n", diffAt+1)
	b.WriteString("---want---\n")
	for i := start; i <= end; i++ {
		line := ""
		if i < len(wantLines) {
			line = wantLines[i]
		}
		fmt.Fprintf(&b, "%5d | %s\n", i+1, line)
	}
	b.WriteString("---got---\n")
	for i := start; i <= end; i++ {
		line := ""
		if i < len(gotLines) {
			line = gotLines[i]
		}
		fmt.Fprintf(&b, "%5d | %s\n", i+1, line)
	}
	return b.String()
}
