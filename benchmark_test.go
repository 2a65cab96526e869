package mdlex

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func mustReadSample(b *testing.B, path string) string {
	b.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		b.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func BenchmarkLexSampledata(b *testing.B) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.md"))
	if err != nil || len(paths) == 0 {
		b.Fatalf("no samples: %v", err)
	}
	var all strings.Builder
	for _, path := range paths {
		all.WriteString(mustReadSample(b, path))
		all.WriteString("\n\n")
	}
	src := all.String()
	lexer := NewLexer(WithSmartypants(true))
	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := lexer.Lex(src); err != nil {
			b.Fatalf("lex: %v", err)
		}
	}
}

func BenchmarkLexEmphasisHeavy(b *testing.B) {
	src := strings.Repeat("*a **b** _c_ ~~d~~ [e](/f) `g` ", 500)
	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	for i := 0; i < b.N; i++ {
		if _, err := Lex(src); err != nil {
			b.Fatalf("lex: %v", err)
		}
	}
}

func BenchmarkInlineTokens(b *testing.B) {
	text := "See [the docs](https://example.com \"title\") or www.example.org, *quickly*."
	lexer := NewLexer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := lexer.InlineTokens(text, nil); err != nil {
			b.Fatalf("inline: %v", err)
		}
	}
}

func TestLexAllocations(t *testing.T) {
	src := mustReadTestSample(t, filepath.Join("testdata", "lists.md"))
	lexer := NewLexer()
	allocs := testing.AllocsPerRun(50, func() {
		_, _ = lexer.Lex(src)
	})
	if allocs > 2000 {
		t.Fatalf("too many allocations per Lex: got %.2f", allocs)
	}
}

func allocatedBytes(f func()) uint64 {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	f()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

// TestLexMemoryGrowsLinearly lexes each input at two sizes and requires the
// bytes allocated to grow in proportion to the input.
func TestLexMemoryGrowsLinearly(t *testing.T) {
	units := []string{
		"a\n",
		"abc.def_ghi ",
		"[a](",
		"x &amp; \\* y\n",
		"*a* `b` c  \n",
	}
	lexer := NewLexer()
	for _, unit := range units {
		measure := func(reps int) uint64 {
			src := strings.Repeat(unit, reps)
			return allocatedBytes(func() {
				if _, err := lexer.Lex(src); err != nil {
					t.Fatalf("lex %q x %d: %v", unit, reps, err)
				}
			})
		}
		measure(2000)
		small := measure(4000)
		large := measure(16000)
		if large > 8*small {
			t.Fatalf("%q: allocations grew from %d to %d bytes for 4x the input", unit, small, large)
		}
	}
}

func mustReadTestSample(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
