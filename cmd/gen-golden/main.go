package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/mdlex"
	"pkt.systems/mdlex/internal/tokdump"
)

// gen-golden lexes every testdata/*.md file and writes the token outline next
// to it.
func main() {
	root := "testdata"
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.HasSuffix(path, ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		fatalf("walk %s: %v", root, err)
	}
	if len(paths) == 0 {
		fatalf("no markdown files found under %s", root)
	}
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fatalf("read %s: %v", path, err)
		}
		doc, err := mdlex.LexBytes(src, tokdump.GoldenOptions()...)
		if err != nil {
			fatalf("lex %s: %v", path, err)
		}
		var out bytes.Buffer
		if err := tokdump.Write(&out, doc.Tokens); err != nil {
			fatalf("dump %s: %v", path, err)
		}
		goldenPath := goldenTokensPath(root, path)
		if err := os.WriteFile(goldenPath, out.Bytes(), 0o644); err != nil {
			fatalf("write %s: %v", goldenPath, err)
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", goldenPath)
	}
}

func goldenTokensPath(root string, mdPath string) string {
	rel, err := filepath.Rel(root, mdPath)
	if err != nil {
		rel = mdPath
	}
	name := strings.TrimSuffix(rel, ".md")
	name = strings.ReplaceAll(filepath.ToSlash(name), "/", "__")
	return filepath.Join(root, name+".tokens.golden")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
