package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
	"pkt.systems/mdlex"
	"pkt.systems/version"
)

const defaultWidth = 80

func init() {
	version.SetDefaultModule("pkt.systems/mdlex")
}

func main() {
	var (
		gfm          bool
		pedantic     bool
		breaks       bool
		sanitize     bool
		smartypants  bool
		mangle       bool
		headerIDs    bool
		headerPrefix string
		frontMatter  bool
		stepLimit    int
		format       string
		outPath      string
		widthFlag    int
		refsOnly     bool
		verbose      bool
		showVersion  bool
	)

	defaults := mdlex.DefaultOptions()
	flags := pflag.NewFlagSet("mdlex", pflag.ExitOnError)
	flags.BoolVar(&gfm, "gfm", defaults.GFM, "GitHub flavored extensions (tables, strikethrough, task lists, autolinks)")
	flags.BoolVar(&pedantic, "pedantic", defaults.Pedantic, "Follow markdown.pl where it differs from CommonMark")
	flags.BoolVar(&breaks, "breaks", defaults.Breaks, "Turn soft line breaks into hard breaks")
	flags.BoolVar(&sanitize, "sanitize", defaults.Sanitize, "Turn raw HTML into text")
	flags.BoolVar(&smartypants, "smartypants", defaults.Smartypants, "Typographic quotes, dashes and ellipses")
	flags.BoolVar(&mangle, "mangle", defaults.Mangle, "Encode email autolinks as character references")
	flags.BoolVar(&headerIDs, "header-ids", defaults.HeaderIDs, "Mark headings for anchor generation")
	flags.StringVar(&headerPrefix, "header-prefix", defaults.HeaderPrefix, "Prefix for heading anchors")
	flags.BoolVar(&frontMatter, "front-matter", defaults.FrontMatter, "Emit leading metadata as a front_matter token")
	flags.IntVar(&stepLimit, "step-limit", defaults.StepLimit, "Step budget for backtracking rules (0 derives from input size, -1 disables)")
	flags.StringVarP(&format, "format", "f", "tree", "Output format: tree|json|yaml")
	flags.StringVarP(&outPath, "output", "o", "", "Output file instead of stdout")
	flags.IntVarP(&widthFlag, "width", "w", 0, "Tree output width (0 uses terminal width if available)")
	flags.BoolVar(&refsOnly, "refs", false, "Print only the link reference table")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")
	flags.BoolVar(&showVersion, "version", false, "Print version and exit")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, version.Module(), version.Current())
		fmt.Fprintf(os.Stderr, "Usage: mdlex [flags] [inputs...]\n")
		fmt.Fprintln(os.Stderr, "\nIf no input is provided, Markdown is read from stdin.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if showVersion {
		fmt.Fprintln(os.Stdout, version.Module(), version.Current())
		return
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if _, err := encoderFor(format); err != nil {
		fmt.Fprintf(os.Stderr, "invalid --format %q: %v\n", format, err)
		os.Exit(2)
	}

	logger := newLogger(os.Stderr, verbose)
	opts := []mdlex.Option{
		mdlex.WithGFM(gfm),
		mdlex.WithPedantic(pedantic),
		mdlex.WithBreaks(breaks),
		mdlex.WithSanitize(sanitize),
		mdlex.WithSmartypants(smartypants),
		mdlex.WithMangle(mangle),
		mdlex.WithHeaderIDs(headerIDs),
		mdlex.WithHeaderPrefix(headerPrefix),
		mdlex.WithFrontMatter(frontMatter),
		mdlex.WithStepLimit(stepLimit),
		mdlex.WithLogger(logger),
	}

	src, err := readInputs(os.Stdin, flags.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}
	if err := mdlex.ValidateInput(src); err != nil {
		fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
		os.Exit(1)
	}

	writer, closeOut, err := resolveOutput(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open output: %v\n", err)
		os.Exit(1)
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}

	lexer := mdlex.NewLexer(opts...)
	if refsOnly {
		links, err := lexer.ScanReferences(string(src))
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan references: %v\n", err)
			os.Exit(1)
		}
		if err := writeLinks(writer, format, links); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
		return
	}

	doc, err := lexDocument(lexer, string(src), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lex: %v\n", err)
		os.Exit(1)
	}
	if err := writeDocument(writer, format, doc, resolveWidth(widthFlag, writer)); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
}

// lexDocument lexes src and falls back to a single plain paragraph when a
// rule exhausts its step budget.
func lexDocument(lexer *mdlex.Lexer, src string, logger *slog.Logger) (*mdlex.Document, error) {
	doc, err := lexer.Lex(src)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, mdlex.ErrRuleTimeout) {
		return nil, err
	}
	logger.Warn("falling back to plain text", "error", err)
	return plainDocument(mdlex.Normalize(src), lexer.Options()), nil
}

func plainDocument(src string, opts mdlex.Options) *mdlex.Document {
	doc := &mdlex.Document{Options: opts}
	if src == "" {
		return doc
	}
	doc.Tokens = []mdlex.Token{{
		Type:   mdlex.TokenParagraph,
		Raw:    src,
		Text:   src,
		Tokens: []mdlex.Token{{Type: mdlex.TokenText, Raw: src, Text: src}},
	}}
	return doc
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

type encodeFunc func(io.Writer, any) error

func encoderFor(format string) (encodeFunc, error) {
	switch format {
	case "", "tree":
		return nil, nil
	case "json":
		return func(w io.Writer, v any) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}, nil
	case "yaml":
		return func(w io.Writer, v any) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		}, nil
	default:
		return nil, fmt.Errorf("expected tree|json|yaml")
	}
}

func writeDocument(w io.Writer, format string, doc *mdlex.Document, width int) error {
	enc, err := encoderFor(format)
	if err != nil {
		return err
	}
	if enc == nil {
		return writeTree(w, doc.Tokens, width)
	}
	return enc(w, doc)
}

func writeLinks(w io.Writer, format string, links *mdlex.LinkTable) error {
	enc, err := encoderFor(format)
	if err != nil {
		return err
	}
	if enc != nil {
		return enc(w, links)
	}
	table := links.Map()
	for _, label := range links.Labels() {
		link := table[label]
		line := fmt.Sprintf("[%s]: %s", label, link.Href)
		if link.Title != "" {
			line += " " + strconv.Quote(link.Title)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func resolveWidth(width int, w io.Writer) int {
	if width > 0 {
		return width
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			return cols
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if cols, err := strconv.Atoi(value); err == nil && cols > 0 {
			return cols
		}
	}
	return defaultWidth
}

// readInputs returns the named inputs joined in order. No arguments or "-"
// reads stdin.
func readInputs(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 {
		return io.ReadAll(stdin)
	}
	var src []byte
	for _, arg := range args {
		var (
			b   []byte
			err error
		)
		switch arg = strings.TrimSpace(arg); arg {
		case "":
			return nil, errors.New("empty input argument")
		case "-":
			b, err = io.ReadAll(stdin)
		default:
			b, err = os.ReadFile(expandHome(arg))
		}
		if err != nil {
			return nil, err
		}
		src = append(src, b...)
	}
	return src, nil
}

func resolveOutput(path string) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return os.Stdout, nil, nil
	}
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && rest[0] != '/') {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
