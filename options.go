package mdlex

import "log/slog"

// Options is the configuration record threaded through the block lexer and the
// inline tokenizer.
type Options struct {
	// GFM enables tables, strikethrough, task list items and extended autolinks.
	GFM bool
	// Pedantic follows the original markdown.pl where it differs from CommonMark.
	Pedantic bool
	// Breaks turns every soft line break inside a paragraph into a br token.
	Breaks bool
	// Sanitize turns raw HTML into escaped text instead of html tokens.
	Sanitize bool
	// Smartypants applies typographic substitution to text tokens.
	Smartypants bool
	// Mangle obfuscates email autolinks with character references.
	Mangle bool
	// HeaderIDs marks heading tokens for anchor generation by the renderer.
	HeaderIDs bool
	// HeaderPrefix is the id prefix renderers should use for heading anchors.
	HeaderPrefix string
	// FrontMatter emits a leading YAML/TOML/JSON metadata block as a front_matter token.
	FrontMatter bool
	// StepLimit bounds the work spent in backtracking-prone rules. Zero derives a limit
	// from the input size; a negative value disables the guard.
	StepLimit int
	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Option configures lexing behavior.
type Option func(*Options)

// DefaultOptions returns the default configuration: GFM, mangling and heading ids on.
func DefaultOptions() Options {
	return Options{
		GFM:       true,
		Mangle:    true,
		HeaderIDs: true,
	}
}

// WithOptions replaces the whole configuration record.
func WithOptions(o Options) Option {
	return func(cfg *Options) {
		*cfg = o
	}
}

// WithGFM enables or disables GitHub flavored extensions.
func WithGFM(enabled bool) Option {
	return func(cfg *Options) {
		cfg.GFM = enabled
	}
}

// WithPedantic enables or disables pedantic mode. Pedantic mode disables GFM.
func WithPedantic(enabled bool) Option {
	return func(cfg *Options) {
		cfg.Pedantic = enabled
	}
}

// WithBreaks enables or disables hard breaks on every line ending.
func WithBreaks(enabled bool) Option {
	return func(cfg *Options) {
		cfg.Breaks = enabled
	}
}

// WithSanitize enables or disables escaping of raw HTML.
func WithSanitize(enabled bool) Option {
	return func(cfg *Options) {
		cfg.Sanitize = enabled
	}
}

// WithSmartypants enables or disables typographic substitution.
func WithSmartypants(enabled bool) Option {
	return func(cfg *Options) {
		cfg.Smartypants = enabled
	}
}

// WithMangle enables or disables email obfuscation.
func WithMangle(enabled bool) Option {
	return func(cfg *Options) {
		cfg.Mangle = enabled
	}
}

// WithHeaderIDs enables or disables heading anchor marking.
func WithHeaderIDs(enabled bool) Option {
	return func(cfg *Options) {
		cfg.HeaderIDs = enabled
	}
}

// WithHeaderPrefix sets the heading anchor prefix passed on to renderers.
func WithHeaderPrefix(prefix string) Option {
	return func(cfg *Options) {
		cfg.HeaderPrefix = prefix
	}
}

// WithFrontMatter enables or disables front matter detection.
func WithFrontMatter(enabled bool) Option {
	return func(cfg *Options) {
		cfg.FrontMatter = enabled
	}
}

// WithStepLimit sets the work budget for backtracking-prone rules.
func WithStepLimit(steps int) Option {
	return func(cfg *Options) {
		cfg.StepLimit = steps
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *Options) {
		cfg.Logger = logger
	}
}

type mode uint8

const (
	modeNormal mode = iota
	modePedantic
	modeGFM
)

func (m mode) String() string {
	switch m {
	case modePedantic:
		return "pedantic"
	case modeGFM:
		return "gfm"
	default:
		return "normal"
	}
}

func (o *Options) mode() mode {
	switch {
	case o.Pedantic:
		return modePedantic
	case o.GFM:
		return modeGFM
	default:
		return modeNormal
	}
}

func buildOptions(opts []Option) Options {
	cfg := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

var discardLogger = slog.New(slog.DiscardHandler)
