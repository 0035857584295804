package esmirror

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// DefaultBaseURL is the module host used when no base URL is configured.
const DefaultBaseURL = "https://esm.sh"

// DefaultManifest is the conventional manifest file name, for use with
// WithManifest.
const DefaultManifest = "manifest.json"

// RewriteMode selects how specifiers are substituted in mirrored text.
type RewriteMode int

const (
	// RewriteSpans replaces only the specifier literals found by the scanner.
	RewriteSpans RewriteMode = iota
	// RewriteSubstring replaces every occurrence of each raw specifier text,
	// including occurrences outside import and export statements.
	RewriteSubstring
)

func (m RewriteMode) String() string {
	switch m {
	case RewriteSpans:
		return "spans"
	case RewriteSubstring:
		return "substring"
	}
	return fmt.Sprintf("RewriteMode(%d)", int(m))
}

// ParseRewriteMode parses "spans" or "substring".
func ParseRewriteMode(s string) (RewriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "spans":
		return RewriteSpans, nil
	case "substring":
		return RewriteSubstring, nil
	}
	return 0, fmt.Errorf("esmirror: unknown rewrite mode %q (expected spans or substring)", s)
}

// Option configures a Mirror.
type Option func(*config)

type config struct {
	fetcher     Fetcher
	fs          afero.Fs
	logger      *log.Logger
	baseURL     string
	concurrency int
	rewrite     RewriteMode
	manifest    string
}

func defaultConfig() *config {
	return &config{
		fetcher:     NewHTTPFetcher(nil),
		fs:          afero.NewOsFs(),
		logger:      log.New(io.Discard),
		baseURL:     DefaultBaseURL,
		concurrency: 1,
		rewrite:     RewriteSpans,
		manifest:    "",
	}
}

// WithFetcher sets how module text is retrieved. The default is an
// HTTPFetcher using http.DefaultClient.
func WithFetcher(f Fetcher) Option {
	return func(c *config) {
		c.fetcher = f
	}
}

// WithFS sets the filesystem the output tree is written to.
// The default is the operating system's filesystem.
func WithFS(fs afero.Fs) Option {
	return func(c *config) {
		c.fs = fs
	}
}

// WithLogger sets the logger that receives progress reports.
// By default nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithBaseURL sets the module host, e.g. "https://esm.sh".
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.baseURL = u
	}
}

// WithConcurrency sets how many fetches may be in flight at once.
// 1, the default, walks the graph depth-first one module at a time.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}

// WithRewriteMode selects the specifier substitution strategy.
func WithRewriteMode(m RewriteMode) Option {
	return func(c *config) {
		c.rewrite = m
	}
}

// WithManifest writes a manifest of the mirrored tree under name, relative
// to the output root. No manifest is written by default; an empty name
// disables it again.
func WithManifest(name string) Option {
	return func(c *config) {
		c.manifest = name
	}
}
