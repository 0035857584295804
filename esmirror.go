// Package esmirror mirrors ES modules served by an esm.sh style CDN onto a
// local filesystem. Every import and export specifier is rewritten to a
// relative path, so the mirrored tree loads without network access.
//
// Basic usage:
//
//	m, err := esmirror.New(esmirror.WithConcurrency(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := m.LoadAll(ctx, "vendor/esm", "es2022",
//	    esmirror.Request{Package: "react", Version: "18.3.1"},
//	    esmirror.Request{Package: "react-dom", Version: "18.3.1", SubPath: "client"},
//	)
package esmirror

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mgilbir/esmirror/internal/manifest"
	"github.com/spf13/afero"
)

// Request names a root module to mirror. SubPath, when set, addresses a
// named entry point of the package ("client" for react-dom/client) and
// becomes the output file's base name.
type Request struct {
	Package string
	Version string
	SubPath string
}

func (r Request) String() string {
	s := r.Package + "@" + r.Version
	if r.SubPath != "" {
		s += "/" + strings.Trim(r.SubPath, "/")
	}
	return s
}

func (r Request) validate() error {
	if r.Package == "" || r.Version == "" {
		return fmt.Errorf("%w %q: package and version are required", ErrInvalidRequest, r.String())
	}
	for _, part := range []string{r.Package, r.Version, r.SubPath} {
		for _, seg := range strings.Split(part, "/") {
			if seg == ".." {
				return fmt.Errorf("%w %q: %q segments are not allowed", ErrInvalidRequest, r.String(), seg)
			}
		}
	}
	if strings.ContainsAny(r.Version, "/?#") {
		return fmt.Errorf("%w %q: malformed version", ErrInvalidRequest, r.String())
	}
	return nil
}

// ParseRequest parses "name@version[/subpath]", including scoped names
// such as "@babel/runtime@7.23.5".
func ParseRequest(s string) (Request, error) {
	s = strings.TrimSpace(s)
	search := s
	offset := 0
	if strings.HasPrefix(s, "@") {
		slash := strings.IndexByte(s, '/')
		if slash < 0 {
			return Request{}, fmt.Errorf("%w %q: scoped package without a name", ErrInvalidRequest, s)
		}
		offset = slash
		search = s[slash:]
	}

	at := strings.IndexByte(search, '@')
	if at < 0 {
		return Request{}, fmt.Errorf("%w %q: missing @version", ErrInvalidRequest, s)
	}
	at += offset

	version, subPath, _ := strings.Cut(s[at+1:], "/")
	r := Request{
		Package: s[:at],
		Version: version,
		SubPath: strings.Trim(subPath, "/"),
	}
	if err := r.validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

// MirroredModule is one file written by LoadAll.
type MirroredModule struct {
	// Specifier is the canonical, root-relative specifier on the host.
	Specifier string
	// Path is the slash-separated path relative to the output directory.
	Path string
	// SHA256 is the hex digest of the written text.
	SHA256 string
	// Deps lists the canonical specifiers the module imports.
	Deps []string
	// Root marks files written for a Request.
	Root bool
}

// Result lists what LoadAll wrote.
type Result struct {
	// Roots holds the canonical specifier of each distinct request.
	Roots []string
	// Modules are in the order they were written.
	Modules []MirroredModule
}

// Lookup finds the module mirrored for a canonical specifier.
func (r *Result) Lookup(specifier string) (MirroredModule, bool) {
	i := slices.IndexFunc(r.Modules, func(m MirroredModule) bool { return m.Specifier == specifier })
	if i < 0 {
		return MirroredModule{}, false
	}
	return r.Modules[i], true
}

// Paths returns the output paths of all modules, sorted.
func (r *Result) Paths() []string {
	paths := make([]string, 0, len(r.Modules))
	for _, m := range r.Modules {
		paths = append(paths, m.Path)
	}
	slices.Sort(paths)
	return paths
}

// Mirror loads module graphs from a host into a directory tree.
// A Mirror holds configuration only; each LoadAll call has its own state,
// so one Mirror may serve concurrent calls on distinct output directories.
type Mirror struct {
	cfg *config
}

// New creates a Mirror with the given options.
func New(opts ...Option) (*Mirror, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	cfg.baseURL = strings.TrimRight(cfg.baseURL, "/")
	if !strings.HasPrefix(cfg.baseURL, "http://") && !strings.HasPrefix(cfg.baseURL, "https://") {
		return nil, fmt.Errorf("esmirror: base URL %q must be http or https", cfg.baseURL)
	}
	if cfg.fetcher == nil {
		return nil, errors.New("esmirror: no fetcher configured")
	}
	if cfg.fs == nil {
		return nil, errors.New("esmirror: no filesystem configured")
	}
	if cfg.concurrency < 1 {
		return nil, fmt.Errorf("esmirror: concurrency must be at least 1, got %d", cfg.concurrency)
	}

	return &Mirror{cfg: cfg}, nil
}

// LoadAll empties outputDir and mirrors every request, with its transitive
// dependencies, into it. target is the host's build target ("es2022").
//
// outputDir is removed recursively first; it must not hold unrelated data.
// The first error aborts the call and leaves whatever was already written.
func (m *Mirror) LoadAll(ctx context.Context, outputDir, target string, requests ...Request) (*Result, error) {
	if target == "" {
		return nil, errors.New("esmirror: target is required")
	}
	for _, req := range requests {
		if err := req.validate(); err != nil {
			return nil, err
		}
	}

	if err := m.resetDir(outputDir); err != nil {
		return nil, err
	}

	r := newRun(m, outputDir, target, requests)
	if m.cfg.manifest != "" {
		if err := r.claim(filepath.ToSlash(filepath.Clean(m.cfg.manifest)), "manifest"); err != nil {
			return nil, err
		}
	}

	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.loadRoot(ctx, req); err != nil {
			return nil, err
		}
	}

	res := &Result{Roots: r.roots, Modules: r.modules}
	if m.cfg.manifest != "" {
		if err := m.writeManifest(outputDir, target, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (m *Mirror) resetDir(dir string) error {
	exists, err := afero.Exists(m.cfg.fs, dir)
	if err != nil {
		return &FileSystemError{Op: "stat", Path: dir, Err: err}
	}
	if exists {
		if err := m.cfg.fs.RemoveAll(dir); err != nil {
			return &FileSystemError{Op: "remove", Path: dir, Err: err}
		}
	}
	if err := m.cfg.fs.MkdirAll(dir, 0o755); err != nil {
		return &FileSystemError{Op: "create directory", Path: dir, Err: err}
	}
	return nil
}

func (m *Mirror) writeManifest(outputDir, target string, res *Result) error {
	modules := make([]manifest.Module, 0, len(res.Modules))
	for _, mod := range res.Modules {
		modules = append(modules, manifest.Module{
			Specifier: mod.Specifier,
			File:      mod.Path,
			SHA256:    mod.SHA256,
			Root:      mod.Root,
			Deps:      mod.Deps,
		})
	}

	path := filepath.Join(outputDir, filepath.FromSlash(m.cfg.manifest))
	if err := m.cfg.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &FileSystemError{Op: "create directory", Path: filepath.Dir(path), Err: err}
	}
	if err := manifest.Write(m.cfg.fs, path, manifest.New(m.cfg.baseURL, target, res.Roots, modules)); err != nil {
		return &FileSystemError{Op: "write", Path: path, Err: err}
	}
	m.cfg.logger.Info("wrote manifest", "path", path, "modules", len(modules))
	return nil
}
