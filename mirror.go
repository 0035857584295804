package esmirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mgilbir/esmirror/internal/modpath"
	"github.com/mgilbir/esmirror/internal/rewrite"
	"github.com/mgilbir/esmirror/internal/specifier"
)

// run is the state of one LoadAll call. visited and claims only grow.
type run struct {
	m      *Mirror
	out    string
	target string
	sem    *semaphore.Weighted

	// rootFiles maps the canonical specifier of every request to its
	// output path. Fixed before the first fetch.
	rootFiles map[string]string

	mu      sync.Mutex
	visited map[string]bool   // canonical specifiers already scheduled
	claims  map[string]string // output path -> canonical specifier
	roots   []string
	modules []MirroredModule
}

// dependency is a module waiting to be mirrored.
type dependency struct {
	canonical string
	path      string // output path, slash-separated
}

func newRun(m *Mirror, out, target string, requests []Request) *run {
	r := &run{
		m:         m,
		out:       out,
		target:    target,
		rootFiles: make(map[string]string, len(requests)),
		visited:   make(map[string]bool),
		claims:    make(map[string]string),
	}
	for _, req := range requests {
		canonical := modpath.Root(req.Package, req.Version, req.SubPath, target)
		if _, ok := r.rootFiles[canonical]; !ok {
			r.rootFiles[canonical] = modpath.RootFile(req.Package, req.SubPath)
		}
	}
	if m.cfg.concurrency > 1 {
		r.sem = semaphore.NewWeighted(int64(m.cfg.concurrency))
	}
	return r
}

func (r *run) loadRoot(ctx context.Context, req Request) error {
	canonical := modpath.Root(req.Package, req.Version, req.SubPath, r.target)
	file := r.rootFiles[canonical]

	r.mu.Lock()
	if slices.Contains(r.roots, canonical) {
		r.mu.Unlock()
		r.m.cfg.logger.Debug("package requested twice", "package", req.String())
		return nil
	}
	r.roots = append(r.roots, canonical)
	err := r.claimLocked(file, canonical)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.m.cfg.logger.Info("loading package", "url", r.url(canonical), "path", filepath.Join(r.out, file))
	deps, err := r.mirror(ctx, canonical, file, true)
	if err != nil {
		return err
	}

	if r.sem != nil {
		return r.walkParallel(ctx, deps)
	}
	return r.walk(ctx, deps)
}

// walk mirrors deps and everything they reach depth-first, one module at a
// time. A module's subtree is finished before its next sibling starts.
func (r *run) walk(ctx context.Context, deps []dependency) error {
	var stack []dependency
	push := func(deps []dependency) error {
		fresh, err := r.visitAll(deps)
		if err != nil {
			return err
		}
		for i := len(fresh) - 1; i >= 0; i-- {
			stack = append(stack, fresh[i])
		}
		return nil
	}

	if err := push(deps); err != nil {
		return err
	}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		r.logDependency(d)
		next, err := r.mirror(ctx, d.canonical, d.path, false)
		if err != nil {
			return err
		}
		if err := push(next); err != nil {
			return err
		}
	}
	return nil
}

// walkParallel mirrors sibling subtrees concurrently. The semaphore bounds
// in-flight fetches; visitAll guarantees each module has a single owner.
func (r *run) walkParallel(ctx context.Context, deps []dependency) error {
	g, gctx := errgroup.WithContext(ctx)

	var spawn func(deps []dependency) error
	spawn = func(deps []dependency) error {
		fresh, err := r.visitAll(deps)
		if err != nil {
			return err
		}
		for _, d := range fresh {
			g.Go(func() error {
				r.logDependency(d)
				next, err := r.mirror(gctx, d.canonical, d.path, false)
				if err != nil {
					return err
				}
				return spawn(next)
			})
		}
		return nil
	}

	if err := spawn(deps); err != nil {
		_ = g.Wait()
		return err
	}
	return g.Wait()
}

func (r *run) logDependency(d dependency) {
	r.m.cfg.logger.Info("loading dependency",
		"url", r.url(d.canonical),
		"path", filepath.Join(r.out, filepath.FromSlash(d.path)),
		"depth", modpath.Depth(d.path))
}

// visitAll marks deps visited and returns the ones not seen before.
// Requested packages are left to loadRoot.
func (r *run) visitAll(deps []dependency) ([]dependency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fresh []dependency
	for _, d := range deps {
		if _, ok := r.rootFiles[d.canonical]; ok {
			continue
		}
		if r.visited[d.canonical] {
			r.m.cfg.logger.Debug("already mirrored", "specifier", d.canonical)
			continue
		}
		if err := r.claimLocked(d.path, d.canonical); err != nil {
			return nil, err
		}
		r.visited[d.canonical] = true
		fresh = append(fresh, d)
	}
	return fresh, nil
}

func (r *run) claim(file, canonical string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimLocked(file, canonical)
}

func (r *run) claimLocked(file, canonical string) error {
	if file == "." || file == ".." || strings.HasPrefix(file, "../") || path.IsAbs(file) {
		return &UnsafePathError{Path: file, Specifier: canonical}
	}
	if existing, ok := r.claims[file]; ok && existing != canonical {
		return &ConflictError{Path: file, Existing: existing, Specifier: canonical}
	}
	r.claims[file] = canonical
	return nil
}

// mirror fetches one module, rewrites its specifiers relative to file,
// writes it and returns its dependencies in first-occurrence order.
func (r *run) mirror(ctx context.Context, canonical, file string, root bool) ([]dependency, error) {
	text, err := r.fetch(ctx, canonical)
	if err != nil {
		return nil, err
	}
	text = rewrite.Annotate(text)

	dir := modpath.Dir(canonical)
	var (
		deps  []dependency
		seen  = make(map[string]bool)
		edits []rewrite.Edit
		subst = make(map[string]string)
	)
	for match, err := range specifier.All(text) {
		if err != nil {
			var me *specifier.MalformedError
			offset := 0
			if errors.As(err, &me) {
				offset = me.Offset
			}
			return nil, &MalformedModuleError{Specifier: canonical, Offset: offset, Err: err}
		}

		dep, ok := r.canonical(match.Raw, dir)
		if !ok {
			r.m.cfg.logger.Warn("leaving external specifier", "specifier", match.Raw, "in", canonical)
			continue
		}

		depFile, ok := r.rootFiles[dep]
		if !ok {
			depFile = path.Clean(modpath.SaveName(dep, r.target))
		}
		rel := modpath.Relative(file, depFile)
		edits = append(edits, rewrite.Edit{Start: match.Start, End: match.End, Text: rel})
		if _, ok := subst[match.Raw]; !ok {
			subst[match.Raw] = rel
		}

		if !seen[dep] {
			seen[dep] = true
			deps = append(deps, dependency{canonical: dep, path: depFile})
		}
	}

	switch r.m.cfg.rewrite {
	case RewriteSubstring:
		text = rewrite.Substring(text, subst)
	default:
		text = rewrite.Spans(text, edits)
	}

	if err := r.write(file, text); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(text))
	mod := MirroredModule{
		Specifier: canonical,
		Path:      file,
		SHA256:    hex.EncodeToString(sum[:]),
		Root:      root,
	}
	for _, d := range deps {
		mod.Deps = append(mod.Deps, d.canonical)
	}

	r.mu.Lock()
	r.modules = append(r.modules, mod)
	r.mu.Unlock()

	return deps, nil
}

// canonical resolves raw against dir. Absolute URLs on the configured host
// are treated as root-relative.
func (r *run) canonical(raw, dir string) (string, bool) {
	base := r.m.cfg.baseURL
	if strings.HasPrefix(raw, base+"/") {
		raw = raw[len(base):]
	}
	return modpath.Canonical(raw, dir)
}

func (r *run) url(canonical string) string {
	return r.m.cfg.baseURL + canonical
}

func (r *run) fetch(ctx context.Context, canonical string) (string, error) {
	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return "", err
		}
		defer r.sem.Release(1)
	}

	url := r.url(canonical)
	text, err := r.m.cfg.fetcher.Fetch(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var ne *NetworkError
		if errors.As(err, &ne) {
			return "", err
		}
		return "", &NetworkError{URL: url, Err: err}
	}
	return text, nil
}

func (r *run) write(file, text string) error {
	target := filepath.Join(r.out, filepath.FromSlash(file))
	dir := filepath.Dir(target)
	if err := r.m.cfg.fs.MkdirAll(dir, 0o755); err != nil {
		return &FileSystemError{Op: "create directory", Path: dir, Err: err}
	}
	if err := afero.WriteFile(r.m.cfg.fs, target, []byte(text), 0o644); err != nil {
		return &FileSystemError{Op: "write", Path: target, Err: err}
	}
	return nil
}
