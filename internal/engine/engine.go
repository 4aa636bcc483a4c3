// Package engine implements the inclusion engine: the Include and Optional
// entry points that splice settings fragments into a caller-owned scope by
// opening scoped resolution sessions on the resolver chain.
package engine

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/splithcl/internal/ctxlog"
	"github.com/vk/splithcl/internal/loader"
	"github.com/vk/splithcl/internal/resolver"
	"github.com/vk/splithcl/internal/scope"
)

// Options configures a new Engine.
type Options struct {
	// FS is the storage service used to read fragments. Defaults to the
	// local file system (and any scheme the afs service supports).
	FS afs.Service

	// BaseDir is the directory relative references resolve against when no
	// fragment is currently executing. Defaults to the working directory.
	BaseDir string

	// SearchPaths are the roots dotted module names resolve against.
	SearchPaths []string
}

// Engine performs fragment inclusion. It owns the resolver chain, the module
// registry and the include history. An Engine is single-goroutine state:
// nested inclusion from within fragments is supported, concurrent inclusion
// from multiple goroutines is not.
type Engine struct {
	fs      afs.Service
	chain   *resolver.Chain
	host    *resolver.ModuleResolver
	base    *loader.FragmentLoader
	modules map[string]*moduleRecord
	history *History
	baseDir string
	dirs    []string
}

// moduleRecord remembers a completed inclusion: which names the fragment
// bound, with their values at that time. Re-including the same reference
// merges the record instead of executing the fragment again.
type moduleRecord struct {
	path  string
	names []string
	vals  map[string]cty.Value
}

// New builds an inclusion engine.
func New(opts Options) *Engine {
	fs := opts.FS
	if fs == nil {
		fs = afs.New()
	}
	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}

	e := &Engine{
		fs:      fs,
		modules: make(map[string]*moduleRecord),
		history: &History{},
		baseDir: baseDir,
	}
	// The host chain's default load step splices into whatever scope a load
	// is invoked with; sessions shadow it per inclusion to scope the
	// re-entrancy flag.
	e.base = loader.New(fs, e.include, e.history.Record)
	e.host = resolver.NewModuleResolver(fs, loader.Suffix, e.base, opts.SearchPaths...)
	e.chain = resolver.NewChain(e.host)
	return e
}

// AddSearchPath appends a root for dotted module resolution.
func (e *Engine) AddSearchPath(dir string) {
	e.host.AddRoot(dir)
}

// History returns every fragment location entered so far, in entry order.
// The history is a permanent record; completed inclusions stay on it.
func (e *Engine) History() []string {
	return e.history.Entries()
}

// newSessionLoader builds the scope-directed loader for one inclusion
// session. Each session gets its own instance so that the loading flag of an
// outer, mid-execution session never suppresses resolution for a nested one.
func (e *Engine) newSessionLoader() *loader.FragmentLoader {
	return loader.New(e.fs, e.include, e.history.Record)
}

// currentDir is the directory of the fragment currently executing, or the
// engine's base directory outside any inclusion.
func (e *Engine) currentDir() string {
	if n := len(e.dirs); n > 0 {
		return e.dirs[n-1]
	}
	return e.baseDir
}

// load executes an artifact into sc with the fragment's directory as the
// base for relative references, then records the inclusion under key so
// repeats become merges.
func (e *Engine) load(ctx context.Context, art *resolver.Artifact, sc *scope.Scope, key string) error {
	e.dirs = append(e.dirs, filepath.Dir(art.Path))
	defer func() { e.dirs = e.dirs[:len(e.dirs)-1] }()

	before := sc.Snapshot()
	if err := art.Loader.Load(ctx, art, sc); err != nil {
		return err
	}
	if key != "" {
		e.register(key, art.Path, before, sc)
	}
	return nil
}

// register records the names a completed inclusion added or overwrote.
// Bookkeeping bindings are excluded; merging a record must not replay them.
func (e *Engine) register(key, path string, before map[string]cty.Value, sc *scope.Scope) {
	rec := &moduleRecord{path: path, vals: make(map[string]cty.Value)}
	for _, name := range sc.Names() {
		if strings.HasPrefix(name, "__") {
			continue
		}
		current, err := sc.Get(name)
		if err != nil {
			continue
		}
		prev, ok := before[name]
		if !ok || !current.RawEquals(prev) {
			rec.names = append(rec.names, name)
			rec.vals[name] = current
		}
	}
	e.modules[key] = rec
}

// mergeLoaded merges an earlier inclusion's bindings into sc when the
// reference was already loaded, reporting whether it did. The fragment is
// not executed again.
func (e *Engine) mergeLoaded(ctx context.Context, key string, sc *scope.Scope) bool {
	rec, ok := e.modules[key]
	if !ok {
		return false
	}
	for _, name := range rec.names {
		sc.Set(name, rec.vals[name])
	}
	ctxlog.FromContext(ctx).Debug("Reference already loaded, merged prior bindings.",
		"ref", key, "path", rec.path, "names", len(rec.names))
	return true
}
