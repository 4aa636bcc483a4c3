package engine

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vk/splithcl/internal/ctxlog"
	"github.com/vk/splithcl/internal/loader"
	"github.com/vk/splithcl/internal/resolver"
	"github.com/vk/splithcl/internal/scope"
)

// Include splices the referenced fragment into sc, exactly as if the
// fragment's text had been written at the point of the call. The reference
// is either a file path, relative to the including fragment's directory, or
// a dotted module name resolved against the engine's search paths. Every
// failure propagates to the caller.
func (e *Engine) Include(ctx context.Context, resource string, sc *scope.Scope) error {
	return e.include(ctx, resource, sc, false)
}

// Optional is Include with every failure discarded: a missing fragment, an
// unreadable file, even a failing statement inside the fragment all leave
// the call a silent no-op. Statements that ran before a failure have already
// mutated sc; there is no rollback.
func (e *Engine) Optional(ctx context.Context, resource string, sc *scope.Scope) error {
	return e.include(ctx, resource, sc, true)
}

// include is the IncludeFunc the fragment loader recurses through for
// nested include directives.
func (e *Engine) include(ctx context.Context, resource string, sc *scope.Scope, optional bool) (err error) {
	if sc == nil {
		return errors.New("engine: a target scope is required")
	}
	if optional {
		defer func() {
			if err != nil {
				ctxlog.FromContext(ctx).Debug("Optional inclusion skipped.",
					"resource", resource, "error", err)
				err = nil
			}
		}()
	}

	if isPathReference(resource) {
		return e.includePath(ctx, resource, sc)
	}
	return e.includeDotted(ctx, resource, sc)
}

// isPathReference classifies a reference: anything carrying a path
// separator or the fragment suffix is a file path, everything else a dotted
// module name.
func isPathReference(resource string) bool {
	return strings.ContainsAny(resource, `/\`) ||
		strings.HasSuffix(resource, loader.Suffix) ||
		filepath.IsAbs(resource)
}

// includePath splices a file reference. Ancestor path segments denote real
// modules: each is located through the unmodified host chain, its load step
// shadowed for the duration of the inclusion so that executing it also
// lands in sc, and restored afterwards. The leaf resolves through a
// directory-scoped resolver installed ahead of everything else on the chain.
func (e *Engine) includePath(ctx context.Context, resource string, sc *scope.Scope) error {
	if filepath.IsAbs(resource) {
		return e.includeAbs(ctx, resource, sc)
	}

	base := e.currentDir()
	segments := strings.Split(path.Clean(filepath.ToSlash(resource)), "/")
	last := segments[len(segments)-1]
	stem := strings.TrimSuffix(last, loader.Suffix)
	ancestors := segments[:len(segments)-1]
	key := strings.Join(append(slices.Clone(ancestors), stem), ".")

	if e.mergeLoaded(ctx, key, sc) {
		return nil
	}

	ldr := e.newSessionLoader()

	// The including fragment's directory becomes a transient module root so
	// that ancestor segments resolve the same way dotted names do.
	rootSession := e.chain.Push(resolver.NewModuleResolver(e.fs, loader.Suffix, e.base, base))
	defer rootSession.Close()

	guards, err := e.spliceAncestors(ctx, ancestors, ldr, sc)
	defer restoreAll(guards)
	if err != nil {
		return err
	}

	dir := filepath.Join(append([]string{base}, ancestors...)...)
	dirSession := e.chain.Push(resolver.NewDirResolver(e.fs, dir, loader.Suffix, ldr))
	defer dirSession.Close()

	art, err := e.chain.Resolve(ctx, stem)
	if err != nil {
		return err
	}
	return e.load(ctx, art, sc, key)
}

// includeAbs splices an absolute file path. No ancestor modules are
// involved; the path already names the artifact's directory outright.
func (e *Engine) includeAbs(ctx context.Context, resource string, sc *scope.Scope) error {
	clean := filepath.Clean(resource)
	if e.mergeLoaded(ctx, clean, sc) {
		return nil
	}

	dir, file := filepath.Split(clean)
	stem := strings.TrimSuffix(file, loader.Suffix)

	ldr := e.newSessionLoader()
	session := e.chain.Push(resolver.NewDirResolver(e.fs, filepath.Clean(dir), loader.Suffix, ldr))
	defer session.Close()

	art, err := e.chain.Resolve(ctx, stem)
	if err != nil {
		return err
	}
	return e.load(ctx, art, sc, clean)
}

// includeDotted splices a dotted module reference. Location runs through
// the host resolver; only the load step is substituted, by a session-scoped
// splice resolver, so the module's statements populate sc.
func (e *Engine) includeDotted(ctx context.Context, name string, sc *scope.Scope) error {
	if e.mergeLoaded(ctx, name, sc) {
		return nil
	}

	ldr := e.newSessionLoader()
	segments := strings.Split(name, ".")

	guards, err := e.spliceAncestors(ctx, segments[:len(segments)-1], ldr, sc)
	defer restoreAll(guards)
	if err != nil {
		return err
	}

	session := e.chain.Push(resolver.NewSpliceResolver(e.host, ldr))
	defer session.Close()

	art, err := e.chain.Resolve(ctx, name)
	if err != nil {
		return err
	}
	return e.load(ctx, art, sc, name)
}

// spliceAncestors locates each ancestor module through the chain as it
// stands, shadows its load step with the session loader, and executes it
// into sc when it has not been loaded before. The returned guards must be
// restored, last-in-first-out, once the whole inclusion completes. An
// ancestor with no module file of its own is a plain directory and is
// skipped.
func (e *Engine) spliceAncestors(ctx context.Context, segments []string, ldr *loader.FragmentLoader, sc *scope.Scope) ([]*loaderGuard, error) {
	var guards []*loaderGuard
	for i := range segments {
		name := strings.Join(segments[:i+1], ".")
		art, err := e.chain.Resolve(ctx, name)
		if err != nil {
			var resErr *resolver.ResolutionError
			if errors.As(err, &resErr) {
				continue
			}
			return guards, err
		}
		guards = append(guards, swapLoader(art, ldr))
		if _, loaded := e.modules[art.Name]; loaded {
			continue
		}
		if err := e.load(ctx, art, sc, art.Name); err != nil {
			return guards, err
		}
	}
	return guards, nil
}

// loaderGuard is the swap-and-restore guard for a transient loader
// substitution on a shared artifact.
type loaderGuard struct {
	art  *resolver.Artifact
	orig resolver.Loader
}

func swapLoader(art *resolver.Artifact, l resolver.Loader) *loaderGuard {
	g := &loaderGuard{art: art, orig: art.Loader}
	art.Loader = l
	return g
}

func (g *loaderGuard) restore() {
	g.art.Loader = g.orig
}

// restoreAll reverts guards in reverse acquisition order.
func restoreAll(guards []*loaderGuard) {
	for i := len(guards) - 1; i >= 0; i-- {
		guards[i].restore()
	}
}
