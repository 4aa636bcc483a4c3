package resolver

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
)

// packageEntry is the stem of the file that represents a directory-shaped
// module: "db" resolves to db<suffix>, or to db/main<suffix> when db is a
// directory.
const packageEntry = "main"

// ModuleResolver is the host resolver: it maps dotted module names onto
// files under a set of search roots. It performs location only; the loader
// it assigns to located artifacts is the engine's default, which inclusion
// sessions shadow as needed. Located artifacts are cached so that repeated
// resolution of the same name yields the same artifact, making transient
// loader swaps on it visible chain-wide.
type ModuleResolver struct {
	fs       afs.Service
	suffix   string
	loader   Loader
	roots    []string
	resolved map[string]*Artifact
}

// NewModuleResolver builds a host resolver over the given search roots.
func NewModuleResolver(fs afs.Service, suffix string, loader Loader, roots ...string) *ModuleResolver {
	return &ModuleResolver{
		fs:       fs,
		suffix:   suffix,
		loader:   loader,
		roots:    roots,
		resolved: make(map[string]*Artifact),
	}
}

// AddRoot appends a search root with lower priority than existing ones.
func (r *ModuleResolver) AddRoot(dir string) {
	r.roots = append(r.roots, dir)
}

// Resolve maps "a.b.c" to <root>/a/b/c<suffix>, or <root>/a/b/c/main<suffix>
// when the name denotes a directory-shaped module. Names containing path
// separators are declined; those are file references, not module names.
func (r *ModuleResolver) Resolve(ctx context.Context, name string) (*Artifact, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, nil
	}
	if art, ok := r.resolved[name]; ok {
		return art, nil
	}

	rel := filepath.Join(strings.Split(name, ".")...)
	for _, root := range r.roots {
		for _, candidate := range []string{
			filepath.Join(root, rel+r.suffix),
			filepath.Join(root, rel, packageEntry+r.suffix),
		} {
			ok, err := r.fs.Exists(ctx, candidate)
			if err != nil {
				return nil, err
			}
			if ok {
				art := &Artifact{Name: name, Path: candidate, Loader: r.loader}
				r.resolved[name] = art
				return art, nil
			}
		}
	}
	return nil, nil
}
