package resolver

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
)

// DirResolver resolves bare file stems against a single directory, limited
// to one file suffix, and binds every artifact it produces to the inclusion
// session's scope-directed loader. It is pushed onto the chain for the
// duration of one path-style inclusion.
type DirResolver struct {
	fs     afs.Service
	dir    string
	suffix string
	loader SpliceLoader
}

// NewDirResolver builds a directory-scoped resolver for one inclusion
// session.
func NewDirResolver(fs afs.Service, dir, suffix string, loader SpliceLoader) *DirResolver {
	return &DirResolver{fs: fs, dir: dir, suffix: suffix, loader: loader}
}

// Resolve locates <dir>/<name><suffix>. Dotted or path-shaped names are
// declined, as is any request raised while the session's loader is already
// mid-execution: references a fragment makes internally must fall through to
// the rest of the chain instead of being hijacked into the session's scope.
func (r *DirResolver) Resolve(ctx context.Context, name string) (*Artifact, error) {
	if r.loader.Loading() {
		return nil, nil
	}
	if name == "" || strings.ContainsAny(name, `./\`) {
		return nil, nil
	}

	path := filepath.Join(r.dir, name+r.suffix)
	ok, err := r.fs.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Artifact{Path: path, Loader: r.loader}, nil
}
