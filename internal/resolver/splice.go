package resolver

import "context"

// SpliceResolver intercepts dotted-name resolution for one inclusion
// session. Location is delegated to the unmodified host resolver; only the
// load step of the result is substituted with the session's scope-directed
// loader, so the artifact's statements populate the shared scope instead of
// a namespace of their own. The substitution happens on a shallow copy of
// the artifact; the host's own loader assignment is untouched.
type SpliceResolver struct {
	next   Resolver
	loader SpliceLoader
}

// NewSpliceResolver wraps the host resolver for one inclusion session.
func NewSpliceResolver(next Resolver, loader SpliceLoader) *SpliceResolver {
	return &SpliceResolver{next: next, loader: loader}
}

// Resolve delegates location to the host resolver and rebinds the result to
// the session loader. While the session loader is mid-execution the resolver
// declines entirely: nested resolution triggered from inside the fragment
// must reach the host chain unmodified.
func (r *SpliceResolver) Resolve(ctx context.Context, name string) (*Artifact, error) {
	if r.loader.Loading() {
		return nil, nil
	}
	art, err := r.next.Resolve(ctx, name)
	if err != nil || art == nil {
		return nil, err
	}
	return &Artifact{Name: art.Name, Path: art.Path, Loader: r.loader}, nil
}
