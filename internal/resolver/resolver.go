// Package resolver implements the resolution chain that locates fragment
// source artifacts. The chain is an explicit, engine-owned stack of resolvers
// rather than process-global state: an inclusion opens a session by pushing
// resolvers onto the chain and is obliged to close it, in LIFO order, on
// every exit path.
package resolver

import (
	"context"
	"fmt"

	"github.com/vk/splithcl/internal/scope"
)

// Loader executes a located artifact into the given scope.
type Loader interface {
	Load(ctx context.Context, art *Artifact, sc *scope.Scope) error
}

// SpliceLoader is a Loader that reports whether it is currently mid-execution.
// Session resolvers consult this to avoid intercepting resolution requests
// triggered from inside the fragment they are already loading.
type SpliceLoader interface {
	Loader
	Loading() bool
}

// Artifact is one resolved source unit: where it lives and the loader
// assigned to execute it. The loader assignment may be transiently swapped
// by the inclusion engine (shadow substitution) and restored afterwards.
type Artifact struct {
	// Name is the canonical dotted name, when the artifact was resolved
	// through module resolution. Empty for anonymous file references.
	Name string

	// Path is the absolute location of the source file.
	Path string

	// Loader executes the artifact. Never nil on a resolved artifact.
	Loader Loader
}

// Resolver locates an artifact for a reference. Returning (nil, nil)
// declines the reference, letting the rest of the chain try.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*Artifact, error)
}

// ResolutionError reports that no resolver on the chain could locate a
// reference.
type ResolutionError struct {
	Ref string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unable to resolve fragment reference %q", e.Ref)
}
