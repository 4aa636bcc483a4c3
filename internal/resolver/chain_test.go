package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/splithcl/internal/scope"
)

// stubResolver answers a fixed set of names and declines everything else.
type stubResolver struct {
	artifacts map[string]*Artifact
	requests  []string
}

func (r *stubResolver) Resolve(ctx context.Context, name string) (*Artifact, error) {
	r.requests = append(r.requests, name)
	return r.artifacts[name], nil
}

// stubLoader records loads and reports a controllable loading state.
type stubLoader struct {
	loading bool
	loaded  []string
}

func (l *stubLoader) Load(ctx context.Context, art *Artifact, sc *scope.Scope) error {
	l.loaded = append(l.loaded, art.Path)
	return nil
}

func (l *stubLoader) Loading() bool { return l.loading }

func TestChain_ResolvePriority(t *testing.T) {
	t.Parallel()

	base := &stubResolver{artifacts: map[string]*Artifact{
		"settings": {Name: "settings", Path: "/base/settings.hcl"},
	}}
	chain := NewChain(base)

	session := chain.Push(&stubResolver{artifacts: map[string]*Artifact{
		"settings": {Name: "settings", Path: "/override/settings.hcl"},
	}})
	defer session.Close()

	art, err := chain.Resolve(context.Background(), "settings")
	require.NoError(t, err)
	require.Equal(t, "/override/settings.hcl", art.Path, "pushed resolver must win over the base")
}

func TestChain_DeclinedFallsThrough(t *testing.T) {
	t.Parallel()

	base := &stubResolver{artifacts: map[string]*Artifact{
		"settings": {Name: "settings", Path: "/base/settings.hcl"},
	}}
	chain := NewChain(base)

	empty := &stubResolver{}
	session := chain.Push(empty)
	defer session.Close()

	art, err := chain.Resolve(context.Background(), "settings")
	require.NoError(t, err)
	require.Equal(t, "/base/settings.hcl", art.Path)
	require.Equal(t, []string{"settings"}, empty.requests, "declining resolver must still be consulted first")
}

func TestChain_Exhausted(t *testing.T) {
	t.Parallel()

	chain := NewChain(&stubResolver{})

	_, err := chain.Resolve(context.Background(), "nowhere")
	require.Error(t, err)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	require.Equal(t, "nowhere", resErr.Ref)
}

func TestSession_CloseRemovesResolver(t *testing.T) {
	t.Parallel()

	chain := NewChain()
	override := &stubResolver{artifacts: map[string]*Artifact{
		"x": {Path: "/x.hcl"},
	}}

	session := chain.Push(override)
	art, err := chain.Resolve(context.Background(), "x")
	require.NoError(t, err)
	require.NotNil(t, art)

	session.Close()
	_, err = chain.Resolve(context.Background(), "x")
	require.Error(t, err, "resolver must be gone after session close")
}

func TestSession_CloseTwicePanics(t *testing.T) {
	t.Parallel()

	chain := NewChain()
	session := chain.Push(&stubResolver{})
	session.Close()

	require.Panics(t, func() { session.Close() })
}

func TestSession_NonLIFOClosePanics(t *testing.T) {
	t.Parallel()

	chain := NewChain()
	outer := chain.Push(&stubResolver{})
	inner := chain.Push(&stubResolver{})

	require.Panics(t, func() { outer.Close() })

	inner.Close()
	outer.Close()
}
