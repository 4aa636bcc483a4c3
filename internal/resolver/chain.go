package resolver

import (
	"context"

	"github.com/vk/splithcl/internal/ctxlog"
)

// Chain is an ordered stack of resolvers. Resolution walks from the most
// recently pushed resolver down to the base, first match wins. The chain is
// shared mutable state for one engine and is not safe for concurrent use.
type Chain struct {
	stack []Resolver
}

// NewChain builds a chain whose base resolvers, lowest priority first, are
// permanently installed.
func NewChain(base ...Resolver) *Chain {
	return &Chain{stack: base}
}

// Session is the scoped activation of one resolver on the chain. It must be
// closed exactly once, and sessions open on the same chain must close in
// strict LIFO order; violating either is a programmer error and panics.
type Session struct {
	chain    *Chain
	resolver Resolver
	closed   bool
}

// Push installs a resolver with higher priority than everything currently on
// the chain and returns the session guard that removes it.
func (c *Chain) Push(r Resolver) *Session {
	c.stack = append(c.stack, r)
	return &Session{chain: c, resolver: r}
}

// Close removes the session's resolver from the chain.
func (s *Session) Close() {
	if s.closed {
		panic("resolver: session closed twice")
	}
	top := len(s.chain.stack) - 1
	if top < 0 || s.chain.stack[top] != s.resolver {
		panic("resolver: sessions must close in LIFO order")
	}
	s.chain.stack = s.chain.stack[:top]
	s.closed = true
}

// Resolve walks the chain top-down and returns the first artifact a resolver
// produces. When every resolver declines, a ResolutionError is returned.
func (c *Chain) Resolve(ctx context.Context, name string) (*Artifact, error) {
	logger := ctxlog.FromContext(ctx)
	for i := len(c.stack) - 1; i >= 0; i-- {
		art, err := c.stack[i].Resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		if art != nil {
			logger.Debug("Reference resolved.", "ref", name, "path", art.Path)
			return art, nil
		}
	}
	return nil, &ResolutionError{Ref: name}
}
