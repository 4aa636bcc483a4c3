package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/splithcl/internal/scope"
)

// RequireString asserts that name is bound to the given string.
func RequireString(t *testing.T, sc *scope.Scope, name, want string) {
	t.Helper()
	value, err := sc.Get(name)
	require.NoError(t, err)
	require.Equal(t, cty.String, value.Type(), "binding %q has the wrong type", name)
	require.Equal(t, want, value.AsString(), "binding %q", name)
}

// RequireBool asserts that name is bound to the given bool.
func RequireBool(t *testing.T, sc *scope.Scope, name string, want bool) {
	t.Helper()
	value, err := sc.Get(name)
	require.NoError(t, err)
	require.Equal(t, cty.Bool, value.Type(), "binding %q has the wrong type", name)
	require.Equal(t, want, value.True(), "binding %q", name)
}

// RequireInt asserts that name is bound to the given whole number.
func RequireInt(t *testing.T, sc *scope.Scope, name string, want int64) {
	t.Helper()
	value, err := sc.Get(name)
	require.NoError(t, err)
	require.True(t, cty.NumberIntVal(want).RawEquals(value), "binding %q: want %d, got %s", name, want, value.GoString())
}

// Values flattens the visible bindings of a scope into a comparable
// name → value-representation map, excluding bookkeeping names. Intended for
// use with go-cmp.
func Values(sc *scope.Scope) map[string]string {
	out := make(map[string]string)
	for _, name := range sc.Names() {
		if strings.HasPrefix(name, "__") {
			continue
		}
		value, err := sc.Get(name)
		if err != nil {
			continue
		}
		out[name] = value.GoString()
	}
	return out
}
