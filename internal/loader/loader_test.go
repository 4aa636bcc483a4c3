package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/splithcl/internal/resolver"
	"github.com/vk/splithcl/internal/scope"
)

func writeFragment(t *testing.T, src string) *resolver.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fragment.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return &resolver.Artifact{Path: path}
}

func load(t *testing.T, src string, include IncludeFunc) (*scope.Scope, error) {
	t.Helper()
	sc := scope.New()
	l := New(afs.New(), include, nil)
	err := l.Load(context.Background(), writeFragment(t, src), sc)
	return sc, err
}

func TestLoad_BindsAttributesInOrder(t *testing.T) {
	t.Parallel()

	sc, err := load(t, `
		host = "localhost"
		port = 5432
		dsn  = format("%s:%d", host, port)
	`, nil)
	require.NoError(t, err)

	dsn, err := sc.Get("dsn")
	require.NoError(t, err)
	require.Equal(t, "localhost:5432", dsn.AsString())
}

func TestLoad_LastWriteWins(t *testing.T) {
	t.Parallel()

	sc, err := load(t, `
		debug = true
		debug = false
	`, nil)
	require.NoError(t, err)

	debug, err := sc.Get("debug")
	require.NoError(t, err)
	require.False(t, debug.True())
}

func TestLoad_DefaultsBlock(t *testing.T) {
	t.Parallel()

	sc := scope.New()
	sc.Set("timeout", cty.NumberIntVal(10))
	sc.Set("retries", cty.NullVal(cty.Number))

	l := New(afs.New(), nil, nil)
	err := l.Load(context.Background(), writeFragment(t, `
		defaults {
			timeout = 30
			retries = 3
			backoff = 2
		}
	`), sc)
	require.NoError(t, err)

	timeout, err := sc.Get("timeout")
	require.NoError(t, err)
	require.True(t, cty.NumberIntVal(10).RawEquals(timeout), "bound names keep their value")

	retries, err := sc.Get("retries")
	require.NoError(t, err)
	require.True(t, cty.NumberIntVal(3).RawEquals(retries), "null bindings take the default")

	backoff, err := sc.Get("backoff")
	require.NoError(t, err)
	require.True(t, cty.NumberIntVal(2).RawEquals(backoff), "unbound names take the default")
}

func TestLoad_IncludeDirectiveRecurses(t *testing.T) {
	t.Parallel()

	var calls []struct {
		ref      string
		optional bool
	}
	include := func(ctx context.Context, ref string, sc *scope.Scope, optional bool) error {
		calls = append(calls, struct {
			ref      string
			optional bool
		}{ref, optional})
		// Simulate the nested fragment binding a name; the outer fragment's
		// next statement must observe it.
		sc.Set("nested", cty.True)
		return nil
	}

	sc, err := load(t, `
		include "db.hcl" {}
		saw_nested = nested
		optional "local.hcl" {}
	`, include)
	require.NoError(t, err)

	require.Len(t, calls, 2)
	require.Equal(t, "db.hcl", calls[0].ref)
	require.False(t, calls[0].optional)
	require.Equal(t, "local.hcl", calls[1].ref)
	require.True(t, calls[1].optional)

	saw, err := sc.Get("saw_nested")
	require.NoError(t, err)
	require.True(t, saw.True(), "nested bindings must be visible to the following statement")
}

func TestLoad_LoadingFlagCoversExecution(t *testing.T) {
	t.Parallel()

	l := New(afs.New(), nil, nil)
	sawLoading := false
	l.include = func(ctx context.Context, ref string, sc *scope.Scope, optional bool) error {
		sawLoading = l.Loading()
		return nil
	}

	require.False(t, l.Loading())
	err := l.Load(context.Background(), writeFragment(t, `include "x.hcl" {}`+"\n"), scope.New())
	require.NoError(t, err)
	require.True(t, sawLoading, "the flag must be set while the body executes")
	require.False(t, l.Loading(), "the flag must reset after execution")
}

func TestLoad_LoadingFlagResetsOnFailure(t *testing.T) {
	t.Parallel()

	l := New(afs.New(), nil, nil)
	err := l.Load(context.Background(), writeFragment(t, `boom = undefined_name`+"\n"), scope.New())
	require.Error(t, err)
	require.False(t, l.Loading())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	l := New(afs.New(), nil, nil)
	err := l.Load(context.Background(), &resolver.Artifact{
		Path: filepath.Join(t.TempDir(), "absent.hcl"),
	}, scope.New())
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLoad_ParseFailure(t *testing.T) {
	t.Parallel()

	_, err := load(t, `broken = {`+"\n", nil)
	require.Error(t, err)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	require.True(t, execErr.Diags.HasErrors())
}

func TestLoad_EvaluationFailureKeepsEarlierBindings(t *testing.T) {
	t.Parallel()

	sc, err := load(t, `
		first = 1
		boom  = undefined_name
		after = 2
	`, nil)
	require.Error(t, err)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)

	require.True(t, sc.IsDefined("first"), "statements before the failure have already run")
	require.False(t, sc.IsDefined("after"), "statements after the failure must not run")
}

func TestLoad_UnknownDirective(t *testing.T) {
	t.Parallel()

	_, err := load(t, `
		widget "x" {
			a = 1
		}
	`, nil)
	require.Error(t, err)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
}

func TestLoad_RecordsIncludedFiles(t *testing.T) {
	t.Parallel()

	var entered []string
	sc := scope.New()
	l := New(afs.New(), nil, func(path string) { entered = append(entered, path) })

	art := writeFragment(t, `x = 1`+"\n")
	require.NoError(t, l.Load(context.Background(), art, sc))

	require.Equal(t, []string{art.Path}, entered)

	files, err := sc.Get(IncludedFilesName)
	require.NoError(t, err)
	require.Equal(t, 1, files.LengthInt())
	require.Equal(t, art.Path, files.Index(cty.NumberIntVal(0)).AsString())
}
