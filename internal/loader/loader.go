// Package loader executes a fragment's source text directly against a
// caller-owned scope. The fragment's top-level attributes bind exactly as if
// its text had been inlined at the point of inclusion; include directives
// inside the fragment recurse through the engine before the next statement
// runs.
package loader

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/viant/afs"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/splithcl/internal/ctxlog"
	"github.com/vk/splithcl/internal/resolver"
	"github.com/vk/splithcl/internal/scope"
)

// Suffix is the file suffix of settings fragments.
const Suffix = ".hcl"

// IncludedFilesName is the scope binding that mirrors the engine's include
// history, for diagnostics from inside fragments.
const IncludedFilesName = "__included_files__"

// IncludeFunc is the engine entry point a fragment's include directives
// recurse through.
type IncludeFunc func(ctx context.Context, ref string, sc *scope.Scope, optional bool) error

// FragmentLoader reads a fragment and evaluates its statements, in source
// order, into a scope. One loader instance serves one inclusion session; the
// loading flag scopes re-entrancy detection to that session.
type FragmentLoader struct {
	fs      afs.Service
	include IncludeFunc
	entered func(path string)
	loading bool
}

// New builds a loader for one inclusion session. entered is invoked with the
// fragment's location as it begins executing; it may be nil.
func New(fs afs.Service, include IncludeFunc, entered func(path string)) *FragmentLoader {
	return &FragmentLoader{fs: fs, include: include, entered: entered}
}

// Loading reports whether the loader is currently executing a fragment body.
func (l *FragmentLoader) Loading() bool { return l.loading }

// Load reads, parses and executes the artifact into sc. Read failures
// surface as LoadError; parse and evaluation failures as ExecError carrying
// the fragment's diagnostics.
func (l *FragmentLoader) Load(ctx context.Context, art *resolver.Artifact, sc *scope.Scope) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executing fragment.", "path", art.Path)

	src, err := l.fs.DownloadWithURL(ctx, art.Path)
	if err != nil {
		return &LoadError{Path: art.Path, Err: err}
	}

	file, diags := hclparse.NewParser().ParseHCL(src, art.Path)
	if diags.HasErrors() {
		return &ExecError{Path: art.Path, Diags: diags}
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("fragment %s: unexpected body type %T", art.Path, file.Body)
	}

	l.loading = true
	defer func() { l.loading = false }()

	if l.entered != nil {
		l.entered(art.Path)
	}
	recordInclusion(sc, art.Path)

	return l.execute(ctx, sc, body, art.Path)
}

// statement is one top-level item of a fragment body: either an attribute
// binding or a directive block.
type statement struct {
	attr  *hclsyntax.Attribute
	block *hclsyntax.Block
	pos   int
}

// orderedStatements flattens a body into source order. HCL itself treats
// attributes as unordered; splicing semantics require strict top-to-bottom
// execution, so statements are sequenced by their byte offset.
func orderedStatements(body *hclsyntax.Body) []statement {
	statements := make([]statement, 0, len(body.Attributes)+len(body.Blocks))
	for _, attr := range body.Attributes {
		statements = append(statements, statement{attr: attr, pos: attr.SrcRange.Start.Byte})
	}
	for _, block := range body.Blocks {
		statements = append(statements, statement{block: block, pos: block.TypeRange.Start.Byte})
	}
	sort.Slice(statements, func(i, j int) bool { return statements[i].pos < statements[j].pos })
	return statements
}

func (l *FragmentLoader) execute(ctx context.Context, sc *scope.Scope, body *hclsyntax.Body, path string) error {
	for _, st := range orderedStatements(body) {
		if st.attr != nil {
			value, diags := st.attr.Expr.Value(sc.EvalContext())
			if diags.HasErrors() {
				return &ExecError{Path: path, Diags: diags}
			}
			sc.Set(st.attr.Name, value)
			continue
		}
		if err := l.executeBlock(ctx, sc, st.block, path); err != nil {
			return err
		}
	}
	return nil
}

func (l *FragmentLoader) executeBlock(ctx context.Context, sc *scope.Scope, block *hclsyntax.Block, path string) error {
	switch block.Type {
	case "include", "optional":
		if len(block.Labels) != 1 {
			return &ExecError{Path: path, Diags: hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Invalid %q directive", block.Type),
				Detail:   fmt.Sprintf("A %q directive requires exactly one label naming the fragment to include.", block.Type),
				Subject:  block.DefRange().Ptr(),
			}}}
		}
		return l.include(ctx, block.Labels[0], sc, block.Type == "optional")

	case "defaults":
		return l.applyDefaults(sc, block, path)

	default:
		return &ExecError{Path: path, Diags: hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("Unknown directive %q", block.Type),
			Detail:   "Fragments may contain attribute bindings and \"include\", \"optional\" and \"defaults\" blocks only.",
			Subject:  block.DefRange().Ptr(),
		}}}
	}
}

// applyDefaults binds each attribute of a defaults block only when the name
// is currently unbound or bound to null. Expressions are evaluated lazily,
// so a default whose name is already bound costs nothing and cannot fail.
func (l *FragmentLoader) applyDefaults(sc *scope.Scope, block *hclsyntax.Block, path string) error {
	if len(block.Body.Blocks) > 0 {
		return &ExecError{Path: path, Diags: hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid \"defaults\" directive",
			Detail:   "A \"defaults\" block may contain attribute bindings only.",
			Subject:  block.Body.Blocks[0].DefRange().Ptr(),
		}}}
	}
	for _, st := range orderedStatements(block.Body) {
		name := st.attr.Name
		if current, err := sc.Get(name); err == nil && !current.IsNull() {
			continue
		}
		value, diags := st.attr.Expr.Value(sc.EvalContext())
		if diags.HasErrors() {
			return &ExecError{Path: path, Diags: diags}
		}
		sc.SetDefault(name, value, true)
	}
	return nil
}

// recordInclusion appends the fragment's location to the scope's
// __included_files__ binding.
func recordInclusion(sc *scope.Scope, path string) {
	entry := cty.StringVal(path)
	current, err := sc.Get(IncludedFilesName)
	if err != nil || current.IsNull() || !current.CanIterateElements() {
		sc.Set(IncludedFilesName, cty.TupleVal([]cty.Value{entry}))
		return
	}
	sc.Set(IncludedFilesName, cty.TupleVal(append(current.AsValueSlice(), entry)))
}
