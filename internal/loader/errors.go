package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// LoadError reports that a resolved fragment could not be read.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("unable to read fragment %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExecError reports that a fragment's own statements failed, either at parse
// time or during evaluation. The diagnostics carry the fragment's source
// context.
type ExecError struct {
	Path  string
	Diags hcl.Diagnostics
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("fragment %s failed: %s", e.Path, e.Diags.Error())
}

func (e *ExecError) Unwrap() error { return e.Diags }
