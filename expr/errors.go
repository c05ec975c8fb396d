package expr

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// ErrMalformedExpression is matched by every *CompileError.
var ErrMalformedExpression = errors.New("malformed expression")

// CompileError names the field and the expression that failed to compile.
type CompileError struct {
	Field       string
	Key         string
	Source      string
	Reason      string
	Diagnostics hcl.Diagnostics
}

func (e *CompileError) Error() string {
	reason := e.Reason
	if e.Diagnostics.HasErrors() {
		reason = e.Diagnostics.Error()
	}
	return fmt.Sprintf("field %q: expression %q (%q): %s", e.Field, e.Key, e.Source, reason)
}

func (e *CompileError) Unwrap() error {
	return ErrMalformedExpression
}
