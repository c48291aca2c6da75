package fusion

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

var _ error = (*UnknownFragmentError)(nil)
var _ error = (*MissingOperationError)(nil)
var _ error = (*CyclicFragmentError)(nil)

// UnknownFragmentError is returned when a fragment spread names a fragment
// that no input document defines.
type UnknownFragmentError struct {
	Name     string
	Position *ast.Position
}

func (err *UnknownFragmentError) Error() string {
	if err.Position != nil {
		return fmt.Sprintf(`unknown fragment "%s" at line %d, column %d`, err.Name, err.Position.Line, err.Position.Column)
	}
	return fmt.Sprintf(`unknown fragment "%s"`, err.Name)
}

// MissingOperationError is returned when the input at Index has no usable
// query operation.
type MissingOperationError struct {
	Index         int
	OperationName string
	Reason        string
}

func (err *MissingOperationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "query #%d has no usable operation", err.Index)
	if err.OperationName != "" {
		fmt.Fprintf(&sb, ` named "%s"`, err.OperationName)
	}
	if err.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(err.Reason)
	}
	return sb.String()
}

// CyclicFragmentError is returned when fragment spreads refer back to a
// fragment that is still being expanded.
type CyclicFragmentError struct {
	Cycle []string
}

func (err *CyclicFragmentError) Error() string {
	return fmt.Sprintf("fragment cycle detected: %s", strings.Join(err.Cycle, " -> "))
}
