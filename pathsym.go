package pathsym

import (
	"errors"
	"fmt"
)

// Standard widths.
const (
	WidthBool = 1
	Width8    = 8
	Width16   = 16
	Width32   = 32
	Width64   = 64
)

var (
	ErrUnionMember           = errors.New("Unexpected union member")
	ErrNonCompoundMember     = errors.New("Member expects record or union type")
	ErrUnexpectedSideEffect  = errors.New("Unexpected side effect")
	ErrNonConstantVectorSize = errors.New("Vector with non-constant size")
	ErrUnknownIdentifier     = errors.New("Unknown identifier")
	ErrUnsupportedAssignment = errors.New("Unsupported assignment target")
)

// errNotApplicable signals that a resolution rule does not apply to an
// expression. It is a control value, not a failure.
var errNotApplicable = errors.New("not applicable")

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
