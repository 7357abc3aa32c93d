package patch

import "errors"

// Sentinel error kinds (spec.md §7). Callers test for a specific kind with
// errors.Is; every error returned by internal/apply and internal/patch
// wraps one of these with fmt.Errorf("...: %w", ...) so the wrapped detail
// (path, index, etc.) is preserved in the message while the kind remains
// inspectable.
var (
	// ErrPathTypeMismatch: expected Map/Array at a path node, got another kind.
	ErrPathTypeMismatch = errors.New("path type mismatch")
	// ErrPathMissing: key or index not present when required by the action.
	ErrPathMissing = errors.New("path missing")
	// ErrOperandKindMismatch: Swap/Clone companion kind doesn't match the
	// path-tail kind.
	ErrOperandKindMismatch = errors.New("operand kind mismatch")
	// ErrTextApplyOutOfBounds: a text DiffOp addressed a line/position
	// beyond the current line vector.
	ErrTextApplyOutOfBounds = errors.New("text apply out of bounds")
	// ErrTextApplyEOLInAppend: an Append DiffOp's value contained an
	// end-of-line.
	ErrTextApplyEOLInAppend = errors.New("text apply: end-of-line in append")
	// ErrDecode: wire-format parse failure.
	ErrDecode = errors.New("decode error")
)
