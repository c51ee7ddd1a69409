package types

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindInvalidArgument ErrKind = iota // zero length, bad enum, misaligned runtime request
	ErrKindNotFound                       // range not in the expected ownership state
	ErrKindRange                          // address beyond the width of the space
	ErrKindAccessDenied                   // range already typed/owned, or owned when it must not be
	ErrKindUnsupported                    // capability mismatch or range outside the map
	ErrKindOutOfMemory                    // entry arena exhausted
)

// String returns the short name of the kind.
func (k ErrKind) String() string {
	switch k {
	case ErrKindInvalidArgument:
		return "invalid argument"
	case ErrKindNotFound:
		return "not found"
	case ErrKindRange:
		return "range not found"
	case ErrKindAccessDenied:
		return "access denied"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindOutOfMemory:
		return "out of memory"
	default:
		return "unknown"
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so a detailed
// error still matches the sentinel of its category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// NewError builds an *Error of the given kind.
func NewError(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Sentinels commonly returned by implementations.
var (
	// ErrInvalidArgument indicates a malformed request (zero length, bad enum, bad alignment).
	ErrInvalidArgument = &Error{Kind: ErrKindInvalidArgument, Msg: "invalid argument"}
	// ErrNotFound indicates the target range is not in the state the operation requires.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrRangeNotFound indicates the requested range extends beyond the address space.
	ErrRangeNotFound = &Error{Kind: ErrKindRange, Msg: "range not found"}
	// ErrAccessDenied indicates the target range is typed or owned when it must not be.
	ErrAccessDenied = &Error{Kind: ErrKindAccessDenied, Msg: "access denied"}
	// ErrUnsupported indicates the request cannot be honoured for this range.
	ErrUnsupported = &Error{Kind: ErrKindUnsupported, Msg: "unsupported"}
	// ErrOutOfMemory indicates no entry could be reserved for a split.
	ErrOutOfMemory = &Error{Kind: ErrKindOutOfMemory, Msg: "out of memory"}
)
