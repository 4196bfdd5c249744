package entities

import "errors"

// Errors returned by the relationship engine. Callers match them with errors.Is;
// the wrapping message carries the details.
var (
	ErrSelfLoop             = errors.New("relationship cannot connect a member to themselves")
	ErrDuplicateEdge        = errors.New("relationship already exists")
	ErrConflictingKind      = errors.New("members already have a different relationship")
	ErrCrossFamilyReference = errors.New("members belong to different families")
	ErrNotFound             = errors.New("not found")
	ErrContention           = errors.New("concurrent modification, retry")
	ErrInvalidInput         = errors.New("invalid input")
)

// Machine-readable error codes exposed by the API layer.
const (
	CodeSelfLoop             = "self_loop"
	CodeDuplicateEdge        = "duplicate_edge"
	CodeConflictingKind      = "conflicting_kind"
	CodeCrossFamilyReference = "cross_family_reference"
	CodeNotFound             = "not_found"
	CodeContention           = "contention"
	CodeInvalidInput         = "invalid_input"
	CodeInternal             = "internal"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrSelfLoop, CodeSelfLoop},
	{ErrDuplicateEdge, CodeDuplicateEdge},
	{ErrConflictingKind, CodeConflictingKind},
	{ErrCrossFamilyReference, CodeCrossFamilyReference},
	{ErrNotFound, CodeNotFound},
	{ErrContention, CodeContention},
	{ErrInvalidInput, CodeInvalidInput},
}

// ErrorCode returns the machine-readable code for err, or CodeInternal when err
// does not wrap one of the engine errors.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// IsRetryable reports whether the operation that produced err may be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrContention)
}
