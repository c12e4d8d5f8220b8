package registry

import "fmt"

// ParamError reports that a tool argument failed validation. The dispatcher
// maps it to a JSON-RPC invalid-params error naming the offending field;
// any other handler error is treated as a collaborator failure and redacted.
type ParamError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// InvalidParam builds a ParamError for field with the given reason.
func InvalidParam(field, reason string) error {
	return &ParamError{Field: field, Reason: reason}
}
