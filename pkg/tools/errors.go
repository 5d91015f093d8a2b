package tools

import (
	"errors"
	"fmt"
)

// DuplicateToolError indicates a registration attempt for an identifier that
// already exists. This is a startup-time configuration error and is fatal.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

// UnknownToolError indicates a lookup for an identifier absent from the
// registry. Per-turn occurrences are recovered locally by the guardrail
// validator, never surfaced raw to the user.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %q not registered", e.Name)
}

// IsUnknownTool reports whether err is an UnknownToolError.
func IsUnknownTool(err error) bool {
	var unknownErr *UnknownToolError
	return errors.As(err, &unknownErr)
}

// IsDuplicateTool reports whether err is a DuplicateToolError.
func IsDuplicateTool(err error) bool {
	var dupErr *DuplicateToolError
	return errors.As(err, &dupErr)
}
