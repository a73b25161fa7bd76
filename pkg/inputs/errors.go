package inputs

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports a malformed inputs declaration. Path locates the
// offending value (for example "inputs[2]" or "inputs.raw.md5").
type SchemaError struct {
	File     string
	Path     string
	ID       string
	Problem  string
	Expected string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("invalid inputs declaration")
	if e.File != "" {
		fmt.Fprintf(&b, " in %s", e.File)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, " (id %q)", e.ID)
	}
	fmt.Fprintf(&b, ": %s", e.Problem)
	if e.Expected != "" {
		fmt.Fprintf(&b, "; expected %s", e.Expected)
	}
	return b.String()
}

// IsSchemaError reports whether err is (or wraps) a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}
