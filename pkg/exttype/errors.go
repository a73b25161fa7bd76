package exttype

import (
	"errors"
	"fmt"
	"strings"
)

// TypeMismatchError reports an explicit extension that the declared type does not accept.
type TypeMismatchError struct {
	Name    string
	Type    string
	Ext     string
	Allowed []string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("extension %q of %q is not valid for type %q (allowed: %s); drop the extension or use one of the allowed ones",
		e.Ext, e.Name, e.Type, strings.Join(e.Allowed, ", "))
}

// IsTypeMismatch reports whether err is (or wraps) a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var mismatch *TypeMismatchError
	return errors.As(err, &mismatch)
}
