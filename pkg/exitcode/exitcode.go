// Package exitcode provides standardized exit codes for tools built on goproj
package exitcode

import (
	"errors"
	"os"

	"github.com/fulmenhq/goproj/pkg/artifact"
	"github.com/fulmenhq/goproj/pkg/config"
	"github.com/fulmenhq/goproj/pkg/exttype"
	"github.com/fulmenhq/goproj/pkg/inputs"
	"github.com/fulmenhq/goproj/pkg/localmap"
	"github.com/fulmenhq/goproj/pkg/project"
	"github.com/fulmenhq/goproj/pkg/reconcile"
)

// Exit codes for goproj-based tools
const (
	Success           = 0
	GeneralError      = 1
	ConfigError       = 2
	ValidationError   = 3
	FileSystemError   = 4
	PermissionError   = 6
	UnsupportedFormat = 8
	NotFound          = 10
	Ambiguous         = 11
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Validation error"
	case FileSystemError:
		return "File system error"
	case PermissionError:
		return "Permission error"
	case UnsupportedFormat:
		return "Unsupported format"
	case NotFound:
		return "Not found"
	case Ambiguous:
		return "Ambiguous"
	default:
		return "Unknown error"
	}
}

// FromError maps an error returned by goproj to an exit code. Malformed
// declaration, mapping, or settings files are configuration errors; checks
// against the filesystem that fail are validation errors.
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case inputs.IsSchemaError(err), localmap.IsFormatError(err), errors.Is(err, config.ErrInvalidSettings):
		return ConfigError
	case reconcile.IsReconciliationError(err), reconcile.IsIntegrityError(err),
		exttype.IsTypeMismatch(err), project.IsLayoutError(err), errors.Is(err, project.ErrNotAProject):
		return ValidationError
	case artifact.IsNotFound(err), errors.Is(err, project.ErrNoSuchAnalysis):
		return NotFound
	case artifact.IsAmbiguous(err):
		return Ambiguous
	case errors.Is(err, project.ErrNoCodec):
		return UnsupportedFormat
	case errors.Is(err, os.ErrPermission):
		return PermissionError
	case errors.Is(err, os.ErrNotExist), isPathError(err):
		return FileSystemError
	default:
		return GeneralError
	}
}

func isPathError(err error) bool {
	var pathErr *os.PathError
	return errors.As(err, &pathErr)
}
