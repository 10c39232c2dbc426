package apps

import "github.com/pkg/errors"

// ArgumentError reports a command line misuse (bad flag value, malformed timestamp or clock string).
// The CLIs exit with ExitUsage on it instead of the generic failure code.
type ArgumentError struct {
	msg string
}

const (
	ExitFailure = 1
	ExitUsage   = 2
)

func NewArgumentError(msg string) *ArgumentError {
	return &ArgumentError{msg}
}

func (err *ArgumentError) Error() string {
	return err.msg
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	var argErr *ArgumentError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &argErr):
		return ExitUsage
	default:
		return ExitFailure
	}
}
