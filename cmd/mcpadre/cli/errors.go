package cli

import "github.com/mcpadre/mcpadre/internal/mcpadreerr"

// exitCodeFor maps a command's returned error to a process exit code per
// spec.md §6's CLI surface. A nil error is a clean exit (0); any error type
// mcpadreerr.ExitCode does not recognize exits 1, matching cobra's own
// convention for a generic command failure.
func exitCodeFor(err error) int {
	return mcpadreerr.ExitCode(err)
}
