package cli

import (
	"fmt"
	"io"

	"github.com/grovetools/launchsync/errors"
)

// ErrorHandler turns coded errors into hints for the user.
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates an error handler writing to out.
func NewErrorHandler(verbose bool, out io.Writer) *ErrorHandler {
	return &ErrorHandler{Verbose: verbose, Out: out}
}

// Handle prints err with a hint for known codes and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeNoActiveProject:
		fmt.Fprintln(h.Out, "No sketch is open. Run 'launchsync project set <sketch-dir>' first.")
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "Configuration not found: %v\n", err)
	case errors.ErrCodeParseFailure:
		fmt.Fprintf(h.Out, "launch.json is not valid JSON: %v\n", err)
		fmt.Fprintln(h.Out, "Fix the file; it is re-read automatically while 'launchsync watch' runs.")
	case errors.ErrCodeSchemaValidation:
		fmt.Fprintf(h.Out, "launch.json does not match the schema: %v\n", err)
		fmt.Fprintln(h.Out, "Run 'launchsync schema' to see the expected shape.")
	case errors.ErrCodeFolderCreateFailed:
		fmt.Fprintf(h.Out, "Cannot create the sketch temp folder: %v\n", err)
		fmt.Fprintln(h.Out, "Check temp_root in launchsync.yml or LAUNCHSYNC_TEMP_ROOT.")
	default:
		fmt.Fprintf(h.Out, "Error: %v\n", err)
	}

	if h.Verbose {
		var syncErr *errors.SyncError
		if errors.As(err, &syncErr) {
			fmt.Fprintf(h.Out, "\nError details:\n%s\n", syncErr.ToJSON())
		}
	}
	return err
}
