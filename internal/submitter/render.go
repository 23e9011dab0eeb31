package submitter

import (
	"fmt"
	"io"

	"admission-intake/internal/protocol"
)

// Render prints resp the way the console shows it to an applicant.
func Render(w io.Writer, resp protocol.Response) error {
	var err error
	printf := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("\n--- Server Response ---\n")
	if resp.IsSuccess() {
		printf("SUCCESS: %s\n", resp.Message)
		printf("Your unique application number is: %s\n", resp.ApplicationID)
		printf("Please use this number for all future correspondence.\n")
	} else {
		printf("ERROR: %s\n", resp.Message)
	}
	printf("-------------------------\n")
	return err
}
