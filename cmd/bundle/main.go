// Command bundle resolves contract-consistent package bundles from an
// index file.
//
// Usage:
//
//	bundle resolve --index packages.star --dep api --dep worker
//	bundle resolve --index packages.yaml --dep api --trigger worker@1.4.0 --output json
//	bundle graph --index packages.star --dep api --dep worker --format dot
//	bundle explain api --index packages.star --dep api --dep worker
//	bundle diff --index old.star --against new.star --dep api --dep worker
//
// Failed resolutions print the full diagnostic and exit with status 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/albertocavalcante/go-bundle/bundle"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		var berr *bundle.Error
		if errors.As(err, &berr) {
			fmt.Fprint(stderr, berr.Diagnostic())
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
