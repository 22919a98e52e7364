// Command contactimport runs a contact import from the command line.
//
//	contactimport import --file contacts.csv --mode both
//	contactimport import --file contacts.xlsx --dry-run --country Norway
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/contactimport/internal/core"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitValidation = 3
	exitDB         = 4
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

// printError writes err for the operator. Mapped errors show the user
// message with its code and action, followed by the technical cause.
func printError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var userErr *core.UserError
	if errors.As(err, &userErr) {
		fmt.Fprintln(w, "error:", core.FormatUserError(userErr.Technical))
		fmt.Fprintln(w, "cause:", userErr.Technical)
		return
	}
	fmt.Fprintln(w, "error:", err)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contactimport",
		Short:         "Bulk import contacts from CSV or XLSX files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newImportCmd())
	return root
}

func main() {
	// A .env file is optional; real environment variables take precedence.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	printError(os.Stderr, err)
	stop()
	os.Exit(exitCode(err))
}
