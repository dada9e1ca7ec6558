// Package cli implements the cabinet command-line interface: it loads the
// entity declarations, opens the configured store and runs record
// operations against it.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values shared by all subcommands.
type rootFlags struct {
	configDir  string
	dataDir    string
	schemaFile string
	jsonMode   bool
}

// exitError carries the exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// userErrorf reports a problem with the invocation or its input.
func userErrorf(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

// sysErrorf reports a problem with the environment, storage, or database.
func sysErrorf(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and argument errors raised by cobra itself.
	return exitUserError
}

// NewRootCmd creates the top-level "cabinet" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "cabinet",
		Short: "Declarative record mapping over SQL",
		Long: "Cabinet maps entities declared in a schema file onto SQL tables.\n" +
			"It generates their DDL and reads and writes records through SQLite or MySQL.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: ./.cabinet or the user config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory for the sqlite backend (default: ./.cabinet-db)")
	root.PersistentFlags().StringVar(&flags.schemaFile, "schema", "", "entity declaration file (default: <config-dir>/schema.yaml)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd(flags))
	root.AddCommand(newInitCmd(flags))
	root.AddCommand(newDDLCmd(flags))
	root.AddCommand(newGetCmd(flags))
	root.AddCommand(newListCmd(flags))
	root.AddCommand(newCountCmd(flags))
	root.AddCommand(newInsertCmd(flags))
	root.AddCommand(newUpdateCmd(flags))
	root.AddCommand(newDeleteCmd(flags))
	root.AddCommand(newExportCmd(flags))
	root.AddCommand(newImportCmd(flags))

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return exitCode(err)
}
