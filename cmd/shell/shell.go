// Package shell provides the "sheetkit shell" interactive REPL command.
package shell

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	shellpkg "github.com/gridworks/sheetkit/internal/shell"
)

// NewCommand creates the "shell" command. rootFactory builds a fresh
// root command per evaluated line so flag state never leaks between
// REPL commands.
func NewCommand(rootFactory func() *cobra.Command) *cobra.Command {
	var evalCmd string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive sheetkit shell",
		Long: `Start an interactive REPL with persistent state and tab completion.

Commands run without re-paying startup cost, and the auth token persists
across commands in the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			shellpkg.DefaultRunner = func(ctx context.Context, cmdArgs []string, stdout, stderr io.Writer) error {
				root := rootFactory()
				root.SetArgs(cmdArgs)
				root.SetOut(stdout)
				root.SetErr(stderr)
				return root.ExecuteContext(ctx)
			}

			session, err := shellpkg.NewSession()
			if err != nil {
				return err
			}
			if evalCmd != "" {
				output, err := session.Eval(cmd.Context(), evalCmd)
				if err != nil {
					return err
				}
				fmt.Print(output)
				return nil
			}
			return session.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run a single command and exit")
	return cmd
}
