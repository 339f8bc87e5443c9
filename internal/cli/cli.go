package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/specialistvlad/pipegraph/internal/app"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitFailure = 1 // a manifest is invalid or an operation failed
	ExitUsage   = 2 // bad flags or arguments
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// failure maps an operation error to its exit code.
func failure(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if errors.Is(err, app.ErrInvalid) {
		return &ExitError{Code: ExitFailure, Message: err.Error()}
	}
	return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("Error: %v", err)}
}

// Execute runs the pipegraph command line with args. Every returned error
// is an *ExitError.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewCmdRoot()
	root.SetArgs(args)
	root.SetOut(outW)
	root.SetErr(errW)

	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		// Anything cobra rejects before a command runs is a usage error.
		return usageError(err)
	}
	return nil
}

// NewCmdRoot creates the `pipegraph` command with every subcommand.
func NewCmdRoot() *cobra.Command {
	o := newGeneralOptions()

	cmds := &cobra.Command{
		Use:   "pipegraph",
		Short: "Validate and resolve ML pipeline manifests",
		Long: `pipegraph reads ML pipeline manifests, checks every job binding against
the referenced component specs, and resolves the dependency graph between jobs.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmds.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(fmt.Errorf("%w\nRun '%s --help' for usage.", err, cmd.CommandPath()))
	})

	o.addFlags(cmds)

	cmds.AddCommand(newCmdValidate(o))
	cmds.AddCommand(newCmdOrder(o))
	cmds.AddCommand(newCmdPlan(o))
	cmds.AddCommand(newCmdPin(o))

	return cmds
}

// manifestArgs requires at least one manifest path.
func manifestArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return usageError(fmt.Errorf("%s requires at least one manifest file or directory", cmd.CommandPath()))
	}
	return nil
}
