package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// validateOptions defines flags for `pipegraph validate`.
type validateOptions struct {
	generalOpts *generalOptions

	watch bool
}

func newValidateOptions(generalOpts *generalOptions) *validateOptions {
	return &validateOptions{generalOpts: generalOpts}
}

// addFlags receives a *cobra.Command reference and binds flags related to
// validation to it.
func (o *validateOptions) addFlags(cmd *cobra.Command) {
	if o == nil {
		return
	}

	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Revalidate whenever a manifest or component changes.")
}

// run the `pipegraph validate` command.
func (o *validateOptions) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	a, err := o.generalOpts.newApp(ctx, cmd, o.generalOpts.config(args))
	if err != nil {
		return err
	}
	if o.watch {
		return failure(a.Watch(ctx))
	}
	return failure(a.Validate(ctx))
}

// newCmdValidate creates the `pipegraph validate` command.
func newCmdValidate(generalOpts *generalOptions) *cobra.Command {
	o := newValidateOptions(generalOpts)

	command := &cobra.Command{
		Use:   "validate PATH...",
		Short: "Check manifests and their dependency graphs",
		Args:  manifestArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.Context(), cmd, args)
		},
	}

	o.addFlags(command)

	return command
}
