package cli

import (
	"context"

	"github.com/specialistvlad/pipegraph/internal/app"
	"github.com/spf13/cobra"
)

// orderOptions defines flags for `pipegraph order`.
type orderOptions struct {
	generalOpts *generalOptions

	output string
}

func newOrderOptions(generalOpts *generalOptions) *orderOptions {
	return &orderOptions{generalOpts: generalOpts}
}

// addFlags receives a *cobra.Command reference and binds flags related to
// printing the order to it.
func (o *orderOptions) addFlags(cmd *cobra.Command) {
	if o == nil {
		return
	}

	cmd.Flags().StringVarP(&o.output, "output", "o", app.FormatText, "Output format: text or yaml.")
}

// run the `pipegraph order` command.
func (o *orderOptions) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg := o.generalOpts.config(args)
	cfg.OutputFormat = o.output

	a, err := o.generalOpts.newApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	return failure(a.Order(ctx))
}

// newCmdOrder creates the `pipegraph order` command.
func newCmdOrder(generalOpts *generalOptions) *cobra.Command {
	o := newOrderOptions(generalOpts)

	command := &cobra.Command{
		Use:   "order PATH...",
		Short: "Print the execution order of each pipeline",
		Args:  manifestArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.Context(), cmd, args)
		},
	}

	o.addFlags(command)

	return command
}
