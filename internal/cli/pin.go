package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// pinOptions defines flags for `pipegraph pin`.
type pinOptions struct {
	generalOpts *generalOptions

	versionSuffix string
	dryRun        bool
}

func newPinOptions(generalOpts *generalOptions) *pinOptions {
	return &pinOptions{generalOpts: generalOpts}
}

// addFlags receives a *cobra.Command reference and binds flags related to
// pinning to it.
func (o *pinOptions) addFlags(cmd *cobra.Command) {
	if o == nil {
		return
	}

	cmd.Flags().StringVar(&o.versionSuffix, "version-suffix", "", "Suffix appended to every pinned version.")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Print pinned manifests instead of rewriting them.")
}

// run the `pipegraph pin` command.
func (o *pinOptions) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	if o.generalOpts.registry == "" {
		return usageError(errors.New("pin requires --registry"))
	}
	if o.generalOpts.components == "" {
		return usageError(errors.New("pin requires --components"))
	}

	cfg := o.generalOpts.config(args)
	cfg.VersionSuffix = o.versionSuffix
	cfg.DryRun = o.dryRun

	a, err := o.generalOpts.newApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	return failure(a.Pin(ctx))
}

// newCmdPin creates the `pipegraph pin` command.
func newCmdPin(generalOpts *generalOptions) *cobra.Command {
	o := newPinOptions(generalOpts)

	command := &cobra.Command{
		Use:   "pin PATH...",
		Short: "Rewrite component references to fixed registry versions",
		Args:  manifestArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.Context(), cmd, args)
		},
	}

	o.addFlags(command)

	return command
}
