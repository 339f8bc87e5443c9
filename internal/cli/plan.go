package cli

import (
	"context"

	"github.com/specialistvlad/pipegraph/internal/app"
	"github.com/spf13/cobra"
)

// planOptions defines flags for `pipegraph plan`.
type planOptions struct {
	generalOpts *generalOptions

	output  string
	inputs  []string
	states  []string
	outputs []string
}

func newPlanOptions(generalOpts *generalOptions) *planOptions {
	return &planOptions{generalOpts: generalOpts}
}

// addFlags receives a *cobra.Command reference and binds flags describing
// the orchestrator view to it.
func (o *planOptions) addFlags(cmd *cobra.Command) {
	if o == nil {
		return
	}

	cmd.Flags().StringVarP(&o.output, "output", "o", app.FormatText, "Output format: text or yaml.")
	cmd.Flags().StringArrayVar(&o.inputs, "set", nil, "Pipeline input value as name=value. Repeatable.")
	cmd.Flags().StringArrayVar(&o.states, "state", nil, "Job state as job=state (pending, ready, running, completed, failed). Repeatable.")
	cmd.Flags().StringArrayVar(&o.outputs, "job-output", nil, "Reported job output as job.output=value. Repeatable.")
}

// run the `pipegraph plan` command.
func (o *planOptions) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg := o.generalOpts.config(args)
	cfg.OutputFormat = o.output

	var err error
	if cfg.InputValues, err = parseAssignments("set", o.inputs); err != nil {
		return err
	}
	if cfg.JobStates, err = parseAssignments("state", o.states); err != nil {
		return err
	}
	if cfg.JobOutputs, err = parseAssignments("job-output", o.outputs); err != nil {
		return err
	}

	a, err := o.generalOpts.newApp(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	return failure(a.Plan(ctx))
}

// newCmdPlan creates the `pipegraph plan` command.
func newCmdPlan(generalOpts *generalOptions) *cobra.Command {
	o := newPlanOptions(generalOpts)

	command := &cobra.Command{
		Use:   "plan PATH...",
		Short: "Resolve job inputs and show which jobs are ready",
		Args:  manifestArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd.Context(), cmd, args)
		},
	}

	o.addFlags(command)

	return command
}
