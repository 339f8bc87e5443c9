package cli

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/specialistvlad/pipegraph/internal/app"
	"github.com/spf13/cobra"
)

// generalOptions defines the flags shared by every command.
type generalOptions struct {
	components string
	registry   string
	logLevel   string
	logFormat  string
	strict     bool
	workers    int
	noColor    bool
}

func newGeneralOptions() *generalOptions {
	return &generalOptions{}
}

// addFlags receives a *cobra.Command reference and binds the shared flags
// to it.
func (o *generalOptions) addFlags(cmd *cobra.Command) {
	if o == nil {
		return
	}

	cmd.PersistentFlags().StringVarP(&o.components, "components", "c", "", "Directory of component specs to check jobs against.")
	cmd.PersistentFlags().StringVar(&o.registry, "registry", "", "Target registry components are published to.")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn, error.")
	cmd.PersistentFlags().StringVar(&o.logFormat, "log-format", "text", "Log format: text or json.")
	cmd.PersistentFlags().BoolVar(&o.strict, "strict", false, "Fail on components missing from the catalog.")
	cmd.PersistentFlags().IntVar(&o.workers, "workers", runtime.NumCPU(), "Number of manifests resolved concurrently.")
	cmd.PersistentFlags().BoolVar(&o.noColor, "no-color", false, "Disable coloured output.")
}

// config returns the configuration shared by every command.
func (o *generalOptions) config(paths []string) app.Config {
	return app.Config{
		ManifestPaths:  paths,
		ComponentsPath: o.components,
		TargetRegistry: o.registry,
		Strict:         o.strict,
		LogLevel:       o.logLevel,
		LogFormat:      o.logFormat,
		WorkerCount:    o.workers,
		NoColor:        o.noColor,
	}
}

// newApp validates cfg and builds the application writing to the command's
// output streams.
func (o *generalOptions) newApp(ctx context.Context, cmd *cobra.Command, cfg app.Config) (*app.App, error) {
	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	if config.ComponentsPath == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), o.warnColor().Sprint("No component directory given, port checks are skipped."))
	}
	a, err := app.NewApp(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), config)
	if err != nil {
		return nil, failure(err)
	}
	return a, nil
}

// warnColor returns the colour of CLI warnings, honouring --no-color
// without touching the package-wide default.
func (o *generalOptions) warnColor() *color.Color {
	c := color.New(color.FgHiYellow)
	if o.noColor {
		c.DisableColor()
	}
	return c
}

// parseAssignments turns repeated key=value flags into a map.
func parseAssignments(flag string, values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		if !ok || key == "" {
			return nil, usageError(fmt.Errorf("invalid --%s %q: expected key=value", flag, v))
		}
		out[key] = value
	}
	return out, nil
}
