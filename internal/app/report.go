package app

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/multierr"
)

// styles colours terminal output. Every colour is disabled together.
type styles struct {
	ok    *color.Color
	fail  *color.Color
	warn  *color.Color
	title *color.Color
	dim   *color.Color
}

func newStyles(enabled bool) styles {
	s := styles{
		ok:    color.New(color.FgGreen),
		fail:  color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgHiYellow),
		title: color.New(color.Bold),
		dim:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{s.ok, s.fail, s.warn, s.title, s.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// errorLines flattens an aggregated error into one line per failure.
func errorLines(err error) []string {
	var lines []string
	for _, e := range multierr.Errors(err) {
		lines = append(lines, strings.Split(e.Error(), "\n")...)
	}
	return lines
}

// printFailure writes the status line of a manifest that failed followed by
// its errors.
func (a *App) printFailure(r result) {
	fmt.Fprintf(a.outW, "%s %s\n", a.styles.fail.Sprint("FAIL"), r.Path)
	for _, line := range errorLines(r.Err) {
		fmt.Fprintf(a.outW, "    %s\n", line)
	}
}
