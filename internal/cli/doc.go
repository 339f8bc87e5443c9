// Package cli builds the pipegraph command line on top of the app package.
// It turns flags into an app.Config and maps failures to exit codes.
package cli
