package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/observable/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗┌┐ ┌─┐┌─┐┬─┐┬  ┬┌─┐┌┐ ┬  ┌─┐
  ║ ║├┴┐└─┐├┤ ├┬┘└┐┌┘├─┤├┴┐│  ├┤
  ╚═╝└─┘└─┘└─┘┴└─ └┘ ┴ ┴└─┘┴─┘└─┘
`

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	noColor    bool
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "observable",
		Short: "Reactive value cells with a live inspector",
		Long: `observable hosts reactive value cells and serves a devtools inspector.

Cells are typed values whose writes run through interceptors and notify
listeners. The inspector lists, edits and streams them over HTTP, and can
save and restore snapshots to memory or S3.

  • Interceptors that rewrite or veto writes
  • Action enforcement for state changes
  • Live change streams over WebSocket
  • Prometheus metrics and OpenTelemetry spans
  • Snapshots to S3-compatible storage`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to observable.json (default: nearest in the working directory or its parents)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error (default from observable.json)")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		initCmd(&flags),
		serveCmd(&flags),
		demoCmd(&flags),
		cellsCmd(&flags),
		snapshotCmd(&flags),
		versionCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
