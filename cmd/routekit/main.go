package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┬ ┬┌┬┐┌─┐┬┌─┬┌┬┐
  ├┬┘│ ││ │ │ ├┤ ├┴┐│ │
  ┴└─└─┘└─┘ ┴ └─┘┴ ┴┴ ┴
`

// globalFlags are shared by every command.
type globalFlags struct {
	config   string
	manifest string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		rkerrors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "routekit",
		Short: "Inspect and drive routekit route tables",
		Long: `routekit loads a route manifest and lets you inspect it.

  • List the route table in registration order
  • Match URLs without running hooks
  • Parse navigation targets
  • Serve an inspector with a websocket event stream`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Config file (default: routekit.json or routekit.toml in the project root)")
	pf.StringVarP(&flags.manifest, "manifest", "m", "", "Route manifest path or s3://bucket/key URL")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		routesCmd(flags),
		matchCmd(flags),
		navigateCmd(flags),
		uriCmd(),
		serveCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
