package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seriva/microtastic/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┬┌─┐┬─┐┌─┐┌┬┐┌─┐┌─┐┌┬┐┬┌─┐
  │││││  ├┬┘│ │ │ ├─┤└─┐ │ ││
  ┴ ┴┴└─┘┴└─└─┘ ┴ ┴ ┴└─┘ ┴ ┴└─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "microtastic",
		Short: "A tiny toolchain for reactive web apps",
		Long: `Microtastic builds and serves small reactive web applications.

  • Scaffold a project with sensible defaults
  • Dev server with live reload and an error overlay
  • Production bundles with content-hashed assets
  • One-command deploy to S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		createCmd(),
		devCmd(),
		buildCmd(),
		deployCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		var te *errors.ToolError
		if stderrors.As(err, &te) {
			fmt.Fprint(os.Stderr, te.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
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
