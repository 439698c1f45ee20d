package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set via ldflags at build time
var (
	Version   = "dev"
	BuildTime = ""
	GitCommit = ""
)

var rootCmd = &cobra.Command{
	Use:     "covdash",
	Short:   "covdash - Flutter test coverage dashboard with GitHub login",
	Long:    `A single-binary dashboard that analyzes which Dart library files in a GitHub repository have tests, behind a GitHub OAuth login.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate("covdash version {{.Version}}\n")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
