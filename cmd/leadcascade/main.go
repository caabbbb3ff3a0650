package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "leadcascade",
		Short:   "Lead exclusivity cascade service",
		Version: version,
		Long: `leadcascade hands each inbound lead to one participant at a time and
passes it to the next participant when the exclusivity window runs out.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(participantCmd())

	return rootCmd
}
