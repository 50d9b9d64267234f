package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "churnlab",
		Short: "ChurnLab - retention strategy simulation engine",
		Long: `churnlab runs a discrete-time behavioral simulation comparing an
adaptive intervention strategy (challenger) against a fixed heuristic
(baseline) over a synthetic user population.

The challenger is an external decision service; point --challenger-addr
at a gRPC endpoint implementing the Decide contract.`,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newInspectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
