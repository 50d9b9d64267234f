package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/results"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize runs stored in a results database",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			if dbPath == "" {
				return fmt.Errorf("--db is required")
			}
			runID, _ := cmd.Flags().GetString("run")
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := results.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				return printSummary(store, runID)
			}

			metas, err := store.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(metas) == 0 {
				fmt.Println("no runs stored")
				return nil
			}

			fmt.Printf("%-38s| %-8s| %-6s| %-8s| %-8s\n", "Run", "Seed", "Days", "Users", "Influx")
			fmt.Printf("%-38s+%-9s+%-7s+%-9s+%-8s\n",
				"--------------------------------------", "---------", "-------", "---------", "--------")
			for _, m := range metas {
				fmt.Printf("%-38s| %-8d| %-6d| %-8d| %-8v\n",
					m.RunID, m.Seed, m.Days, m.NumUsers, m.Influx)
			}
			return nil
		},
	}

	cmd.Flags().String("db", "", "SQLite results database path")
	cmd.Flags().String("run", "", "Run ID to summarize (default: list runs)")
	cmd.Flags().Int("limit", 20, "Maximum runs to list")

	return cmd
}

func printSummary(store *results.Store, runID string) error {
	sum, err := store.Summary(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run %s\n", sum.RunID)
	fmt.Printf("  executed batches: %d\n", sum.ExecutedBatches)
	fmt.Printf("  final churn:      challenger=%.4f baseline=%.4f\n", sum.FinalChurnReal, sum.FinalChurnBase)
	fmt.Printf("  total energy:     challenger=%.2f baseline=%.2f\n", sum.TotalEnergyReal, sum.TotalEnergyBase)
	fmt.Printf("  total ARR:        challenger=%.0f baseline=%.0f\n", sum.TotalARRReal, sum.TotalARRBase)
	fmt.Printf("  penalties:        %.0f\n", sum.TotalPenalties)
	fmt.Printf("  comebacks:        %d\n", sum.TotalComebacks)
	fmt.Printf("  churned:          challenger=%d baseline=%d\n", sum.ChurnedChallenger, sum.ChurnedBaseline)
	return nil
}
