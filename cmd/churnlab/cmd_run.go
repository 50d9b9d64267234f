package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/divinecomedylabs/churnlab/go-engine/internal/archetype"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/engine"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/results"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/rules"
	"github.com/divinecomedylabs/churnlab/go-engine/internal/strategy"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full simulation",
		Long: `Run the batch simulation with the configured population and horizon.

A challenger decision service is required; running without one aborts
on the first executed batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := engine.DefaultConfig()
			config.Days, _ = cmd.Flags().GetInt("days")
			config.NumUsers, _ = cmd.Flags().GetInt("num-users")
			config.MaxUsers, _ = cmd.Flags().GetInt("max-users")
			config.BatchesPerDay, _ = cmd.Flags().GetInt("batches-per-day")
			config.EnableInflux, _ = cmd.Flags().GetBool("enable-influx")
			seed, _ := cmd.Flags().GetInt64("seed")
			config.Seed = seed

			rulebook, catalog, err := loadTables(cmd)
			if err != nil {
				return err
			}

			var challenger strategy.Challenger = strategy.Unimplemented{}
			if addr, _ := cmd.Flags().GetString("challenger-addr"); addr != "" {
				remote, err := strategy.NewRemoteChallenger(addr)
				if err != nil {
					return fmt.Errorf("connect challenger: %w", err)
				}
				defer remote.Close()
				challenger = remote
			}

			log.Printf("[RUN] days=%d batches/day=%d users=%d max=%d seed=%d influx=%v",
				config.Days, config.BatchesPerDay, config.NumUsers,
				config.MaxUsers, config.Seed, config.EnableInflux)

			eng := engine.NewEngine(config, rulebook, catalog, challenger)
			if path, _ := cmd.Flags().GetString("economy"); path != "" {
				costs, tierARR, err := rules.LoadEconomy(path)
				if err != nil {
					return err
				}
				eng.SetEconomy(costs, tierARR)
				log.Printf("[RUN] economy tables loaded from %s", path)
			}

			report, err := eng.Run(cmd.Context())
			if err != nil {
				return err
			}

			if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
				if err := saveReport(dbPath, config, report); err != nil {
					return err
				}
			}

			printRunResult(report)
			return nil
		},
	}

	cmd.Flags().Int("days", 365, "Total number of days to simulate")
	cmd.Flags().Int("batches-per-day", 6, "Intervention windows per day")
	cmd.Flags().Int("num-users", 500, "Initial number of users")
	cmd.Flags().Int("max-users", 1000, "Maximum user cap during influx")
	cmd.Flags().Int64("seed", 42, "Random seed for reproducibility")
	cmd.Flags().Bool("enable-influx", false, "Enable new user influx over time")
	cmd.Flags().String("rules", "", "YAML rulebook override")
	cmd.Flags().String("archetypes", "", "YAML archetype catalog override")
	cmd.Flags().String("economy", "", "YAML cost/revenue table override")
	cmd.Flags().String("challenger-addr", "", "gRPC address of the challenger decision service")
	cmd.Flags().String("db", "", "SQLite path to persist run results")

	return cmd
}

// loadTables resolves the rulebook and archetype catalog, from YAML
// overrides when given, defaults otherwise.
func loadTables(cmd *cobra.Command) (*rules.Rulebook, *archetype.Catalog, error) {
	rulebook := rules.DefaultRulebook()
	if path, _ := cmd.Flags().GetString("rules"); path != "" {
		loaded, err := rules.LoadRulebook(path)
		if err != nil {
			return nil, nil, err
		}
		rulebook = loaded
		log.Printf("[RUN] rulebook loaded from %s (%d entries)", path, rulebook.Len())
	}

	catalog := archetype.DefaultCatalog()
	if path, _ := cmd.Flags().GetString("archetypes"); path != "" {
		loaded, err := archetype.LoadCatalog(path)
		if err != nil {
			return nil, nil, err
		}
		catalog = loaded
		log.Printf("[RUN] archetype catalog loaded from %s (%d archetypes)", path, catalog.Len())
	}

	return rulebook, catalog, nil
}

func saveReport(dbPath string, config engine.Config, report engine.Report) error {
	store, err := results.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SaveRun(config, report); err != nil {
		return err
	}
	log.Printf("[RESULTS] run=%s saved to %s", report.RunID, dbPath)
	return nil
}

func printRunResult(report engine.Report) {
	final := func(series []float64) float64 {
		if len(series) == 0 {
			return 0
		}
		return series[len(series)-1]
	}

	fmt.Printf("run %s: %d batches executed\n", report.RunID, len(report.Batches))
	fmt.Printf("%-12s| %-12s| %-12s| %-10s\n", "Branch", "Final churn", "Churned", "Alive")
	fmt.Printf("%-12s+ %-12s+ %-12s+ %-10s\n", "------------", "------------", "------------", "----------")
	fmt.Printf("%-12s| %-12.4f| %-12d| %-10d\n", "challenger",
		final(report.Challenger.Churn), len(report.ChallengerChurned), len(report.ChallengerAlive))
	fmt.Printf("%-12s| %-12.4f| %-12d| %-10d\n", "baseline",
		final(report.Baseline.Churn), len(report.BaselineChurned), len(report.BaselineAlive))
}
