package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrisdamba/trafficflow/internal/logger"
	"github.com/chrisdamba/trafficflow/internal/models"
	"github.com/chrisdamba/trafficflow/internal/simulator"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generates a synthetic raw survey file",
	Long: `simulate writes turning movement counts for a set of fictional intersections,
in the same layout as a raw survey export, so the aggregation can be run without
the real survey data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := models.LoadConfig(v, cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		log := logger.New(cfg.Environment)

		path := cfg.Simulation.OutputFile
		rows, err := simulator.New(cfg.Simulation, log).GenerateFile(path)
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Int("rows", rows).Msg("simulation written")
		return nil
	},
}

func init() {
	simulateCmd.Flags().String("output-file", "./data/raw-data-2020-2029.csv", "Where to write the generated survey")
	simulateCmd.Flags().Int("locations", 12, "Number of intersections")
	simulateCmd.Flags().Int("days", 5, "Number of consecutive survey days")
	simulateCmd.Flags().Int64("seed", 42, "Random seed")
	simulateCmd.Flags().String("start-date", "2023-05-08T00:00:00Z", "First survey day (RFC 3339)")
	simulateCmd.Flags().Bool("quiet", false, "Hide the progress bar")

	bindFlags(simulateCmd, map[string]string{
		"simulation.output_file": "output-file",
		"simulation.locations":   "locations",
		"simulation.days":        "days",
		"simulation.seed":        "seed",
		"simulation.start_date":  "start-date",
		"simulation.quiet":       "quiet",
	})
}
