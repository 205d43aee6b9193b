package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chrisdamba/trafficflow/internal/logger"
	"github.com/chrisdamba/trafficflow/internal/models"
	"github.com/chrisdamba/trafficflow/internal/pipeline"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "trafficflow",
	Short: "Aggregates intersection turning movement counts into daily traffic maps",
	Long: `trafficflow reads raw intersection turning movement survey counts, combines them
into per-location traffic volumes for every time of day and renders a line plot,
a time-animated map and the aggregated table.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := models.LoadConfig(v, cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		log := logger.New(cfg.Environment)
		if used := v.ConfigFileUsed(); used != "" {
			log.Debug().Str("file", used).Msg("using config file")
		}

		res, err := pipeline.New(cfg, log).Run(cmd.Context())
		if err != nil {
			log.Error().Err(err).Msg("pipeline failed")
			return err
		}

		log.Info().
			Str("run_id", res.RunID).
			Int("time_slots", len(res.Records)).
			Str("output_folder", cfg.OutputFolder).
			Msg("done")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./trafficflow.yaml)")
	rootCmd.PersistentFlags().String("environment", "development", "Runtime environment (development logs to the console)")

	rootCmd.Flags().String("raw-data-path", "./data/raw-data-2020-2029.csv", "Raw survey CSV to aggregate")
	rootCmd.Flags().Int("from-year", 2023, "Earliest survey year kept")
	rootCmd.Flags().String("output-folder", "./output", "Folder receiving the plot, map and tables")
	rootCmd.Flags().StringSlice("output-formats", []string{models.OutputFormatCSV}, "Table formats: csv, json, parquet, xlsx")
	rootCmd.Flags().Bool("auto-center", false, "Center the map on the surveyed locations")

	bindFlags(rootCmd, map[string]string{
		"environment":     "environment",
		"raw_data_path":   "raw-data-path",
		"from_year":       "from-year",
		"output_folder":   "output-folder",
		"output_formats":  "output-formats",
		"map.auto_center": "auto-center",
	})

	rootCmd.AddCommand(simulateCmd)
}

// bindFlags ties config keys to flags, so a flag overrides the file and the
// environment only when it is set.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(flag)
		}
		cobra.CheckErr(v.BindPFlag(key, f))
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
