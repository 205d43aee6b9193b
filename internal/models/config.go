package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	OutputFormatCSV     = "csv"
	OutputFormatJSON    = "json"
	OutputFormatParquet = "parquet"
	OutputFormatXLSX    = "xlsx"

	CloudProviderNone = ""
	CloudProviderS3   = "s3"
)

type MapConfig struct {
	ReferenceDate time.Time `mapstructure:"reference_date"`
	CenterLat     float64   `mapstructure:"center_lat"`
	CenterLon     float64   `mapstructure:"center_lon"`
	AutoCenter    bool      `mapstructure:"auto_center"`
	Zoom          int       `mapstructure:"zoom"`
	Period        string    `mapstructure:"period"` // ISO 8601 duration between animation frames
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
	Prefix     string `mapstructure:"prefix"`
}

type SimulationConfig struct {
	Seed       int64     `mapstructure:"seed"`
	Locations  int       `mapstructure:"locations"`
	Days       int       `mapstructure:"days"`
	StartDate  time.Time `mapstructure:"start_date"`
	OutputFile string    `mapstructure:"output_file"`
	CityLat    float64   `mapstructure:"city_lat"`
	CityLon    float64   `mapstructure:"city_lon"`
	Quiet      bool      `mapstructure:"quiet"`
}

type Config struct {
	Environment   string             `mapstructure:"environment"`
	RawDataPath   string             `mapstructure:"raw_data_path"`
	FromYear      int                `mapstructure:"from_year"`
	OutputFolder  string             `mapstructure:"output_folder"`
	OutputFormats []string           `mapstructure:"output_formats"`
	LinePlotFile  string             `mapstructure:"lineplot_file"`
	MapFile       string             `mapstructure:"map_file"`
	TableBasename string             `mapstructure:"table_basename"`
	Map           MapConfig          `mapstructure:"map"`
	CloudStorage  CloudStorageConfig `mapstructure:"cloud_storage"`
	Simulation    SimulationConfig   `mapstructure:"simulation"`
}

// SetDefaults registers the default value of every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("raw_data_path", "./data/raw-data-2020-2029.csv")
	v.SetDefault("from_year", 2023)
	v.SetDefault("output_folder", "./output")
	v.SetDefault("output_formats", []string{OutputFormatCSV})
	v.SetDefault("lineplot_file", "traffic_lineplot.png")
	v.SetDefault("map_file", "daily_traffic_map_interactive.html")
	v.SetDefault("table_basename", "traffic_time_slots")

	v.SetDefault("map.reference_date", "2024-11-10T00:00:00Z")
	v.SetDefault("map.center_lat", 43.66)
	v.SetDefault("map.center_lon", -79.38)
	v.SetDefault("map.auto_center", false)
	v.SetDefault("map.zoom", 14)
	v.SetDefault("map.period", "PT15M")

	v.SetDefault("cloud_storage.provider", CloudProviderNone)
	v.SetDefault("cloud_storage.region", "us-east-1")
	v.SetDefault("cloud_storage.prefix", "trafficflow")

	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.locations", 12)
	v.SetDefault("simulation.days", 5)
	v.SetDefault("simulation.start_date", "2023-05-08T00:00:00Z")
	v.SetDefault("simulation.output_file", "./data/raw-data-2020-2029.csv")
	v.SetDefault("simulation.city_lat", 43.66)
	v.SetDefault("simulation.city_lon", -79.38)
	v.SetDefault("simulation.quiet", false)
}

// LoadConfig initializes and reads the configuration using Viper. Values come
// from, in increasing priority: defaults, the config file, TRAFFICFLOW_*
// environment variables and flags already bound on v.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.SetConfigName("trafficflow")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("trafficflow")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.RawDataPath) == "" {
		return fmt.Errorf("raw_data_path is required")
	}
	if cfg.FromYear <= 0 {
		return fmt.Errorf("from_year must be positive, got %d", cfg.FromYear)
	}
	for _, format := range cfg.OutputFormats {
		switch format {
		case OutputFormatCSV, OutputFormatJSON, OutputFormatParquet, OutputFormatXLSX:
		default:
			return fmt.Errorf("unsupported output format: %q", format)
		}
	}
	switch cfg.CloudStorage.Provider {
	case CloudProviderNone:
	case CloudProviderS3:
		if cfg.CloudStorage.BucketName == "" {
			return fmt.Errorf("cloud_storage.bucket_name is required for provider %q", cfg.CloudStorage.Provider)
		}
	default:
		return fmt.Errorf("unsupported cloud storage provider: %s", cfg.CloudStorage.Provider)
	}
	return nil
}
