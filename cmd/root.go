package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "geojobs"
)

type Config struct {
	Database   *DatabaseConfig   `mapstructure:"database"`
	Cloud      *CloudConfig      `mapstructure:"cloud"`
	Local      *LocalConfig      `mapstructure:"local"`
	Validator  *ValidatorConfig  `mapstructure:"validator"`
	Pipeline   *PipelineConfig   `mapstructure:"pipeline"`
	Heuristics *HeuristicsConfig `mapstructure:"heuristics"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type CloudConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Provider   string `mapstructure:"provider"`
	Host       string `mapstructure:"host"`
	Model      string `mapstructure:"model"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type LocalConfig struct {
	Host       string `mapstructure:"host"`
	Model      string `mapstructure:"model"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type ValidatorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Model   string `mapstructure:"model"`
}

type PipelineConfig struct {
	BatchSize    int           `mapstructure:"batch-size"`
	PollInterval time.Duration `mapstructure:"poll-interval"`
}

type HeuristicsConfig struct {
	DefaultRole string `mapstructure:"default-role"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "geojobs extracts structured job postings from raw telegram messages",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("database.url", "DATABASE_URL"); err != nil {
		log.Fatalf("binding DATABASE_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("cloud.api-key-file", "CLOUD_API_KEY_FILE"); err != nil {
		log.Fatalf("binding CLOUD_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is geojobs.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
