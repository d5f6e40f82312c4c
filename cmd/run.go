package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spigell/geojobs/internal/heuristics"
	"github.com/spigell/geojobs/internal/llm"
	"github.com/spigell/geojobs/internal/llm/gemini"
	"github.com/spigell/geojobs/internal/llm/ollama"
	"github.com/spigell/geojobs/internal/logger"
	"github.com/spigell/geojobs/internal/pipeline"
	"github.com/spigell/geojobs/internal/secrets"
	"github.com/spigell/geojobs/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the extraction pipeline over pending raw messages",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("once", false, "process pending records and exit")
	runCmd.Flags().Bool("watch", false, "keep polling for new records (default)")
	runCmd.MarkFlagsMutuallyExclusive("once", "watch")

	runCmd.Flags().String("cloud-host", "", "override the cloud model host")
	runCmd.Flags().String("cloud-model", "", "override the cloud model identifier")
	runCmd.Flags().String("local-host", "", "override the local model host")
	runCmd.Flags().String("local-model", "", "override the local model identifier")

	viper.BindPFlag("cloud.host", runCmd.Flags().Lookup("cloud-host"))
	viper.BindPFlag("cloud.model", runCmd.Flags().Lookup("cloud-model"))
	viper.BindPFlag("local.host", runCmd.Flags().Lookup("local-host"))
	viper.BindPFlag("local.model", runCmd.Flags().Lookup("local-model"))
}

// run is the main command for the daemon.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the geojobs pipeline", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Database == nil || strings.TrimSpace(config.Database.URL) == "" {
		logger.Fatal("database url is required",
			zap.String("hint", "set DATABASE_URL environment variable or the 'database.url' key in the configuration file"),
		)
	}

	if config.Local == nil || strings.TrimSpace(config.Local.Host) == "" {
		logger.Fatal("local model host is required under local.host")
	}

	db, err := store.New(ctx, config.Database.URL, logger)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()

	extractor, err := newExtractor(ctx, config, logger)
	if err != nil {
		logger.Fatal("building model extractor", zap.Error(err))
	}

	extractor.Preflight(ctx)

	p := pipeline.New(db, extractor, newValidator(config, logger), pipeline.Config{
		BatchSize:    pipelineBatchSize(config),
		PollInterval: pipelinePollInterval(config),
		Heuristics:   heuristicsConfig(config),
	}, logger)

	once, _ := cmd.Flags().GetBool("once")

	if err := p.Run(ctx, once); err != nil {
		logger.Fatal("pipeline stopped", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "pipeline finished"))
}

// newExtractor assembles the failover pair: the cloud backend when enabled
// and the local one, which is always required.
func newExtractor(ctx context.Context, config *Config, logger *zap.Logger) (*llm.Extractor, error) {
	local := ollama.New(config.Local.Host, config.Local.Model, localAPIKey(config, logger), logger)

	primary, err := newCloudBackend(ctx, config.Cloud, logger)
	if err != nil {
		return nil, err
	}

	banner := []zap.Field{
		zap.String("local", local.String()),
		zap.Bool("validator", config.Validator != nil && config.Validator.Enabled),
	}
	if primary != nil {
		banner = append(banner, zap.String("cloud", primary.String()))
	}
	logger.Info("extraction backends configured", banner...)

	return llm.NewExtractor(primary, local, &llm.State{}, logger), nil
}

func newCloudBackend(ctx context.Context, cfg *CloudConfig, logger *zap.Logger) (llm.Backend, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "cloud api key",
		File: cfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set cloud.api-key-file or CLOUD_API_KEY_FILE)", err)
	}

	switch provider := strings.TrimSpace(strings.ToLower(cfg.Provider)); provider {
	case "", "ollama":
		if cfg.Host == "" {
			return nil, fmt.Errorf("cloud.host is required for the ollama provider")
		}
		return ollama.New(cfg.Host, cfg.Model, apiKey, logger), nil
	case "gemini":
		cloud, err := gemini.New(ctx, apiKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("building cloud backend: %w", err)
		}
		return cloud, nil
	default:
		return nil, fmt.Errorf("unsupported cloud provider: %s", cfg.Provider)
	}
}

func newValidator(config *Config, logger *zap.Logger) *llm.Validator {
	if config.Validator == nil || !config.Validator.Enabled {
		return nil
	}

	host := config.Validator.Host
	if host == "" {
		host = config.Local.Host
	}

	backend := ollama.New(host, config.Validator.Model, "", logger)
	return llm.NewValidator(backend, logger)
}

func localAPIKey(config *Config, logger *zap.Logger) string {
	if config.Local.APIKeyFile == "" {
		return ""
	}

	key, err := secrets.Load(secrets.Source{
		Name: "local api key",
		File: config.Local.APIKeyFile,
	})
	if err != nil {
		logger.Warn("local api key not loaded, proceeding without auth", zap.Error(err))
		return ""
	}

	return key
}

func pipelineBatchSize(config *Config) int {
	if config.Pipeline == nil {
		return 0
	}
	return config.Pipeline.BatchSize
}

func pipelinePollInterval(config *Config) time.Duration {
	if config.Pipeline == nil {
		return 0
	}
	return config.Pipeline.PollInterval
}

func heuristicsConfig(config *Config) heuristics.Config {
	if config.Heuristics == nil {
		return heuristics.Config{}
	}
	return heuristics.Config{DefaultRole: config.Heuristics.DefaultRole}
}
