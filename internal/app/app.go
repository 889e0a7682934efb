// Package app wires configuration, storage, clients, and services into
// the shared application core used by cmd/deepticker-server.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mingmanhk/deepticker/internal/clients/eodhd"
	"github.com/mingmanhk/deepticker/internal/clients/yahoo"
	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/providers"
	"github.com/mingmanhk/deepticker/internal/providers/anthropic"
	"github.com/mingmanhk/deepticker/internal/providers/deepseek"
	"github.com/mingmanhk/deepticker/internal/providers/gemini"
	"github.com/mingmanhk/deepticker/internal/providers/openai"
	"github.com/mingmanhk/deepticker/internal/services/insight"
	"github.com/mingmanhk/deepticker/internal/services/portfolio"
	"github.com/mingmanhk/deepticker/internal/services/quote"
	"github.com/mingmanhk/deepticker/internal/storage"
)

// App holds all initialized services, clients, and storage.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	Registry         *providers.Registry
	QuoteService     interfaces.QuoteService
	InsightService   interfaces.InsightService
	PortfolioService interfaces.PortfolioService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	// Load configuration - check provided path, DEEPTICKER_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("DEEPTICKER_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "deepticker.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/deepticker.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	app, err := buildApp(config, logger, storageManager)
	if err != nil {
		storageManager.Close()
		return nil, err
	}
	return app, nil
}

// NewAppWithStorage builds an App on an existing storage manager.
// Used by tests to run against a temporary database.
func NewAppWithStorage(config *common.Config, logger *common.Logger, storageManager interfaces.StorageManager) (*App, error) {
	return buildApp(config, logger, storageManager)
}

func buildApp(config *common.Config, logger *common.Logger, storageManager interfaces.StorageManager) (*App, error) {
	if config.Quotes.EODHD.APIKey == "" {
		logger.Warn().Msg("EODHD API key not configured - primary quote source will be unavailable")
	}

	eodhdClient := eodhd.NewClient(config.Quotes.EODHD.APIKey,
		eodhd.WithBaseURL(config.Quotes.EODHD.BaseURL),
		eodhd.WithLogger(logger),
		eodhd.WithRateLimit(config.Quotes.EODHD.RequestsPerMin),
		eodhd.WithTimeout(config.Quotes.EODHD.GetTimeout()),
	)

	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Quotes.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithTimeout(config.Quotes.Yahoo.GetTimeout()),
	)

	quoteService := quote.NewService(eodhdClient, yahooClient, logger,
		quote.WithTTLs(config.Quotes.GetPrimaryTTL(), config.Quotes.GetSecondaryTTL()),
		quote.WithMaxConcurrent(config.Quotes.MaxConcurrent),
	)

	credentials := storageManager.Credentials()
	registry := providers.NewRegistry(
		gemini.NewClient(credentials,
			gemini.WithModel(config.Providers.Gemini.Model),
			gemini.WithLogger(logger),
		),
		openai.NewClient(credentials,
			openai.WithModel(config.Providers.OpenAI.Model),
			openai.WithLogger(logger),
		),
		anthropic.NewClient(credentials,
			anthropic.WithModel(config.Providers.Anthropic.Model),
			anthropic.WithLogger(logger),
		),
		deepseek.NewClient(credentials,
			deepseek.WithModel(config.Providers.DeepSeek.Model),
			deepseek.WithBaseURL(config.Providers.DeepSeek.BaseURL),
			deepseek.WithLogger(logger),
		),
	)

	insightService := insight.NewService(registry, credentials, storageManager.KV(), logger,
		insight.WithTTL(config.Insights.GetTTL()),
	)

	portfolioService := portfolio.NewService(storageManager.Holdings(), storageManager.KV(), quoteService, config.Health, logger)

	logger.Info().
		Str("version", common.GetVersion()).
		Msg("Application initialized")

	return &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		Registry:         registry,
		QuoteService:     quoteService,
		InsightService:   insightService,
		PortfolioService: portfolioService,
		StartupTime:      time.Now(),
	}, nil
}

// Close releases application resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
