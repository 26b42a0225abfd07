package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nse-trading-engine/config"
	"nse-trading-engine/internal/analysis"
	"nse-trading-engine/internal/api"
	"nse-trading-engine/internal/cache"
	"nse-trading-engine/internal/database"
	"nse-trading-engine/internal/events"
	"nse-trading-engine/internal/execution"
	"nse-trading-engine/internal/logging"
	"nse-trading-engine/internal/market"
	"nse-trading-engine/internal/portfolio"
	"nse-trading-engine/internal/regime"
	"nse-trading-engine/internal/scanner"
)

func main() {
	generateConfig := flag.Bool("generate-config", false, "Write a sample config.json and exit")
	flag.Parse()

	if *generateConfig {
		if err := config.GenerateSampleConfig("config.json"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Sample configuration written to config.json")
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logging
	logger := logging.New(logging.Config{
		Level:      cfg.LoggingConfig.Level,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
	})
	logger.Info().Msg("Logger initialized")

	// Initialize event bus
	eventBus := events.NewEventBus()

	// Initialize database (optional)
	var repo *database.Repository
	if cfg.DatabaseConfig.Enabled {
		db, err := database.NewDB(database.Config{
			Host:     cfg.DatabaseConfig.Host,
			Port:     cfg.DatabaseConfig.Port,
			User:     cfg.DatabaseConfig.User,
			Password: cfg.DatabaseConfig.Password,
			Database: cfg.DatabaseConfig.Database,
			SSLMode:  cfg.DatabaseConfig.SSLMode,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.RunMigrations(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
		repo = database.NewRepository(db)
	} else {
		logger.Warn().Msg("Database disabled, running in-memory only")
	}

	// Initialize candle cache
	candleCache := cache.NewCandleCache(cache.RedisConfig{
		Enabled:  cfg.RedisConfig.Enabled,
		Address:  cfg.RedisConfig.Address,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
		PoolSize: cfg.RedisConfig.PoolSize,
	}, logger)
	defer candleCache.Close()

	// Market data provider, wrapped with caching and persistence
	var provider market.DataProvider
	if cfg.DataConfig.MockMode {
		logger.Warn().Msg("Mock mode enabled, using simulated market data")
		provider = market.NewMockClient()
	} else {
		provider = market.NewYahooClient(logger)
	}
	var candleStore market.CandleStore
	if repo != nil {
		candleStore = repo
	}
	provider = market.NewCachedProvider(provider, candleCache, candleStore, logger)

	// Regime weight profiles
	profiles, err := regime.LoadWeightProfiles(cfg.EngineConfig.WeightsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid weight profiles")
	}
	detector := regime.NewDetector(profiles, logger)

	// Signal generation and timeframe alignment
	generator := analysis.NewSignalGenerator(detector,
		cfg.EngineConfig.MinConfidence,
		cfg.EngineConfig.MinRiskReward,
		cfg.EngineConfig.SignalCooldownDuration(),
		logger)
	mtf := analysis.NewMultiTimeframeAnalyzer(provider, "", "", logger)

	// Portfolio ledger and risk gates
	var pfStore portfolio.Store
	if repo != nil {
		pfStore = repo
	}
	pf := portfolio.NewState(cfg.PortfolioConfig.InitialCapital, pfStore, logger)
	riskManager := portfolio.NewRiskManager(portfolio.RiskLimits{
		MaxRiskPerTradePct:  cfg.RiskConfig.MaxRiskPerTradePct,
		MaxDailyLossPct:     cfg.RiskConfig.MaxDailyLossPct,
		MaxOpenPositions:    cfg.RiskConfig.MaxOpenPositions,
		MaxTradesPerSymbol:  cfg.RiskConfig.MaxTradesPerSymbol,
		MaxPositionValuePct: cfg.RiskConfig.MaxPositionValuePct,
	}, pf.TotalCapital(), logger)

	// Decision engine
	var signalStore execution.SignalStore
	if repo != nil {
		signalStore = repo
	}
	engine := execution.NewEngine(execution.EngineDeps{
		MTF:       mtf,
		Generator: generator,
		Lifecycle: execution.NewLifecycleManager(logger),
		Portfolio: pf,
		Risk:      riskManager,
		Store:     signalStore,
		Bus:       eventBus,
	}, cfg.RiskConfig.MaxRiskPerTradePct, cfg.EngineConfig.MinRiskReward, logger)

	// Symbol universe scanner
	sc := scanner.NewScanner(engine, market.NewStaticSymbolProvider(nil), eventBus, scanner.Config{
		Enabled:      cfg.ScannerConfig.Enabled,
		ScanInterval: cfg.ScannerConfig.ScanIntervalDuration(),
		WorkerCount:  cfg.ScannerConfig.WorkerCount,
		HigherTF:     cfg.EngineConfig.HigherTimeframe,
		LowerTF:      cfg.EngineConfig.LowerTimeframe,
	}, logger)
	sc.Start()
	defer sc.Stop()

	// Periodic portfolio snapshots
	if repo != nil && cfg.PortfolioConfig.SnapshotInterval > 0 {
		interval := time.Duration(cfg.PortfolioConfig.SnapshotInterval) * time.Second
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				if err := pf.SaveSnapshot(context.Background()); err != nil {
					logger.Error().Err(err).Msg("Failed to save portfolio snapshot")
				}
			}
		}()
	}

	// HTTP and WebSocket API
	server := api.NewServer(api.ServerConfig{
		Host:           cfg.ServerConfig.Host,
		Port:           cfg.ServerConfig.Port,
		ProductionMode: cfg.ServerConfig.ProductionMode,
	}, engine, pf, sc, repo, eventBus, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("API server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
}
