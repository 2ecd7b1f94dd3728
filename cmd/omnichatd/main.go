// Package main is the entry point for the omnichat daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/omnichat/omnichat/internal/config"
	"github.com/omnichat/omnichat/internal/observability"
	"github.com/omnichat/omnichat/internal/rpc"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger, zapLogger := initLogger(flags)
	defer func() { _ = zapLogger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)

	ctx := context.Background()
	app, err := initApplication(ctx, cfg, logger, zapLogger)
	if err != nil {
		logger.Fatal("failed to initialize application", observability.Error(err))
	}

	registerProcedures(app)
	run(app, flags.configPath, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("OMNICHAT_CONFIG_PATH", "configs/omnichat.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("OMNICHAT_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("OMNICHAT_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("omnichatd version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger. The raw zap logger is handed to
// leaf packages that take *zap.Logger directly.
func initLogger(flags cliFlags) (observability.Logger, *zap.Logger) {
	zapLogger, err := observability.NewZapLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	return observability.NewLoggerWithZap(zapLogger), zapLogger
}

// loadAndValidateConfig loads and validates the configuration. A missing
// config file is not an error; defaults apply.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting omnichatd",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Warn("configuration file not found, using defaults",
			observability.String("path", configPath))
		return config.DefaultConfig()
	}

	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	logger.Info("configuration loaded",
		observability.Int("httpPort", cfg.HTTPPort),
		observability.String("secretsProvider", cfg.SecretsProvider),
		observability.Bool("rateLimitEnabled", cfg.RateLimitEnabled),
		observability.String("rateLimitStore", cfg.RateLimitStoreType),
		observability.Bool("tracingEnabled", cfg.TracingEnabled),
	)

	return cfg
}

// registerProcedures registers the built-in procedures. Application
// procedures are registered the same way by the embedding service.
func registerProcedures(app *application) {
	app.server.Register("system.ping", func(ctx context.Context, req *rpc.Request) (*rpc.Response, error) {
		return &rpc.Response{Data: map[string]any{
			"status":  "ok",
			"version": version,
		}}, nil
	})
}

// run starts the servers and blocks until shutdown.
func run(app *application, configPath string, logger observability.Logger) {
	go func() {
		if err := app.server.Start(); err != nil {
			logger.Fatal("server error", observability.Error(err))
		}
	}()

	if app.metricsSrv != nil {
		go func() {
			if err := app.metricsSrv.Start(); err != nil {
				logger.Error("metrics server error", observability.Error(err))
			}
		}()
	}

	watcher := startConfigWatcher(app, configPath, logger)
	waitForShutdown(app, watcher, logger)
}

// startConfigWatcher starts the configuration watcher so rate limit
// parameters can be changed without a restart.
func startConfigWatcher(app *application, configPath string, logger observability.Logger) *config.Watcher {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	watcher, err := config.NewWatcher(configPath, func(newCfg *config.Config) {
		logger.Info("configuration changed, reloading")
		app.applyConfig(newCfg)
	}, config.WithLogger(logger))
	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
	}

	return watcher
}

// waitForShutdown waits for a shutdown signal and performs graceful shutdown.
func waitForShutdown(app *application, watcher *config.Watcher, logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", observability.String("signal", sig.String()))

	if watcher != nil {
		_ = watcher.Stop()
	}

	app.shutdown(app.config.ShutdownTimeout)

	logger.Info("omnichatd stopped")
}
