// Command fosd runs the file-operation service: a single cobra.Command,
// grounded on the pack's own cmd/wave/main.go for the root-command shape
// (persistent flags declared in init, Execute in main), adapted from a
// multi-subcommand orchestrator down to the single daemon command this
// service needs.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/config"
	fslog "github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/log"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/lock"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/operations"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/rc"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/rc/rcserver"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "fosd",
	Short:   "File Operation Service daemon",
	Long:    "fosd exposes JSON-RPC file operations over HTTP, coordinating cross-process appends through a Redis-compatible lock service.",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	RunE:    run,
}

func init() {
	rootCmd.SetVersionTemplate("fosd version {{.Version}}\n")

	flags := rootCmd.Flags()
	flags.String("root-dir", "", "directory all file operations are confined to (required)")
	flags.String("redis-host", "", "coordinator host (required)")
	flags.String("redis-port", "", "coordinator port (required)")
	flags.String("redis-password", "", "coordinator password (required)")
	flags.String("bind-addr", "", "HTTP listen address, e.g. :8080")
	flags.String("rpc-path", "", "JSON-RPC endpoint path")
	flags.String("health-path", "", "health check endpoint path")
	flags.String("metrics-path", "", "Prometheus metrics endpoint path")
	flags.String("log-format", "text", "log output format: text or json")
	flags.String("log-level", "info", "minimum log level")
	flags.String("properties-file", os.Getenv("FOS_PROPERTIES"), "path to a fos.*=value property file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	src := config.Source{
		Args:   args,
		Flags:  collectFlags(flags),
		Getenv: os.Getenv,
	}
	if p, _ := flags.GetString("properties-file"); p != "" {
		src.PropertiesPath = p
	}

	cfg, err := config.Load(src)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	format, err := fslog.ParseFormat(mustString(flags, "log-format"))
	if err != nil {
		return err
	}
	level, err := fslog.ParseLevel(mustString(flags, "log-level"))
	if err != nil {
		return err
	}
	logger := fslog.New(os.Stderr, format, level)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		PoolSize:     100,
		MinIdleConns: 10,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	defer func() { _ = redisClient.Close() }()

	coordinator := lock.NewCoordinator(
		redisClient,
		lock.WithTTL(cfg.LeaseTTL),
		lock.WithMaxAttempts(cfg.MaxAttempts),
		lock.WithRetryBase(cfg.RetryBase),
	)

	deps := &operations.Deps{
		Root:        fos.NewRoot(cfg.RootDir),
		Coordinator: coordinator,
		Logger:      logger,
	}

	registry := rc.NewRegistry()
	rc.RegisterMethods(registry, deps)

	serverCfg := rcserver.Config{
		RPCPath:      cfg.RPCPath,
		HealthPath:   cfg.HealthPath,
		MetricsPath:  cfg.MetricsPath,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
	server := rcserver.New(serverCfg, registry, rcserver.RedisPinger{Client: redisClient}, logger)

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fosd listening", "addr", cfg.BindAddr, "root", cfg.RootDir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

func collectFlags(flags *pflag.FlagSet) map[string]string {
	out := map[string]string{}
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed && f.Value.String() != "" {
			out[f.Name] = f.Value.String()
		}
	})
	return out
}

func mustString(flags *pflag.FlagSet, name string) string {
	v, _ := flags.GetString(name)
	return v
}
