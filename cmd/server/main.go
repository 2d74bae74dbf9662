// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/tastemix/internal/api/connect"
	"github.com/osa030/tastemix/internal/api/profilev1/profilev1connect"
	"github.com/osa030/tastemix/internal/app/adapter"
	"github.com/osa030/tastemix/internal/app/profile"
	"github.com/osa030/tastemix/internal/app/scoring"
	"github.com/osa030/tastemix/internal/infra/config"
	"github.com/osa030/tastemix/internal/infra/logger"
	"github.com/osa030/tastemix/internal/infra/store"
)

var (
	app        = kingpin.New("tastemix-server", "tastemix taste profile server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	logFormat  = app.Flag("log-format", "Log format: console or json").Enum("console", "json")

	// list-users command
	listUsersCmd = app.Command("list-users", "List configured users and their services, then exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output:    "stdout",
		Level:     "info",
		Format:    *logFormat,
		Component: "server",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == listUsersCmd.FullCommand() {
		printUsers(cfg)
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	profiles, err := store.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open profile store: %w", err)
	}
	defer func() {
		if err := profiles.Close(); err != nil {
			zlog.Error().Msgf("Failed to close profile store: %v", err)
		}
	}()
	zlog.Info().Msgf("Profile store opened: driver=%s", cfg.Storage.Driver)

	registry, err := adapter.NewRegistryFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create connections: %w", err)
	}
	zlog.Info().Msgf("Connections registered: users=%d", len(registry.Users()))

	assembler := profile.NewAssembler(cfg.WeightTable(), scoring.DefaultPolicy(), profile.Limits{
		Tracks:  cfg.Engine.TopTracks,
		Artists: cfg.Engine.TopArtists,
		Genres:  cfg.Engine.TopGenres,
	})
	profileSvc := profile.NewService(registry, profiles, assembler, profile.Config{
		FetchTimeout:       cfg.Engine.FetchTimeout,
		BreakerMaxFailures: cfg.Engine.Breaker.MaxFailures,
		BreakerOpenTimeout: cfg.Engine.Breaker.OpenTimeout,
	})

	mux := http.NewServeMux()
	path, handler := profilev1connect.NewProfileServiceHandler(
		apiconnect.NewProfileService(profileSvc),
		connect.WithInterceptors(apiconnect.NewAPITokenInterceptor(cfg.Server.APIToken)),
	)
	mux.Handle(path, handler)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}

// printUsers prints configured users.
func printUsers(cfg *config.Config) {
	fmt.Println("Configured Users:")
	for _, u := range cfg.Users {
		services := make([]string, 0, len(u.Connections))
		for _, c := range u.Connections {
			services = append(services, c.Service)
		}
		fmt.Printf("  %-20s primary=%-12s services=%v\n", u.ID, u.Primary, services)
	}
}
