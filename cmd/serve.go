package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veriface/veriface/internal/config"
	"github.com/veriface/veriface/internal/encoder"
	"github.com/veriface/veriface/internal/index"
	"github.com/veriface/veriface/internal/liveness"
	"github.com/veriface/veriface/internal/logging"
	"github.com/veriface/veriface/internal/service"
	"github.com/veriface/veriface/internal/store"
	"github.com/veriface/veriface/internal/store/file"
	"github.com/veriface/veriface/internal/store/postgres"
	"github.com/veriface/veriface/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification server",
	Long: `Start the face verification HTTP server.
The server exposes enrollment (POST /register), verification (POST /verify)
and health (GET /health) endpoints. Enrollments are cached in memory and
synchronized to the configured durable store.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8000, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveEnvPort applies a WEB_PORT override. An unparsable or
// non-positive value is ignored with a warning rather than half-parsed.
func resolveEnvPort(log *zap.Logger, port int) int {
	envPort := os.Getenv("WEB_PORT")
	if envPort == "" {
		return port
	}
	p, err := strconv.Atoi(envPort)
	if err != nil || p <= 0 {
		log.Warn("ignoring invalid WEB_PORT", zap.String("value", envPort))
		return port
	}
	return p
}

// buildStore selects the durable backend from the configuration. The
// returned closer is nil for backends without a connection to release.
func buildStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, func() error, error) {
	switch cfg.Store.Backend {
	case "postgres":
		if cfg.Database.URL == "" {
			return nil, nil, errors.New("DATABASE_URL environment variable is required for the postgres backend")
		}
		pool, err := postgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("using PostgreSQL store", zap.Int("max_open_conns", cfg.Database.MaxOpenConns))
		return postgres.NewFaceStore(pool), pool.Close, nil
	case "file":
		log.Info("using file store", zap.String("path", cfg.Store.SnapshotPath))
		return file.New(cfg.Store.SnapshotPath), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// loadIndex rebuilds the in-memory index from the durable store. A load
// failure degrades to an empty index instead of refusing to start.
func loadIndex(ctx context.Context, st store.Store, cfg *config.Config, log *zap.Logger) *index.Index {
	idx := index.New()

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
	defer cancel()

	enrollments, err := st.LoadSnapshot(loadCtx)
	if os.IsNotExist(err) {
		log.Info("no enrollment snapshot yet, starting with empty index")
		return idx
	}
	if err != nil {
		log.Warn("failed to load enrollment snapshot, starting with empty index", zap.Error(err))
		return idx
	}

	idx.Replace(enrollments)
	log.Info("enrollment snapshot loaded",
		zap.Int("identities", idx.Identities()),
		zap.Int("vectors", len(enrollments)))
	return idx
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logging.New(debugLogging)
	defer log.Sync()

	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	port = resolveEnvPort(log, port)

	ctx := context.Background()

	st, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	idx := loadIndex(ctx, st, cfg, log)

	extractor := encoder.NewClient(cfg.Encoder.URL, cfg.Encoder.Dim, cfg.Encoder.Timeout)
	probeCtx, cancelProbe := context.WithTimeout(ctx, cfg.Encoder.Timeout)
	if err := extractor.Ready(probeCtx); err != nil {
		log.Warn("encoder not reachable, requests will fail until it comes up",
			zap.String("url", cfg.Encoder.URL),
			zap.Error(err))
	} else {
		log.Info("encoder ready", zap.String("url", cfg.Encoder.URL))
	}
	cancelProbe()

	gate := liveness.NewGate(cfg.Liveness.Threshold, cfg.Liveness.FailOpen)
	svc := service.New(cfg, log, gate, extractor, idx, st)
	server := web.NewServer(cfg, log, svc, port, host)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("error during shutdown", zap.Error(err))
		}
	}()

	log.Info("starting veriface server",
		zap.String("host", host),
		zap.Int("port", port),
		zap.Float64("match_threshold", cfg.Match.Threshold),
		zap.Float64("liveness_threshold", cfg.Liveness.Threshold),
		zap.String("store_backend", cfg.Store.Backend))

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
