package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-agrisense/config"
	"go-agrisense/dao"
	"go-agrisense/middleware"
	"go-agrisense/predictor"
	"go-agrisense/routes"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newServerCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newServerCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:           "agrisense-server",
		Short:         "AgriSense crop recommendation API server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), configFile)
		},
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "path to agrisense.yaml")
	return cmd
}

// runServer 阻塞直到 ctx 结束，随后优雅关闭
func runServer(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	deps, closeDB, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer closeDB()

	// 设置路由
	r := routes.SetupRouter(deps)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.HeaderRequestID},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("driver", cfg.Database.Driver))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

// buildDependencies 根据 database.driver 选择 MySQL 或内存存储
func buildDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (routes.Dependencies, func(), error) {
	metrics, err := middleware.NewMetrics()
	if err != nil {
		return routes.Dependencies{}, nil, err
	}
	deps := routes.Dependencies{
		Recommender: predictor.NewService(nil),
		Tokens:      middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Metrics:     metrics,
		Logger:      logger,
	}

	if cfg.Database.Driver == "memory" {
		logger.Warn("using in-memory storage, data is lost on restart")
		mem := dao.NewMemory()
		deps.Users, deps.Profiles = mem.Users, mem.Profiles
		deps.Predictions, deps.Detections = mem.Predictions, mem.Detections
		deps.Records, deps.DetectionRecorder = mem.Predictions, mem.Detections
		return deps, func() {}, nil
	}

	db, err := config.OpenDB(ctx, cfg.Database, logger)
	if err != nil {
		return routes.Dependencies{}, nil, err
	}
	deps.Users = dao.NewUserDAO(db)
	deps.Profiles = dao.NewProfileDAO(db)
	predictions := dao.NewPredictionDAO(db)
	deps.Predictions, deps.Records = predictions, predictions
	detections := dao.NewDetectionDAO(db)
	deps.Detections, deps.DetectionRecorder = detections, detections
	return deps, func() { closeQuietly(db, logger) }, nil
}

func closeQuietly(db *sql.DB, logger *zap.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("close database", zap.Error(err))
	}
}
