package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/notaflow/notaflow/internal/config"
	"github.com/notaflow/notaflow/internal/db"
	"github.com/notaflow/notaflow/internal/filestore"
	"github.com/notaflow/notaflow/internal/handler"
	"github.com/notaflow/notaflow/internal/job"
	"github.com/notaflow/notaflow/internal/middleware"
	"github.com/notaflow/notaflow/internal/repo"
	"github.com/notaflow/notaflow/internal/schedule"
	"github.com/notaflow/notaflow/internal/service"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the notaflow server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	return cmd
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(conn)
	noteRepo := repo.NewNoteRepo(conn)
	profileRepo := repo.NewProfileRepo(conn)
	imageRepo := repo.NewImageRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	authService := service.NewAuthService(userRepo, profileRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	noteService := service.NewNoteService(noteRepo)
	profileService := service.NewProfileService(profileRepo, store, cfg.PublicURL)
	imageService := service.NewImageService(imageRepo, store, cfg.PublicURL)
	exportService := service.NewExportService(noteRepo)

	deps := handler.RouterDeps{
		Auth:           handler.NewAuthHandler(authService),
		Notes:          handler.NewNoteHandler(noteService),
		Profiles:       handler.NewProfileHandler(profileService),
		Images:         handler.NewImageHandler(imageService),
		Files:          handler.NewFileHandler(store),
		Export:         handler.NewExportHandler(exportService),
		JWTSecret:      []byte(cfg.JWTSecret),
		AuthRateWindow: time.Duration(cfg.RateLimit.AuthWindowSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// both maintenance jobs share the purge spec; jitter staggers them
	sched := schedule.NewCronScheduler(schedule.WithJitter(time.Minute))
	purge := job.NewNotePurgeJob(noteRepo, time.Duration(cfg.Purge.RetentionDays)*24*time.Hour)
	if err := sched.AddJob(purge, cfg.Purge.Cron); err != nil {
		return fmt.Errorf("schedule purge job: %w", err)
	}
	sweep := job.NewImageSweepJob(imageRepo, store)
	if err := sched.AddJob(sweep, cfg.Purge.Cron); err != nil {
		return fmt.Errorf("schedule image sweep job: %w", err)
	}
	sched.Start(ctx)
	defer sched.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
