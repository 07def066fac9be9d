package main

import (
	"context"
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

	"github.com/xxxsen/marksync/internal/assets"
	"github.com/xxxsen/marksync/internal/config"
	"github.com/xxxsen/marksync/internal/filestore"
	"github.com/xxxsen/marksync/internal/format"
	"github.com/xxxsen/marksync/internal/handler"
	"github.com/xxxsen/marksync/internal/job"
	"github.com/xxxsen/marksync/internal/schedule"
	"github.com/xxxsen/marksync/internal/source"
	"github.com/xxxsen/marksync/internal/state"
	"github.com/xxxsen/marksync/internal/syncer"
	"github.com/xxxsen/marksync/internal/target"
)

type app struct {
	cfg       *config.Config
	repo      *state.Repo
	engine    *syncer.Engine
	formatter *format.Formatter
	archive   filestore.Store
}

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "marksync",
		Short: "one-way bookmark to document store synchronizer",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "run a single sync pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(configPath)
			if err != nil {
				return err
			}
			summary, err := a.engine.Run(cmd.Context())
			if summary != nil {
				fmt.Println(summary.Message)
			}
			return err
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the sync daemon with periodic trigger and admin api",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(configPath)
			if err != nil {
				return err
			}
			return runDaemon(a)
		},
	}

	rootCmd.AddCommand(syncCmd, runCmd)
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func setup(configPath string) (*app, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
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

	db, err := state.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	repo := state.NewRepo(db)

	var archive filestore.Store
	if cfg.Archive.Enable {
		archive, err = filestore.New(cfg.Archive.FileStore)
		if err != nil {
			return nil, fmt.Errorf("init archive store: %w", err)
		}
	}

	client := &http.Client{}
	store := target.NewHTTPStore(cfg.Target, client)
	pipeline := assets.NewPipeline(assets.Options{
		Client:       client,
		Store:        store,
		Archive:      archive,
		SourceOrigin: source.Origin(cfg.Source.Endpoint),
		APIKey:       cfg.Source.APIKey,
		CollectionID: cfg.Target.CollectionID,
		AssetDir:     cfg.Target.AssetDir,
	})
	formatter := format.New(pipeline, format.NewMarkdownConverter(), cfg.Source.Endpoint, cfg.Sync)
	engine := syncer.New(source.New(cfg.Source, client), store, formatter, repo, cfg)

	return &app{cfg: cfg, repo: repo, engine: engine, formatter: formatter, archive: archive}, nil
}

func runDaemon(a *app) error {
	cfg := a.cfg
	logutil.GetLogger(context.Background()).Info(
		"starting daemon",
		zap.Int("port", cfg.Port),
		zap.String("db_path", cfg.DBPath),
		zap.Int("interval_minutes", cfg.Sync.IntervalMinutes),
	)

	// The preview endpoint must never touch the target store, so it gets
	// its own formatter with downloads disabled.
	previewCfg := cfg.Sync
	previewCfg.DownloadAssets = false
	previewFormatter := format.New(nil, format.NewMarkdownConverter(), cfg.Source.Endpoint, previewCfg)

	deps := handler.RouterDeps{
		Sync:       handler.NewSyncHandler(a.engine, a.repo),
		Preview:    handler.NewPreviewHandler(previewFormatter),
		Files:      handler.NewFileHandler(a.archive),
		AdminToken: cfg.AdminToken,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewIntervalScheduler()
	interval := time.Duration(cfg.Sync.IntervalMinutes) * time.Minute
	if err := scheduler.Every(interval, job.NewSyncJob(a.engine)); err != nil {
		return fmt.Errorf("schedule sync job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()
	logutil.GetLogger(context.Background()).Info("admin api listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("daemon stopping...")
	return nil
}
