package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/blog"
	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/routes"
	"github.com/cppla/blogicum/utils"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "blogicum",
	Short:         "Blogicum blogging platform",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and serve the HTTP API",
	RunE:  runServe,
}

// migrateCmd only applies schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the JSON config file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, initializes the logger and opens a migrated database.
func bootstrap() (config.AppConfig, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	if err := utils.InitLogger(cfg); err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return cfg, nil, err
	}
	if err := config.Migrate(db, models.All()...); err != nil {
		return cfg, nil, err
	}
	return cfg, db, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer utils.Logger.Sync() //nolint:errcheck
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	utils.Logger.Info("database migrated")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer utils.Logger.Sync() //nolint:errcheck

	if rc := utils.InitRedis(cfg); rc != nil {
		defer rc.Close()
	}
	utils.InitCaptchaStore()

	media := utils.NewMediaDir(cfg.MediaRoot, cfg.MaxImageSizeMB)
	svc := blog.NewService(db, cfg.Blog,
		blog.WithMedia(media),
		blog.WithLogger(utils.Logger.Named("blog")),
	)
	r := routes.SetupRouter(db, cfg, svc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	utils.Logger.Info("starting server", zap.String("port", cfg.AppPort), zap.String("db_driver", cfg.DBDriver), zap.String("media_root", media.Root()))
	if err := utils.NewGraceServer(":"+cfg.AppPort, r, utils.Logger).Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
