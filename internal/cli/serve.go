package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/charabot/internal/blob"
	"github.com/rcliao/charabot/internal/bot"
	"github.com/rcliao/charabot/internal/character"
	"github.com/rcliao/charabot/internal/config"
	"github.com/rcliao/charabot/internal/i18n"
	"github.com/rcliao/charabot/internal/server"
	"github.com/rcliao/charabot/internal/workflow"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot and the health endpoint",
		Long:  "Connect to the Discord gateway and serve slash commands until SIGINT or SIGTERM. The HTTP listener on $PORT answers health checks and exposes metrics.",
		Run:   runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if err := cfg.RequireDiscord(); err != nil {
		exitErr("config", err)
	}
	if err := cfg.RequireGoogle(); err != nil {
		exitErr("config", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		exitErr("create logger", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := openRecords(ctx, cfg)
	if err != nil {
		logErr(logger, "open store", err)
	}
	defer records.Close()

	images, err := blob.NewDrive(ctx, blob.DriveOptions{ParentCacheTTL: cfg.ParentCacheTTL}, cfg.GoogleOptions()...)
	if err != nil {
		logErr(logger, "open drive", err)
	}

	catalog, err := i18n.Load(cfg.DefaultLocale)
	if err != nil {
		logErr(logger, "load catalogs", err)
	}
	if missing := catalog.Missing(); len(missing) > 0 {
		logger.Warn("untranslated messages", zap.Strings("keys", missing))
	}

	svc := character.NewService(records, images, character.Options{
		FolderID: cfg.DriveFolderID,
		Logger:   logger.Named("character"),
	})
	prompts := workflow.NewManager[bot.ComponentResponder](cfg.PromptTimeout)

	dispatcher := bot.NewDispatcher(catalog, logger.Named("dispatch"))
	bot.NewHandlers(svc, prompts, catalog, logger.Named("handlers")).Register(dispatcher)
	router := bot.NewComponentRouter(prompts, catalog, logger.Named("components"))

	b, err := bot.New(cfg.DiscordToken, dispatcher, router, logger.Named("bot"))
	if err != nil {
		logErr(logger, "create bot", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.New(cfg.Port, logger.Named("http")).Run(ctx)
	})
	g.Go(func() error {
		if err := b.Open(); err != nil {
			return err
		}
		logger.Info("gateway connected", zap.String("backend", cfg.StoreBackend))
		<-ctx.Done()
		return b.Close()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logErr(logger, "serve", err)
	}
	logger.Info("shut down")
}
