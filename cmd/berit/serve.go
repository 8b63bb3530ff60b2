package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codyseavey/berit/internal/api"
	"github.com/codyseavey/berit/internal/cardindex"
	"github.com/codyseavey/berit/internal/commands"
	"github.com/codyseavey/berit/internal/database"
	"github.com/codyseavey/berit/internal/services"
)

var (
	serveToken     string
	serveNoDiscord bool
)

// startChatBot is replaced in tests.
var startChatBot = startBot

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the card list and answer chat queries",
	Long: `Downloads the Scryfall card list, builds the lookup index and then
connects to Discord. The HTTP API and /metrics are served alongside unless
http.port is empty.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveToken, "token", "", "Discord bot token (overrides DISCORD_TOKEN)")
	serveCmd.Flags().BoolVar(&serveNoDiscord, "no-discord", false, "serve only the HTTP API")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveToken != "" {
		cfg.Discord.Token = serveToken
	}
	if err := cfg.Validate(!serveNoDiscord); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Two instances in one channel would answer every query twice
	lock := flock.New(cfg.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("cannot acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another berit instance is running (lock: %s)", cfg.LockPath)
	}
	defer func() { _ = lock.Unlock() }()

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	go func() {
		select {
		case <-quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Nothing is served until the whole index is built
	index, err := loadIndex(ctx, cfg)
	if err != nil {
		return err
	}

	matcher, err := cardindex.NewMatcher(index, cfg.Index.CacheSize)
	if err != nil {
		return err
	}
	selector := cardindex.NewSelector(index)

	var (
		statsService *services.LookupStatsService
		recorder     commands.Recorder
	)
	statsDone := make(chan struct{})
	if cfg.Database.Path != "" {
		db, err := database.Initialize(cfg.Database.Path, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.PruneLookups(db, cfg.Database.NotFoundRetention, logger); err != nil {
			logger.Warn("Failed to prune lookup stats", zap.Error(err))
		}
		statsService = services.NewLookupStatsService(db, cfg.Database.QueueSize, cfg.Database.FlushInterval, logger)
		recorder = statsService
		go func() {
			defer close(statsDone)
			statsService.Start(ctx)
		}()
	} else {
		close(statsDone)
	}

	dispatcher := commands.NewDispatcher(matcher, selector, cfg.Keywords, recorder, logger)

	var srv *http.Server
	if cfg.HTTP.Port != "" {
		gin.SetMode(gin.ReleaseMode)
		router := api.SetupRouter(dispatcher, index, matcher, selector, statsService, cfg.HTTP.AllowedOrigins)
		srv = &http.Server{
			Addr:    ":" + cfg.HTTP.Port,
			Handler: router,
		}
		go func() {
			logger.Info("Starting HTTP server", zap.String("port", cfg.HTTP.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", zap.Error(err))
				cancel()
			}
		}()
	}

	// A bot that fails to start stops everything else through the normal
	// shutdown below.
	var (
		bot    *services.ChatBot
		runErr error
	)
	if !serveNoDiscord {
		bot, runErr = startChatBot(dispatcher)
		if runErr != nil {
			logger.Error("Failed to start discord bot", zap.Error(runErr))
			cancel()
		} else {
			logger.Info("Listening for card queries", zap.Strings("channels", cfg.Discord.Channels))
		}
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	if bot != nil {
		if err := bot.Close(); err != nil {
			logger.Warn("Failed to close discord session", zap.Error(err))
		}
	}

	if srv != nil {
		// Give outstanding requests a deadline to complete
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server forced to shutdown", zap.Error(err))
		}
	}

	<-statsDone
	logger.Info("Server exited")
	return runErr
}

func startBot(dispatcher *commands.Dispatcher) (*services.ChatBot, error) {
	bot, err := services.NewChatBot(cfg.Discord.Token, dispatcher, cfg.Discord.Channels, cfg.Discord.MessageLimit, logger)
	if err != nil {
		return nil, err
	}
	if err := bot.Open(); err != nil {
		return nil, err
	}
	return bot, nil
}
