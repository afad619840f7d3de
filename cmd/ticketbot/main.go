package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-bridge/internal/api/http"
	"github.com/spec-kit/ticket-bridge/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bridge/internal/auth"
	"github.com/spec-kit/ticket-bridge/internal/bot"
	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/events"
	"github.com/spec-kit/ticket-bridge/internal/export"
	"github.com/spec-kit/ticket-bridge/internal/observability"
	"github.com/spec-kit/ticket-bridge/internal/persistence"
	"github.com/spec-kit/ticket-bridge/internal/platform/discord"
	"github.com/spec-kit/ticket-bridge/internal/registry"
	"github.com/spec-kit/ticket-bridge/internal/relay"
	"github.com/spec-kit/ticket-bridge/internal/repository"
	"github.com/spec-kit/ticket-bridge/internal/service"
	"github.com/spec-kit/ticket-bridge/internal/worker"
)

func main() {
	envFile := pflag.String("env-file", "", "dotenv file to load before reading the environment (default ./.env)")
	migrationsDir := pflag.String("migrations-dir", persistence.DefaultMigrationsDir, "directory holding the SQL migrations")
	skipCommands := pflag.Bool("skip-command-sync", false, "do not overwrite the guild slash commands on start")
	pflag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), *migrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	if err := session.Open(); err != nil {
		logger.Fatal("failed to open discord gateway", zap.Error(err))
	}
	defer session.Close()

	guildName := bot.GuildName(session, cfg.Discord.GuildID)
	emoji := bot.EmojiMarkup(session, cfg.Discord.GuildID, cfg.Discord.PanelEmojiID)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	tickets := registry.New()
	gateway := discord.NewGateway(session, cfg.Discord.GuildID, logger)

	webhook, err := discord.NewWebhookSink(session, cfg.Tickets.LogsWebhookURL)
	if err != nil {
		logger.Fatal("invalid logs webhook", zap.Error(err))
	}
	pipelineDeps := export.PipelineDependencies{
		Primary:  webhook,
		Fallback: export.NewChannelSink(gateway, cfg.Tickets.LogsChannelID),
		Logger:   logger,
		Metrics:  metrics,
	}
	var archiveRepo repository.TranscriptArchiveRepository
	if pool := pg.PoolHandle(); pool != nil {
		archiveRepo = repository.NewTranscriptArchiveRepository(pool)
		pipelineDeps.Archive = export.NewRepositoryArchiver(archiveRepo)
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		Registry:    tickets,
		Gateway:     gateway,
		CommentRepo: repository.NewMemoryCommentRepository(),
		ArchiveRepo: archiveRepo,
		Pipeline:    export.NewPipeline(pipelineDeps),
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
		Config:      cfg.Tickets,
		GuildName:   guildName,
		BannerURL:   cfg.Discord.BannerURL,
		NoticeEmoji: emoji,
	})
	relayEngine := relay.NewEngine(relay.Dependencies{
		Registry:        tickets,
		Gateway:         gateway,
		Dispatcher:      dispatcher,
		Logger:          logger,
		Metrics:         metrics,
		CommandPrefixes: cfg.Tickets.CommandPrefixes,
	})
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, redis, cfg.Redis.EventsChannel, logger))

	bot.NewHandler(ticketService, relayEngine, logger, bot.Options{
		GuildID:   cfg.Discord.GuildID,
		GuildName: guildName,
		Emoji:     emoji,
		BannerURL: cfg.Discord.BannerURL,
		DetailMax: cfg.Tickets.DetailMaxLength,
		Timeout:   cfg.App.RequestTimeout(),
	}).Register(session)

	if !*skipCommands {
		if err := bot.SyncCommands(session, cfg.Discord.GuildID); err != nil {
			logger.Error("slash command sync failed", zap.Error(err))
		}
	}

	scheduler := worker.NewScheduler(logger)
	if err := scheduler.SchedulePresence(cfg.Discord.PresenceSchedule, cfg.Discord.PresenceText, bot.Presence{Session: session}); err != nil {
		logger.Fatal("invalid presence schedule", zap.Error(err))
	}
	scheduler.Start()

	var app *fiber.App
	if cfg.App.HTTPEnabled {
		app = fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
		httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
		httptransport.RegisterRoutes(app, httptransport.RouteConfig{
			Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
			Tickets:        handlers.NewTicketsHandler(ticketService),
			AuthMiddleware: auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)),
		})
		go func() {
			if err := app.Listen(cfg.App.Addr()); err != nil {
				logger.Fatal("fiber listen", zap.Error(err))
			}
		}()
	}

	logger.Info("ticket bridge ready",
		zap.String("guild_id", cfg.Discord.GuildID),
		zap.String("guild", guildName),
		zap.Bool("http", cfg.App.HTTPEnabled))

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	scheduler.Stop(shutdownCtx)
	if app != nil {
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
	}
	logger.Info("live tickets dropped on shutdown", zap.Int("count", tickets.Len()))
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
