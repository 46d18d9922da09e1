package cmd

import (
	"context"
	"fmt"
	"time"

	"helios/application"
	"helios/bot"
	"helios/config"
	"helios/database"
	"helios/domain/interfaces"
	"helios/domain/services"
	"helios/events"
	"helios/infrastructure"
	"helios/infrastructure/observability"
	"helios/repository"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	cfg.ConfigureLogging()
	log.Println("Starting helios bot...")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus, fanning out to NATS when enabled
	eventBus := events.NewBus()
	var publisher interfaces.EventPublisher = eventBus
	var natsClient *infrastructure.NATSClient
	if cfg.NATSEnabled {
		log.Printf("Connecting to NATS at %s...", cfg.NATSServers)
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			db.Close()
			return err
		}
		mapper := infrastructure.NewEventSubjectMapper(observability.MetricPrefix)
		if err := natsClient.EnsureStream(infrastructure.DomainEventStream, mapper.GetAllSubjects()); err != nil {
			natsClient.Close()
			db.Close()
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		publisher = infrastructure.NewNATSEventPublisher(natsClient, mapper, eventBus)
		log.Println("NATS event publishing enabled")
	}

	// Initialize unit of work factory
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, publisher)
	application.RegisterApplicationSubscriptions(eventBus, uowFactory)
	observability.RegisterEventMetrics(eventBus, metrics)

	lootPools, err := services.DefaultLootPools()
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to load loot pools: %w", err)
	}

	// Initialize Discord bot
	log.Println("Initializing Discord bot...")
	discordBot, err := bot.New(bot.Config{
		Token:   cfg.DiscordToken,
		GuildID: cfg.GuildID,
	}, bot.Deps{
		UoWFactory:   uowFactory,
		Repositories: repository.NewGuildRepositories(db),
		Publisher:    publisher,
		Cooldowns:    services.NewCooldowns(),
		LootPools:    lootPools,
		Metrics:      metrics,
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	if err := discordBot.Open(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to start Discord bot: %w", err)
	}
	log.Println("Discord bot initialized successfully")

	// Start background workers
	platform := discordBot.Platform()
	stops := []func(){
		application.NewDailyWorker(uowFactory, platform).Start(ctx, cfg.DailyResetHour),
		application.NewStoreWorker(uowFactory, platform).Start(ctx),
		application.NewThemeWorker(uowFactory, platform, platform, platform).Start(ctx, cfg.ThemeSortHour, cfg.ThemeSortMinute),
		application.NewViolationWorker(uowFactory, platform, platform).Start(ctx),
		application.NewVoiceActivityWorker(uowFactory, platform, platform).Start(ctx),
	}
	log.Info("Background workers started")

	// Wait for context cancellation
	log.Printf("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down bot...")
	for _, stop := range stops {
		stop()
	}
	log.Info("Background workers stopped")

	// Close Discord bot connection
	if err := discordBot.Close(); err != nil {
		log.Printf("Error closing Discord bot: %v", err)
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics: %v", err)
	}

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
