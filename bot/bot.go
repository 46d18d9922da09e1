package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"helios/application"
	"helios/bot/features/admin"
	"helios/bot/features/blackjack"
	"helios/bot/features/economy"
	"helios/bot/features/inventory"
	"helios/bot/features/music"
	"helios/bot/features/settings"
	"helios/bot/features/shop"
	"helios/bot/features/violations"
	"helios/bot/features/voice"
	"helios/bot/guilds"
	"helios/domain/interfaces"
	"helios/domain/services"
	"helios/effects"
	"helios/infrastructure/observability"
	"helios/repository"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string
}

// Deps are the shared components the bot is built from
type Deps struct {
	UoWFactory   application.UnitOfWorkFactory
	Repositories *repository.GuildRepositories
	Publisher    interfaces.EventPublisher
	Cooldowns    *services.Cooldowns
	LootPools    map[string]*services.LootPool
	Metrics      *observability.MetricsProvider
}

// commandHandler is a feature that serves slash commands
type commandHandler interface {
	HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// Bot manages the Discord bot and all feature modules
type Bot struct {
	// Core components
	config      Config
	session     *discordgo.Session
	deps        Deps
	serviceDeps application.ServiceDeps
	platform    *Platform
	engine      *effects.Engine
	registry    *guilds.Registry

	// Feature modules
	economy    *economy.Feature
	inventory  *inventory.Feature
	shop       *shop.Feature
	violations *violations.Feature
	voice      *voice.Feature
	music      *music.Feature
	blackjack  *blackjack.Feature
	admin      *admin.Feature
	settings   *settings.Feature

	// invite use counts per guild, for matching joins to PUG invites
	invitesMu sync.Mutex
	invites   map[string]map[string]int

	stopEngine func()
}

// New creates a new bot instance with all features. The session is not
// opened until Open.
func New(config Config, deps Deps) (*Bot, error) {
	// Create Discord session
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll

	// Create shared components
	platform := NewPlatform(dg)
	serviceDeps := application.ServiceDeps{
		Cooldowns: deps.Cooldowns,
		Notifier:  platform,
		Members:   platform,
		LootPools: deps.LootPools,
	}
	engine := effects.NewEngine(
		deps.Repositories.EffectRepository(),
		effects.DefaultBehaviors(platform, platform),
		platform,
		deps.Publisher,
	)
	registry := guilds.NewRegistry(platform, deps.Repositories, deps.Cooldowns, deps.Publisher, deps.Metrics)

	bot := &Bot{
		config:      config,
		session:     dg,
		deps:        deps,
		serviceDeps: serviceDeps,
		platform:    platform,
		engine:      engine,
		registry:    registry,
		invites:     make(map[string]map[string]int),
	}

	// Create feature modules
	bot.economy = economy.NewFeature(dg, deps.UoWFactory, serviceDeps)
	bot.inventory = inventory.NewFeature(dg, deps.UoWFactory, serviceDeps)
	bot.shop = shop.NewFeature(dg, deps.UoWFactory, serviceDeps, application.NewEffectShop(deps.UoWFactory, engine, serviceDeps))
	bot.violations = violations.NewFeature(dg, deps.UoWFactory, serviceDeps)
	bot.voice = voice.NewFeature(dg, deps.UoWFactory, registry, platform)
	bot.music = music.NewFeature(dg, registry, platform)
	bot.blackjack = blackjack.NewFeature(dg, deps.UoWFactory, deps.Repositories, deps.Publisher)
	bot.admin = admin.NewFeature(dg, deps.UoWFactory, serviceDeps)
	bot.settings = settings.NewFeature(dg, deps.UoWFactory, serviceDeps, registry)

	return bot, nil
}

// Open connects to Discord, registers commands and starts the effects engine
func (b *Bot) Open(ctx context.Context) error {
	// Register handlers
	b.session.AddHandler(b.handleCommands)
	b.session.AddHandler(b.handleInteractions)
	b.session.AddHandler(b.handleGuildCreate)
	b.session.AddHandler(b.handleMessageCreate)
	b.session.AddHandler(b.handleVoiceStateUpdate)
	b.session.AddHandler(b.handleGuildMemberAdd)

	// Open websocket connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}

	loaded, err := b.engine.FetchAll(ctx)
	if err != nil {
		b.session.Close()
		return fmt.Errorf("error loading effects: %w", err)
	}
	b.stopEngine = b.engine.Start(ctx)
	log.WithField("effects", loaded).Info("Effects engine started")
	return nil
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	if b.stopEngine != nil {
		b.stopEngine()
	}
	b.registry.Close()
	log.Info("Guild runtimes stopped")

	return b.session.Close()
}

// Platform returns the Discord adapter used by the domain
func (b *Bot) Platform() *Platform {
	return b.platform
}

// commandRoutes maps each slash command to the feature serving it
func (b *Bot) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"points":      b.economy,
		"leaderboard": b.economy,
		"daily":       b.economy,
		"transfer":    b.economy,
		"stats":       b.economy,
		"inventory":   b.inventory,
		"lootcrate":   b.inventory,
		"store":       b.shop,
		"effect":      b.shop,
		"use":         b.shop,
		"violations":  b.violations,
		"voice":       b.voice,
		"pug":         b.voice,
		"groups":      b.voice,
		"music":       b.music,
		"ingame":      b.music,
		"blackjack":   b.blackjack,
		"admin":       b.admin,
		"settings":    b.settings,
		"theme":       b.settings,
	}
}

// handleCommands routes slash commands to appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.Member == nil {
		// commands are guild only
		return
	}
	b.deps.Metrics.RecordMessageRead(observability.MessageTypeCommand)

	name := i.ApplicationCommandData().Name
	handler, ok := b.commandRoutes()[name]
	if !ok {
		log.Warnf("Unknown command: %s", name)
		return
	}
	handler.HandleCommand(s, i)
}

// handleInteractions routes component interactions to appropriate features
func (b *Bot) handleInteractions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	b.deps.Metrics.RecordMessageRead(observability.MessageTypeInteraction)
	b.routeComponentInteraction(s, i, i.MessageComponentData().CustomID)
}

// routeComponentInteraction routes button interactions
func (b *Bot) routeComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	switch {
	case strings.HasPrefix(customID, "blackjack_"):
		b.blackjack.HandleInteraction(s, i)
	}
}
