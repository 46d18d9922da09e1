package bot

import (
	"fmt"

	"helios/domain/entities"
	"helios/domain/services"

	"github.com/bwmarrin/discordgo"
)

var adminPermission int64 = discordgo.PermissionAdministrator

func option(kind discordgo.ApplicationCommandOptionType, name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        kind,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func subcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

func withChoices(opt *discordgo.ApplicationCommandOption, values ...string) *discordgo.ApplicationCommandOption {
	for _, v := range values {
		opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v})
	}
	return opt
}

func channelOption(description string, types ...discordgo.ChannelType) *discordgo.ApplicationCommandOption {
	opt := option(discordgo.ApplicationCommandOptionChannel, "channel", description, false)
	opt.ChannelTypes = types
	return opt
}

func statisticOption(required bool) *discordgo.ApplicationCommandOption {
	return withChoices(option(discordgo.ApplicationCommandOptionString, "statistic", "Statistic to rank by", required),
		entities.StatPoints,
		entities.StatMessages,
		entities.StatVoiceTime,
		entities.StatAloneTime,
		entities.StatGameTime,
		entities.StatBlackjackWins,
	)
}

func groupOptions(edit bool) []*discordgo.ApplicationCommandOption {
	var opts []*discordgo.ApplicationCommandOption
	if edit {
		opts = append(opts, option(discordgo.ApplicationCommandOptionInteger, "id", "Group id from /groups list", true))
	}
	return append(opts,
		option(discordgo.ApplicationCommandOptionString, "name", "Group name", !edit),
		option(discordgo.ApplicationCommandOptionInteger, "min", "Channels that always exist", false),
		option(discordgo.ApplicationCommandOptionInteger, "min_empty", "Empty channels to keep available", false),
		option(discordgo.ApplicationCommandOptionInteger, "max", "Most channels the group may have", false),
		option(discordgo.ApplicationCommandOptionString, "template", "Channel name, {n} is the number", false),
		option(discordgo.ApplicationCommandOptionString, "game_template", "Name while a game is played, with {n} and {g}", false),
	)
}

// commandDefinitions lists every slash command the bot serves
func commandDefinitions() []*discordgo.ApplicationCommand {
	userOpt := func(description string, required bool) *discordgo.ApplicationCommandOption {
		return option(discordgo.ApplicationCommandOptionUser, "user", description, required)
	}
	itemNames := make([]string, 0, len(services.ItemEffects))
	for _, name := range []string{entities.ItemShield, entities.ItemDeflector, entities.ItemBubble, entities.ItemMuteToken, entities.ItemDeafenToken} {
		if _, ok := services.ItemEffects[name]; ok {
			itemNames = append(itemNames, name)
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "points",
			Description: "Check a points balance",
			Options:     []*discordgo.ApplicationCommandOption{userOpt("Member to check, yourself by default", false)},
		},
		{
			Name:        "leaderboard",
			Description: "Show the top members",
			Options:     []*discordgo.ApplicationCommandOption{statisticOption(false)},
		},
		{
			Name:        "daily",
			Description: "Claim your daily points",
		},
		{
			Name:        "transfer",
			Description: "Give points to another member",
			Options: []*discordgo.ApplicationCommandOption{
				userOpt("Member receiving the points", true),
				option(discordgo.ApplicationCommandOptionInteger, "amount", "Points to give", true),
			},
		},
		{
			Name:        "stats",
			Description: "Show activity statistics",
			Options:     []*discordgo.ApplicationCommandOption{userOpt("Member to show, yourself by default", false)},
		},
		{
			Name:        "inventory",
			Description: "List the items you own",
		},
		{
			Name:        "lootcrate",
			Description: "Open a loot crate",
		},
		{
			Name:        "store",
			Description: "Browse and buy from the store",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("show", "Show the current stock"),
				subcommand("buy", "Buy an item",
					option(discordgo.ApplicationCommandOptionString, "item", "Item name", true),
					option(discordgo.ApplicationCommandOptionInteger, "quantity", "How many to buy", false),
				),
			},
		},
		{
			Name:        "effect",
			Description: "Buy an effect",
			Options: []*discordgo.ApplicationCommandOption{
				withChoices(option(discordgo.ApplicationCommandOptionString, "kind", "Effect to buy", true),
					string(entities.EffectMute),
					string(entities.EffectDeafen),
					string(entities.EffectShield),
					string(entities.EffectDeflector),
					string(entities.EffectChannelShield),
				),
				option(discordgo.ApplicationCommandOptionString, "duration", "How long, like 30s or 2h", true),
				userOpt("Target of a mute or deafen", false),
			},
		},
		{
			Name:        "use",
			Description: "Use an item from your inventory",
			Options: []*discordgo.ApplicationCommandOption{
				withChoices(option(discordgo.ApplicationCommandOptionString, "item", "Item to use", true), itemNames...),
				userOpt("Target of a mute or deafen token", false),
			},
		},
		{
			Name:        "violations",
			Description: "View and pay violations",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("list", "List violations", userOpt("Member to check, yourself by default", false)),
				subcommand("pay", "Pay a violation",
					option(discordgo.ApplicationCommandOptionInteger, "id", "Violation id", true),
				),
			},
		},
		{
			Name:        "voice",
			Description: "Manage your dynamic voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("lock", "Take ownership of your channel"),
				subcommand("unlock", "Give up ownership of your channel"),
				subcommand("save", "Save who is in your channel as a template",
					option(discordgo.ApplicationCommandOptionString, "name", "Template name", true),
					option(discordgo.ApplicationCommandOptionBoolean, "private", "Hide the channel from everyone else", false),
				),
				subcommand("apply", "Apply a template to your channel",
					option(discordgo.ApplicationCommandOptionString, "name", "Template name", true),
				),
				subcommand("allow", "Allow a member in a template",
					option(discordgo.ApplicationCommandOptionString, "name", "Template name", true),
					userOpt("Member to allow", true),
				),
				subcommand("deny", "Deny a member in a template",
					option(discordgo.ApplicationCommandOptionString, "name", "Template name", true),
					userOpt("Member to deny", true),
				),
				subcommand("forget", "Delete a template",
					option(discordgo.ApplicationCommandOptionString, "name", "Template name", true),
				),
				subcommand("templates", "List your templates"),
			},
		},
		{
			Name:        "pug",
			Description: "Run a pick-up group in your channel",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("create", "Turn your channel into a pick-up group"),
				subcommand("add", "Add a member to the group",
					userOpt("Member to add", true),
					option(discordgo.ApplicationCommandOptionBoolean, "temporary", "Remove them when the group ends", false),
				),
				subcommand("remove", "Remove a member from the group", userOpt("Member to remove", true)),
				subcommand("disband", "End the group"),
			},
		},
		{
			Name:                     "groups",
			Description:              "Configure dynamic voice groups (admin only)",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("list", "List the groups"),
				subcommand("create", "Create a group", groupOptions(false)...),
				subcommand("edit", "Change a group", groupOptions(true)...),
				subcommand("delete", "Delete a group and its channels",
					option(discordgo.ApplicationCommandOptionInteger, "id", "Group id", true),
				),
				subcommand("reset", "Delete every group and channel"),
			},
		},
		{
			Name:        "music",
			Description: "Book the bot's voice connection",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("book", "Book the bot for your voice channel",
					option(discordgo.ApplicationCommandOptionString, "duration", "How long, like 45m", false),
					option(discordgo.ApplicationCommandOptionString, "minimum", "Shortest booking you accept", false),
				),
				subcommand("schedule", "Show upcoming bookings"),
				subcommand("stop", "End the current booking (admin only)"),
			},
		},
		{
			Name:        "ingame",
			Description: "Bring the bot into your voice channel now",
			Options: []*discordgo.ApplicationCommandOption{
				option(discordgo.ApplicationCommandOptionString, "duration", "How long, like 45m", false),
			},
		},
		{
			Name:        "blackjack",
			Description: "Join the blackjack table in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				option(discordgo.ApplicationCommandOptionInteger, "bet", "Points to bet", true),
			},
		},
		{
			Name:                     "admin",
			Description:              "Moderator tools (admin only)",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("points", "Add or remove points",
					userOpt("Member", true),
					option(discordgo.ApplicationCommandOptionInteger, "amount", "Points, negative to remove", true),
					option(discordgo.ApplicationCommandOptionString, "reason", "Ledger reason", false),
				),
				subcommand("violation", "Issue a violation",
					userOpt("Member", true),
					option(discordgo.ApplicationCommandOptionInteger, "cost", "Points owed", true),
					option(discordgo.ApplicationCommandOptionString, "description", "What happened", false),
				),
				subcommand("flag", "Toggle bot admin rights", userOpt("Member", true)),
				subcommand("restock", "Restock the store now"),
			},
		},
		{
			Name:                     "settings",
			Description:              "Configure guild settings (admin only)",
			DefaultMemberPermissions: &adminPermission,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("show", "Show the current settings"),
				subcommand("announcement", "Channel for announcements", channelOption("Leave empty to clear", discordgo.ChannelTypeGuildText)),
				subcommand("court", "Channel for violation notices", channelOption("Leave empty to clear", discordgo.ChannelTypeGuildText)),
				subcommand("afk", "AFK voice channel", channelOption("Leave empty to clear", discordgo.ChannelTypeGuildVoice)),
				subcommand("music", "Default music channel", channelOption("Leave empty to clear", discordgo.ChannelTypeGuildVoice)),
				subcommand("voice-category", "Category holding dynamic voice channels", channelOption("Leave empty to disable", discordgo.ChannelTypeGuildCategory)),
			},
		},
		{
			Name:        "theme",
			Description: "Rank themes",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("list", "List the themes"),
				subcommand("create", "Create a theme (admin only)",
					option(discordgo.ApplicationCommandOptionString, "name", "Theme name", true),
					option(discordgo.ApplicationCommandOptionString, "ranks", "Ranks as name:@role:max, lowest first", true),
					statisticOption(false),
				),
				subcommand("activate", "Make a theme current (admin only)",
					option(discordgo.ApplicationCommandOptionInteger, "id", "Theme id", true),
				),
			},
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	for _, cmd := range commandDefinitions() {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}
