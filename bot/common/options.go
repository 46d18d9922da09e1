package common

import (
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// Options indexes slash command options by name
type Options map[string]*discordgo.ApplicationCommandInteractionDataOption

// NewOptions flattens one level of options
func NewOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) Options {
	o := make(Options, len(opts))
	for _, opt := range opts {
		o[opt.Name] = opt
	}
	return o
}

// Subcommand returns the invoked subcommand name and its options
func Subcommand(i *discordgo.InteractionCreate) (string, Options) {
	opts := i.ApplicationCommandData().Options
	if len(opts) == 0 {
		return "", Options{}
	}
	sub := opts[0]
	// Subcommand groups nest one level deeper
	if sub.Type == discordgo.ApplicationCommandOptionSubCommandGroup && len(sub.Options) > 0 {
		return sub.Name + " " + sub.Options[0].Name, NewOptions(sub.Options[0].Options)
	}
	return sub.Name, NewOptions(sub.Options)
}

// Int returns an integer option or def when absent
func (o Options) Int(name string, def int64) int64 {
	if opt, ok := o[name]; ok {
		return opt.IntValue()
	}
	return def
}

// String returns a string option or def when absent
func (o Options) String(name, def string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return def
}

// Bool returns a boolean option or def when absent
func (o Options) Bool(name string, def bool) bool {
	if opt, ok := o[name]; ok {
		return opt.BoolValue()
	}
	return def
}

// ID returns a user, role or channel option as an int64 id, zero when absent
func (o Options) ID(name string) int64 {
	opt, ok := o[name]
	if !ok {
		return 0
	}
	raw, ok := opt.Value.(string)
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
