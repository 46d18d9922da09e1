package entities

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// PlaceholderNumber is replaced by the channel number in name templates
	PlaceholderNumber = "{n}"
	// PlaceholderGame is replaced by the occupants' majority game
	PlaceholderGame = "{g}"
)

// DynamicVoiceGroup declares how many voice channels of one kind to keep live
type DynamicVoiceGroup struct {
	ID           int64
	GuildID      int64
	Name         string
	Position     int
	Min          int
	MinEmpty     int
	Max          int
	Template     string
	GameTemplate string
}

// Validate checks the group constraints
func (g *DynamicVoiceGroup) Validate() error {
	switch {
	case g.Min < 0 || g.Min > g.Max:
		return fmt.Errorf("%w: need 0 <= min (%d) <= max (%d)", ErrInvalidGroup, g.Min, g.Max)
	case g.MinEmpty < 0 || g.MinEmpty > g.Max:
		return fmt.Errorf("%w: need 0 <= min_empty (%d) <= max (%d)", ErrInvalidGroup, g.MinEmpty, g.Max)
	case !strings.Contains(g.Template, PlaceholderNumber):
		return fmt.Errorf("%w: template must contain %s", ErrInvalidGroup, PlaceholderNumber)
	case !strings.Contains(g.GameTemplate, PlaceholderNumber) || !strings.Contains(g.GameTemplate, PlaceholderGame):
		return fmt.Errorf("%w: game template must contain %s and %s", ErrInvalidGroup, PlaceholderNumber, PlaceholderGame)
	}
	return nil
}

// ChannelName renders the name for a channel number and optional game
func (g *DynamicVoiceGroup) ChannelName(number int, game string) string {
	if game == "" {
		return strings.ReplaceAll(g.Template, PlaceholderNumber, strconv.Itoa(number))
	}
	name := strings.ReplaceAll(g.GameTemplate, PlaceholderNumber, strconv.Itoa(number))
	return strings.ReplaceAll(name, PlaceholderGame, game)
}

// DynamicVoiceChannel is a managed voice channel belonging to a group
type DynamicVoiceChannel struct {
	ChannelID  int64
	GuildID    int64
	GroupID    int64
	Number     int
	OwnerID    *int64
	Private    bool
	CustomName *string
}

// ApplyTemplate copies a template's privacy settings and name onto the channel
func (c *DynamicVoiceChannel) ApplyTemplate(t VoiceTemplate) {
	c.Private = t.Private
	name := t.Name
	c.CustomName = &name
}

// Unlock clears ownership customisations so the channel returns to the pool
func (c *DynamicVoiceChannel) Unlock() {
	c.OwnerID = nil
	c.Private = false
	c.CustomName = nil
}
