package entities

import "slices"

// Item names with special handling
const (
	ItemGambleCredit = "gamble_credit"
	ItemLootCrate    = "loot_crate"
	ItemShield       = "shield"
	ItemDeflector    = "deflector"
	ItemBubble       = "bubble"
	ItemMuteToken    = "mute_token"
	ItemDeafenToken  = "deafen_token"
)

// Item is a stack of identical items held by a member
type Item struct {
	Name        string         `json:"name" yaml:"name"`
	DisplayName string         `json:"display_name" yaml:"display_name"`
	Quantity    int64          `json:"quantity" yaml:"quantity"`
	Data        map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// Inventory holds a member's items
type Inventory struct {
	GuildID   int64
	DiscordID int64
	Items     []*Item
}

// Get returns the stack with the given name, or nil
func (inv *Inventory) Get(name string) *Item {
	for _, item := range inv.Items {
		if item.Name == name {
			return item
		}
	}
	return nil
}

// Add stacks quantity onto an existing item or appends a new one
func (inv *Inventory) Add(item Item) {
	if existing := inv.Get(item.Name); existing != nil {
		existing.Quantity += item.Quantity
		return
	}
	added := item
	inv.Items = append(inv.Items, &added)
}

// Remove takes quantity from a stack and reports whether enough was held
func (inv *Inventory) Remove(name string, quantity int64) bool {
	existing := inv.Get(name)
	if existing == nil || existing.Quantity < quantity {
		return false
	}
	existing.Quantity -= quantity
	if existing.Quantity == 0 {
		inv.Items = slices.DeleteFunc(inv.Items, func(i *Item) bool { return i == existing })
	}
	return true
}
