package entities

import "time"

// StoreItem is a priced stock line in a guild store
type StoreItem struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Price       int64  `json:"price" yaml:"price"`
	Stock       int64  `json:"stock" yaml:"stock"`
	Quantity    int64  `json:"quantity" yaml:"quantity"`
	MinPrice    int64  `json:"min_price" yaml:"min_price"`
	MaxPrice    int64  `json:"max_price" yaml:"max_price"`
	MinStock    int64  `json:"min_stock" yaml:"min_stock"`
	MaxStock    int64  `json:"max_stock" yaml:"max_stock"`
}

// Clamp forces price, stock and quantity back inside their bounds
func (i *StoreItem) Clamp() {
	i.Price = min(max(i.Price, i.MinPrice), i.MaxPrice)
	i.Stock = min(max(i.Stock, i.MinStock), i.MaxStock)
	i.Quantity = min(max(i.Quantity, 0), i.Stock)
}

// Store is a guild's collection of stock lines
type Store struct {
	GuildID     int64
	Items       []*StoreItem
	NextRefresh time.Time
}

// Item looks up a stock line by name
func (s *Store) Item(name string) *StoreItem {
	for _, item := range s.Items {
		if item.Name == name {
			return item
		}
	}
	return nil
}
