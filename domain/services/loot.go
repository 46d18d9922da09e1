package services

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"sync"

	"helios/domain/entities"

	"gopkg.in/yaml.v3"
)

// Rarity grades loot entries
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// DefaultRarityChances are the reserved chances of the non-common rarities
var DefaultRarityChances = map[Rarity]float64{
	RarityUncommon:  0.20,
	RarityRare:      0.10,
	RarityEpic:      0.05,
	RarityLegendary: 0.006,
}

// LootEntry is one item that can drop from a pool
type LootEntry struct {
	Name        string         `yaml:"name"`
	DisplayName string         `yaml:"display_name"`
	Rarity      Rarity         `yaml:"rarity"`
	Quantity    int64          `yaml:"quantity"`
	Data        map[string]any `yaml:"data"`
}

// Item converts the entry into an inventory item
func (e LootEntry) Item() entities.Item {
	data := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		data[k] = v
	}
	return entities.Item{Name: e.Name, DisplayName: e.DisplayName, Quantity: max(e.Quantity, 1), Data: data}
}

// LootPool samples entries with replacement, weighted by rarity
type LootPool struct {
	entries      []LootEntry
	weights      []float64
	commonChance float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLootPool builds the weight table. Each non-common rarity with at least
// one entry reserves its chance, common receives the remainder, and every
// rarity's chance is split evenly among its entries. When the pool has no
// common entries the weights are rescaled so they still sum to one.
func NewLootPool(entries []LootEntry, chances map[Rarity]float64, rng *rand.Rand) (*LootPool, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("loot pool has no entries")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	counts := make(map[Rarity]int)
	for _, e := range entries {
		if e.Rarity != RarityCommon {
			if _, ok := chances[e.Rarity]; !ok {
				return nil, fmt.Errorf("no chance configured for rarity %q", e.Rarity)
			}
		}
		counts[e.Rarity]++
	}

	reserved := 0.0
	for rarity, count := range counts {
		if rarity != RarityCommon && count > 0 {
			reserved += chances[rarity]
		}
	}
	if reserved > 1 {
		return nil, fmt.Errorf("reserved rarity chances sum to %.3f, above 1", reserved)
	}

	rarityChance := func(r Rarity) float64 {
		if r == RarityCommon {
			return 1 - reserved
		}
		return chances[r]
	}

	weights := make([]float64, len(entries))
	total := 0.0
	for i, e := range entries {
		weights[i] = rarityChance(e.Rarity) / float64(counts[e.Rarity])
		total += weights[i]
	}
	if counts[RarityCommon] == 0 && total > 0 {
		for i := range weights {
			weights[i] /= total
		}
	}

	commonChance := 0.0
	if counts[RarityCommon] > 0 {
		commonChance = 1 - reserved
	}

	return &LootPool{entries: entries, weights: weights, commonChance: commonChance, rng: rng}, nil
}

// Entries returns the pool entries in order
func (p *LootPool) Entries() []LootEntry {
	return p.entries
}

// Weights returns the per-entry weights aligned with Entries
func (p *LootPool) Weights() []float64 {
	out := make([]float64, len(p.weights))
	copy(out, p.weights)
	return out
}

// CommonChance returns the chance assigned to the common rarity
func (p *LootPool) CommonChance() float64 {
	return p.commonChance
}

// Sample draws k entries with replacement
func (p *LootPool) Sample(k int) []LootEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	drawn := make([]LootEntry, 0, max(k, 0))
	for range k {
		r := p.rng.Float64()
		idx := len(p.weights) - 1
		for i, w := range p.weights {
			if r < w {
				idx = i
				break
			}
			r -= w
		}
		drawn = append(drawn, p.entries[idx])
	}
	return drawn
}

//go:embed data/loot_pools.yaml
var lootPoolsYAML []byte

type lootPoolsFile struct {
	Chances map[Rarity]float64     `yaml:"chances"`
	Pools   map[string][]LootEntry `yaml:"pools"`
}

// LoadLootPools parses a pools definition document
func LoadLootPools(data []byte, rng *rand.Rand) (map[string]*LootPool, error) {
	var file lootPoolsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse loot pools: %w", err)
	}
	chances := file.Chances
	if len(chances) == 0 {
		chances = DefaultRarityChances
	}

	pools := make(map[string]*LootPool, len(file.Pools))
	for name, entries := range file.Pools {
		pool, err := NewLootPool(entries, chances, rng)
		if err != nil {
			return nil, fmt.Errorf("invalid loot pool %q: %w", name, err)
		}
		pools[name] = pool
	}
	return pools, nil
}

// DefaultLootPools returns the built-in pools
func DefaultLootPools() (map[string]*LootPool, error) {
	return LoadLootPools(lootPoolsYAML, nil)
}
