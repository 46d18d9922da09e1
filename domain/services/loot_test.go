package services

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func TestLootPool_WeightsSumToOne(t *testing.T) {
	entries := []LootEntry{
		{Name: "a", Rarity: RarityCommon},
		{Name: "b", Rarity: RarityCommon},
		{Name: "c", Rarity: RarityUncommon},
		{Name: "d", Rarity: RarityLegendary},
	}
	pool, err := NewLootPool(entries, DefaultRarityChances, nil)
	require.NoError(t, err)

	weights := pool.Weights()
	assert.InDelta(t, 1.0, sum(weights), 1e-9)

	// Rare and epic have no entries so they reserve nothing
	assert.InDelta(t, 1-0.20-0.006, pool.CommonChance(), 1e-9)
	assert.InDelta(t, (1-0.206)/2, weights[0], 1e-9)
	assert.InDelta(t, 0.20, weights[2], 1e-9)
	assert.InDelta(t, 0.006, weights[3], 1e-9)
}

func TestLootPool_EvenSplitWithinRarity(t *testing.T) {
	entries := []LootEntry{
		{Name: "a", Rarity: RarityCommon},
		{Name: "b", Rarity: RarityRare},
		{Name: "c", Rarity: RarityRare},
	}
	pool, err := NewLootPool(entries, DefaultRarityChances, nil)
	require.NoError(t, err)

	weights := pool.Weights()
	assert.InDelta(t, 0.05, weights[1], 1e-9)
	assert.InDelta(t, 0.05, weights[2], 1e-9)
	assert.InDelta(t, 0.90, weights[0], 1e-9)
}

func TestLootPool_NoCommonEntriesRescales(t *testing.T) {
	entries := []LootEntry{
		{Name: "b", Rarity: RarityUncommon},
		{Name: "c", Rarity: RarityRare},
	}
	pool, err := NewLootPool(entries, DefaultRarityChances, nil)
	require.NoError(t, err)

	weights := pool.Weights()
	assert.InDelta(t, 1.0, sum(weights), 1e-9)
	assert.InDelta(t, 2.0, weights[0]/weights[1], 1e-9)
	assert.Equal(t, 0.0, pool.CommonChance())
}

func TestLootPool_Errors(t *testing.T) {
	_, err := NewLootPool(nil, DefaultRarityChances, nil)
	assert.Error(t, err)

	_, err = NewLootPool([]LootEntry{{Name: "x", Rarity: "mythic"}}, DefaultRarityChances, nil)
	assert.Error(t, err)

	_, err = NewLootPool([]LootEntry{{Name: "x", Rarity: RarityRare}}, map[Rarity]float64{RarityRare: 1.5}, nil)
	assert.Error(t, err)
}

func TestLootPool_SampleDistribution(t *testing.T) {
	entries := []LootEntry{
		{Name: "common", Rarity: RarityCommon},
		{Name: "uncommon", Rarity: RarityUncommon},
	}
	rng := rand.New(rand.NewPCG(1, 2))
	pool, err := NewLootPool(entries, DefaultRarityChances, rng)
	require.NoError(t, err)

	const draws = 20000
	counts := map[string]int{}
	for _, e := range pool.Sample(draws) {
		counts[e.Name]++
	}

	assert.Equal(t, draws, counts["common"]+counts["uncommon"])
	ratio := float64(counts["uncommon"]) / draws
	assert.Less(t, math.Abs(ratio-0.20), 0.02)
}

func TestLootPool_SampleZero(t *testing.T) {
	pool, err := NewLootPool([]LootEntry{{Name: "a", Rarity: RarityCommon}}, DefaultRarityChances, nil)
	require.NoError(t, err)
	assert.Empty(t, pool.Sample(0))
	assert.Len(t, pool.Sample(3), 3)
}

func TestDefaultLootPools(t *testing.T) {
	pools, err := DefaultLootPools()
	require.NoError(t, err)

	common, ok := pools["common"]
	require.True(t, ok)
	assert.InDelta(t, 1.0, sum(common.Weights()), 1e-9)
	assert.InDelta(t, 1-0.20-0.10-0.05-0.006, common.CommonChance(), 1e-9)

	item := common.Entries()[0].Item()
	assert.Equal(t, "gamble_credit", item.Name)
	assert.EqualValues(t, 1000, item.Data["amount"])
}
