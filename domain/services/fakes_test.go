package services

import (
	"context"
	"sync"

	"helios/domain/entities"
	"helios/events"

	"github.com/google/uuid"
)

// memoryLedger is an in-memory member and transaction store for sequence tests
type memoryLedger struct {
	mu           sync.Mutex
	members      map[int64]*entities.Member
	transactions []*entities.Transaction
}

func newMemoryLedger(balances map[int64]int64) *memoryLedger {
	l := &memoryLedger{members: make(map[int64]*entities.Member)}
	for id, points := range balances {
		l.members[id] = &entities.Member{DiscordID: id, Points: points, DayClaimed: -1}
	}
	return l
}

func (l *memoryLedger) GetByDiscordID(_ context.Context, discordID int64) (*entities.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.members[discordID], nil
}

func (l *memoryLedger) GetByDiscordIDForUpdate(ctx context.Context, discordID int64) (*entities.Member, error) {
	return l.GetByDiscordID(ctx, discordID)
}

func (l *memoryLedger) Create(_ context.Context, discordID int64, initialPoints int64) (*entities.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := &entities.Member{DiscordID: discordID, Points: initialPoints, DayClaimed: -1}
	l.members[discordID] = m
	return m, nil
}

func (l *memoryLedger) Update(_ context.Context, member *entities.Member) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.members[member.DiscordID] = member
	return nil
}

func (l *memoryLedger) GetAll(_ context.Context) ([]*entities.Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*entities.Member, 0, len(l.members))
	for _, m := range l.members {
		out = append(out, m)
	}
	return out, nil
}

func (l *memoryLedger) GetWithUnpaidActivity(ctx context.Context) ([]*entities.Member, error) {
	all, _ := l.GetAll(ctx)
	var out []*entities.Member
	for _, m := range all {
		if m.UnpaidActivityPoints() > 0 {
			out = append(out, m)
		}
	}
	return out, nil
}

func (l *memoryLedger) GetTopByPoints(ctx context.Context, _ int) ([]*entities.Member, error) {
	return l.GetAll(ctx)
}

func (l *memoryLedger) Record(_ context.Context, tx *entities.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transactions = append(l.transactions, tx)
	return nil
}

func (l *memoryLedger) GetByMember(_ context.Context, discordID int64, _ int) ([]*entities.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*entities.Transaction
	for _, tx := range l.transactions {
		if tx.DiscordID == discordID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (l *memoryLedger) GetByGame(_ context.Context, gameID uuid.UUID) ([]*entities.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*entities.Transaction
	for _, tx := range l.transactions {
		if tx.GameID != nil && *tx.GameID == gameID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (l *memoryLedger) points(discordID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.members[discordID]; ok {
		return m.Points
	}
	return 0
}

// discardPublisher drops every event
type discardPublisher struct{}

func (discardPublisher) Publish(events.Event) error { return nil }

// recordingNotifier keeps every direct message
type recordingNotifier struct {
	mu       sync.Mutex
	messages map[int64][]string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{messages: make(map[int64][]string)}
}

func (n *recordingNotifier) SendDirectMessage(_ context.Context, discordID int64, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages[discordID] = append(n.messages[discordID], content)
	return nil
}

func (n *recordingNotifier) SendChannelMessage(_ context.Context, channelID int64, content string) error {
	return n.SendDirectMessage(context.Background(), channelID, content)
}

func (n *recordingNotifier) count(discordID int64) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages[discordID])
}

// memoryInventories keeps inventories in memory
type memoryInventories struct {
	items map[int64]*entities.Inventory
}

func newMemoryInventories() *memoryInventories {
	return &memoryInventories{items: make(map[int64]*entities.Inventory)}
}

func (r *memoryInventories) Get(_ context.Context, discordID int64) (*entities.Inventory, error) {
	if inv, ok := r.items[discordID]; ok {
		return inv, nil
	}
	return &entities.Inventory{DiscordID: discordID}, nil
}

func (r *memoryInventories) Save(_ context.Context, inventory *entities.Inventory) error {
	r.items[inventory.DiscordID] = inventory
	return nil
}
