package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"helios/domain/entities"

	log "github.com/sirupsen/logrus"
)

// DefaultTickInterval is how often the scheduler advances
const DefaultTickInterval = time.Second

// EndSuffix is appended to a slot type to name its end handlers
const EndSuffix = "_end"

// Handler reacts to a slot starting or ending
type Handler func(ctx context.Context, slot entities.TimeSlot)

// Scheduler is a calendar of non-overlapping time slots. Each tick starts
// slots whose time has come and retires slots that are over, firing the
// handlers registered for their type.
type Scheduler struct {
	mu       sync.Mutex
	slots    []*entities.TimeSlot
	handlers map[string][]Handler
	nextID   int64
	now      func() time.Time
	interval time.Duration

	running sync.WaitGroup
}

// New creates an empty scheduler
func New() *Scheduler {
	return &Scheduler{
		handlers: make(map[string][]Handler),
		now:      time.Now,
		interval: DefaultTickInterval,
	}
}

// WithClock replaces the time source, for tests
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// On registers a handler fired when a slot of the type starts
func (s *Scheduler) On(slotType string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[slotType] = append(s.handlers[slotType], handler)
}

// OnEnd registers a handler fired when a started slot of the type ends
func (s *Scheduler) OnEnd(slotType string, handler Handler) {
	s.On(slotType+EndSuffix, handler)
}

// CreateSlot reserves [start, end). It fails with ErrSlotConflict when the
// interval overlaps a live slot.
func (s *Scheduler) CreateSlot(start, end time.Time, slotType string, data map[string]any) (*entities.TimeSlot, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("slot must start before it ends: %w", entities.ErrInvalidState)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if conflict := s.conflictLocked(start, end, 0); conflict != nil {
		return nil, fmt.Errorf("slot %s-%s collides with slot %d: %w",
			start.Format(time.TimeOnly), end.Format(time.TimeOnly), conflict.ID, entities.ErrSlotConflict)
	}
	return s.insertLocked(start, end, slotType, data), nil
}

// CreateNowSlot reserves a slot starting now. When allowDynamicEnd is set
// and a later slot is in the way, the new slot ends one second before that
// slot starts, provided it still lasts at least minimum.
func (s *Scheduler) CreateNowSlot(
	duration time.Duration,
	slotType string,
	data map[string]any,
	allowDynamicEnd bool,
	minimum time.Duration,
) (*entities.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	end := start.Add(duration)

	var first *entities.TimeSlot
	for _, slot := range s.slots {
		if !slot.Overlaps(start, end) {
			continue
		}
		if !allowDynamicEnd || !slot.Start.After(start) {
			return nil, fmt.Errorf("slot %d is in the way: %w", slot.ID, entities.ErrSlotConflict)
		}
		if first == nil || slot.Start.Before(first.Start) {
			first = slot
		}
	}

	if first != nil {
		end = first.Start.Add(-time.Second)
		if end.Sub(start) < minimum || !start.Before(end) {
			return nil, fmt.Errorf("only %s free before slot %d: %w", end.Sub(start), first.ID, entities.ErrSlotConflict)
		}
	}
	return s.insertLocked(start, end, slotType, data), nil
}

// ExtendTime pushes a slot's end back by d
func (s *Scheduler) ExtendTime(slotID int64, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.findLocked(slotID)
	if slot == nil {
		return fmt.Errorf("slot %d: %w", slotID, entities.ErrNotFound)
	}
	return s.setEndLocked(slot, slot.End.Add(d))
}

// SetEndTime moves a slot's end. It fails when the new end would collide
// with another slot or precede the start.
func (s *Scheduler) SetEndTime(slotID int64, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.findLocked(slotID)
	if slot == nil {
		return fmt.Errorf("slot %d: %w", slotID, entities.ErrNotFound)
	}
	return s.setEndLocked(slot, end)
}

// EndNow ends a slot at the current instant; the next tick retires it
func (s *Scheduler) EndNow(slotID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.findLocked(slotID)
	if slot == nil {
		return fmt.Errorf("slot %d: %w", slotID, entities.ErrNotFound)
	}
	if now := s.now(); now.Before(slot.End) {
		slot.End = now
	}
	return nil
}

// Cancel drops a slot that has not started yet
func (s *Scheduler) Cancel(slotID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.findLocked(slotID)
	if slot == nil {
		return fmt.Errorf("slot %d: %w", slotID, entities.ErrNotFound)
	}
	if slot.Ran {
		return fmt.Errorf("slot %d already started: %w", slotID, entities.ErrInvalidState)
	}
	s.slots = slices.DeleteFunc(s.slots, func(other *entities.TimeSlot) bool { return other == slot })
	return nil
}

// Tick retires slots that are over and starts slots whose time has come.
// ran is set before start handlers fire, so a handler that re-enters the
// scheduler cannot fire its own slot again.
func (s *Scheduler) Tick(ctx context.Context) {
	s.mu.Lock()
	now := s.now()

	var ended, started []entities.TimeSlot
	kept := s.slots[:0]
	for _, slot := range s.slots {
		if !now.Before(slot.End) {
			if slot.Ran {
				ended = append(ended, *slot)
			}
			continue
		}
		kept = append(kept, slot)
		if slot.Active(now) && !slot.Ran {
			slot.Ran = true
			started = append(started, *slot)
		}
	}
	clear(s.slots[len(kept):])
	s.slots = kept

	endHandlers := make(map[string][]Handler)
	for _, slot := range ended {
		endHandlers[slot.Type] = slices.Clone(s.handlers[slot.Type+EndSuffix])
	}
	startHandlers := make(map[string][]Handler)
	for _, slot := range started {
		startHandlers[slot.Type] = slices.Clone(s.handlers[slot.Type])
	}
	s.mu.Unlock()

	// slots retired on this tick release what they hold before the next
	// slot starts, so back-to-back slots hand over in order
	var ending sync.WaitGroup
	for _, slot := range ended {
		s.fire(ctx, slot, endHandlers[slot.Type], &ending)
	}
	if len(started) > 0 {
		ending.Wait()
	}
	for _, slot := range started {
		s.fire(ctx, slot, startHandlers[slot.Type], nil)
	}
}

// fire runs handlers as independent tasks. done, when set, tracks them too.
func (s *Scheduler) fire(ctx context.Context, slot entities.TimeSlot, handlers []Handler, done *sync.WaitGroup) {
	for _, handler := range handlers {
		s.running.Add(1)
		if done != nil {
			done.Add(1)
		}
		go func() {
			defer s.running.Done()
			if done != nil {
				defer done.Done()
			}
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"slotID": slot.ID,
						"type":   slot.Type,
					}).Errorf("Panic in slot handler: %v\n%s", r, debug.Stack())
				}
			}()
			handler(ctx, slot)
		}()
	}
}

// Wait blocks until every handler fired so far has returned
func (s *Scheduler) Wait() {
	s.running.Wait()
}

// Slots returns a copy of the live slots ordered by start
func (s *Scheduler) Slots() []entities.TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.TimeSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		out = append(out, *slot)
	}
	return out
}

// Current returns the slot covering the current instant, if any
func (s *Scheduler) Current() (entities.TimeSlot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, slot := range s.slots {
		if slot.Active(now) {
			return *slot, true
		}
	}
	return entities.TimeSlot{}, false
}

// Start runs the tick loop until ctx is cancelled or the returned stop
// function is called
func (s *Scheduler) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	ticker := time.NewTicker(s.interval)

	go func() {
		defer ticker.Stop()
		log.Info("Scheduler started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Scheduler shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Scheduler shutting down (stop requested)...")
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

func (s *Scheduler) insertLocked(start, end time.Time, slotType string, data map[string]any) *entities.TimeSlot {
	s.nextID++
	slot := &entities.TimeSlot{
		ID:    s.nextID,
		Start: start,
		End:   end,
		Type:  slotType,
		Data:  data,
	}
	idx, _ := slices.BinarySearchFunc(s.slots, start, func(other *entities.TimeSlot, t time.Time) int {
		return other.Start.Compare(t)
	})
	s.slots = slices.Insert(s.slots, idx, slot)

	copied := *slot
	return &copied
}

func (s *Scheduler) findLocked(slotID int64) *entities.TimeSlot {
	for _, slot := range s.slots {
		if slot.ID == slotID {
			return slot
		}
	}
	return nil
}

func (s *Scheduler) conflictLocked(start, end time.Time, ignoreID int64) *entities.TimeSlot {
	for _, slot := range s.slots {
		if slot.ID != ignoreID && slot.Overlaps(start, end) {
			return slot
		}
	}
	return nil
}

func (s *Scheduler) setEndLocked(slot *entities.TimeSlot, end time.Time) error {
	if !slot.Start.Before(end) {
		return fmt.Errorf("slot %d cannot end before it starts: %w", slot.ID, entities.ErrInvalidState)
	}
	if conflict := s.conflictLocked(slot.Start, end, slot.ID); conflict != nil {
		return fmt.Errorf("slot %d would collide with slot %d: %w", slot.ID, conflict.ID, entities.ErrSlotConflict)
	}
	slot.End = end
	return nil
}
