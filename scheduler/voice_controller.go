package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"helios/domain/entities"
	"helios/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const (
	// SlotTypeMusic marks slots that hold the voice connection
	SlotTypeMusic = "music"

	connectAttempts   = 5
	connectRetryDelay = time.Second
)

// VoiceController couples the guild's single voice connection to the
// scheduler: a music slot claims the connection when it starts and releases
// it when it ends, so at most one activity uses it at any instant.
type VoiceController struct {
	scheduler  *Scheduler
	connector  interfaces.VoiceConnector
	guildID    int64
	retryDelay time.Duration

	mu     sync.Mutex
	holder int64 // slot holding the connection, zero when free
}

// NewVoiceController creates a controller and registers its slot handlers
func NewVoiceController(scheduler *Scheduler, connector interfaces.VoiceConnector, guildID int64) *VoiceController {
	vc := &VoiceController{
		scheduler:  scheduler,
		connector:  connector,
		guildID:    guildID,
		retryDelay: connectRetryDelay,
	}
	scheduler.On(SlotTypeMusic, vc.onStart)
	scheduler.OnEnd(SlotTypeMusic, vc.onEnd)
	return vc
}

// Book reserves a music slot starting now in channelID. The slot is cut
// short when a later booking is in the way, as long as minimum remains.
func (vc *VoiceController) Book(channelID int64, duration, minimum time.Duration) (*entities.TimeSlot, error) {
	return vc.scheduler.CreateNowSlot(duration, SlotTypeMusic, map[string]any{"channel_id": channelID}, true, minimum)
}

// Claim takes the connection for a slot and joins the channel, retrying
// transient failures. A claim while another slot holds it fails with
// ErrResourceBusy.
func (vc *VoiceController) Claim(ctx context.Context, slotID, channelID int64) error {
	vc.mu.Lock()
	if vc.holder != 0 {
		holder := vc.holder
		vc.mu.Unlock()
		return fmt.Errorf("voice connection held by slot %d: %w", holder, entities.ErrResourceBusy)
	}
	vc.holder = slotID
	vc.mu.Unlock()

	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = vc.connector.JoinVoice(ctx, vc.guildID, channelID); err == nil {
			return nil
		}
		log.WithFields(log.Fields{
			"slotID":    slotID,
			"channelID": channelID,
			"attempt":   attempt,
		}).Warnf("Voice connect failed: %v", err)

		if attempt < connectAttempts {
			select {
			case <-ctx.Done():
				vc.clear(slotID)
				return ctx.Err()
			case <-time.After(vc.retryDelay):
			}
		}
	}

	vc.clear(slotID)
	return fmt.Errorf("failed to connect after %d attempts: %w", connectAttempts, err)
}

// Release leaves voice if the slot holds the connection
func (vc *VoiceController) Release(ctx context.Context, slotID int64) error {
	vc.mu.Lock()
	if vc.holder != slotID {
		vc.mu.Unlock()
		return nil
	}
	vc.holder = 0
	vc.mu.Unlock()

	if err := vc.connector.LeaveVoice(ctx, vc.guildID); err != nil {
		return fmt.Errorf("failed to leave voice: %w", err)
	}
	return nil
}

// Holder returns the slot holding the connection, zero when free
func (vc *VoiceController) Holder() int64 {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.holder
}

func (vc *VoiceController) clear(slotID int64) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	if vc.holder == slotID {
		vc.holder = 0
	}
}

func (vc *VoiceController) onStart(ctx context.Context, slot entities.TimeSlot) {
	channelID, _ := slot.Data["channel_id"].(int64)
	if err := vc.Claim(ctx, slot.ID, channelID); err != nil {
		log.WithField("slotID", slot.ID).Errorf("Failed to start music slot: %v", err)
		// the next tick retires the slot
		if err := vc.scheduler.EndNow(slot.ID); err != nil {
			log.WithField("slotID", slot.ID).Warnf("Failed to end slot: %v", err)
		}
	}
}

func (vc *VoiceController) onEnd(ctx context.Context, slot entities.TimeSlot) {
	if err := vc.Release(ctx, slot.ID); err != nil {
		log.WithField("slotID", slot.ID).Errorf("Failed to release voice connection: %v", err)
	}
}
