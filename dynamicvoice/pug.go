package dynamicvoice

import (
	"context"
	"fmt"
	"slices"

	"helios/domain/entities"

	log "github.com/sirupsen/logrus"
)

// ConvertToPUG turns a dynamic voice channel into a pick-up group owned by
// creatorID. The group gets a role, an invite and a roster seeded with the
// channel's current occupants. If any step fails, whatever was created is
// torn down again.
func (m *Manager) ConvertToPUG(ctx context.Context, channelID, creatorID int64) (*entities.PUG, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.voices[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %d is not a dynamic voice channel: %w", channelID, entities.ErrNotFound)
	}
	if ch.OwnerID != nil && *ch.OwnerID != creatorID {
		return nil, fmt.Errorf("channel %d is owned by %d: %w", channelID, *ch.OwnerID, entities.ErrInvalidState)
	}
	existing, err := m.pugs.GetByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up PUG: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("channel %d is already a PUG: %w", channelID, entities.ErrInvalidState)
	}

	occupants, err := m.channels.ChannelOccupants(ctx, m.guildID, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to read channel occupants: %w", err)
	}

	group := m.groupLocked(ch.GroupID)
	roleID, err := m.roles.CreateRole(ctx, m.guildID, "PUG "+group.ChannelName(ch.Number, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create PUG role: %w", err)
	}
	invite, err := m.roles.CreateInvite(ctx, channelID)
	if err != nil {
		m.dropRole(ctx, roleID)
		return nil, fmt.Errorf("failed to create PUG invite: %w", err)
	}

	pug := &entities.PUG{
		GuildID:    m.guildID,
		ChannelID:  channelID,
		RoleID:     roleID,
		InviteCode: invite,
		CreatedAt:  m.now(),
	}
	pug.AddMember(creatorID, false)
	for _, o := range occupants {
		if !o.Bot {
			pug.AddMember(o.DiscordID, false)
		}
	}

	if err := m.pugs.Create(ctx, pug); err != nil {
		m.dropInvite(ctx, invite)
		m.dropRole(ctx, roleID)
		return nil, fmt.Errorf("failed to save PUG: %w", err)
	}

	owner := creatorID
	ch.OwnerID = &owner
	ch.Private = true
	if err := m.repo.UpdateChannel(ctx, ch); err != nil {
		log.WithField("channelID", channelID).Warnf("Failed to save PUG channel: %v", err)
	}
	m.syncPUGLocked(ctx, pug)

	log.WithFields(log.Fields{
		"guildID":   m.guildID,
		"channelID": channelID,
		"roleID":    roleID,
		"members":   len(pug.ServerMembers),
	}).Info("Created PUG")
	return pug, nil
}

// AddToPUG puts a member on the roster of the PUG in channelID. Temporary
// members are guests who joined the server through the PUG's invite.
func (m *Manager) AddToPUG(ctx context.Context, channelID, memberID int64, temporary bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pug, err := m.pugLocked(ctx, channelID)
	if err != nil {
		return err
	}
	if pug.InRoster(memberID) {
		return nil
	}
	pug.AddMember(memberID, temporary)
	if err := m.pugs.Update(ctx, pug); err != nil {
		return fmt.Errorf("failed to save PUG: %w", err)
	}
	m.syncPUGLocked(ctx, pug)
	return nil
}

// RemoveFromPUG drops a member from the roster and takes the role away
func (m *Manager) RemoveFromPUG(ctx context.Context, channelID, memberID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pug, err := m.pugLocked(ctx, channelID)
	if err != nil {
		return err
	}
	if !pug.InRoster(memberID) {
		return fmt.Errorf("member %d is not in the PUG: %w", memberID, entities.ErrNotFound)
	}
	pug.RemoveMember(memberID)
	if err := m.pugs.Update(ctx, pug); err != nil {
		return fmt.Errorf("failed to save PUG: %w", err)
	}
	if err := m.members.RemoveRole(ctx, m.guildID, memberID, pug.RoleID); err != nil {
		log.WithField("memberID", memberID).Warnf("Failed to remove PUG role: %v", err)
	}
	m.syncPUGLocked(ctx, pug)
	return nil
}

// PUGByInvite finds the PUG whose invite a new member used, or nil
func (m *Manager) PUGByInvite(ctx context.Context, code string) (*entities.PUG, error) {
	pugs, err := m.pugs.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list PUGs: %w", err)
	}
	for _, pug := range pugs {
		if pug.InviteCode == code {
			return pug, nil
		}
	}
	return nil, nil
}

// DisbandPUG ends the PUG in channelID and returns the channel to the pool
func (m *Manager) DisbandPUG(ctx context.Context, channelID, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, err := m.ownedLocked(channelID, ownerID)
	if err != nil {
		return err
	}
	if err := m.disbandLocked(ctx, channelID); err != nil {
		return err
	}
	return m.unlockLocked(ctx, ch)
}

// ReconcilePUGs makes every roster member carry the PUG role and puts every
// holder of the role on the roster
func (m *Manager) ReconcilePUGs(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pugs, err := m.pugs.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list PUGs: %w", err)
	}

	for _, pug := range pugs {
		if _, ok := m.voices[pug.ChannelID]; !ok {
			// the channel is gone, so is the group
			if err := m.disbandLocked(ctx, pug.ChannelID); err != nil {
				log.WithField("pugID", pug.ID).Warnf("Failed to disband orphaned PUG: %v", err)
			}
			continue
		}

		holders, err := m.roles.RoleMembers(ctx, m.guildID, pug.RoleID)
		if err != nil {
			log.WithField("pugID", pug.ID).Warnf("Failed to read PUG role members: %v", err)
			continue
		}

		changed := false
		for _, holder := range holders {
			if !pug.InRoster(holder) {
				pug.AddMember(holder, false)
				changed = true
			}
		}
		for _, id := range pug.Roster() {
			if slices.Contains(holders, id) {
				continue
			}
			if err := m.members.AddRole(ctx, m.guildID, id, pug.RoleID); err != nil {
				log.WithFields(log.Fields{
					"pugID":    pug.ID,
					"memberID": id,
				}).Warnf("Failed to grant PUG role: %v", err)
			}
		}

		if changed {
			if err := m.pugs.Update(ctx, pug); err != nil {
				log.WithField("pugID", pug.ID).Errorf("Failed to save PUG roster: %v", err)
				continue
			}
			m.applyPUGPermissions(ctx, pug)
		}
	}
	return nil
}

// syncPUGLocked grants the role to the whole roster and opens the channel
// to it
func (m *Manager) syncPUGLocked(ctx context.Context, pug *entities.PUG) {
	for _, id := range pug.Roster() {
		if err := m.members.AddRole(ctx, m.guildID, id, pug.RoleID); err != nil {
			log.WithFields(log.Fields{
				"pugID":    pug.ID,
				"memberID": id,
			}).Warnf("Failed to grant PUG role: %v", err)
		}
	}
	m.applyPUGPermissions(ctx, pug)
}

func (m *Manager) applyPUGPermissions(ctx context.Context, pug *entities.PUG) {
	if err := m.channels.SetChannelPermissions(ctx, m.guildID, pug.ChannelID, true, pug.Roster(), nil); err != nil {
		log.WithField("channelID", pug.ChannelID).Warnf("Failed to set PUG channel permissions: %v", err)
	}
}

func (m *Manager) pugLocked(ctx context.Context, channelID int64) (*entities.PUG, error) {
	pug, err := m.pugs.GetByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up PUG: %w", err)
	}
	if pug == nil {
		return nil, fmt.Errorf("channel %d is not a PUG: %w", channelID, entities.ErrNotFound)
	}
	return pug, nil
}

// disbandLocked removes the PUG on a channel, if there is one
func (m *Manager) disbandLocked(ctx context.Context, channelID int64) error {
	pug, err := m.pugs.GetByChannel(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to look up PUG: %w", err)
	}
	if pug == nil {
		return nil
	}

	m.dropInvite(ctx, pug.InviteCode)
	m.dropRole(ctx, pug.RoleID)
	if err := m.pugs.Delete(ctx, pug.ID); err != nil {
		return fmt.Errorf("failed to delete PUG: %w", err)
	}

	log.WithFields(log.Fields{
		"guildID":   m.guildID,
		"channelID": channelID,
	}).Info("Disbanded PUG")
	return nil
}

func (m *Manager) dropRole(ctx context.Context, roleID int64) {
	if err := m.roles.DeleteRole(ctx, m.guildID, roleID); err != nil {
		log.WithField("roleID", roleID).Warnf("Failed to delete PUG role: %v", err)
	}
}

func (m *Manager) dropInvite(ctx context.Context, code string) {
	if err := m.roles.DeleteInvite(ctx, code); err != nil {
		log.WithField("invite", code).Warnf("Failed to delete PUG invite: %v", err)
	}
}
