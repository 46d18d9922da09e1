package testhelpers

import (
	"context"

	"helios/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockMemberPlatform is a mock implementation of MemberPlatform
type MockMemberPlatform struct {
	mock.Mock
}

func (m *MockMemberPlatform) VoiceState(ctx context.Context, guildID int64, memberID int64) (*interfaces.VoiceState, error) {
	args := m.Called(ctx, guildID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.VoiceState), args.Error(1)
}

func (m *MockMemberPlatform) SetServerMute(ctx context.Context, guildID int64, memberID int64, mute bool) error {
	args := m.Called(ctx, guildID, memberID, mute)
	return args.Error(0)
}

func (m *MockMemberPlatform) SetServerDeaf(ctx context.Context, guildID int64, memberID int64, deaf bool) error {
	args := m.Called(ctx, guildID, memberID, deaf)
	return args.Error(0)
}

func (m *MockMemberPlatform) AddRole(ctx context.Context, guildID int64, memberID int64, roleID int64) error {
	args := m.Called(ctx, guildID, memberID, roleID)
	return args.Error(0)
}

func (m *MockMemberPlatform) RemoveRole(ctx context.Context, guildID int64, memberID int64, roleID int64) error {
	args := m.Called(ctx, guildID, memberID, roleID)
	return args.Error(0)
}

func (m *MockMemberPlatform) Members(ctx context.Context, guildID int64) ([]interfaces.GuildMember, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.GuildMember), args.Error(1)
}

// MockChannelPlatform is a mock implementation of ChannelPlatform
type MockChannelPlatform struct {
	mock.Mock
}

func (m *MockChannelPlatform) CreateVoiceChannel(ctx context.Context, guildID int64, name string, parentID int64) (int64, error) {
	args := m.Called(ctx, guildID, name, parentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChannelPlatform) DeleteChannel(ctx context.Context, channelID int64) error {
	args := m.Called(ctx, channelID)
	return args.Error(0)
}

func (m *MockChannelPlatform) RenameChannel(ctx context.Context, channelID int64, name string) error {
	args := m.Called(ctx, channelID, name)
	return args.Error(0)
}

func (m *MockChannelPlatform) SetChannelPositions(ctx context.Context, guildID int64, channelIDs []int64) error {
	args := m.Called(ctx, guildID, channelIDs)
	return args.Error(0)
}

func (m *MockChannelPlatform) ChannelOccupants(ctx context.Context, guildID int64, channelID int64) ([]interfaces.Occupant, error) {
	args := m.Called(ctx, guildID, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.Occupant), args.Error(1)
}

func (m *MockChannelPlatform) ChannelExists(ctx context.Context, guildID int64, channelID int64) bool {
	args := m.Called(ctx, guildID, channelID)
	return args.Bool(0)
}

func (m *MockChannelPlatform) SetChannelPermissions(ctx context.Context, guildID int64, channelID int64, private bool, allowed []int64, denied []int64) error {
	args := m.Called(ctx, guildID, channelID, private, allowed, denied)
	return args.Error(0)
}

// MockGroupPlatform is a mock implementation of GroupPlatform
type MockGroupPlatform struct {
	mock.Mock
}

func (m *MockGroupPlatform) CreateRole(ctx context.Context, guildID int64, name string) (int64, error) {
	args := m.Called(ctx, guildID, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGroupPlatform) DeleteRole(ctx context.Context, guildID int64, roleID int64) error {
	args := m.Called(ctx, guildID, roleID)
	return args.Error(0)
}

func (m *MockGroupPlatform) RoleMembers(ctx context.Context, guildID int64, roleID int64) ([]int64, error) {
	args := m.Called(ctx, guildID, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockGroupPlatform) CreateInvite(ctx context.Context, channelID int64) (string, error) {
	args := m.Called(ctx, channelID)
	return args.String(0), args.Error(1)
}

func (m *MockGroupPlatform) DeleteInvite(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendDirectMessage(ctx context.Context, discordID int64, content string) error {
	args := m.Called(ctx, discordID, content)
	return args.Error(0)
}

func (m *MockNotifier) SendChannelMessage(ctx context.Context, channelID int64, content string) error {
	args := m.Called(ctx, channelID, content)
	return args.Error(0)
}

// MockVoiceConnector is a mock implementation of VoiceConnector
type MockVoiceConnector struct {
	mock.Mock
}

func (m *MockVoiceConnector) JoinVoice(ctx context.Context, guildID int64, channelID int64) error {
	args := m.Called(ctx, guildID, channelID)
	return args.Error(0)
}

func (m *MockVoiceConnector) LeaveVoice(ctx context.Context, guildID int64) error {
	args := m.Called(ctx, guildID)
	return args.Error(0)
}
