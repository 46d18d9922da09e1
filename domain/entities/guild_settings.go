package entities

import (
	"strconv"
)

// Setting keys stored in GuildSettings.Settings
const (
	SettingDynamicVoiceCategory = "dynamic_voice_category"
	SettingMusicChannel         = "music_channel"
)

// GuildSettings holds per-server configuration
type GuildSettings struct {
	GuildID               int64
	AnnouncementChannelID *int64
	CourtChannelID        *int64
	AFKChannelID          *int64
	Settings              map[string]any
	Flags                 []string
}

// ID reads an id-valued setting. Values decoded from JSON arrive as
// float64 or string; zero means unset.
func (s *GuildSettings) ID(key string) int64 {
	switch v := s.Settings[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return id
	default:
		return 0
	}
}

// SetID stores an id-valued setting as a string so it survives JSON intact
func (s *GuildSettings) SetID(key string, id int64) {
	if s.Settings == nil {
		s.Settings = make(map[string]any)
	}
	if id == 0 {
		delete(s.Settings, key)
		return
	}
	s.Settings[key] = strconv.FormatInt(id, 10)
}
