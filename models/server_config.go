package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ServerConfig is the per-server broadcast and moderation policy. One row
// per subscribing server; rows exist while at least one whitelisted user
// lists the server.
type ServerConfig struct {
	ServerID                 string `gorm:"primaryKey;size:32"`
	LogChannel               string `gorm:"size:32"`
	PingUsers                bool
	PingRole                 string      `gorm:"size:32"`
	SpamActionLevel          ActionLevel `gorm:"default:0"`
	ImpersonationActionLevel ActionLevel `gorm:"default:0"`
	BigotryActionLevel       ActionLevel `gorm:"default:0"`
	TimeoutUsersWithRole     bool
	IgnoredRoles             StringList `gorm:"type:text"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// ActionLevelFor returns the configured level for a report category. The
// second return is false for an unrecognized category.
func (c *ServerConfig) ActionLevelFor(actorType ActorType) (ActionLevel, bool) {
	switch actorType {
	case TypeSpam:
		return c.SpamActionLevel, true
	case TypeImpersonation:
		return c.ImpersonationActionLevel, true
	case TypeBigotry:
		return c.BigotryActionLevel, true
	}
	return LevelNotify, false
}

// ServerConfigUpdate is a partial update. Nil fields keep the current
// value. Pointer fields make an explicit zero distinguishable from "not
// set", so LevelNotify (0) is a settable value.
type ServerConfigUpdate struct {
	LogChannel               *string
	PingUsers                *bool
	PingRole                 *string
	SpamActionLevel          *ActionLevel
	ImpersonationActionLevel *ActionLevel
	BigotryActionLevel       *ActionLevel
	TimeoutUsersWithRole     *bool
	IgnoredRoles             []string
}

// Apply merges the update into the current config in one place.
func (u ServerConfigUpdate) Apply(c *ServerConfig) {
	if u.LogChannel != nil {
		c.LogChannel = *u.LogChannel
	}
	if u.PingUsers != nil {
		c.PingUsers = *u.PingUsers
	}
	if u.PingRole != nil {
		c.PingRole = *u.PingRole
	}
	if u.SpamActionLevel != nil {
		c.SpamActionLevel = *u.SpamActionLevel
	}
	if u.ImpersonationActionLevel != nil {
		c.ImpersonationActionLevel = *u.ImpersonationActionLevel
	}
	if u.BigotryActionLevel != nil {
		c.BigotryActionLevel = *u.BigotryActionLevel
	}
	if u.TimeoutUsersWithRole != nil {
		c.TimeoutUsersWithRole = *u.TimeoutUsersWithRole
	}
	if u.IgnoredRoles != nil {
		c.IgnoredRoles = StringList(u.IgnoredRoles)
	}
}

// ServerConfigStore provides database access to server configs.
type ServerConfigStore struct {
	DB *gorm.DB
}

// CreateIfNotExists inserts an empty config for the server. Existing rows
// are left alone.
func (s *ServerConfigStore) CreateIfNotExists(serverID string) (*ServerConfig, error) {
	cfg := ServerConfig{ServerID: serverID, IgnoredRoles: StringList{}}
	err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&cfg).Error
	if err != nil {
		return nil, err
	}
	return s.Get(serverID)
}

// Get returns the config for a server.
func (s *ServerConfigStore) Get(serverID string) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := s.DB.First(&cfg, "server_id = ?", serverID).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetMany returns the configs that exist for the given servers. Unknown
// IDs are simply absent from the result.
func (s *ServerConfigStore) GetMany(serverIDs []string) ([]ServerConfig, error) {
	var configs []ServerConfig
	err := s.DB.Where("server_id IN ?", serverIDs).Find(&configs).Error
	return configs, err
}

// All returns every server config.
func (s *ServerConfigStore) All() ([]ServerConfig, error) {
	var configs []ServerConfig
	err := s.DB.Find(&configs).Error
	return configs, err
}

// Update merges a partial update into the server's config and persists it.
func (s *ServerConfigStore) Update(serverID string, update ServerConfigUpdate) (*ServerConfig, error) {
	cfg, err := s.Get(serverID)
	if err != nil {
		return nil, err
	}
	update.Apply(cfg)
	if err := s.DB.Save(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}

// Delete removes a server's config.
func (s *ServerConfigStore) Delete(serverID string) error {
	return s.DB.Delete(&ServerConfig{}, "server_id = ?", serverID).Error
}

// DeleteIfOrphaned removes the config when no whitelisted user lists the
// server anymore. Returns true if the config was deleted.
func (s *ServerConfigStore) DeleteIfOrphaned(serverID string, users *UserStore) (bool, error) {
	remaining, err := users.ByServer(serverID)
	if err != nil {
		return false, err
	}
	if len(remaining) > 0 {
		return false, nil
	}
	if err := s.Delete(serverID); err != nil {
		return false, err
	}
	return true, nil
}
