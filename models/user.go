package models

import (
	"time"

	"gorm.io/gorm"
)

// UserType says what a whitelisted user may do: reporters create and edit
// bad actor entries, listeners only receive broadcasts.
type UserType string

const (
	UserTypeReporter UserType = "reporter"
	UserTypeListener UserType = "listener"
)

// User is a whitelisted operator and the servers they act in. The admin
// server is always part of the list.
type User struct {
	ID        string     `gorm:"primaryKey;size:32"`
	UserType  UserType   `gorm:"size:16"`
	Servers   StringList `gorm:"type:text"`
	CreatedAt time.Time
}

// UserStore provides database access to the user whitelist.
type UserStore struct {
	DB *gorm.DB

	// AdminServerID is forced into every user's server list.
	AdminServerID string
}

// Create adds a user to the whitelist.
func (s *UserStore) Create(user User) (*User, error) {
	user.Servers = s.withAdminServer(user.Servers)
	if err := s.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Get returns a whitelisted user, or gorm.ErrRecordNotFound.
func (s *UserStore) Get(id string) (*User, error) {
	var user User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update replaces a user's type and server list.
func (s *UserStore) Update(user User) (*User, error) {
	user.Servers = s.withAdminServer(user.Servers)
	if err := s.DB.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user from the whitelist and returns the removed row so
// the caller can clean up orphaned server configs.
func (s *UserStore) Delete(id string) (*User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Delete(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// All returns every whitelisted user.
func (s *UserStore) All() ([]User, error) {
	var users []User
	err := s.DB.Find(&users).Error
	return users, err
}

// ByServer returns the users whose server list contains the given server.
// The whitelist is small, so filtering in memory keeps the query portable
// across postgres and sqlite.
func (s *UserStore) ByServer(serverID string) ([]User, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	var users []User
	for _, user := range all {
		if user.Servers.Contains(serverID) {
			users = append(users, user)
		}
	}
	return users, nil
}

// UniqueServerIDs returns every server mentioned by any user.
func (s *UserStore) UniqueServerIDs() ([]string, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var ids []string
	for _, user := range all {
		for _, id := range user.Servers {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (s *UserStore) withAdminServer(servers StringList) StringList {
	if s.AdminServerID == "" || servers.Contains(s.AdminServerID) {
		return servers
	}
	return append(servers, s.AdminServerID)
}
