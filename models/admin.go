package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Admin is a bot operator allowed to manage the whitelist and purge
// entries.
type Admin struct {
	ID        string `gorm:"primaryKey;size:32"`
	CreatedAt time.Time
}

// AdminStore provides database access to the admin list.
type AdminStore struct {
	DB *gorm.DB
}

// Seed makes sure the superuser has an admin row. Called once at startup
// so a fresh database starts with at least one admin.
func (s *AdminStore) Seed(superuserID string) error {
	if superuserID == "" {
		return nil
	}
	admin := Admin{ID: superuserID}
	return s.DB.FirstOrCreate(&admin, "id = ?", superuserID).Error
}

// Add gives a user an admin row.
func (s *AdminStore) Add(id string) error {
	return s.DB.Create(&Admin{ID: id}).Error
}

// Remove takes a user's admin row away.
func (s *AdminStore) Remove(id string) error {
	return s.DB.Delete(&Admin{}, "id = ?", id).Error
}

// All returns every admin.
func (s *AdminStore) All() ([]Admin, error) {
	var admins []Admin
	err := s.DB.Find(&admins).Error
	return admins, err
}

// IsAdmin reports whether the user is an admin.
func (s *AdminStore) IsAdmin(id string) (bool, error) {
	var admin Admin
	err := s.DB.First(&admin, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
