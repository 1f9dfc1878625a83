package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// BadActor is a report of a misbehaving user, broadcast to all listening
// servers. A user has at most one active entry at a time.
type BadActor struct {
	ID                  uint      `gorm:"primaryKey"`
	UserID              string    `gorm:"size:32;index"`
	IsActive            bool      `gorm:"default:true"`
	ActorType           ActorType `gorm:"size:16"`
	ScreenshotProof     string
	Explanation         string
	OriginallyCreatedIn string `gorm:"size:32"`
	LastChangedBy       string `gorm:"size:32"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

var (
	// ErrNoEvidence is returned when a report carries neither a screenshot
	// nor an explanation.
	ErrNoEvidence = errors.New("a report needs a screenshot or an explanation")

	// ErrActiveCaseExists is returned together with the existing entry when
	// the reported user already has an active case.
	ErrActiveCaseExists = errors.New("user already has an active case")
)

// BadActorStore provides database access to bad actor entries.
type BadActorStore struct {
	DB *gorm.DB
}

// Create inserts a new active entry. It refuses to create a second active
// case for the same user; the existing entry is returned alongside
// ErrActiveCaseExists so callers can surface it. The lookup and insert run
// in one transaction to close the check-then-act window.
func (s *BadActorStore) Create(actor BadActor) (*BadActor, error) {
	if actor.ScreenshotProof == "" && actor.Explanation == "" {
		return nil, ErrNoEvidence
	}
	if !actor.ActorType.Valid() {
		return nil, errors.New("invalid actor type " + string(actor.ActorType))
	}

	actor.ID = 0
	actor.IsActive = true

	var existing *BadActor
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		active, err := activeCase(tx, actor.UserID)
		if err != nil {
			return err
		}
		if active != nil {
			existing = active
			return ErrActiveCaseExists
		}
		return tx.Create(&actor).Error
	})
	if errors.Is(err, ErrActiveCaseExists) {
		return existing, err
	}
	if err != nil {
		return nil, err
	}
	return &actor, nil
}

// ActiveCase returns the user's active entry, or nil if there is none.
func (s *BadActorStore) ActiveCase(userID string) (*BadActor, error) {
	return activeCase(s.DB, userID)
}

func activeCase(db *gorm.DB, userID string) (*BadActor, error) {
	var actor BadActor
	err := db.Where("user_id = ? AND is_active = ?", userID, true).First(&actor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &actor, nil
}

// ByID returns a single entry by its database ID.
func (s *BadActorStore) ByID(id uint) (*BadActor, error) {
	var actor BadActor
	if err := s.DB.First(&actor, id).Error; err != nil {
		return nil, err
	}
	return &actor, nil
}

// ByUser returns up to ten entries for a user, newest first.
func (s *BadActorStore) ByUser(userID string) ([]BadActor, error) {
	var actors []BadActor
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(10).
		Find(&actors).Error
	return actors, err
}

// Latest returns the newest entries. filter is "all", "active" or
// "inactive".
func (s *BadActorStore) Latest(limit int, filter string) ([]BadActor, error) {
	query := s.DB.Order("created_at DESC").Limit(limit)

	switch filter {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}

	var actors []BadActor
	err := query.Find(&actors).Error
	return actors, err
}

// Deactivate closes an entry, recording why and by whom.
func (s *BadActorStore) Deactivate(id uint, explanation, changedBy string) (*BadActor, error) {
	return s.setActive(id, false, explanation, changedBy)
}

// Reactivate reopens an entry, recording why and by whom.
func (s *BadActorStore) Reactivate(id uint, explanation, changedBy string) (*BadActor, error) {
	return s.setActive(id, true, explanation, changedBy)
}

func (s *BadActorStore) setActive(id uint, active bool, explanation, changedBy string) (*BadActor, error) {
	return s.update(id, map[string]interface{}{
		"is_active":       active,
		"explanation":     explanation,
		"last_changed_by": changedBy,
	})
}

// UpdateScreenshot replaces the screenshot reference of an entry.
func (s *BadActorStore) UpdateScreenshot(id uint, screenshot, changedBy string) (*BadActor, error) {
	return s.update(id, map[string]interface{}{
		"screenshot_proof": screenshot,
		"last_changed_by":  changedBy,
	})
}

// UpdateExplanation replaces the explanation of an entry.
func (s *BadActorStore) UpdateExplanation(id uint, explanation, changedBy string) (*BadActor, error) {
	return s.update(id, map[string]interface{}{
		"explanation":     explanation,
		"last_changed_by": changedBy,
	})
}

func (s *BadActorStore) update(id uint, fields map[string]interface{}) (*BadActor, error) {
	actor, err := s.ByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(actor).Updates(fields).Error; err != nil {
		return nil, err
	}
	return s.ByID(id)
}

// Delete removes an entry entirely. Only the admin purge path uses this.
func (s *BadActorStore) Delete(id uint) (*BadActor, error) {
	actor, err := s.ByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Delete(actor).Error; err != nil {
		return nil, err
	}
	return actor, nil
}
