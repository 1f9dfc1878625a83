package models

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to the database and migrates the schema.
func Open(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Admin{}, &User{}, &ServerConfig{}, &BadActor{})
}
