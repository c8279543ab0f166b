package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Settings represents the global configuration for the single-tenant
// deployment. This is a singleton model (only one row should exist).
type Settings struct {
	BaseModel
	// JWTSecret is auto-generated during the first setup (64 hex chars)
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"`
}

// Account represents an identity-provider account. The console only ever
// creates one (the configured administrator), but the provider stores
// accounts generically.
type Account struct {
	BaseModel
	Email        string `json:"email" gorm:"not null;unique"`
	Name         string `json:"name"`
	PasswordHash string `json:"-" gorm:"not null"`
}

// AnalyticsEvent is a persisted analytics event consumed off the queue by
// the worker. Detail carries the event-specific tag (provider error code
// for auth errors, page name for page views).
type AnalyticsEvent struct {
	BaseModel
	Type   string `json:"type" gorm:"not null;index"`
	Detail string `json:"detail"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Settings{},
		&Account{},
		&AnalyticsEvent{},
	)
}
