package domain

import (
	"context"
	"errors"
	"time"
)

// Settings is the single-row company configuration consumed when billing
// work records and rendering documents.
type Settings struct {
	ID                     int       `gorm:"primaryKey" json:"id"`
	CompanyName            string    `gorm:"not null" json:"company_name"`
	DefaultHourlyRateCents int64     `gorm:"not null" json:"default_hourly_rate_cents"`
	WorkUnitMinutes        int       `gorm:"not null" json:"work_unit_minutes"`
	UpdatedAt              time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Settings) TableName() string { return "settings" }

// SettingsRowID is the fixed primary key of the single settings row.
const SettingsRowID = 1

type UpdateSettingsRequest struct {
	CompanyName            *string
	DefaultHourlyRateCents *int64
	WorkUnitMinutes        *int
}

type Service interface {
	Get(ctx context.Context) (Settings, error)
	Update(context.Context, UpdateSettingsRequest) (Settings, error)
}

var (
	ErrInvalidRate    = errors.New("invalid_rate")
	ErrInvalidMinutes = errors.New("invalid_minutes")
)
