package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// WorkCategory buckets tracked time on a work record.
type WorkCategory string

const (
	CategoryInnen     WorkCategory = "INNEN"
	CategoryAussen    WorkCategory = "AUSSEN"
	CategoryPolieren  WorkCategory = "POLIEREN"
	CategorySonstiges WorkCategory = "SONSTIGES"
)

// Categories lists all work categories in billing order.
func Categories() []WorkCategory {
	return []WorkCategory{CategoryInnen, CategoryAussen, CategoryPolieren, CategorySonstiges}
}

// Label returns the human-readable line title for a category.
func (c WorkCategory) Label() string {
	switch c {
	case CategoryInnen:
		return "Innenreinigung"
	case CategoryAussen:
		return "Außenreinigung"
	case CategoryPolieren:
		return "Polieren"
	case CategorySonstiges:
		return "Sonstige Arbeiten"
	default:
		return string(c)
	}
}

type WorkRecordStatus string

const (
	WorkRecordStatusOpen   WorkRecordStatus = "OPEN"
	WorkRecordStatusBilled WorkRecordStatus = "BILLED"
)

// WorkRecord holds the aggregated billable seconds delivered by the
// external time tracker, grouped by category. InvoiceID links the record
// to the invoice generated from it; a non-zero link makes repeated
// conversion attempts idempotent.
type WorkRecord struct {
	ID               snowflake.ID     `gorm:"primaryKey" json:"id"`
	CustomerID       snowflake.ID     `gorm:"not null;index" json:"customer_id"`
	VehicleID        *snowflake.ID    `gorm:"index" json:"vehicle_id,omitempty"`
	Status           WorkRecordStatus `gorm:"type:text;not null;default:'OPEN'" json:"status"`
	SecondsInnen     int64            `gorm:"not null;default:0" json:"seconds_innen"`
	SecondsAussen    int64            `gorm:"not null;default:0" json:"seconds_aussen"`
	SecondsPolieren  int64            `gorm:"not null;default:0" json:"seconds_polieren"`
	SecondsSonstiges int64            `gorm:"not null;default:0" json:"seconds_sonstiges"`
	// HourlyRateCents is an explicit per-record override; it wins over
	// the customer rate and the shop default.
	HourlyRateCents *int64            `json:"hourly_rate_cents,omitempty"`
	InvoiceID       *snowflake.ID     `gorm:"index" json:"invoice_id,omitempty"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (WorkRecord) TableName() string { return "work_records" }

// SecondsFor returns the aggregated seconds of one category.
func (r WorkRecord) SecondsFor(category WorkCategory) int64 {
	switch category {
	case CategoryInnen:
		return r.SecondsInnen
	case CategoryAussen:
		return r.SecondsAussen
	case CategoryPolieren:
		return r.SecondsPolieren
	case CategorySonstiges:
		return r.SecondsSonstiges
	default:
		return 0
	}
}

type CreateWorkRecordRequest struct {
	CustomerID      string
	VehicleID       string
	HourlyRateCents *int64
}

type AddTimeRequest struct {
	ID       string
	Category WorkCategory
	Seconds  int64
}

type Service interface {
	Create(context.Context, CreateWorkRecordRequest) (WorkRecord, error)
	AddTime(context.Context, AddTimeRequest) (WorkRecord, error)
	GetByID(ctx context.Context, id string) (WorkRecord, error)
}

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidSeconds  = errors.New("invalid_seconds")
	ErrAlreadyBilled   = errors.New("already_billed")
)
