package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Vehicle struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;index" json:"customer_id"`
	Make       string       `gorm:"not null" json:"make"`
	Model      string       `gorm:"not null" json:"model"`
	VIN        string       `gorm:"column:vin;type:text" json:"vin,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Vehicle) TableName() string { return "vehicles" }
