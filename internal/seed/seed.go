package seed

import (
	"context"
	"errors"

	"github.com/glanzwerk/beleg/internal/config"
	settingsdomain "github.com/glanzwerk/beleg/internal/settings/domain"
	"gorm.io/gorm"
)

const defaultCompanyName = "Glanzwerk Fahrzeugpflege"

// EnsureSettings seeds the single settings row on startup so billing
// defaults are always resolvable. An existing row is left untouched.
func EnsureSettings(db *gorm.DB, pricing config.PricingConfig) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Exec(
		`INSERT INTO settings (id, company_name, default_hourly_rate_cents, work_unit_minutes, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (id) DO NOTHING`,
		settingsdomain.SettingsRowID,
		defaultCompanyName,
		pricing.DefaultHourlyRateCents,
		pricing.WorkUnitMinutes,
	).Error
}
