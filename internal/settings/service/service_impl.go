package service

import (
	"context"
	"strings"

	"github.com/glanzwerk/beleg/internal/clock"
	"github.com/glanzwerk/beleg/internal/config"
	"github.com/glanzwerk/beleg/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Pricing *config.PricingConfigHolder
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	pricing *config.PricingConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("settings.service"),
		clock:   p.Clock,
		pricing: p.Pricing,
	}
}

// Get returns the stored settings row. When the row is missing the shop
// falls back to the pricing config defaults.
func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, company_name, default_hourly_rate_cents, work_unit_minutes, updated_at
		 FROM settings WHERE id = ?`,
		domain.SettingsRowID,
	).Scan(&settings).Error
	if err != nil {
		return domain.Settings{}, err
	}
	if settings.ID == 0 {
		defaults := s.pricing.Current()
		return domain.Settings{
			ID:                     domain.SettingsRowID,
			DefaultHourlyRateCents: defaults.DefaultHourlyRateCents,
			WorkUnitMinutes:        defaults.WorkUnitMinutes,
		}, nil
	}
	return settings, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSettingsRequest) (domain.Settings, error) {
	if req.DefaultHourlyRateCents != nil && *req.DefaultHourlyRateCents <= 0 {
		return domain.Settings{}, domain.ErrInvalidRate
	}
	if req.WorkUnitMinutes != nil && *req.WorkUnitMinutes <= 0 {
		return domain.Settings{}, domain.ErrInvalidMinutes
	}

	var updated domain.Settings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.lockRow(ctx, tx)
		if err != nil {
			return err
		}

		if req.CompanyName != nil {
			current.CompanyName = strings.TrimSpace(*req.CompanyName)
		}
		if req.DefaultHourlyRateCents != nil {
			current.DefaultHourlyRateCents = *req.DefaultHourlyRateCents
		}
		if req.WorkUnitMinutes != nil {
			current.WorkUnitMinutes = *req.WorkUnitMinutes
		}
		current.UpdatedAt = s.clock.Now()

		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO settings (id, company_name, default_hourly_rate_cents, work_unit_minutes, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   company_name = excluded.company_name,
			   default_hourly_rate_cents = excluded.default_hourly_rate_cents,
			   work_unit_minutes = excluded.work_unit_minutes,
			   updated_at = excluded.updated_at`,
			domain.SettingsRowID,
			current.CompanyName,
			current.DefaultHourlyRateCents,
			current.WorkUnitMinutes,
			current.UpdatedAt,
		).Error; err != nil {
			return err
		}

		updated = current
		return nil
	})
	if err != nil {
		return domain.Settings{}, err
	}
	return updated, nil
}

func (s *Service) lockRow(ctx context.Context, tx *gorm.DB) (domain.Settings, error) {
	var settings domain.Settings
	err := tx.WithContext(ctx).Raw(
		`SELECT id, company_name, default_hourly_rate_cents, work_unit_minutes, updated_at
		 FROM settings WHERE id = ?`+lockSuffix(tx),
		domain.SettingsRowID,
	).Scan(&settings).Error
	if err != nil {
		return domain.Settings{}, err
	}
	if settings.ID == 0 {
		defaults := s.pricing.Current()
		settings = domain.Settings{
			ID:                     domain.SettingsRowID,
			DefaultHourlyRateCents: defaults.DefaultHourlyRateCents,
			WorkUnitMinutes:        defaults.WorkUnitMinutes,
		}
	}
	return settings, nil
}

// lockSuffix returns a row-lock clause where the dialect supports one.
// SQLite has no row locks; its writers serialize on the database lock.
func lockSuffix(tx *gorm.DB) string {
	if tx.Dialector.Name() == "sqlite" {
		return ""
	}
	return " FOR UPDATE"
}
