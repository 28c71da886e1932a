package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glanzwerk/beleg/internal/clock"
	"github.com/glanzwerk/beleg/internal/config"
	"github.com/glanzwerk/beleg/internal/settings/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Settings{}))

	pricing, err := config.NewPricingConfigHolder(zap.NewNop())
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC))
	return New(Params{DB: db, Log: zap.NewNop(), Clock: fake, Pricing: pricing})
}

func TestGet_FallsBackToPricingDefaults(t *testing.T) {
	svc := newTestService(t)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SettingsRowID, settings.ID)
	assert.Equal(t, int64(9000), settings.DefaultHourlyRateCents)
	assert.Equal(t, 10, settings.WorkUnitMinutes)
}

func TestUpdate_UpsertsSingleRow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	name := "  Glanzwerk Fahrzeugpflege  "
	rate := int64(11000)
	updated, err := svc.Update(ctx, domain.UpdateSettingsRequest{
		CompanyName:            &name,
		DefaultHourlyRateCents: &rate,
	})
	require.NoError(t, err)
	assert.Equal(t, "Glanzwerk Fahrzeugpflege", updated.CompanyName)
	assert.Equal(t, int64(11000), updated.DefaultHourlyRateCents)
	// untouched fields keep the fallback defaults
	assert.Equal(t, 10, updated.WorkUnitMinutes)

	minutes := 15
	updated, err = svc.Update(ctx, domain.UpdateSettingsRequest{WorkUnitMinutes: &minutes})
	require.NoError(t, err)
	assert.Equal(t, "Glanzwerk Fahrzeugpflege", updated.CompanyName)
	assert.Equal(t, int64(11000), updated.DefaultHourlyRateCents)
	assert.Equal(t, 15, updated.WorkUnitMinutes)

	stored, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated.DefaultHourlyRateCents, stored.DefaultHourlyRateCents)
	assert.Equal(t, updated.WorkUnitMinutes, stored.WorkUnitMinutes)
}

func TestUpdate_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	badRate := int64(-100)
	_, err := svc.Update(ctx, domain.UpdateSettingsRequest{DefaultHourlyRateCents: &badRate})
	assert.ErrorIs(t, err, domain.ErrInvalidRate)

	badMinutes := 0
	_, err = svc.Update(ctx, domain.UpdateSettingsRequest{WorkUnitMinutes: &badMinutes})
	assert.ErrorIs(t, err, domain.ErrInvalidMinutes)
}
