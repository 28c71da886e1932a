package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glanzwerk/beleg/internal/clock"
	customerdomain "github.com/glanzwerk/beleg/internal/customer/domain"
	customerrepo "github.com/glanzwerk/beleg/internal/customer/repository"
	"github.com/glanzwerk/beleg/internal/workrecord/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&customerdomain.Customer{}, &domain.WorkRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clock.NewFakeClock(testNow),
		CustomerRepo: customerrepo.Provide(),
	})
	return svc, db, node
}

func seedCustomer(t *testing.T, db *gorm.DB, node *snowflake.Node) customerdomain.Customer {
	t.Helper()

	now := time.Now().UTC()
	customer := customerdomain.Customer{
		ID:        node.Generate(),
		Name:      "Frau Schmidt",
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, customerrepo.Provide().Insert(context.Background(), db, &customer))
	return customer
}

func TestCreate_OpensRecordForCustomer(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	customer := seedCustomer(t, db, node)
	record, err := svc.Create(ctx, domain.CreateWorkRecordRequest{CustomerID: customer.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, domain.WorkRecordStatusOpen, record.Status)
	assert.Equal(t, customer.ID, record.CustomerID)
	assert.Zero(t, record.SecondsInnen)
	assert.Equal(t, testNow, record.CreatedAt)

	got, err := svc.GetByID(ctx, record.ID.String())
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
}

func TestCreate_RequiresExistingCustomer(t *testing.T) {
	svc, _, node := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateWorkRecordRequest{CustomerID: "garbage"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.Create(ctx, domain.CreateWorkRecordRequest{CustomerID: node.Generate().String()})
	assert.ErrorIs(t, err, customerdomain.ErrNotFound)
}

func TestAddTime_AccumulatesPerCategory(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	customer := seedCustomer(t, db, node)
	record, err := svc.Create(ctx, domain.CreateWorkRecordRequest{CustomerID: customer.ID.String()})
	require.NoError(t, err)

	updated, err := svc.AddTime(ctx, domain.AddTimeRequest{
		ID:       record.ID.String(),
		Category: domain.CategoryInnen,
		Seconds:  900,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(900), updated.SecondsInnen)

	updated, err = svc.AddTime(ctx, domain.AddTimeRequest{
		ID:       record.ID.String(),
		Category: domain.CategoryInnen,
		Seconds:  300,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), updated.SecondsInnen)

	updated, err = svc.AddTime(ctx, domain.AddTimeRequest{
		ID:       record.ID.String(),
		Category: domain.CategoryPolieren,
		Seconds:  600,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), updated.SecondsInnen)
	assert.Equal(t, int64(600), updated.SecondsPolieren)
}

func TestAddTime_Validation(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	customer := seedCustomer(t, db, node)
	record, err := svc.Create(ctx, domain.CreateWorkRecordRequest{CustomerID: customer.ID.String()})
	require.NoError(t, err)

	_, err = svc.AddTime(ctx, domain.AddTimeRequest{
		ID:       record.ID.String(),
		Category: domain.CategoryInnen,
		Seconds:  0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSeconds)

	_, err = svc.AddTime(ctx, domain.AddTimeRequest{
		ID:       record.ID.String(),
		Category: domain.WorkCategory("LACKIEREN"),
		Seconds:  60,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	_, err = svc.AddTime(ctx, domain.AddTimeRequest{
		ID:       node.Generate().String(),
		Category: domain.CategoryInnen,
		Seconds:  60,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddTime_RejectsBilledRecords(t *testing.T) {
	svc, db, node := newTestService(t)
	ctx := context.Background()

	customer := seedCustomer(t, db, node)
	record, err := svc.Create(ctx, domain.CreateWorkRecordRequest{CustomerID: customer.ID.String()})
	require.NoError(t, err)

	invoiceID := node.Generate()
	require.NoError(t, db.Exec(
		`UPDATE work_records SET status = ?, invoice_id = ? WHERE id = ?`,
		domain.WorkRecordStatusBilled,
		invoiceID,
		record.ID,
	).Error)

	_, err = svc.AddTime(ctx, domain.AddTimeRequest{
		ID:       record.ID.String(),
		Category: domain.CategoryInnen,
		Seconds:  60,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyBilled)
}
