package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/glanzwerk/beleg/internal/clock"
	customerdomain "github.com/glanzwerk/beleg/internal/customer/domain"
	"github.com/glanzwerk/beleg/internal/workrecord/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	CustomerRepo customerdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	customers customerdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("workrecord.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		customers: p.CustomerRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateWorkRecordRequest) (domain.WorkRecord, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return domain.WorkRecord{}, domain.ErrInvalidID
	}

	owner, err := s.customers.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.WorkRecord{}, err
	}
	if owner == nil {
		return domain.WorkRecord{}, customerdomain.ErrNotFound
	}

	var vehicleID *snowflake.ID
	if trimmed := strings.TrimSpace(req.VehicleID); trimmed != "" {
		parsed, err := snowflake.ParseString(trimmed)
		if err != nil || parsed == 0 {
			return domain.WorkRecord{}, domain.ErrInvalidID
		}
		vehicleID = &parsed
	}

	now := s.clock.Now()
	record := domain.WorkRecord{
		ID:              s.genID.Generate(),
		CustomerID:      customerID,
		VehicleID:       vehicleID,
		Status:          domain.WorkRecordStatusOpen,
		HourlyRateCents: req.HourlyRateCents,
		Metadata:        datatypes.JSONMap{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return domain.WorkRecord{}, err
	}

	return record, nil
}

// AddTime accumulates aggregated billable seconds reported by the time
// tracker into one category bucket. Billed records are closed for writes.
func (s *Service) AddTime(ctx context.Context, req domain.AddTimeRequest) (domain.WorkRecord, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.WorkRecord{}, domain.ErrInvalidID
	}
	if req.Seconds <= 0 {
		return domain.WorkRecord{}, domain.ErrInvalidSeconds
	}

	column, ok := secondsColumn(req.Category)
	if !ok {
		return domain.WorkRecord{}, domain.ErrInvalidCategory
	}

	var updated domain.WorkRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.loadForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		if record.Status == domain.WorkRecordStatusBilled {
			return domain.ErrAlreadyBilled
		}

		now := s.clock.Now()
		if err := tx.WithContext(ctx).Exec(
			`UPDATE work_records SET `+column+` = `+column+` + ?, updated_at = ? WHERE id = ?`,
			req.Seconds,
			now,
			id,
		).Error; err != nil {
			return err
		}

		reloaded, err := s.loadForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = *reloaded
		return nil
	})
	if err != nil {
		return domain.WorkRecord{}, err
	}
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.WorkRecord, error) {
	recordID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || recordID == 0 {
		return domain.WorkRecord{}, domain.ErrInvalidID
	}

	var record domain.WorkRecord
	err = s.db.WithContext(ctx).Raw(
		`SELECT * FROM work_records WHERE id = ?`,
		recordID,
	).Scan(&record).Error
	if err != nil {
		return domain.WorkRecord{}, err
	}
	if record.ID == 0 {
		return domain.WorkRecord{}, domain.ErrNotFound
	}
	return record, nil
}

func (s *Service) loadForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.WorkRecord, error) {
	var record domain.WorkRecord
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM work_records WHERE id = ?`+lockSuffix(tx),
		id,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

// lockSuffix returns a row-lock clause where the dialect supports one.
// SQLite has no row locks; its writers serialize on the database lock.
func lockSuffix(tx *gorm.DB) string {
	if tx.Dialector.Name() == "sqlite" {
		return ""
	}
	return " FOR UPDATE"
}

func secondsColumn(category domain.WorkCategory) (string, bool) {
	switch category {
	case domain.CategoryInnen:
		return "seconds_innen", true
	case domain.CategoryAussen:
		return "seconds_aussen", true
	case domain.CategoryPolieren:
		return "seconds_polieren", true
	case domain.CategorySonstiges:
		return "seconds_sonstiges", true
	default:
		return "", false
	}
}
