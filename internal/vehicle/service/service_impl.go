package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/glanzwerk/beleg/internal/clock"
	customerdomain "github.com/glanzwerk/beleg/internal/customer/domain"
	"github.com/glanzwerk/beleg/internal/vehicle/domain"
	"github.com/glanzwerk/beleg/pkg/db/option"
	"github.com/glanzwerk/beleg/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
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
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	vehiclerepo repository.Repository[domain.Vehicle]
	customers   customerdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("vehicle.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		vehiclerepo: repository.ProvideStore[domain.Vehicle](p.DB),
		customers:   p.CustomerRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateVehicleRequest) (domain.Vehicle, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return domain.Vehicle{}, domain.ErrInvalidCustomer
	}

	owner, err := s.customers.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if owner == nil {
		return domain.Vehicle{}, customerdomain.ErrNotFound
	}

	make := strings.TrimSpace(req.Make)
	if make == "" {
		return domain.Vehicle{}, domain.ErrInvalidMake
	}

	now := s.clock.Now()
	vehicle := domain.Vehicle{
		ID:         s.genID.Generate(),
		CustomerID: customerID,
		Make:       make,
		Model:      strings.TrimSpace(req.Model),
		VIN:        strings.ToUpper(strings.TrimSpace(req.VIN)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.vehiclerepo.Create(ctx, &vehicle); err != nil {
		return domain.Vehicle{}, err
	}

	return vehicle, nil
}

func (s *Service) ListByCustomer(ctx context.Context, req domain.ListVehicleRequest) ([]domain.Vehicle, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}

	items, err := s.vehiclerepo.Find(ctx, &domain.Vehicle{CustomerID: customerID},
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return nil, err
	}

	vehicles := make([]domain.Vehicle, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		vehicles = append(vehicles, *item)
	}
	return vehicles, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Vehicle, error) {
	vehicleID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || vehicleID == 0 {
		return domain.Vehicle{}, domain.ErrInvalidID
	}

	item, err := s.vehiclerepo.FindOne(ctx, &domain.Vehicle{ID: vehicleID})
	if err != nil {
		return domain.Vehicle{}, err
	}
	if item == nil {
		return domain.Vehicle{}, domain.ErrNotFound
	}

	return *item, nil
}
