package domain

import (
	"context"
	"errors"
)

type CreateVehicleRequest struct {
	CustomerID string
	Make       string
	Model      string
	VIN        string
}

type ListVehicleRequest struct {
	CustomerID string
}

type Service interface {
	Create(context.Context, CreateVehicleRequest) (Vehicle, error)
	ListByCustomer(context.Context, ListVehicleRequest) ([]Vehicle, error)
	GetByID(ctx context.Context, id string) (Vehicle, error)
}

var (
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidMake     = errors.New("invalid_make")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
)
