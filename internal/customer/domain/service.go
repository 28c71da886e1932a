package domain

import (
	"context"
	"errors"

	"github.com/glanzwerk/beleg/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken  string
	PageSize   int32
	Name       string
	IsBusiness *bool
}

type ListCustomerFilter struct {
	Name       string
	IsBusiness *bool
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name            string
	Email           string
	IsBusiness      bool
	HourlyRateCents *int64
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidRate = errors.New("invalid_rate")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
)
