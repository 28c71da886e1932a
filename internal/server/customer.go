package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/glanzwerk/beleg/internal/customer/domain"
	vehicledomain "github.com/glanzwerk/beleg/internal/vehicle/domain"
	"github.com/glanzwerk/beleg/pkg/db/pagination"
)

type createCustomerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	IsBusiness      bool   `json:"is_business"`
	HourlyRateCents *int64 `json:"hourly_rate_cents"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		IsBusiness:      req.IsBusiness,
		HourlyRateCents: req.HourlyRateCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name       string `form:"name"`
		IsBusiness string `form:"is_business"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isBusiness, err := parseOptionalBool(query.IsBusiness)
	if err != nil {
		AbortWithError(c, newValidationError("is_business", "invalid_is_business", "invalid is_business"))
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		Name:       strings.TrimSpace(query.Name),
		IsBusiness: isBusiness,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomerVehicles(c *gin.Context) {
	resp, err := s.vehicleSvc.ListByCustomer(c.Request.Context(), vehicledomain.ListVehicleRequest{
		CustomerID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
