package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	documentdomain "github.com/glanzwerk/beleg/internal/document/domain"
	workrecorddomain "github.com/glanzwerk/beleg/internal/workrecord/domain"
)

type createWorkRecordRequest struct {
	CustomerID      string `json:"customer_id"`
	VehicleID       string `json:"vehicle_id"`
	HourlyRateCents *int64 `json:"hourly_rate_cents"`
}

func (s *Server) CreateWorkRecord(c *gin.Context) {
	var req createWorkRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.workRecordSvc.Create(c.Request.Context(), workrecorddomain.CreateWorkRecordRequest{
		CustomerID:      strings.TrimSpace(req.CustomerID),
		VehicleID:       strings.TrimSpace(req.VehicleID),
		HourlyRateCents: req.HourlyRateCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetWorkRecordByID(c *gin.Context) {
	resp, err := s.workRecordSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type addWorkTimeRequest struct {
	Category string `json:"category"`
	Seconds  int64  `json:"seconds"`
}

func (s *Server) AddWorkRecordTime(c *gin.Context) {
	var req addWorkTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.workRecordSvc.AddTime(c.Request.Context(), workrecorddomain.AddTimeRequest{
		ID:       strings.TrimSpace(c.Param("id")),
		Category: workrecorddomain.WorkCategory(strings.ToUpper(strings.TrimSpace(req.Category))),
		Seconds:  req.Seconds,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type invoiceWorkRecordRequest struct {
	HourlyRateCents *int64 `json:"hourly_rate_cents"`
}

func (s *Server) InvoiceWorkRecord(c *gin.Context) {
	var req invoiceWorkRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.documentSvc.InvoiceFromWorkRecord(c.Request.Context(), documentdomain.InvoiceFromWorkRecordRequest{
		WorkRecordID:    strings.TrimSpace(c.Param("id")),
		HourlyRateCents: req.HourlyRateCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
