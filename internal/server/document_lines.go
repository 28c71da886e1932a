package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	documentdomain "github.com/glanzwerk/beleg/internal/document/domain"
)

type addLineRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Qty          float64 `json:"qty"`
	UnitNetCents int64   `json:"unit_net_cents"`
	VatRate      int     `json:"vat_rate"`
	DiscountPct  float64 `json:"discount_pct"`
	TaxTreatment string  `json:"tax_treatment"`
}

func (s *Server) AddDocumentLine(c *gin.Context) {
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.documentSvc.AddLine(c.Request.Context(), documentdomain.AddLineRequest{
		DocumentID:   strings.TrimSpace(c.Param("id")),
		Title:        req.Title,
		Description:  req.Description,
		Qty:          req.Qty,
		UnitNetCents: req.UnitNetCents,
		VatRate:      req.VatRate,
		DiscountPct:  req.DiscountPct,
		TaxTreatment: documentdomain.TaxTreatment(strings.ToUpper(strings.TrimSpace(req.TaxTreatment))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateLineRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Qty          *float64 `json:"qty"`
	UnitNetCents *int64   `json:"unit_net_cents"`
	VatRate      *int     `json:"vat_rate"`
	DiscountPct  *float64 `json:"discount_pct"`
	TaxTreatment *string  `json:"tax_treatment"`
}

func (s *Server) UpdateDocumentLine(c *gin.Context) {
	var req updateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := documentdomain.UpdateLineRequest{
		DocumentID:   strings.TrimSpace(c.Param("id")),
		LineID:       strings.TrimSpace(c.Param("lineId")),
		Title:        req.Title,
		Description:  req.Description,
		Qty:          req.Qty,
		UnitNetCents: req.UnitNetCents,
		VatRate:      req.VatRate,
		DiscountPct:  req.DiscountPct,
	}
	if req.TaxTreatment != nil {
		treatment := documentdomain.TaxTreatment(strings.ToUpper(strings.TrimSpace(*req.TaxTreatment)))
		update.TaxTreatment = &treatment
	}

	resp, err := s.documentSvc.UpdateLine(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type moveLineRequest struct {
	NewPosition int `json:"new_position"`
}

func (s *Server) MoveDocumentLine(c *gin.Context) {
	var req moveLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.documentSvc.MoveLine(c.Request.Context(), documentdomain.MoveLineRequest{
		DocumentID:  strings.TrimSpace(c.Param("id")),
		LineID:      strings.TrimSpace(c.Param("lineId")),
		NewPosition: req.NewPosition,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"moved": true}})
}

func (s *Server) DeleteDocumentLine(c *gin.Context) {
	err := s.documentSvc.DeleteLine(
		c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("lineId")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
