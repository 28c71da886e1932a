package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	documentdomain "github.com/glanzwerk/beleg/internal/document/domain"
	"github.com/glanzwerk/beleg/pkg/db/pagination"
)

type createDocumentRequest struct {
	DocType    string `json:"doc_type"`
	OfferType  string `json:"offer_type"`
	CustomerID string `json:"customer_id"`
	VehicleID  string `json:"vehicle_id"`
}

func (s *Server) CreateDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.documentSvc.Create(c.Request.Context(), documentdomain.CreateDocumentRequest{
		DocType:    documentdomain.DocType(strings.ToUpper(strings.TrimSpace(req.DocType))),
		OfferType:  documentdomain.OfferType(strings.ToUpper(strings.TrimSpace(req.OfferType))),
		CustomerID: strings.TrimSpace(req.CustomerID),
		VehicleID:  strings.TrimSpace(req.VehicleID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDocument(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	if cached, ok := s.docCache.GetDetail(id); ok {
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}

	resp, err := s.documentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.docCache.SetDetail(id, resp)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDocuments(c *gin.Context) {
	var query struct {
		pagination.Pagination
		DocType    string `form:"doc_type"`
		Status     string `form:"status"`
		CustomerID string `form:"customer_id"`
		Year       string `form:"year"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := documentdomain.ListDocumentRequest{
		Pagination: query.Pagination,
	}
	if docType := strings.ToUpper(strings.TrimSpace(query.DocType)); docType != "" {
		parsed := documentdomain.DocType(docType)
		if !parsed.Valid() {
			AbortWithError(c, newValidationError("doc_type", "invalid_doc_type", "invalid doc_type"))
			return
		}
		req.DocType = &parsed
	}
	if status := strings.ToUpper(strings.TrimSpace(query.Status)); status != "" {
		parsed := documentdomain.DocStatus(status)
		req.Status = &parsed
	}
	if customerID := strings.TrimSpace(query.CustomerID); customerID != "" {
		req.CustomerID = &customerID
	}
	year, err := parseOptionalInt(query.Year)
	if err != nil {
		AbortWithError(c, newValidationError("year", "invalid_year", "invalid year"))
		return
	}
	req.Year = year

	cacheable := req.DocType != nil && query.PageToken == ""
	cacheKey := c.Request.URL.RawQuery
	if cacheable {
		if cached, ok := s.docCache.GetList(string(*req.DocType), cacheKey); ok {
			c.JSON(http.StatusOK, gin.H{"data": cached})
			return
		}
	}

	resp, err := s.documentSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if cacheable && !resp.HasMore {
		s.docCache.SetList(string(*req.DocType), cacheKey, resp)
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateDocumentBasicsRequest struct {
	IssueDate     string  `json:"issue_date"`
	DueDate       string  `json:"due_date"`
	ServiceDate   string  `json:"service_date"`
	ValidUntil    string  `json:"valid_until"`
	DeliveryDate  string  `json:"delivery_date"`
	NotesPublic   *string `json:"notes_public"`
	NotesInternal *string `json:"notes_internal"`
}

func (s *Server) UpdateDocumentBasics(c *gin.Context) {
	var req updateDocumentBasicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := documentdomain.UpdateBasicsRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		NotesPublic:   req.NotesPublic,
		NotesInternal: req.NotesInternal,
	}

	dates := []struct {
		raw   string
		field string
		dst   **time.Time
	}{
		{req.IssueDate, "issue_date", &update.IssueDate},
		{req.DueDate, "due_date", &update.DueDate},
		{req.ServiceDate, "service_date", &update.ServiceDate},
		{req.ValidUntil, "valid_until", &update.ValidUntil},
		{req.DeliveryDate, "delivery_date", &update.DeliveryDate},
	}
	for _, d := range dates {
		parsed, err := parseOptionalTime(d.raw, false)
		if err != nil {
			AbortWithError(c, newValidationError(d.field, "invalid_"+d.field, "invalid "+d.field))
			return
		}
		*d.dst = parsed
	}

	resp, err := s.documentSvc.UpdateBasics(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteDocument(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.documentSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

type assignCustomerRequest struct {
	CustomerID string `json:"customer_id"`
}

func (s *Server) AssignDocumentCustomer(c *gin.Context) {
	var req assignCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.documentSvc.AssignCustomer(c.Request.Context(), documentdomain.AssignCustomerRequest{
		ID:         strings.TrimSpace(c.Param("id")),
		CustomerID: strings.TrimSpace(req.CustomerID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type assignVehicleRequest struct {
	VehicleID string `json:"vehicle_id"`
}

func (s *Server) AssignDocumentVehicle(c *gin.Context) {
	var req assignVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.documentSvc.AssignVehicle(c.Request.Context(), documentdomain.AssignVehicleRequest{
		ID:        strings.TrimSpace(c.Param("id")),
		VehicleID: strings.TrimSpace(req.VehicleID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ToggleFinalizeDocument(c *gin.Context) {
	resp, err := s.documentSvc.ToggleFinalize(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type setPaidRequest struct {
	PaidAt string `json:"paid_at"`
}

func (s *Server) SetDocumentPaid(c *gin.Context) {
	var req setPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paidAt, err := parseOptionalTime(req.PaidAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("paid_at", "invalid_paid_at", "invalid paid_at"))
		return
	}

	resp, err := s.documentSvc.SetPaid(c.Request.Context(), documentdomain.SetPaidRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		PaidAt: paidAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetDocumentSent(c *gin.Context) {
	resp, err := s.documentSvc.SetSent(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelDocument(c *gin.Context) {
	resp, err := s.documentSvc.Cancel(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ConvertOfferToInvoice(c *gin.Context) {
	resp, err := s.documentSvc.ConvertOfferToInvoice(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type creditNoteRequest struct {
	Selections []struct {
		LineID string  `json:"line_id"`
		Qty    float64 `json:"qty"`
	} `json:"selections"`
}

func (s *Server) CreditNoteFromInvoice(c *gin.Context) {
	var req creditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	selections := make([]documentdomain.CreditSelection, 0, len(req.Selections))
	for _, sel := range req.Selections {
		selections = append(selections, documentdomain.CreditSelection{
			LineID: strings.TrimSpace(sel.LineID),
			Qty:    sel.Qty,
		})
	}

	resp, err := s.documentSvc.CreditNoteFromInvoice(c.Request.Context(), documentdomain.CreditNoteRequest{
		InvoiceID:  strings.TrimSpace(c.Param("id")),
		Selections: selections,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) StornoFromInvoice(c *gin.Context) {
	resp, err := s.documentSvc.StornoFromInvoice(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
