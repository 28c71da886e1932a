package domain

import (
	"context"
	"errors"
	"time"

	"github.com/glanzwerk/beleg/pkg/db/pagination"
)

type CreateDocumentRequest struct {
	DocType    DocType
	OfferType  OfferType
	CustomerID string
	VehicleID  string
}

type UpdateBasicsRequest struct {
	ID            string
	IssueDate     *time.Time
	DueDate       *time.Time
	ServiceDate   *time.Time
	ValidUntil    *time.Time
	DeliveryDate  *time.Time
	NotesPublic   *string
	NotesInternal *string
}

type AssignCustomerRequest struct {
	ID         string
	CustomerID string // empty clears the assignment
}

type AssignVehicleRequest struct {
	ID        string
	VehicleID string // empty clears the assignment
}

type AddLineRequest struct {
	DocumentID   string
	Title        string
	Description  string
	Qty          float64
	UnitNetCents int64
	VatRate      int
	DiscountPct  float64
	TaxTreatment TaxTreatment
}

type UpdateLineRequest struct {
	DocumentID   string
	LineID       string
	Title        *string
	Description  *string
	Qty          *float64
	UnitNetCents *int64
	VatRate      *int
	DiscountPct  *float64
	TaxTreatment *TaxTreatment
}

type MoveLineRequest struct {
	DocumentID  string
	LineID      string
	NewPosition int
}

type SetPaidRequest struct {
	ID     string
	PaidAt *time.Time // nil reverts PAID to SENT and is rejected once paid
}

type CreditSelection struct {
	LineID string
	Qty    float64
}

type CreditNoteRequest struct {
	InvoiceID  string
	Selections []CreditSelection
}

type InvoiceFromWorkRecordRequest struct {
	WorkRecordID    string
	HourlyRateCents *int64 // explicit override, wins over customer and shop rates
}

type ListDocumentRequest struct {
	pagination.Pagination
	DocType    *DocType
	Status     *DocStatus
	CustomerID *string
	Year       *int
}

type ListDocumentResponse struct {
	pagination.PageInfo
	Documents []Document `json:"documents"`
}

type DocumentWithLines struct {
	Document
	Lines []DocumentLine `json:"lines"`
}

type Service interface {
	Create(context.Context, CreateDocumentRequest) (Document, error)
	GetByID(ctx context.Context, id string) (DocumentWithLines, error)
	List(context.Context, ListDocumentRequest) (ListDocumentResponse, error)
	UpdateBasics(context.Context, UpdateBasicsRequest) (Document, error)
	AssignCustomer(context.Context, AssignCustomerRequest) (Document, error)
	AssignVehicle(context.Context, AssignVehicleRequest) (Document, error)
	Delete(ctx context.Context, id string) error

	AddLine(context.Context, AddLineRequest) (DocumentLine, error)
	UpdateLine(context.Context, UpdateLineRequest) (DocumentLine, error)
	MoveLine(context.Context, MoveLineRequest) error
	DeleteLine(ctx context.Context, documentID, lineID string) error

	ToggleFinalize(ctx context.Context, id string) (Document, error)
	SetPaid(context.Context, SetPaidRequest) (Document, error)
	SetSent(ctx context.Context, id string) (Document, error)
	Cancel(ctx context.Context, id string) (Document, error)

	ConvertOfferToInvoice(ctx context.Context, offerID string) (Document, error)
	CreditNoteFromInvoice(context.Context, CreditNoteRequest) (Document, error)
	StornoFromInvoice(ctx context.Context, invoiceID string) (Document, error)
	InvoiceFromWorkRecord(context.Context, InvoiceFromWorkRecordRequest) (Document, error)
}

var (
	ErrNotFound          = errors.New("not_found")
	ErrLineNotFound      = errors.New("line_not_found")
	ErrImmutableDocument = errors.New("immutable_document")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvalidSelection  = errors.New("invalid_selection")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidDocType    = errors.New("invalid_doc_type")
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidQty        = errors.New("invalid_qty")
	ErrInvalidVatRate    = errors.New("invalid_vat_rate")
	ErrInvalidDiscount   = errors.New("invalid_discount")
	ErrInvalidPosition   = errors.New("invalid_position")
)
