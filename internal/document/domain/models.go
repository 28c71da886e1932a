// Package domain contains persistence models for commercial documents.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// DocType discriminates the commercial document variants.
type DocType string

const (
	DocTypeOffer            DocType = "OFFER"
	DocTypeInvoice          DocType = "INVOICE"
	DocTypeCreditNote       DocType = "CREDIT_NOTE"
	DocTypeStorno           DocType = "STORNO"
	DocTypePurchaseContract DocType = "PURCHASE_CONTRACT"
)

func (t DocType) Valid() bool {
	switch t {
	case DocTypeOffer, DocTypeInvoice, DocTypeCreditNote, DocTypeStorno, DocTypePurchaseContract:
		return true
	default:
		return false
	}
}

// FinalPrefix returns the permanent-number prefix for the document type.
func (t DocType) FinalPrefix() string {
	switch t {
	case DocTypeOffer:
		return "ANG"
	case DocTypeInvoice:
		return "RE"
	case DocTypeCreditNote:
		return "GS"
	case DocTypeStorno:
		return "ST"
	case DocTypePurchaseContract:
		return "ORD"
	default:
		return ""
	}
}

// OfferType distinguishes binding offers from estimates. Only meaningful
// for DocTypeOffer.
type OfferType string

const (
	OfferTypeOffer    OfferType = "OFFER"
	OfferTypeEstimate OfferType = "ESTIMATE"
)

// DocStatus represents document lifecycle states.
type DocStatus string

const (
	DocStatusDraft     DocStatus = "DRAFT"
	DocStatusSent      DocStatus = "SENT"
	DocStatusPaid      DocStatus = "PAID"
	DocStatusCancelled DocStatus = "CANCELLED"
	DocStatusConverted DocStatus = "CONVERTED"
)

// Immutable reports whether a document in this status rejects all edits.
func (s DocStatus) Immutable() bool {
	return s == DocStatusPaid || s == DocStatusCancelled
}

// TaxTreatment selects how a line's VAT is computed.
type TaxTreatment string

const (
	TaxTreatmentStandard TaxTreatment = "STANDARD"
	// TaxTreatmentMarginScheme is differential taxation (§25a UStG):
	// no separate VAT amount, the net flows into gross directly.
	TaxTreatmentMarginScheme TaxTreatment = "MARGIN_SCHEME"
)

// Document represents one commercial document row.
type Document struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	DocType      DocType           `gorm:"type:text;not null;index" json:"doc_type"`
	OfferType    OfferType         `gorm:"type:text" json:"offer_type,omitempty"`
	DocNumber    string            `gorm:"not null;index" json:"doc_number"`
	DraftNumber  string            `gorm:"not null" json:"draft_number"`
	// FinalNumber is reserved exactly once. Reverting to draft keeps it,
	// so a later re-finalize restores it instead of allocating again.
	FinalNumber string `gorm:"not null;default:''" json:"final_number,omitempty"`
	Status       DocStatus         `gorm:"type:text;not null;default:'DRAFT';index" json:"status"`
	IsFinal      bool              `gorm:"not null;default:false" json:"is_final"`
	IssueDate    time.Time         `gorm:"not null" json:"issue_date"`
	DueDate      *time.Time        `json:"due_date,omitempty"`
	ServiceDate  *time.Time        `json:"service_date,omitempty"`
	ValidUntil   *time.Time        `json:"valid_until,omitempty"`
	DeliveryDate *time.Time        `json:"delivery_date,omitempty"`
	CustomerID   *snowflake.ID     `gorm:"index" json:"customer_id,omitempty"`
	VehicleID    *snowflake.ID     `gorm:"index" json:"vehicle_id,omitempty"`
	// SourceOfferID links an invoice back to the offer it was converted from.
	SourceOfferID *snowflake.ID `gorm:"index" json:"source_offer_id,omitempty"`
	// CreditForID links a credit note or storno to the invoice it mirrors.
	CreditForID     *snowflake.ID     `gorm:"index" json:"credit_for_id,omitempty"`
	NetTotalCents   int64             `gorm:"not null;default:0" json:"net_total_cents"`
	VatTotalCents   int64             `gorm:"not null;default:0" json:"vat_total_cents"`
	GrossTotalCents int64             `gorm:"not null;default:0" json:"gross_total_cents"`
	PaidAt          *time.Time        `json:"paid_at,omitempty"`
	SentAt          *time.Time        `json:"sent_at,omitempty"`
	CancelledAt     *time.Time        `json:"cancelled_at,omitempty"`
	NotesPublic     string            `gorm:"type:text" json:"notes_public,omitempty"`
	NotesInternal   string            `gorm:"type:text" json:"notes_internal,omitempty"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Document) TableName() string { return "documents" }

// DocumentLine represents a position on a document. Lines are owned by
// their document and deleted with it.
type DocumentLine struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	DocumentID  snowflake.ID `gorm:"not null;index" json:"document_id"`
	Position    int          `gorm:"not null" json:"position"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	Qty         float64      `gorm:"not null" json:"qty"`
	// UnitNetCents may be negative on credit-note and storno lines.
	UnitNetCents   int64        `gorm:"not null" json:"unit_net_cents"`
	VatRate        int          `gorm:"not null" json:"vat_rate"`
	DiscountPct    float64      `gorm:"not null;default:0" json:"discount_pct"`
	TaxTreatment   TaxTreatment `gorm:"type:text;not null;default:'STANDARD'" json:"tax_treatment"`
	LineNetCents   int64        `gorm:"not null;default:0" json:"line_net_cents"`
	LineVatCents   int64        `gorm:"not null;default:0" json:"line_vat_cents"`
	LineGrossCents int64        `gorm:"not null;default:0" json:"line_gross_cents"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (DocumentLine) TableName() string { return "document_lines" }

// DraftCounter tracks the last provisional sequence per (docType, year).
type DraftCounter struct {
	DocType DocType `gorm:"primaryKey;type:text" json:"doc_type"`
	Year    int     `gorm:"primaryKey" json:"year"`
	LastSeq int64   `gorm:"not null;default:0" json:"last_seq"`
}

// TableName sets the database table name.
func (DraftCounter) TableName() string { return "draft_counters" }

// FinalCounter tracks the last permanent sequence per (docType, year).
// A value handed out here is never reclaimed, even when the owning
// document is reverted or deleted.
type FinalCounter struct {
	DocType DocType `gorm:"primaryKey;type:text" json:"doc_type"`
	Year    int     `gorm:"primaryKey" json:"year"`
	LastSeq int64   `gorm:"not null;default:0" json:"last_seq"`
}

// TableName sets the database table name.
func (FinalCounter) TableName() string { return "final_counters" }

// ValidVatRate reports whether rate is one of the supported VAT percentages.
func ValidVatRate(rate int) bool {
	return rate == 0 || rate == 7 || rate == 19
}
