package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glanzwerk/beleg/internal/clock"
	"github.com/glanzwerk/beleg/internal/config"
	customerdomain "github.com/glanzwerk/beleg/internal/customer/domain"
	"github.com/glanzwerk/beleg/internal/document/calc"
	"github.com/glanzwerk/beleg/internal/document/domain"
	"github.com/glanzwerk/beleg/internal/document/numbering"
	"github.com/glanzwerk/beleg/internal/events"
	settingsdomain "github.com/glanzwerk/beleg/internal/settings/domain"
	vehicledomain "github.com/glanzwerk/beleg/internal/vehicle/domain"
	"github.com/glanzwerk/beleg/pkg/db/option"
	"github.com/glanzwerk/beleg/pkg/db/pagination"
	"github.com/glanzwerk/beleg/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	invoiceDueDays       = 10
	offerValidDays       = 14
	contractDeliveryDays = 14
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Allocator    *numbering.Allocator
	Events       events.Publisher
	CustomerRepo customerdomain.Repository
	SettingsSvc  settingsdomain.Service
	Pricing      *config.PricingConfigHolder
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	allocator *numbering.Allocator
	events    events.Publisher
	customers customerdomain.Repository
	settings  settingsdomain.Service
	pricing   *config.PricingConfigHolder

	docrepo repository.Repository[domain.Document]
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("document.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		allocator: p.Allocator,
		events:    p.Events,
		customers: p.CustomerRepo,
		settings:  p.SettingsSvc,
		pricing:   p.Pricing,
		docrepo:   repository.ProvideStore[domain.Document](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateDocumentRequest) (domain.Document, error) {
	if !req.DocType.Valid() {
		return domain.Document{}, domain.ErrInvalidDocType
	}

	offerType := req.OfferType
	if req.DocType == domain.DocTypeOffer && offerType == "" {
		offerType = domain.OfferTypeOffer
	}
	if req.DocType != domain.DocTypeOffer {
		offerType = ""
	}

	customerID, err := s.resolveCustomer(ctx, req.CustomerID)
	if err != nil {
		return domain.Document{}, err
	}
	vehicleID, err := s.resolveVehicle(ctx, req.VehicleID)
	if err != nil {
		return domain.Document{}, err
	}

	now := s.clock.Now()
	var created domain.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		draftNumber, err := s.allocator.NextDraftNumber(ctx, tx, req.DocType, now.Year())
		if err != nil {
			return err
		}

		doc := domain.Document{
			ID:          s.genID.Generate(),
			DocType:     req.DocType,
			OfferType:   offerType,
			DocNumber:   draftNumber,
			DraftNumber: draftNumber,
			Status:      domain.DocStatusDraft,
			IsFinal:     false,
			IssueDate:   now,
			CustomerID:  customerID,
			VehicleID:   vehicleID,
			Metadata:    datatypes.JSONMap{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		seedDefaultDates(&doc, now)

		if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
			return err
		}
		created = doc
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.emit("document.created", created)
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.DocumentWithLines, error) {
	docID, err := parseID(id)
	if err != nil {
		return domain.DocumentWithLines{}, err
	}

	item, err := s.docrepo.FindOne(ctx, &domain.Document{ID: docID})
	if err != nil {
		return domain.DocumentWithLines{}, err
	}
	if item == nil {
		return domain.DocumentWithLines{}, domain.ErrNotFound
	}

	lines, err := s.loadLines(ctx, s.db, docID)
	if err != nil {
		return domain.DocumentWithLines{}, err
	}

	return domain.DocumentWithLines{Document: *item, Lines: lines}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListDocumentRequest) (domain.ListDocumentResponse, error) {
	filter := &domain.Document{}
	if req.DocType != nil {
		filter.DocType = *req.DocType
	}
	if req.Status != nil {
		filter.Status = *req.Status
	}
	if req.CustomerID != nil {
		customerID, err := parseID(*req.CustomerID)
		if err != nil {
			return domain.ListDocumentResponse{}, err
		}
		filter.CustomerID = &customerID
	}

	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Desc: true, Allow: map[string]bool{"created_at": true}}),
	}
	if req.Year != nil {
		yearStart := time.Date(*req.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		options = append(options,
			option.ApplyOperator(option.Condition{Field: "issue_date", Operator: option.GTE, Value: yearStart}),
			option.ApplyOperator(option.Condition{Field: "issue_date", Operator: option.LT, Value: yearStart.AddDate(1, 0, 0)}),
		)
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	options = append(options, option.ApplyPagination(pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	}))

	items, err := s.docrepo.Find(ctx, filter, options...)
	if err != nil {
		return domain.ListDocumentResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(doc *domain.Document) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        doc.ID.String(),
			CreatedAt: doc.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	documents := make([]domain.Document, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		documents = append(documents, *item)
	}

	resp := domain.ListDocumentResponse{Documents: documents}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) UpdateBasics(ctx context.Context, req domain.UpdateBasicsRequest) (domain.Document, error) {
	docID, err := parseID(req.ID)
	if err != nil {
		return domain.Document{}, err
	}

	var updated domain.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.loadDocumentForUpdate(ctx, tx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if err := assertEditable(doc.Status); err != nil {
			return err
		}

		if req.IssueDate != nil {
			doc.IssueDate = req.IssueDate.UTC()
		}
		if req.DueDate != nil {
			doc.DueDate = timePtr(req.DueDate.UTC())
		}
		if req.ServiceDate != nil {
			doc.ServiceDate = timePtr(req.ServiceDate.UTC())
		}
		if req.ValidUntil != nil {
			doc.ValidUntil = timePtr(req.ValidUntil.UTC())
		}
		if req.DeliveryDate != nil {
			doc.DeliveryDate = timePtr(req.DeliveryDate.UTC())
		}
		if req.NotesPublic != nil {
			doc.NotesPublic = *req.NotesPublic
		}
		if req.NotesInternal != nil {
			doc.NotesInternal = *req.NotesInternal
		}
		doc.UpdatedAt = s.clock.Now()

		if err := tx.WithContext(ctx).Save(doc).Error; err != nil {
			return err
		}
		updated = *doc
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.emit("document.updated", updated)
	return updated, nil
}

func (s *Service) AssignCustomer(ctx context.Context, req domain.AssignCustomerRequest) (domain.Document, error) {
	docID, err := parseID(req.ID)
	if err != nil {
		return domain.Document{}, err
	}
	customerID, err := s.resolveCustomer(ctx, req.CustomerID)
	if err != nil {
		return domain.Document{}, err
	}

	updated, err := s.mutate(ctx, docID, func(tx *gorm.DB, doc *domain.Document) error {
		doc.CustomerID = customerID
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.emit("document.customer_assigned", updated)
	return updated, nil
}

func (s *Service) AssignVehicle(ctx context.Context, req domain.AssignVehicleRequest) (domain.Document, error) {
	docID, err := parseID(req.ID)
	if err != nil {
		return domain.Document{}, err
	}
	vehicleID, err := s.resolveVehicle(ctx, req.VehicleID)
	if err != nil {
		return domain.Document{}, err
	}

	updated, err := s.mutate(ctx, docID, func(tx *gorm.DB, doc *domain.Document) error {
		doc.VehicleID = vehicleID
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.emit("document.vehicle_assigned", updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	docID, err := parseID(id)
	if err != nil {
		return err
	}

	var deleted domain.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.loadDocumentForUpdate(ctx, tx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if err := assertEditable(doc.Status); err != nil {
			return err
		}

		if err := tx.WithContext(ctx).Exec(
			`DELETE FROM document_lines WHERE document_id = ?`, docID,
		).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Exec(
			`DELETE FROM documents WHERE id = ?`, docID,
		).Error; err != nil {
			return err
		}
		deleted = *doc
		return nil
	})
	if err != nil {
		return err
	}

	s.emit("document.deleted", deleted)
	return nil
}

// mutate runs fn on the locked document row and saves it, rejecting
// documents in a terminal financial state before fn runs.
func (s *Service) mutate(ctx context.Context, docID snowflake.ID, fn func(tx *gorm.DB, doc *domain.Document) error) (domain.Document, error) {
	var updated domain.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.loadDocumentForUpdate(ctx, tx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if err := assertEditable(doc.Status); err != nil {
			return err
		}

		if err := fn(tx, doc); err != nil {
			return err
		}
		doc.UpdatedAt = s.clock.Now()

		if err := tx.WithContext(ctx).Save(doc).Error; err != nil {
			return err
		}
		updated = *doc
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}
	return updated, nil
}

// assertEditable is the single gate in front of every mutation entry
// point. PAID and CANCELLED documents are immutable.
func assertEditable(status domain.DocStatus) error {
	if status.Immutable() {
		return domain.ErrImmutableDocument
	}
	return nil
}

func seedDefaultDates(doc *domain.Document, now time.Time) {
	switch doc.DocType {
	case domain.DocTypeInvoice:
		doc.DueDate = timePtr(now.AddDate(0, 0, invoiceDueDays))
		doc.ServiceDate = timePtr(now)
	case domain.DocTypeOffer:
		doc.ValidUntil = timePtr(now.AddDate(0, 0, offerValidDays))
	case domain.DocTypeCreditNote, domain.DocTypeStorno:
		doc.ServiceDate = timePtr(now)
	case domain.DocTypePurchaseContract:
		doc.DeliveryDate = timePtr(now.AddDate(0, 0, contractDeliveryDays))
	}
}

func (s *Service) resolveCustomer(ctx context.Context, raw string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}
	customer, err := s.customers.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, customerdomain.ErrNotFound
	}
	return &id, nil
}

func (s *Service) resolveVehicle(ctx context.Context, raw string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}
	var vehicleID snowflake.ID
	err = s.db.WithContext(ctx).Raw(
		`SELECT id FROM vehicles WHERE id = ?`, id,
	).Scan(&vehicleID).Error
	if err != nil {
		return nil, err
	}
	if vehicleID == 0 {
		return nil, vehicledomain.ErrNotFound
	}
	return &id, nil
}

func (s *Service) loadDocumentForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Document, error) {
	var doc domain.Document
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM documents WHERE id = ?`+lockSuffix(tx), id,
	).Scan(&doc).Error
	if err != nil {
		return nil, err
	}
	if doc.ID == 0 {
		return nil, nil
	}
	return &doc, nil
}

func (s *Service) loadLines(ctx context.Context, tx *gorm.DB, docID snowflake.ID) ([]domain.DocumentLine, error) {
	var lines []domain.DocumentLine
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM document_lines WHERE document_id = ? ORDER BY position ASC`,
		docID,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// recalcTotals sums every stored line into the document totals. The
// stored totals are always replaced wholesale, never patched.
func (s *Service) recalcTotals(ctx context.Context, tx *gorm.DB, docID snowflake.ID) error {
	lines, err := s.loadLines(ctx, tx, docID)
	if err != nil {
		return err
	}
	totals := calc.Sum(lines)

	return tx.WithContext(ctx).Exec(
		`UPDATE documents
		 SET net_total_cents = ?, vat_total_cents = ?, gross_total_cents = ?, updated_at = ?
		 WHERE id = ?`,
		totals.NetCents,
		totals.VatCents,
		totals.GrossCents,
		s.clock.Now(),
		docID,
	).Error
}

func (s *Service) emit(action string, doc domain.Document) {
	s.events.Publish(events.DocumentChanged{
		DocID:   doc.ID,
		DocType: doc.DocType,
		Action:  action,
	})
}

// lockSuffix returns a row-lock clause where the dialect supports one.
// SQLite has no row locks; its writers serialize on the database lock.
func lockSuffix(tx *gorm.DB) string {
	if tx.Dialector.Name() == "sqlite" {
		return ""
	}
	return " FOR UPDATE"
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func timePtr(t time.Time) *time.Time { return &t }
