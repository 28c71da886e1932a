package service

import (
	"context"
	"math"

	"github.com/bwmarrin/snowflake"
	"github.com/glanzwerk/beleg/internal/document/calc"
	"github.com/glanzwerk/beleg/internal/document/domain"
	workrecorddomain "github.com/glanzwerk/beleg/internal/workrecord/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConvertOfferToInvoice turns a finalized offer into a fresh invoice
// draft. The offer is marked CONVERTED in the same transaction, so a
// second conversion attempt fails instead of producing a duplicate.
func (s *Service) ConvertOfferToInvoice(ctx context.Context, offerID string) (domain.Document, error) {
	srcID, err := parseID(offerID)
	if err != nil {
		return domain.Document{}, err
	}

	now := s.clock.Now()
	var invoice domain.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, err := s.loadDocumentForUpdate(ctx, tx, srcID)
		if err != nil {
			return err
		}
		if offer == nil {
			return domain.ErrNotFound
		}
		if offer.DocType != domain.DocTypeOffer || !offer.IsFinal {
			return domain.ErrInvalidTransition
		}
		if offer.Status == domain.DocStatusConverted || offer.Status.Immutable() {
			return domain.ErrInvalidTransition
		}

		lines, err := s.loadLines(ctx, tx, srcID)
		if err != nil {
			return err
		}

		draftNumber, err := s.allocator.NextDraftNumber(ctx, tx, domain.DocTypeInvoice, now.Year())
		if err != nil {
			return err
		}

		invoice = domain.Document{
			ID:            s.genID.Generate(),
			DocType:       domain.DocTypeInvoice,
			DocNumber:     draftNumber,
			DraftNumber:   draftNumber,
			Status:        domain.DocStatusDraft,
			IssueDate:     now,
			CustomerID:    offer.CustomerID,
			VehicleID:     offer.VehicleID,
			SourceOfferID: &offer.ID,
			NotesPublic:   offer.NotesPublic,
			Metadata:      datatypes.JSONMap{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		seedDefaultDates(&invoice, now)
		if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
			return err
		}

		for i, src := range lines {
			if err := s.copyLine(ctx, tx, invoice.ID, i+1, src, src.Qty, src.UnitNetCents); err != nil {
				return err
			}
		}
		if err := s.recalcTotals(ctx, tx, invoice.ID); err != nil {
			return err
		}

		offer.Status = domain.DocStatusConverted
		offer.UpdatedAt = now
		if err := tx.WithContext(ctx).Save(offer).Error; err != nil {
			return err
		}

		return s.reloadDocument(ctx, tx, invoice.ID, &invoice)
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.emit("document.created", invoice)
	return invoice, nil
}

// CreditNoteFromInvoice creates a credit note draft over a subset of a
// paid invoice's lines. Requested quantities are clamped to what the
// invoice actually billed; selections that clamp to zero are dropped.
func (s *Service) CreditNoteFromInvoice(ctx context.Context, req domain.CreditNoteRequest) (domain.Document, error) {
	srcID, err := parseID(req.InvoiceID)
	if err != nil {
		return domain.Document{}, err
	}
	if len(req.Selections) == 0 {
		return domain.Document{}, domain.ErrInvalidSelection
	}

	now := s.clock.Now()
	var creditNote domain.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadDocumentForUpdate(ctx, tx, srcID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}
		if invoice.DocType != domain.DocTypeInvoice || !invoice.IsFinal {
			return domain.ErrInvalidTransition
		}
		if invoice.Status != domain.DocStatusPaid {
			return domain.ErrInvalidTransition
		}

		lines, err := s.loadLines(ctx, tx, srcID)
		if err != nil {
			return err
		}
		byID := make(map[snowflake.ID]domain.DocumentLine, len(lines))
		for _, line := range lines {
			byID[line.ID] = line
		}

		type creditLine struct {
			src domain.DocumentLine
			qty float64
		}
		var selected []creditLine
		for _, sel := range req.Selections {
			lineID, err := parseID(sel.LineID)
			if err != nil {
				return domain.ErrInvalidSelection
			}
			src, ok := byID[lineID]
			if !ok {
				return domain.ErrInvalidSelection
			}
			qty := sel.Qty
			if qty > src.Qty {
				qty = src.Qty
			}
			if qty <= 0 {
				continue
			}
			selected = append(selected, creditLine{src: src, qty: qty})
		}
		if len(selected) == 0 {
			return domain.ErrInvalidSelection
		}

		draftNumber, err := s.allocator.NextDraftNumber(ctx, tx, domain.DocTypeCreditNote, now.Year())
		if err != nil {
			return err
		}

		creditNote = domain.Document{
			ID:          s.genID.Generate(),
			DocType:     domain.DocTypeCreditNote,
			DocNumber:   draftNumber,
			DraftNumber: draftNumber,
			Status:      domain.DocStatusDraft,
			IssueDate:   now,
			CustomerID:  invoice.CustomerID,
			VehicleID:   invoice.VehicleID,
			CreditForID: &invoice.ID,
			Metadata:    datatypes.JSONMap{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		seedDefaultDates(&creditNote, now)
		if err := tx.WithContext(ctx).Create(&creditNote).Error; err != nil {
			return err
		}

		for i, sel := range selected {
			unitNet := -int64(math.Abs(float64(sel.src.UnitNetCents)))
			if err := s.copyLine(ctx, tx, creditNote.ID, i+1, sel.src, sel.qty, unitNet); err != nil {
				return err
			}
		}
		if err := s.recalcTotals(ctx, tx, creditNote.ID); err != nil {
			return err
		}

		return s.reloadDocument(ctx, tx, creditNote.ID, &creditNote)
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.emit("document.created", creditNote)
	return creditNote, nil
}

// StornoFromInvoice reverses a paid invoice in full. Every line is
// mirrored with a negated unit price, and the invoice is cancelled in the
// same transaction. An unpaid invoice cannot be reversed; it is still
// editable through a revert instead.
func (s *Service) StornoFromInvoice(ctx context.Context, invoiceID string) (domain.Document, error) {
	srcID, err := parseID(invoiceID)
	if err != nil {
		return domain.Document{}, err
	}

	now := s.clock.Now()
	var storno domain.Document
	var cancelled domain.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.loadDocumentForUpdate(ctx, tx, srcID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}
		if invoice.DocType != domain.DocTypeInvoice || !invoice.IsFinal {
			return domain.ErrInvalidTransition
		}
		if invoice.Status != domain.DocStatusPaid {
			return domain.ErrInvalidTransition
		}

		lines, err := s.loadLines(ctx, tx, srcID)
		if err != nil {
			return err
		}

		draftNumber, err := s.allocator.NextDraftNumber(ctx, tx, domain.DocTypeStorno, now.Year())
		if err != nil {
			return err
		}

		storno = domain.Document{
			ID:          s.genID.Generate(),
			DocType:     domain.DocTypeStorno,
			DocNumber:   draftNumber,
			DraftNumber: draftNumber,
			Status:      domain.DocStatusDraft,
			IssueDate:   now,
			CustomerID:  invoice.CustomerID,
			VehicleID:   invoice.VehicleID,
			CreditForID: &invoice.ID,
			Metadata:    datatypes.JSONMap{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		seedDefaultDates(&storno, now)
		if err := tx.WithContext(ctx).Create(&storno).Error; err != nil {
			return err
		}

		for i, src := range lines {
			// exact negation so the storno reverses negative (discount)
			// lines as well
			if err := s.copyLine(ctx, tx, storno.ID, i+1, src, src.Qty, -src.UnitNetCents); err != nil {
				return err
			}
		}
		if err := s.recalcTotals(ctx, tx, storno.ID); err != nil {
			return err
		}

		invoice.Status = domain.DocStatusCancelled
		invoice.CancelledAt = timePtr(now)
		invoice.UpdatedAt = now
		if err := tx.WithContext(ctx).Save(invoice).Error; err != nil {
			return err
		}
		cancelled = *invoice

		return s.reloadDocument(ctx, tx, storno.ID, &storno)
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.emit("document.created", storno)
	s.emit("document.cancelled", cancelled)
	return storno, nil
}

// InvoiceFromWorkRecord bills a work record's tracked time as one invoice
// line per non-empty category. A record that already carries an invoice
// link returns that invoice unchanged.
func (s *Service) InvoiceFromWorkRecord(ctx context.Context, req domain.InvoiceFromWorkRecordRequest) (domain.Document, error) {
	recordID, err := parseID(req.WorkRecordID)
	if err != nil {
		return domain.Document{}, err
	}

	shop, err := s.settings.Get(ctx)
	if err != nil {
		return domain.Document{}, err
	}

	now := s.clock.Now()
	var invoice domain.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record workrecorddomain.WorkRecord
		err := tx.WithContext(ctx).Raw(
			`SELECT * FROM work_records WHERE id = ?`+lockSuffix(tx), recordID,
		).Scan(&record).Error
		if err != nil {
			return err
		}
		if record.ID == 0 {
			return workrecorddomain.ErrNotFound
		}

		if record.InvoiceID != nil {
			return s.reloadDocument(ctx, tx, *record.InvoiceID, &invoice)
		}

		rate, err := s.resolveHourlyRate(ctx, tx, req.HourlyRateCents, record, shop.DefaultHourlyRateCents)
		if err != nil {
			return err
		}
		unitMinutes := shop.WorkUnitMinutes
		unitNet := calc.Round(float64(rate) * float64(unitMinutes) / 60)
		vatRate := s.pricing.Current().DefaultVatRate

		draftNumber, err := s.allocator.NextDraftNumber(ctx, tx, domain.DocTypeInvoice, now.Year())
		if err != nil {
			return err
		}

		customerID := record.CustomerID
		invoice = domain.Document{
			ID:          s.genID.Generate(),
			DocType:     domain.DocTypeInvoice,
			DocNumber:   draftNumber,
			DraftNumber: draftNumber,
			Status:      domain.DocStatusDraft,
			IssueDate:   now,
			CustomerID:  &customerID,
			VehicleID:   record.VehicleID,
			Metadata:    datatypes.JSONMap{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		seedDefaultDates(&invoice, now)
		if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
			return err
		}

		position := 0
		for _, category := range workrecorddomain.Categories() {
			seconds := record.SecondsFor(category)
			if seconds <= 0 {
				continue
			}
			position++
			qty := calc.WorkUnits(seconds, unitMinutes)
			totals := calc.Line(qty, unitNet, vatRate, 0, domain.TaxTreatmentStandard)
			line := domain.DocumentLine{
				ID:             s.genID.Generate(),
				DocumentID:     invoice.ID,
				Position:       position,
				Title:          category.Label(),
				Qty:            qty,
				UnitNetCents:   unitNet,
				VatRate:        vatRate,
				TaxTreatment:   domain.TaxTreatmentStandard,
				LineNetCents:   totals.NetCents,
				LineVatCents:   totals.VatCents,
				LineGrossCents: totals.GrossCents,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.WithContext(ctx).Create(&line).Error; err != nil {
				return err
			}
		}
		if position == 0 {
			return domain.ErrInvalidSelection
		}
		if err := s.recalcTotals(ctx, tx, invoice.ID); err != nil {
			return err
		}

		if err := tx.WithContext(ctx).Exec(
			`UPDATE work_records SET invoice_id = ?, status = ?, updated_at = ? WHERE id = ?`,
			invoice.ID, workrecorddomain.WorkRecordStatusBilled, now, record.ID,
		).Error; err != nil {
			return err
		}

		return s.reloadDocument(ctx, tx, invoice.ID, &invoice)
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.emit("document.created", invoice)
	return invoice, nil
}

// resolveHourlyRate picks the effective rate for work-record billing:
// request override, then record override, then customer rate, then the
// shop default.
func (s *Service) resolveHourlyRate(ctx context.Context, tx *gorm.DB, override *int64, record workrecorddomain.WorkRecord, shopDefault int64) (int64, error) {
	if override != nil && *override > 0 {
		return *override, nil
	}
	if record.HourlyRateCents != nil && *record.HourlyRateCents > 0 {
		return *record.HourlyRateCents, nil
	}
	customer, err := s.customers.FindByID(ctx, tx, record.CustomerID)
	if err != nil {
		return 0, err
	}
	if customer != nil && customer.HourlyRateCents != nil && *customer.HourlyRateCents > 0 {
		return *customer.HourlyRateCents, nil
	}
	return shopDefault, nil
}

// copyLine appends a mirror of src to the target document, recomputing
// its totals from the given quantity and unit price.
func (s *Service) copyLine(ctx context.Context, tx *gorm.DB, docID snowflake.ID, position int, src domain.DocumentLine, qty float64, unitNetCents int64) error {
	now := s.clock.Now()
	totals := calc.Line(qty, unitNetCents, src.VatRate, src.DiscountPct, src.TaxTreatment)
	line := domain.DocumentLine{
		ID:             s.genID.Generate(),
		DocumentID:     docID,
		Position:       position,
		Title:          src.Title,
		Description:    src.Description,
		Qty:            qty,
		UnitNetCents:   unitNetCents,
		VatRate:        src.VatRate,
		DiscountPct:    src.DiscountPct,
		TaxTreatment:   src.TaxTreatment,
		LineNetCents:   totals.NetCents,
		LineVatCents:   totals.VatCents,
		LineGrossCents: totals.GrossCents,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return tx.WithContext(ctx).Create(&line).Error
}

func (s *Service) reloadDocument(ctx context.Context, tx *gorm.DB, id snowflake.ID, out *domain.Document) error {
	var doc domain.Document
	err := tx.WithContext(ctx).Raw(`SELECT * FROM documents WHERE id = ?`, id).Scan(&doc).Error
	if err != nil {
		return err
	}
	if doc.ID == 0 {
		return domain.ErrNotFound
	}
	*out = doc
	return nil
}
