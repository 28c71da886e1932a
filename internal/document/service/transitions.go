package service

import (
	"context"

	"github.com/glanzwerk/beleg/internal/document/domain"
	"gorm.io/gorm"
)

// ToggleFinalize flips a document between draft and final form. The
// permanent number is allocated at most once per document: a revert keeps
// FinalNumber so a later re-finalize restores it instead of drawing a
// fresh value from the counter.
func (s *Service) ToggleFinalize(ctx context.Context, id string) (domain.Document, error) {
	docID, err := parseID(id)
	if err != nil {
		return domain.Document{}, err
	}

	var updated domain.Document
	action := ""
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.loadDocumentForUpdate(ctx, tx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}

		now := s.clock.Now()
		if doc.IsFinal {
			if doc.Status.Immutable() {
				return domain.ErrInvalidTransition
			}
			if doc.DraftNumber == "" {
				draftNumber, err := s.allocator.NextDraftNumber(ctx, tx, doc.DocType, doc.IssueDate.Year())
				if err != nil {
					return err
				}
				doc.DraftNumber = draftNumber
			}
			doc.IsFinal = false
			doc.Status = domain.DocStatusDraft
			doc.DocNumber = doc.DraftNumber
			action = "document.reverted"
		} else {
			if doc.FinalNumber == "" {
				finalNumber, err := s.allocator.NextFinalNumber(ctx, tx, doc.DocType, doc.IssueDate.Year())
				if err != nil {
					return err
				}
				doc.FinalNumber = finalNumber
			}
			doc.IsFinal = true
			doc.DocNumber = doc.FinalNumber
			// Offers stay in their current status; everything else is
			// considered sent once it carries a permanent number.
			if doc.DocType != domain.DocTypeOffer {
				doc.Status = domain.DocStatusSent
				if doc.SentAt == nil {
					doc.SentAt = timePtr(now)
				}
			}
			action = "document.finalized"
		}
		doc.UpdatedAt = now

		if err := tx.WithContext(ctx).Save(doc).Error; err != nil {
			return err
		}
		updated = *doc
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.emit(action, updated)
	return updated, nil
}

func (s *Service) SetPaid(ctx context.Context, req domain.SetPaidRequest) (domain.Document, error) {
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
		if doc.DocType != domain.DocTypeInvoice || !doc.IsFinal {
			return domain.ErrInvalidTransition
		}
		if doc.Status == domain.DocStatusCancelled {
			return domain.ErrInvalidTransition
		}

		if req.PaidAt != nil {
			paidAt := req.PaidAt.UTC()
			doc.PaidAt = &paidAt
			doc.Status = domain.DocStatusPaid
		} else {
			// A paid invoice stays paid; correcting it requires a
			// credit note or storno.
			if doc.Status == domain.DocStatusPaid {
				return domain.ErrInvalidTransition
			}
			doc.PaidAt = nil
			doc.Status = domain.DocStatusSent
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

	s.emit("document.paid_changed", updated)
	return updated, nil
}

func (s *Service) SetSent(ctx context.Context, id string) (domain.Document, error) {
	docID, err := parseID(id)
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
		if doc.DocType != domain.DocTypeInvoice || !doc.IsFinal {
			return domain.ErrInvalidTransition
		}
		if doc.Status == domain.DocStatusCancelled || doc.Status == domain.DocStatusPaid {
			return domain.ErrInvalidTransition
		}

		// Idempotent when already sent with a timestamp.
		if doc.Status == domain.DocStatusSent && doc.SentAt != nil {
			updated = *doc
			return nil
		}

		now := s.clock.Now()
		doc.Status = domain.DocStatusSent
		doc.SentAt = timePtr(now)
		doc.UpdatedAt = now

		if err := tx.WithContext(ctx).Save(doc).Error; err != nil {
			return err
		}
		updated = *doc
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.emit("document.sent", updated)
	return updated, nil
}

// Cancel cancels a paid invoice directly. Unpaid invoices are deleted or
// reverted instead; other document types cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id string) (domain.Document, error) {
	docID, err := parseID(id)
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
		if doc.DocType != domain.DocTypeInvoice || !doc.IsFinal {
			return domain.ErrInvalidTransition
		}
		if doc.Status != domain.DocStatusPaid {
			return domain.ErrInvalidTransition
		}

		now := s.clock.Now()
		doc.Status = domain.DocStatusCancelled
		doc.CancelledAt = timePtr(now)
		doc.UpdatedAt = now

		if err := tx.WithContext(ctx).Save(doc).Error; err != nil {
			return err
		}
		updated = *doc
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}

	s.emit("document.cancelled", updated)
	return updated, nil
}
