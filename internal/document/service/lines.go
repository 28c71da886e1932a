package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/glanzwerk/beleg/internal/document/calc"
	"github.com/glanzwerk/beleg/internal/document/domain"
	"gorm.io/gorm"
)

func (s *Service) AddLine(ctx context.Context, req domain.AddLineRequest) (domain.DocumentLine, error) {
	docID, err := parseID(req.DocumentID)
	if err != nil {
		return domain.DocumentLine{}, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.DocumentLine{}, domain.ErrInvalidTitle
	}
	if req.Qty < 0 {
		return domain.DocumentLine{}, domain.ErrInvalidQty
	}
	if !domain.ValidVatRate(req.VatRate) {
		return domain.DocumentLine{}, domain.ErrInvalidVatRate
	}
	if req.DiscountPct < -100 || req.DiscountPct > 100 {
		return domain.DocumentLine{}, domain.ErrInvalidDiscount
	}

	treatment := req.TaxTreatment
	if treatment == "" {
		treatment = domain.TaxTreatmentStandard
	}

	var created domain.DocumentLine
	var changed domain.Document
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

		var lineCount int64
		if err := tx.WithContext(ctx).Raw(
			`SELECT COUNT(*) FROM document_lines WHERE document_id = ?`, docID,
		).Scan(&lineCount).Error; err != nil {
			return err
		}

		now := s.clock.Now()
		totals := calc.Line(req.Qty, req.UnitNetCents, req.VatRate, req.DiscountPct, treatment)
		line := domain.DocumentLine{
			ID:             s.genID.Generate(),
			DocumentID:     docID,
			Position:       int(lineCount) + 1,
			Title:          title,
			Description:    strings.TrimSpace(req.Description),
			Qty:            req.Qty,
			UnitNetCents:   req.UnitNetCents,
			VatRate:        req.VatRate,
			DiscountPct:    req.DiscountPct,
			TaxTreatment:   treatment,
			LineNetCents:   totals.NetCents,
			LineVatCents:   totals.VatCents,
			LineGrossCents: totals.GrossCents,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.WithContext(ctx).Create(&line).Error; err != nil {
			return err
		}

		if err := s.recalcTotals(ctx, tx, docID); err != nil {
			return err
		}

		created = line
		changed = *doc
		return nil
	})
	if err != nil {
		return domain.DocumentLine{}, err
	}

	s.emit("document.line_added", changed)
	return created, nil
}

func (s *Service) UpdateLine(ctx context.Context, req domain.UpdateLineRequest) (domain.DocumentLine, error) {
	docID, err := parseID(req.DocumentID)
	if err != nil {
		return domain.DocumentLine{}, err
	}
	lineID, err := parseID(req.LineID)
	if err != nil {
		return domain.DocumentLine{}, err
	}

	var updated domain.DocumentLine
	var changed domain.Document
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

		line, err := s.loadLine(ctx, tx, docID, lineID)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrLineNotFound
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return domain.ErrInvalidTitle
			}
			line.Title = title
		}
		if req.Description != nil {
			line.Description = strings.TrimSpace(*req.Description)
		}
		if req.Qty != nil {
			if *req.Qty < 0 {
				return domain.ErrInvalidQty
			}
			line.Qty = *req.Qty
		}
		if req.UnitNetCents != nil {
			line.UnitNetCents = *req.UnitNetCents
		}
		if req.VatRate != nil {
			if !domain.ValidVatRate(*req.VatRate) {
				return domain.ErrInvalidVatRate
			}
			line.VatRate = *req.VatRate
		}
		if req.DiscountPct != nil {
			if *req.DiscountPct < -100 || *req.DiscountPct > 100 {
				return domain.ErrInvalidDiscount
			}
			line.DiscountPct = *req.DiscountPct
		}
		if req.TaxTreatment != nil {
			line.TaxTreatment = *req.TaxTreatment
		}

		totals := calc.Line(line.Qty, line.UnitNetCents, line.VatRate, line.DiscountPct, line.TaxTreatment)
		line.LineNetCents = totals.NetCents
		line.LineVatCents = totals.VatCents
		line.LineGrossCents = totals.GrossCents
		line.UpdatedAt = s.clock.Now()

		if err := tx.WithContext(ctx).Save(line).Error; err != nil {
			return err
		}
		if err := s.recalcTotals(ctx, tx, docID); err != nil {
			return err
		}

		updated = *line
		changed = *doc
		return nil
	})
	if err != nil {
		return domain.DocumentLine{}, err
	}

	s.emit("document.line_updated", changed)
	return updated, nil
}

func (s *Service) MoveLine(ctx context.Context, req domain.MoveLineRequest) error {
	docID, err := parseID(req.DocumentID)
	if err != nil {
		return err
	}
	lineID, err := parseID(req.LineID)
	if err != nil {
		return err
	}

	var changed domain.Document
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
		changed = *doc

		lines, err := s.loadLines(ctx, tx, docID)
		if err != nil {
			return err
		}

		fromIdx := -1
		for i, line := range lines {
			if line.ID == lineID {
				fromIdx = i
				break
			}
		}
		if fromIdx == -1 {
			return domain.ErrLineNotFound
		}
		if req.NewPosition < 1 || req.NewPosition > len(lines) {
			return domain.ErrInvalidPosition
		}

		moved := lines[fromIdx]
		lines = append(lines[:fromIdx], lines[fromIdx+1:]...)
		toIdx := req.NewPosition - 1
		lines = append(lines[:toIdx], append([]domain.DocumentLine{moved}, lines[toIdx:]...)...)

		now := s.clock.Now()
		for i, line := range lines {
			if err := tx.WithContext(ctx).Exec(
				`UPDATE document_lines SET position = ?, updated_at = ? WHERE id = ?`,
				i+1, now, line.ID,
			).Error; err != nil {
				return err
			}
		}

		if err := s.recalcTotals(ctx, tx, docID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit("document.line_moved", changed)
	return nil
}

func (s *Service) DeleteLine(ctx context.Context, documentID, lineID string) error {
	docID, err := parseID(documentID)
	if err != nil {
		return err
	}
	targetID, err := parseID(lineID)
	if err != nil {
		return err
	}

	var changed domain.Document
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
		changed = *doc

		line, err := s.loadLine(ctx, tx, docID, targetID)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrLineNotFound
		}

		if err := tx.WithContext(ctx).Exec(
			`DELETE FROM document_lines WHERE id = ?`, targetID,
		).Error; err != nil {
			return err
		}

		// Close the gap so positions stay dense.
		remaining, err := s.loadLines(ctx, tx, docID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		for i, rest := range remaining {
			if rest.Position == i+1 {
				continue
			}
			if err := tx.WithContext(ctx).Exec(
				`UPDATE document_lines SET position = ?, updated_at = ? WHERE id = ?`,
				i+1, now, rest.ID,
			).Error; err != nil {
				return err
			}
		}

		if err := s.recalcTotals(ctx, tx, docID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.emit("document.line_deleted", changed)
	return nil
}

func (s *Service) loadLine(ctx context.Context, tx *gorm.DB, docID, lineID snowflake.ID) (*domain.DocumentLine, error) {
	var line domain.DocumentLine
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM document_lines WHERE id = ? AND document_id = ?`+lockSuffix(tx),
		lineID, docID,
	).Scan(&line).Error
	if err != nil {
		return nil, err
	}
	if line.ID == 0 {
		return nil, nil
	}
	return &line, nil
}
