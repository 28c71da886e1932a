// Package numbering allocates draft and final document numbers.
package numbering

import (
	"context"
	"fmt"
	"strings"

	"github.com/glanzwerk/beleg/internal/document/domain"
	"gorm.io/gorm"
)

const (
	draftPrefix       = "DR-"
	draftCounterTable = "draft_counters"
	finalCounterTable = "final_counters"
)

// Allocator hands out monotonic sequence values per (docType, year).
// Both methods must run on the transaction that persists the document
// consuming the number, so concurrent allocations serialize on the
// counter row. Values are never reclaimed; gaps are expected.
type Allocator struct{}

func NewAllocator() *Allocator { return &Allocator{} }

// NextDraftNumber reserves the next provisional number, e.g. "DR-12".
func (a *Allocator) NextDraftNumber(ctx context.Context, tx *gorm.DB, docType domain.DocType, year int) (string, error) {
	seq, err := a.nextSeq(ctx, tx, draftCounterTable, docType, year)
	if err != nil {
		return "", err
	}
	return FormatDraftNumber(seq), nil
}

// NextFinalNumber reserves the next permanent number, e.g. "RE-2025-00001".
func (a *Allocator) NextFinalNumber(ctx context.Context, tx *gorm.DB, docType domain.DocType, year int) (string, error) {
	seq, err := a.nextSeq(ctx, tx, finalCounterTable, docType, year)
	if err != nil {
		return "", err
	}
	return FormatFinalNumber(docType, year, seq), nil
}

// nextSeq performs an atomic increment-or-create on the counter row.
// The upsert serializes concurrent transactions on the (doc_type, year)
// key, so two callers can never observe the same pre-increment value.
func (a *Allocator) nextSeq(ctx context.Context, tx *gorm.DB, table string, docType domain.DocType, year int) (int64, error) {
	if !docType.Valid() {
		return 0, domain.ErrInvalidDocType
	}

	var seq int64
	err := tx.WithContext(ctx).Raw(fmt.Sprintf(
		`INSERT INTO %s (doc_type, year, last_seq)
		 VALUES (?, ?, 1)
		 ON CONFLICT (doc_type, year)
		 DO UPDATE SET last_seq = %s.last_seq + 1
		 RETURNING last_seq`,
		table, table),
		docType,
		year,
	).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func FormatDraftNumber(seq int64) string {
	return fmt.Sprintf("%s%d", draftPrefix, seq)
}

func FormatFinalNumber(docType domain.DocType, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", docType.FinalPrefix(), year, seq)
}

// IsDraftNumber reports whether a displayed number is still provisional.
func IsDraftNumber(number string) bool {
	return strings.HasPrefix(number, draftPrefix)
}
