package service

import (
	"context"
	"testing"

	"github.com/glanzwerk/beleg/internal/document/domain"
	workrecorddomain "github.com/glanzwerk/beleg/internal/workrecord/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertOfferToInvoice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	offer := h.createDocument(t, domain.DocTypeOffer)
	h.addLine(t, offer.ID.String(), 2, 1500)
	h.addLine(t, offer.ID.String(), 1, 4000)
	_, err := h.svc.ToggleFinalize(ctx, offer.ID.String())
	require.NoError(t, err)

	invoice, err := h.svc.ConvertOfferToInvoice(ctx, offer.ID.String())
	require.NoError(t, err)

	assert.Equal(t, domain.DocTypeInvoice, invoice.DocType)
	assert.Equal(t, domain.DocStatusDraft, invoice.Status)
	assert.False(t, invoice.IsFinal)
	require.NotNil(t, invoice.SourceOfferID)
	assert.Equal(t, offer.ID, *invoice.SourceOfferID)

	got, err := h.svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, int64(7000), got.NetTotalCents)
	assert.Equal(t, int64(1330), got.VatTotalCents)

	sourceOffer, err := h.svc.GetByID(ctx, offer.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.DocStatusConverted, sourceOffer.Status)

	// a converted offer cannot be converted again
	_, err = h.svc.ConvertOfferToInvoice(ctx, offer.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestConvertOfferToInvoice_RequiresFinalOffer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	draftOffer := h.createDocument(t, domain.DocTypeOffer)
	_, err := h.svc.ConvertOfferToInvoice(ctx, draftOffer.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	invoice := h.createDocument(t, domain.DocTypeInvoice)
	_, err = h.svc.ConvertOfferToInvoice(ctx, invoice.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCreditNoteFromInvoice_ClampsQuantities(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	invoice := h.paidInvoice(t, [2]int64{2, 1000})
	got, err := h.svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	srcLine := got.Lines[0]

	creditNote, err := h.svc.CreditNoteFromInvoice(ctx, domain.CreditNoteRequest{
		InvoiceID: invoice.ID.String(),
		Selections: []domain.CreditSelection{
			{LineID: srcLine.ID.String(), Qty: 5}, // clamped to the billed 2
		},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DocTypeCreditNote, creditNote.DocType)
	require.NotNil(t, creditNote.CreditForID)
	assert.Equal(t, invoice.ID, *creditNote.CreditForID)

	cn, err := h.svc.GetByID(ctx, creditNote.ID.String())
	require.NoError(t, err)
	require.Len(t, cn.Lines, 1)
	assert.Equal(t, 2.0, cn.Lines[0].Qty)
	assert.Equal(t, int64(-1000), cn.Lines[0].UnitNetCents)
	assert.Equal(t, int64(-2000), cn.NetTotalCents)
	assert.Equal(t, int64(-380), cn.VatTotalCents)
	assert.Equal(t, int64(-2380), cn.GrossTotalCents)
}

func TestCreditNoteFromInvoice_InvalidSelections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	invoice := h.paidInvoice(t, [2]int64{2, 1000})
	got, err := h.svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	srcLine := got.Lines[0]

	_, err = h.svc.CreditNoteFromInvoice(ctx, domain.CreditNoteRequest{InvoiceID: invoice.ID.String()})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	// a line that belongs to another document
	foreign := h.node.Generate()
	_, err = h.svc.CreditNoteFromInvoice(ctx, domain.CreditNoteRequest{
		InvoiceID:  invoice.ID.String(),
		Selections: []domain.CreditSelection{{LineID: foreign.String(), Qty: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	// every selection clamps to zero
	_, err = h.svc.CreditNoteFromInvoice(ctx, domain.CreditNoteRequest{
		InvoiceID:  invoice.ID.String(),
		Selections: []domain.CreditSelection{{LineID: srcLine.ID.String(), Qty: 0}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
}

func TestCreditNoteFromInvoice_RequiresPaidInvoice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	doc := h.createDocument(t, domain.DocTypeInvoice)
	line := h.addLine(t, doc.ID.String(), 1, 1000)
	_, err := h.svc.ToggleFinalize(ctx, doc.ID.String())
	require.NoError(t, err)

	_, err = h.svc.CreditNoteFromInvoice(ctx, domain.CreditNoteRequest{
		InvoiceID:  doc.ID.String(),
		Selections: []domain.CreditSelection{{LineID: line.ID.String(), Qty: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestStornoFromInvoice_MirrorsAllLines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	invoice := h.paidInvoice(t, [2]int64{2, 1000}, [2]int64{1, 4000})

	storno, err := h.svc.StornoFromInvoice(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.DocTypeStorno, storno.DocType)
	require.NotNil(t, storno.CreditForID)
	assert.Equal(t, invoice.ID, *storno.CreditForID)

	st, err := h.svc.GetByID(ctx, storno.ID.String())
	require.NoError(t, err)
	require.Len(t, st.Lines, 2)
	assert.Equal(t, int64(-1000), st.Lines[0].UnitNetCents)
	assert.Equal(t, int64(-4000), st.Lines[1].UnitNetCents)
	assert.Equal(t, int64(-6000), st.NetTotalCents)
	assert.Equal(t, int64(-1140), st.VatTotalCents)

	// the reversed invoice is cancelled in the same transaction
	src, err := h.svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.DocStatusCancelled, src.Status)
	require.NotNil(t, src.CancelledAt)

	_, err = h.svc.StornoFromInvoice(ctx, invoice.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestStornoFromInvoice_RequiresPaidInvoice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	doc := h.createDocument(t, domain.DocTypeInvoice)
	h.addLine(t, doc.ID.String(), 1, 1000)
	_, err := h.svc.ToggleFinalize(ctx, doc.ID.String())
	require.NoError(t, err)

	// finalized but unpaid, so still SENT
	_, err = h.svc.StornoFromInvoice(ctx, doc.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	src, err := h.svc.GetByID(ctx, doc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.DocStatusSent, src.Status)
}

func TestStornoFromInvoice_NegatesDiscountLines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	invoice := h.paidInvoice(t, [2]int64{1, 10000}, [2]int64{1, -500})
	src, err := h.svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	require.Equal(t, int64(9500), src.NetTotalCents)

	storno, err := h.svc.StornoFromInvoice(ctx, invoice.ID.String())
	require.NoError(t, err)

	st, err := h.svc.GetByID(ctx, storno.ID.String())
	require.NoError(t, err)
	require.Len(t, st.Lines, 2)
	assert.Equal(t, int64(-10000), st.Lines[0].UnitNetCents)
	assert.Equal(t, int64(500), st.Lines[1].UnitNetCents)
	assert.Equal(t, -src.NetTotalCents, st.NetTotalCents)
	assert.Equal(t, -src.VatTotalCents, st.VatTotalCents)
	assert.Equal(t, -src.GrossTotalCents, st.GrossTotalCents)
}

func TestInvoiceFromWorkRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	customer := h.createCustomer(t, nil)
	record := workrecorddomain.WorkRecord{
		ID:           h.node.Generate(),
		CustomerID:   customer.ID,
		Status:       workrecorddomain.WorkRecordStatusOpen,
		SecondsInnen: 2820, // 47 minutes -> 4.7 work units
		CreatedAt:    h.clock.Now(),
		UpdatedAt:    h.clock.Now(),
	}
	require.NoError(t, h.db.Create(&record).Error)

	invoice, err := h.svc.InvoiceFromWorkRecord(ctx, domain.InvoiceFromWorkRecordRequest{
		WorkRecordID: record.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DocTypeInvoice, invoice.DocType)
	require.NotNil(t, invoice.CustomerID)
	assert.Equal(t, customer.ID, *invoice.CustomerID)

	got, err := h.svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	line := got.Lines[0]
	assert.Equal(t, "Innenreinigung", line.Title)
	assert.Equal(t, 4.7, line.Qty)
	// shop default 9000 cents/h at 10-minute units -> 1500 per unit
	assert.Equal(t, int64(1500), line.UnitNetCents)
	// VAT comes from the pricing config default
	assert.Equal(t, 19, line.VatRate)
	assert.Equal(t, int64(7050), line.LineNetCents)
	assert.Equal(t, int64(1340), line.LineVatCents)

	var stored workrecorddomain.WorkRecord
	require.NoError(t, h.db.Raw(`SELECT * FROM work_records WHERE id = ?`, record.ID).Scan(&stored).Error)
	assert.Equal(t, workrecorddomain.WorkRecordStatusBilled, stored.Status)
	require.NotNil(t, stored.InvoiceID)
	assert.Equal(t, invoice.ID, *stored.InvoiceID)

	// converting again returns the linked invoice instead of a new one
	again, err := h.svc.InvoiceFromWorkRecord(ctx, domain.InvoiceFromWorkRecordRequest{
		WorkRecordID: record.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, invoice.ID, again.ID)
}

func TestInvoiceFromWorkRecord_MultipleCategories(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	customer := h.createCustomer(t, nil)
	record := workrecorddomain.WorkRecord{
		ID:            h.node.Generate(),
		CustomerID:    customer.ID,
		Status:        workrecorddomain.WorkRecordStatusOpen,
		SecondsInnen:  600,
		SecondsAussen: 1200,
		CreatedAt:     h.clock.Now(),
		UpdatedAt:     h.clock.Now(),
	}
	require.NoError(t, h.db.Create(&record).Error)

	invoice, err := h.svc.InvoiceFromWorkRecord(ctx, domain.InvoiceFromWorkRecordRequest{
		WorkRecordID: record.ID.String(),
	})
	require.NoError(t, err)

	got, err := h.svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Innenreinigung", got.Lines[0].Title)
	assert.Equal(t, 1.0, got.Lines[0].Qty)
	assert.Equal(t, "Außenreinigung", got.Lines[1].Title)
	assert.Equal(t, 2.0, got.Lines[1].Qty)
	assert.Equal(t, []int{1, 2}, linePositions(got.Lines))
}

func TestInvoiceFromWorkRecord_RateResolution(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	customerRate := int64(12000)
	customer := h.createCustomer(t, &customerRate)
	record := workrecorddomain.WorkRecord{
		ID:           h.node.Generate(),
		CustomerID:   customer.ID,
		Status:       workrecorddomain.WorkRecordStatusOpen,
		SecondsInnen: 600,
		CreatedAt:    h.clock.Now(),
		UpdatedAt:    h.clock.Now(),
	}
	require.NoError(t, h.db.Create(&record).Error)

	// customer rate beats the shop default
	invoice, err := h.svc.InvoiceFromWorkRecord(ctx, domain.InvoiceFromWorkRecordRequest{
		WorkRecordID: record.ID.String(),
	})
	require.NoError(t, err)
	got, err := h.svc.GetByID(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.Lines[0].UnitNetCents)

	// an explicit override beats everything
	override := int64(6000)
	second := workrecorddomain.WorkRecord{
		ID:           h.node.Generate(),
		CustomerID:   customer.ID,
		Status:       workrecorddomain.WorkRecordStatusOpen,
		SecondsInnen: 600,
		CreatedAt:    h.clock.Now(),
		UpdatedAt:    h.clock.Now(),
	}
	require.NoError(t, h.db.Create(&second).Error)

	overridden, err := h.svc.InvoiceFromWorkRecord(ctx, domain.InvoiceFromWorkRecordRequest{
		WorkRecordID:    second.ID.String(),
		HourlyRateCents: &override,
	})
	require.NoError(t, err)
	got, err = h.svc.GetByID(ctx, overridden.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Lines[0].UnitNetCents)
}

func TestInvoiceFromWorkRecord_EmptyRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	customer := h.createCustomer(t, nil)
	record := workrecorddomain.WorkRecord{
		ID:         h.node.Generate(),
		CustomerID: customer.ID,
		Status:     workrecorddomain.WorkRecordStatusOpen,
		CreatedAt:  h.clock.Now(),
		UpdatedAt:  h.clock.Now(),
	}
	require.NoError(t, h.db.Create(&record).Error)

	_, err := h.svc.InvoiceFromWorkRecord(ctx, domain.InvoiceFromWorkRecordRequest{
		WorkRecordID: record.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
}
