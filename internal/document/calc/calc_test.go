package calc

import (
	"testing"

	"github.com/glanzwerk/beleg/internal/document/domain"
	"github.com/stretchr/testify/assert"
)

func TestRound_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, int64(3), Round(2.5))
	assert.Equal(t, int64(2), Round(2.4))
	assert.Equal(t, int64(-3), Round(-2.5))
	assert.Equal(t, int64(-2), Round(-2.4))
	assert.Equal(t, int64(0), Round(0))
}

func TestLine_StandardVat(t *testing.T) {
	totals := Line(2, 1000, 19, 0, domain.TaxTreatmentStandard)

	assert.Equal(t, int64(2000), totals.NetCents)
	assert.Equal(t, int64(380), totals.VatCents)
	assert.Equal(t, int64(2380), totals.GrossCents)
}

func TestLine_DiscountRoundsBeforeVat(t *testing.T) {
	// 3 * 333 = 999, minus 10% = 899.1 -> 899, VAT 19% of 899 = 170.81 -> 171
	totals := Line(3, 333, 19, 10, domain.TaxTreatmentStandard)

	assert.Equal(t, int64(899), totals.NetCents)
	assert.Equal(t, int64(171), totals.VatCents)
	assert.Equal(t, int64(1070), totals.GrossCents)
}

func TestLine_FractionalQty(t *testing.T) {
	// 1.5 * 999 = 1498.5 -> 1499
	totals := Line(1.5, 999, 7, 0, domain.TaxTreatmentStandard)

	assert.Equal(t, int64(1499), totals.NetCents)
	assert.Equal(t, int64(105), totals.VatCents)
	assert.Equal(t, int64(1604), totals.GrossCents)
}

func TestLine_MarginSchemeZeroesVat(t *testing.T) {
	totals := Line(1, 250000, 19, 0, domain.TaxTreatmentMarginScheme)

	assert.Equal(t, int64(250000), totals.NetCents)
	assert.Equal(t, int64(0), totals.VatCents)
	assert.Equal(t, int64(250000), totals.GrossCents)
}

func TestLine_NegativeUnitPrice(t *testing.T) {
	totals := Line(2, -1000, 19, 0, domain.TaxTreatmentStandard)

	assert.Equal(t, int64(-2000), totals.NetCents)
	assert.Equal(t, int64(-380), totals.VatCents)
	assert.Equal(t, int64(-2380), totals.GrossCents)
}

func TestLine_Deterministic(t *testing.T) {
	first := Line(2.5, 777, 19, 12.5, domain.TaxTreatmentStandard)
	second := Line(2.5, 777, 19, 12.5, domain.TaxTreatmentStandard)

	assert.Equal(t, first, second)
	assert.Equal(t, first.NetCents+first.VatCents, first.GrossCents)
}

func TestSum_AddsStoredLineTotals(t *testing.T) {
	lines := []domain.DocumentLine{
		{LineNetCents: 1000, LineVatCents: 190, LineGrossCents: 1190},
		{LineNetCents: 500, LineVatCents: 0, LineGrossCents: 500},
		{LineNetCents: -300, LineVatCents: -57, LineGrossCents: -357},
	}

	totals := Sum(lines)
	assert.Equal(t, int64(1200), totals.NetCents)
	assert.Equal(t, int64(133), totals.VatCents)
	assert.Equal(t, int64(1333), totals.GrossCents)
}

func TestWorkUnits(t *testing.T) {
	// 47 minutes at 10-minute units: 2820/60/10 = 4.7
	assert.Equal(t, 4.7, WorkUnits(2820, 10))

	// 100 seconds at 10-minute units: 0.1666... -> 0.17
	assert.Equal(t, 0.17, WorkUnits(100, 10))

	// one second never bills as zero
	assert.Equal(t, 0.01, WorkUnits(1, 10))

	assert.Equal(t, float64(0), WorkUnits(0, 10))
	assert.Equal(t, float64(0), WorkUnits(-5, 10))
	assert.Equal(t, float64(0), WorkUnits(60, 0))
}
