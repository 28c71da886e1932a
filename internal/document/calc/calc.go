// Package calc computes line and document totals in integer cents.
package calc

import (
	"math"

	"github.com/glanzwerk/beleg/internal/document/domain"
)

// Totals carries the cent amounts of a single line or a whole document.
type Totals struct {
	NetCents   int64
	VatCents   int64
	GrossCents int64
}

// Line computes net, VAT and gross cents for one document line.
//
// This function is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
//
// Each step rounds half away from zero; later steps consume the already
// rounded value of the previous one and are never re-derived from other
// lines' outputs.
func Line(qty float64, unitNetCents int64, vatRate int, discountPct float64, treatment domain.TaxTreatment) Totals {
	rawNet := Round(qty * float64(unitNetCents))
	netCents := Round(float64(rawNet) * (1 - discountPct/100))

	var vatCents int64
	if treatment != domain.TaxTreatmentMarginScheme {
		vatCents = Round(float64(netCents) * float64(vatRate) / 100)
	}

	return Totals{
		NetCents:   netCents,
		VatCents:   vatCents,
		GrossCents: netCents + vatCents,
	}
}

// Round rounds half away from zero to the nearest integer cent.
func Round(x float64) int64 {
	if x >= 0 {
		return int64(math.Floor(x + 0.5))
	}
	return int64(math.Ceil(x - 0.5))
}

// Sum recomputes document totals from all stored lines. Margin-scheme
// lines carry a zero VAT amount, so they contribute to net and gross only.
func Sum(lines []domain.DocumentLine) Totals {
	var totals Totals
	for _, line := range lines {
		totals.NetCents += line.LineNetCents
		totals.VatCents += line.LineVatCents
		totals.GrossCents += line.LineGrossCents
	}
	return totals
}

// WorkUnits converts tracked seconds into a billable quantity of
// fixed-duration work units, rounded to two decimals with a floor of 0.01
// so tracked time never bills as zero.
func WorkUnits(seconds int64, unitMinutes int) float64 {
	if seconds <= 0 || unitMinutes <= 0 {
		return 0
	}
	units := float64(seconds) / 60 / float64(unitMinutes)
	rounded := math.Floor(units*100+0.5) / 100
	if rounded < 0.01 {
		return 0.01
	}
	return rounded
}
