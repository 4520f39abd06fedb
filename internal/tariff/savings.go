// Package tariff holds duty-rate arithmetic: preferential savings math and
// chapter-level rate estimates for codes the catalog does not carry.
package tariff

import (
	"github.com/shopspring/decimal"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/hscode"
)

// Savings summarizes the duty advantage of a preferential rate over the MFN
// base rate. Rates are percents, amounts are currency.
type Savings struct {
	MFNRate        float64
	PreferredRate  float64
	RateDifference float64
	// SavingsPercent is the share of the MFN duty avoided (0-100).
	SavingsPercent float64
	Eligible       bool
}

// Compute derives the savings between an MFN rate and a preferential rate,
// both as percents. Decimal arithmetic keeps the division exact at display
// precision.
func Compute(mfnRate, preferredRate float64) Savings {
	mfn := decimal.NewFromFloat(mfnRate)
	preferred := decimal.NewFromFloat(preferredRate)

	savings := Savings{
		MFNRate:       mfnRate,
		PreferredRate: preferredRate,
	}

	if mfn.LessThanOrEqual(decimal.Zero) || preferred.GreaterThanOrEqual(mfn) {
		return savings
	}

	diff := mfn.Sub(preferred)
	savings.Eligible = true
	savings.RateDifference, _ = diff.Round(4).Float64()
	savings.SavingsPercent, _ = diff.Div(mfn).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return savings
}

// AnnualSavings projects the currency saved per year on a trade volume at
// the computed rate difference.
func (s Savings) AnnualSavings(annualVolume float64) float64 {
	if !s.Eligible || annualVolume <= 0 {
		return 0
	}
	amount := decimal.NewFromFloat(annualVolume).
		Mul(decimal.NewFromFloat(s.RateDifference)).
		Div(decimal.NewFromInt(100))
	out, _ := amount.Round(2).Float64()
	return out
}

// chapterRates maps chapter numbers to typical MFN percents, used only when
// a code misses the catalog entirely. Values are conservative sector
// averages, not filed tariff lines.
var chapterRates = map[int]float64{
	9:  0,    // coffee, tea, spices
	22: 1.8,  // beverages
	29: 3.7,  // organic chemicals
	39: 4.2,  // plastics
	40: 2.5,  // rubber
	44: 1.7,  // wood
	48: 0,    // paper
	52: 7.9,  // cotton
	61: 14.9, // knitted apparel
	62: 11.6, // woven apparel
	64: 10.1, // footwear
	72: 0.6,  // iron and steel
	73: 1.6,  // articles of iron or steel
	76: 2.6,  // aluminium
	84: 1.3,  // machinery
	85: 1.7,  // electrical machinery
	87: 2.5,  // vehicles
	90: 1.9,  // optical and precision instruments
	94: 0.9,  // furniture
	95: 0,    // toys
}

// defaultChapterRate covers chapters absent from the table.
const defaultChapterRate = 3.5

// Estimate is a chapter-average rate guess for an unmatched code.
type Estimate struct {
	Chapter int
	MFNRate float64
	Source  string
}

// EstimateForCode returns the chapter-average MFN estimate for a canonical
// code. The Source field marks the number as an estimate so downstream
// display never presents it as a filed rate.
func EstimateForCode(code string) Estimate {
	chapter := hscode.Chapter(code)
	rate, ok := chapterRates[chapter]
	if !ok {
		rate = defaultChapterRate
	}
	return Estimate{
		Chapter: chapter,
		MFNRate: rate,
		Source:  "chapter_average",
	}
}
