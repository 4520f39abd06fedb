package llm

import "strings"

// staticCatalog is the last line of the Tier-3 chain: a small table of
// common product families that still yields a usable, clearly marked stale
// answer when every provider and cache is empty. Rates are chapter-typical
// estimates, not filed tariff lines.
var staticCatalog = []staticEntry{
	{keywords: []string{"cable", "wire", "conductor", "cord"}, code: "854442", explanation: "Insulated electric conductors fitted with connectors", mfnRate: 2.6},
	{keywords: []string{"brake", "clutch", "axle", "bumper"}, code: "870830", explanation: "Parts and accessories of motor vehicles", mfnRate: 2.5},
	{keywords: []string{"laptop", "computer", "tablet"}, code: "847130", explanation: "Portable automatic data processing machines", mfnRate: 0},
	{keywords: []string{"phone", "smartphone", "handset"}, code: "851713", explanation: "Smartphones for cellular networks", mfnRate: 0},
	{keywords: []string{"shirt", "t-shirt", "blouse"}, code: "610990", explanation: "T-shirts, singlets and other vests, knitted", mfnRate: 16.5},
	{keywords: []string{"shoe", "sneaker", "boot", "footwear"}, code: "640399", explanation: "Footwear with outer soles of rubber or plastics", mfnRate: 10},
	{keywords: []string{"chair", "sofa", "furniture", "table"}, code: "940360", explanation: "Wooden furniture", mfnRate: 0},
	{keywords: []string{"pump", "compressor", "valve"}, code: "841370", explanation: "Centrifugal pumps for liquids", mfnRate: 0},
	{keywords: []string{"coffee", "espresso"}, code: "090111", explanation: "Coffee, not roasted, not decaffeinated", mfnRate: 0},
	{keywords: []string{"clove", "pepper", "cinnamon", "spice"}, code: "090710", explanation: "Cloves and other spices, whole", mfnRate: 0},
	{keywords: []string{"toy", "puzzle", "game"}, code: "950300", explanation: "Toys, scale models and puzzles", mfnRate: 0},
	{keywords: []string{"steel", "iron bar", "rebar"}, code: "721420", explanation: "Bars and rods of iron or non-alloy steel", mfnRate: 0},
}

type staticEntry struct {
	code        string
	explanation string
	keywords    []string
	mfnRate     float64
}

// staticConfidence marks every static answer: usable but unverified.
const staticConfidence = 50

// lookupStatic scans the static table for a keyword hit in the description.
func lookupStatic(description string) (Suggestion, bool) {
	lower := strings.ToLower(description)
	for _, entry := range staticCatalog {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return Suggestion{
					Code:        entry.code,
					Explanation: entry.explanation,
					Confidence:  staticConfidence,
					MFNRate:     entry.mfnRate,
				}, true
			}
		}
	}
	return Suggestion{}, false
}
