package classify

import (
	"strings"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/model"
)

// Raw stage scores live on a 0..1 scale. Each stage has its own acceptance
// threshold; candidates below it never leave the stage.
const (
	directOverlapWeight  = 0.7
	directSubstringBonus = 0.3
	directRateBonus      = 0.1
	directThreshold      = 0.3

	keywordBase          = 0.5
	keywordTermWeight    = 0.3
	keywordOverlapWeight = 0.2
	keywordThreshold     = 0.4

	chapterBase          = 0.6
	chapterOverlapWeight = 0.2
	chapterThreshold     = 0.4

	similarityBase         = 0.4
	similarityQueryWeight  = 0.3
	similaritySeedWeight   = 0.3
	similarityThreshold    = 0.5
	similaritySeedCount    = 3
	similaritySeedMinScore = 0.7
)

// Final-confidence shaping. A raw score converts to points out of 70, then
// the search method, duty-rate evidence and description quality adjust it.
const (
	scoreScale = 70

	rateEvidenceBonus   = 5
	usmcaDifferentBonus = 5
	shortDescPenalty    = 5
	shortDescThreshold  = 20
	corroborationBonus  = 3
	minFinalConfidence  = 10
	maxFinalConfidence  = 100
)

// methodBoosts reward stages by the strength of their evidence.
var methodBoosts = map[model.MatchType]int{
	model.MatchDirect:     15,
	model.MatchKeyword:    12,
	model.MatchChapter:    10,
	model.MatchSimilarity: 5,
}

// candidate is a stage's intermediate output before final confidence
// shaping.
type candidate struct {
	record model.TariffRecord
	method model.MatchType
	score  float64
}

// finalConfidence converts a candidate's raw score into the 10..100
// confidence scale.
func finalConfidence(c candidate) int {
	confidence := int(c.score * scoreScale)
	confidence += methodBoosts[c.method]

	if c.record.MFNRate > 0 {
		confidence += rateEvidenceBonus
	}
	if c.record.MFNRate != c.record.USMCARate {
		confidence += usmcaDifferentBonus
	}
	if len(strings.TrimSpace(c.record.Description)) < shortDescThreshold {
		confidence -= shortDescPenalty
	}

	if confidence < minFinalConfidence {
		return minFinalConfidence
	}
	if confidence > maxFinalConfidence {
		return maxFinalConfidence
	}
	return confidence
}

// ConfidenceText labels a numeric confidence for display.
func ConfidenceText(confidence int) string {
	switch {
	case confidence >= 85:
		return "Excellent match"
	case confidence >= 70:
		return "Very good match"
	case confidence >= 50:
		return "Good match"
	case confidence >= 30:
		return "Fair match"
	default:
		return "Poor match"
	}
}
