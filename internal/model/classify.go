package model

import "time"

// KeywordMapping routes a product keyword to curated search terms and the
// chapters where matching codes live. ConfidenceBoost is additive scoring
// weight applied when the keyword fires.
type KeywordMapping struct {
	Keyword         string
	Category        string
	SearchTerms     []string
	Chapters        []int
	ConfidenceBoost float64
}

// BusinessProfile maps a business category to the chapters its products
// usually classify under. Priority is one of "high", "medium" or "low".
type BusinessProfile struct {
	BusinessType string
	Priority     string
	Reason       string
	Chapters     []int
}

// ClassificationLogEntry is one audit row recording a classification attempt.
type ClassificationLogEntry struct {
	ID          int64
	Description string
	Code        string
	Method      string
	Confidence  int
	CreatedAt   time.Time
}
