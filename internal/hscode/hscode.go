// Package hscode canonicalizes harmonized-system classification codes and
// derives the hierarchical fallback ladders used for progressive lookup.
//
// Canonical codes are digit-only strings at one of the standard specificity
// levels: 2 (chapter), 4 (heading), 6 (subheading), 8 (tariff line) or
// 10 (statistical suffix). Chapter and heading shorthand (2 or 4 digits) is
// padded to 6 digits with trailing zeros.
package hscode

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxDigits is the longest canonical code length (statistical suffix level).
const MaxDigits = 10

// MinDigits is the shortest acceptable raw input (chapter level).
const MinDigits = 2

// NormalizationError describes why a raw code could not be canonicalized.
// These are user-correctable input problems, not system failures.
type NormalizationError struct {
	Raw    string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("invalid classification code %q: %s", e.Raw, e.Reason)
}

// Normalize canonicalizes raw classification-code input: strips every
// non-digit character, pads chapter/heading shorthand to 6 digits, and
// truncates anything past 10 digits. The returned notice is non-empty when
// digits were discarded by truncation.
func Normalize(raw string) (code string, notice string, err error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	code = digits.String()
	if len(code) < MinDigits {
		return "", "", &NormalizationError{Raw: raw, Reason: "fewer than 2 digits"}
	}

	if len(code) > MaxDigits {
		notice = fmt.Sprintf("truncated %d-digit input to %d digits", len(code), MaxDigits)
		code = code[:MaxDigits]
	}

	// Chapter/heading shorthand convention: "85" means chapter 85, not a
	// literal 2-digit key, so pad up to subheading level.
	if len(code) == 2 || len(code) == 4 {
		code += strings.Repeat("0", 6-len(code))
	}

	chapter, _ := strconv.Atoi(code[:2])
	if chapter < 1 || chapter > 99 {
		return "", "", &NormalizationError{Raw: raw, Reason: "chapter segment must be 01-99"}
	}

	return code, notice, nil
}

// FallbackLadder returns the input code followed by its 8-, 6-, 4- and
// 2-digit prefixes, most specific first, with duplicates removed. Levels the
// input is already shorter than are skipped. The input is assumed canonical.
func FallbackLadder(code string) []string {
	ladder := make([]string, 0, 5)
	seen := make(map[string]bool, 5)

	for _, n := range []int{len(code), 8, 6, 4, 2} {
		if n > len(code) {
			continue
		}
		prefix := code[:n]
		if !seen[prefix] {
			seen[prefix] = true
			ladder = append(ladder, prefix)
		}
	}

	return ladder
}

// Chapter extracts the numeric chapter (first two digits) of a canonical
// code. Returns 0 for codes shorter than two digits.
func Chapter(code string) int {
	if len(code) < 2 {
		return 0
	}
	chapter, err := strconv.Atoi(code[:2])
	if err != nil {
		return 0
	}
	return chapter
}

// Heading returns the 4-digit heading prefix of a canonical code, or the
// whole code when it is shorter than a heading.
func Heading(code string) string {
	if len(code) < 4 {
		return code
	}
	return code[:4]
}

// FormatDotted renders a canonical code in the conventional dotted display
// form: 090710 becomes 0907.10, 8544429000 becomes 8544.42.90.00.
func FormatDotted(code string) string {
	switch {
	case len(code) <= 4:
		if len(code) == 4 {
			return code[:2] + "." + code[2:]
		}
		return code
	case len(code) <= 6:
		return code[:4] + "." + code[4:]
	case len(code) <= 8:
		return code[:4] + "." + code[4:6] + "." + code[6:]
	default:
		return code[:4] + "." + code[4:6] + "." + code[6:8] + "." + code[8:]
	}
}
