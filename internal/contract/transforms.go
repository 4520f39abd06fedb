package contract

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JulesSitpach/triangle-trade-intelligence-sub015/internal/hscode"
)

// Canonical field names.
const (
	FieldDescription   = "description"
	FieldHSCode        = "hs_code"
	FieldMFNRate       = "mfn_rate"
	FieldUSMCARate     = "usmca_rate"
	FieldSavingsPct    = "savings_percentage"
	FieldOriginCountry = "origin_country"
	FieldConfidence    = "confidence"
	FieldRateSource    = "rate_source"
	FieldStale         = "stale"
	FieldHSDescription = "hs_description"
)

// DefaultContract loads the classification field registry.
//
// Representation conventions per layer:
//   - storage: rates are percent strings with two decimals ("25.00"),
//     codes are 10-digit zero-padded, flags are 0/1 integers
//   - interchange: rates are decimal fractions (0.25), codes are digit
//     strings at natural length, flags are bools
//   - presentation: everything is display text ("25.00%", dotted codes)
//   - analysis: rates are percent floats (25.0) for savings math
func DefaultContract() (*Contract, error) {
	fields := []Field{
		{
			Name:     FieldDescription,
			Required: true,
			Types:    uniformTypes("string"),
		},
		{
			Name:     FieldHSCode,
			Required: true,
			Types:    uniformTypes("string"),
		},
		{
			Name:      FieldMFNRate,
			Required:  true,
			Types:     rateTypes(),
			Fallbacks: rateFallbacks(),
		},
		{
			Name:      FieldUSMCARate,
			Required:  true,
			Types:     rateTypes(),
			Fallbacks: rateFallbacks(),
		},
		{
			Name:      FieldSavingsPct,
			Types:     rateTypes(),
			Fallbacks: rateFallbacks(),
		},
		{
			Name:  FieldOriginCountry,
			Types: uniformTypes("string"),
		},
		{
			Name: FieldConfidence,
			Types: map[Layer]string{
				LayerStorage:      "int",
				LayerInterchange:  "int",
				LayerPresentation: "string",
				LayerAnalysis:     "int",
			},
			Fallbacks: map[Layer]any{
				LayerStorage:      0,
				LayerInterchange:  0,
				LayerPresentation: "0%",
				LayerAnalysis:     0,
			},
		},
		{
			Name:  FieldRateSource,
			Types: uniformTypes("string"),
		},
		{
			Name: FieldStale,
			Types: map[Layer]string{
				LayerStorage:      "int",
				LayerInterchange:  "bool",
				LayerPresentation: "string",
				LayerAnalysis:     "bool",
			},
			Fallbacks: map[Layer]any{
				LayerStorage:      0,
				LayerInterchange:  false,
				LayerPresentation: "",
				LayerAnalysis:     false,
			},
		},
		{
			Name:  FieldHSDescription,
			Types: uniformTypes("string"),
		},
	}

	transforms := map[transformKey]transformFunc{}

	for _, name := range []string{FieldDescription, FieldOriginCountry, FieldRateSource, FieldHSDescription} {
		registerIdentityString(transforms, name)
	}
	registerCodeTransforms(transforms)
	for _, name := range []string{FieldMFNRate, FieldUSMCARate, FieldSavingsPct} {
		registerRateTransforms(transforms, name)
	}
	registerConfidenceTransforms(transforms)
	registerStaleTransforms(transforms)

	return newContract(fields, transforms)
}

func uniformTypes(kind string) map[Layer]string {
	return map[Layer]string{
		LayerStorage:      kind,
		LayerInterchange:  kind,
		LayerPresentation: kind,
		LayerAnalysis:     kind,
	}
}

func rateTypes() map[Layer]string {
	return map[Layer]string{
		LayerStorage:      "string",
		LayerInterchange:  "float",
		LayerPresentation: "string",
		LayerAnalysis:     "float",
	}
}

func rateFallbacks() map[Layer]any {
	return map[Layer]any{
		LayerStorage:      "0.00",
		LayerInterchange:  0.0,
		LayerPresentation: "0.00%",
		LayerAnalysis:     0.0,
	}
}

func register(transforms map[transformKey]transformFunc, field string, from, to Layer, fn transformFunc) {
	transforms[transformKey{field: field, from: from, to: to}] = fn
}

// registerIdentityString wires trimmed pass-through for plain text fields in
// every supported direction.
func registerIdentityString(transforms map[transformKey]transformFunc, field string) {
	identity := func(value any) (any, error) {
		s, err := asString(value)
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(s), nil
	}
	for _, pair := range allDirections() {
		register(transforms, field, pair[0], pair[1], identity)
	}
}

func registerCodeTransforms(transforms map[transformKey]transformFunc) {
	digits := func(value any) (string, error) {
		s, err := asString(value)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		for _, r := range s {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		if b.Len() < 2 {
			return "", fmt.Errorf("code %q has fewer than 2 digits", s)
		}
		return b.String(), nil
	}

	toDigits := func(value any) (any, error) {
		code, err := digits(value)
		if err != nil {
			return nil, err
		}
		if len(code) > 10 {
			code = code[:10]
		}
		return code, nil
	}
	toStorage := func(value any) (any, error) {
		code, err := digits(value)
		if err != nil {
			return nil, err
		}
		if len(code) > 10 {
			return code[:10], nil
		}
		return code + strings.Repeat("0", 10-len(code)), nil
	}
	toDotted := func(value any) (any, error) {
		code, err := digits(value)
		if err != nil {
			return nil, err
		}
		return hscode.FormatDotted(code), nil
	}
	register(transforms, FieldHSCode, LayerStorage, LayerInterchange, toDigits)
	register(transforms, FieldHSCode, LayerInterchange, LayerStorage, toStorage)
	register(transforms, FieldHSCode, LayerInterchange, LayerPresentation, toDotted)
	register(transforms, FieldHSCode, LayerInterchange, LayerAnalysis, toDigits)
	register(transforms, FieldHSCode, LayerAnalysis, LayerInterchange, toDigits)
	register(transforms, FieldHSCode, LayerAnalysis, LayerStorage, toStorage)
	register(transforms, FieldHSCode, LayerPresentation, LayerInterchange, toDigits)
	register(transforms, FieldHSCode, LayerStorage, LayerPresentation, toDotted)
}

// registerRateTransforms wires the percent-string / fraction / percent-float
// conversions for one rate field. Storage and interchange forms round-trip
// exactly at two decimal places.
func registerRateTransforms(transforms map[transformKey]transformFunc, field string) {
	storageToFraction := func(value any) (any, error) {
		s, err := asString(value)
		if err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("rate %q is not numeric: %w", s, err)
		}
		return d.Div(decimal.NewFromInt(100)).InexactFloat64(), nil
	}
	fractionToStorage := func(value any) (any, error) {
		f, err := asFloat(value)
		if err != nil {
			return nil, err
		}
		return decimal.NewFromFloat(f).Mul(decimal.NewFromInt(100)).StringFixed(2), nil
	}
	fractionToPercentText := func(value any) (any, error) {
		f, err := asFloat(value)
		if err != nil {
			return nil, err
		}
		return decimal.NewFromFloat(f).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%", nil
	}
	fractionToPercent := func(value any) (any, error) {
		f, err := asFloat(value)
		if err != nil {
			return nil, err
		}
		return decimal.NewFromFloat(f).Mul(decimal.NewFromInt(100)).InexactFloat64(), nil
	}
	percentToFraction := func(value any) (any, error) {
		f, err := asFloat(value)
		if err != nil {
			return nil, err
		}
		return decimal.NewFromFloat(f).Div(decimal.NewFromInt(100)).InexactFloat64(), nil
	}
	percentToStorage := func(value any) (any, error) {
		f, err := asFloat(value)
		if err != nil {
			return nil, err
		}
		// Percents outside 0..100 are clamped, not rejected.
		if f < 0 {
			f = 0
		}
		if f > 100 {
			f = 100
		}
		return decimal.NewFromFloat(f).StringFixed(2), nil
	}

	register(transforms, field, LayerStorage, LayerInterchange, storageToFraction)
	register(transforms, field, LayerInterchange, LayerStorage, fractionToStorage)
	register(transforms, field, LayerInterchange, LayerPresentation, fractionToPercentText)
	register(transforms, field, LayerInterchange, LayerAnalysis, fractionToPercent)
	register(transforms, field, LayerAnalysis, LayerInterchange, percentToFraction)
	register(transforms, field, LayerAnalysis, LayerStorage, percentToStorage)
}

func registerConfidenceTransforms(transforms map[transformKey]transformFunc) {
	clamp := func(value any) (any, error) {
		n, err := asInt(value)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			n = 0
		}
		if n > 100 {
			n = 100
		}
		return n, nil
	}
	toText := func(value any) (any, error) {
		n, err := clamp(value)
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("%d%%", n), nil
	}

	register(transforms, FieldConfidence, LayerStorage, LayerInterchange, clamp)
	register(transforms, FieldConfidence, LayerInterchange, LayerStorage, clamp)
	register(transforms, FieldConfidence, LayerInterchange, LayerPresentation, toText)
	register(transforms, FieldConfidence, LayerInterchange, LayerAnalysis, clamp)
	register(transforms, FieldConfidence, LayerAnalysis, LayerInterchange, clamp)
	register(transforms, FieldConfidence, LayerAnalysis, LayerStorage, clamp)
}

func registerStaleTransforms(transforms map[transformKey]transformFunc) {
	toBool := func(value any) (any, error) {
		switch v := value.(type) {
		case bool:
			return v, nil
		case int:
			return v != 0, nil
		case int64:
			return v != 0, nil
		case float64:
			return v != 0, nil
		default:
			return nil, fmt.Errorf("cannot read %T as flag", value)
		}
	}
	toFlag := func(value any) (any, error) {
		b, err := toBool(value)
		if err != nil {
			return nil, err
		}
		if b.(bool) {
			return 1, nil
		}
		return 0, nil
	}
	toText := func(value any) (any, error) {
		b, err := toBool(value)
		if err != nil {
			return nil, err
		}
		if b.(bool) {
			return "stale", nil
		}
		return "", nil
	}

	register(transforms, FieldStale, LayerStorage, LayerInterchange, toBool)
	register(transforms, FieldStale, LayerInterchange, LayerStorage, toFlag)
	register(transforms, FieldStale, LayerInterchange, LayerPresentation, toText)
	register(transforms, FieldStale, LayerInterchange, LayerAnalysis, toBool)
	register(transforms, FieldStale, LayerAnalysis, LayerInterchange, toBool)
	register(transforms, FieldStale, LayerAnalysis, LayerStorage, toFlag)
}

func allDirections() [][2]Layer {
	var pairs [][2]Layer
	for _, from := range allLayers {
		for _, to := range allLayers {
			if from != to {
				pairs = append(pairs, [2]Layer{from, to})
			}
		}
	}
	return pairs
}

func asString(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", value)
	}
	return s, nil
}

func asFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}

func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", value)
	}
}
