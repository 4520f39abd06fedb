package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadContract(t *testing.T) *Contract {
	t.Helper()
	c, err := DefaultContract()
	require.NoError(t, err)
	return c
}

func TestDefaultContractLoads(t *testing.T) {
	c := loadContract(t)
	assert.Len(t, c.Fields(), 10)
}

func TestRateStorageInterchangeRoundTrip(t *testing.T) {
	c := loadContract(t)

	fraction, err := c.TransformField(FieldMFNRate, LayerStorage, LayerInterchange, "25.00")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, fraction.(float64), 1e-9)

	back, err := c.TransformField(FieldMFNRate, LayerInterchange, LayerStorage, fraction)
	require.NoError(t, err)
	assert.Equal(t, "25.00", back.(string))
}

func TestRatePresentationAndAnalysis(t *testing.T) {
	c := loadContract(t)

	text, err := c.TransformField(FieldUSMCARate, LayerInterchange, LayerPresentation, 0.065)
	require.NoError(t, err)
	assert.Equal(t, "6.50%", text.(string))

	percent, err := c.TransformField(FieldUSMCARate, LayerInterchange, LayerAnalysis, 0.065)
	require.NoError(t, err)
	assert.InDelta(t, 6.5, percent.(float64), 1e-9)
}

func TestAnalysisToStorageClampsInsteadOfFailing(t *testing.T) {
	c := loadContract(t)

	clamped, err := c.TransformField(FieldMFNRate, LayerAnalysis, LayerStorage, 150.0)
	require.NoError(t, err)
	assert.Equal(t, "100.00", clamped.(string))

	clamped, err = c.TransformField(FieldMFNRate, LayerAnalysis, LayerStorage, -3.0)
	require.NoError(t, err)
	assert.Equal(t, "0.00", clamped.(string))
}

func TestBadRateFallsBackInsteadOfFailing(t *testing.T) {
	c := loadContract(t)

	// A corrupt storage value must yield the layer fallback, not an error.
	value, err := c.TransformField(FieldMFNRate, LayerStorage, LayerInterchange, "free")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, value.(float64), 1e-9)
}

func TestCodeTransforms(t *testing.T) {
	c := loadContract(t)

	stored, err := c.TransformField(FieldHSCode, LayerInterchange, LayerStorage, "854442")
	require.NoError(t, err)
	assert.Equal(t, "8544420000", stored.(string))

	truncated, err := c.TransformField(FieldHSCode, LayerInterchange, LayerStorage, "85444290001234")
	require.NoError(t, err)
	assert.Equal(t, "8544429000", truncated.(string))

	dotted, err := c.TransformField(FieldHSCode, LayerInterchange, LayerPresentation, "8544429000")
	require.NoError(t, err)
	assert.Equal(t, "8544.42.90.00", dotted.(string))

	digits, err := c.TransformField(FieldHSCode, LayerPresentation, LayerInterchange, "8544.42.90.00")
	require.NoError(t, err)
	assert.Equal(t, "8544429000", digits.(string))
}

func TestConfidenceClamped(t *testing.T) {
	c := loadContract(t)

	value, err := c.TransformField(FieldConfidence, LayerAnalysis, LayerInterchange, 150)
	require.NoError(t, err)
	assert.Equal(t, 100, value.(int))

	text, err := c.TransformField(FieldConfidence, LayerInterchange, LayerPresentation, 88)
	require.NoError(t, err)
	assert.Equal(t, "88%", text.(string))
}

func TestStaleFlag(t *testing.T) {
	c := loadContract(t)

	b, err := c.TransformField(FieldStale, LayerStorage, LayerInterchange, 1)
	require.NoError(t, err)
	assert.Equal(t, true, b.(bool))

	flag, err := c.TransformField(FieldStale, LayerInterchange, LayerStorage, false)
	require.NoError(t, err)
	assert.Equal(t, 0, flag.(int))

	text, err := c.TransformField(FieldStale, LayerInterchange, LayerPresentation, true)
	require.NoError(t, err)
	assert.Equal(t, "stale", text.(string))
}

func TestTransformRecord(t *testing.T) {
	c := loadContract(t)

	record := map[string]any{
		FieldDescription: "usb cable",
		FieldHSCode:      "8544429000",
		FieldMFNRate:     "2.60",
		FieldUSMCARate:   "0.00",
		FieldStale:       0,
	}

	out, err := c.Transform(record, LayerStorage, LayerInterchange)
	require.NoError(t, err)

	assert.Equal(t, "usb cable", out[FieldDescription])
	assert.Equal(t, "8544429000", out[FieldHSCode])
	assert.InDelta(t, 0.026, out[FieldMFNRate].(float64), 1e-9)
	assert.Equal(t, false, out[FieldStale])
}

func TestTransformRecordMissingRequiredField(t *testing.T) {
	c := loadContract(t)

	record := map[string]any{
		FieldDescription: "usb cable",
		FieldMFNRate:     "2.60",
		FieldUSMCARate:   "0.00",
	}

	_, err := c.Transform(record, LayerStorage, LayerInterchange)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FieldHSCode)
}

func TestTransformBatchCollectsPerItemFailures(t *testing.T) {
	c := loadContract(t)

	records := []map[string]any{
		{FieldDescription: "good", FieldHSCode: "854442", FieldMFNRate: "2.60", FieldUSMCARate: "0.00"},
		{FieldDescription: "broken"},
		{FieldDescription: "also good", FieldHSCode: "090710", FieldMFNRate: "0.00", FieldUSMCARate: "0.00"},
	}

	out, failures := c.TransformBatch(records, LayerStorage, LayerInterchange)
	assert.Len(t, out, 2)
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Index)
	assert.Equal(t, "broken", failures[0].Description)
}

func TestValidate(t *testing.T) {
	c := loadContract(t)

	t.Run("conforming record", func(t *testing.T) {
		record := map[string]any{
			FieldDescription: "usb cable",
			FieldHSCode:      "854442",
			FieldMFNRate:     0.026,
			FieldUSMCARate:   0.0,
			FieldStale:       false,
		}
		assert.Empty(t, c.Validate(record, LayerInterchange))
	})

	t.Run("wrong type and unknown field", func(t *testing.T) {
		record := map[string]any{
			FieldDescription: "usb cable",
			FieldHSCode:      854442,
			FieldMFNRate:     "2.60",
			FieldUSMCARate:   0.0,
			"mystery":        1,
		}
		violations := c.Validate(record, LayerInterchange)
		require.NotEmpty(t, violations)

		var fields []string
		for _, v := range violations {
			fields = append(fields, v.Field)
		}
		assert.Contains(t, fields, FieldHSCode)
		assert.Contains(t, fields, FieldMFNRate)
		assert.Contains(t, fields, "mystery")
	})

	t.Run("missing required field", func(t *testing.T) {
		violations := c.Validate(map[string]any{}, LayerStorage)
		require.NotEmpty(t, violations)
	})
}

func TestContractCompletenessEnforced(t *testing.T) {
	_, err := newContract([]Field{{
		Name:  "partial",
		Types: map[Layer]string{LayerStorage: "string"},
	}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing type")

	_, err = newContract(nil, map[transformKey]transformFunc{
		{field: "ghost", from: LayerStorage, to: LayerInterchange}: nil,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}
