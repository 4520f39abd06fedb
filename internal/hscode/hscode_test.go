package hscode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       string
		wantNotice bool
		wantErr    bool
	}{
		{
			name: "dotted input",
			raw:  "8544.42.90.00",
			want: "8544429000",
		},
		{
			name: "plain digits",
			raw:  "8544429000",
			want: "8544429000",
		},
		{
			name: "spaced input",
			raw:  "8544 42 90 00",
			want: "8544429000",
		},
		{
			name: "chapter shorthand pads to six digits",
			raw:  "85",
			want: "850000",
		},
		{
			name: "heading shorthand pads to six digits",
			raw:  "8708",
			want: "870800",
		},
		{
			name: "six digits unchanged",
			raw:  "854442",
			want: "854442",
		},
		{
			name: "eight digits unchanged",
			raw:  "85444290",
			want: "85444290",
		},
		{
			name:       "fourteen digits truncates to ten",
			raw:        "85444290001234",
			want:       "8544429000",
			wantNotice: true,
		},
		{
			name:    "single digit too short",
			raw:     "8",
			wantErr: true,
		},
		{
			name:    "empty input",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "no digits at all",
			raw:     "copper wire",
			wantErr: true,
		},
		{
			name:    "chapter zero rejected",
			raw:     "0012",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, notice, err := Normalize(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var normErr *NormalizationError
				require.ErrorAs(t, err, &normErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.wantNotice {
				assert.NotEmpty(t, notice)
			} else {
				assert.Empty(t, notice)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"85", "8708", "854442", "8544.42.90.00", "8544429000", "85444290001234"}

	for _, raw := range inputs {
		once, _, err := Normalize(raw)
		require.NoError(t, err)

		twice, notice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "normalize should be idempotent for %q", raw)
		assert.Empty(t, notice)
	}
}

func TestEquivalentFormsNormalizeIdentically(t *testing.T) {
	forms := []string{"8544.42.90.00", "8544429000", "8544 42 90 00", "8544-42-90-00"}

	first, _, err := Normalize(forms[0])
	require.NoError(t, err)

	for _, f := range forms[1:] {
		got, _, err := Normalize(f)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestFallbackLadder(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []string
	}{
		{
			name: "full ten digit code",
			code: "8544429000",
			want: []string{"8544429000", "85444290", "854442", "8544", "85"},
		},
		{
			name: "eight digit code",
			code: "85444290",
			want: []string{"85444290", "854442", "8544", "85"},
		},
		{
			name: "six digit code",
			code: "854442",
			want: []string{"854442", "8544", "85"},
		},
		{
			name: "padded chapter collapses duplicates",
			code: "850000",
			want: []string{"850000", "8500", "85"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackLadder(tt.code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackLadderProperties(t *testing.T) {
	codes := []string{"8544429000", "85444290", "854442", "870830", "0907100000"}

	for _, code := range codes {
		ladder := FallbackLadder(code)
		require.NotEmpty(t, ladder)
		assert.Equal(t, code, ladder[0], "first element must equal the input")

		for i := 1; i < len(ladder); i++ {
			assert.Less(t, len(ladder[i]), len(ladder[i-1]),
				"ladder must be strictly decreasing in length")
		}
	}
}

func TestChapterAndHeading(t *testing.T) {
	assert.Equal(t, 85, Chapter("8544429000"))
	assert.Equal(t, 9, Chapter("090710"))
	assert.Equal(t, 0, Chapter("8"))
	assert.Equal(t, "8544", Heading("8544429000"))
	assert.Equal(t, "85", Heading("85"))
}

func TestFormatDotted(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"0907", "09.07"},
		{"090710", "0907.10"},
		{"09071000", "0907.10.00"},
		{"8544429000", "8544.42.90.00"},
		{"85", "85"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDotted(tt.code))
	}
}
