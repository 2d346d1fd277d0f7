package country

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"english passthrough", "Jordan", "Jordan"},
		{"arabic jordan", "الأردن", "Jordan"},
		{"ksa abbreviation", "KSA", "Saudi Arabia"},
		{"arabic saudi", "السعودية", "Saudi Arabia"},
		{"uae long form", "United Arab Emirates", "UAE"},
		{"arabic uae", "الإمارات", "UAE"},
		{"arabic turkey", "تركيا", "Turkey"},
		{"arabic egypt", "مصر", "Egypt"},
		{"case insensitive", "jordan", "Jordan"},
		{"whitespace trimmed", "  Egypt  ", "Egypt"},
		{"unknown passes through", "Iraq", "Iraq"},
		{"empty", "", ""},
		{"blank", "   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestArabicLabel(t *testing.T) {
	assert.Equal(t, "الأردن", ArabicLabel("Jordan"))
	assert.Equal(t, "", ArabicLabel("Iraq"))
}
