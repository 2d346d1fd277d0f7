// Package country canonicalizes country names so that fee tiers, exchange
// rates and remittances all key on the same spelling regardless of whether
// the operator typed the Arabic or English form.
package country

import "strings"

var synonyms = map[string]string{
	"jordan":               "Jordan",
	"الأردن":               "Jordan",
	"saudi arabia":         "Saudi Arabia",
	"السعودية":             "Saudi Arabia",
	"ksa":                  "Saudi Arabia",
	"uae":                  "UAE",
	"الإمارات":             "UAE",
	"united arab emirates": "UAE",
	"turkey":               "Turkey",
	"تركيا":                "Turkey",
	"egypt":                "Egypt",
	"مصر":                  "Egypt",
}

var arabicLabels = map[string]string{
	"Jordan":       "الأردن",
	"Saudi Arabia": "السعودية",
	"UAE":          "الإمارات",
	"Turkey":       "تركيا",
	"Egypt":        "مصر",
}

// Normalize maps a raw country name to its canonical English form.
// Unrecognized input passes through trimmed but otherwise unchanged.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := synonyms[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// ArabicLabel returns the Arabic display name for a canonical country,
// or "" when none is known.
func ArabicLabel(canonical string) string {
	return arabicLabels[canonical]
}
