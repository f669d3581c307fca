package labeling

import "strings"

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

var ConfidenceLevels = []Confidence{ConfidenceHigh, ConfidenceMedium, ConfidenceLow}

// ParseConfidence is case-insensitive and returns the canonical spelling.
func ParseConfidence(raw string) (Confidence, bool) {
	s := strings.TrimSpace(raw)
	for _, c := range ConfidenceLevels {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}
