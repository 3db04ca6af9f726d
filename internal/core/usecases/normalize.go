package usecases

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
)

// ErrUnparseable means the model output could not be coerced into an assessment.
var ErrUnparseable = errors.New("model output is not a valid assessment")

// modelPayload mirrors the JSON shape the prompts ask the model to produce.
type modelPayload struct {
	RiskLevel         string   `json:"risk_level"`
	Factors           []string `json:"factors"`
	Recommendations   []string `json:"recommendations"`
	HistoricalContext string   `json:"historical_context"`
	Elevation         float64  `json:"elevation"`
	DistanceFromWater float64  `json:"distance_from_water"`
	Analysis          string   `json:"analysis"`
}

// NormalizeModelOutput coerces raw model text into a domain.Assessment.
// The model sometimes wraps its JSON in prose or markdown fences, so the first
// balanced JSON object is extracted before unmarshalling. A missing or unknown
// risk_level fails the whole response (fail closed) — the caller decides
// whether to retry with a stricter instruction.
func NormalizeModelOutput(raw string) (*domain.Assessment, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in output", ErrUnparseable)
	}

	var p modelPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	level, err := domain.ParseRiskLevel(p.RiskLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	a := &domain.Assessment{
		RiskLevel:         level,
		Factors:           p.Factors,
		Recommendations:   p.Recommendations,
		HistoricalContext: strings.TrimSpace(p.HistoricalContext),
		Elevation:         p.Elevation,
		DistanceFromWater: p.DistanceFromWater,
		Analysis:          strings.TrimSpace(p.Analysis),
	}
	if a.Factors == nil {
		a.Factors = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	return a, nil
}

// extractJSONObject returns the first balanced top-level JSON object in s.
// Braces inside JSON strings (and escaped quotes) are ignored.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
