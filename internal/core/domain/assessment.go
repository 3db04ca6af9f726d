package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies what kind of input produced an assessment.
type Source string

const (
	SourceCoordinates Source = "coordinates"
	SourceImage       Source = "image"
	SourceWatchpoint  Source = "watchpoint"
)

// RiskLevel is the normalized flood-risk category.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ParseRiskLevel coerces a free-form model label into the three-level enum.
// The model occasionally emits "Very High" or "Severe"; those collapse into
// High rather than failing the whole response. Unknown labels are an error.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "minimal", "very low":
		return RiskLow, nil
	case "medium", "moderate":
		return RiskMedium, nil
	case "high", "very high", "severe", "extreme":
		return RiskHigh, nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

// Assessment is the normalized result of one flood-risk analysis.
type Assessment struct {
	ID                string    `json:"id"`
	Source            Source    `json:"source"`
	RiskLevel         RiskLevel `json:"risk_level"`
	Factors           []string  `json:"factors"`
	Recommendations   []string  `json:"recommendations"`
	HistoricalContext string    `json:"historical_context,omitempty"`
	Elevation         float64   `json:"elevation"`           // meters, model estimate
	DistanceFromWater float64   `json:"distance_from_water"` // meters, model estimate
	Analysis          string    `json:"analysis,omitempty"`
	Location          *GeoPoint `json:"location,omitempty"`
	Model             string    `json:"model,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Watchpoint is a named location monitored for periodic re-assessment.
type Watchpoint struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Location       GeoPoint   `json:"location"`
	LastRiskLevel  RiskLevel  `json:"last_risk_level,omitempty"`
	LastAssessedAt *time.Time `json:"last_assessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
