package domain_test

import (
	"testing"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
)

func TestParseRiskLevel(t *testing.T) {
	cases := []struct {
		in   string
		want domain.RiskLevel
	}{
		{"Low", domain.RiskLow},
		{"  medium ", domain.RiskMedium},
		{"High", domain.RiskHigh},
		{"Very High", domain.RiskHigh},
		{"SEVERE", domain.RiskHigh},
		{"moderate", domain.RiskMedium},
	}
	for _, c := range cases {
		got, err := domain.ParseRiskLevel(c.in)
		if err != nil {
			t.Errorf("ParseRiskLevel(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseRiskLevel(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestParseRiskLevel_Unknown(t *testing.T) {
	if _, err := domain.ParseRiskLevel("catastrophic maybe"); err == nil {
		t.Error("expected error for unknown label")
	}
	if _, err := domain.ParseRiskLevel(""); err == nil {
		t.Error("expected error for empty label")
	}
}

func TestGeoPointValidate(t *testing.T) {
	ok := domain.GeoPoint{Lat: 43.263, Lon: -2.935}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := []domain.GeoPoint{
		{Lat: 200, Lon: 0},
		{Lat: -91, Lon: 0},
		{Lat: 0, Lon: 181},
		{Lat: 0, Lon: -180.5},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("expected error for %+v", p)
		}
	}
}
