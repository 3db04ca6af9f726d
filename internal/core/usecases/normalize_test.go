package usecases

import (
	"errors"
	"testing"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
)

func TestNormalizeModelOutputCleanJSON(t *testing.T) {
	raw := `{"risk_level":"High","factors":["low elevation","river proximity"],"recommendations":["elevate utilities"],"historical_context":"Flooded in 1983.","elevation":4.5,"distance_from_water":120,"analysis":"High risk area."}`

	a, err := NormalizeModelOutput(raw)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if a.RiskLevel != domain.RiskHigh {
		t.Errorf("expected High, got %s", a.RiskLevel)
	}
	if len(a.Factors) != 2 {
		t.Errorf("expected 2 factors, got %d", len(a.Factors))
	}
	if a.Elevation != 4.5 {
		t.Errorf("expected elevation 4.5, got %g", a.Elevation)
	}
}

func TestNormalizeModelOutputMarkdownFences(t *testing.T) {
	raw := "Here is the assessment:\n```json\n{\"risk_level\": \"Low\", \"analysis\": \"Flat plateau.\"}\n```\nLet me know if you need more."

	a, err := NormalizeModelOutput(raw)
	if err != nil {
		t.Fatalf("expected fenced JSON to parse, got %v", err)
	}
	if a.RiskLevel != domain.RiskLow {
		t.Errorf("expected Low, got %s", a.RiskLevel)
	}
	if a.Analysis != "Flat plateau." {
		t.Errorf("unexpected analysis: %q", a.Analysis)
	}
}

func TestNormalizeModelOutputProseWrapped(t *testing.T) {
	raw := `Based on the coordinates, {"risk_level":"Medium","factors":[],"analysis":"Moderate."} — hope that helps.`

	a, err := NormalizeModelOutput(raw)
	if err != nil {
		t.Fatalf("expected prose-wrapped JSON to parse, got %v", err)
	}
	if a.RiskLevel != domain.RiskMedium {
		t.Errorf("expected Medium, got %s", a.RiskLevel)
	}
}

func TestNormalizeModelOutputCoercesNonStandardLevels(t *testing.T) {
	cases := map[string]domain.RiskLevel{
		"Very High": domain.RiskHigh,
		"SEVERE":    domain.RiskHigh,
		"moderate":  domain.RiskMedium,
	}
	for in, want := range cases {
		a, err := NormalizeModelOutput(`{"risk_level":"` + in + `"}`)
		if err != nil {
			t.Errorf("%s: unexpected error %v", in, err)
			continue
		}
		if a.RiskLevel != want {
			t.Errorf("%s: expected %s, got %s", in, want, a.RiskLevel)
		}
	}
}

func TestNormalizeModelOutputFailsClosed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no json at all", "I cannot assess flood risk for this location."},
		{"unterminated object", `{"risk_level":"High"`},
		{"unknown risk level", `{"risk_level":"Banana"}`},
		{"missing risk level", `{"analysis":"looks wet"}`},
		{"empty string", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NormalizeModelOutput(tc.raw); !errors.Is(err, ErrUnparseable) {
				t.Errorf("expected ErrUnparseable, got %v", err)
			}
		})
	}
}

func TestNormalizeModelOutputNilSlicesBecomeEmpty(t *testing.T) {
	a, err := NormalizeModelOutput(`{"risk_level":"Low"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Factors == nil || a.Recommendations == nil {
		t.Error("factors and recommendations must never be nil")
	}
	if len(a.Factors) != 0 || len(a.Recommendations) != 0 {
		t.Error("expected empty slices")
	}
}

func TestExtractJSONObjectIgnoresBracesInStrings(t *testing.T) {
	raw := `{"risk_level":"Low","analysis":"the {dam} holds"}`
	obj, ok := extractJSONObject("noise " + raw + " trailing")
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if obj != raw {
		t.Errorf("expected %q, got %q", raw, obj)
	}
}
