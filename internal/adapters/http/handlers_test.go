package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ibaizabal/floodwatch/internal/core/domain"
	"github.com/ibaizabal/floodwatch/internal/core/usecases"
)

const modelJSON = `{"risk_level":"High","factors":["estuary"],"recommendations":["flood gates"],"historical_context":"1983 floods","elevation":3,"distance_from_water":50,"analysis":"High risk."}`

type stubModel struct {
	mu    sync.Mutex
	calls int
	text  func(prompt string) (string, error)
}

func (s *stubModel) GenerateText(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.text != nil {
		return s.text(prompt)
	}
	return modelJSON, nil
}

func (s *stubModel) GenerateFromImage(_ context.Context, _ string, _ []byte, _ string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return modelJSON, nil
}

func (s *stubModel) ModelName() string { return "stub-model" }

type stubAssessmentRepo struct {
	items []domain.Assessment
}

func (s *stubAssessmentRepo) Insert(_ context.Context, a *domain.Assessment) error {
	s.items = append(s.items, *a)
	return nil
}

func (s *stubAssessmentRepo) GetByID(_ context.Context, id string) (*domain.Assessment, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, errors.New("assessment not found")
}

func (s *stubAssessmentRepo) ListRecent(_ context.Context, limit, offset int) ([]domain.Assessment, error) {
	if offset >= len(s.items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.items) {
		end = len(s.items)
	}
	return s.items[offset:end], nil
}

func (s *stubAssessmentRepo) Count(_ context.Context) (int, error) {
	return len(s.items), nil
}

type stubWatchpointRepo struct {
	items map[string]*domain.Watchpoint
}

func newStubWatchpointRepo() *stubWatchpointRepo {
	return &stubWatchpointRepo{items: map[string]*domain.Watchpoint{}}
}

func (s *stubWatchpointRepo) Create(_ context.Context, wp *domain.Watchpoint) error {
	s.items[wp.ID] = wp
	return nil
}

func (s *stubWatchpointRepo) GetByID(_ context.Context, id string) (*domain.Watchpoint, error) {
	wp, ok := s.items[id]
	if !ok {
		return nil, errors.New("watchpoint not found")
	}
	return wp, nil
}

func (s *stubWatchpointRepo) List(_ context.Context) ([]domain.Watchpoint, error) {
	out := make([]domain.Watchpoint, 0, len(s.items))
	for _, wp := range s.items {
		out = append(out, *wp)
	}
	return out, nil
}

func (s *stubWatchpointRepo) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return errors.New("watchpoint not found")
	}
	delete(s.items, id)
	return nil
}

func (s *stubWatchpointRepo) RecordAssessment(_ context.Context, id string, level domain.RiskLevel) error {
	if wp, ok := s.items[id]; ok {
		wp.LastRiskLevel = level
	}
	return nil
}

func makeDeps(model *stubModel, arepo *stubAssessmentRepo, wrepo *stubWatchpointRepo) *Dependencies {
	assessor := usecases.NewAssessmentService(model, nil, nil, 0)
	deps := &Dependencies{Assessments: assessor}
	if arepo != nil {
		deps.History = usecases.NewHistoryService(arepo)
	}
	if wrepo != nil {
		deps.Watchpoints = usecases.NewWatchpointService(wrepo, assessor)
	}
	return deps
}

// setupApp registers the routes under test without the middleware stack.
func setupApp(deps *Dependencies) *fiber.App {
	app := fiber.New()
	app.Get("/health", HealthHandler(deps))
	app.Post("/api/analyze/coordinates", AnalyzeCoordinatesHandler(deps))
	app.Post("/api/analyze/image", AnalyzeImageHandler(deps))
	app.Get("/v1/assessments/recent", RecentAssessmentsHandler(deps))
	app.Get("/v1/assessments/:id", GetAssessmentHandler(deps))
	app.Post("/v1/watchpoints", CreateWatchpointHandler(deps))
	app.Get("/v1/watchpoints", ListWatchpointsHandler(deps))
	app.Delete("/v1/watchpoints/:id", DeleteWatchpointHandler(deps))
	app.Post("/graphql", GraphQLHandler(deps))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	data, _ := io.ReadAll(resp.Body)
	rec.Body = bytes.NewBuffer(data)
	return rec
}

func TestAnalyzeCoordinatesValid(t *testing.T) {
	app := setupApp(makeDeps(&stubModel{}, nil, nil))

	rec := postJSON(t, app, "/api/analyze/coordinates", `{"latitude":43.26,"longitude":-2.93}`)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var a domain.Assessment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if a.RiskLevel != domain.RiskHigh {
		t.Errorf("expected High, got %s", a.RiskLevel)
	}
	if a.Location == nil || a.Location.Lat != 43.26 || a.Location.Lon != -2.93 {
		t.Error("expected location echoed in response")
	}
	if len(a.Recommendations) == 0 {
		t.Error("expected recommendations present")
	}
}

func TestAnalyzeCoordinatesRejectsBadInput(t *testing.T) {
	app := setupApp(makeDeps(&stubModel{}, nil, nil))

	cases := []struct {
		name string
		body string
	}{
		{"latitude out of range", `{"latitude":200,"longitude":0}`},
		{"longitude out of range", `{"latitude":0,"longitude":-181}`},
		{"missing latitude", `{"longitude":10}`},
		{"missing both", `{}`},
		{"non-numeric latitude", `{"latitude":"abc","longitude":10}`},
		{"not json", `latitude=10`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, app, "/api/analyze/coordinates", tc.body)
			if rec.Code != 400 {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAnalyzeCoordinatesZeroZeroIsValid(t *testing.T) {
	app := setupApp(makeDeps(&stubModel{}, nil, nil))

	rec := postJSON(t, app, "/api/analyze/coordinates", `{"latitude":0,"longitude":0}`)
	if rec.Code != 200 {
		t.Errorf("0,0 is a real location; expected 200, got %d", rec.Code)
	}
}

func TestAnalyzeCoordinatesUpstreamFailure(t *testing.T) {
	model := &stubModel{text: func(string) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	}}
	app := setupApp(makeDeps(model, nil, nil))

	rec := postJSON(t, app, "/api/analyze/coordinates", `{"latitude":1,"longitude":1}`)
	if rec.Code != 502 {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var e APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if e.Message == "" {
		t.Error("expected error message in body")
	}
}

func TestAnalyzeCoordinatesUnparseableAfterRetry(t *testing.T) {
	model := &stubModel{text: func(string) (string, error) {
		return "no structured data here", nil
	}}
	app := setupApp(makeDeps(model, nil, nil))

	rec := postJSON(t, app, "/api/analyze/coordinates", `{"latitude":1,"longitude":1}`)
	if rec.Code != 502 {
		t.Fatalf("expected 502 after failed retry, got %d", rec.Code)
	}
	if model.calls != 2 {
		t.Errorf("expected exactly 2 upstream calls, got %d", model.calls)
	}
}

func multipartImage(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, "terrain.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 30, G: 90, B: 160, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestAnalyzeImageValid(t *testing.T) {
	app := setupApp(makeDeps(&stubModel{}, nil, nil))

	body, contentType := multipartImage(t, "file", testPNG(t))
	req := httptest.NewRequest("POST", "/api/analyze/image", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}

	var a domain.Assessment
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if a.Source != domain.SourceImage {
		t.Errorf("expected source image, got %s", a.Source)
	}
}

func TestAnalyzeImageMissingFile(t *testing.T) {
	app := setupApp(makeDeps(&stubModel{}, nil, nil))

	req := httptest.NewRequest("POST", "/api/analyze/image", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAnalyzeImageUnsupportedType(t *testing.T) {
	app := setupApp(makeDeps(&stubModel{}, nil, nil))

	body, contentType := multipartImage(t, "file", []byte("definitely not an image"))
	req := httptest.NewRequest("POST", "/api/analyze/image", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400 for non-image payload, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	app := setupApp(makeDeps(&stubModel{}, nil, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid health body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", body["status"])
	}
}

func TestRecentAssessmentsPagination(t *testing.T) {
	repo := &stubAssessmentRepo{}
	for i := 0; i < 25; i++ {
		repo.items = append(repo.items, domain.Assessment{
			ID:        string(rune('a' + i)),
			RiskLevel: domain.RiskLow,
		})
	}
	app := setupApp(makeDeps(&stubModel{}, repo, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/assessments/recent?limit=10&offset=5", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body PaginatedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Pagination.Total != 25 {
		t.Errorf("expected total 25, got %d", body.Pagination.Total)
	}
	if body.Pagination.Limit != 10 || body.Pagination.Offset != 5 {
		t.Errorf("unexpected pagination: %+v", body.Pagination)
	}
}

func TestGetAssessmentNotFound(t *testing.T) {
	app := setupApp(makeDeps(&stubModel{}, &stubAssessmentRepo{}, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/assessments/missing-id", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWatchpointLifecycle(t *testing.T) {
	app := setupApp(makeDeps(&stubModel{}, nil, newStubWatchpointRepo()))

	// create
	rec := postJSON(t, app, "/v1/watchpoints", `{"name":"Old quarter","latitude":43.257,"longitude":-2.923}`)
	if rec.Code != 201 {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var wp domain.Watchpoint
	if err := json.Unmarshal(rec.Body.Bytes(), &wp); err != nil {
		t.Fatalf("invalid watchpoint body: %v", err)
	}
	if wp.ID == "" {
		t.Fatal("expected watchpoint ID")
	}

	// duplicate within 100m
	rec = postJSON(t, app, "/v1/watchpoints", `{"name":"Old quarter again","latitude":43.2571,"longitude":-2.9231}`)
	if rec.Code != 409 {
		t.Errorf("expected 409 for near-duplicate, got %d", rec.Code)
	}

	// list
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/watchpoints", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var list []domain.Watchpoint
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("invalid list body: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 watchpoint, got %d", len(list))
	}

	// delete
	resp, err = app.Test(httptest.NewRequest("DELETE", "/v1/watchpoints/"+wp.ID, nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 204 {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}

	// delete again
	resp, err = app.Test(httptest.NewRequest("DELETE", "/v1/watchpoints/"+wp.ID, nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("expected 404 on second delete, got %d", resp.StatusCode)
	}
}

func TestWatchpointCreateMissingCoordinates(t *testing.T) {
	app := setupApp(makeDeps(&stubModel{}, nil, newStubWatchpointRepo()))

	rec := postJSON(t, app, "/v1/watchpoints", `{"name":"No location"}`)
	if rec.Code != 400 {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListWatchpointsEmptyIsArray(t *testing.T) {
	app := setupApp(makeDeps(&stubModel{}, nil, newStubWatchpointRepo()))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/watchpoints", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("expected empty JSON array, got %s", data)
	}
}

func TestGraphQLRecentAssessments(t *testing.T) {
	repo := &stubAssessmentRepo{items: []domain.Assessment{
		{ID: "g1", RiskLevel: domain.RiskHigh, Source: domain.SourceCoordinates},
	}}
	app := setupApp(makeDeps(&stubModel{}, repo, nil))

	rec := postJSON(t, app, "/graphql", `{"query":"{ recentAssessments(limit: 5) { id risk_level } }"}`)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Data struct {
			RecentAssessments []struct {
				ID        string `json:"id"`
				RiskLevel string `json:"risk_level"`
			} `json:"recentAssessments"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid graphql body: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected graphql errors: %v", result.Errors)
	}
	if len(result.Data.RecentAssessments) != 1 || result.Data.RecentAssessments[0].ID != "g1" {
		t.Errorf("unexpected result: %+v", result.Data.RecentAssessments)
	}
}

func timeMustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return ts
}

func TestDeprecationHeaders(t *testing.T) {
	app := fiber.New()
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/api/analyze/coordinates", SunsetDate: timeMustParse(t, "2027-01-01"), Alternative: "/v1/assess/coordinates"},
	}))
	deps := makeDeps(&stubModel{}, nil, nil)
	app.Post("/api/analyze/coordinates", AnalyzeCoordinatesHandler(deps))
	app.Post("/v1/assess/coordinates", AnalyzeCoordinatesHandler(deps))

	req := httptest.NewRequest("POST", "/api/analyze/coordinates", strings.NewReader(`{"latitude":1,"longitude":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header on legacy path")
	}
	if !strings.Contains(resp.Header.Get("Link"), "/v1/assess/coordinates") {
		t.Errorf("expected successor Link header, got %q", resp.Header.Get("Link"))
	}

	req = httptest.NewRequest("POST", "/v1/assess/coordinates", strings.NewReader(`{"latitude":1,"longitude":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.Header.Get("Deprecation") != "" {
		t.Error("successor path must not carry deprecation headers")
	}
}
