// Criticus - Personalized Movie Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/criticus

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/criticus/internal/cache"
	"github.com/tomtom215/criticus/internal/config"
	"github.com/tomtom215/criticus/internal/events"
	"github.com/tomtom215/criticus/internal/models"
	"github.com/tomtom215/criticus/internal/recommend"
	"github.com/tomtom215/criticus/internal/scheduler"
	"github.com/tomtom215/criticus/internal/similarity"
)

// ============================================================================
// Test Doubles
// ============================================================================

type mockRecommender struct {
	resp      *models.RecommendationsResponse
	err       error
	gotUser   int64
	gotParams recommend.Params
}

func (m *mockRecommender) GetRecommendations(_ context.Context, userID int64, p recommend.Params) (*models.RecommendationsResponse, error) {
	m.gotUser = userID
	m.gotParams = p
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type mockPopularity struct {
	items    []models.PopularItem
	err      error
	gotLimit int
}

func (m *mockPopularity) Top(_ context.Context, limit int) ([]models.PopularItem, error) {
	m.gotLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

type mockRatingReader struct {
	ratings []models.Rating
	profile *models.UserProfileResponse
	err     error
}

func (m *mockRatingReader) ListRatingsForUser(_ context.Context, _ int64) ([]models.Rating, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ratings, nil
}

func (m *mockRatingReader) UserProfile(_ context.Context, _ int64) (*models.UserProfileResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

type mockRatingWriter struct {
	upserted []models.Rating
	deleted  [][2]int64
	err      error
}

func (m *mockRatingWriter) UpsertRating(_ context.Context, r models.Rating) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, r)
	return nil
}

func (m *mockRatingWriter) DeleteRating(_ context.Context, userID, itemID int64) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, [2]int64{userID, itemID})
	return nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error {
	return m.err
}

type mockJobs struct {
	jobs      []scheduler.JobStatus
	run       models.JobRun
	triggerIn string
	err       error
	runs      []models.JobRun
	runsName  string
	runsLimit int
}

func (m *mockJobs) Trigger(name string) (models.JobRun, error) {
	m.triggerIn = name
	if m.err != nil {
		return models.JobRun{}, m.err
	}
	return m.run, nil
}

func (m *mockJobs) Jobs() []scheduler.JobStatus {
	return m.jobs
}

func (m *mockJobs) Runs(name string, limit int) []models.JobRun {
	m.runsName = name
	m.runsLimit = limit
	return m.runs
}

type mockBus struct {
	published []*events.RatingChanged
	err       error
}

func (m *mockBus) PublishRatingChanged(_ context.Context, ev *events.RatingChanged) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, ev)
	return nil
}

// ============================================================================
// Harness
// ============================================================================

func testConfig() *config.Config {
	return &config.Config{
		Similarity: config.SimilarityConfig{StalenessWindow: 24 * time.Hour},
		Recommend:  config.RecommendConfig{DefaultLimit: 20, MaxLimit: 100},
		API: config.APIConfig{
			RequestTimeout:    2 * time.Second,
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
		},
	}
}

func testCache(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.New(config.CacheConfig{TTL: time.Hour})
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	return store
}

// newTestServer fills unset Deps with inert fakes and serves the full
// route tree, so tests exercise routing and middleware alongside the
// handler under test.
func newTestServer(t *testing.T, deps Deps) http.Handler {
	t.Helper()

	if deps.Cache == nil {
		deps.Cache = testCache(t)
	}
	if deps.Snapshots == nil {
		deps.Snapshots = similarity.NewHolder()
	}
	if deps.Recommender == nil {
		deps.Recommender = &mockRecommender{resp: &models.RecommendationsResponse{}}
	}
	if deps.Popularity == nil {
		deps.Popularity = &mockPopularity{}
	}
	if deps.Ratings == nil {
		deps.Ratings = &mockRatingReader{profile: &models.UserProfileResponse{}}
	}
	if deps.Writer == nil {
		deps.Writer = &mockRatingWriter{}
	}
	if deps.Pinger == nil {
		deps.Pinger = &mockPinger{}
	}
	if deps.Jobs == nil {
		deps.Jobs = &mockJobs{}
	}
	if deps.Bus == nil {
		deps.Bus = &mockBus{}
	}

	handler := NewHandler(testConfig(), deps)
	return NewRouter(handler, NewMiddleware(nil)).Setup()
}

func doRequest(t *testing.T, srv http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v (body: %s)", err, rec.Body.String())
	}
	return resp
}

func dataMap(t *testing.T, resp models.APIResponse) map[string]interface{} {
	t.Helper()

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Response data is %T, want object", resp.Data)
	}
	return data
}

// ============================================================================
// Recommendations Endpoint
// ============================================================================

func TestRecommendations_Success(t *testing.T) {
	now := time.Now().UTC()
	rec := &mockRecommender{resp: &models.RecommendationsResponse{
		UserID: 1,
		Items: []models.RecommendationItem{
			{ItemID: 50, PredictedScore: 91.25, Rank: 1},
			{ItemID: 60, PredictedScore: 77.5, Rank: 2},
		},
		GeneratedAt: now,
		ExpiresAt:   now.Add(6 * time.Hour),
	}}

	srv := newTestServer(t, Deps{Recommender: rec})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/users/1/recommendations?limit=5&exclude_rated=false", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	resp := decodeEnvelope(t, w)
	if resp.Status != "success" {
		t.Errorf("Envelope status = %q, want success", resp.Status)
	}
	data := dataMap(t, resp)
	if data["user_id"].(float64) != 1 {
		t.Errorf("user_id = %v, want 1", data["user_id"])
	}
	items := data["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("Items = %d, want 2", len(items))
	}

	if rec.gotUser != 1 {
		t.Errorf("Engine saw user %d, want 1", rec.gotUser)
	}
	if rec.gotParams.TopN != 5 {
		t.Errorf("TopN = %d, want 5", rec.gotParams.TopN)
	}
	if rec.gotParams.ExcludeRated {
		t.Error("ExcludeRated = true, want false from exclude_rated=false")
	}
	if resp.Metadata.RequestID == "" {
		t.Error("Metadata request_id is empty")
	}
}

func TestRecommendations_DefaultParams(t *testing.T) {
	rec := &mockRecommender{resp: &models.RecommendationsResponse{UserID: 9}}

	srv := newTestServer(t, Deps{Recommender: rec})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/users/9/recommendations", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	if rec.gotParams.TopN != 0 {
		t.Errorf("TopN = %d, want 0 (engine applies default limit)", rec.gotParams.TopN)
	}
	if !rec.gotParams.ExcludeRated {
		t.Error("ExcludeRated = false, want default true")
	}
}

func TestRecommendations_InvalidUserID(t *testing.T) {
	srv := newTestServer(t, Deps{})

	for _, target := range []string{
		"/api/v1/users/abc/recommendations",
		"/api/v1/users/0/recommendations",
		"/api/v1/users/-4/recommendations",
	} {
		w := doRequest(t, srv, http.MethodGet, target, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, w.Code)
			continue
		}
		resp := decodeEnvelope(t, w)
		if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("%s: error = %+v, want VALIDATION_ERROR", target, resp.Error)
		}
	}
}

func TestRecommendations_Unavailable(t *testing.T) {
	rec := &mockRecommender{err: recommend.ErrUnavailable}

	srv := newTestServer(t, Deps{Recommender: rec})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/users/3/recommendations", "")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Status = %d, want 503", w.Code)
	}
	resp := decodeEnvelope(t, w)
	if resp.Error == nil || resp.Error.Code != "TEMPORARILY_UNAVAILABLE" {
		t.Errorf("Error = %+v, want TEMPORARILY_UNAVAILABLE", resp.Error)
	}
}

func TestRecommendations_InternalError(t *testing.T) {
	rec := &mockRecommender{err: errors.New("snapshot load failed")}

	srv := newTestServer(t, Deps{Recommender: rec})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/users/3/recommendations", "")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Status = %d, want 500", w.Code)
	}
	resp := decodeEnvelope(t, w)
	if resp.Error == nil || resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("Error = %+v, want INTERNAL_ERROR", resp.Error)
	}
}

func TestRecommendations_ColdStart(t *testing.T) {
	rec := &mockRecommender{resp: &models.RecommendationsResponse{
		UserID:    12,
		Items:     []models.RecommendationItem{},
		ColdStart: true,
		Fallback:  recommend.FallbackPopular,
	}}

	srv := newTestServer(t, Deps{Recommender: rec})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/users/12/recommendations", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Cold start status = %d, want 200 not an error", w.Code)
	}
	data := dataMap(t, decodeEnvelope(t, w))
	if data["cold_start"] != true {
		t.Error("cold_start = false, want true")
	}
	if data["fallback"] != "popular" {
		t.Errorf("fallback = %v, want popular", data["fallback"])
	}
}

func TestRecommendations_CachedMetadata(t *testing.T) {
	// GeneratedAt in the past marks the payload as a cache hit.
	rec := &mockRecommender{resp: &models.RecommendationsResponse{
		UserID:      5,
		GeneratedAt: time.Now().UTC().Add(-10 * time.Minute),
		Stale:       true,
	}}

	srv := newTestServer(t, Deps{Recommender: rec})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/users/5/recommendations", "")

	resp := decodeEnvelope(t, w)
	if !resp.Metadata.Cached {
		t.Error("Metadata cached = false, want true for pre-generated payload")
	}
	if !resp.Metadata.Stale {
		t.Error("Metadata stale = false, want true")
	}
}

// ============================================================================
// Popular Items Endpoint
// ============================================================================

func TestPopular_Success(t *testing.T) {
	pop := &mockPopularity{items: []models.PopularItem{
		{ItemID: 7, RatingCount: 40, MeanScore: 88, WeightedScore: 86.2},
		{ItemID: 3, RatingCount: 25, MeanScore: 84, WeightedScore: 81.9},
	}}

	srv := newTestServer(t, Deps{Popularity: pop})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/items/popular?limit=2", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	if pop.gotLimit != 2 {
		t.Errorf("Limit passed = %d, want 2", pop.gotLimit)
	}
	data := dataMap(t, decodeEnvelope(t, w))
	if data["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", data["count"])
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("Cache-Control = %q, want shared cache policy", cc)
	}
}

func TestPopular_BreakerOpen(t *testing.T) {
	pop := &mockPopularity{err: gobreaker.ErrOpenState}

	srv := newTestServer(t, Deps{Popularity: pop})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/items/popular", "")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Status = %d, want 503", w.Code)
	}
	resp := decodeEnvelope(t, w)
	if resp.Error == nil || resp.Error.Code != "TEMPORARILY_UNAVAILABLE" {
		t.Errorf("Error = %+v, want TEMPORARILY_UNAVAILABLE", resp.Error)
	}
}

func TestPopular_QueryError(t *testing.T) {
	pop := &mockPopularity{err: errors.New("disk gone")}

	srv := newTestServer(t, Deps{Popularity: pop})
	w := doRequest(t, srv, http.MethodGet, "/api/v1/items/popular", "")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Status = %d, want 500", w.Code)
	}
}
