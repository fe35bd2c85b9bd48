package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"water-quality-backend/internal/config"
	"water-quality-backend/internal/store"
	"water-quality-backend/services"
)

type fakeStore struct {
	inserted   []interface{}
	insertID   string
	insertErr  error
	findDocs   []bson.M
	aggResults []bson.M
	lastFilter bson.M
	lastLimit  int64
}

func (f *fakeStore) Insert(_ context.Context, _ string, doc interface{}) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.inserted = append(f.inserted, doc)
	return f.insertID, nil
}

func (f *fakeStore) Find(_ context.Context, _ string, filter bson.M, limit int64) ([]bson.M, error) {
	f.lastFilter = filter
	f.lastLimit = limit
	return f.findDocs, nil
}

func (f *fakeStore) Aggregate(_ context.Context, _ string, _ interface{}) ([]bson.M, error) {
	return f.aggResults, nil
}

func newTestRouter(fs *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{DefaultQueryLimit: 200, DefaultClusterK: 3}
	router := gin.New()
	SetupSampleRoutes(router, cfg, services.NewSampleService(fs), nil)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestCreateSampleCreated(t *testing.T) {
	fs := &fakeStore{insertID: "abc123"}
	router := newTestRouter(fs)

	w := doJSON(t, router, http.MethodPost, "/samples", map[string]interface{}{
		"scenario":     "dry",
		"collected_at": "2024-06-01T10:30:00Z",
		"location":     map[string]interface{}{"lat": 6.25, "lon": -75.56},
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["id"] != "abc123" || body["status"] != "created" {
		t.Errorf("body = %v", body)
	}
	if len(fs.inserted) != 1 {
		t.Errorf("inserted %d documents", len(fs.inserted))
	}
}

func TestCreateSampleMalformedBody(t *testing.T) {
	router := newTestRouter(&fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/samples", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if decode(t, w)["error_code"] != "bad_request" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCreateSampleValidationFailure(t *testing.T) {
	fs := &fakeStore{}
	router := newTestRouter(fs)

	w := doJSON(t, router, http.MethodPost, "/samples", map[string]interface{}{
		"scenario": "dry",
		"ph":       15.0,
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["error_code"] != "validation_failed" {
		t.Errorf("body = %v", body)
	}
	details, ok := body["details"].([]interface{})
	if !ok || len(details) < 3 {
		t.Errorf("details should list every violation: %v", body["details"])
	}
	if len(fs.inserted) != 0 {
		t.Error("invalid sample was persisted")
	}
}

func TestCreateSampleStoreFailure(t *testing.T) {
	fs := &fakeStore{insertErr: &store.StoreError{Op: "insert", Collection: "watersample", Err: errors.New("connection reset")}}
	router := newTestRouter(fs)

	w := doJSON(t, router, http.MethodPost, "/samples", map[string]interface{}{
		"scenario":     "dry",
		"collected_at": "2024-06-01T10:30:00Z",
		"location":     map[string]interface{}{"lat": 1.0, "lon": 2.0},
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if decode(t, w)["error_code"] != "internal_error" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestListSamplesDefaultsAndFilter(t *testing.T) {
	fs := &fakeStore{findDocs: []bson.M{
		{"_id": primitive.NewObjectID(), "scenario": "dry"},
	}}
	router := newTestRouter(fs)

	w := doJSON(t, router, http.MethodGet, "/samples?scenario=dry", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if fs.lastFilter["scenario"] != "dry" {
		t.Errorf("filter = %v", fs.lastFilter)
	}
	if fs.lastLimit != 200 {
		t.Errorf("default limit = %d", fs.lastLimit)
	}

	body := decode(t, w)
	if body["count"] != float64(1) {
		t.Errorf("count = %v", body["count"])
	}

	// No scenario parameter: no restriction at all.
	doJSON(t, router, http.MethodGet, "/samples?limit=5", nil)
	if _, present := fs.lastFilter["scenario"]; present {
		t.Errorf("filter = %v", fs.lastFilter)
	}
	if fs.lastLimit != 5 {
		t.Errorf("limit = %d", fs.lastLimit)
	}
}

func TestListSamplesBadLimit(t *testing.T) {
	router := newTestRouter(&fakeStore{})
	w := doJSON(t, router, http.MethodGet, "/samples?limit=many", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestGetSummaries(t *testing.T) {
	fs := &fakeStore{aggResults: []bson.M{
		{"scenario": "dry", "count": int32(2), "avg_ph": 7.0, "avg_do": nil, "avg_turbidity": nil},
	}}
	router := newTestRouter(fs)

	w := doJSON(t, router, http.MethodGet, "/summaries", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var summaries []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %v", summaries)
	}
	s := summaries[0]
	if s["scenario"] != "dry" || s["count"] != float64(2) || s["avg_ph"] != float64(7) {
		t.Errorf("summary = %v", s)
	}
	if s["avg_do"] != nil {
		t.Errorf("avg_do must serialize as null, got %v", s["avg_do"])
	}
}

func TestTriggerClusterDefaultsAndFloor(t *testing.T) {
	docs := make([]bson.M, 4)
	for i := range docs {
		docs[i] = bson.M{"_id": primitive.NewObjectID()}
	}
	fs := &fakeStore{findDocs: docs}
	router := newTestRouter(fs)

	// Absent k: default 3
	w := doJSON(t, router, http.MethodPost, "/cluster", map[string]interface{}{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if decode(t, w)["k"] != float64(3) {
		t.Errorf("body = %s", w.Body.String())
	}

	// Explicit k=0: floored to 1, every label 0
	w = doJSON(t, router, http.MethodPost, "/cluster", map[string]interface{}{"k": 0})
	body := decode(t, w)
	if body["k"] != float64(1) {
		t.Errorf("k = %v", body["k"])
	}
	labels, ok := body["labels"].(map[string]interface{})
	if !ok || len(labels) != 4 {
		t.Fatalf("labels = %v", body["labels"])
	}
	for id, label := range labels {
		if label != float64(0) {
			t.Errorf("label[%s] = %v", id, label)
		}
	}
}
