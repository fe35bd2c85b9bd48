package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"water-quality-backend/models"
)

// DocumentStore is the slice of the store adapter the sample operations
// need. Injecting it keeps the operations testable against a substitute
// store instead of a process-wide handle.
type DocumentStore interface {
	Insert(ctx context.Context, collection string, doc interface{}) (string, error)
	Find(ctx context.Context, collection string, filter bson.M, limit int64) ([]bson.M, error)
	Aggregate(ctx context.Context, collection string, pipeline interface{}) ([]bson.M, error)
}

// SampleService implements ingestion, querying, per-scenario summaries
// and the clustering hand-off over the watersample collection. It is
// stateless between calls; the store is the only shared resource.
type SampleService struct {
	store DocumentStore
}

func NewSampleService(store DocumentStore) *SampleService {
	return &SampleService{store: store}
}

// Ingest validates one candidate record and persists it. On validation
// failure nothing is written and the returned error lists every violated
// field constraint.
func (s *SampleService) Ingest(ctx context.Context, raw map[string]interface{}) (*models.IngestResponse, error) {
	sample, err := models.ValidateSample(raw)
	if err != nil {
		return nil, err
	}

	id, err := s.store.Insert(ctx, models.SampleCollection, sample)
	if err != nil {
		return nil, err
	}

	return &models.IngestResponse{ID: id, Status: "created"}, nil
}

// List returns samples, optionally restricted to one scenario. An empty
// scenario means no restriction. A limit <= 0 means unlimited. Documents
// are normalized for transport: the store id becomes a plain "id" string
// and timestamps are rendered as ISO-8601.
func (s *SampleService) List(ctx context.Context, scenario string, limit int64) (*models.ListResponse, error) {
	filter := bson.M{}
	if scenario != "" {
		filter["scenario"] = scenario
	}

	docs, err := s.store.Find(ctx, models.SampleCollection, filter, limit)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		items[i] = normalizeDocument(doc)
	}

	return &models.ListResponse{Items: items, Count: len(items)}, nil
}

// Summaries groups the whole collection by scenario and computes counts
// and parameter averages. The store's $avg skips missing and null values,
// so a group with no readings for a parameter yields a nil average.
// Results are sorted by scenario name for determinism.
func (s *SampleService) Summaries(ctx context.Context) ([]models.ScenarioSummary, error) {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":           "$scenario",
			"count":         bson.M{"$sum": 1},
			"avg_ph":        bson.M{"$avg": "$ph"},
			"avg_do":        bson.M{"$avg": "$dissolved_oxygen_mg_l"},
			"avg_turbidity": bson.M{"$avg": "$turbidity_ntu"},
		}},
		{"$project": bson.M{
			"_id":           0,
			"scenario":      "$_id",
			"count":         1,
			"avg_ph":        1,
			"avg_do":        1,
			"avg_turbidity": 1,
		}},
	}

	groups, err := s.store.Aggregate(ctx, models.SampleCollection, pipeline)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ScenarioSummary, 0, len(groups))
	for _, g := range groups {
		summary := models.ScenarioSummary{
			Count:        asInt64(g["count"]),
			AvgPH:        asFloatPtr(g["avg_ph"]),
			AvgDO:        asFloatPtr(g["avg_do"]),
			AvgTurbidity: asFloatPtr(g["avg_turbidity"]),
		}
		if sc, ok := g["scenario"].(string); ok {
			summary.Scenario = sc
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Scenario < summaries[j].Scenario
	})
	return summaries, nil
}

// featurePayload is what would be shipped to an external clustering
// engine: one 3-tuple of (ph, dissolved oxygen, turbidity) per sample,
// parallel to IDs. Missing readings stay nil, no imputation.
type featurePayload struct {
	IDs     []string
	Vectors [][]*float64
}

// Cluster prepares the feature payload for the given scenario and returns
// a deterministic placeholder assignment: the i-th retrieved sample gets
// label i mod k. It performs no real clustering; a future external engine
// replaces only the label assignment, not the contract.
func (s *SampleService) Cluster(ctx context.Context, scenario string, k int) (*models.ClusterResult, error) {
	if k < 1 {
		// Defensive floor, not a validation error.
		k = 1
	}

	filter := bson.M{}
	if scenario != "" {
		filter["scenario"] = scenario
	}

	docs, err := s.store.Find(ctx, models.SampleCollection, filter, 0)
	if err != nil {
		return nil, err
	}

	payload := buildFeaturePayload(docs)

	labels := make(map[string]int, len(payload.IDs))
	for i, id := range payload.IDs {
		labels[id] = i % k
	}

	return &models.ClusterResult{Scenario: scenario, K: k, Labels: labels}, nil
}

func buildFeaturePayload(docs []bson.M) featurePayload {
	payload := featurePayload{
		IDs:     make([]string, 0, len(docs)),
		Vectors: make([][]*float64, 0, len(docs)),
	}
	for _, doc := range docs {
		payload.IDs = append(payload.IDs, publicID(doc["_id"]))
		payload.Vectors = append(payload.Vectors, []*float64{
			asFloatPtr(doc["ph"]),
			asFloatPtr(doc["dissolved_oxygen_mg_l"]),
			asFloatPtr(doc["turbidity_ntu"]),
		})
	}
	return payload
}

// normalizeDocument rewrites one stored document into its transport
// shape: "_id" becomes a plain "id" string, and timestamp values at the
// top level or one level down are rendered as ISO-8601 strings. All other
// fields pass through unchanged.
func normalizeDocument(doc bson.M) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for key, value := range doc {
		if key == "_id" {
			out["id"] = publicID(value)
			continue
		}
		out[key] = normalizeValue(value, true)
	}
	return out
}

func normalizeValue(v interface{}, descend bool) interface{} {
	if iso, ok := isoTimestamp(v); ok {
		return iso
	}
	if !descend {
		return v
	}
	switch nested := v.(type) {
	case bson.M:
		return normalizeMap(nested)
	case map[string]interface{}:
		return normalizeMap(nested)
	case primitive.A:
		return normalizeSlice(nested)
	case []interface{}:
		return normalizeSlice(nested)
	default:
		return v
	}
}

func normalizeMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v, false)
	}
	return out
}

func normalizeSlice(s []interface{}) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = normalizeValue(v, false)
	}
	return out
}

func isoTimestamp(v interface{}) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), true
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano), true
	default:
		return "", false
	}
}

func publicID(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asFloatPtr(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case float32:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case int32:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case *float64:
		return n
	default:
		return nil
	}
}
