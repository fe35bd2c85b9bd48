package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SampleCollection is the collection all water samples are persisted to.
const SampleCollection = "watersample"

// Location is a WGS84 coordinate pair attached to every sample.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// SampleFile describes an attachment (image, sensor dump) associated with
// a sample. Only the metadata is stored; file bytes never transit this
// service.
type SampleFile struct {
	Filename    string `bson:"filename" json:"filename"`
	URL         string `bson:"url,omitempty" json:"url,omitempty"`
	ContentType string `bson:"content_type,omitempty" json:"content_type,omitempty"`
	Size        *int64 `bson:"size,omitempty" json:"size,omitempty"`
}

// WaterSample is a single water quality measurement.
// Collection name: "watersample"
type WaterSample struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Scenario    string             `bson:"scenario" json:"scenario"`
	SiteName    string             `bson:"site_name,omitempty" json:"site_name,omitempty"`
	CollectedAt time.Time          `bson:"collected_at" json:"collected_at"`
	Location    Location           `bson:"location" json:"location"`

	// Core parameters. Pointers so that "not measured" survives the
	// round trip instead of collapsing to zero.
	PH                 *float64 `bson:"ph,omitempty" json:"ph,omitempty"`
	DissolvedOxygenMgL *float64 `bson:"dissolved_oxygen_mg_l,omitempty" json:"dissolved_oxygen_mg_l,omitempty"`
	TurbidityNTU       *float64 `bson:"turbidity_ntu,omitempty" json:"turbidity_ntu,omitempty"`

	// Heavy metal concentrations (mg/L). Open key set, not validated
	// against any vocabulary.
	MetalsMgL map[string]float64 `bson:"metals_mg_l,omitempty" json:"metals_mg_l,omitempty"`

	Notes string       `bson:"notes,omitempty" json:"notes,omitempty"`
	Files []SampleFile `bson:"files,omitempty" json:"files,omitempty"`
}

// ScenarioSummary is the per-scenario aggregate returned by GET /summaries.
// Averages are nil when no member of the group carries the parameter.
type ScenarioSummary struct {
	Scenario     string   `bson:"scenario" json:"scenario"`
	Count        int64    `bson:"count" json:"count"`
	AvgPH        *float64 `bson:"avg_ph" json:"avg_ph"`
	AvgDO        *float64 `bson:"avg_do" json:"avg_do"`
	AvgTurbidity *float64 `bson:"avg_turbidity" json:"avg_turbidity"`
}

// IngestResponse is returned after a successful POST /samples.
type IngestResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ListResponse wraps the normalized documents returned by GET /samples.
type ListResponse struct {
	Items []map[string]interface{} `json:"items"`
	Count int                      `json:"count"`
}

// ClusterRequest triggers the clustering hand-off. K is a pointer so an
// absent value (default 3) is distinguishable from an explicit 0.
type ClusterRequest struct {
	Scenario string `json:"scenario,omitempty"`
	K        *int   `json:"k,omitempty"`
}

// ClusterResult maps public sample ids to placeholder labels.
type ClusterResult struct {
	Scenario string         `json:"scenario,omitempty"`
	K        int            `json:"k"`
	Labels   map[string]int `json:"labels"`
}
