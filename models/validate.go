package models

import (
	"fmt"
	"strings"
	"time"
)

// FieldViolation names one violated constraint on one field.
type FieldViolation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError carries every constraint violated by a candidate record,
// not just the first one found.
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Rule
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, rule string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Rule: rule})
}

// ValidateSample runs the second stage of the ingestion pipeline: the
// transport layer has already parsed the body into a generic key/value
// map, and this turns it into a typed WaterSample or a *ValidationError
// listing all violations. Parsing errors never reach here.
func ValidateSample(raw map[string]interface{}) (*WaterSample, error) {
	verr := &ValidationError{}
	sample := &WaterSample{}

	if s, ok := requireString(raw, "scenario"); !ok || s == "" {
		verr.add("scenario", "required non-empty string")
	} else {
		sample.Scenario = s
	}

	if v, present := raw["site_name"]; present && v != nil {
		if s, ok := v.(string); ok {
			sample.SiteName = s
		} else {
			verr.add("site_name", "must be a string")
		}
	}

	if t, ok := parseTimestamp(raw["collected_at"]); ok {
		sample.CollectedAt = t.UTC()
	} else {
		verr.add("collected_at", "required RFC 3339 timestamp")
	}

	validateLocation(raw["location"], sample, verr)

	sample.PH = optionalFloat(raw, "ph", 0, 14, verr)
	sample.DissolvedOxygenMgL = optionalNonNegative(raw, "dissolved_oxygen_mg_l", verr)
	sample.TurbidityNTU = optionalNonNegative(raw, "turbidity_ntu", verr)

	if v, present := raw["metals_mg_l"]; present && v != nil {
		m, ok := v.(map[string]interface{})
		if !ok {
			verr.add("metals_mg_l", "must be a mapping of metal name to concentration")
		} else {
			metals := make(map[string]float64, len(m))
			for key, val := range m {
				f, ok := asFloat(val)
				if !ok {
					verr.add("metals_mg_l."+key, "must be a number")
					continue
				}
				// Keys are free-form and concentrations are only
				// semantically >= 0; no range check here.
				metals[key] = f
			}
			if len(metals) > 0 {
				sample.MetalsMgL = metals
			}
		}
	}

	if v, present := raw["notes"]; present && v != nil {
		if s, ok := v.(string); ok {
			sample.Notes = s
		} else {
			verr.add("notes", "must be a string")
		}
	}

	validateFiles(raw["files"], sample, verr)

	if len(verr.Violations) > 0 {
		return nil, verr
	}
	return sample, nil
}

func validateLocation(v interface{}, sample *WaterSample, verr *ValidationError) {
	if v == nil {
		verr.add("location", "required")
		return
	}
	loc, ok := v.(map[string]interface{})
	if !ok {
		verr.add("location", "must be an object with lat and lon")
		return
	}

	lat, latOK := asFloat(loc["lat"])
	if !latOK {
		verr.add("location.lat", "required number")
	} else if lat < -90 || lat > 90 {
		verr.add("location.lat", "must be between -90 and 90")
	} else {
		sample.Location.Lat = lat
	}

	lon, lonOK := asFloat(loc["lon"])
	if !lonOK {
		verr.add("location.lon", "required number")
	} else if lon < -180 || lon > 180 {
		verr.add("location.lon", "must be between -180 and 180")
	} else {
		sample.Location.Lon = lon
	}
}

func validateFiles(v interface{}, sample *WaterSample, verr *ValidationError) {
	if v == nil {
		return
	}
	list, ok := v.([]interface{})
	if !ok {
		verr.add("files", "must be an array of file descriptors")
		return
	}

	files := make([]SampleFile, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			verr.add(fmt.Sprintf("files[%d]", i), "must be an object")
			continue
		}
		var f SampleFile
		if name, ok := entry["filename"].(string); ok && name != "" {
			f.Filename = name
		} else {
			verr.add(fmt.Sprintf("files[%d].filename", i), "required non-empty string")
		}
		if u, ok := entry["url"].(string); ok {
			f.URL = u
		}
		if ct, ok := entry["content_type"].(string); ok {
			f.ContentType = ct
		}
		if sz, present := entry["size"]; present && sz != nil {
			if n, ok := asFloat(sz); ok {
				size := int64(n)
				f.Size = &size
			} else {
				verr.add(fmt.Sprintf("files[%d].size", i), "must be a number")
			}
		}
		files = append(files, f)
	}
	if len(files) > 0 {
		sample.Files = files
	}
}

func optionalFloat(raw map[string]interface{}, field string, min, max float64, verr *ValidationError) *float64 {
	v, present := raw[field]
	if !present || v == nil {
		return nil
	}
	f, ok := asFloat(v)
	if !ok {
		verr.add(field, "must be a number")
		return nil
	}
	if f < min || f > max {
		verr.add(field, fmt.Sprintf("must be between %g and %g", min, max))
		return nil
	}
	return &f
}

func optionalNonNegative(raw map[string]interface{}, field string, verr *ValidationError) *float64 {
	v, present := raw[field]
	if !present || v == nil {
		return nil
	}
	f, ok := asFloat(v)
	if !ok {
		verr.add(field, "must be a number")
		return nil
	}
	if f < 0 {
		verr.add(field, "must be >= 0")
		return nil
	}
	return &f
}

func requireString(raw map[string]interface{}, field string) (string, bool) {
	v, present := raw[field]
	if !present || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func parseTimestamp(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
