package observation

import (
	"encoding/json"
	"fmt"
	"math"

	"studygate/domain/core"
)

// FieldIssue records a payload field whose value does not have its declared
// primitive type.
type FieldIssue struct {
	Field    string
	Expected string
	Actual   string
}

func (f FieldIssue) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", f.Field, f.Expected, f.Actual)
}

const (
	typeString  = "string"
	typeNumber  = "number"
	typeInteger = "integer"
	typeBoolean = "boolean"
	typeObject  = "object"
)

// Decode converts a loosely-typed payload (for example a decoded JSON body)
// into an Observation. Fields with the wrong primitive type are left unset
// and reported; nothing is coerced. Decode never panics.
func Decode(payload map[string]any) (*Observation, []FieldIssue) {
	d := decoder{payload: payload}
	obs := &Observation{}

	obs.ID = core.ObservationID(d.str("id"))
	obs.SubjectID = core.SubjectID(d.str("subject_id"))
	obs.SessionID = core.SessionID(d.str("session_id"))
	obs.Category = Category(d.str("category"))
	obs.Kind = EventKind(d.str("event_kind"))
	obs.EncryptionKeyID = d.str("encryption_key_id")
	obs.Checksum = core.Hash(d.str("checksum"))
	if ts := d.micros("timestamp"); ts != nil {
		obs.Timestamp = *ts
	}
	obs.RelativeTimestamp = d.micros("relative_timestamp")
	if enc := d.boolean("encrypted"); enc != nil {
		obs.Encrypted = *enc
	}

	if raw, ok := payload["measurements"]; ok && raw != nil {
		m, isMap := raw.(map[string]any)
		if !isMap {
			d.issues = append(d.issues, FieldIssue{Field: "measurements", Expected: typeObject, Actual: typeName(raw)})
		} else {
			md := decoder{payload: m, prefix: "measurements."}
			obs.Measurements = Measurements{
				DurationMS:           md.num("duration_ms"),
				QualityScore:         md.num("quality_score"),
				CognitiveLoad:        md.num("cognitive_load"),
				ScrollDepth:          md.num("scroll_depth"),
				ClickX:               md.num("click_x"),
				ClickY:               md.num("click_y"),
				AttentionCheckPassed: md.boolean("attention_check_passed"),
				Hesitation:           md.boolean("hesitation"),
			}
			d.issues = append(d.issues, md.issues...)
		}
	}

	return obs, d.issues
}

type decoder struct {
	payload map[string]any
	prefix  string
	issues  []FieldIssue
}

func (d *decoder) mismatch(key, expected string, v any) {
	d.issues = append(d.issues, FieldIssue{Field: d.prefix + key, Expected: expected, Actual: typeName(v)})
}

func (d *decoder) str(key string) string {
	v, ok := d.payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.mismatch(key, typeString, v)
		return ""
	}
	return s
}

func (d *decoder) num(key string) *float64 {
	v, ok := d.payload[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		d.mismatch(key, typeNumber, v)
		return nil
	}
	return &f
}

// micros accepts only integral values that fit in int64
func (d *decoder) micros(key string) *core.Micros {
	v, ok := d.payload[key]
	if !ok || v == nil {
		return nil
	}
	us, ok := toMicros(v)
	if !ok {
		d.mismatch(key, typeInteger, v)
		return nil
	}
	return &us
}

func (d *decoder) boolean(key string) *bool {
	v, ok := d.payload[key]
	if !ok || v == nil {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		d.mismatch(key, typeBoolean, v)
		return nil
	}
	return &b
}

func toFloat(v any) (float64, bool) {
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
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toMicros(v any) (core.Micros, bool) {
	switch n := v.(type) {
	case int:
		return core.Micros(n), true
	case int32:
		return core.Micros(n), true
	case int64:
		return n, true
	case uint32:
		return core.Micros(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return core.Micros(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	f, ok := toFloat(v)
	// 2^63 is exact in float64; MaxInt64 is not
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return core.Micros(f), true
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return typeString
	case bool:
		return typeBoolean
	case map[string]any:
		return typeObject
	case []any:
		return "array"
	case nil:
		return "null"
	}
	if _, ok := toFloat(v); ok {
		return typeNumber
	}
	return fmt.Sprintf("%T", v)
}
