package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Row is a Record flattened into the column shape of the events table.
// Well-known keys of the data, user and source objects are projected into
// their own columns for querying; every nested object is additionally stored
// whole as JSON text. String fields for optional columns use "" as absent
// and are mapped to NULL at the SQL layer.
type Row struct {
	EventID   string
	Timestamp time.Time
	Event     string
	Entity    string
	Action    string
	Trigger   string
	Group     string
	Count     int64
	Timing    string

	DataJSON    string
	ContextJSON string
	CustomJSON  string
	GlobalsJSON string
	UserJSON    string
	NestedJSON  string
	ConsentJSON string
	VersionJSON string
	SourceJSON  string

	DataID        string
	DataDevice    string
	DataMarketing string
	DataSource    string
	DataMedium    string
	DataCampaign  string
	DataClickID   string
	DataTerm      string
	DataReferrer  string
	DataStorage   string
	DataIsNew     string
	DataCount     string
	DataOrderID   string
	DataDomain    string

	UserDevice  string
	UserSession string

	SourceID         string
	SourcePreviousID string

	ReceivedAt time.Time
}

// NewRow flattens a normalized record into its storage representation.
func NewRow(r *Record) (*Row, error) {
	row := &Row{
		EventID:   r.ID,
		Timestamp: r.OccurredAt(),
		Event:     r.Event,
		Entity:    r.Entity,
		Action:    r.Action,
		Trigger:   r.Trigger,
		Group:     r.Group,
		Count:     r.Count,
		Timing:    timingValue(r.Timing),

		DataID:        stringValue(r.Data["id"]),
		DataDevice:    stringValue(r.Data["device"]),
		DataMarketing: stringValue(r.Data["marketing"]),
		DataSource:    stringValue(r.Data["source"]),
		DataMedium:    stringValue(r.Data["medium"]),
		DataCampaign:  stringValue(r.Data["campaign"]),
		DataClickID:   stringValue(r.Data["clickId"]),
		DataTerm:      stringValue(r.Data["term"]),
		DataReferrer:  stringValue(r.Data["referrer"]),
		DataStorage:   stringValue(r.Data["storage"]),
		DataIsNew:     stringValue(r.Data["isNew"]),
		DataCount:     stringValue(r.Data["count"]),
		DataOrderID:   stringValue(r.Data["order_id"]),
		DataDomain:    stringValue(r.Data["domain"]),

		UserDevice:  stringValue(r.User["device"]),
		UserSession: stringValue(r.User["session"]),

		SourceID:         stringValue(r.Source["id"]),
		SourcePreviousID: stringValue(r.Source["previous_id"]),

		ReceivedAt: r.ReceivedAt,
	}

	for _, f := range []struct {
		name string
		v    interface{}
		dst  *string
	}{
		{"data", r.Data, &row.DataJSON},
		{"context", r.Context, &row.ContextJSON},
		{"custom", r.Custom, &row.CustomJSON},
		{"globals", r.Globals, &row.GlobalsJSON},
		{"user", r.User, &row.UserJSON},
		{"nested", r.Nested, &row.NestedJSON},
		{"consent", r.Consent, &row.ConsentJSON},
		{"version", r.Version, &row.VersionJSON},
		{"source", r.Source, &row.SourceJSON},
	} {
		b, err := json.Marshal(f.v)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize %s: %w", f.name, err)
		}
		*f.dst = string(b)
	}

	return row, nil
}

// timingValue keeps a zero timing out of the row; the column is optional.
func timingValue(t float64) string {
	if t == 0 {
		return ""
	}
	return strconv.FormatFloat(t, 'f', -1, 64)
}

// stringValue renders a projected scalar for its column; absent values
// become the empty string.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
