package validation

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/nextelBIS/minubo-event-ingest/internal/domain"
)

// Required top-level fields. The event kind is satisfied by either "event"
// or the "entity"+"action" pair.
var requiredFields = []string{"id", "event", "timestamp", "group", "count"}

// Validate checks a raw payload against the event contract and returns the
// normalized record. It is a pure function: the input is never mutated and
// no external calls are made. Failures are always a *Error.
func Validate(raw []byte) (*domain.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, malformed("request body must be a JSON object")
	}

	if fields := missingFields(payload); len(fields) > 0 {
		return nil, missing(fields)
	}

	record := &domain.Record{}

	var verr *Error
	if record.ID, verr = requireString(payload, "id"); verr != nil {
		return nil, verr
	}
	if record.Group, verr = requireString(payload, "group"); verr != nil {
		return nil, verr
	}
	if record.Timestamp, verr = requireInt(payload, "timestamp"); verr != nil {
		return nil, verr
	}
	if record.Count, verr = requireInt(payload, "count"); verr != nil {
		return nil, verr
	}
	if verr = normalizeKind(payload, record); verr != nil {
		return nil, verr
	}

	if v, ok := payload["trigger"]; ok {
		s, isStr := v.(string)
		if !isStr {
			return nil, invalidType("trigger", "a string")
		}
		record.Trigger = s
	}
	if v, ok := payload["timing"]; ok {
		n, isNum := v.(json.Number)
		if !isNum {
			return nil, invalidType("timing", "numeric")
		}
		f, err := n.Float64()
		if err != nil {
			return nil, invalidType("timing", "numeric")
		}
		record.Timing = f
	}
	if verr = normalizeVersion(payload, record); verr != nil {
		return nil, verr
	}

	for _, f := range []struct {
		name string
		dst  *map[string]interface{}
	}{
		{"data", &record.Data},
		{"context", &record.Context},
		{"globals", &record.Globals},
		{"custom", &record.Custom},
		{"user", &record.User},
		{"consent", &record.Consent},
		{"source", &record.Source},
	} {
		obj, verr := optionalObject(payload, f.name)
		if verr != nil {
			return nil, verr
		}
		*f.dst = obj
	}

	if verr = normalizeNested(payload, record); verr != nil {
		return nil, verr
	}

	return record, nil
}

func missingFields(payload map[string]interface{}) []string {
	var fields []string
	for _, name := range requiredFields {
		if name == "event" {
			_, hasEvent := payload["event"]
			_, hasEntity := payload["entity"]
			_, hasAction := payload["action"]
			if !hasEvent && !(hasEntity && hasAction) {
				fields = append(fields, "event")
			}
			continue
		}
		if _, ok := payload[name]; !ok {
			fields = append(fields, name)
		}
	}
	return fields
}

// requireString rejects absent, non-string and blank values. Required
// strings are identifiers; an empty id would leave the write without its
// dedupe key.
func requireString(payload map[string]interface{}, field string) (string, *Error) {
	s, ok := payload[field].(string)
	if !ok {
		return "", invalidType(field, "a string")
	}
	if s == "" {
		return "", invalidType(field, "a non-empty string")
	}
	return s, nil
}

func requireInt(payload map[string]interface{}, field string) (int64, *Error) {
	n, ok := payload[field].(json.Number)
	if !ok {
		return 0, invalidType(field, "an integer")
	}
	i, err := n.Int64()
	if err != nil {
		return 0, invalidType(field, "an integer")
	}
	return i, nil
}

// normalizeKind fills Event, Entity and Action from whichever form the
// payload used; "entity action" is the canonical event name convention.
func normalizeKind(payload map[string]interface{}, record *domain.Record) *Error {
	if v, ok := payload["event"]; ok {
		name, isStr := v.(string)
		if !isStr {
			return invalidType("event", "a string")
		}
		if name == "" {
			return invalidType("event", "a non-empty string")
		}
		record.Event = name
		if entity, action, found := strings.Cut(name, " "); found {
			record.Entity = entity
			record.Action = action
		} else {
			record.Entity = name
		}
		return nil
	}

	entity, verr := requireString(payload, "entity")
	if verr != nil {
		return verr
	}
	action, verr := requireString(payload, "action")
	if verr != nil {
		return verr
	}
	record.Entity = entity
	record.Action = action
	record.Event = entity + " " + action
	return nil
}

func normalizeVersion(payload map[string]interface{}, record *domain.Record) *Error {
	v, ok := payload["version"]
	if !ok {
		return nil
	}
	obj, isObj := v.(map[string]interface{})
	if !isObj {
		return invalidType("version", "an object")
	}
	if s, ok := obj["source"].(string); ok {
		record.Version.Source = s
	}
	if s, ok := obj["tagging"].(string); ok {
		record.Version.Tagging = s
	}
	return nil
}

func normalizeNested(payload map[string]interface{}, record *domain.Record) *Error {
	record.Nested = []map[string]interface{}{}

	v, ok := payload["nested"]
	if !ok {
		return nil
	}
	list, isList := v.([]interface{})
	if !isList {
		return invalidType("nested", "an array of objects")
	}
	for _, item := range list {
		obj, isObj := item.(map[string]interface{})
		if !isObj {
			return invalidType("nested", "an array of objects")
		}
		record.Nested = append(record.Nested, obj)
	}
	return nil
}

func optionalObject(payload map[string]interface{}, field string) (map[string]interface{}, *Error) {
	v, ok := payload[field]
	if !ok {
		return map[string]interface{}{}, nil
	}
	obj, isObj := v.(map[string]interface{})
	if !isObj {
		return nil, invalidType(field, "an object")
	}
	return obj, nil
}
