package domain

import "time"

// Version identifies the tagging setup that produced an event.
type Version struct {
	Source  string `json:"source"`
	Tagging string `json:"tagging"`
}

// Record is a tracking event after validation and normalization. Required
// fields are carried verbatim from the inbound payload; every optional
// container is non-nil so downstream code never branches on absence.
type Record struct {
	ID        string
	Event     string
	Entity    string
	Action    string
	Timestamp int64 // milliseconds since epoch
	Trigger   string
	Group     string
	Count     int64
	Timing    float64
	Version   Version

	Data    map[string]interface{}
	Context map[string]interface{}
	Globals map[string]interface{}
	Custom  map[string]interface{}
	User    map[string]interface{}
	Consent map[string]interface{}
	Source  map[string]interface{}
	Nested  []map[string]interface{}

	// ReceivedAt is set by the processor when the record is accepted.
	ReceivedAt time.Time
}

// OccurredAt converts the millisecond timestamp to wall-clock time.
func (r *Record) OccurredAt() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}

// ConnectionContext carries the storage endpoint identity for a single
// invocation: the serverless workgroup, the resolved database name and the
// ARN of the credential secret. It is assembled per request and discarded
// with it; credentials themselves stay inside the secret store.
type ConnectionContext struct {
	Workgroup string
	Database  string
	SecretARN string
}
