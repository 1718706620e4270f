package redshift

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/redshiftdata/types"

	"github.com/nextelBIS/minubo-event-ingest/internal/domain"
)

// createEventsTable is the full shape of the events table: one row per
// tracked event, keyed by the caller-supplied event ID. Well-known data,
// user and source attributes are projected into their own columns; every
// nested object is additionally stored whole as JSON text. Reserved words
// used as column names are quoted.
const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
	event_id VARCHAR(255) NOT NULL,
	"timestamp" TIMESTAMP NOT NULL,
	event VARCHAR(255) NOT NULL,
	entity VARCHAR(255),
	action VARCHAR(255),
	"trigger" VARCHAR(255),
	"group" VARCHAR(255),
	count INTEGER,
	timing VARCHAR(255),
	data VARCHAR(MAX),
	data_id VARCHAR(255),
	data_device VARCHAR(255),
	data_marketing VARCHAR(MAX),
	data_source VARCHAR(255),
	data_medium VARCHAR(255),
	data_campaign VARCHAR(255),
	data_click_id VARCHAR(255),
	data_term VARCHAR(255),
	data_referrer VARCHAR(500),
	data_storage VARCHAR(255),
	data_is_new BOOLEAN,
	data_count INTEGER,
	data_order_id VARCHAR(255),
	data_domain VARCHAR(255),
	context VARCHAR(MAX),
	custom VARCHAR(MAX),
	globals VARCHAR(MAX),
	"user" VARCHAR(MAX),
	user_device VARCHAR(255),
	user_session VARCHAR(255),
	nested VARCHAR(MAX),
	consent VARCHAR(MAX),
	version VARCHAR(MAX),
	source VARCHAR(MAX),
	source_id VARCHAR(255),
	source_previous_id VARCHAR(255),
	created_at TIMESTAMP DEFAULT GETDATE(),
	PRIMARY KEY (event_id)
)
DISTKEY (event_id)
SORTKEY ("group", "timestamp")
`

const timestampLayout = "2006-01-02 15:04:05.000"

// column binds one events column to its parameter and rendered value.
// An empty value becomes a literal NULL instead of a parameter: the Data
// API rejects blank parameter values.
type column struct {
	name  string
	param string
	value string
	cast  string
}

// insertStatement builds the idempotent write for one row: insert-if-absent
// keyed by event_id, so a retried submission after a prior success stores
// nothing new. The statement token pins re-submission of the same event to
// the previously submitted backend statement.
func insertStatement(row *domain.Row) statement {
	createdAt := ""
	if !row.ReceivedAt.IsZero() {
		createdAt = row.ReceivedAt.UTC().Format(timestampLayout)
	}

	cols := []column{
		{"event_id", "event_id", row.EventID, ""},
		{`"timestamp"`, "event_timestamp", row.Timestamp.Format(timestampLayout), "TIMESTAMP"},
		{"event", "event", row.Event, ""},
		{"entity", "entity", row.Entity, ""},
		{"action", "action", row.Action, ""},
		{`"trigger"`, "event_trigger", row.Trigger, ""},
		{`"group"`, "event_group", row.Group, ""},
		{"count", "event_count", strconv.FormatInt(row.Count, 10), "INTEGER"},
		{"timing", "timing", row.Timing, ""},
		{"data", "data", row.DataJSON, ""},
		{"data_id", "data_id", row.DataID, ""},
		{"data_device", "data_device", row.DataDevice, ""},
		{"data_marketing", "data_marketing", row.DataMarketing, ""},
		{"data_source", "data_source", row.DataSource, ""},
		{"data_medium", "data_medium", row.DataMedium, ""},
		{"data_campaign", "data_campaign", row.DataCampaign, ""},
		{"data_click_id", "data_click_id", row.DataClickID, ""},
		{"data_term", "data_term", row.DataTerm, ""},
		{"data_referrer", "data_referrer", row.DataReferrer, ""},
		{"data_storage", "data_storage", row.DataStorage, ""},
		{"data_is_new", "data_is_new", row.DataIsNew, "BOOLEAN"},
		{"data_count", "data_count", row.DataCount, "INTEGER"},
		{"data_order_id", "data_order_id", row.DataOrderID, ""},
		{"data_domain", "data_domain", row.DataDomain, ""},
		{"context", "context", row.ContextJSON, ""},
		{"custom", "custom", row.CustomJSON, ""},
		{"globals", "globals", row.GlobalsJSON, ""},
		{`"user"`, "user_data", row.UserJSON, ""},
		{"user_device", "user_device", row.UserDevice, ""},
		{"user_session", "user_session", row.UserSession, ""},
		{"nested", "nested", row.NestedJSON, ""},
		{"consent", "consent", row.ConsentJSON, ""},
		{"version", "version", row.VersionJSON, ""},
		{"source", "source", row.SourceJSON, ""},
		{"source_id", "source_id", row.SourceID, ""},
		{"source_previous_id", "source_previous_id", row.SourcePreviousID, ""},
		{"created_at", "created_at", createdAt, "TIMESTAMP"},
	}

	names := make([]string, 0, len(cols))
	exprs := make([]string, 0, len(cols))
	params := make([]types.SqlParameter, 0, len(cols))

	for _, c := range cols {
		names = append(names, c.name)

		if c.value == "" {
			exprs = append(exprs, "NULL")
			continue
		}

		expr := ":" + c.param
		if c.cast != "" {
			expr = fmt.Sprintf("CAST(:%s AS %s)", c.param, c.cast)
		}
		exprs = append(exprs, expr)
		params = append(params, types.SqlParameter{
			Name:  aws.String(c.param),
			Value: aws.String(c.value),
		})
	}

	sql := fmt.Sprintf(
		"INSERT INTO events (%s)\nSELECT %s\nWHERE NOT EXISTS (SELECT 1 FROM events WHERE event_id = :event_id)",
		strings.Join(names, ", "),
		strings.Join(exprs, ", "),
	)

	return statement{
		SQL:        sql,
		Parameters: params,
		Token:      row.EventID,
	}
}
