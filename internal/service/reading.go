package service

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Reading is one canonical sensor observation. Every raw telemetry row,
// however malformed, normalizes into exactly one Reading.
type Reading struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
	RawValue  float64   `json:"raw_value"`
}

// TelemetryPayload mirrors the device payload as it arrives on the wire.
type TelemetryPayload struct {
	PotentiometerValue float64 `json:"potentiometer_value"`
	ImageData          *string `json:"image_data,omitempty"`
	Timestamp          string  `json:"timestamp,omitempty"`
}

// RawTelemetryRow is the backend row shape before normalization. The two
// observed list forms use either "id" or "telemetry_id" for the row key,
// device_id may be a string or a number, and created_at may be an ISO
// string, an epoch-seconds number, or null.
type RawTelemetryRow struct {
	TelemetryID string            `json:"telemetry_id"`
	ID          string            `json:"id"`
	DeviceID    FlexID            `json:"device_id"`
	Payload     *TelemetryPayload `json:"payload"`
	CreatedAt   FlexInstant       `json:"created_at"`
}

// FlexID accepts a JSON string or number and holds it as an opaque string.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// FlexInstant accepts a JSON timestamp that may be an ISO-8601 string or a
// Unix epoch value in seconds. Absent, null or unparseable values leave the
// instant unresolved so the normalizer can fall back to capture time.
type FlexInstant struct {
	Time  time.Time
	Valid bool
}

func (f *FlexInstant) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		f.Valid = false
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f.Time, f.Valid = parseInstant(s)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		f.Valid = false
		return nil
	}
	// Epoch seconds, converted through milliseconds to keep sub-second
	// precision from fractional inputs.
	f.Time = time.UnixMilli(int64(secs * 1000)).UTC()
	f.Valid = true
	return nil
}

func (f FlexInstant) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Time.Format(time.RFC3339Nano))
}

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseInstant resolves a stored timestamp string. Numeric strings are
// treated as epoch seconds, everything else is tried against the known
// ISO-style layouts.
func parseInstant(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.UnixMilli(int64(secs * 1000)).UTC(), true
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeRow converts one backend row into a canonical Reading.
//
// Timestamp resolution order: payload.timestamp when present and parseable,
// then created_at, then receivedAt as a last resort. receivedAt must be the
// capture time of the row, not the aggregation-time wall clock, so that
// historical aggregates stay stable.
func NormalizeRow(row RawTelemetryRow, receivedAt time.Time) Reading {
	id := row.TelemetryID
	if id == "" {
		id = row.ID
	}

	ts := receivedAt
	if row.CreatedAt.Valid {
		ts = row.CreatedAt.Time
	}

	var raw float64
	if row.Payload != nil {
		raw = row.Payload.PotentiometerValue
		if t, ok := parseInstant(row.Payload.Timestamp); ok {
			ts = t
		}
	}

	return Reading{
		ID:        id,
		DeviceID:  string(row.DeviceID),
		Timestamp: ts,
		RawValue:  raw,
	}
}

// NormalizeRows normalizes a batch in delivery order.
func NormalizeRows(rows []RawTelemetryRow, receivedAt time.Time) []Reading {
	readings := make([]Reading, len(rows))
	for i, row := range rows {
		readings[i] = NormalizeRow(row, receivedAt)
	}
	return readings
}
