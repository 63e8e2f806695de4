package models

type Device struct {
	DeviceID  string
	Name      string
	OwnerID   string
	CreatedAt string
}

// TelemetryRow is a stored telemetry record. The payload is kept as the
// JSON received at ingest, and created_at holds whatever the source sent:
// an ISO string for server-stamped rows, possibly epoch seconds for
// backfilled ones. Normalization happens in the service layer.
type TelemetryRow struct {
	ID          string
	DeviceID    string
	PayloadJSON []byte
	CreatedAt   string
}

type LeaderboardUser struct {
	ID                string
	Name              string
	Avatar            string
	TotalScore        int
	TotalDays         int
	Streak            int
	ShowOnLeaderboard bool
}
