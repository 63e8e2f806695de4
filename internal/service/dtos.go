package service

type Device struct {
	DeviceID  string `json:"device_id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
}

// ScoredReading is a Reading with its derived score attached, the shape the
// device data endpoint returns.
type ScoredReading struct {
	Reading
	Score int `json:"score"`
}

type DailySummary struct {
	Date               string `json:"date"`
	ReadingCount       int    `json:"reading_count"`
	AverageScore       int    `json:"average_score"`
	TotalMinutes       int    `json:"total_minutes"`
	GoodPostureMinutes int    `json:"good_posture_minutes"`
}

type WeeklyPoint struct {
	Day      string `json:"day"`
	Score    int    `json:"score"`
	Duration int    `json:"duration"`
}

type TrendChange struct {
	CurrentScore  int `json:"current_score"`
	PreviousScore int `json:"previous_score"`
	Delta         int `json:"delta"`
}

// UserSummary is one leaderboard roster entry before ranking.
type UserSummary struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	TotalScore  int    `json:"total_score"`
	TotalDays   int    `json:"total_days"`
	Streak      int    `json:"streak"`
	Visible     bool   `json:"visible"`
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	TotalScore  int    `json:"total_score"`
	TotalDays   int    `json:"total_days"`
	Streak      int    `json:"streak"`
}

// Leaderboard is the viewer-independent ranked view: the full ordered list,
// the top-three podium subset, and the max streak across visible entries.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	Podium    []LeaderboardEntry `json:"podium"`
	MaxStreak int                `json:"max_streak"`
}
