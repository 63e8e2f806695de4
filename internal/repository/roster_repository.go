package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/posturetrack/posture-server/internal/repository/models"
)

type RosterRepository struct {
	db *sql.DB
}

func NewRosterRepository(db *sql.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListUsers returns the full roster including opted-out users; visibility
// filtering is the ranking engine's job.
func (r *RosterRepository) ListUsers(ctx context.Context) ([]models.LeaderboardUser, error) {
	const query = `
		SELECT id, name, avatar, total_score, total_days, streak, show_on_leaderboard
		FROM users
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ListUsers: %w", err)
	}
	defer rows.Close()

	var users []models.LeaderboardUser
	for rows.Next() {
		var u models.LeaderboardUser
		var avatar sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &avatar, &u.TotalScore, &u.TotalDays, &u.Streak, &u.ShowOnLeaderboard); err != nil {
			return nil, fmt.Errorf("scan ListUsers row: %w", err)
		}
		u.Avatar = avatar.String
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListUsers: %w", err)
	}
	return users, nil
}
