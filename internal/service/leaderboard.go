package service

import "sort"

// podiumSize is how many top entries are exposed separately.
const podiumSize = 3

// RankUsers filters hidden roster entries, orders the rest by total score
// descending and assigns dense 1-based ranks. Ties do not share a rank: the
// sort is stable, so entries with equal scores keep their input order and
// receive consecutive distinct positions.
func RankUsers(roster []UserSummary) Leaderboard {
	visible := make([]UserSummary, 0, len(roster))
	for _, u := range roster {
		if u.Visible {
			visible = append(visible, u)
		}
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].TotalScore > visible[j].TotalScore
	})

	entries := make([]LeaderboardEntry, len(visible))
	maxStreak := 0
	for i, u := range visible {
		entries[i] = LeaderboardEntry{
			Rank:        i + 1,
			UserID:      u.UserID,
			DisplayName: u.DisplayName,
			Avatar:      u.Avatar,
			TotalScore:  u.TotalScore,
			TotalDays:   u.TotalDays,
			Streak:      u.Streak,
		}
		if u.Streak > maxStreak {
			maxStreak = u.Streak
		}
	}

	podium := entries
	if len(podium) > podiumSize {
		podium = podium[:podiumSize]
	}

	return Leaderboard{
		Entries:   entries,
		Podium:    podium,
		MaxStreak: maxStreak,
	}
}

// RankOf returns the viewer's rank, or 0 when the viewer is not in the
// visible set. Zero is "no rank", distinct from rank 1.
func (l Leaderboard) RankOf(userID string) int {
	for _, e := range l.Entries {
		if e.UserID == userID {
			return e.Rank
		}
	}
	return 0
}
