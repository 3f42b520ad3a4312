package progress

import (
	"time"

	"learnhub/backend/models"
)

// Streak counts consecutive calendar days with at least one study session,
// anchored at today, or at yesterday when today has no session yet. Storage
// order of the log does not matter; only the distinct date set does.
func Streak(sessions []models.StudySession, now time.Time) int {
	if len(sessions) == 0 {
		return 0
	}

	days := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		days[DateKey(s.Date)] = struct{}{}
	}

	anchor := now
	if _, ok := days[DateKey(anchor)]; !ok {
		anchor = now.AddDate(0, 0, -1)
		if _, ok := days[DateKey(anchor)]; !ok {
			return 0
		}
	}

	streak := 0
	for d := anchor; ; d = d.AddDate(0, 0, -1) {
		if _, ok := days[DateKey(d)]; !ok {
			break
		}
		streak++
	}
	return streak
}
