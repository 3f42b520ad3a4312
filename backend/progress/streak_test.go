package progress

import (
	"testing"
	"time"

	"learnhub/backend/models"

	"github.com/stretchr/testify/assert"
)

func sessionsOn(now time.Time, daysAgo ...int) []models.StudySession {
	var out []models.StudySession
	for _, d := range daysAgo {
		out = append(out, models.StudySession{Date: now.AddDate(0, 0, -d), Hours: 1})
	}
	return out
}

func TestStreakConsecutiveDays(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, 3, Streak(sessionsOn(now, 0, 1, 2), now))
}

func TestStreakAnchoredAtYesterday(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// No session today yet; yesterday keeps the streak alive.
	assert.Equal(t, 2, Streak(sessionsOn(now, 1, 2), now))
}

func TestStreakBrokenByGap(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	// Only a session two days ago: neither today nor yesterday studied.
	assert.Equal(t, 0, Streak(sessionsOn(now, 2), now))

	// Gap in the middle stops the count at the gap.
	assert.Equal(t, 1, Streak(sessionsOn(now, 0, 2, 3), now))
}

func TestStreakIgnoresStorageOrderAndDuplicates(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	sessions := sessionsOn(now, 2, 0, 1, 0, 1)
	assert.Equal(t, 3, Streak(sessions, now))
}

func TestStreakEmptyLog(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, Streak(nil, now))
}
