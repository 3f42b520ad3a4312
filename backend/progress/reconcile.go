package progress

import (
	"math"
	"sort"
	"time"

	"learnhub/backend/models"
)

// HoursPerLesson is the fixed time estimate credited per completed lesson
// when the client does not report study hours (~10 minutes).
const HoursPerLesson = 0.1667

const dateKeyLayout = "2006-01-02"

// DateKey collapses a timestamp to its calendar-date key.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return DateKey(a) == DateKey(b)
}

// ApplyCompletions merges the reported lesson ids into the purchase's
// completed-lesson list. Ids already recorded (or repeated within the same
// request) are ignored; each genuinely new id is stamped with now. Returns
// the number of newly added completions.
func ApplyCompletions(p *models.PurchasedCourse, lessonIDs []string, now time.Time) int {
	seen := make(map[string]struct{}, len(p.CompletedLessons))
	for _, cl := range p.CompletedLessons {
		seen[cl.LessonID] = struct{}{}
	}

	added := 0
	for _, id := range lessonIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		p.CompletedLessons = append(p.CompletedLessons, models.CompletedLesson{
			PurchaseID:  p.ID,
			LessonID:    id,
			CompletedAt: now,
		})
		added++
	}
	return added
}

// Input carries everything Reconcile needs; the course and purchase data are
// resolved by the caller so this stays a pure record-to-record computation.
type Input struct {
	NewCompletions int
	StudyHours     float64
	Now            time.Time
	TotalCourses   int
}

// Reconcile applies one study event to the user's analytics. A call with no
// new completions and no positive hours override leaves the record untouched
// and returns false.
//
// Otherwise it: counts today as a study day at most once per calendar date,
// accrues hours (override when positive, else NewCompletions×HoursPerLesson),
// appends a session to the study log, folds the hours into the rolling 7-day
// chart, and recomputes the derived aggregates in full.
func Reconcile(a *models.Analytics, in Input) bool {
	if in.NewCompletions <= 0 && in.StudyHours <= 0 {
		return false
	}

	if a.LastStudyDate == nil || !SameDay(*a.LastStudyDate, in.Now) {
		a.DaysStudied++
		today := in.Now
		a.LastStudyDate = &today
	}

	hours := in.StudyHours
	if hours <= 0 {
		hours = float64(in.NewCompletions) * HoursPerLesson
	}

	a.TotalHours += hours
	a.StudySessions = append(a.StudySessions, models.StudySession{
		Date:  in.Now,
		Hours: hours,
	})
	a.LearningHoursChart = foldIntoChart(a.LearningHoursChart, in.Now, hours)

	a.Attendance = math.Min(float64(a.DaysStudied)/30*100, 100)
	if a.DaysStudied > 0 {
		a.DailyHours = a.TotalHours / float64(a.DaysStudied)
	} else {
		a.DailyHours = 0
	}
	a.TotalCourses = in.TotalCourses

	return true
}

// foldIntoChart adds hours under today's date key, drops entries older than
// the 7-day window and returns the chart sorted ascending by date. The
// YYYY-MM-DD keys compare correctly as strings.
func foldIntoChart(chart []models.ChartEntry, now time.Time, hours float64) []models.ChartEntry {
	key := DateKey(now)

	found := false
	for i := range chart {
		if chart[i].Date == key {
			chart[i].Hours += hours
			found = true
			break
		}
	}
	if !found {
		chart = append(chart, models.ChartEntry{Date: key, Hours: hours})
	}

	cutoff := DateKey(now.AddDate(0, 0, -7))
	kept := chart[:0]
	for _, e := range chart {
		if e.Date > cutoff {
			kept = append(kept, e)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Date < kept[j].Date })
	return kept
}

// CompletionReached reports whether the purchase now covers every lesson of
// the course. Callers must pair it with the purchase's Completed flag so the
// completedCourses/certificates counters move once per course, not once per
// qualifying call.
func CompletionReached(p *models.PurchasedCourse, totalLessons int) bool {
	return totalLessons > 0 && len(p.CompletedLessons) >= totalLessons
}
