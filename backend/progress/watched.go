package progress

import (
	"fmt"
	"sort"
	"time"

	"learnhub/backend/models"
)

const (
	StatusCompleted  = "completed"
	StatusInProgress = "in-progress"
	StatusNotStarted = "not-started"
)

// WatchedVideo is one row of the watched-videos projection: a lesson from a
// purchased course joined against the user's progress state.
type WatchedVideo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Course      string     `json:"course"`
	CourseID    uint       `json:"courseId"`
	Duration    string     `json:"duration"`
	Progress    int        `json:"progress"`
	Status      string     `json:"status"`
	LastWatched *time.Time `json:"lastWatched"`
	Thumbnail   string     `json:"thumbnail"`
	ModuleTitle string     `json:"moduleTitle"`
}

// WatchedVideos derives the projection for every lesson in every module of
// every purchased course. Purchases whose course no longer exists in the
// catalog contribute nothing. The result is sorted by lastWatched, most
// recent first, with never-watched lessons last.
func WatchedVideos(purchases []models.PurchasedCourse, courses map[uint]models.Course, now time.Time) []WatchedVideo {
	var videos []WatchedVideo

	for _, pc := range purchases {
		course, ok := courses[pc.CourseID]
		if !ok {
			continue
		}

		completedAt := make(map[string]time.Time, len(pc.CompletedLessons))
		for _, cl := range pc.CompletedLessons {
			completedAt[cl.LessonID] = cl.CompletedAt
		}

		for _, mod := range course.Modules {
			for _, lesson := range mod.Lessons {
				v := WatchedVideo{
					ID:          lesson.ID,
					Title:       lesson.Title,
					Course:      pc.CourseTitle,
					CourseID:    pc.CourseID,
					Duration:    lesson.Duration,
					Progress:    0,
					Status:      StatusNotStarted,
					Thumbnail:   lesson.Thumbnail,
					ModuleTitle: mod.Title,
				}
				if v.Duration == "" {
					v.Duration = "15:00"
				}
				if v.Thumbnail == "" {
					v.Thumbnail = fmt.Sprintf("/course-thumbnails/%d.png", pc.CourseID)
				}

				if at, done := completedAt[lesson.ID]; done {
					watched := at
					v.Progress = 100
					v.Status = StatusCompleted
					v.LastWatched = &watched
				} else if pc.CurrentLessonID != "" && pc.CurrentLessonID == lesson.ID {
					v.Progress = pc.CurrentLessonPct
					if v.Progress <= 0 {
						v.Progress = 50
					}
					v.Status = StatusInProgress
					watched := now
					v.LastWatched = &watched
				}

				videos = append(videos, v)
			}
		}
	}

	sort.SliceStable(videos, func(i, j int) bool {
		a, b := videos[i].LastWatched, videos[j].LastWatched
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	return videos
}

// AvgSessionMinutes converts average daily hours into minutes for the
// watched-videos metrics block, falling back to 23 when undetermined.
func AvgSessionMinutes(dailyHours float64) int {
	if dailyHours <= 0 {
		return 23
	}
	return int(dailyHours*60 + 0.5)
}
