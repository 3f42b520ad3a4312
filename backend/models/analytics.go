package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Analytics holds a user's aggregate study counters. Mutated only by the
// course-progress update; everything derived is recomputed in full there.
type Analytics struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex"`

	TotalHours       float64
	DaysStudied      int
	LastStudyDate    *time.Time
	Attendance       float64
	DailyHours       float64
	TotalCourses     int
	CompletedCourses int
	Certificates     int

	StudySessions      datatypes.JSONSlice[StudySession]
	LearningHoursChart datatypes.JSONSlice[ChartEntry]
}

// StudySession is one entry in the append-only study log.
type StudySession struct {
	Date  time.Time `json:"date"`
	Hours float64   `json:"hours"`
}

// ChartEntry is one calendar day in the rolling 7-day learning-hours window.
// Date is a YYYY-MM-DD key, at most one entry per date, kept ascending.
type ChartEntry struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}
