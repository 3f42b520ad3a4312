package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Course is a catalog entry. CourseID is the externally assigned numeric id
// used everywhere in the API; the gorm primary key stays internal.
type Course struct {
	gorm.Model
	CourseID      uint `gorm:"uniqueIndex;not null"`
	Title         string
	Category      string
	CategoryColor string
	Level         string
	LevelColor    string
	Price         float64
	Rating        float64
	Students      int
	Image         string
	Description   string
	IsBookmarked  bool

	Modules       datatypes.JSONSlice[Module]
	Curriculum    datatypes.JSONSlice[Subtopic]
	StatsCards    datatypes.JSONSlice[StatsCard]
	CurrentLesson datatypes.JSONType[CurrentLesson]
}

type Module struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

type Lesson struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Duration   string `json:"duration"`
	Thumbnail  string `json:"thumbnail"`
	YoutubeURL string `json:"youtubeUrl,omitempty"`
}

type Subtopic struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// StatsCard is a global dashboard widget. It lives on whichever course row
// happens to carry it, not per-course.
type StatsCard struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Icon  string `json:"icon"`
	Trend string `json:"trend"`
}

type CurrentLesson struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	YoutubeURL string `json:"youtubeUrl,omitempty"`
}

// TotalLessons sums lessons across all modules.
func (c *Course) TotalLessons() int {
	total := 0
	for _, m := range c.Modules {
		total += len(m.Lessons)
	}
	return total
}
