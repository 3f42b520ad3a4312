package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName    string
	LastName     string
	Name         string
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"default:user"` // user, admin
	Bio          string
	Settings     datatypes.JSONType[UserSettings]

	PurchasedCourses []PurchasedCourse
	Analytics        Analytics
}

// PurchasedCourse is one enrollment: a user's access to one course plus the
// progress state that belongs to it. CourseID is the external catalog id,
// always a uint — string ids are normalized at the request boundary.
type PurchasedCourse struct {
	gorm.Model
	UserID       uint `gorm:"uniqueIndex:idx_user_course"`
	CourseID     uint `gorm:"uniqueIndex:idx_user_course"`
	CourseTitle  string
	PurchaseDate time.Time

	CompletedLessons []CompletedLesson `gorm:"foreignKey:PurchaseID"`

	// Current lesson pointer, last-write-wins on update.
	CurrentLessonID    string
	CurrentModuleTitle string
	CurrentLessonPct   int

	// Set once when the completed-lesson count first reaches the course's
	// total; guards the completedCourses/certificates counters against
	// re-incrementing on later calls.
	Completed bool `gorm:"default:false"`
}

type CompletedLesson struct {
	gorm.Model
	PurchaseID  uint   `gorm:"index"`
	LessonID    string `gorm:"not null"`
	CompletedAt time.Time
}

// Certificate is issued at most once per user and course; the composite
// index backs the Completed-flag guard at the schema level.
type Certificate struct {
	gorm.Model
	UserID   uint   `gorm:"uniqueIndex:idx_user_course_cert"`
	CourseID uint   `gorm:"uniqueIndex:idx_user_course_cert"`
	Serial   string `gorm:"unique;not null"`
	IssuedAt time.Time
}

type UserSettings struct {
	Notifications NotificationSettings `json:"notifications"`
	Security      SecuritySettings     `json:"security"`
	Appearance    AppearanceSettings   `json:"appearance"`
}

type NotificationSettings struct {
	EmailNotifications bool `json:"emailNotifications"`
	PushNotifications  bool `json:"pushNotifications"`
	CourseUpdates      bool `json:"courseUpdates"`
	DiscussionReplies  bool `json:"discussionReplies"`
}

type SecuritySettings struct {
	TwoFactorAuth bool `json:"twoFactorAuth"`
	LoginAlerts   bool `json:"loginAlerts"`
}

type AppearanceSettings struct {
	Theme    string `json:"theme"` // light, dark, auto
	Language string `json:"language"`
}

// DefaultSettings mirrors the defaults applied at registration.
func DefaultSettings() UserSettings {
	return UserSettings{
		Notifications: NotificationSettings{
			EmailNotifications: true,
			PushNotifications:  true,
			CourseUpdates:      true,
			DiscussionReplies:  true,
		},
		Security: SecuritySettings{
			TwoFactorAuth: false,
			LoginAlerts:   true,
		},
		Appearance: AppearanceSettings{
			Theme:    "light",
			Language: "en",
		},
	}
}
