package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/progress"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{DB: db, Cfg: cfg}
}

// GetProfile returns the caller's profile without sensitive fields.
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := uc.DB.Preload("PurchasedCourses.CompletedLessons").First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":               user.ID,
		"firstName":        user.FirstName,
		"lastName":         user.LastName,
		"name":             user.Name,
		"email":            user.Email,
		"role":             user.Role,
		"bio":              user.Bio,
		"purchasedCourses": user.PurchasedCourses,
	})
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"omitempty,email"`
	Bio       string `json:"bio"`
}

// UpdateProfile applies the non-empty fields of the request to the caller.
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input UpdateProfileRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	user.Name = strings.TrimSpace(user.FirstName + " " + user.LastName)

	if input.Email != "" && input.Email != user.Email {
		var existing models.User
		if err := uc.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil && existing.ID != user.ID {
			return utils.BadRequest(c, "Email already taken")
		}
		user.Email = input.Email
	}
	if input.Bio != "" {
		user.Bio = input.Bio
	}

	if err := uc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":        user.ID,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"bio":       user.Bio,
	})
}

type PurchaseCourseRequest struct {
	CourseID    uint   `json:"courseId" validate:"required"`
	CourseTitle string `json:"courseTitle" validate:"required"`
}

// PurchaseCourse appends an enrollment for the caller. Duplicate purchases
// of the same course id are rejected. The course id is not checked against
// the catalog; a purchase may reference a course created later.
func (uc *UserController) PurchaseCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input PurchaseCourseRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	var existing models.PurchasedCourse
	if err := uc.DB.Where("user_id = ? AND course_id = ?", userID, input.CourseID).First(&existing).Error; err == nil {
		return utils.BadRequest(c, "Course already purchased")
	}

	purchase := models.PurchasedCourse{
		UserID:       userID,
		CourseID:     input.CourseID,
		CourseTitle:  input.CourseTitle,
		PurchaseDate: time.Now(),
	}
	if err := uc.DB.Create(&purchase).Error; err != nil {
		return utils.InternalServerError(c, "Could not record purchase")
	}

	var purchased []models.PurchasedCourse
	if err := uc.DB.Preload("CompletedLessons").Where("user_id = ?", userID).Order("purchase_date").Find(&purchased).Error; err != nil {
		return utils.InternalServerError(c, "Could not load purchased courses")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":          "Course purchased successfully",
		"purchasedCourses": purchased,
	})
}

type CurrentLessonInput struct {
	LessonID    string `json:"lessonId"`
	ModuleTitle string `json:"moduleTitle"`
	Progress    int    `json:"progress"`
}

type UpdateProgressRequest struct {
	CourseID         uint                `json:"courseId" validate:"required"`
	CompletedLessons []string            `json:"completedLessons"`
	CurrentLesson    *CurrentLessonInput `json:"currentLesson"`
	StudyHours       float64             `json:"studyHours"`
}

// UpdateCourseProgress records lesson completions against a purchase and
// reconciles the caller's analytics. The whole update is assembled in memory
// and persisted in a single transaction; any failed write discards all of it.
func (uc *UserController) UpdateCourseProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input UpdateProgressRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var purchase models.PurchasedCourse
	if err := uc.DB.Preload("CompletedLessons").
		Where("user_id = ? AND course_id = ?", userID, input.CourseID).
		First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found in purchased courses")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	now := time.Now()
	before := len(purchase.CompletedLessons)
	newCount := progress.ApplyCompletions(&purchase, input.CompletedLessons, now)

	if input.CurrentLesson != nil {
		purchase.CurrentLessonID = input.CurrentLesson.LessonID
		purchase.CurrentModuleTitle = input.CurrentLesson.ModuleTitle
		purchase.CurrentLessonPct = input.CurrentLesson.Progress
	}

	var analytics models.Analytics
	if err := uc.DB.Where("user_id = ?", userID).First(&analytics).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.InternalServerError(c, "Could not query database")
		}
		analytics = models.Analytics{UserID: userID}
	}

	var totalCourses int64
	if err := uc.DB.Model(&models.PurchasedCourse{}).Where("user_id = ?", userID).Count(&totalCourses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	changed := progress.Reconcile(&analytics, progress.Input{
		NewCompletions: newCount,
		StudyHours:     input.StudyHours,
		Now:            now,
		TotalCourses:   int(totalCourses),
	})

	issueCertificate := false
	if changed {
		// Completion counts move once per course, on the transition of the
		// purchase's Completed flag. A certificate row is issued alongside.
		var course models.Course
		if err := uc.DB.Where("course_id = ?", input.CourseID).First(&course).Error; err == nil {
			if progress.CompletionReached(&purchase, course.TotalLessons()) && !purchase.Completed {
				purchase.Completed = true
				analytics.CompletedCourses++
				analytics.Certificates++
				issueCertificate = true
			}
		}
	}

	// The writes of one update commit together; a failure discards them all,
	// so a retry re-evaluates the Completed-flag guard against clean state.
	txErr := uc.DB.Transaction(func(tx *gorm.DB) error {
		if newCount > 0 {
			newLessons := purchase.CompletedLessons[before:]
			if err := tx.Create(&newLessons).Error; err != nil {
				return err
			}
		}
		if err := tx.Omit("CompletedLessons").Save(&purchase).Error; err != nil {
			return err
		}
		if changed {
			if err := tx.Save(&analytics).Error; err != nil {
				return err
			}
		}
		if issueCertificate {
			if err := tx.Create(&models.Certificate{
				UserID:   userID,
				CourseID: input.CourseID,
				Serial:   uuid.NewString(),
				IssuedAt: now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return utils.InternalServerError(c, "Could not update progress")
	}

	var purchased []models.PurchasedCourse
	if err := uc.DB.Preload("CompletedLessons").Where("user_id = ?", userID).Order("purchase_date").Find(&purchased).Error; err != nil {
		return utils.InternalServerError(c, "Could not load purchased courses")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":          "Progress updated successfully",
		"purchasedCourses": purchased,
	})
}

// GetWatchedVideos projects every lesson of every purchased course into a
// watch-state row, plus the summary metrics block.
func (uc *UserController) GetWatchedVideos(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := uc.DB.Preload("PurchasedCourses.CompletedLessons").Preload("Analytics").
		First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	var courses []models.Course
	if err := uc.DB.Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query courses")
	}
	courseMap := make(map[uint]models.Course, len(courses))
	for _, course := range courses {
		courseMap[course.CourseID] = course
	}

	now := time.Now()
	videos := progress.WatchedVideos(user.PurchasedCourses, courseMap, now)

	completed := 0
	for _, v := range videos {
		if v.Status == progress.StatusCompleted {
			completed++
		}
	}

	streak := progress.Streak(user.Analytics.StudySessions, now)
	avgMinutes := progress.AvgSessionMinutes(user.Analytics.DailyHours)

	courseRefs := make([]fiber.Map, 0, len(user.PurchasedCourses))
	for _, pc := range user.PurchasedCourses {
		courseRefs = append(courseRefs, fiber.Map{
			"id":    pc.CourseID,
			"title": pc.CourseTitle,
		})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"videos": videos,
		"metrics": fiber.Map{
			"totalHours":      fmt.Sprintf("%.1f", user.Analytics.TotalHours),
			"videosCompleted": completed,
			"avgSession":      fmt.Sprintf("%dmin", avgMinutes),
			"learningStreak":  fmt.Sprintf("%d days", streak),
		},
		"courses": courseRefs,
	})
}

type UpdateSettingsRequest struct {
	Notifications *struct {
		EmailNotifications *bool `json:"emailNotifications"`
		PushNotifications  *bool `json:"pushNotifications"`
		CourseUpdates      *bool `json:"courseUpdates"`
		DiscussionReplies  *bool `json:"discussionReplies"`
	} `json:"notifications"`
	Security *struct {
		TwoFactorAuth *bool `json:"twoFactorAuth"`
		LoginAlerts   *bool `json:"loginAlerts"`
	} `json:"security"`
	Appearance *struct {
		Theme    *string `json:"theme" validate:"omitempty,oneof=light dark auto"`
		Language *string `json:"language"`
	} `json:"appearance"`
}

// UpdateSettings merges the supplied sections into the stored settings,
// leaving omitted fields untouched.
func (uc *UserController) UpdateSettings(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input UpdateSettingsRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	settings := user.Settings.Data()

	if input.Notifications != nil {
		n := input.Notifications
		if n.EmailNotifications != nil {
			settings.Notifications.EmailNotifications = *n.EmailNotifications
		}
		if n.PushNotifications != nil {
			settings.Notifications.PushNotifications = *n.PushNotifications
		}
		if n.CourseUpdates != nil {
			settings.Notifications.CourseUpdates = *n.CourseUpdates
		}
		if n.DiscussionReplies != nil {
			settings.Notifications.DiscussionReplies = *n.DiscussionReplies
		}
	}
	if input.Security != nil {
		s := input.Security
		if s.TwoFactorAuth != nil {
			settings.Security.TwoFactorAuth = *s.TwoFactorAuth
		}
		if s.LoginAlerts != nil {
			settings.Security.LoginAlerts = *s.LoginAlerts
		}
	}
	if input.Appearance != nil {
		a := input.Appearance
		if a.Theme != nil {
			settings.Appearance.Theme = *a.Theme
		}
		if a.Language != nil {
			settings.Appearance.Language = *a.Language
		}
	}

	user.Settings = datatypes.NewJSONType(settings)
	if err := uc.DB.Save(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update settings")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":  "Settings updated successfully",
		"settings": settings,
	})
}
