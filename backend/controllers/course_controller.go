package controllers

import (
	"errors"
	"strconv"

	"learnhub/backend/cache"
	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	cacheKeyCourseList = "list"
	cacheKeyStatsCards = "stats-cards"
)

type CoursesController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Cache *cache.Client
}

func NewCoursesController(db *gorm.DB, cfg *config.Config, cc *cache.Client) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg, Cache: cc}
}

// CourseSummary is the catalog-list projection of a course.
type CourseSummary struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	CategoryColor string  `json:"categoryColor"`
	Lessons       int     `json:"lessons"`
	Level         string  `json:"level"`
	Price         float64 `json:"price"`
	Rating        float64 `json:"rating"`
	Students      int     `json:"students"`
	Image         string  `json:"image"`
	IsBookmarked  bool    `json:"isBookmarked"`
}

// GetCourses lists the catalog. The projection is cached; mutations
// invalidate it.
func (cc *CoursesController) GetCourses(c *fiber.Ctx) error {
	var summaries []CourseSummary
	if err := cc.Cache.Get(c.Context(), cacheKeyCourseList, &summaries); err == nil {
		return utils.Success(c, fiber.StatusOK, summaries)
	}

	var courses []models.Course
	if err := cc.DB.Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Could not query courses")
	}

	summaries = make([]CourseSummary, 0, len(courses))
	for _, course := range courses {
		summaries = append(summaries, CourseSummary{
			ID:            course.CourseID,
			Title:         course.Title,
			Category:      course.Category,
			CategoryColor: course.CategoryColor,
			Lessons:       course.TotalLessons(),
			Level:         course.Level,
			Price:         course.Price,
			Rating:        course.Rating,
			Students:      course.Students,
			Image:         course.Image,
			IsBookmarked:  course.IsBookmarked,
		})
	}

	cc.Cache.Set(c.Context(), cacheKeyCourseList, summaries)
	return utils.Success(c, fiber.StatusOK, summaries)
}

// GetCourseByID returns the full course document.
func (cc *CoursesController) GetCourseByID(c *fiber.Ctx) error {
	courseID, err := parseCourseID(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.Where("course_id = ?", courseID).First(&course).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	return utils.Success(c, fiber.StatusOK, course)
}

// GetLearningData returns the modules and current-lesson pointer of a
// course. Only buyers get through.
func (cc *CoursesController) GetLearningData(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := parseCourseID(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var purchase models.PurchasedCourse
	if err := cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&purchase).Error; err != nil {
		return utils.Forbidden(c, "Access denied. Course not purchased.")
	}

	var course models.Course
	if err := cc.DB.Where("course_id = ?", courseID).First(&course).Error; err != nil {
		return utils.NotFound(c, "Course learning data not found")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":            course.CourseID,
		"title":         course.Title,
		"modules":       course.Modules,
		"currentLesson": course.CurrentLesson.Data(),
	})
}

// GetStatsCards serves the dashboard stat widgets. They are global display
// data but live on whichever course row happens to carry them.
func (cc *CoursesController) GetStatsCards(c *fiber.Ctx) error {
	var cards []models.StatsCard
	if err := cc.Cache.Get(c.Context(), cacheKeyStatsCards, &cards); err == nil {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"statsCards": cards})
	}

	var course models.Course
	if err := cc.DB.Where("jsonb_typeof(stats_cards) = 'array' AND jsonb_array_length(stats_cards) > 0").First(&course).Error; err != nil {
		return utils.NotFound(c, "Stats cards not found")
	}

	cards = course.StatsCards
	cc.Cache.Set(c.Context(), cacheKeyStatsCards, cards)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"statsCards": cards})
}

// GetMyCourses returns the caller's purchased courses with derived progress.
func (cc *CoursesController) GetMyCourses(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var purchases []models.PurchasedCourse
	if err := cc.DB.Preload("CompletedLessons").Where("user_id = ?", userID).
		Order("purchase_date").Find(&purchases).Error; err != nil {
		return utils.InternalServerError(c, "Could not query purchases")
	}

	result := make([]fiber.Map, 0, len(purchases))
	for _, pc := range purchases {
		var course models.Course
		if err := cc.DB.Where("course_id = ?", pc.CourseID).First(&course).Error; err != nil {
			// Dangling purchase: the course was deleted from the catalog.
			continue
		}

		total := course.TotalLessons()
		completed := len(pc.CompletedLessons)

		pct := 0
		status := "Not Started"
		if total > 0 {
			pct = (completed*100 + total/2) / total
		}
		switch {
		case total > 0 && completed >= total:
			status = "Completed"
		case completed > 0:
			status = "In Progress"
		}

		result = append(result, fiber.Map{
			"id":       course.CourseID,
			"title":    course.Title,
			"level":    course.Level,
			"image":    course.Image,
			"rating":   course.Rating,
			"students": course.Students,
			"progress": pct,
			"status":   status,
			"lessons":  strconv.Itoa(completed) + " of " + strconv.Itoa(total) + " lessons",
		})
	}

	return utils.Success(c, fiber.StatusOK, result)
}

type CreateCourseRequest struct {
	CourseID      uint    `json:"id" validate:"required"`
	Title         string  `json:"title" validate:"required"`
	Category      string  `json:"category"`
	CategoryColor string  `json:"categoryColor"`
	Level         string  `json:"level"`
	LevelColor    string  `json:"levelColor"`
	Price         float64 `json:"price"`
	Rating        float64 `json:"rating"`
	Students      int     `json:"students"`
	Image         string  `json:"image"`
	Description   string  `json:"description"`
}

// CreateCourse adds a catalog entry. The external id must be unique.
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var input CreateCourseRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var existing models.Course
	if err := cc.DB.Where("course_id = ?", input.CourseID).First(&existing).Error; err == nil {
		return utils.BadRequest(c, "Course with this ID already exists")
	}

	course := models.Course{
		CourseID:      input.CourseID,
		Title:         input.Title,
		Category:      input.Category,
		CategoryColor: input.CategoryColor,
		Level:         input.Level,
		LevelColor:    input.LevelColor,
		Price:         input.Price,
		Rating:        input.Rating,
		Students:      input.Students,
		Image:         input.Image,
		Description:   input.Description,
	}
	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}

	cc.Cache.Delete(c.Context(), cacheKeyCourseList, cacheKeyStatsCards)
	return utils.Created(c, course)
}

// DeleteCourse removes a catalog entry. Purchase records referencing it are
// left in place.
func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	courseID, err := parseCourseID(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.Where("course_id = ?", courseID).First(&course).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	if err := cc.DB.Delete(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete course")
	}

	cc.Cache.Delete(c.Context(), cacheKeyCourseList, cacheKeyStatsCards)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Course removed"})
}

type AddModulesRequest struct {
	Modules []models.Module `json:"modules" validate:"required,min=1"`
}

// AddModules appends modules to a course.
func (cc *CoursesController) AddModules(c *fiber.Ctx) error {
	courseID, err := parseCourseID(c.Params("courseId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input AddModulesRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var course models.Course
	if err := cc.DB.Where("course_id = ?", courseID).First(&course).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	course.Modules = append(course.Modules, input.Modules...)
	if err := cc.DB.Save(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not update course")
	}

	cc.Cache.Delete(c.Context(), cacheKeyCourseList)
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Modules added successfully",
		"course":  course,
	})
}

type AddLessonsRequest struct {
	Lessons []models.Lesson `json:"lessons" validate:"required,min=1"`
}

// AddLessons appends lessons to one module of a course.
func (cc *CoursesController) AddLessons(c *fiber.Ctx) error {
	courseID, err := parseCourseID(c.Params("courseId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	moduleID := c.Params("moduleId")

	var input AddLessonsRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var course models.Course
	if err := cc.DB.Where("course_id = ?", courseID).First(&course).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	found := false
	for i := range course.Modules {
		if course.Modules[i].ID == moduleID {
			course.Modules[i].Lessons = append(course.Modules[i].Lessons, input.Lessons...)
			found = true
			break
		}
	}
	if !found {
		return utils.NotFound(c, "Module not found")
	}

	if err := cc.DB.Save(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not update course")
	}

	cc.Cache.Delete(c.Context(), cacheKeyCourseList)
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "Lessons added successfully",
		"modules": course.Modules,
	})
}

type AddSubtopicsRequest struct {
	Subtopics []models.Subtopic `json:"subtopics" validate:"required,min=1"`
}

// AddSubtopics appends curriculum subtopics to a course.
func (cc *CoursesController) AddSubtopics(c *fiber.Ctx) error {
	courseID, err := parseCourseID(c.Params("courseId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input AddSubtopicsRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var course models.Course
	if err := cc.DB.Where("course_id = ?", courseID).First(&course).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	course.Curriculum = append(course.Curriculum, input.Subtopics...)
	if err := cc.DB.Save(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not update course")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":    "Subtopics added successfully",
		"curriculum": course.Curriculum,
	})
}

type UpdateLessonVideoRequest struct {
	YoutubeURL string `json:"youtubeUrl" validate:"required,url"`
}

// UpdateLessonVideo sets the video URL of one lesson, and of the course's
// current-lesson pointer when it matches.
func (cc *CoursesController) UpdateLessonVideo(c *fiber.Ctx) error {
	courseID, err := parseCourseID(c.Params("courseId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	lessonID := c.Params("lessonId")

	var input UpdateLessonVideoRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var course models.Course
	if err := cc.DB.Where("course_id = ?", courseID).First(&course).Error; err != nil {
		return utils.NotFound(c, "Course not found")
	}

	found := false
	for i := range course.Modules {
		for j := range course.Modules[i].Lessons {
			if course.Modules[i].Lessons[j].ID == lessonID {
				course.Modules[i].Lessons[j].YoutubeURL = input.YoutubeURL
				found = true
			}
		}
	}

	current := course.CurrentLesson.Data()
	if current.ID == lessonID {
		current.YoutubeURL = input.YoutubeURL
		course.CurrentLesson = datatypes.NewJSONType(current)
		found = true
	}

	if !found {
		return utils.NotFound(c, "Lesson not found")
	}

	if err := cc.DB.Save(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not update course")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Lesson video URL updated successfully"})
}

func parseCourseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid course id")
	}
	return uint(id), nil
}
