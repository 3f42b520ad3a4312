package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/routes"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// setupApp connects to the test database and wires the full route table.
// Skips when no database is reachable so the pure-function suites still run
// everywhere.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	cfg := &config.Config{
		DBHost:     getenv("TEST_DB_HOST", "localhost"),
		DBPort:     getenv("TEST_DB_PORT", "5432"),
		DBUser:     getenv("TEST_DB_USER", "postgres"),
		DBPassword: getenv("TEST_DB_PASSWORD", "postgres"),
		DBName:     getenv("TEST_DB_NAME", "learnhub_test"),
		JWTSecret:  "testsecret",
		ServerPort: "8080",
	}

	db, err := utils.InitDB(cfg)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}

	db.Exec("TRUNCATE users, purchased_courses, completed_lessons, analytics, certificates, courses RESTART IDENTITY CASCADE")

	app := fiber.New()
	routes.SetupRoutes(app, db, nil, cfg)
	return app, db, cfg
}

func createUser(t *testing.T, db *gorm.DB, cfg *config.Config, email, role string) (models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := models.User{
		FirstName:    "Test",
		LastName:     "User",
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Settings:     datatypes.NewJSONType(models.DefaultSettings()),
		Analytics:    models.Analytics{},
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := utils.GenerateJWTToken(user.ID, cfg)
	require.NoError(t, err)
	return user, token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func seedCourse(t *testing.T, db *gorm.DB, courseID uint, lessonIDs ...string) models.Course {
	t.Helper()

	lessons := make([]models.Lesson, 0, len(lessonIDs))
	for _, id := range lessonIDs {
		lessons = append(lessons, models.Lesson{ID: id, Title: "Lesson " + id, Duration: "12:00"})
	}

	course := models.Course{
		CourseID: courseID,
		Title:    fmt.Sprintf("Course %d", courseID),
		Category: "Programming",
		Modules:  []models.Module{{ID: "m1", Title: "Module One", Lessons: lessons}},
	}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func TestRegisterAndLogin(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, body := doJSON(t, app, "POST", "/api/users", "", map[string]string{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
		"password":  "password",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "Ada Lovelace", data["name"])

	resp, body = doJSON(t, app, "POST", "/api/users/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "password",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["data"].(map[string]interface{})["token"])

	resp, _ = doJSON(t, app, "POST", "/api/users/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPurchaseCourseDuplicateConflict(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "buyer@example.com", "user")

	payload := map[string]interface{}{"courseId": 7, "courseTitle": "Go from Scratch"}

	resp, _ := doJSON(t, app, "POST", "/api/users/purchase-course", token, payload)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/users/purchase-course", token, payload)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var count int64
	db.Model(&models.PurchasedCourse{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestProgressUpdateNoOpLeavesAnalyticsUntouched(t *testing.T) {
	app, db, cfg := setupApp(t)
	user, token := createUser(t, db, cfg, "idle@example.com", "user")

	seedCourse(t, db, 7, "l1", "l2")
	resp, _ := doJSON(t, app, "POST", "/api/users/purchase-course", token,
		map[string]interface{}{"courseId": 7, "courseTitle": "Course 7"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "PUT", "/api/users/course-progress", token,
		map[string]interface{}{"courseId": 7, "completedLessons": []string{}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var analytics models.Analytics
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&analytics).Error)
	assert.Equal(t, 0.0, analytics.TotalHours)
	assert.Equal(t, 0, analytics.DaysStudied)
	assert.Len(t, analytics.LearningHoursChart, 0)
}

func TestProgressUpdateNotPurchased(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "nobody@example.com", "user")

	resp, _ := doJSON(t, app, "PUT", "/api/users/course-progress", token,
		map[string]interface{}{"courseId": 42, "completedLessons": []string{"l1"}})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCertificateIssuedOncePerCourse(t *testing.T) {
	app, db, cfg := setupApp(t)
	user, token := createUser(t, db, cfg, "grad@example.com", "user")

	seedCourse(t, db, 7, "l1", "l2")
	resp, _ := doJSON(t, app, "POST", "/api/users/purchase-course", token,
		map[string]interface{}{"courseId": 7, "courseTitle": "Course 7"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "PUT", "/api/users/course-progress", token,
		map[string]interface{}{"courseId": 7, "completedLessons": []string{"l1", "l2"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Replay the same completions with an hours override: analytics move,
	// but the completion counters must not.
	resp, _ = doJSON(t, app, "PUT", "/api/users/course-progress", token,
		map[string]interface{}{"courseId": 7, "completedLessons": []string{"l1", "l2"}, "studyHours": 1.0})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var analytics models.Analytics
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&analytics).Error)
	assert.Equal(t, 1, analytics.CompletedCourses)
	assert.Equal(t, 1, analytics.Certificates)

	var certs int64
	db.Model(&models.Certificate{}).Where("user_id = ?", user.ID).Count(&certs)
	assert.Equal(t, int64(1), certs)

	var purchase models.PurchasedCourse
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", user.ID, 7).First(&purchase).Error)
	assert.True(t, purchase.Completed)
}

func TestProgressUpdateRollsBackTogetherOnWriteFailure(t *testing.T) {
	app, db, cfg := setupApp(t)
	user, token := createUser(t, db, cfg, "rollback@example.com", "user")

	seedCourse(t, db, 7, "l1", "l2")
	resp, _ := doJSON(t, app, "POST", "/api/users/purchase-course", token,
		map[string]interface{}{"courseId": 7, "courseTitle": "Course 7"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// A certificate already on file makes the issue inside the update
	// collide with the unique index, failing the last write of the set.
	require.NoError(t, db.Create(&models.Certificate{
		UserID:   user.ID,
		CourseID: 7,
		Serial:   "preexisting-serial",
		IssuedAt: time.Now(),
	}).Error)

	resp, _ = doJSON(t, app, "PUT", "/api/users/course-progress", token,
		map[string]interface{}{"courseId": 7, "completedLessons": []string{"l1", "l2"}})
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	// Nothing from the failed update may stick: no completion rows, no
	// Completed flag, no analytics movement, no second certificate.
	var purchase models.PurchasedCourse
	require.NoError(t, db.Preload("CompletedLessons").
		Where("user_id = ? AND course_id = ?", user.ID, 7).First(&purchase).Error)
	assert.False(t, purchase.Completed)
	assert.Len(t, purchase.CompletedLessons, 0)

	var analytics models.Analytics
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&analytics).Error)
	assert.Equal(t, 0, analytics.CompletedCourses)
	assert.Equal(t, 0, analytics.Certificates)
	assert.Equal(t, 0.0, analytics.TotalHours)
	assert.Equal(t, 0, analytics.DaysStudied)

	var certs int64
	db.Model(&models.Certificate{}).Where("user_id = ?", user.ID).Count(&certs)
	assert.Equal(t, int64(1), certs)
}

func TestProgressUpdateSameDayCountsOnce(t *testing.T) {
	app, db, cfg := setupApp(t)
	user, token := createUser(t, db, cfg, "daily@example.com", "user")

	seedCourse(t, db, 7, "l1", "l2", "l3")
	doJSON(t, app, "POST", "/api/users/purchase-course", token,
		map[string]interface{}{"courseId": 7, "courseTitle": "Course 7"})

	doJSON(t, app, "PUT", "/api/users/course-progress", token,
		map[string]interface{}{"courseId": 7, "completedLessons": []string{"l1"}})
	doJSON(t, app, "PUT", "/api/users/course-progress", token,
		map[string]interface{}{"courseId": 7, "completedLessons": []string{"l2"}})

	var analytics models.Analytics
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&analytics).Error)
	assert.Equal(t, 1, analytics.DaysStudied)
	assert.LessOrEqual(t, len(analytics.LearningHoursChart), 7)
}

func TestWatchedVideosProjection(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "viewer@example.com", "user")

	seedCourse(t, db, 7, "l1", "l2", "l3")
	doJSON(t, app, "POST", "/api/users/purchase-course", token,
		map[string]interface{}{"courseId": 7, "courseTitle": "Course 7"})
	doJSON(t, app, "PUT", "/api/users/course-progress", token,
		map[string]interface{}{
			"courseId":         7,
			"completedLessons": []string{"l1"},
			"currentLesson":    map[string]interface{}{"lessonId": "l2", "moduleTitle": "Module One"},
		})

	resp, body := doJSON(t, app, "GET", "/api/users/watched-videos", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	videos := data["videos"].([]interface{})
	assert.Len(t, videos, 3)

	statuses := map[string]int{}
	for _, raw := range videos {
		v := raw.(map[string]interface{})
		statuses[v["status"].(string)]++
	}
	assert.Equal(t, 1, statuses["completed"])
	assert.Equal(t, 1, statuses["in-progress"])
	assert.Equal(t, 1, statuses["not-started"])

	// Never-watched lessons sort last.
	last := videos[len(videos)-1].(map[string]interface{})
	assert.Equal(t, "not-started", last["status"])

	metrics := data["metrics"].(map[string]interface{})
	assert.Equal(t, "1 days", metrics["learningStreak"])
	assert.Equal(t, float64(1), metrics["videosCompleted"])
}

func TestLearningDataRequiresPurchase(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "window@example.com", "user")

	seedCourse(t, db, 7, "l1")

	resp, _ := doJSON(t, app, "GET", "/api/courses/7/learning", token, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	doJSON(t, app, "POST", "/api/users/purchase-course", token,
		map[string]interface{}{"courseId": 7, "courseTitle": "Course 7"})

	resp, body := doJSON(t, app, "GET", "/api/courses/7/learning", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.NotNil(t, data["modules"])
}

func TestCourseAdminAccess(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, userToken := createUser(t, db, cfg, "plain@example.com", "user")
	_, adminToken := createUser(t, db, cfg, "admin@example.com", "admin")

	payload := map[string]interface{}{"id": 9, "title": "Admin Course"}

	resp, _ := doJSON(t, app, "POST", "/api/courses", userToken, payload)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/courses", adminToken, payload)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Duplicate external id is a conflict.
	resp, _ = doJSON(t, app, "POST", "/api/courses", adminToken, payload)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/api/courses/9", adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCourseCatalogPublicEndpoints(t *testing.T) {
	app, db, _ := setupApp(t)

	course := seedCourse(t, db, 7, "l1", "l2")
	course.StatsCards = []models.StatsCard{{Title: "Active Learners", Value: "1200"}}
	require.NoError(t, db.Save(&course).Error)

	resp, body := doJSON(t, app, "GET", "/api/courses", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := body["data"].([]interface{})
	assert.Len(t, list, 1)
	first := list[0].(map[string]interface{})
	assert.Equal(t, float64(7), first["id"])
	assert.Equal(t, float64(2), first["lessons"])

	resp, body = doJSON(t, app, "GET", "/api/courses/7", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, "GET", "/api/courses/stats/cards", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	cards := body["data"].(map[string]interface{})["statsCards"].([]interface{})
	assert.Len(t, cards, 1)

	resp, _ = doJSON(t, app, "GET", "/api/courses/999", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateSettingsMergesSections(t *testing.T) {
	app, db, cfg := setupApp(t)
	user, token := createUser(t, db, cfg, "settings@example.com", "user")

	resp, body := doJSON(t, app, "PUT", "/api/users/settings", token, map[string]interface{}{
		"appearance": map[string]interface{}{"theme": "dark"},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	settings := body["data"].(map[string]interface{})["settings"].(map[string]interface{})
	appearance := settings["appearance"].(map[string]interface{})
	assert.Equal(t, "dark", appearance["theme"])
	// Untouched sections keep their defaults.
	notifications := settings["notifications"].(map[string]interface{})
	assert.Equal(t, true, notifications["emailNotifications"])

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, "dark", reloaded.Settings.Data().Appearance.Theme)
	assert.Equal(t, "en", reloaded.Settings.Data().Appearance.Language)
}

func TestMyCoursesDerivedProgress(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, token := createUser(t, db, cfg, "mycourses@example.com", "user")

	seedCourse(t, db, 7, "l1", "l2")
	doJSON(t, app, "POST", "/api/users/purchase-course", token,
		map[string]interface{}{"courseId": 7, "courseTitle": "Course 7"})
	doJSON(t, app, "PUT", "/api/users/course-progress", token,
		map[string]interface{}{"courseId": 7, "completedLessons": []string{"l1"}})

	resp, body := doJSON(t, app, "GET", "/api/courses/my-courses", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	list := body["data"].([]interface{})
	require.Len(t, list, 1)
	entry := list[0].(map[string]interface{})
	assert.Equal(t, "In Progress", entry["status"])
	assert.Equal(t, float64(50), entry["progress"])
	assert.Equal(t, "1 of 2 lessons", entry["lessons"])
}

func TestSidebarNavigationByRole(t *testing.T) {
	app, db, cfg := setupApp(t)
	_, userToken := createUser(t, db, cfg, "nav@example.com", "user")
	_, adminToken := createUser(t, db, cfg, "navadmin@example.com", "admin")

	resp, body := doJSON(t, app, "GET", "/api/sidebar/navigation", userToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	userItems := body["data"].(map[string]interface{})["navigation"].([]interface{})

	resp, body = doJSON(t, app, "GET", "/api/sidebar/navigation", adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	adminItems := body["data"].(map[string]interface{})["navigation"].([]interface{})

	assert.Equal(t, len(userItems)+1, len(adminItems))
}
