package controllers

import (
	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SidebarController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewSidebarController(db *gorm.DB, cfg *config.Config) *SidebarController {
	return &SidebarController{DB: db, Cfg: cfg}
}

type NavigationItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon"`
}

// GetNavigationItems returns the sidebar entries for the caller's role.
func (sc *SidebarController) GetNavigationItems(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, sc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := sc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	items := []NavigationItem{
		{Label: "Dashboard", Path: "/dashboard", Icon: "home"},
		{Label: "My Courses", Path: "/my-courses", Icon: "book"},
		{Label: "Explore", Path: "/courses", Icon: "compass"},
		{Label: "Watched Videos", Path: "/watched-videos", Icon: "play"},
		{Label: "Settings", Path: "/settings", Icon: "settings"},
	}

	if user.Role == "admin" {
		items = append(items, NavigationItem{Label: "Course Admin", Path: "/admin/courses", Icon: "shield"})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"navigation": items})
}
