package controllers

import (
	"errors"
	"strings"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAuthController(db *gorm.DB, cfg *config.Config) *AuthController {
	return &AuthController{DB: db, Cfg: cfg}
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a user account with default settings and an empty
// analytics record, and returns a signed token.
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var existing models.User
	if err := ac.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return utils.BadRequest(c, "User already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Name:         strings.TrimSpace(input.FirstName + " " + input.LastName),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         "user",
		Settings:     datatypes.NewJSONType(models.DefaultSettings()),
		Analytics:    models.Analytics{},
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not create user")
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return utils.Created(c, fiber.Map{
		"id":        user.ID,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"token":     token,
	})
}

// Login authenticates by email and password.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var user models.User
	if err := ac.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Unauthorized(c, "Invalid credentials")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Invalid credentials")
	}

	token, err := utils.GenerateJWTToken(user.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	var purchased []models.PurchasedCourse
	if err := ac.DB.Where("user_id = ?", user.ID).Order("purchase_date").Find(&purchased).Error; err != nil {
		return utils.InternalServerError(c, "Could not load purchased courses")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":               user.ID,
		"firstName":        user.FirstName,
		"lastName":         user.LastName,
		"name":             user.Name,
		"email":            user.Email,
		"role":             user.Role,
		"bio":              user.Bio,
		"purchasedCourses": purchased,
		"token":            token,
		"loginAt":          time.Now(),
	})
}
