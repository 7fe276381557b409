// handlers/auth.go - registration and login
package handlers

import (
	"errors"
	"strings"
	"time"

	"gamify/middleware"
	"gamify/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type AuthResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token,omitempty"`
	User    *UserInfo `json:"user,omitempty"`
	Error   string    `json:"error,omitempty"`
}

type UserInfo struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

// Register creates a new user account
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Error: "Invalid request body"})
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(AuthResponse{Error: "Username and password required"})
	}

	if len(req.Password) < 6 {
		return c.Status(400).JSON(AuthResponse{Error: "Password must be at least 6 characters"})
	}

	// Check if username already exists
	var existing int64
	if err := db.Model(&models.User{}).Where("username = ?", req.Username).Count(&existing).Error; err != nil {
		return c.Status(500).JSON(AuthResponse{Error: "Database not available"})
	}
	if existing > 0 {
		return c.Status(400).JSON(AuthResponse{Error: "Username already taken"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Error: "Failed to hash password"})
	}

	user := models.User{
		Username:    req.Username,
		Password:    string(hashedPassword),
		DisplayName: req.DisplayName,
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		user.Email = &email
	}

	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(400).JSON(AuthResponse{Error: "Username or email already taken"})
		}
		return c.Status(500).JSON(AuthResponse{Error: "Failed to create account"})
	}

	return respondWithToken(c, fiber.StatusCreated, user)
}

// Login authenticates a registered user
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Error: "Invalid request body"})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(AuthResponse{Error: "Username and password required"})
	}

	var user models.User
	if err := db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return c.Status(401).JSON(AuthResponse{Error: "Invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(401).JSON(AuthResponse{Error: "Invalid credentials"})
	}

	db.Model(&user).Update("last_login", time.Now())

	return respondWithToken(c, fiber.StatusOK, user)
}

// EnsureAdminUser creates the admin account if no user with that name
// exists yet. An existing user is promoted but keeps its password.
func EnsureAdminUser(conn *gorm.DB, username, password string) error {
	var user models.User
	err := conn.Where("username = ?", username).First(&user).Error
	if err == nil {
		if user.IsAdmin {
			return nil
		}
		return conn.Model(&user).Update("is_admin", true).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return conn.Create(&models.User{
		Username:    username,
		Password:    string(hashedPassword),
		DisplayName: username,
		IsAdmin:     true,
	}).Error
}

func respondWithToken(c *fiber.Ctx, status int, user models.User) error {
	token, err := middleware.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Error: "Failed to generate token"})
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}

	return c.Status(status).JSON(AuthResponse{
		Success: true,
		Token:   token,
		User: &UserInfo{
			ID:          user.ID,
			Username:    user.Username,
			Email:       email,
			DisplayName: user.DisplayName,
			IsAdmin:     user.IsAdmin,
			CreatedAt:   user.CreatedAt,
		},
	})
}
