package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"school_transport/internal/middleware"
	"school_transport/internal/models"
	"school_transport/internal/repository"
)

type AuthController struct {
	db   *gorm.DB
	auth *middleware.Auth
}

func NewAuthController(db *gorm.DB, auth *middleware.Auth) *AuthController {
	return &AuthController{db: db, auth: auth}
}

type signupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Signup creates the first admin. Once any user exists it is closed and
// further accounts are created from /admin/users.
func (a *AuthController) Signup(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 1) Hash the password before touching the database.
	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	// 2) Signup stays open only while the users table is empty.
	var user models.User
	err = a.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return errSignupClosed
		}
		user = models.User{
			Name:     input.Name,
			Email:    strings.ToLower(input.Email),
			Password: hashedPassword,
			Role:     middleware.RoleAdmin,
		}
		return tx.Create(&user).Error
	})
	switch {
	case errors.Is(err, errSignupClosed):
		c.JSON(http.StatusForbidden, gin.H{"error": "signup is closed; ask an admin for an account"})
		return
	case repository.IsUniqueViolation(err):
		c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user: " + err.Error()})
		return
	}

	// 3) Log the new admin straight in.
	token, err := a.auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}
	logrus.WithField("user_id", user.ID).Info("bootstrap admin created")
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

func (a *AuthController) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 1) Find the user by email (stored lowercased).
	var user models.User
	if err := a.db.Where("email = ?", strings.ToLower(body.Email)).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or invalid credentials"})
		return
	}
	// 2) Same message for unknown email and wrong password.
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or invalid credentials"})
		return
	}

	token, err := a.auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// CreateUser adds a dashboard account. Admin only.
func (a *AuthController) CreateUser(c *gin.Context) {
	var input struct {
		signupInput
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role == "" {
		role = middleware.RoleCoordinator
	}
	if role != middleware.RoleAdmin && role != middleware.RoleCoordinator {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}
	user := models.User{Name: input.Name, Email: strings.ToLower(input.Email), Password: hashedPassword, Role: role}
	if err := a.db.Create(&user).Error; err != nil {
		storeError(c, "user", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (a *AuthController) ListUsers(c *gin.Context) {
	var users []models.User
	if err := a.db.Order("id").Find(&users).Error; err != nil {
		storeError(c, "users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
