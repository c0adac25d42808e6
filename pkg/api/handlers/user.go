package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	apierrors "github.com/minsukang/codementor/pkg/api/errors"
	"github.com/minsukang/codementor/pkg/models"
	"github.com/minsukang/codementor/pkg/quota"
	"gorm.io/gorm"
)

// UserHandler handles user profile endpoints
type UserHandler struct {
	db        *gorm.DB
	ledger    *quota.Service
	validator *validator.Validate
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB, ledger *quota.Service) *UserHandler {
	return &UserHandler{
		db:        db,
		ledger:    ledger,
		validator: validator.New(),
	}
}

// Get returns the authenticated user's profile and usage
// GET /user
func (h *UserHandler) Get(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var user models.User
	if err := h.db.WithContext(c.Request().Context()).First(&user, "id = ?", userID).Error; err != nil {
		return apierrors.NotFoundError(c, "User")
	}

	return c.JSON(http.StatusOK, models.UserResponse{
		User: models.UserProfile{
			ID:              user.ID,
			Email:           user.Email,
			GitHubUsername:  user.GitHubUsername,
			AvatarURL:       user.AvatarURL,
			Plan:            user.Plan,
			DifficultyLevel: user.DifficultyLevel,
			CreatedAt:       user.CreatedAt.Format(time.RFC3339),
		},
		Usage: h.ledger.UsageInfo(c.Request().Context(), &user),
	})
}

// Update changes the user's review difficulty level
// PATCH /user
func (h *UserHandler) Update(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	result := h.db.WithContext(c.Request().Context()).Model(&models.User{}).
		Where("id = ?", userID).
		Update("difficulty_level", req.DifficultyLevel)
	if result.Error != nil {
		return apierrors.InternalError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return apierrors.NotFoundError(c, "User")
	}

	return c.JSON(http.StatusOK, models.UpdateUserResponse{
		User: models.UpdatedUser{
			ID:              userID,
			DifficultyLevel: req.DifficultyLevel,
		},
	})
}
