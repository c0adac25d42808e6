// Package handlers contains the HTTP handlers for the API.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/minsukang/codementor/pkg/apperr"
	apierrors "github.com/minsukang/codementor/pkg/api/errors"
	"github.com/minsukang/codementor/pkg/metrics"
	"github.com/minsukang/codementor/pkg/models"
	"github.com/minsukang/codementor/pkg/review"
	"gorm.io/gorm"
)

// ReviewHandler handles review endpoints
type ReviewHandler struct {
	db      *gorm.DB
	reviews *review.Service
	metrics *metrics.Metrics
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(db *gorm.DB, reviews *review.Service, m *metrics.Metrics) *ReviewHandler {
	return &ReviewHandler{
		db:      db,
		reviews: reviews,
		metrics: m,
	}
}

// Create generates a code review
// POST /reviews
func (h *ReviewHandler) Create(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var user models.User
	if err := h.db.WithContext(c.Request().Context()).First(&user, "id = ?", userID).Error; err != nil {
		return apierrors.NotFoundError(c, "User")
	}

	var req models.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	resp, err := h.reviews.Generate(c.Request().Context(), &user, req)
	if err != nil {
		var quotaErr *review.QuotaExceededError
		if errors.As(err, &quotaErr) {
			if h.metrics != nil {
				h.metrics.RecordQuotaDenial()
			}
			return c.JSON(http.StatusTooManyRequests, models.QuotaExceededResponse{
				Error:     "Review limit reached",
				Remaining: 0,
				ResetAt:   quotaErr.ResetAt.Format(time.RFC3339),
			})
		}

		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Code == "AI_ERROR" && h.metrics != nil {
			h.metrics.RecordAIFailure(string(appErr.Kind))
		}
		return apierrors.AppError(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordReviewGenerated()
	}
	return c.JSON(http.StatusOK, resp)
}

// List returns the authenticated user's review history
// GET /reviews
func (h *ReviewHandler) List(c echo.Context) error {
	userID := c.Get("user_id").(string)

	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	items, err := h.reviews.History(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return apierrors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, models.ReviewListResponse{Reviews: items})
}
