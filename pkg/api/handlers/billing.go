package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	apierrors "github.com/minsukang/codementor/pkg/api/errors"
	"github.com/minsukang/codementor/pkg/billing"
	"github.com/minsukang/codementor/pkg/models"
	"gorm.io/gorm"
)

// BillingHandler handles checkout and payment webhook endpoints
type BillingHandler struct {
	db        *gorm.DB
	billing   *billing.Service
	validator *validator.Validate
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(db *gorm.DB, billingService *billing.Service) *BillingHandler {
	return &BillingHandler{
		db:        db,
		billing:   billingService,
		validator: validator.New(),
	}
}

// CreateCheckout starts a checkout session for a plan upgrade
// POST /checkout
func (h *BillingHandler) CreateCheckout(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var user models.User
	if err := h.db.WithContext(c.Request().Context()).First(&user, "id = ?", userID).Error; err != nil {
		return apierrors.NotFoundError(c, "User")
	}

	var req models.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	resp, err := h.billing.CreateCheckoutSession(c.Request().Context(), &user, req)
	if err != nil {
		if errors.Is(err, billing.ErrAlreadyOnPlan) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "already_subscribed",
				Message: "You are already subscribed to this plan.",
			})
		}
		return apierrors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// HandleWebhook receives payment provider events
// POST /webhooks/payments
func (h *BillingHandler) HandleWebhook(c echo.Context) error {
	signature := c.Request().Header.Get("Stripe-Signature")
	if signature == "" {
		return c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error:   "invalid_signature",
			Message: "Missing webhook signature.",
		})
	}

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apierrors.InternalError(c, err)
	}

	if err := h.billing.HandleWebhook(c.Request().Context(), payload, signature); err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			return c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "invalid_signature",
				Message: "Webhook signature verification failed.",
			})
		}
		return apierrors.InternalError(c, err)
	}

	return c.JSON(http.StatusAccepted, models.WebhookAckResponse{Received: true})
}
