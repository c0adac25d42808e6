// Package billing handles Stripe checkout and webhook-driven plan sync.
// The webhook handlers are idempotent: the payment provider retries
// deliveries, so applying the same event twice must land in the same state.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/minsukang/codementor/pkg/models"
	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidSignature marks a webhook whose signature did not verify.
// Handlers map it to 403 instead of 500.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// ErrAlreadyOnPlan marks a checkout attempt for a plan the user already has.
var ErrAlreadyOnPlan = errors.New("user is already subscribed to this plan")

// EmailSender abstracts email sending for billing notifications.
type EmailSender interface {
	SendPlanActivated(ctx context.Context, toEmail, plan string) error
	SendPlanCanceled(ctx context.Context, toEmail string) error
}

// MetricsRecorder abstracts business metrics for billing events.
type MetricsRecorder interface {
	RecordSubscriptionSold(plan string)
}

// Config holds Stripe configuration
type Config struct {
	SecretKey     string
	WebhookSecret string
	PricePro      string
	PriceTeam     string
	FrontendURL   string
}

// Service handles Stripe billing operations
type Service struct {
	db      *gorm.DB
	config  *Config
	email   EmailSender
	metrics MetricsRecorder
}

// NewService creates a new billing service
func NewService(db *gorm.DB, config *Config) *Service {
	// Set Stripe API key
	stripe.Key = config.SecretKey

	return &Service{db: db, config: config}
}

// SetEmailSender sets the email sender for billing notifications.
func (s *Service) SetEmailSender(e EmailSender) {
	s.email = e
}

// SetMetricsRecorder sets the metrics recorder for billing events.
func (s *Service) SetMetricsRecorder(m MetricsRecorder) {
	s.metrics = m
}

// CreateCheckoutSession creates a Stripe checkout session for a plan upgrade.
// The user and plan ride along in session metadata so the completion webhook
// can attribute the payment without any extra state on our side.
func (s *Service) CreateCheckoutSession(ctx context.Context, user *models.User, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if user.Plan == req.Plan {
		return nil, ErrAlreadyOnPlan
	}

	priceID, err := s.priceIDForPlan(req.Plan)
	if err != nil {
		return nil, err
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.config.FrontendURL + "/dashboard?upgraded=true"
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.config.FrontendURL + "/pricing"
	}

	params := &stripe.CheckoutSessionParams{
		CustomerEmail: stripe.String(user.Email),
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata: map[string]string{
			"user_id": user.ID,
			"plan":    req.Plan,
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &models.CheckoutResponse{CheckoutURL: sess.URL}, nil
}

// HandleWebhook verifies and routes a Stripe webhook event. Recognized but
// irrelevant events and unknown events are acknowledged without action;
// rejecting them would only make Stripe retry forever.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	log.Printf("📨 Stripe webhook received: %s", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	case "invoice.paid":
		return s.handleInvoicePaid(event)
	default:
		log.Printf("⚠️  Unhandled webhook event type: %s", event.Type)
	}

	return nil
}

// handleCheckoutCompleted activates the plan named in the session metadata.
// Malformed metadata is logged and acknowledged rather than retried: a
// payload that is wrong today will be just as wrong on the tenth delivery.
func (s *Service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("failed to unmarshal session: %w", err)
	}

	userID := sess.Metadata["user_id"]
	plan := sess.Metadata["plan"]
	if userID == "" || plan == "" {
		log.Printf("⚠️  Checkout session %s missing user_id or plan metadata, ignoring", sess.ID)
		return nil
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		log.Printf("⚠️  Checkout completed for unknown user %s, ignoring", userID)
		return nil
	}

	stripeSubID := ""
	if sess.Subscription != nil {
		stripeSubID = sess.Subscription.ID
	}
	stripeCustomerID := ""
	if sess.Customer != nil {
		stripeCustomerID = sess.Customer.ID
	}

	now := time.Now().UTC()
	sub := models.Subscription{
		ID:                   uuid.NewString(),
		UserID:               userID,
		StripeSubscriptionID: stripeSubID,
		StripeCustomerID:     stripeCustomerID,
		Plan:                 plan,
		Status:               models.SubscriptionStatusActive,
		CurrentPeriodStart:   now,
		CurrentPeriodEnd:     now.AddDate(0, 1, 0),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_subscription_id", "stripe_customer_id", "plan", "status",
			"current_period_start", "current_period_end", "updated_at",
		}),
	}).Create(&sub).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	// New plan starts with a fresh allowance.
	err = s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"plan":            plan,
			"review_count":    0,
			"review_reset_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update user plan: %w", err)
	}

	log.Printf("✅ Checkout completed: user_id=%s, plan=%s, subscription=%s", userID, plan, stripeSubID)

	if s.metrics != nil {
		s.metrics.RecordSubscriptionSold(plan)
	}

	if s.email != nil {
		if err := s.email.SendPlanActivated(ctx, user.Email, plan); err != nil {
			log.Printf("⚠️  Failed to send activation email to %s: %v", user.Email, err)
		}
	}

	return nil
}

// handleSubscriptionDeleted downgrades the user to the free plan. The current
// review count is deliberately left alone: cancellation does not hand out a
// fresh allowance mid-month.
func (s *Service) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	userID := stripeSub.Metadata["user_id"]

	var sub models.Subscription
	if userID != "" {
		// The metadata names the user directly; the downgrade happens even
		// if no subscription row was ever recorded for them.
		if err := s.db.WithContext(ctx).First(&sub, "user_id = ?", userID).Error; err != nil {
			log.Printf("⚠️  No subscription on record for user %s, downgrading anyway", userID)
		}
	} else {
		if err := s.db.WithContext(ctx).First(&sub, "stripe_subscription_id = ?", stripeSub.ID).Error; err != nil {
			log.Printf("⚠️  Subscription not found in DB: %s", stripeSub.ID)
			return nil
		}
		userID = sub.UserID
	}

	if sub.ID != "" {
		err := s.db.WithContext(ctx).Model(&models.Subscription{}).
			Where("id = ?", sub.ID).
			Update("status", models.SubscriptionStatusCanceled).Error
		if err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
	}

	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("plan", models.PlanFree).Error
	if err != nil {
		return fmt.Errorf("failed to downgrade user: %w", err)
	}

	log.Printf("❌ Subscription canceled: user_id=%s, subscription=%s", userID, stripeSub.ID)

	if s.email != nil {
		var user models.User
		if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err == nil {
			if err := s.email.SendPlanCanceled(ctx, user.Email); err != nil {
				log.Printf("⚠️  Failed to send cancellation email to %s: %v", user.Email, err)
			}
		}
	}

	return nil
}

// handleInvoicePaid acknowledges renewal payments. Quota resets on the
// calendar month, not the billing cycle, so nothing changes here.
func (s *Service) handleInvoicePaid(event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to unmarshal invoice: %w", err)
	}

	log.Printf("💰 Invoice paid: %s, amount=%d", invoice.ID, invoice.AmountPaid)
	return nil
}

// priceIDForPlan returns the Stripe price ID for a paid plan
func (s *Service) priceIDForPlan(plan string) (string, error) {
	switch plan {
	case models.PlanPro:
		return s.config.PricePro, nil
	case models.PlanTeam:
		return s.config.PriceTeam, nil
	default:
		return "", fmt.Errorf("invalid plan: %s", plan)
	}
}
