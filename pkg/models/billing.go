package models

import "time"

// Subscription statuses reported by the payment provider
const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusIncomplete = "incomplete"
)

// Subscription tracks a paid plan. One row per user, upserted on activation.
type Subscription struct {
	ID                   string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID               string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	StripeSubscriptionID string    `gorm:"index" json:"stripe_subscription_id"`
	StripeCustomerID     string    `json:"stripe_customer_id"`
	Plan                 string    `json:"plan"`
	Status               string    `json:"status"`
	CurrentPeriodStart   time.Time `json:"current_period_start"`
	CurrentPeriodEnd     time.Time `json:"current_period_end"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CheckoutRequest is the POST /checkout body
type CheckoutRequest struct {
	Plan       string `json:"plan" validate:"required,oneof=pro team"`
	SuccessURL string `json:"successUrl,omitempty"`
	CancelURL  string `json:"cancelUrl,omitempty"`
}

// CheckoutResponse carries the provider-hosted checkout URL
type CheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// QuotaExceededResponse is the 429 body for denied review admission
type QuotaExceededResponse struct {
	Error     string `json:"error"`
	Remaining int    `json:"remaining"`
	ResetAt   string `json:"resetAt"`
}

// WebhookAckResponse acknowledges a routed payment-provider event
type WebhookAckResponse struct {
	Received bool `json:"received"`
}
