package biz

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus is the subscription lifecycle state. Transitions:
// ACTIVE -> ACTIVE (renewal success), ACTIVE -> EXPIRED (renewal failure),
// ACTIVE -> CANCELLED (user cancel, terminal), EXPIRED -> ACTIVE (successful
// payment retry).
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// PaymentStatus is the state of a single billing attempt.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Subscription is one user's membership term. Never hard-deleted; end_date
// is set exactly when the status leaves active.
type Subscription struct {
	ID           string
	UserID       string
	PlanID       string
	Status       SubscriptionStatus
	StartDate    time.Time
	RenewalDate  time.Time
	EndDate      *time.Time
	PaymentToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Payment is one row of the per-subscription billing ledger: one row per
// attempt (initial charge, each renewal, each retry). The ledger is
// append-only except that retrying a failed payment updates that same row.
type Payment struct {
	ID             string
	SubscriptionID string
	Amount         decimal.Decimal
	Status         PaymentStatus
	TransactionID  string
	CreatedAt      time.Time
}

// User is the external identity this service touches only for its
// entitlement flag.
type User struct {
	ID       string
	Entitled bool
}

// Invoice is a derived view over a payment, its subscription and plan.
type Invoice struct {
	InvoiceID      string
	PaymentID      string
	SubscriptionID string
	Amount         decimal.Decimal
	Currency       string
	Status         PaymentStatus
	TransactionID  string
	InvoiceDate    time.Time
	PlanName       string
	BillingPeriod  string
}

// SubscriptionRepo is the subscription data access interface.
type SubscriptionRepo interface {
	CreateSubscription(ctx context.Context, sub *Subscription) error
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	// GetActiveSubscription returns the user's most recent active
	// subscription, or nil when there is none.
	GetActiveSubscription(ctx context.Context, userID string) (*Subscription, error)
	// GetLatestSubscription returns the user's most recent subscription in
	// any state, or nil.
	GetLatestSubscription(ctx context.Context, userID string) (*Subscription, error)
	ListSubscriptions(ctx context.Context, userID string, page, pageSize int) ([]*Subscription, int, error)
	SaveSubscription(ctx context.Context, sub *Subscription) error
	// ListDueSubscriptions returns active subscriptions whose renewal date
	// is at or before now.
	ListDueSubscriptions(ctx context.Context, now time.Time) ([]*Subscription, error)
	// ExpireStaleSubscriptions closes active subscriptions that hold no
	// payment token and whose renewal date passed before cutoff. Returns the
	// subscriptions it closed.
	ExpireStaleSubscriptions(ctx context.Context, cutoff time.Time) ([]*Subscription, error)
}

// PaymentRepo is the payment ledger data access interface.
type PaymentRepo interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
	SavePayment(ctx context.Context, p *Payment) error
	// ListUserPayments returns payments across all of the user's
	// subscriptions, newest first.
	ListUserPayments(ctx context.Context, userID string, page, pageSize int) ([]*Payment, int, error)
}

// UserRepo is the identity-store access this service needs: existence checks
// and the entitlement flag.
type UserRepo interface {
	GetUser(ctx context.Context, id string) (*User, error)
	SetEntitled(ctx context.Context, userID string, entitled bool) error
}

// CardDetails is raw card input. It exists only between request validation
// and tokenization; it is never persisted or logged.
type CardDetails struct {
	Number     string
	ExpMonth   int
	ExpYear    int
	CVC        string
	NameOnCard string
}

// ChargeResult is the gateway's answer to a charge call.
type ChargeResult struct {
	TransactionID string
	Completed     bool
}

// Gateway is the card tokenization/charge collaborator. Charge must be
// treated as at-least-once: a charge may land even when the response is
// lost, so callers charge first and record durably afterwards.
type Gateway interface {
	Tokenize(ctx context.Context, card CardDetails) (string, error)
	Charge(ctx context.Context, amount decimal.Decimal, currency, token string) (*ChargeResult, error)
}

// Transaction runs fn inside one storage transaction.
type Transaction interface {
	Exec(ctx context.Context, fn func(ctx context.Context) error) error
}

// ClaimSource hands out short-lived exclusive claims, used to fence each
// due subscription before its renewal charge so overlapping sweeps cannot
// double-charge. Acquire returns a release func, or an error when the claim
// is already held.
type ClaimSource interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
