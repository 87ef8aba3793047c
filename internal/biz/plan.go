package biz

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BillingCycle is the recurring period after which a subscription renews.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

// Valid reports whether the cycle is a known value.
func (c BillingCycle) Valid() bool {
	return c == BillingCycleMonthly || c == BillingCycleYearly
}

// NextRenewal returns the renewal date one cycle after from. Each cycle value
// has its own explicit length; unknown values fall back to monthly.
func (c BillingCycle) NextRenewal(from time.Time) time.Time {
	switch c {
	case BillingCycleYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// MembershipPlan is the purchasable membership offer. Read-only to this
// service; an administrative process elsewhere maintains the catalog.
type MembershipPlan struct {
	ID           string
	Name         string
	Description  string
	Price        decimal.Decimal
	Currency     string
	BillingCycle BillingCycle
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlanRepo is the catalog data access interface.
type PlanRepo interface {
	// ListActivePlans returns every plan currently flagged active. The
	// catalog invariant (at most one) is enforced by the caller, not here.
	ListActivePlans(ctx context.Context) ([]*MembershipPlan, error)
	GetPlan(ctx context.Context, id string) (*MembershipPlan, error)
}
