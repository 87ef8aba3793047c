package service

import (
	"time"

	"feastly/membership-service/internal/biz"

	"github.com/shopspring/decimal"
)

// SubscribeRequest is the unified payment-form payload: raw card details
// plus terms acceptance. Card data is tokenized immediately and never
// stored.
type SubscribeRequest struct {
	CardNumber    string `json:"card_number"`
	ExpMonth      int    `json:"exp_month"`
	ExpYear       int    `json:"exp_year"`
	CVC           string `json:"cvv"`
	NameOnCard    string `json:"name_on_card"`
	TermsAccepted bool   `json:"terms_accepted"`
}

// PlanReply is the plan response shape.
type PlanReply struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	BillingCycle string          `json:"billing_cycle"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SubscriptionReply is the subscription response shape.
type SubscriptionReply struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	PlanID      string     `json:"plan_id"`
	Status      string     `json:"status"`
	StartDate   time.Time  `json:"start_date"`
	RenewalDate time.Time  `json:"renewal_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Plan        *PlanReply `json:"plan,omitempty"`
}

// SubscriptionListReply pages through a user's subscription history.
type SubscriptionListReply struct {
	Subscriptions []*SubscriptionReply `json:"subscriptions"`
	Total         int                  `json:"total"`
}

// PaymentReply is the payment response shape.
type PaymentReply struct {
	ID             string          `json:"id"`
	SubscriptionID string          `json:"subscription_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PaymentListReply pages through a user's payment ledger.
type PaymentListReply struct {
	Payments []*PaymentReply `json:"payments"`
	Total    int             `json:"total"`
}

// InvoiceReply is the derived invoice view for one payment.
type InvoiceReply struct {
	InvoiceID      string          `json:"invoice_id"`
	PaymentID      string          `json:"payment_id"`
	SubscriptionID string          `json:"subscription_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	InvoiceDate    time.Time       `json:"invoice_date"`
	PlanName       string          `json:"plan_name"`
	BillingPeriod  string          `json:"billing_period"`
}

func planReply(p *biz.MembershipPlan) *PlanReply {
	return &PlanReply{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Currency:     p.Currency,
		BillingCycle: string(p.BillingCycle),
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func subscriptionReply(s *biz.Subscription) *SubscriptionReply {
	return &SubscriptionReply{
		ID:          s.ID,
		UserID:      s.UserID,
		PlanID:      s.PlanID,
		Status:      string(s.Status),
		StartDate:   s.StartDate,
		RenewalDate: s.RenewalDate,
		EndDate:     s.EndDate,
	}
}

func paymentReply(p *biz.Payment) *PaymentReply {
	return &PaymentReply{
		ID:             p.ID,
		SubscriptionID: p.SubscriptionID,
		Amount:         p.Amount,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		CreatedAt:      p.CreatedAt,
	}
}

func invoiceReply(inv *biz.Invoice) *InvoiceReply {
	return &InvoiceReply{
		InvoiceID:      inv.InvoiceID,
		PaymentID:      inv.PaymentID,
		SubscriptionID: inv.SubscriptionID,
		Amount:         inv.Amount,
		Currency:       inv.Currency,
		Status:         string(inv.Status),
		TransactionID:  inv.TransactionID,
		InvoiceDate:    inv.InvoiceDate,
		PlanName:       inv.PlanName,
		BillingPeriod:  inv.BillingPeriod,
	}
}
