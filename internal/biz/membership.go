package biz

import (
	"context"
	"time"

	"feastly/membership-service/internal/constants"
	"feastly/membership-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// MembershipUsecase owns the plan catalog and the subscription lifecycle:
// starting and cancelling subscriptions and the read side (current
// subscription, history, ledger, invoices).
type MembershipUsecase struct {
	planRepo PlanRepo
	subRepo  SubscriptionRepo
	payRepo  PaymentRepo
	userRepo UserRepo
	gateway  Gateway
	tx       Transaction
	log      *log.Helper
}

// NewMembershipUsecase creates the membership usecase.
func NewMembershipUsecase(
	planRepo PlanRepo,
	subRepo SubscriptionRepo,
	payRepo PaymentRepo,
	userRepo UserRepo,
	gateway Gateway,
	tx Transaction,
	logger log.Logger,
) *MembershipUsecase {
	return &MembershipUsecase{
		planRepo: planRepo,
		subRepo:  subRepo,
		payRepo:  payRepo,
		userRepo: userRepo,
		gateway:  gateway,
		tx:       tx,
		log:      log.NewHelper(logger),
	}
}

// GetActivePlan returns the single currently-active membership plan. The
// "at most one active plan" invariant is checked here rather than assumed
// from the store.
func (uc *MembershipUsecase) GetActivePlan(ctx context.Context) (*MembershipPlan, error) {
	plans, err := uc.planRepo.ListActivePlans(ctx)
	if err != nil {
		uc.log.Errorf("Failed to list active plans: %v", err)
		return nil, err
	}
	switch len(plans) {
	case 0:
		return nil, errors.NoActivePlan()
	case 1:
		plan := plans[0]
		if !plan.BillingCycle.Valid() {
			uc.log.Errorf("Active plan %s has unknown billing cycle %q", plan.ID, plan.BillingCycle)
			return nil, errors.PlanConflict()
		}
		return plan, nil
	default:
		uc.log.Errorf("Plan catalog invariant violated: %d plans marked active", len(plans))
		return nil, errors.PlanConflict()
	}
}

// GetPlanByID returns one plan, active or not, for joining plan details
// onto subscription views.
func (uc *MembershipUsecase) GetPlanByID(ctx context.Context, id string) (*MembershipPlan, error) {
	plan, err := uc.planRepo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, errors.PlanNotFound(id)
	}
	return plan, nil
}

// Tokenize exchanges raw card input for an opaque gateway token. Card data
// is never persisted; only the token survives the call.
func (uc *MembershipUsecase) Tokenize(ctx context.Context, card CardDetails) (string, error) {
	token, err := uc.gateway.Tokenize(ctx, card)
	if err != nil {
		uc.log.Warnf("Card tokenization failed: %v", err)
		return "", err
	}
	return token, nil
}

// Start begins a subscription for the user: load the active plan, verify the
// user, charge the plan price against the token, and only then persist the
// subscription, its first payment and the entitlement flag as one unit.
// No subscription row ever exists without a completed payment beside it.
func (uc *MembershipUsecase) Start(ctx context.Context, userID, paymentToken string) (*Subscription, error) {
	plan, err := uc.GetActivePlan(ctx)
	if err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.UserNotFound(userID)
	}

	if existing, err := uc.subRepo.GetActiveSubscription(ctx, userID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.AlreadySubscribed()
	}

	res, err := uc.gateway.Charge(ctx, plan.Price, plan.Currency, paymentToken)
	if err != nil {
		uc.log.Warnf("Initial charge errored for user %s: %v", userID, err)
		return nil, errors.ChargeFailed(err.Error())
	}
	if !res.Completed {
		uc.log.Infof("Initial charge declined for user %s (txn=%s)", userID, res.TransactionID)
		return nil, errors.ChargeFailed("charge was not completed")
	}

	now := time.Now().UTC()
	sub := &Subscription{
		ID:           uuid.New().String(),
		UserID:       userID,
		PlanID:       plan.ID,
		Status:       SubscriptionStatusActive,
		StartDate:    now,
		RenewalDate:  plan.BillingCycle.NextRenewal(now),
		PaymentToken: paymentToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	payment := &Payment{
		ID:             uuid.New().String(),
		SubscriptionID: sub.ID,
		Amount:         plan.Price,
		Status:         PaymentStatusCompleted,
		TransactionID:  res.TransactionID,
		CreatedAt:      now,
	}

	err = uc.tx.Exec(ctx, func(ctx context.Context) error {
		if err := uc.subRepo.CreateSubscription(ctx, sub); err != nil {
			return err
		}
		if err := uc.payRepo.CreatePayment(ctx, payment); err != nil {
			return err
		}
		return uc.userRepo.SetEntitled(ctx, userID, true)
	})
	if err != nil {
		// The charge already landed at the gateway; keep the transaction id
		// in the log so support can reconcile.
		uc.log.Errorf("Charged user %s (txn=%s) but failed to persist subscription: %v", userID, res.TransactionID, err)
		return nil, err
	}

	uc.log.Infof("Subscription %s started for user %s, renews %s", sub.ID, userID, sub.RenewalDate.Format(time.RFC3339))
	return sub, nil
}

// Cancel ends the user's active subscription. No gateway call and no refund:
// the term simply closes and the entitlement drops.
func (uc *MembershipUsecase) Cancel(ctx context.Context, userID string) (*Subscription, error) {
	sub, err := uc.subRepo.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errors.SubscriptionNotFound()
	}

	now := time.Now().UTC()
	sub.Status = SubscriptionStatusCancelled
	sub.EndDate = &now
	sub.UpdatedAt = now

	err = uc.tx.Exec(ctx, func(ctx context.Context) error {
		if err := uc.subRepo.SaveSubscription(ctx, sub); err != nil {
			return err
		}
		return uc.userRepo.SetEntitled(ctx, userID, false)
	})
	if err != nil {
		uc.log.Errorf("Failed to cancel subscription %s: %v", sub.ID, err)
		return nil, err
	}

	uc.log.Infof("Subscription %s cancelled for user %s", sub.ID, userID)
	return sub, nil
}

// CurrentSubscription returns the user's most recent subscription, or a
// not-found error when the user never subscribed.
func (uc *MembershipUsecase) CurrentSubscription(ctx context.Context, userID string) (*Subscription, error) {
	sub, err := uc.subRepo.GetLatestSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, errors.SubscriptionNotFound()
	}
	return sub, nil
}

// ListSubscriptions returns the user's subscription history, newest first.
func (uc *MembershipUsecase) ListSubscriptions(ctx context.Context, userID string, page, pageSize int) ([]*Subscription, int, error) {
	page, pageSize = clampPage(page, pageSize)
	return uc.subRepo.ListSubscriptions(ctx, userID, page, pageSize)
}

// ListPayments returns the user's payment ledger across all of their
// subscriptions, newest first.
func (uc *MembershipUsecase) ListPayments(ctx context.Context, userID string, page, pageSize int) ([]*Payment, int, error) {
	page, pageSize = clampPage(page, pageSize)
	return uc.payRepo.ListUserPayments(ctx, userID, page, pageSize)
}

// GetInvoice builds the invoice view for one of the user's payments.
func (uc *MembershipUsecase) GetInvoice(ctx context.Context, userID, paymentID string) (*Invoice, error) {
	payment, err := uc.payRepo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errors.PaymentNotFound()
	}

	sub, err := uc.subRepo.GetSubscription(ctx, payment.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.UserID != userID {
		return nil, errors.PaymentNotFound()
	}

	plan, err := uc.planRepo.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, errors.PlanNotFound(sub.PlanID)
	}

	return &Invoice{
		InvoiceID:      constants.InvoicePrefix + shortID(payment.ID),
		PaymentID:      payment.ID,
		SubscriptionID: sub.ID,
		Amount:         payment.Amount,
		Currency:       plan.Currency,
		Status:         payment.Status,
		TransactionID:  payment.TransactionID,
		InvoiceDate:    payment.CreatedAt,
		PlanName:       plan.Name,
		BillingPeriod:  payment.CreatedAt.Format("January 2006"),
	}, nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > constants.MaxPageSize {
		pageSize = constants.DefaultPageSize
	}
	return page, pageSize
}

func shortID(id string) string {
	trimmed := make([]rune, 0, 8)
	for _, r := range id {
		if r == '-' {
			continue
		}
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		trimmed = append(trimmed, r)
		if len(trimmed) == 8 {
			break
		}
	}
	return string(trimmed)
}
