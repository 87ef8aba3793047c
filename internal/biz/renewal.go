package biz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"feastly/membership-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RenewalReport is the aggregate outcome of one renewal sweep.
type RenewalReport struct {
	Due     int
	Renewed int
	Expired int
	Skipped int
}

type renewalOutcome int

const (
	outcomeRenewed renewalOutcome = iota
	outcomeExpired
	outcomeSkipped
)

// RenewalUsecase advances or expires due subscriptions in a periodic batch.
// Each subscription is processed independently: claimed, charged, then its
// outcome committed in its own transaction, so one bad subscription never
// stalls the rest of the sweep.
type RenewalUsecase struct {
	planRepo PlanRepo
	subRepo  SubscriptionRepo
	payRepo  PaymentRepo
	userRepo UserRepo
	gateway  Gateway
	tx       Transaction
	claims   ClaimSource

	chargeTimeout time.Duration
	claimTTL      time.Duration
	workers       int
	gracePeriod   time.Duration

	log *log.Helper
}

// NewRenewalUsecase creates the renewal processor.
func NewRenewalUsecase(
	planRepo PlanRepo,
	subRepo SubscriptionRepo,
	payRepo PaymentRepo,
	userRepo UserRepo,
	gateway Gateway,
	tx Transaction,
	claims ClaimSource,
	c *conf.Bootstrap,
	logger log.Logger,
) *RenewalUsecase {
	return &RenewalUsecase{
		planRepo:      planRepo,
		subRepo:       subRepo,
		payRepo:       payRepo,
		userRepo:      userRepo,
		gateway:       gateway,
		tx:            tx,
		claims:        claims,
		chargeTimeout: c.Gateway.ChargeTimeoutDuration(),
		claimTTL:      c.Renewal.ClaimTTLDuration(),
		workers:       c.Renewal.Workers(),
		gracePeriod:   c.Renewal.GracePeriod(),
		log:           log.NewHelper(logger),
	}
}

// ProcessDueRenewals runs one renewal sweep over every active subscription
// whose renewal date has passed. Per-subscription failures are converted to
// the expired outcome and logged; only the aggregate counts come back.
func (uc *RenewalUsecase) ProcessDueRenewals(ctx context.Context) (*RenewalReport, error) {
	now := time.Now().UTC()
	due, err := uc.subRepo.ListDueSubscriptions(ctx, now)
	if err != nil {
		uc.log.Errorf("Failed to list due subscriptions: %v", err)
		return nil, err
	}

	report := &RenewalReport{Due: len(due)}
	if len(due) == 0 {
		uc.log.Info("Renewal sweep: nothing due")
		return report, nil
	}
	uc.log.Infof("Renewal sweep: %d subscriptions due", len(due))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for _, sub := range due {
		sub := sub
		g.Go(func() error {
			outcome := uc.renewOne(gctx, sub)
			mu.Lock()
			switch outcome {
			case outcomeRenewed:
				report.Renewed++
			case outcomeExpired:
				report.Expired++
			default:
				report.Skipped++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	uc.log.Infof("Renewal sweep completed: due=%d renewed=%d expired=%d skipped=%d",
		report.Due, report.Renewed, report.Expired, report.Skipped)
	return report, nil
}

// renewOne handles a single due subscription: claim it, re-read it under the
// claim, charge the plan's current price, then durably record the outcome.
// The charge always happens before any write so a crash mid-unit can never
// leave a recorded renewal without its charge.
func (uc *RenewalUsecase) renewOne(ctx context.Context, sub *Subscription) renewalOutcome {
	release, err := uc.claims.Acquire(ctx, renewalClaimKey(sub), uc.claimTTL)
	if err != nil {
		uc.log.Infof("Subscription %s: renewal claim held elsewhere, skipping", sub.ID)
		return outcomeSkipped
	}
	defer release()

	// Re-read under the claim: another sweep may have finished this
	// subscription between the listing and the claim.
	cur, err := uc.subRepo.GetSubscription(ctx, sub.ID)
	if err != nil {
		uc.log.Errorf("Subscription %s: re-read failed before charge, skipping: %v", sub.ID, err)
		return outcomeSkipped
	}
	now := time.Now().UTC()
	if cur == nil || cur.Status != SubscriptionStatusActive || cur.RenewalDate.After(now) {
		uc.log.Infof("Subscription %s: no longer due, skipping", sub.ID)
		return outcomeSkipped
	}

	// Price at the moment of this attempt, never the price at signup.
	plan, err := uc.planRepo.GetPlan(ctx, cur.PlanID)
	if err != nil || plan == nil {
		uc.log.Errorf("Subscription %s: plan %s unavailable, skipping: %v", cur.ID, cur.PlanID, err)
		return outcomeSkipped
	}

	res, chargeErr := uc.safeCharge(ctx, plan, cur)
	if chargeErr == nil && res != nil && res.Completed {
		if err := uc.commitRenewal(ctx, cur, plan, res.TransactionID); err != nil {
			uc.log.Errorf("Subscription %s: charged (txn=%s) but renewal not recorded: %v", cur.ID, res.TransactionID, err)
			return outcomeSkipped
		}
		uc.log.Infof("Subscription %s renewed, next renewal %s", cur.ID, plan.BillingCycle.NextRenewal(now).Format(time.RFC3339))
		return outcomeRenewed
	}

	txnID := ""
	if res != nil {
		txnID = res.TransactionID
	}
	uc.log.Warnf("Subscription %s: renewal charge failed (txn=%q): %v", cur.ID, txnID, chargeErr)
	if err := uc.commitExpiry(ctx, cur, plan, txnID); err != nil {
		uc.log.Errorf("Subscription %s: failed to record expiry: %v", cur.ID, err)
		return outcomeSkipped
	}
	return outcomeExpired
}

// safeCharge issues the renewal charge with a hard timeout and converts a
// panicking gateway into an ordinary failed charge. The charge context is
// detached from the sweep context so shutdown lets in-flight charges finish
// instead of aborting them into an untracked gateway-side state.
func (uc *RenewalUsecase) safeCharge(ctx context.Context, plan *MembershipPlan, sub *Subscription) (res *ChargeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("gateway panic: %v", r)
		}
	}()
	chargeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.chargeTimeout)
	defer cancel()
	return uc.gateway.Charge(chargeCtx, plan.Price, plan.Currency, sub.PaymentToken)
}

func (uc *RenewalUsecase) commitRenewal(ctx context.Context, sub *Subscription, plan *MembershipPlan, txnID string) error {
	now := time.Now().UTC()
	sub.RenewalDate = plan.BillingCycle.NextRenewal(now)
	sub.UpdatedAt = now
	payment := &Payment{
		ID:             uuid.New().String(),
		SubscriptionID: sub.ID,
		Amount:         plan.Price,
		Status:         PaymentStatusCompleted,
		TransactionID:  txnID,
		CreatedAt:      now,
	}
	return uc.tx.Exec(ctx, func(ctx context.Context) error {
		if err := uc.subRepo.SaveSubscription(ctx, sub); err != nil {
			return err
		}
		return uc.payRepo.CreatePayment(ctx, payment)
	})
}

func (uc *RenewalUsecase) commitExpiry(ctx context.Context, sub *Subscription, plan *MembershipPlan, txnID string) error {
	now := time.Now().UTC()
	sub.Status = SubscriptionStatusExpired
	sub.EndDate = &now
	sub.UpdatedAt = now
	payment := &Payment{
		ID:             uuid.New().String(),
		SubscriptionID: sub.ID,
		Amount:         plan.Price,
		Status:         PaymentStatusFailed,
		TransactionID:  txnID,
		CreatedAt:      now,
	}
	return uc.tx.Exec(ctx, func(ctx context.Context) error {
		if err := uc.subRepo.SaveSubscription(ctx, sub); err != nil {
			return err
		}
		if err := uc.payRepo.CreatePayment(ctx, payment); err != nil {
			return err
		}
		return uc.userRepo.SetEntitled(ctx, sub.UserID, false)
	})
}

// ExpireStale closes active subscriptions that can never renew because they
// hold no payment token and their renewal date passed more than the grace
// period ago, dropping each owner's entitlement.
func (uc *RenewalUsecase) ExpireStale(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-uc.gracePeriod)
	var closed []*Subscription
	err := uc.tx.Exec(ctx, func(ctx context.Context) error {
		subs, err := uc.subRepo.ExpireStaleSubscriptions(ctx, cutoff)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if err := uc.userRepo.SetEntitled(ctx, sub.UserID, false); err != nil {
				return err
			}
		}
		closed = subs
		return nil
	})
	if err != nil {
		uc.log.Errorf("Expiry audit failed: %v", err)
		return 0, err
	}
	for _, sub := range closed {
		uc.log.Infof("Expiry audit: closed token-less subscription %s (user %s)", sub.ID, sub.UserID)
	}
	return len(closed), nil
}

// renewalClaimKey fences one renewal attempt: the renewal date is part of
// the key so a claim from a previous cycle can never block the next one.
func renewalClaimKey(sub *Subscription) string {
	return fmt.Sprintf("renewal_claim:sub:%s:%d", sub.ID, sub.RenewalDate.Unix())
}
