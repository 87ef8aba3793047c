package biz

import (
	"context"
	"time"

	"feastly/membership-service/internal/conf"
	"feastly/membership-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// RetryUsecase re-runs a failed billing attempt at the user's request,
// reactivating the owning subscription when the charge finally lands.
type RetryUsecase struct {
	planRepo PlanRepo
	subRepo  SubscriptionRepo
	payRepo  PaymentRepo
	userRepo UserRepo
	gateway  Gateway
	tx       Transaction

	chargeTimeout time.Duration

	log *log.Helper
}

// NewRetryUsecase creates the payment retry usecase.
func NewRetryUsecase(
	planRepo PlanRepo,
	subRepo SubscriptionRepo,
	payRepo PaymentRepo,
	userRepo UserRepo,
	gateway Gateway,
	tx Transaction,
	c *conf.Bootstrap,
	logger log.Logger,
) *RetryUsecase {
	return &RetryUsecase{
		planRepo:      planRepo,
		subRepo:       subRepo,
		payRepo:       payRepo,
		userRepo:      userRepo,
		gateway:       gateway,
		tx:            tx,
		chargeTimeout: c.Gateway.ChargeTimeoutDuration(),
		log:           log.NewHelper(logger),
	}
}

// RetryPayment charges the amount of an earlier failed attempt against the
// owning subscription's stored token. On success the same payment row flips
// to completed (the one exception to the append-only ledger: a retry re-runs
// the same attempt rather than adding a new one) and an expired subscription
// comes back to life with a fresh renewal date.
func (uc *RetryUsecase) RetryPayment(ctx context.Context, userID, paymentID string) (*Payment, error) {
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
	if sub == nil {
		return nil, errors.PaymentNotFound()
	}
	if sub.UserID != userID {
		return nil, errors.NotPaymentOwner()
	}
	if payment.Status != PaymentStatusFailed {
		return nil, errors.PaymentNotRetryable()
	}
	if sub.PaymentToken == "" {
		return nil, errors.MissingPaymentToken()
	}

	plan, err := uc.planRepo.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, errors.PlanNotFound(sub.PlanID)
	}

	chargeCtx, cancel := context.WithTimeout(ctx, uc.chargeTimeout)
	defer cancel()
	res, chargeErr := uc.gateway.Charge(chargeCtx, payment.Amount, plan.Currency, sub.PaymentToken)

	now := time.Now().UTC()
	if chargeErr != nil || res == nil || !res.Completed {
		// Record the gateway's transaction id when it produced one, but the
		// attempt stays failed.
		if res != nil && res.TransactionID != "" {
			payment.TransactionID = res.TransactionID
			if err := uc.payRepo.SavePayment(ctx, payment); err != nil {
				uc.log.Errorf("Payment %s: failed to record retry transaction id: %v", payment.ID, err)
			}
		}
		uc.log.Infof("Payment %s retry failed for user %s: %v", payment.ID, userID, chargeErr)
		return payment, nil
	}

	payment.Status = PaymentStatusCompleted
	payment.TransactionID = res.TransactionID

	err = uc.tx.Exec(ctx, func(ctx context.Context) error {
		if err := uc.payRepo.SavePayment(ctx, payment); err != nil {
			return err
		}
		if sub.Status != SubscriptionStatusExpired {
			return nil
		}
		sub.Status = SubscriptionStatusActive
		sub.RenewalDate = plan.BillingCycle.NextRenewal(now)
		sub.EndDate = nil
		sub.UpdatedAt = now
		if err := uc.subRepo.SaveSubscription(ctx, sub); err != nil {
			return err
		}
		return uc.userRepo.SetEntitled(ctx, userID, true)
	})
	if err != nil {
		uc.log.Errorf("Payment %s: charged (txn=%s) but retry outcome not recorded: %v", payment.ID, res.TransactionID, err)
		return nil, err
	}

	uc.log.Infof("Payment %s retried successfully for user %s", payment.ID, userID)
	return payment, nil
}
