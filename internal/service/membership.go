package service

import (
	"context"
	"strconv"

	"feastly/membership-service/internal/auth"
	"feastly/membership-service/internal/biz"
	"feastly/membership-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewMembershipService)

// MembershipService is the HTTP-facing membership API.
type MembershipService struct {
	membership *biz.MembershipUsecase
	retry      *biz.RetryUsecase
	log        *log.Helper
}

// NewMembershipService creates the membership service.
func NewMembershipService(membership *biz.MembershipUsecase, retry *biz.RetryUsecase, logger log.Logger) *MembershipService {
	return &MembershipService{
		membership: membership,
		retry:      retry,
		log:        log.NewHelper(logger),
	}
}

// GetActivePlan serves the public plan lookup used by the payment form.
func (s *MembershipService) GetActivePlan(ctx http.Context) error {
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		plan, err := s.membership.GetActivePlan(c)
		if err != nil {
			return nil, err
		}
		return planReply(plan), nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

// Subscribe handles the unified payment form: validate, tokenize the card,
// then start the subscription.
func (s *MembershipService) Subscribe(ctx http.Context) error {
	var req SubscribeRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	h := ctx.Middleware(func(c context.Context, in interface{}) (interface{}, error) {
		return s.subscribe(c, in.(*SubscribeRequest))
	})
	out, err := h(ctx, &req)
	if err != nil {
		return err
	}
	return ctx.Result(201, out)
}

func (s *MembershipService) subscribe(ctx context.Context, req *SubscribeRequest) (*SubscriptionReply, error) {
	uid, ok := auth.GetUIDFromContext(ctx)
	if !ok {
		return nil, errors.Unauthorized()
	}
	if err := validateSubscribeRequest(req); err != nil {
		return nil, err
	}

	token, err := s.membership.Tokenize(ctx, biz.CardDetails{
		Number:     req.CardNumber,
		ExpMonth:   req.ExpMonth,
		ExpYear:    req.ExpYear,
		CVC:        req.CVC,
		NameOnCard: req.NameOnCard,
	})
	if err != nil {
		return nil, err
	}

	sub, err := s.membership.Start(ctx, uid, token)
	if err != nil {
		return nil, err
	}

	reply := subscriptionReply(sub)
	if plan, err := s.membership.GetPlanByID(ctx, sub.PlanID); err == nil {
		reply.Plan = planReply(plan)
	}
	return reply, nil
}

// CurrentSubscription returns the caller's most recent subscription.
func (s *MembershipService) CurrentSubscription(ctx http.Context) error {
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		uid, ok := auth.GetUIDFromContext(c)
		if !ok {
			return nil, errors.Unauthorized()
		}
		sub, err := s.membership.CurrentSubscription(c, uid)
		if err != nil {
			return nil, err
		}
		reply := subscriptionReply(sub)
		if plan, err := s.membership.GetPlanByID(c, sub.PlanID); err == nil {
			reply.Plan = planReply(plan)
		}
		return reply, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

// ListSubscriptions returns the caller's subscription history, newest first.
func (s *MembershipService) ListSubscriptions(ctx http.Context) error {
	page, pageSize := pageParams(ctx)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		uid, ok := auth.GetUIDFromContext(c)
		if !ok {
			return nil, errors.Unauthorized()
		}
		subs, total, err := s.membership.ListSubscriptions(c, uid, page, pageSize)
		if err != nil {
			return nil, err
		}
		reply := &SubscriptionListReply{
			Subscriptions: make([]*SubscriptionReply, len(subs)),
			Total:         total,
		}
		for i, sub := range subs {
			reply.Subscriptions[i] = subscriptionReply(sub)
		}
		return reply, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

// ListPayments returns the caller's payment ledger, newest first.
func (s *MembershipService) ListPayments(ctx http.Context) error {
	page, pageSize := pageParams(ctx)
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		uid, ok := auth.GetUIDFromContext(c)
		if !ok {
			return nil, errors.Unauthorized()
		}
		payments, total, err := s.membership.ListPayments(c, uid, page, pageSize)
		if err != nil {
			return nil, err
		}
		reply := &PaymentListReply{
			Payments: make([]*PaymentReply, len(payments)),
			Total:    total,
		}
		for i, p := range payments {
			reply.Payments[i] = paymentReply(p)
		}
		return reply, nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

// GetInvoice returns the derived invoice for one of the caller's payments.
func (s *MembershipService) GetInvoice(ctx http.Context) error {
	paymentID := ctx.Vars().Get("id")
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		uid, ok := auth.GetUIDFromContext(c)
		if !ok {
			return nil, errors.Unauthorized()
		}
		inv, err := s.membership.GetInvoice(c, uid, paymentID)
		if err != nil {
			return nil, err
		}
		return invoiceReply(inv), nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

// RetryPayment retries one of the caller's failed payments.
func (s *MembershipService) RetryPayment(ctx http.Context) error {
	paymentID := ctx.Vars().Get("id")
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		uid, ok := auth.GetUIDFromContext(c)
		if !ok {
			return nil, errors.Unauthorized()
		}
		payment, err := s.retry.RetryPayment(c, uid, paymentID)
		if err != nil {
			return nil, err
		}
		return paymentReply(payment), nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

// Cancel cancels the caller's active subscription.
func (s *MembershipService) Cancel(ctx http.Context) error {
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		uid, ok := auth.GetUIDFromContext(c)
		if !ok {
			return nil, errors.Unauthorized()
		}
		sub, err := s.membership.Cancel(c, uid)
		if err != nil {
			return nil, err
		}
		return subscriptionReply(sub), nil
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func pageParams(ctx http.Context) (int, int) {
	query := ctx.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	return page, pageSize
}
