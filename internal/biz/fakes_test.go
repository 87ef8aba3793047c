package biz

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// In-memory collaborators for usecase tests. They keep copies of everything
// they are handed so in-place mutations by the code under test never leak
// into the store until an explicit save.

type fakePlanRepo struct {
	mu      sync.Mutex
	plans   map[string]*MembershipPlan
	listErr error
	getErr  error
}

func newFakePlanRepo(plans ...*MembershipPlan) *fakePlanRepo {
	r := &fakePlanRepo{plans: make(map[string]*MembershipPlan)}
	for _, p := range plans {
		r.plans[p.ID] = clonePlan(p)
	}
	return r
}

func (r *fakePlanRepo) ListActivePlans(ctx context.Context) ([]*MembershipPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*MembershipPlan
	for _, p := range r.plans {
		if p.IsActive {
			out = append(out, clonePlan(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePlanRepo) GetPlan(ctx context.Context, id string) (*MembershipPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	p, ok := r.plans[id]
	if !ok {
		return nil, nil
	}
	return clonePlan(p), nil
}

func (r *fakePlanRepo) put(p *MembershipPlan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[p.ID] = clonePlan(p)
}

type fakeSubRepo struct {
	mu         sync.Mutex
	subs        map[string]*Subscription
	saveErrFor  map[string]error
	dueOverride []*Subscription
}

func newFakeSubRepo(subs ...*Subscription) *fakeSubRepo {
	r := &fakeSubRepo{
		subs:       make(map[string]*Subscription),
		saveErrFor: make(map[string]error),
	}
	for _, s := range subs {
		r.subs[s.ID] = cloneSub(s)
	}
	return r
}

func (r *fakeSubRepo) CreateSubscription(ctx context.Context, sub *Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.ID]; ok {
		return fmt.Errorf("duplicate subscription %s", sub.ID)
	}
	r.subs[sub.ID] = cloneSub(sub)
	return nil
}

func (r *fakeSubRepo) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return nil, nil
	}
	return cloneSub(s), nil
}

func (r *fakeSubRepo) GetActiveSubscription(ctx context.Context, userID string) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *Subscription
	for _, s := range r.subs {
		if s.UserID != userID || s.Status != SubscriptionStatusActive {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	return cloneSub(latest), nil
}

func (r *fakeSubRepo) GetLatestSubscription(ctx context.Context, userID string) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *Subscription
	for _, s := range r.subs {
		if s.UserID != userID {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	return cloneSub(latest), nil
}

func (r *fakeSubRepo) ListSubscriptions(ctx context.Context, userID string, page, pageSize int) ([]*Subscription, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*Subscription
	for _, s := range r.subs {
		if s.UserID == userID {
			all = append(all, cloneSub(s))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *fakeSubRepo) SaveSubscription(ctx context.Context, sub *Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.saveErrFor[sub.ID]; err != nil {
		return err
	}
	if _, ok := r.subs[sub.ID]; !ok {
		return fmt.Errorf("subscription %s does not exist", sub.ID)
	}
	r.subs[sub.ID] = cloneSub(sub)
	return nil
}

func (r *fakeSubRepo) ListDueSubscriptions(ctx context.Context, now time.Time) ([]*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dueOverride != nil {
		out := make([]*Subscription, 0, len(r.dueOverride))
		for _, s := range r.dueOverride {
			out = append(out, cloneSub(s))
		}
		return out, nil
	}
	var out []*Subscription
	for _, s := range r.subs {
		if s.Status == SubscriptionStatusActive && !s.RenewalDate.After(now) {
			out = append(out, cloneSub(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSubRepo) ExpireStaleSubscriptions(ctx context.Context, cutoff time.Time) ([]*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var closed []*Subscription
	for _, s := range r.subs {
		if s.Status != SubscriptionStatusActive || s.PaymentToken != "" || !s.RenewalDate.Before(cutoff) {
			continue
		}
		s.Status = SubscriptionStatusExpired
		s.EndDate = &now
		s.UpdatedAt = now
		closed = append(closed, cloneSub(s))
	}
	return closed, nil
}

func (r *fakeSubRepo) get(id string) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneSub(r.subs[id])
}

type fakePayRepo struct {
	mu        sync.Mutex
	payments  map[string]*Payment
	createErr error
}

func newFakePayRepo(payments ...*Payment) *fakePayRepo {
	r := &fakePayRepo{payments: make(map[string]*Payment)}
	for _, p := range payments {
		r.payments[p.ID] = clonePayment(p)
	}
	return r
}

func (r *fakePayRepo) CreatePayment(ctx context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.payments[p.ID] = clonePayment(p)
	return nil
}

func (r *fakePayRepo) GetPayment(ctx context.Context, id string) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	return clonePayment(p), nil
}

func (r *fakePayRepo) SavePayment(ctx context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.ID]; !ok {
		return fmt.Errorf("payment %s does not exist", p.ID)
	}
	r.payments[p.ID] = clonePayment(p)
	return nil
}

func (r *fakePayRepo) ListUserPayments(ctx context.Context, userID string, page, pageSize int) ([]*Payment, int, error) {
	// The fake has no subscription join; user filtering is exercised through
	// the subscription repo in the tests that need it.
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*Payment
	for _, p := range r.payments {
		all = append(all, clonePayment(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, len(all), nil
}

func (r *fakePayRepo) bySubscription(subID string) []*Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Payment
	for _, p := range r.payments {
		if p.SubscriptionID == subID {
			out = append(out, clonePayment(p))
		}
	}
	return out
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newFakeUserRepo(users ...*User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*User)}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *fakeUserRepo) GetUser(ctx context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) SetEntitled(ctx context.Context, userID string, entitled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user %s does not exist", userID)
	}
	u.Entitled = entitled
	return nil
}

func (r *fakeUserRepo) entitled(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	return ok && u.Entitled
}

// fakeGateway answers every charge the same way unless a per-token override
// is registered. A token in panicTokens makes Charge panic, standing in for
// a misbehaving provider SDK.
type fakeGateway struct {
	mu          sync.Mutex
	token       string
	tokenizeErr error
	result      *ChargeResult
	chargeErr   error
	resultFor   map[string]*ChargeResult
	panicTokens map[string]bool
	charges     []chargeCall
}

type chargeCall struct {
	amount   string
	currency string
	token    string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		token:       "tok_test",
		result:      &ChargeResult{TransactionID: "txn_1", Completed: true},
		resultFor:   make(map[string]*ChargeResult),
		panicTokens: make(map[string]bool),
	}
}

func (g *fakeGateway) Tokenize(ctx context.Context, card CardDetails) (string, error) {
	if g.tokenizeErr != nil {
		return "", g.tokenizeErr
	}
	return g.token, nil
}

func (g *fakeGateway) Charge(ctx context.Context, amount decimal.Decimal, currency, token string) (*ChargeResult, error) {
	g.mu.Lock()
	g.charges = append(g.charges, chargeCall{amount: amount.String(), currency: currency, token: token})
	panics := g.panicTokens[token]
	res, hasOverride := g.resultFor[token]
	defErr := g.chargeErr
	defRes := g.result
	g.mu.Unlock()

	if panics {
		panic("gateway exploded")
	}
	if hasOverride {
		cp := *res
		return &cp, nil
	}
	if defErr != nil {
		return nil, defErr
	}
	cp := *defRes
	return &cp, nil
}

func (g *fakeGateway) chargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.charges)
}

// fakeTx runs the unit directly; err short-circuits it, standing in for a
// transaction that cannot commit.
type fakeTx struct {
	err error
}

func (t *fakeTx) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.err != nil {
		return t.err
	}
	return fn(ctx)
}

// fakeClaims grants each key once until released; busy makes every Acquire
// fail, standing in for a claim already held by another sweep.
type fakeClaims struct {
	mu   sync.Mutex
	held map[string]bool
	busy bool
}

func newFakeClaims() *fakeClaims {
	return &fakeClaims{held: make(map[string]bool)}
}

func (c *fakeClaims) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy || c.held[key] {
		return nil, fmt.Errorf("claim %s already held", key)
	}
	c.held[key] = true
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.held, key)
	}, nil
}

func clonePlan(p *MembershipPlan) *MembershipPlan {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func cloneSub(s *Subscription) *Subscription {
	if s == nil {
		return nil
	}
	cp := *s
	if s.EndDate != nil {
		end := *s.EndDate
		cp.EndDate = &end
	}
	return &cp
}

func clonePayment(p *Payment) *Payment {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
