package biz

import (
	"context"
	"testing"
	"time"

	"feastly/membership-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type renewalFixture struct {
	plans   *fakePlanRepo
	subs    *fakeSubRepo
	pays    *fakePayRepo
	users   *fakeUserRepo
	gateway *fakeGateway
	claims  *fakeClaims
	uc      *RenewalUsecase
}

func newRenewalFixture(plans ...*MembershipPlan) *renewalFixture {
	f := &renewalFixture{
		plans:   newFakePlanRepo(plans...),
		subs:    newFakeSubRepo(),
		pays:    newFakePayRepo(),
		users:   newFakeUserRepo(),
		gateway: newFakeGateway(),
		claims:  newFakeClaims(),
	}
	f.uc = NewRenewalUsecase(f.plans, f.subs, f.pays, f.users, f.gateway, &fakeTx{}, f.claims, &conf.Bootstrap{}, log.DefaultLogger)
	return f
}

// dueSubscription seeds an active subscription one day past its renewal
// date, its owner entitled, and returns it.
func (f *renewalFixture) dueSubscription(userID, token string) *Subscription {
	now := time.Now().UTC()
	sub := &Subscription{
		ID:           uuid.New().String(),
		UserID:       userID,
		PlanID:       "plan-1",
		Status:       SubscriptionStatusActive,
		StartDate:    now.AddDate(0, -1, -1),
		RenewalDate:  now.AddDate(0, 0, -1),
		PaymentToken: token,
		CreatedAt:    now.AddDate(0, -1, -1),
		UpdatedAt:    now.AddDate(0, -1, -1),
	}
	_ = f.subs.CreateSubscription(context.Background(), sub)
	f.users.users[userID] = &User{ID: userID, Entitled: true}
	return sub
}

func TestProcessDueRenewalsNothingDue(t *testing.T) {
	f := newRenewalFixture(premiumPlan())

	report, err := f.uc.ProcessDueRenewals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &RenewalReport{}, report)
	assert.Zero(t, f.gateway.chargeCount())
}

func TestProcessDueRenewalsRenews(t *testing.T) {
	f := newRenewalFixture(premiumPlan())
	sub := f.dueSubscription("user-1", "tok_1")

	report, err := f.uc.ProcessDueRenewals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &RenewalReport{Due: 1, Renewed: 1}, report)

	stored := f.subs.get(sub.ID)
	assert.Equal(t, SubscriptionStatusActive, stored.Status)
	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 1, 0), stored.RenewalDate, time.Minute)
	assert.Nil(t, stored.EndDate)

	payments := f.pays.bySubscription(sub.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, PaymentStatusCompleted, payments[0].Status)
	assert.Equal(t, "txn_1", payments[0].TransactionID)
	assert.True(t, f.users.entitled("user-1"))
}

func TestProcessDueRenewalsChargeFailureExpires(t *testing.T) {
	f := newRenewalFixture(premiumPlan())
	sub := f.dueSubscription("user-1", "tok_1")
	f.gateway.result = &ChargeResult{TransactionID: "txn_declined", Completed: false}

	report, err := f.uc.ProcessDueRenewals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &RenewalReport{Due: 1, Expired: 1}, report)

	stored := f.subs.get(sub.ID)
	assert.Equal(t, SubscriptionStatusExpired, stored.Status)
	require.NotNil(t, stored.EndDate)
	// The renewal date stays where it was when the charge failed.
	assert.Equal(t, sub.RenewalDate.Unix(), stored.RenewalDate.Unix())

	payments := f.pays.bySubscription(sub.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, PaymentStatusFailed, payments[0].Status)
	assert.Equal(t, "txn_declined", payments[0].TransactionID)
	assert.False(t, f.users.entitled("user-1"))
}

func TestProcessDueRenewalsGatewayTimeoutExpires(t *testing.T) {
	f := newRenewalFixture(premiumPlan())
	sub := f.dueSubscription("user-1", "tok_1")
	f.gateway.chargeErr = context.DeadlineExceeded

	report, err := f.uc.ProcessDueRenewals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &RenewalReport{Due: 1, Expired: 1}, report)
	assert.Equal(t, SubscriptionStatusExpired, f.subs.get(sub.ID).Status)
}

func TestProcessDueRenewalsIsolatesFailures(t *testing.T) {
	f := newRenewalFixture(premiumPlan())
	good1 := f.dueSubscription("user-1", "tok_1")
	bad := f.dueSubscription("user-2", "tok_boom")
	good2 := f.dueSubscription("user-3", "tok_3")
	f.gateway.panicTokens["tok_boom"] = true

	report, err := f.uc.ProcessDueRenewals(context.Background())
	require.NoError(t, err)

	// One blown-up charge expires its own subscription and nothing else.
	assert.Equal(t, &RenewalReport{Due: 3, Renewed: 2, Expired: 1}, report)
	assert.Equal(t, SubscriptionStatusActive, f.subs.get(good1.ID).Status)
	assert.Equal(t, SubscriptionStatusActive, f.subs.get(good2.ID).Status)
	assert.Equal(t, SubscriptionStatusExpired, f.subs.get(bad.ID).Status)
	assert.True(t, f.users.entitled("user-1"))
	assert.False(t, f.users.entitled("user-2"))
	assert.True(t, f.users.entitled("user-3"))
}

func TestProcessDueRenewalsClaimHeldSkips(t *testing.T) {
	f := newRenewalFixture(premiumPlan())
	sub := f.dueSubscription("user-1", "tok_1")
	f.claims.busy = true

	report, err := f.uc.ProcessDueRenewals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &RenewalReport{Due: 1, Skipped: 1}, report)

	// Nothing was charged or written while the claim was held elsewhere.
	assert.Zero(t, f.gateway.chargeCount())
	assert.Equal(t, SubscriptionStatusActive, f.subs.get(sub.ID).Status)
	assert.Empty(t, f.pays.bySubscription(sub.ID))
}

func TestProcessDueRenewalsSkipsWhenNoLongerDue(t *testing.T) {
	f := newRenewalFixture(premiumPlan())
	sub := f.dueSubscription("user-1", "tok_1")

	// Another sweep advanced the subscription between the listing and the
	// claim; the stale listing entry must not be charged again.
	stale := cloneSub(sub)
	advanced := f.subs.get(sub.ID)
	advanced.RenewalDate = time.Now().UTC().AddDate(0, 1, 0)
	require.NoError(t, f.subs.SaveSubscription(context.Background(), advanced))
	f.subs.dueOverride = []*Subscription{stale}

	report, err := f.uc.ProcessDueRenewals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &RenewalReport{Due: 1, Skipped: 1}, report)
	assert.Zero(t, f.gateway.chargeCount())
}

func TestProcessDueRenewalsChargesCurrentPrice(t *testing.T) {
	f := newRenewalFixture(premiumPlan())
	sub := f.dueSubscription("user-1", "tok_1")

	// Price changed after signup; the renewal bills today's price.
	raised := premiumPlan()
	raised.Price = decimal.RequireFromString("14.99")
	f.plans.put(raised)

	report, err := f.uc.ProcessDueRenewals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Renewed)

	require.Len(t, f.gateway.charges, 1)
	assert.Equal(t, "14.99", f.gateway.charges[0].amount)

	payments := f.pays.bySubscription(sub.ID)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.Equal(decimal.RequireFromString("14.99")))
}

func TestExpireStale(t *testing.T) {
	f := newRenewalFixture(premiumPlan())

	// Token-less and a week past renewal: will be closed.
	stale := f.dueSubscription("user-1", "")
	got := f.subs.get(stale.ID)
	got.RenewalDate = time.Now().UTC().AddDate(0, 0, -7)
	require.NoError(t, f.subs.SaveSubscription(context.Background(), got))

	// Token-less but within the grace period: untouched.
	fresh := f.dueSubscription("user-2", "")

	count, err := f.uc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Equal(t, SubscriptionStatusExpired, f.subs.get(stale.ID).Status)
	assert.False(t, f.users.entitled("user-1"))
	assert.Equal(t, SubscriptionStatusActive, f.subs.get(fresh.ID).Status)
	assert.True(t, f.users.entitled("user-2"))
}

func TestRenewalClaimKeyChangesAcrossCycles(t *testing.T) {
	sub := &Subscription{ID: "sub-1", RenewalDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	first := renewalClaimKey(sub)

	sub.RenewalDate = sub.RenewalDate.AddDate(0, 1, 0)
	assert.NotEqual(t, first, renewalClaimKey(sub))
}
