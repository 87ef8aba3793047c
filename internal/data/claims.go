package data

import (
	"context"
	"time"

	"feastly/membership-service/internal/biz"
	"feastly/membership-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
)

// renewalClaims backs renewal claims with redsync mutexes so overlapping
// sweeps, even across processes, cannot charge the same subscription twice.
type renewalClaims struct {
	rs  *redsync.Redsync
	log *log.Helper
}

// NewRenewalClaims creates the redsync-backed claim source.
func NewRenewalClaims(rs *redsync.Redsync, logger log.Logger) biz.ClaimSource {
	return &renewalClaims{
		rs:  rs,
		log: log.NewHelper(logger),
	}
}

// Acquire takes the claim with a single attempt: contention means another
// sweep already owns the subscription, which is a skip, not a retry.
func (c *renewalClaims) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if ttl <= 0 {
		ttl = constants.RenewalClaimTTL
	}
	mutex := c.rs.NewMutex(key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(constants.RenewalClaimTries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}
	release := func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			c.log.Warnf("Failed to release renewal claim %s: %v", key, err)
		}
	}
	return release, nil
}
