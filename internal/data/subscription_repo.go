package data

import (
	"context"
	"errors"
	"time"

	"feastly/membership-service/internal/biz"
	"feastly/membership-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// subscriptionRepo implements subscription persistence over gorm.
type subscriptionRepo struct {
	data *Data
	log  *log.Helper
}

// NewSubscriptionRepo creates the subscription repository.
func NewSubscriptionRepo(data *Data, logger log.Logger) biz.SubscriptionRepo {
	return &subscriptionRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *subscriptionRepo) CreateSubscription(ctx context.Context, sub *biz.Subscription) error {
	if err := r.data.DB(ctx).Create(subFromBiz(sub)).Error; err != nil {
		r.log.Errorf("Failed to create subscription for user %s: %v", sub.UserID, err)
		return err
	}
	return nil
}

func (r *subscriptionRepo) GetSubscription(ctx context.Context, id string) (*biz.Subscription, error) {
	var m model.Subscription
	err := r.data.DB(ctx).First(&m, "subscription_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get subscription %s: %v", id, err)
		return nil, err
	}
	return subToBiz(&m), nil
}

func (r *subscriptionRepo) GetActiveSubscription(ctx context.Context, userID string) (*biz.Subscription, error) {
	var m model.Subscription
	err := r.data.DB(ctx).
		Where("user_id = ? AND status = ?", userID, string(biz.SubscriptionStatusActive)).
		Order("created_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get active subscription for user %s: %v", userID, err)
		return nil, err
	}
	return subToBiz(&m), nil
}

func (r *subscriptionRepo) GetLatestSubscription(ctx context.Context, userID string) (*biz.Subscription, error) {
	var m model.Subscription
	err := r.data.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get latest subscription for user %s: %v", userID, err)
		return nil, err
	}
	return subToBiz(&m), nil
}

func (r *subscriptionRepo) ListSubscriptions(ctx context.Context, userID string, page, pageSize int) ([]*biz.Subscription, int, error) {
	var total int64
	if err := r.data.DB(ctx).Model(&model.Subscription{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		r.log.Errorf("Failed to count subscriptions for user %s: %v", userID, err)
		return nil, 0, err
	}

	var models []model.Subscription
	offset := (page - 1) * pageSize
	if err := r.data.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list subscriptions for user %s: %v", userID, err)
		return nil, 0, err
	}

	subs := make([]*biz.Subscription, len(models))
	for i, m := range models {
		subs[i] = subToBiz(&m)
	}
	return subs, int(total), nil
}

func (r *subscriptionRepo) SaveSubscription(ctx context.Context, sub *biz.Subscription) error {
	if err := r.data.DB(ctx).Save(subFromBiz(sub)).Error; err != nil {
		r.log.Errorf("Failed to save subscription %s: %v", sub.ID, err)
		return err
	}
	return nil
}

func (r *subscriptionRepo) ListDueSubscriptions(ctx context.Context, now time.Time) ([]*biz.Subscription, error) {
	var models []model.Subscription
	if err := r.data.DB(ctx).
		Where("status = ? AND renewal_date <= ?", string(biz.SubscriptionStatusActive), now).
		Order("renewal_date ASC").
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list due subscriptions: %v", err)
		return nil, err
	}

	subs := make([]*biz.Subscription, len(models))
	for i, m := range models {
		subs[i] = subToBiz(&m)
	}
	return subs, nil
}

func (r *subscriptionRepo) ExpireStaleSubscriptions(ctx context.Context, cutoff time.Time) ([]*biz.Subscription, error) {
	var models []model.Subscription
	if err := r.data.DB(ctx).
		Where("status = ? AND renewal_date < ? AND (payment_token IS NULL OR payment_token = '')",
			string(biz.SubscriptionStatusActive), cutoff).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to query stale subscriptions: %v", err)
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	if err := r.data.DB(ctx).Model(&model.Subscription{}).
		Where("subscription_id IN ?", ids).
		Updates(map[string]interface{}{
			"status":     string(biz.SubscriptionStatusExpired),
			"end_date":   now,
			"updated_at": now,
		}).Error; err != nil {
		r.log.Errorf("Failed to expire stale subscriptions: %v", err)
		return nil, err
	}

	subs := make([]*biz.Subscription, len(models))
	for i, m := range models {
		m.Status = string(biz.SubscriptionStatusExpired)
		endDate := now
		m.EndDate = &endDate
		subs[i] = subToBiz(&m)
	}
	return subs, nil
}

func subFromBiz(sub *biz.Subscription) *model.Subscription {
	return &model.Subscription{
		ID:           sub.ID,
		UserID:       sub.UserID,
		PlanID:       sub.PlanID,
		Status:       string(sub.Status),
		StartDate:    sub.StartDate,
		RenewalDate:  sub.RenewalDate,
		EndDate:      sub.EndDate,
		PaymentToken: sub.PaymentToken,
		CreatedAt:    sub.CreatedAt,
		UpdatedAt:    sub.UpdatedAt,
	}
}

func subToBiz(m *model.Subscription) *biz.Subscription {
	return &biz.Subscription{
		ID:           m.ID,
		UserID:       m.UserID,
		PlanID:       m.PlanID,
		Status:       biz.SubscriptionStatus(m.Status),
		StartDate:    m.StartDate,
		RenewalDate:  m.RenewalDate,
		EndDate:      m.EndDate,
		PaymentToken: m.PaymentToken,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
