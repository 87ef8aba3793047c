package data

import (
	"context"
	"errors"

	"feastly/membership-service/internal/biz"
	"feastly/membership-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// paymentRepo implements the payment ledger over gorm.
type paymentRepo struct {
	data *Data
	log  *log.Helper
}

// NewPaymentRepo creates the payment repository.
func NewPaymentRepo(data *Data, logger log.Logger) biz.PaymentRepo {
	return &paymentRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *paymentRepo) CreatePayment(ctx context.Context, p *biz.Payment) error {
	if err := r.data.DB(ctx).Create(paymentFromBiz(p)).Error; err != nil {
		r.log.Errorf("Failed to create payment for subscription %s: %v", p.SubscriptionID, err)
		return err
	}
	return nil
}

func (r *paymentRepo) GetPayment(ctx context.Context, id string) (*biz.Payment, error) {
	var m model.Payment
	err := r.data.DB(ctx).First(&m, "payment_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get payment %s: %v", id, err)
		return nil, err
	}
	return paymentToBiz(&m), nil
}

func (r *paymentRepo) SavePayment(ctx context.Context, p *biz.Payment) error {
	if err := r.data.DB(ctx).Save(paymentFromBiz(p)).Error; err != nil {
		r.log.Errorf("Failed to save payment %s: %v", p.ID, err)
		return err
	}
	return nil
}

// ListUserPayments joins through the subscription table so one query covers
// every subscription the user ever held.
func (r *paymentRepo) ListUserPayments(ctx context.Context, userID string, page, pageSize int) ([]*biz.Payment, int, error) {
	base := r.data.DB(ctx).Model(&model.Payment{}).
		Joins("JOIN subscription ON subscription.subscription_id = payment.subscription_id").
		Where("subscription.user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		r.log.Errorf("Failed to count payments for user %s: %v", userID, err)
		return nil, 0, err
	}

	var models []model.Payment
	offset := (page - 1) * pageSize
	if err := base.
		Order("payment.created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list payments for user %s: %v", userID, err)
		return nil, 0, err
	}

	payments := make([]*biz.Payment, len(models))
	for i, m := range models {
		payments[i] = paymentToBiz(&m)
	}
	return payments, int(total), nil
}

func paymentFromBiz(p *biz.Payment) *model.Payment {
	return &model.Payment{
		ID:             p.ID,
		SubscriptionID: p.SubscriptionID,
		Amount:         p.Amount,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		CreatedAt:      p.CreatedAt,
	}
}

func paymentToBiz(m *model.Payment) *biz.Payment {
	return &biz.Payment{
		ID:             m.ID,
		SubscriptionID: m.SubscriptionID,
		Amount:         m.Amount,
		Status:         biz.PaymentStatus(m.Status),
		TransactionID:  m.TransactionID,
		CreatedAt:      m.CreatedAt,
	}
}
