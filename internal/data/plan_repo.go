package data

import (
	"context"
	"errors"

	"feastly/membership-service/internal/biz"
	"feastly/membership-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// planRepo implements the plan catalog over gorm.
type planRepo struct {
	data *Data
	log  *log.Helper
}

// NewPlanRepo creates the plan repository.
func NewPlanRepo(data *Data, logger log.Logger) biz.PlanRepo {
	return &planRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// ListActivePlans returns every plan flagged active. The single-active-plan
// invariant is the catalog usecase's job, so this deliberately returns all
// matches rather than First().
func (r *planRepo) ListActivePlans(ctx context.Context) ([]*biz.MembershipPlan, error) {
	var models []model.MembershipPlan
	if err := r.data.DB(ctx).Where("is_active = ?", true).Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list active plans: %v", err)
		return nil, err
	}

	plans := make([]*biz.MembershipPlan, len(models))
	for i, m := range models {
		plans[i] = planToBiz(&m)
	}
	return plans, nil
}

// GetPlan returns a plan by id, nil when missing.
func (r *planRepo) GetPlan(ctx context.Context, id string) (*biz.MembershipPlan, error) {
	var m model.MembershipPlan
	err := r.data.DB(ctx).First(&m, "membership_plan_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get plan %s: %v", id, err)
		return nil, err
	}
	return planToBiz(&m), nil
}

func planToBiz(m *model.MembershipPlan) *biz.MembershipPlan {
	return &biz.MembershipPlan{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		Currency:     m.Currency,
		BillingCycle: biz.BillingCycle(m.BillingCycle),
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
