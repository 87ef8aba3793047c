package data

import (
	"context"
	"errors"

	"feastly/membership-service/internal/biz"
	"feastly/membership-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// userRepo is the thin view onto the identity store this service needs.
type userRepo struct {
	data *Data
	log  *log.Helper
}

// NewUserRepo creates the user repository.
func NewUserRepo(data *Data, logger log.Logger) biz.UserRepo {
	return &userRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *userRepo) GetUser(ctx context.Context, id string) (*biz.User, error) {
	var m model.User
	err := r.data.DB(ctx).First(&m, "user_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get user %s: %v", id, err)
		return nil, err
	}
	return &biz.User{ID: m.ID, Entitled: m.IsPremium}, nil
}

func (r *userRepo) SetEntitled(ctx context.Context, userID string, entitled bool) error {
	result := r.data.DB(ctx).Model(&model.User{}).
		Where("user_id = ?", userID).
		Update("is_premium", entitled)
	if result.Error != nil {
		r.log.Errorf("Failed to set entitlement for user %s: %v", userID, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		r.log.Warnf("Entitlement update matched no row for user %s", userID)
	}
	return nil
}
