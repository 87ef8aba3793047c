package model

import "time"

// Subscription is one user's membership term. Rows are never hard-deleted.
type Subscription struct {
	ID           string     `gorm:"primaryKey;column:subscription_id;type:char(36)"`
	UserID       string     `gorm:"column:user_id;type:char(36);not null;index:idx_user_id;index:idx_user_status"`
	PlanID       string     `gorm:"column:plan_id;type:char(36);not null;index"`
	Status       string     `gorm:"column:status;type:varchar(20);not null;index;index:idx_user_status"` // active, cancelled, expired
	StartDate    time.Time  `gorm:"column:start_date;not null"`
	RenewalDate  time.Time  `gorm:"column:renewal_date;not null;index:idx_status_renewal"`
	EndDate      *time.Time `gorm:"column:end_date"`
	PaymentToken string     `gorm:"column:payment_token;type:varchar(255)"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Subscription) TableName() string { return "subscription" }
