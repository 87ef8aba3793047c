package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MembershipPlan is the plan catalog row. Written by an administrative
// process elsewhere; this service only reads it.
type MembershipPlan struct {
	ID           string          `gorm:"primaryKey;column:membership_plan_id;type:char(36)"`
	Name         string          `gorm:"column:name;type:varchar(100);index"`
	Description  string          `gorm:"column:description"`
	Price        decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null"`
	Currency     string          `gorm:"column:currency;type:varchar(10);default:'PKR'"`
	BillingCycle string          `gorm:"column:billing_cycle;type:varchar(20);default:'monthly'"`
	IsActive     bool            `gorm:"column:is_active;index"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (MembershipPlan) TableName() string { return "membership_plan" }
