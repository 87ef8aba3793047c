package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is one billing attempt in the per-subscription ledger.
type Payment struct {
	ID             string          `gorm:"primaryKey;column:payment_id;type:char(36)"`
	SubscriptionID string          `gorm:"column:subscription_id;type:char(36);not null;index"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null"`
	Status         string          `gorm:"column:status;type:varchar(20);not null;index"` // pending, completed, failed, refunded
	TransactionID  string          `gorm:"column:transaction_id;type:varchar(255);index"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null;index"`
}

func (Payment) TableName() string { return "payment" }
