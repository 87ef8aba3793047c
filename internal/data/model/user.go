package model

import "time"

// User mirrors the identity store's table. This service reads existence and
// writes exactly one column: the premium entitlement flag.
type User struct {
	ID        string    `gorm:"primaryKey;column:user_id;type:char(36)"`
	IsPremium bool      `gorm:"column:is_premium"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "user" }
