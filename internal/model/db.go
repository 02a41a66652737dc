package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

type Order struct {
	ID        string `gorm:"primaryKey;size:36;not null"`
	SessionID string `gorm:"size:128;uniqueIndex;not null"` // stripe checkout session id
	// Empty until reconciliation supplies it from the verified event.
	CustomerEmail string          `gorm:"size:255"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency      string          `gorm:"size:8;not null"`
	Status        string          `gorm:"size:16;index;not null"` // pending, paid
	// Set once when the confirmation email is dispatched. Guards redelivery.
	Notified  bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → order.session_id
	SessionID  string `gorm:"size:128;index;not null"`
	Name       string `gorm:"size:255;not null"`
	Size       string `gorm:"size:32;not null"`
	UnitAmount int64  `gorm:"not null"` // minor units
	Quantity   int64  `gorm:"not null"`
	CreatedAt  time.Time
}

type WholesaleInquiry struct {
	ID                   uint   `gorm:"primaryKey"`
	Name                 string `gorm:"size:255;not null"`
	Email                string `gorm:"size:255;not null"`
	Company              string `gorm:"size:255;not null"`
	ExpectedMonthlyUnits uint
	Message              string `gorm:"type:text"`
	CreatedAt            time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
