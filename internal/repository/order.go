package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nosweat-backend/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error)
	GetOrderItems(ctx context.Context, sessionID string) ([]*model.OrderItem, error)
	MarkPaid(ctx context.Context, sessionID string, amount decimal.Decimal, email string) (*model.Order, error)
	MarkNotified(ctx context.Context, sessionID string) (bool, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, sessionID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

// MarkPaid is a conditional update: only a pending order transitions, so two
// concurrent deliveries of the same event cannot double-apply. The loser of
// the race sees zero rows affected and just reads the already-paid order.
func (r *orderRepoImpl) MarkPaid(ctx context.Context, sessionID string, amount decimal.Decimal, email string) (*model.Order, error) {
	updates := map[string]interface{}{
		"status":     model.OrderStatusPaid,
		"updated_at": time.Now(),
	}
	if amount.IsPositive() {
		updates["total_amount"] = amount
	}
	if email != "" {
		updates["customer_email"] = email
	}

	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("session_id = ? AND status = ?", sessionID, model.OrderStatusPending).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}

	var order model.Order
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&order).Error

	return &order, err
}

// MarkNotified is a check-and-set; it reports true only for the caller that
// flipped the flag, so at most one confirmation email goes out per session.
func (r *orderRepoImpl) MarkNotified(ctx context.Context, sessionID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("session_id = ? AND notified = ?", sessionID, false).
		Update("notified", true)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
