package repository

import (
	"context"

	"gorm.io/gorm"

	"nosweat-backend/internal/model"
)

type InquiryRepository interface {
	Create(ctx context.Context, inquiry *model.WholesaleInquiry) error
}

type inquiryRepoImpl struct {
	db *gorm.DB
}

func NewInquiryRepository(db *gorm.DB) InquiryRepository {
	return &inquiryRepoImpl{db: db}
}

func (r *inquiryRepoImpl) Create(ctx context.Context, inquiry *model.WholesaleInquiry) error {
	return r.db.WithContext(ctx).Create(inquiry).Error
}
