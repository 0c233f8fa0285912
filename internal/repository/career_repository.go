package repository

import (
	"context"
	"mentorhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type CareerRepository struct {
	boundedDB
}

func NewCareerRepository(db *gorm.DB, timeout time.Duration) *CareerRepository {
	return &CareerRepository{boundedDB{DB: db, Timeout: timeout}}
}

func (r *CareerRepository) Create(ctx context.Context, career *model.Career) error {
	return r.run(ctx, "career.create", func(db *gorm.DB) error {
		return db.Create(career).Error
	})
}

func (r *CareerRepository) FindByID(ctx context.Context, id uint) (*model.Career, error) {
	var career model.Career
	err := r.run(ctx, "career.find_by_id", func(db *gorm.DB) error {
		return db.First(&career, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &career, nil
}

func (r *CareerRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]model.Career, error) {
	result := make(map[uint]model.Career, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var careers []model.Career
	err := r.run(ctx, "career.find_by_ids", func(db *gorm.DB) error {
		return db.Where("id IN ?", ids).Find(&careers).Error
	})
	if err != nil {
		return nil, err
	}
	for _, c := range careers {
		result[c.ID] = c
	}
	return result, nil
}
