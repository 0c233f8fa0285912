package repository

import (
	"context"
	"mentorhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// UserRepository 用户目录：身份与角色查询
type UserRepository struct {
	boundedDB
}

func NewUserRepository(db *gorm.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{boundedDB{DB: db, Timeout: timeout}}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.run(ctx, "user.create", func(db *gorm.DB) error {
		return db.Create(user).Error
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.run(ctx, "user.find_by_id", func(db *gorm.DB) error {
		return db.First(&user, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs 批量查询，返回以 ID 为键的映射，缺失的 ID 不报错
func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]model.User, error) {
	result := make(map[uint]model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []model.User
	err := r.run(ctx, "user.find_by_ids", func(db *gorm.DB) error {
		return db.Where("id IN ?", ids).Find(&users).Error
	})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// FindByRole 包含已停用的用户，是否可分配由调用方判断
func (r *UserRepository) FindByRole(ctx context.Context, role model.UserRole) ([]model.User, error) {
	var users []model.User
	err := r.run(ctx, "user.find_by_role", func(db *gorm.DB) error {
		return db.Where("role = ?", role).Order("name asc").Find(&users).Error
	})
	return users, err
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.run(context.Background(), "user.update_last_seen", func(db *gorm.DB) error {
		return db.Model(&model.User{}).Where("id = ?", userID).Update("last_seen", time.Now()).Error
	})
}
