package repository

import (
	"context"
	"fmt"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type ProjectRepository struct {
	boundedDB
}

func NewProjectRepository(db *gorm.DB, timeout time.Duration) *ProjectRepository {
	return &ProjectRepository{boundedDB{DB: db, Timeout: timeout}}
}

// Create 写入前校验自动评分配置
func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if project.ID == "" {
		return fmt.Errorf("%w: project id is required", util.ErrInvalidInput)
	}
	if err := project.Autograding.Data().Validate(); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
	}
	return r.run(ctx, "project.create", func(db *gorm.DB) error {
		return db.Create(project).Error
	})
}

func (r *ProjectRepository) FindByIDs(ctx context.Context, ids []string) (map[string]model.Project, error) {
	result := make(map[string]model.Project, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var projects []model.Project
	err := r.run(ctx, "project.find_by_ids", func(db *gorm.DB) error {
		return db.Where("id IN ?", ids).Find(&projects).Error
	})
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		result[p.ID] = p
	}
	return result, nil
}
