package service

import (
	"context"
	"errors"
	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/repository"
	"mentorhub_backend/internal/util"
	"mentorhub_backend/pkg/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SubmissionStore 审核引擎依赖的存储能力
type SubmissionStore interface {
	Create(ctx context.Context, submission *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	Find(ctx context.Context, q repository.SubmissionQuery) ([]model.Submission, error)
	Count(ctx context.Context, q repository.SubmissionQuery) (int64, error)
	ApplyReview(ctx context.Context, id string, expectedVersion int, w repository.ReviewWrite) (bool, error)
	ApplyBulkReview(ctx context.Context, ids []string, w repository.ReviewWrite) (int64, error)
	AssignMentor(ctx context.Context, id string, expectedVersion int, mentorID uint, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	ReviewLogs(ctx context.Context, submissionID string) ([]model.SubmissionReviewLog, error)
	CountByMentor(ctx context.Context) ([]model.MentorCounts, error)
	AverageDurationHours(ctx context.Context, q repository.SubmissionQuery, end repository.DurationEnd, groupByMentor bool) ([]repository.DurationGroup, error)
}

// UserDirectory 用户目录
type UserDirectory interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]model.User, error)
	FindByRole(ctx context.Context, role model.UserRole) ([]model.User, error)
}

type CareerLookup interface {
	FindByID(ctx context.Context, id uint) (*model.Career, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]model.Career, error)
}

type ProjectLookup interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]model.Project, error)
}

// Actor 已通过鉴权的调用者身份
type Actor struct {
	UserID uint
	Role   model.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.Admin
}

// CanReview 导师和管理员可以审核
func (a Actor) CanReview() bool {
	return a.Role == model.Mentor || a.Role == model.Admin
}

// readWithRetry 幂等读操作遇到瞬时错误时最多重试一次
func readWithRetry[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err == nil || !util.IsRetryable(err) || ctx.Err() != nil {
		return v, err
	}
	return fn(ctx)
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return util.ErrPermissionDenied
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, util.ErrNotFound)
}

// Settings 可热更新的审核参数
type Settings struct {
	mu  sync.RWMutex
	cfg config.ReviewConfig
}

func NewSettings(cfg config.ReviewConfig) *Settings {
	cfg.Normalize()
	return &Settings{cfg: cfg}
}

func (s *Settings) Get() config.ReviewConfig {
	if s == nil {
		var cfg config.ReviewConfig
		cfg.Normalize()
		return cfg
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Settings) Update(cfg config.ReviewConfig) {
	cfg.Normalize()
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// classified 判断错误是否属于引擎的已知分类
func classified(err error) bool {
	return errors.Is(err, util.ErrNotFound) ||
		errors.Is(err, util.ErrInvalidInput) ||
		errors.Is(err, util.ErrPermissionDenied) ||
		errors.Is(err, util.ErrTransientStore)
}

// logUnexpected 未分类的错误必须记录操作和输入
func logUnexpected(op string, input interface{}, err error) error {
	if err != nil && !classified(err) {
		logger.Log.Error("审核引擎未预期错误",
			zap.String("op", op),
			zap.Any("input", input),
			zap.Error(err))
	}
	return err
}
