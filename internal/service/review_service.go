package service

import (
	"context"
	"fmt"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/repository"
	"mentorhub_backend/internal/util"
	"mentorhub_backend/pkg/monitoring"
	"mentorhub_backend/pkg/tracing"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
)

// ReviewInput 单条审核，nil 字段保持原值
type ReviewInput struct {
	Status      *model.SubmissionStatus `json:"status"`
	Feedback    *string                 `json:"feedback"`
	Score       *float64                `json:"score"`
	ReviewNotes *string                 `json:"reviewNotes"`
}

// BulkReviewInput 批量审核，所有记录写入相同的字段
type BulkReviewInput struct {
	IDs      []string               `json:"submissionIds"`
	Status   model.SubmissionStatus `json:"status"`
	Feedback *string                `json:"feedback"`
	Score    *float64               `json:"score"`
}

type BulkReviewResult struct {
	UpdatedCount   int64 `json:"updatedCount"`
	TotalRequested int   `json:"totalRequested"`
}

// CreateSubmissionInput 项目提交流程转入的新提交
type CreateSubmissionInput struct {
	LearnerID        uint             `json:"learnerId"` // 仅管理员代提交时使用
	CareerID         *uint            `json:"careerId"`
	ProjectID        *string          `json:"projectId"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	SubmissionURL    string           `json:"submissionUrl"`
	FileURL          string           `json:"fileUrl"`
	Attachments      []string         `json:"attachments"`
	TimeSpentMinutes int              `json:"timeSpentMinutes"`
	Difficulty       model.Difficulty `json:"difficulty"`
}

func validateScore(score *float64) error {
	if score != nil && (*score < util.MinScore || *score > util.MaxScore) {
		return fmt.Errorf("%w: score must be between %.0f and %.0f", util.ErrInvalidInput, util.MinScore, util.MaxScore)
	}
	return nil
}

// validateTarget 审核结果只能是 approved / rejected
func validateTarget(status model.SubmissionStatus) error {
	if !status.Reviewed() {
		return fmt.Errorf("%w: review status must be approved or rejected, got %q", util.ErrInvalidInput, status)
	}
	return nil
}

// ReviewService 提交的审核状态机
type ReviewService struct {
	Store     SubmissionStore
	Users     UserDirectory
	Careers   CareerLookup
	Projector *Projector
	Cache     SummaryCache
	Settings  *Settings
	Now       func() time.Time
}

func NewReviewService(
	store SubmissionStore,
	users UserDirectory,
	careers CareerLookup,
	projector *Projector,
	cache SummaryCache,
	settings *Settings,
) *ReviewService {
	return &ReviewService{
		Store:     store,
		Users:     users,
		Careers:   careers,
		Projector: projector,
		Cache:     cache,
		Settings:  settings,
		Now:       time.Now,
	}
}

func (s *ReviewService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *ReviewService) invalidate(ctx context.Context) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx)
	}
}

// CreateSubmission 新提交一律进入 pending
func (s *ReviewService) CreateSubmission(ctx context.Context, actor Actor, input CreateSubmissionInput) (view *SubmissionView, err error) {
	ctx, span := tracing.StartSpan(ctx, "review.create_submission")
	defer func() { tracing.EndSpan(span, err) }()

	learnerID, err := s.resolveLearner(ctx, actor, input.LearnerID)
	if err != nil {
		return nil, logUnexpected("create_submission", input, err)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" || len(title) > 255 {
		return nil, fmt.Errorf("%w: title is required and must be at most 255 characters", util.ErrInvalidInput)
	}
	for _, raw := range append([]string{input.SubmissionURL, input.FileURL}, input.Attachments...) {
		if err := util.ValidateResourceURL(raw); err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
		}
	}
	if input.SubmissionURL == "" && input.FileURL == "" {
		return nil, fmt.Errorf("%w: submissionUrl or fileUrl is required", util.ErrInvalidInput)
	}
	if input.TimeSpentMinutes < 0 {
		return nil, fmt.Errorf("%w: timeSpentMinutes must not be negative", util.ErrInvalidInput)
	}
	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	if !difficulty.Valid() {
		return nil, fmt.Errorf("%w: unknown difficulty %q", util.ErrInvalidInput, difficulty)
	}
	if input.CareerID != nil {
		if _, err := s.Careers.FindByID(ctx, *input.CareerID); err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("%w: career %d does not exist", util.ErrInvalidInput, *input.CareerID)
			}
			return nil, logUnexpected("create_submission", input, err)
		}
	}

	now := s.now()
	submission := &model.Submission{
		LearnerID:        learnerID,
		CareerID:         input.CareerID,
		ProjectID:        input.ProjectID,
		Title:            title,
		Description:      input.Description,
		SubmissionURL:    input.SubmissionURL,
		FileURL:          input.FileURL,
		Attachments:      datatypes.JSONSlice[string](input.Attachments),
		TimeSpentMinutes: input.TimeSpentMinutes,
		Difficulty:       difficulty,
		Status:           model.StatusPending,
		SubmittedAt:      now,
		UpdatedAt:        now,
	}
	if err := s.Store.Create(ctx, submission); err != nil {
		return nil, logUnexpected("create_submission", input, err)
	}
	s.invalidate(ctx)
	return s.Projector.ProjectOne(ctx, submission)
}

func (s *ReviewService) resolveLearner(ctx context.Context, actor Actor, learnerID uint) (uint, error) {
	switch actor.Role {
	case model.Learner:
		return actor.UserID, nil
	case model.Admin:
		if learnerID == 0 {
			return 0, fmt.Errorf("%w: learnerId is required", util.ErrInvalidInput)
		}
		user, err := s.Users.FindByID(ctx, learnerID)
		if err != nil {
			if isNotFound(err) {
				return 0, fmt.Errorf("%w: learner %d does not exist", util.ErrInvalidInput, learnerID)
			}
			return 0, err
		}
		if user.Role != model.Learner {
			return 0, fmt.Errorf("%w: user %d is not a learner", util.ErrInvalidInput, learnerID)
		}
		return learnerID, nil
	}
	return 0, util.ErrPermissionDenied
}

// GetSubmission 学员只能查看自己的提交
func (s *ReviewService) GetSubmission(ctx context.Context, actor Actor, id string) (*SubmissionView, error) {
	submission, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, logUnexpected("get_submission", id, err)
	}
	if actor.Role == model.Learner && submission.LearnerID != actor.UserID {
		return nil, util.ErrPermissionDenied
	}
	return s.Projector.ProjectOne(ctx, submission)
}

// ReviewSubmission 部分更新：只改提供的字段，但导师和审核时间每次都会刷新
// 版本冲突时重新读取后再写，超过次数返回瞬时错误
func (s *ReviewService) ReviewSubmission(ctx context.Context, actor Actor, id string, input ReviewInput) (view *SubmissionView, err error) {
	ctx, span := tracing.StartSpan(ctx, "review.submission", attribute.String("submission.id", id))
	defer func() { tracing.EndSpan(span, err) }()

	if !actor.CanReview() {
		return nil, util.ErrPermissionDenied
	}
	if input.Status != nil {
		if err := validateTarget(*input.Status); err != nil {
			return nil, err
		}
	}
	if err := validateScore(input.Score); err != nil {
		return nil, err
	}

	attempts := s.Settings.Get().MaxWriteAttempts
	for attempt := 0; attempt < attempts; attempt++ {
		current, err := s.Store.FindByID(ctx, id)
		if err != nil {
			return nil, logUnexpected("review_submission", input, err)
		}

		status := current.Status
		if input.Status != nil {
			status = *input.Status
		}
		// 首次审核必须给出结论，否则会出现 pending 但有审核时间的记录
		if status == model.StatusPending {
			return nil, fmt.Errorf("%w: status is required for a pending submission", util.ErrInvalidInput)
		}

		feedback := current.Feedback
		if input.Feedback != nil {
			feedback = *input.Feedback
		}
		score := current.Score
		if input.Score != nil {
			score = input.Score
		}
		w := repository.ReviewWrite{
			Status:      status,
			Feedback:    &feedback,
			Score:       score,
			ReviewNotes: input.ReviewNotes,
			MentorID:    actor.UserID,
			ReviewedAt:  s.now(),
		}

		applied, err := s.Store.ApplyReview(ctx, id, current.Version, w)
		if err != nil {
			return nil, logUnexpected("review_submission", input, err)
		}
		if !applied {
			continue
		}

		monitoring.ObserveReviews(string(status), false, 1)
		s.invalidate(ctx)
		return s.Projector.ProjectOne(ctx, applyWrite(*current, w))
	}
	return nil, fmt.Errorf("%w: submission %s changed concurrently %d times", util.ErrTransientStore, id, attempts)
}

// applyWrite 在内存中得到写入后的记录，与存储中的结果一致
func applyWrite(s model.Submission, w repository.ReviewWrite) *model.Submission {
	s.Status = w.Status
	if w.Feedback != nil {
		s.Feedback = *w.Feedback
	}
	if w.Score != nil {
		score := *w.Score
		s.Score = &score
	}
	if w.ReviewNotes != nil {
		s.ReviewNotes = *w.ReviewNotes
	}
	mentorID := w.MentorID
	s.MentorID = &mentorID
	reviewedAt := w.ReviewedAt
	s.ReviewedAt = &reviewedAt
	s.UpdatedAt = w.ReviewedAt
	s.Version++
	return &s
}

// BulkReviewSubmissions 不存在的 ID 直接跳过，通过计数体现
func (s *ReviewService) BulkReviewSubmissions(ctx context.Context, actor Actor, input BulkReviewInput) (result *BulkReviewResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "review.bulk", attribute.Int("submission.requested", len(input.IDs)))
	defer func() { tracing.EndSpan(span, err) }()

	if !actor.CanReview() {
		return nil, util.ErrPermissionDenied
	}
	if len(input.IDs) == 0 {
		return nil, fmt.Errorf("%w: submissionIds must be a non-empty list", util.ErrInvalidInput)
	}
	if input.Status == "" {
		return nil, fmt.Errorf("%w: status is required", util.ErrInvalidInput)
	}
	if err := validateTarget(input.Status); err != nil {
		return nil, err
	}
	if err := validateScore(input.Score); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(input.IDs))
	ids := make([]string, 0, len(input.IDs))
	for _, id := range input.IDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	result = &BulkReviewResult{TotalRequested: len(input.IDs)}
	if len(ids) == 0 {
		return result, nil
	}

	w := repository.ReviewWrite{
		Status:     input.Status,
		Feedback:   input.Feedback,
		Score:      input.Score,
		MentorID:   actor.UserID,
		ReviewedAt: s.now(),
	}
	updated, err := s.Store.ApplyBulkReview(ctx, ids, w)
	if err != nil {
		return nil, logUnexpected("bulk_review_submissions", input, err)
	}
	result.UpdatedCount = updated

	monitoring.ObserveReviews(string(input.Status), true, updated)
	if updated > 0 {
		s.invalidate(ctx)
	}
	return result, nil
}

// AssignMentor 只更换导师，状态与审核时间保持不变
func (s *ReviewService) AssignMentor(ctx context.Context, actor Actor, id string, mentorID uint) (view *SubmissionView, err error) {
	ctx, span := tracing.StartSpan(ctx, "review.assign_mentor", attribute.String("submission.id", id))
	defer func() { tracing.EndSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	input := map[string]interface{}{"id": id, "mentorId": mentorID}

	attempts := s.Settings.Get().MaxWriteAttempts
	for attempt := 0; attempt < attempts; attempt++ {
		current, err := s.Store.FindByID(ctx, id)
		if err != nil {
			return nil, logUnexpected("assign_mentor", input, err)
		}
		if attempt == 0 {
			if err := s.checkMentor(ctx, mentorID); err != nil {
				return nil, logUnexpected("assign_mentor", input, err)
			}
		}

		now := s.now()
		applied, err := s.Store.AssignMentor(ctx, id, current.Version, mentorID, now)
		if err != nil {
			return nil, logUnexpected("assign_mentor", input, err)
		}
		if !applied {
			continue
		}

		s.invalidate(ctx)
		current.MentorID = &mentorID
		current.UpdatedAt = now
		current.Version++
		return s.Projector.ProjectOne(ctx, current)
	}
	return nil, fmt.Errorf("%w: submission %s changed concurrently %d times", util.ErrTransientStore, id, attempts)
}

// checkMentor 目标用户必须存在且角色为导师
func (s *ReviewService) checkMentor(ctx context.Context, mentorID uint) error {
	if mentorID == 0 {
		return fmt.Errorf("%w: mentorId is required", util.ErrInvalidInput)
	}
	user, err := s.Users.FindByID(ctx, mentorID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: user %d does not exist", util.ErrInvalidInput, mentorID)
		}
		return err
	}
	if user.Role != model.Mentor || user.Disabled {
		return fmt.Errorf("%w: user %d is not an active mentor", util.ErrInvalidInput, mentorID)
	}
	return nil
}

// DeleteSubmission 物理删除，不可恢复
func (s *ReviewService) DeleteSubmission(ctx context.Context, actor Actor, id string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "review.delete", attribute.String("submission.id", id))
	defer func() { tracing.EndSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return logUnexpected("delete_submission", id, err)
	}
	s.invalidate(ctx)
	return nil
}

// ReviewHistory 审核留痕，最新的在前
func (s *ReviewService) ReviewHistory(ctx context.Context, actor Actor, id string) ([]model.SubmissionReviewLog, error) {
	if !actor.CanReview() {
		return nil, util.ErrPermissionDenied
	}
	if _, err := s.Store.FindByID(ctx, id); err != nil {
		return nil, logUnexpected("review_history", id, err)
	}
	logs, err := s.Store.ReviewLogs(ctx, id)
	if err != nil {
		return nil, logUnexpected("review_history", id, err)
	}
	return logs, nil
}
