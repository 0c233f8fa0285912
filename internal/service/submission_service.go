package service

import (
	"context"
	"fmt"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
	"mentorhub_backend/pkg/tracing"
	"strconv"
)

// SubmissionListing 列表接口的完整响应
type SubmissionListing struct {
	Submissions []SubmissionView        `json:"submissions"`
	Pagination  util.Pagination         `json:"pagination"`
	Analytics   *model.AnalyticsSummary `json:"analytics"`
}

// SubmissionService 提交列表：查询构造、分页、统计、投影
type SubmissionService struct {
	Store     SubmissionStore
	Analytics *AnalyticsService
	Projector *Projector
	Settings  *Settings
}

func NewSubmissionService(store SubmissionStore, analytics *AnalyticsService, projector *Projector, settings *Settings) *SubmissionService {
	return &SubmissionService{Store: store, Analytics: analytics, Projector: projector, Settings: settings}
}

// ListSubmissions 管理员查看全部提交，导师只能看到分配给自己的提交
func (s *SubmissionService) ListSubmissions(ctx context.Context, actor Actor, filter SubmissionFilter, page PageRequest, sort SortSpec) (listing *SubmissionListing, err error) {
	ctx, span := tracing.StartSpan(ctx, "submission.list")
	defer func() { tracing.EndSpan(span, err) }()

	switch actor.Role {
	case model.Admin:
	case model.Mentor:
		filter.MentorID = strconv.FormatUint(uint64(actor.UserID), 10)
	default:
		return nil, util.ErrPermissionDenied
	}

	cfg := s.Settings.Get()
	q, err := BuildSubmissionQuery(filter, page, sort, cfg)
	if err != nil {
		return nil, err
	}
	page = page.Normalize(cfg)

	total, err := readWithRetry(ctx, func(ctx context.Context) (int64, error) {
		return s.Store.Count(ctx, q)
	})
	if err != nil {
		return nil, logUnexpected("list_submissions", filter, err)
	}
	submissions, err := readWithRetry(ctx, func(ctx context.Context) ([]model.Submission, error) {
		return s.Store.Find(ctx, q)
	})
	if err != nil {
		return nil, logUnexpected("list_submissions", filter, err)
	}

	views, err := s.Projector.Project(ctx, submissions)
	if err != nil {
		return nil, logUnexpected("list_submissions", filter, err)
	}
	analytics, err := s.Analytics.SummarizeQuery(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("summarize listing: %w", err)
	}

	return &SubmissionListing{
		Submissions: views,
		Pagination:  util.NewPagination(page.Page, page.Limit, total),
		Analytics:   analytics,
	}, nil
}
