package service

import (
	"context"
	"math"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/repository"
	"mentorhub_backend/pkg/tracing"
	"sort"
)

// AnalyticsService 提交统计与导师工作量
type AnalyticsService struct {
	Store SubmissionStore
	Users UserDirectory
	Cache SummaryCache
}

func NewAnalyticsService(store SubmissionStore, users UserDirectory, cache SummaryCache) *AnalyticsService {
	return &AnalyticsService{Store: store, Users: users, Cache: cache}
}

// roundTo 保留 places 位小数
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func approvalRate(approved, total int64) float64 {
	if total == 0 {
		return 0
	}
	return roundTo(float64(approved)/float64(total)*100, 1)
}

// Summarize 统计筛选范围内的提交
// 平均审核耗时按 updatedAt - submittedAt 计算，包含重复审核所经过的时间
func (s *AnalyticsService) Summarize(ctx context.Context, filter SubmissionFilter) (summary *model.AnalyticsSummary, err error) {
	q, err := FilterQuery(filter)
	if err != nil {
		return nil, err
	}
	return s.SummarizeQuery(ctx, q)
}

// SummarizeQuery 列表接口复用已构造好的查询，分页与排序会被忽略
func (s *AnalyticsService) SummarizeQuery(ctx context.Context, q repository.SubmissionQuery) (summary *model.AnalyticsSummary, err error) {
	ctx, span := tracing.StartSpan(ctx, "analytics.summarize")
	defer func() { tracing.EndSpan(span, err) }()

	q = q.Unpaged()
	count := func(q repository.SubmissionQuery) (int64, error) {
		return readWithRetry(ctx, func(ctx context.Context) (int64, error) {
			return s.Store.Count(ctx, q)
		})
	}

	countStatus := func(status model.SubmissionStatus) (int64, error) {
		scoped, ok := q.WithStatus(status)
		if !ok {
			return 0, nil
		}
		return count(scoped)
	}

	summary = &model.AnalyticsSummary{}
	if summary.Total, err = count(q); err != nil {
		return nil, logUnexpected("analytics_summary", q, err)
	}
	if summary.Total == 0 {
		return summary, nil
	}
	if summary.Pending, err = countStatus(model.StatusPending); err != nil {
		return nil, logUnexpected("analytics_summary", q, err)
	}
	if summary.Approved, err = countStatus(model.StatusApproved); err != nil {
		return nil, logUnexpected("analytics_summary", q, err)
	}
	if summary.Rejected, err = countStatus(model.StatusRejected); err != nil {
		return nil, logUnexpected("analytics_summary", q, err)
	}
	summary.ApprovalRate = approvalRate(summary.Approved, summary.Total)

	reviewed := q
	reviewed.Statuses = []model.SubmissionStatus{model.StatusApproved, model.StatusRejected}
	reviewed.MentorSet = true
	groups, err := readWithRetry(ctx, func(ctx context.Context) ([]repository.DurationGroup, error) {
		return s.Store.AverageDurationHours(ctx, reviewed, repository.EndUpdatedAt, false)
	})
	if err != nil {
		return nil, logUnexpected("analytics_summary", q, err)
	}
	if len(groups) > 0 {
		summary.AvgReviewTimeHours = int64(math.Round(groups[0].AvgHours))
	}
	return summary, nil
}

// MentorWorkloads 所有导师都会出现，没有提交的导师各项为 0
// 平均审核耗时按 reviewedAt - submittedAt 计算
func (s *AnalyticsService) MentorWorkloads(ctx context.Context) (workloads []model.MentorWorkload, err error) {
	ctx, span := tracing.StartSpan(ctx, "analytics.mentor_workloads")
	defer func() { tracing.EndSpan(span, err) }()

	var generation int64
	if s.Cache != nil {
		if cached, ok := s.Cache.GetWorkloads(ctx); ok {
			return cached, nil
		}
		// 先取代数再读库，读取期间的失效会使本次结果不被缓存
		generation = s.Cache.Generation(ctx)
	}

	mentors, err := readWithRetry(ctx, func(ctx context.Context) ([]model.User, error) {
		return s.Users.FindByRole(ctx, model.Mentor)
	})
	if err != nil {
		return nil, logUnexpected("mentor_workloads", nil, err)
	}
	counts, err := readWithRetry(ctx, s.Store.CountByMentor)
	if err != nil {
		return nil, logUnexpected("mentor_workloads", nil, err)
	}
	reviewed := repository.SubmissionQuery{
		Statuses:  []model.SubmissionStatus{model.StatusApproved, model.StatusRejected},
		MentorSet: true,
	}
	durations, err := readWithRetry(ctx, func(ctx context.Context) ([]repository.DurationGroup, error) {
		return s.Store.AverageDurationHours(ctx, reviewed, repository.EndReviewedAt, true)
	})
	if err != nil {
		return nil, logUnexpected("mentor_workloads", nil, err)
	}

	countByMentor := make(map[uint]model.MentorCounts, len(counts))
	for _, c := range counts {
		countByMentor[c.MentorID] = c
	}
	avgByMentor := make(map[uint]float64, len(durations))
	for _, d := range durations {
		if d.MentorID != nil {
			avgByMentor[*d.MentorID] = d.AvgHours
		}
	}

	workloads = make([]model.MentorWorkload, 0, len(mentors))
	for _, m := range mentors {
		c := countByMentor[m.ID]
		workloads = append(workloads, model.MentorWorkload{
			MentorID:           m.ID,
			Name:               m.Name,
			Email:              m.Email,
			PendingCount:       c.Pending,
			TotalCount:         c.Total,
			AvgReviewTimeHours: int64(math.Round(avgByMentor[m.ID])),
		})
	}
	sort.SliceStable(workloads, func(i, j int) bool {
		if workloads[i].PendingCount != workloads[j].PendingCount {
			return workloads[i].PendingCount > workloads[j].PendingCount
		}
		return workloads[i].Name < workloads[j].Name
	})

	if s.Cache != nil {
		s.Cache.SetWorkloads(ctx, generation, workloads)
	}
	return workloads, nil
}
