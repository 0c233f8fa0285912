package service

import (
	"fmt"
	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/repository"
	"mentorhub_backend/internal/util"
	"strconv"
	"strings"
	"time"
)

// SubmissionFilter 列表与统计共用的筛选条件，空字段表示不筛选
type SubmissionFilter struct {
	Status   string
	CareerID string
	MentorID string
	DateFrom string
	DateTo   string
}

type PageRequest struct {
	Page  int
	Limit int
}

type SortSpec struct {
	Field     string
	Direction string // asc | desc
}

// 可排序字段 -> 数据库列
var sortColumns = map[string]string{
	"submittedAt": "submitted_at",
	"updatedAt":   "updated_at",
	"reviewedAt":  "reviewed_at",
	"score":       "score",
	"status":      "status",
	"title":       "title",
}

const defaultSortColumn = "submitted_at"

// Normalize 页码从 1 开始，每页条数限制在 [1, MaxPageSize]
func (p PageRequest) Normalize(cfg config.ReviewConfig) PageRequest {
	cfg.Normalize()
	if p.Page < 1 {
		p.Page = util.DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = cfg.DefaultPageSize
	}
	if p.Limit > cfg.MaxPageSize {
		p.Limit = cfg.MaxPageSize
	}
	return p
}

func parseFilterID(name, raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: %s must be a positive integer", util.ErrInvalidInput, name)
	}
	v := uint(id)
	return &v, nil
}

// FilterQuery 只包含筛选条件的查询，用于计数与统计
func FilterQuery(filter SubmissionFilter) (repository.SubmissionQuery, error) {
	var q repository.SubmissionQuery

	if filter.Status != "" {
		status := model.SubmissionStatus(filter.Status)
		if !status.Valid() {
			return q, fmt.Errorf("%w: unknown status %q", util.ErrInvalidInput, filter.Status)
		}
		q.Status = &status
	}

	var err error
	if q.CareerID, err = parseFilterID("careerId", filter.CareerID); err != nil {
		return q, err
	}
	if q.MentorID, err = parseFilterID("mentorId", filter.MentorID); err != nil {
		return q, err
	}

	// 日期格式不合法时视为未提供
	if from, _, ok := util.ParseDate(filter.DateFrom); ok {
		q.SubmittedFrom = &from
	}
	if to, dateOnly, ok := util.ParseDate(filter.DateTo); ok {
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		q.SubmittedTo = &to
	}
	return q, nil
}

// BuildSubmissionQuery 将筛选、分页、排序组合为存储层查询
// 默认按提交时间倒序
func BuildSubmissionQuery(filter SubmissionFilter, page PageRequest, sort SortSpec, cfg config.ReviewConfig) (repository.SubmissionQuery, error) {
	q, err := FilterQuery(filter)
	if err != nil {
		return q, err
	}

	page = page.Normalize(cfg)
	q.Offset = (page.Page - 1) * page.Limit
	q.Limit = page.Limit

	column, ok := sortColumns[sort.Field]
	if !ok {
		q.OrderBy = defaultSortColumn
		q.Desc = true
		return q, nil
	}
	q.OrderBy = column
	q.Desc = !strings.EqualFold(sort.Direction, "asc")
	return q, nil
}
