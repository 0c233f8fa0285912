package repository

import (
	"context"
	"fmt"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionQuery 由查询构造器生成的类型化查询条件
type SubmissionQuery struct {
	Status        *model.SubmissionStatus
	Statuses      []model.SubmissionStatus
	CareerID      *uint
	MentorID      *uint
	MentorSet     bool // 仅统计已分配导师的记录
	SubmittedFrom *time.Time
	SubmittedTo   *time.Time

	OrderBy string // 数据库列名
	Desc    bool
	Offset  int
	Limit   int // 0 表示不分页
}

// WithStatus 在原条件上追加状态约束，不修改原查询
// 与已有状态条件互斥时 ok 为 false，调用方无需再查询
func (q SubmissionQuery) WithStatus(status model.SubmissionStatus) (SubmissionQuery, bool) {
	if q.Status != nil && *q.Status != status {
		return q, false
	}
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, status) {
		return q, false
	}
	q.Status = &status
	return q, true
}

func containsStatus(statuses []model.SubmissionStatus, status model.SubmissionStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Unpaged 去掉分页和排序，用于计数与聚合
func (q SubmissionQuery) Unpaged() SubmissionQuery {
	q.Offset = 0
	q.Limit = 0
	q.OrderBy = ""
	return q
}

// ReviewWrite 一次审核写入的字段集
// 状态、导师、审核时间总是写入；Feedback/Score/ReviewNotes 为 nil 时保持原值
type ReviewWrite struct {
	Status      model.SubmissionStatus
	Feedback    *string
	Score       *float64
	ReviewNotes *string
	MentorID    uint
	ReviewedAt  time.Time
}

func (w ReviewWrite) columns() map[string]interface{} {
	cols := map[string]interface{}{
		"status":      w.Status,
		"mentor_id":   w.MentorID,
		"reviewed_at": w.ReviewedAt,
		"updated_at":  w.ReviewedAt,
		"version":     gorm.Expr("version + 1"),
	}
	if w.Feedback != nil {
		cols["feedback"] = *w.Feedback
	}
	if w.Score != nil {
		cols["score"] = *w.Score
	}
	if w.ReviewNotes != nil {
		cols["review_notes"] = *w.ReviewNotes
	}
	return cols
}

func (w ReviewWrite) logFor(submissionID string, bulk bool) model.SubmissionReviewLog {
	entry := model.SubmissionReviewLog{
		SubmissionID: submissionID,
		ReviewerID:   w.MentorID,
		Status:       w.Status,
		Score:        w.Score,
		Bulk:         bulk,
		ReviewedAt:   w.ReviewedAt,
	}
	if w.Feedback != nil {
		entry.Feedback = *w.Feedback
	}
	return entry
}

// DurationEnd 计算审核耗时所用的结束时间列
type DurationEnd string

const (
	EndUpdatedAt  DurationEnd = "updated_at"
	EndReviewedAt DurationEnd = "reviewed_at"
)

// DurationGroup 分组平均耗时，未分组时 MentorID 为空
type DurationGroup struct {
	MentorID *uint
	AvgHours float64
	Samples  int64
}

type SubmissionRepository struct {
	boundedDB
}

func NewSubmissionRepository(db *gorm.DB, timeout time.Duration) *SubmissionRepository {
	return &SubmissionRepository{boundedDB{DB: db, Timeout: timeout}}
}

func applyFilter(db *gorm.DB, q SubmissionQuery) *gorm.DB {
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if len(q.Statuses) > 0 {
		db = db.Where("status IN ?", q.Statuses)
	}
	if q.CareerID != nil {
		db = db.Where("career_id = ?", *q.CareerID)
	}
	if q.MentorID != nil {
		db = db.Where("mentor_id = ?", *q.MentorID)
	}
	if q.MentorSet {
		db = db.Where("mentor_id IS NOT NULL")
	}
	if q.SubmittedFrom != nil {
		db = db.Where("submitted_at >= ?", *q.SubmittedFrom)
	}
	if q.SubmittedTo != nil {
		db = db.Where("submitted_at <= ?", *q.SubmittedTo)
	}
	return db
}

func (r *SubmissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	return r.run(ctx, "submission.create", func(db *gorm.DB) error {
		return db.Create(submission).Error
	})
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	var submission model.Submission
	err := r.run(ctx, "submission.find_by_id", func(db *gorm.DB) error {
		return db.First(&submission, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionRepository) Find(ctx context.Context, q SubmissionQuery) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.run(ctx, "submission.find", func(db *gorm.DB) error {
		query := applyFilter(db.Model(&model.Submission{}), q)
		if q.OrderBy != "" {
			query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderBy}, Desc: q.Desc})
		}
		// 主键作为次级排序，保证分页稳定
		query = query.Order("id asc")
		if q.Limit > 0 {
			query = query.Offset(q.Offset).Limit(q.Limit)
		}
		return query.Find(&submissions).Error
	})
	return submissions, err
}

func (r *SubmissionRepository) Count(ctx context.Context, q SubmissionQuery) (int64, error) {
	var total int64
	err := r.run(ctx, "submission.count", func(db *gorm.DB) error {
		return applyFilter(db.Model(&model.Submission{}), q.Unpaged()).Count(&total).Error
	})
	return total, err
}

// ApplyReview 基于版本号的比较写入，版本不一致时返回 false 且不写入任何内容
func (r *SubmissionRepository) ApplyReview(ctx context.Context, id string, expectedVersion int, w ReviewWrite) (bool, error) {
	applied := false
	err := r.run(ctx, "submission.apply_review", func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&model.Submission{}).
				Where("id = ? AND version = ?", id, expectedVersion).
				Updates(w.columns())
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}
			applied = true
			entry := w.logFor(id, false)
			return tx.Create(&entry).Error
		})
	})
	return applied, err
}

// ApplyBulkReview 在一个事务内批量审核，不存在的 ID 直接跳过
func (r *SubmissionRepository) ApplyBulkReview(ctx context.Context, ids []string, w ReviewWrite) (int64, error) {
	var updated int64
	err := r.run(ctx, "submission.apply_bulk_review", func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			var existing []string
			if err := tx.Model(&model.Submission{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
				return err
			}
			if len(existing) == 0 {
				return nil
			}

			res := tx.Model(&model.Submission{}).Where("id IN ?", existing).Updates(w.columns())
			if res.Error != nil {
				return res.Error
			}
			updated = res.RowsAffected

			logs := make([]model.SubmissionReviewLog, 0, len(existing))
			for _, id := range existing {
				logs = append(logs, w.logFor(id, true))
			}
			return tx.Create(&logs).Error
		})
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// AssignMentor 只修改导师，不影响状态和审核时间
func (r *SubmissionRepository) AssignMentor(ctx context.Context, id string, expectedVersion int, mentorID uint, at time.Time) (bool, error) {
	applied := false
	err := r.run(ctx, "submission.assign_mentor", func(db *gorm.DB) error {
		res := db.Model(&model.Submission{}).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(map[string]interface{}{
				"mentor_id":  mentorID,
				"updated_at": at,
				"version":    gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		applied = res.RowsAffected > 0
		return nil
	})
	return applied, err
}

// Delete 物理删除提交及其审核记录
func (r *SubmissionRepository) Delete(ctx context.Context, id string) error {
	return r.run(ctx, "submission.delete", func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			res := tx.Delete(&model.Submission{}, "id = ?", id)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
			return tx.Where("submission_id = ?", id).Delete(&model.SubmissionReviewLog{}).Error
		})
	})
}

func (r *SubmissionRepository) ReviewLogs(ctx context.Context, submissionID string) ([]model.SubmissionReviewLog, error) {
	var logs []model.SubmissionReviewLog
	err := r.run(ctx, "submission.review_logs", func(db *gorm.DB) error {
		return db.Where("submission_id = ?", submissionID).
			Order("reviewed_at desc, id desc").
			Find(&logs).Error
	})
	return logs, err
}

// CountByMentor 按导师统计总数与待审数
func (r *SubmissionRepository) CountByMentor(ctx context.Context) ([]model.MentorCounts, error) {
	var rows []model.MentorCounts
	err := r.run(ctx, "submission.count_by_mentor", func(db *gorm.DB) error {
		return db.Model(&model.Submission{}).
			Select("mentor_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS pending", model.StatusPending).
			Where("mentor_id IS NOT NULL").
			Group("mentor_id").
			Scan(&rows).Error
	})
	return rows, err
}

// hoursExpr 各方言下 (end - submitted_at) 的小时数表达式
func hoursExpr(db *gorm.DB, end DurationEnd) string {
	if db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("(julianday(%s) - julianday(submitted_at)) * 24.0", end)
	}
	return fmt.Sprintf("TIMESTAMPDIFF(SECOND, submitted_at, %s) / 3600.0", end)
}

// AverageDurationHours 分组聚合原语：按导师（或不分组）求 end - submitted_at 的平均小时数
func (r *SubmissionRepository) AverageDurationHours(ctx context.Context, q SubmissionQuery, end DurationEnd, groupByMentor bool) ([]DurationGroup, error) {
	if end != EndUpdatedAt && end != EndReviewedAt {
		return nil, fmt.Errorf("%w: unsupported duration column %q", util.ErrInvalidInput, end)
	}

	type row struct {
		MentorID *uint
		AvgHours *float64
		Samples  int64
	}
	var rows []row
	err := r.run(ctx, "submission.average_duration", func(db *gorm.DB) error {
		selectCols := fmt.Sprintf("AVG(%s) AS avg_hours, COUNT(*) AS samples", hoursExpr(db, end))
		query := applyFilter(db.Model(&model.Submission{}), q.Unpaged()).
			Where(fmt.Sprintf("%s IS NOT NULL", end))
		if groupByMentor {
			query = query.Select("mentor_id, " + selectCols).Group("mentor_id")
		} else {
			query = query.Select(selectCols)
		}
		return query.Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	groups := make([]DurationGroup, 0, len(rows))
	for _, rw := range rows {
		if rw.Samples == 0 || rw.AvgHours == nil {
			continue
		}
		groups = append(groups, DurationGroup{MentorID: rw.MentorID, AvgHours: *rw.AvgHours, Samples: rw.Samples})
	}
	return groups, nil
}

// BackfillReviewedAt 修复历史数据：已审核但缺少 reviewed_at 的记录以 updated_at 补齐
func (r *SubmissionRepository) BackfillReviewedAt(ctx context.Context) (int64, error) {
	var affected int64
	err := r.run(ctx, "submission.backfill_reviewed_at", func(db *gorm.DB) error {
		res := db.Model(&model.Submission{}).
			Where("status <> ? AND reviewed_at IS NULL", model.StatusPending).
			UpdateColumn("reviewed_at", gorm.Expr("updated_at"))
		affected = res.RowsAffected
		return res.Error
	})
	return affected, err
}
