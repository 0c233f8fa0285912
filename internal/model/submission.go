package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Reviewed approved / rejected 都视为已审核
func (s SubmissionStatus) Reviewed() bool {
	return s == StatusApproved || s == StatusRejected
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Submission 学员提交的项目作品
// 删除为物理删除，因此没有 DeletedAt 字段
// swagger:model Submission
type Submission struct {
	ID        string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	LearnerID uint    `gorm:"index;not null" json:"learnerId"`
	CareerID  *uint   `gorm:"index" json:"careerId"`
	MentorID  *uint   `gorm:"index" json:"mentorId"`
	ProjectID *string `gorm:"size:64;index" json:"projectId"`

	Title            string                      `gorm:"size:255;not null" json:"title"`
	Description      string                      `gorm:"type:text" json:"description"`
	SubmissionURL    string                      `gorm:"size:500" json:"submissionUrl"`
	FileURL          string                      `gorm:"size:500" json:"fileUrl"`
	Attachments      datatypes.JSONSlice[string] `json:"attachments"`
	TimeSpentMinutes int                         `gorm:"default:0" json:"timeSpentMinutes"`
	Difficulty       Difficulty                  `gorm:"size:20;default:'medium'" json:"difficulty"`

	Status      SubmissionStatus `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	Feedback    string           `gorm:"type:text" json:"feedback"`
	Score       *float64         `json:"score"`
	ReviewNotes string           `gorm:"type:text" json:"reviewNotes"`
	ReviewedAt  *time.Time       `json:"reviewedAt"`

	SubmittedAt time.Time `gorm:"index;not null" json:"submittedAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`
	Version     int       `gorm:"not null;default:1" json:"-"`
}

func (Submission) TableName() string {
	return "project_submissions"
}

func (s *Submission) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = GenerateUUID()
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.SubmittedAt
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return
}

// SubmissionReviewLog 审核留痕，每次单条或批量审核各写一条
// swagger:model SubmissionReviewLog
type SubmissionReviewLog struct {
	ID           uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	SubmissionID string           `gorm:"index;type:varchar(36);not null" json:"submissionId"`
	ReviewerID   uint             `gorm:"index;not null" json:"reviewerId"`
	Status       SubmissionStatus `gorm:"size:20;not null" json:"status"`
	Score        *float64         `json:"score"`
	Feedback     string           `gorm:"type:text" json:"feedback"`
	Bulk         bool             `gorm:"default:false" json:"bulk"`
	ReviewedAt   time.Time        `gorm:"not null" json:"reviewedAt"`
}

func (SubmissionReviewLog) TableName() string {
	return "submission_review_logs"
}
