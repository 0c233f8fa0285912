package model

// AnalyticsSummary 某个筛选范围内的提交统计
type AnalyticsSummary struct {
	Total              int64   `json:"total"`
	Pending            int64   `json:"pending"`
	Approved           int64   `json:"approved"`
	Rejected           int64   `json:"rejected"`
	ApprovalRate       float64 `json:"approvalRate"`       // 百分比，保留一位小数
	AvgReviewTimeHours int64   `json:"avgReviewTimeHours"` // 基于 updatedAt - submittedAt
}

// MentorWorkload 导师工作量
type MentorWorkload struct {
	MentorID           uint   `json:"mentorId"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	PendingCount       int64  `json:"pendingCount"`
	TotalCount         int64  `json:"totalCount"`
	AvgReviewTimeHours int64  `json:"avgReviewTimeHours"` // 基于 reviewedAt - submittedAt
}

// MentorCounts 按导师分组的计数
type MentorCounts struct {
	MentorID uint  `json:"mentorId"`
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
}
