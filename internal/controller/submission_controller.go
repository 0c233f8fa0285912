package controller

import (
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/service"
	"mentorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// SubmissionController 项目提交与审核相关接口
type SubmissionController struct {
	Reviews     *service.ReviewService
	Submissions *service.SubmissionService
}

func NewSubmissionController(reviews *service.ReviewService, submissions *service.SubmissionService) *SubmissionController {
	return &SubmissionController{Reviews: reviews, Submissions: submissions}
}

// ListSubmissionsRequest 列表查询参数
// swagger:model ListSubmissionsRequest
type ListSubmissionsRequest struct {
	Status    string `form:"status"`
	CareerID  string `form:"careerId"`
	MentorID  string `form:"mentorId"`
	DateFrom  string `form:"dateFrom"`
	DateTo    string `form:"dateTo"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
}

func (r ListSubmissionsRequest) filter() service.SubmissionFilter {
	return service.SubmissionFilter{
		Status:   r.Status,
		CareerID: r.CareerID,
		MentorID: r.MentorID,
		DateFrom: r.DateFrom,
		DateTo:   r.DateTo,
	}
}

// ReviewSubmissionRequest 单条审核请求，未提供的字段保持不变
// swagger:model ReviewSubmissionRequest
type ReviewSubmissionRequest struct {
	Status      *model.SubmissionStatus `json:"status"`
	Feedback    *string                 `json:"feedback"`
	Score       *float64                `json:"score"`
	ReviewNotes *string                 `json:"reviewNotes"`
}

// BulkReviewRequest 批量审核请求
// swagger:model BulkReviewRequest
type BulkReviewRequest struct {
	SubmissionIDs []string               `json:"submissionIds"`
	Status        model.SubmissionStatus `json:"status"`
	Feedback      *string                `json:"feedback"`
	Score         *float64               `json:"score"`
}

// AssignMentorRequest 分配导师请求
// swagger:model AssignMentorRequest
type AssignMentorRequest struct {
	MentorID uint `json:"mentorId" binding:"required"`
}

// CreateSubmissionRequest 新建提交请求
// swagger:model CreateSubmissionRequest
type CreateSubmissionRequest struct {
	LearnerID        uint             `json:"learnerId"`
	CareerID         *uint            `json:"careerId"`
	ProjectID        *string          `json:"projectId"`
	Title            string           `json:"title" binding:"required"`
	Description      string           `json:"description"`
	SubmissionURL    string           `json:"submissionUrl"`
	FileURL          string           `json:"fileUrl"`
	Attachments      []string         `json:"attachments"`
	TimeSpentMinutes int              `json:"timeSpentMinutes"`
	Difficulty       model.Difficulty `json:"difficulty"`
}

// currentActor 从 JWT claims 得到调用者身份
func currentActor(ctx *gin.Context) (service.Actor, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return service.Actor{}, false
	}
	return service.Actor{UserID: user.UserID, Role: user.Role}, true
}

// CreateSubmission godoc
// @Summary 提交项目作品
// @Description 学员提交项目作品，进入待审核状态；管理员可代学员提交
// @Tags 项目提交
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSubmissionRequest true "提交内容"
// @Success 201 {object} util.Response{data=service.SubmissionView} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "权限不足"
// @Router /api/submissions [post]
func (c *SubmissionController) CreateSubmission(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req CreateSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.Reviews.CreateSubmission(ctx.Request.Context(), actor, service.CreateSubmissionInput{
		LearnerID:        req.LearnerID,
		CareerID:         req.CareerID,
		ProjectID:        req.ProjectID,
		Title:            req.Title,
		Description:      req.Description,
		SubmissionURL:    req.SubmissionURL,
		FileURL:          req.FileURL,
		Attachments:      req.Attachments,
		TimeSpentMinutes: req.TimeSpentMinutes,
		Difficulty:       req.Difficulty,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, view)
}

// GetSubmission godoc
// @Summary 获取提交详情
// @Tags 项目提交
// @Produce json
// @Security BearerAuth
// @Param id path string true "提交ID"
// @Success 200 {object} util.Response{data=service.SubmissionView} "成功"
// @Failure 403 {object} util.Response "权限不足"
// @Failure 404 {object} util.Response "提交不存在"
// @Router /api/submissions/{id} [get]
func (c *SubmissionController) GetSubmission(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	view, err := c.Reviews.GetSubmission(ctx.Request.Context(), actor, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// ListSubmissions godoc
// @Summary 提交列表
// @Description 支持状态、职业方向、导师、提交日期筛选，分页与排序，并附带同一筛选条件下的统计；导师只能看到分配给自己的提交
// @Tags 项目审核
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态 pending/approved/rejected"
// @Param careerId query int false "职业方向ID"
// @Param mentorId query int false "导师ID"
// @Param dateFrom query string false "开始日期 2006-01-02"
// @Param dateTo query string false "结束日期 2006-01-02（包含当天）"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Param sortBy query string false "排序字段 submittedAt/updatedAt/reviewedAt/score/status/title"
// @Param sortOrder query string false "asc/desc" default(desc)
// @Success 200 {object} util.Response{data=service.SubmissionListing} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 503 {object} util.Response "存储暂不可用"
// @Router /api/admin/submissions [get]
func (c *SubmissionController) ListSubmissions(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req ListSubmissionsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	listing, err := c.Submissions.ListSubmissions(ctx.Request.Context(), actor,
		req.filter(),
		service.PageRequest{Page: req.Page, Limit: req.Limit},
		service.SortSpec{Field: req.SortBy, Direction: req.SortOrder},
	)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, listing)
}

// ReviewSubmission godoc
// @Summary 审核提交
// @Description 只修改提供的字段；每次调用都会把审核人设为当前用户并刷新审核时间
// @Tags 项目审核
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "提交ID"
// @Param request body ReviewSubmissionRequest true "审核内容"
// @Success 200 {object} util.Response{data=service.SubmissionView} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "提交不存在"
// @Failure 503 {object} util.Response "并发冲突或存储暂不可用"
// @Router /api/mentor/submissions/{id}/review [put]
func (c *SubmissionController) ReviewSubmission(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req ReviewSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.Reviews.ReviewSubmission(ctx.Request.Context(), actor, ctx.Param("id"), service.ReviewInput{
		Status:      req.Status,
		Feedback:    req.Feedback,
		Score:       req.Score,
		ReviewNotes: req.ReviewNotes,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// BulkReviewSubmissions godoc
// @Summary 批量审核
// @Description 不存在的ID会被跳过，返回实际更新数量与请求数量
// @Tags 项目审核
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BulkReviewRequest true "批量审核内容"
// @Success 200 {object} util.Response{data=service.BulkReviewResult} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/admin/submissions/bulk-review [put]
func (c *SubmissionController) BulkReviewSubmissions(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req BulkReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "submissionIds must be a list: "+err.Error())
		return
	}

	result, err := c.Reviews.BulkReviewSubmissions(ctx.Request.Context(), actor, service.BulkReviewInput{
		IDs:      req.SubmissionIDs,
		Status:   req.Status,
		Feedback: req.Feedback,
		Score:    req.Score,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// AssignMentor godoc
// @Summary 分配导师
// @Description 只修改导师，不改变审核状态与审核时间
// @Tags 项目审核
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "提交ID"
// @Param request body AssignMentorRequest true "导师"
// @Success 200 {object} util.Response{data=service.SubmissionView} "成功"
// @Failure 400 {object} util.Response "用户不存在或不是导师"
// @Failure 404 {object} util.Response "提交不存在"
// @Router /api/admin/submissions/{id}/assign-mentor [put]
func (c *SubmissionController) AssignMentor(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req AssignMentorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.Reviews.AssignMentor(ctx.Request.Context(), actor, ctx.Param("id"), req.MentorID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// DeleteSubmission godoc
// @Summary 删除提交
// @Description 物理删除，不可恢复
// @Tags 项目审核
// @Produce json
// @Security BearerAuth
// @Param id path string true "提交ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "提交不存在"
// @Router /api/admin/submissions/{id} [delete]
func (c *SubmissionController) DeleteSubmission(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	if err := c.Reviews.DeleteSubmission(ctx.Request.Context(), actor, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"id": ctx.Param("id")})
}

// ReviewHistory godoc
// @Summary 审核记录
// @Tags 项目审核
// @Produce json
// @Security BearerAuth
// @Param id path string true "提交ID"
// @Success 200 {object} util.Response{data=[]model.SubmissionReviewLog} "成功"
// @Failure 404 {object} util.Response "提交不存在"
// @Router /api/admin/submissions/{id}/reviews [get]
func (c *SubmissionController) ReviewHistory(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	logs, err := c.Reviews.ReviewHistory(ctx.Request.Context(), actor, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"reviews": logs})
}
