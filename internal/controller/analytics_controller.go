package controller

import (
	"mentorhub_backend/internal/service"
	"mentorhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// @Summary 提交统计
// @Description 按任意筛选条件统计提交数量、通过率和平均审核耗时
// @Tags 审核分析
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态"
// @Param careerId query int false "职业方向ID"
// @Param mentorId query int false "导师ID"
// @Param dateFrom query string false "开始日期"
// @Param dateTo query string false "结束日期"
// @Success 200 {object} util.Response{data=model.AnalyticsSummary}
// @Failure 400 {object} util.Response "筛选条件不合法"
// @Router /api/admin/submissions/analytics [get]
func (c *AnalyticsController) GetSubmissionAnalytics(ctx *gin.Context) {
	if _, ok := currentActor(ctx); !ok {
		return
	}

	var req ListSubmissionsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	summary, err := c.AnalyticsService.Summarize(ctx.Request.Context(), req.filter())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}

// @Summary 导师工作量
// @Description 每位导师的待审数量、总数量与平均审核耗时，没有提交的导师也会列出
// @Tags 审核分析
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.MentorWorkload}
// @Router /api/admin/mentors/workload [get]
func (c *AnalyticsController) GetMentorWorkloads(ctx *gin.Context) {
	if _, ok := currentActor(ctx); !ok {
		return
	}

	workloads, err := c.AnalyticsService.MentorWorkloads(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"mentors": workloads})
}
