package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UsageController struct {
	quota *service.QuotaService
	now   func() time.Time
}

func NewUsageController(quota *service.QuotaService) *UsageController {
	return &UsageController{quota: quota, now: time.Now}
}

// GetUsage godoc
// @Summary 查询今日 prompt 配额
// @Description 只读检查，不消耗配额
// @Tags 配额
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.UsageStatus}
// @Router /api/usage [get]
func (c *UsageController) GetUsage(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	status, err := c.quota.CanMakePrompt(ctx.Request.Context(), user.UserID, c.now())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, status)
}

// GetHistory godoc
// @Summary 查询最近几天的使用记录
// @Tags 配额
// @Produce json
// @Security ApiKeyAuth
// @Param days query int false "天数，最多 90" default(7)
// @Success 200 {object} util.Response{data=[]model.UsageRecord}
// @Router /api/usage/history [get]
func (c *UsageController) GetHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	days, err := strconv.Atoi(ctx.DefaultQuery("days", "7"))
	if err != nil {
		util.BadRequest(ctx, "days must be an integer")
		return
	}

	records, err := c.quota.History(ctx.Request.Context(), user.UserID, days)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, records)
}

// TrackUsage godoc
// @Summary 记录一次 prompt 调用
// @Description 原子地占用一次配额；超出上限返回 429，无订阅 402，订阅过期 403
// @Tags 配额
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.TrackResult}
// @Failure 402 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 429 {object} util.Response{data=service.TrackResult}
// @Router /api/usage/track [post]
func (c *UsageController) TrackUsage(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.quota.TrackPrompt(ctx.Request.Context(), user.UserID, c.now())
	if errors.Is(err, util.ErrQuotaExceeded) {
		util.ErrorWithData(ctx, http.StatusTooManyRequests, err.Error(), result)
		return
	}
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
