package controller

import (
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	sessions *service.SessionService
	reports  *service.ReportService
}

func NewSessionController(sessions *service.SessionService, reports *service.ReportService) *SessionController {
	return &SessionController{sessions: sessions, reports: reports}
}

// CreateSession godoc
// @Summary 开始一次练习
// @Tags 练习
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.StartSessionRequest true "练习岗位和主题"
// @Success 201 {object} util.Response{data=model.PracticeSession}
// @Router /api/sessions [post]
func (c *SessionController) CreateSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.sessions.Start(user.UserID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// ListSessions godoc
// @Summary 我的练习列表
// @Tags 练习
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param pageSize query int false "每页条数" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/sessions [get]
func (c *SessionController) ListSessions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page, pageSize := util.ParsePagination(ctx)
	sessions, total, err := c.sessions.List(user.UserID, page, pageSize)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  sessions,
		Total: total,
		Page:  page,
		Limit: pageSize,
	})
}

// GetSession godoc
// @Summary 练习详情（含答题记录）
// @Tags 练习
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "练习ID"
// @Success 200 {object} util.Response{data=model.PracticeSession}
// @Failure 404 {object} util.Response
// @Router /api/sessions/{id} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.sessions.Get(user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// RecordResult godoc
// @Summary 提交一道题的作答结果
// @Description 记录结果并重新计算难度
// @Tags 练习
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "练习ID"
// @Param body body service.RecordResultInput true "作答结果"
// @Success 200 {object} util.Response{data=service.DifficultyUpdate}
// @Failure 409 {object} util.Response
// @Router /api/sessions/{id}/results [post]
func (c *SessionController) RecordResult(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var in service.RecordResultInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	update, err := c.sessions.RecordResult(ctx.Request.Context(), user.UserID, ctx.Param("id"), in)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, update)
}

// CompleteSession godoc
// @Summary 结束练习
// @Tags 练习
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "练习ID"
// @Success 200 {object} util.Response{data=model.PracticeSession}
// @Router /api/sessions/{id}/complete [post]
func (c *SessionController) CompleteSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.sessions.Complete(user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// ExportSession godoc
// @Summary 导出练习报告
// @Description 仅已结束的练习可导出，报告以 JSON 上传到对象存储
// @Tags 练习
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "练习ID"
// @Success 200 {object} util.Response{data=service.ExportResult}
// @Failure 409 {object} util.Response
// @Router /api/sessions/{id}/export [post]
func (c *SessionController) ExportSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.reports.ExportSession(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
