package controller

import (
	"errors"
	"net/http"

	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PromptController struct {
	service *service.PromptService
}

func NewPromptController(s *service.PromptService) *PromptController {
	return &PromptController{service: s}
}

// GenerateQuestion godoc
// @Summary 生成一道面试题
// @Description 消耗一次 prompt 配额，按当前难度出题
// @Tags AI
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.GenerateQuestionRequest true "岗位和主题"
// @Success 200 {object} util.Response{data=service.GeneratedQuestion}
// @Failure 429 {object} util.Response
// @Router /api/prompts/question [post]
func (c *PromptController) GenerateQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.GenerateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.service.GenerateQuestion(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		handlePromptError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// GenerateFeedback godoc
// @Summary 点评回答
// @Description 消耗一次 prompt 配额，返回 AI 点评和置信度估计
// @Tags AI
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.GenerateFeedbackRequest true "题目和回答"
// @Success 200 {object} util.Response{data=service.GeneratedFeedback}
// @Failure 429 {object} util.Response
// @Router /api/prompts/feedback [post]
func (c *PromptController) GenerateFeedback(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.GenerateFeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	feedback, err := c.service.GenerateFeedback(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		handlePromptError(ctx, err)
		return
	}
	util.Success(ctx, feedback)
}

// 配额类错误按业务错误处理，AI 空回复返回 502
func handlePromptError(ctx *gin.Context, err error) {
	if util.StatusFor(err) != 0 {
		util.HandleServiceError(ctx, err)
		return
	}
	if errors.Is(err, util.ErrEmptyAIResponse) {
		util.Error(ctx, http.StatusBadGateway, err.Error())
		return
	}
	util.LogInternalError(ctx, err)
}
