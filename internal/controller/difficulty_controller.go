package controller

import (
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/difficulty"

	"github.com/gin-gonic/gin"
)

type DifficultyController struct {
	service *service.DifficultyService
}

func NewDifficultyController(s *service.DifficultyService) *DifficultyController {
	return &DifficultyController{service: s}
}

type CalculateDifficultyRequest struct {
	History           []difficulty.QuestionResult `json:"history"`
	CurrentDifficulty float64                     `json:"currentDifficulty" binding:"required,gte=1,lte=10"`
}

type ScoreConfidenceRequest struct {
	AnswerText       string   `json:"answerText"`
	ExpectedKeywords []string `json:"expectedKeywords"`
}

// GetDifficulty godoc
// @Summary 获取我的当前难度
// @Tags 难度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.DifficultyState}
// @Router /api/difficulty [get]
func (c *DifficultyController) GetDifficulty(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	state, err := c.service.State(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// Calculate godoc
// @Summary 根据给定历史计算推荐难度
// @Description 纯计算，不读写任何用户状态。history 按时间升序
// @Tags 难度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CalculateDifficultyRequest true "答题历史和当前难度"
// @Success 200 {object} util.Response{data=difficulty.Result}
// @Router /api/difficulty/calculate [post]
func (c *DifficultyController) Calculate(ctx *gin.Context) {
	var req CalculateDifficultyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Success(ctx, difficulty.CalculateNextDifficulty(req.History, req.CurrentDifficulty))
}

// ScoreConfidence godoc
// @Summary 估算回答的置信度
// @Tags 难度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ScoreConfidenceRequest true "回答内容"
// @Success 200 {object} util.Response
// @Router /api/confidence/score [post]
func (c *DifficultyController) ScoreConfidence(ctx *gin.Context) {
	var req ScoreConfidenceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Success(ctx, gin.H{
		"confidence": difficulty.ScoreAnswerConfidence(req.AnswerText, req.ExpectedKeywords),
	})
}
