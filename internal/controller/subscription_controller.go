package controller

import (
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubscriptionController struct {
	service *service.SubscriptionService
}

func NewSubscriptionController(s *service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{service: s}
}

// GetSubscription godoc
// @Summary 获取我的订阅
// @Tags 订阅
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.Subscription}
// @Failure 402 {object} util.Response
// @Router /api/subscription [get]
func (c *SubscriptionController) GetSubscription(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	sub, err := c.service.Get(user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, sub)
}

// StartTrial godoc
// @Summary 开始试用
// @Description 每个用户只能试用一次
// @Tags 订阅
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response{data=model.Subscription}
// @Failure 409 {object} util.Response
// @Router /api/subscription/trial [post]
func (c *SubscriptionController) StartTrial(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	sub, err := c.service.StartTrial(user.UserID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, sub)
}

// GrantSubscription godoc
// @Summary 管理员设置用户订阅
// @Tags 订阅
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Param body body service.GrantSubscriptionRequest true "订阅信息"
// @Success 200 {object} util.Response{data=model.Subscription}
// @Router /api/admin/subscriptions/{userId} [put]
func (c *SubscriptionController) GrantSubscription(ctx *gin.Context) {
	userID := util.MustParseUint(ctx.Param("userId"))
	if userID == 0 {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	var req service.GrantSubscriptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.service.Grant(userID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, sub)
}
