package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"order-hub/apperrors"
	"order-hub/repository"
	"order-hub/services"
)

type ChannelController struct {
	policyService *services.ChannelPolicyService
}

func NewChannelController(policyService *services.ChannelPolicyService) *ChannelController {
	return &ChannelController{policyService: policyService}
}

// GetChannelConfig returns the effective config for a channel. Unknown
// channels return the observe-only default rather than a 404.
func (cc *ChannelController) GetChannelConfig(ctx *gin.Context) {
	channel := ctx.Param("channel")
	if channel == "" {
		ctx.Error(apperrors.Validation("channel is required"))
		return
	}

	cfg := cc.policyService.GetChannelConfig(ctx.Request.Context(), channel)
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": cfg})
}

type updateChannelConfigRequest struct {
	UsePaymentHub   *bool `json:"use_payment_hub"`
	ShadowMode      *bool `json:"shadow_mode"`
	CallbackEnabled *bool `json:"callback_enabled"`
}

func (cc *ChannelController) UpdateChannelConfig(ctx *gin.Context) {
	channel := ctx.Param("channel")
	if channel == "" {
		ctx.Error(apperrors.Validation("channel is required"))
		return
	}

	var req updateChannelConfigRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return
	}
	if req.UsePaymentHub == nil && req.ShadowMode == nil && req.CallbackEnabled == nil {
		ctx.Error(apperrors.Validation("At least one of use_payment_hub, shadow_mode, callback_enabled is required"))
		return
	}

	cfg, err := cc.policyService.UpdateChannelConfig(ctx.Request.Context(), channel, repository.ChannelConfigUpdate{
		UsePaymentHub:   req.UsePaymentHub,
		ShadowMode:      req.ShadowMode,
		CallbackEnabled: req.CallbackEnabled,
	})
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": cfg})
}
