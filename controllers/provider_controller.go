package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"order-hub/apperrors"
	"order-hub/services"
)

type ProviderController struct {
	providerService *services.ProviderService
}

func NewProviderController(providerService *services.ProviderService) *ProviderController {
	return &ProviderController{providerService: providerService}
}

func (pc *ProviderController) GetProviders(ctx *gin.Context) {
	includeDisabled := ctx.Query("include_disabled") == "true"

	providers, err := pc.providerService.GetAllProviders(ctx.Request.Context(), includeDisabled)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": providers})
}

func (pc *ProviderController) GetProvider(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	provider, err := pc.providerService.GetProviderByID(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": provider})
}

func (pc *ProviderController) CreateProvider(ctx *gin.Context) {
	var req services.CreateProviderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return
	}

	provider, err := pc.providerService.CreateProvider(ctx.Request.Context(), &req)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": provider})
}

func (pc *ProviderController) UpdateProvider(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req services.UpdateProviderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return
	}

	provider, err := pc.providerService.UpdateProvider(ctx.Request.Context(), id, &req)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": provider})
}

func (pc *ProviderController) DeleteProvider(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := pc.providerService.DeleteProvider(ctx.Request.Context(), id); err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"deleted": true}})
}

// TestProvider runs a live connectivity check with the stored credentials.
func (pc *ProviderController) TestProvider(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	result, err := pc.providerService.TestProviderConnection(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
