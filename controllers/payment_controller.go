package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"order-hub/apperrors"
	"order-hub/models"
	"order-hub/services"
)

type PaymentController struct {
	paymentService *services.PaymentService
}

func NewPaymentController(paymentService *services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

func (pc *PaymentController) CreatePayment(ctx *gin.Context) {
	var req services.CreatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return
	}

	payment, err := pc.paymentService.CreatePayment(ctx.Request.Context(), &req)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": payment})
}

func (pc *PaymentController) GetPayment(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	payment, err := pc.paymentService.GetPaymentByID(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": payment})
}

func (pc *PaymentController) GetPaymentsByOrder(ctx *gin.Context) {
	orderID, ok := parseUUIDParam(ctx, "order_id")
	if !ok {
		return
	}

	payments, err := pc.paymentService.GetPaymentsByOrderID(ctx.Request.Context(), orderID)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": payments})
}

func (pc *PaymentController) GetPaymentsByStatus(ctx *gin.Context) {
	status := models.PaymentStatus(ctx.Query("status"))
	if status == "" {
		ctx.Error(apperrors.Validation("status query parameter is required"))
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))
	payments, err := pc.paymentService.GetPaymentsByStatus(ctx.Request.Context(), status, limit)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": payments})
}

type updatePaymentStatusRequest struct {
	Status    models.PaymentStatus `json:"status" binding:"required"`
	ChangedBy string               `json:"changed_by"`
	Reason    string               `json:"reason"`
}

func (pc *PaymentController) UpdatePaymentStatus(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req updatePaymentStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return
	}

	if err := pc.paymentService.UpdatePaymentStatus(ctx.Request.Context(), id, req.Status, req.ChangedBy, req.Reason); err != nil {
		ctx.Error(err)
		return
	}

	payment, err := pc.paymentService.GetPaymentByID(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": payment})
}

func (pc *PaymentController) UpdatePayment(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req services.UpdatePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return
	}

	payment, err := pc.paymentService.UpdatePayment(ctx.Request.Context(), id, &req)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": payment})
}

func (pc *PaymentController) GetPaymentHistory(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	history, err := pc.paymentService.GetPaymentHistory(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": history})
}

// GetPaymentSummary returns the reconciliation figures for one order.
func (pc *PaymentController) GetPaymentSummary(ctx *gin.Context) {
	orderID, ok := parseUUIDParam(ctx, "order_id")
	if !ok {
		return
	}

	summary, payments, err := pc.paymentService.GetPaymentSummaryForOrder(ctx.Request.Context(), orderID)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"summary":  summary,
		"payments": payments,
	}})
}
