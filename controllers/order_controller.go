package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"order-hub/apperrors"
	"order-hub/models"
	"order-hub/services"
)

type OrderController struct {
	orderService *services.OrderService
}

func NewOrderController(orderService *services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder handles order intake from any sales channel.
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	var req services.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return
	}

	order, err := oc.orderService.CreateOrder(ctx.Request.Context(), &req)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"success": true, "data": order})
}

func (oc *OrderController) GetOrder(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	order, err := oc.orderService.GetOrderByIDWithItems(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// GetOrderBySource looks an order up by its channel-native identifier.
func (oc *OrderController) GetOrderBySource(ctx *gin.Context) {
	source := ctx.Param("source")
	sourceOrderID := ctx.Param("source_order_id")

	order, err := oc.orderService.GetOrderBySource(ctx.Request.Context(), source, sourceOrderID)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// GetOrderWithPayments returns the reconciliation view: order, payments and
// the computed payment summary.
func (oc *OrderController) GetOrderWithPayments(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	view, err := oc.orderService.GetOrderWithPayments(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": view})
}

type updateOrderStatusRequest struct {
	Status    models.OrderStatus `json:"status" binding:"required"`
	ChangedBy string             `json:"changed_by"`
	Reason    string             `json:"reason"`
}

func (oc *OrderController) UpdateOrderStatus(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req updateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return
	}

	if err := oc.orderService.UpdateOrderStatus(ctx.Request.Context(), id, req.Status, req.ChangedBy, req.Reason); err != nil {
		ctx.Error(err)
		return
	}

	order, err := oc.orderService.GetOrderByID(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

type updateOrderMetadataRequest struct {
	Metadata models.JSONMap `json:"metadata" binding:"required"`
}

func (oc *OrderController) UpdateOrderMetadata(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req updateOrderMetadataRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(apperrors.Validation("Invalid request body: %v", err))
		return
	}

	if err := oc.orderService.UpdateOrderMetadata(ctx.Request.Context(), id, req.Metadata); err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"id": id, "metadata": req.Metadata}})
}

func (oc *OrderController) GetOrdersByStatus(ctx *gin.Context) {
	status := models.OrderStatus(ctx.Query("status"))
	if status == "" {
		ctx.Error(apperrors.Validation("status query parameter is required"))
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))
	orders, err := oc.orderService.GetOrdersByStatus(ctx.Request.Context(), status, limit)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

func (oc *OrderController) GetOrderHistory(ctx *gin.Context) {
	id, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	history, err := oc.orderService.GetOrderHistory(ctx.Request.Context(), id)
	if err != nil {
		ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": history})
}

func parseUUIDParam(ctx *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		ctx.Error(apperrors.Validation("Invalid %s: must be a UUID", name))
		return uuid.Nil, false
	}
	return id, true
}
