package lucentserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ordersmapper "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/http/mapper"
	ordersworkflows "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/KwakOri/lucent-sub001/internal/domains/orders/application"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/application/types"
	ordersports "github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
	apierrors "github.com/KwakOri/lucent-sub001/internal/shared/errors"
)

// OrderAPI implements the order lifecycle endpoints.
type OrderAPI struct {
	service   ordersports.Service
	workflows ordersports.WorkflowOrchestrator
}

// NewOrderAPI wires dependencies. Without an orchestrator bulk order updates run inline.
func NewOrderAPI(service ordersports.Service, workflows ordersports.WorkflowOrchestrator) OrderAPI {
	if workflows == nil {
		workflows = ordersworkflows.NewInlineOrderWorkflows(service)
	}
	return OrderAPI{service: service, workflows: workflows}
}

// Get /orders/:orderId
// Owner or administrator view of one order with its items
func (api *OrderAPI) GetOrder(c *gin.Context) {
	principal := principalFrom(c)
	order, err := api.service.GetOrder(c.Request.Context(), types.GetOrderInput{
		OrderID:   c.Param("orderId"),
		Requester: types.Requester{UserID: principal.UserID, Admin: principal.Admin},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomainOrder(order))
}

// Patch /orders/:orderId/status
// Set the order status; DONE completes every item
func (api *OrderAPI) UpdateOrderStatus(c *gin.Context) {
	var body ordersmapper.StatusUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	includeItems, _ := strconv.ParseBool(c.Query("includeItems"))
	order, err := api.service.UpdateOrderStatus(c.Request.Context(), types.UpdateOrderStatusInput{
		OrderID:      c.Param("orderId"),
		Status:       body.Status,
		ActorID:      principalFrom(c).UserID,
		IncludeItems: includeItems,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomainOrder(order))
}

// Patch /orders/:orderId/items/status
// Set one status on several items of the order
func (api *OrderAPI) UpdateItemsStatus(c *gin.Context) {
	var body ordersmapper.ItemsStatusUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := api.service.UpdateItemsStatus(c.Request.Context(), types.UpdateItemsStatusInput{
		OrderID: c.Param("orderId"),
		ItemIDs: body.ItemIDs,
		Status:  body.Status,
		ActorID: principalFrom(c).UserID,
	})
	respondBulk(c, ordersmapper.FromItemsResult(result), err)
}

// Patch /orders/:orderId/items/:itemId/status
// Set the status of a single item
func (api *OrderAPI) UpdateItemStatus(c *gin.Context) {
	var body ordersmapper.StatusUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := api.service.UpdateItemStatus(c.Request.Context(), types.UpdateItemStatusInput{
		OrderID: c.Param("orderId"),
		ItemID:  c.Param("itemId"),
		Status:  body.Status,
		ActorID: principalFrom(c).UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomainItem(item))
}

// Get /orders/:orderId/items/:itemId/shipment
// Carrier tracking of an owned item; null until a tracking number exists
func (api *OrderAPI) GetShipmentTracking(c *gin.Context) {
	view, err := api.service.GetShipmentTracking(c.Request.Context(), types.ShipmentTrackingInput{
		OrderID: c.Param("orderId"),
		ItemID:  c.Param("itemId"),
		UserID:  principalFrom(c).UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomainTracking(view))
}

// Get /orders/:orderId/items/:itemId/download
// Time-limited download link for a purchased digital item
func (api *OrderAPI) GetDownload(c *gin.Context) {
	ref, err := api.service.IssueDownload(c.Request.Context(), types.IssueDownloadInput{
		OrderID: c.Param("orderId"),
		ItemID:  c.Param("itemId"),
		UserID:  principalFrom(c).UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDownloadReference(ref))
}

// Get /admin/orders
// Back-office order list, newest first
func (api *OrderAPI) ListOrders(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondProblem(c, apierrors.NewValidationError(map[string]string{"limit": "must be an integer"}))
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		respondProblem(c, apierrors.NewValidationError(map[string]string{"offset": "must be an integer"}))
		return
	}
	orders, err := api.service.ListOrders(c.Request.Context(), types.ListOrdersInput{
		Status: c.Query("status"),
		UserID: c.Query("userId"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomainOrders(orders))
}

// Patch /admin/orders/bulk-update
// Set one status on several orders
func (api *OrderAPI) BulkUpdateOrderStatus(c *gin.Context) {
	var body ordersmapper.OrdersStatusUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := api.workflows.BulkUpdateOrderStatus(c.Request.Context(), types.BulkUpdateOrderStatusInput{
		OrderIDs: body.OrderIDs,
		Status:   body.Status,
		ActorID:  principalFrom(c).UserID,
	})
	respondBulk(c, ordersmapper.FromOrdersResult(result), err)
}

// Put /admin/orders/:orderId/items/:itemId/tracking
// Record the carrier reference of an item
func (api *OrderAPI) UpdateTracking(c *gin.Context) {
	var body ordersmapper.TrackingUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := api.service.UpdateTracking(c.Request.Context(), types.UpdateTrackingInput{
		OrderID:        c.Param("orderId"),
		ItemID:         c.Param("itemId"),
		Carrier:        body.Carrier,
		TrackingNumber: body.TrackingNumber,
		ActorID:        principalFrom(c).UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomainItem(item))
}

// respondBulk answers 200 while at least one unit applied and 500 with the failures when none did.
func respondBulk(c *gin.Context, payload ordersmapper.BulkResult, err error) {
	if errors.Is(err, ordersapp.ErrAllFailed) {
		respondProblem(c, apierrors.APIError{
			Status:    http.StatusInternalServerError,
			Message:   "no unit of the bulk update succeeded",
			ErrorCode: apierrors.CodeBulkUpdateFailed,
		}.WithDetail("errors", payload.Errors))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
