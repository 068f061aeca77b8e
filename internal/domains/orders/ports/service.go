package ports

import (
	"context"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/application/types"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/shared/bulk"
)

// Service exposes the order lifecycle use cases to adapters.
type Service interface {
	UpdateOrderStatus(ctx context.Context, input types.UpdateOrderStatusInput) (*domain.Order, error)
	UpdateItemStatus(ctx context.Context, input types.UpdateItemStatusInput) (*domain.OrderItem, error)
	UpdateItemsStatus(ctx context.Context, input types.UpdateItemsStatusInput) (*bulk.Result[*domain.OrderItem], error)
	BulkUpdateOrderStatus(ctx context.Context, input types.BulkUpdateOrderStatusInput) (*bulk.Result[*domain.Order], error)
	HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error)
	GetShipmentTracking(ctx context.Context, input types.ShipmentTrackingInput) (*domain.ShipmentTracking, error)
	GetOrder(ctx context.Context, input types.GetOrderInput) (*domain.Order, error)
	ListOrders(ctx context.Context, input types.ListOrdersInput) ([]*domain.Order, error)
	UpdateTracking(ctx context.Context, input types.UpdateTrackingInput) (*domain.OrderItem, error)
	IssueDownload(ctx context.Context, input types.IssueDownloadInput) (*DownloadReference, error)
}
