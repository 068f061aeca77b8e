package ports

import (
	"context"
	"errors"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
)

// ErrNotFound covers missing orders and items, and records hidden from the requester.
var ErrNotFound = errors.New("not found")

// ListFilter narrows back-office order listings.
type ListFilter struct {
	Status *domain.OrderStatus
	UserID string
	Limit  int
	Offset int
}

// Repository persists orders and their items.
type Repository interface {
	// GetOrder loads an order together with its items.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	GetItem(ctx context.Context, id string) (*domain.OrderItem, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*domain.Order, error)
	// SaveOrderStatus writes the order status and the listed cascaded items as one unit.
	SaveOrderStatus(ctx context.Context, order *domain.Order, cascadedItemIDs []string) (*domain.Order, error)
	SaveItem(ctx context.Context, item *domain.OrderItem) (*domain.OrderItem, error)
	// HasCompletedPurchase reports whether a DONE order of the user holds a COMPLETED item of the product.
	HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error)
	// Save upserts a whole order with its items.
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
}
