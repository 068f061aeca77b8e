package mapper

import (
	"time"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
	"github.com/KwakOri/lucent-sub001/internal/shared/bulk"
)

// Order is the transport shape of an order.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	Status     string      `json:"status"`
	TotalPrice string      `json:"totalPrice"`
	BuyerName  string      `json:"buyerName,omitempty"`
	BuyerEmail string      `json:"buyerEmail,omitempty"`
	BuyerPhone string      `json:"buyerPhone,omitempty"`
	Shipping   *Shipping   `json:"shipping,omitempty"`
	UpdatedBy  string      `json:"updatedBy,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	Items      []OrderItem `json:"items,omitempty"`
}

// Shipping groups the delivery fields.
type Shipping struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	Memo       string `json:"memo,omitempty"`
}

// OrderItem is the transport shape of an order line.
type OrderItem struct {
	ID             string     `json:"id"`
	OrderID        string     `json:"orderId"`
	ProductID      string     `json:"productId"`
	ProductName    string     `json:"productName,omitempty"`
	ProductType    string     `json:"productType,omitempty"`
	Quantity       int        `json:"quantity"`
	PriceSnapshot  string     `json:"priceSnapshot"`
	ItemStatus     string     `json:"itemStatus"`
	Carrier        string     `json:"carrier,omitempty"`
	TrackingNumber string     `json:"trackingNumber,omitempty"`
	ShippedAt      *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ShipmentTracking is the buyer-facing tracking view.
type ShipmentTracking struct {
	ItemID         string     `json:"itemId"`
	Carrier        string     `json:"carrier"`
	TrackingNumber string     `json:"trackingNumber"`
	Status         string     `json:"status"`
	ShippedAt      *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time `json:"deliveredAt,omitempty"`
}

// Download is the issued download reference.
type Download struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// BulkFailure names one unit that could not be updated.
type BulkFailure struct {
	OrderID string `json:"orderId,omitempty"`
	ItemID  string `json:"itemId,omitempty"`
	Error   string `json:"error"`
}

// BulkResult lists updated ids and per-unit failures.
type BulkResult struct {
	Updated []string      `json:"updated"`
	Errors  []BulkFailure `json:"errors"`
}

// StatusUpdate is the request body of the single status endpoints.
type StatusUpdate struct {
	Status string `json:"status"`
}

// ItemsStatusUpdate is the request body of the bulk item endpoint.
type ItemsStatusUpdate struct {
	ItemIDs []string `json:"itemIds"`
	Status  string   `json:"status"`
}

// OrdersStatusUpdate is the request body of the bulk order endpoint.
type OrdersStatusUpdate struct {
	OrderIDs []string `json:"orderIds"`
	Status   string   `json:"status"`
}

// TrackingUpdate is the request body of the tracking endpoint.
type TrackingUpdate struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber"`
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	out := Order{
		ID:         order.ID,
		UserID:     order.UserID,
		Status:     string(order.Status),
		TotalPrice: order.Total.StringFixed(2),
		BuyerName:  order.BuyerName,
		BuyerEmail: order.BuyerEmail,
		BuyerPhone: order.BuyerPhone,
		UpdatedBy:  order.UpdatedBy,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
	if order.ShippingAddress != "" || order.ShippingName != "" {
		out.Shipping = &Shipping{
			Name:       order.ShippingName,
			Phone:      order.ShippingPhone,
			Address:    order.ShippingAddress,
			PostalCode: order.ShippingPostalCode,
			Memo:       order.ShippingMemo,
		}
	}
	if len(order.Items) > 0 {
		out.Items = make([]OrderItem, 0, len(order.Items))
		for i := range order.Items {
			out.Items = append(out.Items, FromDomainItem(&order.Items[i]))
		}
	}
	return out
}

// FromDomainOrders converts a list of orders.
func FromDomainOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return out
}

// FromDomainItem converts a domain item to the transport representation.
func FromDomainItem(item *domain.OrderItem) OrderItem {
	if item == nil {
		return OrderItem{}
	}
	return OrderItem{
		ID:             item.ID,
		OrderID:        item.OrderID,
		ProductID:      item.ProductID,
		ProductName:    item.ProductName,
		ProductType:    string(item.ProductType),
		Quantity:       item.Quantity,
		PriceSnapshot:  item.UnitPrice.StringFixed(2),
		ItemStatus:     string(item.Status),
		Carrier:        item.Carrier,
		TrackingNumber: item.TrackingNumber,
		ShippedAt:      item.ShippedAt,
		DeliveredAt:    item.DeliveredAt,
		UpdatedAt:      item.UpdatedAt,
	}
}

// FromDomainTracking converts the tracking view; nil stays nil.
func FromDomainTracking(view *domain.ShipmentTracking) *ShipmentTracking {
	if view == nil {
		return nil
	}
	return &ShipmentTracking{
		ItemID:         view.ItemID,
		Carrier:        view.Carrier,
		TrackingNumber: view.TrackingNumber,
		Status:         string(view.Status),
		ShippedAt:      view.ShippedAt,
		DeliveredAt:    view.DeliveredAt,
	}
}

// FromDownloadReference converts an issued download reference.
func FromDownloadReference(ref *ports.DownloadReference) Download {
	if ref == nil {
		return Download{}
	}
	return Download{URL: ref.URL, ExpiresAt: ref.ExpiresAt}
}

// FromItemsResult converts a bulk item result; failures are keyed by itemId.
func FromItemsResult(result *bulk.Result[*domain.OrderItem]) BulkResult {
	out := BulkResult{Updated: []string{}, Errors: []BulkFailure{}}
	if result == nil {
		return out
	}
	for _, item := range result.Updated {
		out.Updated = append(out.Updated, item.ID)
	}
	for _, f := range result.Failures {
		out.Errors = append(out.Errors, BulkFailure{ItemID: f.ID, Error: f.Message})
	}
	return out
}

// FromOrdersResult converts a bulk order result; failures are keyed by orderId.
func FromOrdersResult(result *bulk.Result[*domain.Order]) BulkResult {
	out := BulkResult{Updated: []string{}, Errors: []BulkFailure{}}
	if result == nil {
		return out
	}
	for _, order := range result.Updated {
		out.Updated = append(out.Updated, order.ID)
	}
	for _, f := range result.Failures {
		out.Errors = append(out.Errors, BulkFailure{OrderID: f.ID, Error: f.Message})
	}
	return out
}
