package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductType distinguishes downloadable goods from shipped goods.
type ProductType string

const (
	ProductTypeDigital  ProductType = "DIGITAL"
	ProductTypePhysical ProductType = "PHYSICAL"
)

var (
	ErrEmptyCarrier        = errors.New("carrier is required")
	ErrEmptyTrackingNumber = errors.New("tracking number is required")
)

// Order models a storefront purchase and its line items.
type Order struct {
	ID                 string
	UserID             string
	BuyerName          string
	BuyerEmail         string
	BuyerPhone         string
	ShippingName       string
	ShippingPhone      string
	ShippingAddress    string
	ShippingPostalCode string
	ShippingMemo       string
	Total              decimal.Decimal
	Status             OrderStatus
	UpdatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Items              []OrderItem
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	ProductName    string
	ProductType    ProductType
	Quantity       int
	UnitPrice      decimal.Decimal
	Status         ItemStatus
	Carrier        string
	TrackingNumber string
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	UpdatedAt      time.Time
}

// ShipmentTracking is the read-only view of an item's carrier progress.
type ShipmentTracking struct {
	ItemID         string
	Carrier        string
	TrackingNumber string
	Status         ItemStatus
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
}

// ApplyStatus sets the order status and records the mutator.
// DONE completes every item that is not COMPLETED yet; the ids of those items are returned.
func (o *Order) ApplyStatus(status OrderStatus, actorID string, now time.Time) ([]string, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	o.Status = status
	o.UpdatedBy = actorID
	o.UpdatedAt = now
	if status != OrderStatusDone {
		return nil, nil
	}
	var cascaded []string
	for i := range o.Items {
		if o.Items[i].Status == ItemStatusCompleted {
			continue
		}
		if err := o.Items[i].ApplyStatus(ItemStatusCompleted, now); err != nil {
			return nil, err
		}
		cascaded = append(cascaded, o.Items[i].ID)
	}
	return cascaded, nil
}

// Item finds a line item by id.
func (o *Order) Item(itemID string) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// OwnedBy reports whether the order belongs to the user.
func (o *Order) OwnedBy(userID string) bool {
	return userID != "" && o.UserID == userID
}

// Clone returns a deep copy of the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = make([]OrderItem, len(o.Items))
	for i := range o.Items {
		clone.Items[i] = *o.Items[i].Clone()
	}
	return &clone
}

// ApplyStatus sets the item status, stamping ship and delivery times the first time they are reached.
func (i *OrderItem) ApplyStatus(status ItemStatus, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	i.Status = status
	i.UpdatedAt = now
	switch status {
	case ItemStatusShipped:
		if i.ShippedAt == nil {
			i.ShippedAt = timePtr(now)
		}
	case ItemStatusDelivered:
		if i.DeliveredAt == nil {
			i.DeliveredAt = timePtr(now)
		}
	}
	return nil
}

// AttachTracking records the carrier reference for the item.
func (i *OrderItem) AttachTracking(carrier, trackingNumber string, now time.Time) error {
	carrier = strings.TrimSpace(carrier)
	trackingNumber = strings.TrimSpace(trackingNumber)
	if carrier == "" {
		return ErrEmptyCarrier
	}
	if trackingNumber == "" {
		return ErrEmptyTrackingNumber
	}
	i.Carrier = carrier
	i.TrackingNumber = trackingNumber
	i.UpdatedAt = now
	return nil
}

// Tracking returns nil while no carrier reference exists.
func (i *OrderItem) Tracking() *ShipmentTracking {
	if i.TrackingNumber == "" {
		return nil
	}
	return &ShipmentTracking{
		ItemID:         i.ID,
		Carrier:        i.Carrier,
		TrackingNumber: i.TrackingNumber,
		Status:         i.Status,
		ShippedAt:      i.ShippedAt,
		DeliveredAt:    i.DeliveredAt,
	}
}

// IsDigital reports whether the item unlocks a download.
func (i *OrderItem) IsDigital() bool {
	return i.ProductType == ProductTypeDigital
}

// Clone returns a deep copy of the item.
func (i *OrderItem) Clone() *OrderItem {
	if i == nil {
		return nil
	}
	clone := *i
	if i.ShippedAt != nil {
		clone.ShippedAt = timePtr(*i.ShippedAt)
	}
	if i.DeliveredAt != nil {
		clone.DeliveredAt = timePtr(*i.DeliveredAt)
	}
	return &clone
}

func timePtr(t time.Time) *time.Time {
	return &t
}
