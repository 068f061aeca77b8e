package domain

import (
	"errors"
	"fmt"
)

// OrderStatus enumerates the coarse lifecycle of a whole order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusPaid     OrderStatus = "PAID"
	OrderStatusMaking   OrderStatus = "MAKING"
	OrderStatusShipping OrderStatus = "SHIPPING"
	OrderStatusDone     OrderStatus = "DONE"
)

// ItemStatus enumerates the fine-grained lifecycle of a single order line.
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "PENDING"
	ItemStatusReady      ItemStatus = "READY"
	ItemStatusProcessing ItemStatus = "PROCESSING"
	ItemStatusShipped    ItemStatus = "SHIPPED"
	ItemStatusDelivered  ItemStatus = "DELIVERED"
	ItemStatusCompleted  ItemStatus = "COMPLETED"
)

// ErrInvalidStatus is returned for any value outside the relevant enumeration.
var ErrInvalidStatus = errors.New("status is not a member of the vocabulary")

// StatusInfo describes a status value for back-office display.
type StatusInfo struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Rank        int    `json:"rank"`
	Terminal    bool   `json:"terminal"`
}

var orderStatusTable = []StatusInfo{
	{Value: string(OrderStatusPending), Label: "Awaiting payment", Description: "Purchase request received, payment not confirmed", Rank: 1},
	{Value: string(OrderStatusPaid), Label: "Paid", Description: "Payment confirmed", Rank: 2},
	{Value: string(OrderStatusMaking), Label: "In production", Description: "Goods are being prepared", Rank: 3},
	{Value: string(OrderStatusShipping), Label: "Shipping", Description: "Goods handed to the carrier", Rank: 4},
	{Value: string(OrderStatusDone), Label: "Done", Description: "Order fulfilled", Rank: 5, Terminal: true},
}

var itemStatusTable = []StatusInfo{
	{Value: string(ItemStatusPending), Label: "Pending", Description: "Waiting for the order to be paid", Rank: 1},
	{Value: string(ItemStatusReady), Label: "Ready", Description: "Queued for production or packing", Rank: 2},
	{Value: string(ItemStatusProcessing), Label: "Processing", Description: "Being produced or packed", Rank: 3},
	{Value: string(ItemStatusShipped), Label: "Shipped", Description: "Handed to the carrier", Rank: 4},
	{Value: string(ItemStatusDelivered), Label: "Delivered", Description: "Carrier reported delivery", Rank: 5},
	{Value: string(ItemStatusCompleted), Label: "Completed", Description: "Fulfilled; digital goods unlocked", Rank: 6, Terminal: true},
}

// OrderStatuses lists the order vocabulary in lifecycle order.
func OrderStatuses() []StatusInfo {
	return append([]StatusInfo(nil), orderStatusTable...)
}

// ItemStatuses lists the item vocabulary in lifecycle order.
func ItemStatuses() []StatusInfo {
	return append([]StatusInfo(nil), itemStatusTable...)
}

// ParseOrderStatus accepts only exact members of the order vocabulary.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("%w: order status %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// ParseItemStatus accepts only exact members of the item vocabulary.
func ParseItemStatus(raw string) (ItemStatus, error) {
	status := ItemStatus(raw)
	if !status.Valid() {
		return "", fmt.Errorf("%w: item status %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// Valid reports membership in the order vocabulary.
func (s OrderStatus) Valid() bool {
	_, ok := lookup(orderStatusTable, string(s))
	return ok
}

// Info returns the display metadata for the status.
func (s OrderStatus) Info() (StatusInfo, bool) {
	return lookup(orderStatusTable, string(s))
}

// Valid reports membership in the item vocabulary.
func (s ItemStatus) Valid() bool {
	_, ok := lookup(itemStatusTable, string(s))
	return ok
}

// Info returns the display metadata for the status.
func (s ItemStatus) Info() (StatusInfo, bool) {
	return lookup(itemStatusTable, string(s))
}

func lookup(table []StatusInfo, value string) (StatusInfo, bool) {
	for _, info := range table {
		if info.Value == value {
			return info, true
		}
	}
	return StatusInfo{}, false
}
