package domain

import "time"

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderStatusChanged is raised for every applied order status update, including no-op re-applies.
type OrderStatusChanged struct {
	BaseEvent
	OrderID         string
	ActorID         string
	FromStatus      OrderStatus
	ToStatus        OrderStatus
	CascadedItemIDs []string
}

// EventName returns the event type identifier.
func (e OrderStatusChanged) EventName() string {
	return "orders.order.status_changed"
}

// ItemStatusChanged is raised when an item status is set directly.
type ItemStatusChanged struct {
	BaseEvent
	OrderID    string
	ItemID     string
	ActorID    string
	FromStatus ItemStatus
	ToStatus   ItemStatus
}

// EventName returns the event type identifier.
func (e ItemStatusChanged) EventName() string {
	return "orders.item.status_changed"
}

// TrackingAttached is raised when a carrier reference is recorded for an item.
type TrackingAttached struct {
	BaseEvent
	OrderID        string
	ItemID         string
	ActorID        string
	Carrier        string
	TrackingNumber string
}

// EventName returns the event type identifier.
func (e TrackingAttached) EventName() string {
	return "orders.item.tracking_attached"
}

// DownloadDenied is raised when a download is requested without entitlement.
type DownloadDenied struct {
	BaseEvent
	OrderID   string
	ItemID    string
	ProductID string
	UserID    string
	Reason    string
}

// EventName returns the event type identifier.
func (e DownloadDenied) EventName() string {
	return "orders.download.denied"
}
