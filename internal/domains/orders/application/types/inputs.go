package types

// Requester identifies who is asking, as resolved by the identity collaborator.
type Requester struct {
	UserID string
	Admin  bool
}

// UpdateOrderStatusInput applies a status to one order.
type UpdateOrderStatusInput struct {
	OrderID      string
	Status       string
	ActorID      string
	IncludeItems bool
}

// UpdateItemStatusInput applies a status to one item. OrderID is optional; when set the item must belong to it.
type UpdateItemStatusInput struct {
	OrderID string
	ItemID  string
	Status  string
	ActorID string
}

// UpdateItemsStatusInput applies one status to many items of an order.
type UpdateItemsStatusInput struct {
	OrderID string
	ItemIDs []string
	Status  string
	ActorID string
}

// BulkUpdateOrderStatusInput applies one status to many orders.
type BulkUpdateOrderStatusInput struct {
	OrderIDs []string
	Status   string
	ActorID  string
}

// ShipmentTrackingInput asks for an item's tracking on behalf of a user.
type ShipmentTrackingInput struct {
	OrderID string
	ItemID  string
	UserID  string
}

// GetOrderInput loads one order on behalf of a requester.
type GetOrderInput struct {
	OrderID   string
	Requester Requester
}

// ListOrdersInput filters the back-office order list.
type ListOrdersInput struct {
	Status string
	UserID string
	Limit  int
	Offset int
}

// UpdateTrackingInput records a carrier reference on an item.
type UpdateTrackingInput struct {
	OrderID        string
	ItemID         string
	Carrier        string
	TrackingNumber string
	ActorID        string
}

// IssueDownloadInput requests a download reference for a purchased digital item.
type IssueDownloadInput struct {
	OrderID string
	ItemID  string
	UserID  string
}
