package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleOrder() *Order {
	return &Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: OrderStatusShipping,
		Items: []OrderItem{
			{ID: "item-1", OrderID: "order-1", Status: ItemStatusShipped},
			{ID: "item-2", OrderID: "order-1", Status: ItemStatusCompleted},
			{ID: "item-3", OrderID: "order-1", Status: ItemStatusPending},
		},
	}
}

func TestParseOrderStatus_RejectsNonMembers(t *testing.T) {
	for _, raw := range []string{"", "done", "Done", "COMPLETE", "CANCELLED", " DONE", "SHIPPED"} {
		_, err := ParseOrderStatus(raw)
		require.ErrorIs(t, err, ErrInvalidStatus, raw)
	}
	for _, info := range OrderStatuses() {
		status, err := ParseOrderStatus(info.Value)
		require.NoError(t, err)
		require.Equal(t, info.Value, string(status))
	}
}

func TestParseItemStatus_RejectsNonMembers(t *testing.T) {
	for _, raw := range []string{"", "shipped", "DONE", "PAID", "MAKING", "COMPLETE"} {
		_, err := ParseItemStatus(raw)
		require.ErrorIs(t, err, ErrInvalidStatus, raw)
	}
	require.Len(t, ItemStatuses(), 6)
	require.Len(t, OrderStatuses(), 5)
}

func TestStatusInfo_OnlyFinalStatesAreTerminal(t *testing.T) {
	info, ok := OrderStatusDone.Info()
	require.True(t, ok)
	require.True(t, info.Terminal)

	info, ok = ItemStatusCompleted.Info()
	require.True(t, ok)
	require.True(t, info.Terminal)

	info, ok = ItemStatusDelivered.Info()
	require.True(t, ok)
	require.False(t, info.Terminal)
}

func TestApplyStatus_DoneCompletesRemainingItems(t *testing.T) {
	order := sampleOrder()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	cascaded, err := order.ApplyStatus(OrderStatusDone, "admin-1", now)
	require.NoError(t, err)
	require.Equal(t, []string{"item-1", "item-3"}, cascaded)
	require.Equal(t, OrderStatusDone, order.Status)
	require.Equal(t, "admin-1", order.UpdatedBy)
	for _, item := range order.Items {
		require.Equal(t, ItemStatusCompleted, item.Status)
	}
}

func TestApplyStatus_NonDoneLeavesItemsUntouched(t *testing.T) {
	order := sampleOrder()

	cascaded, err := order.ApplyStatus(OrderStatusPaid, "admin-1", time.Now())
	require.NoError(t, err)
	require.Empty(t, cascaded)
	require.Equal(t, ItemStatusShipped, order.Items[0].Status)
	require.Equal(t, ItemStatusCompleted, order.Items[1].Status)
	require.Equal(t, ItemStatusPending, order.Items[2].Status)
}

func TestApplyStatus_InvalidStatusDoesNotMutate(t *testing.T) {
	order := sampleOrder()

	_, err := order.ApplyStatus(OrderStatus("done"), "admin-1", time.Now())
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.Equal(t, OrderStatusShipping, order.Status)
	require.Empty(t, order.UpdatedBy)
}

func TestItemApplyStatus_StampsShipAndDeliveryOnce(t *testing.T) {
	item := OrderItem{ID: "i", Status: ItemStatusProcessing}
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	require.NoError(t, item.ApplyStatus(ItemStatusShipped, first))
	require.NoError(t, item.ApplyStatus(ItemStatusShipped, later))
	require.Equal(t, first, *item.ShippedAt)

	require.NoError(t, item.ApplyStatus(ItemStatusDelivered, later))
	require.Equal(t, later, *item.DeliveredAt)
}

func TestTracking_NilUntilAttached(t *testing.T) {
	item := OrderItem{ID: "i", Status: ItemStatusShipped}
	require.Nil(t, item.Tracking())

	require.ErrorIs(t, item.AttachTracking(" ", "123", time.Now()), ErrEmptyCarrier)
	require.ErrorIs(t, item.AttachTracking("CJ", "", time.Now()), ErrEmptyTrackingNumber)
	require.NoError(t, item.AttachTracking("CJ Logistics", " 6543210 ", time.Now()))

	tracking := item.Tracking()
	require.NotNil(t, tracking)
	require.Equal(t, "CJ Logistics", tracking.Carrier)
	require.Equal(t, "6543210", tracking.TrackingNumber)
	require.Equal(t, ItemStatusShipped, tracking.Status)
}

func TestClone_IsDeep(t *testing.T) {
	order := sampleOrder()
	shipped := time.Now()
	order.Items[0].ShippedAt = &shipped

	clone := order.Clone()
	clone.Items[0].Status = ItemStatusCompleted
	*clone.Items[0].ShippedAt = shipped.Add(time.Hour)

	require.Equal(t, ItemStatusShipped, order.Items[0].Status)
	require.Equal(t, shipped, *order.Items[0].ShippedAt)
}
