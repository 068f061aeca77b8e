package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/KwakOri/lucent-sub001/internal/domains/orders/application/types"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/memory"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

type recordingSink struct {
	mu     sync.Mutex
	events []ports.AuditEvent
	err    error
}

func (r *recordingSink) Record(_ context.Context, event ports.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingSink) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type stubLinker struct {
	requests []ports.DownloadRequest
}

func (s *stubLinker) Link(_ context.Context, req ports.DownloadRequest) (*ports.DownloadReference, error) {
	s.requests = append(s.requests, req)
	return &ports.DownloadReference{URL: "https://cdn.test/" + req.ProductID, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) (*Service, *memory.Repository, *recordingSink) {
	t.Helper()
	repo := memory.NewRepository()
	sink := &recordingSink{}
	opts = append([]Option{WithAuditSink(sink), WithClock(func() time.Time { return fixedNow })}, opts...)
	svc := NewService(repo, opts...)

	_, err := repo.Save(context.Background(), &domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: domain.OrderStatusShipping,
		Items: []domain.OrderItem{
			{ID: "A", ProductID: "album", ProductType: domain.ProductTypeDigital, Quantity: 1, Status: domain.ItemStatusReady},
			{ID: "B", ProductID: "poster", ProductType: domain.ProductTypePhysical, Quantity: 1, Status: domain.ItemStatusShipped},
			{ID: "C", ProductID: "sticker", ProductType: domain.ProductTypePhysical, Quantity: 3, Status: domain.ItemStatusCompleted},
		},
	})
	require.NoError(t, err)
	_, err = repo.Save(context.Background(), &domain.Order{
		ID:     "order-2",
		UserID: "user-2",
		Status: domain.OrderStatusPaid,
		Items: []domain.OrderItem{
			{ID: "D", ProductID: "album", ProductType: domain.ProductTypeDigital, Quantity: 1, Status: domain.ItemStatusPending},
		},
	})
	require.NoError(t, err)
	return svc, repo, sink
}

func TestValidator(t *testing.T) {
	var v Validator
	require.NoError(t, v.Validate(VocabularyOrderStatus, "DONE"))
	require.NoError(t, v.Validate(VocabularyItemStatus, "COMPLETED"))
	require.ErrorIs(t, v.Validate(VocabularyOrderStatus, "COMPLETED"), domain.ErrInvalidStatus)
	require.ErrorIs(t, v.Validate(VocabularyItemStatus, "DONE"), domain.ErrInvalidStatus)
	require.ErrorIs(t, v.Validate("colour", "RED"), ErrUnknownVocabulary)
}

func TestUpdateOrderStatus_InvalidStatusMutatesNothing(t *testing.T) {
	svc, repo, sink := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateOrderStatus(ctx, types.UpdateOrderStatusInput{OrderID: "order-1", Status: "FINISHED", ActorID: "admin"})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	order, err := repo.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusShipping, order.Status)
	require.Equal(t, domain.ItemStatusReady, order.Items[0].Status)
	require.Empty(t, sink.actions())
}

func TestUpdateOrderStatus_DoneCascadesToItems(t *testing.T) {
	svc, repo, sink := newTestService(t)
	ctx := context.Background()

	updated, err := svc.UpdateOrderStatus(ctx, types.UpdateOrderStatusInput{OrderID: "order-1", Status: "DONE", ActorID: "admin", IncludeItems: true})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusDone, updated.Status)
	require.Equal(t, "admin", updated.UpdatedBy)
	require.Len(t, updated.Items, 3)

	order, err := repo.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	for _, item := range order.Items {
		require.Equal(t, domain.ItemStatusCompleted, item.Status, item.ID)
	}

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	require.Equal(t, "orders.order.status_changed", event.Action)
	require.Equal(t, "SHIPPING", event.Before)
	require.Equal(t, "DONE", event.After)
	require.Equal(t, []string{"A", "B"}, event.AffectedIDs)
}

func TestUpdateOrderStatus_NonDoneLeavesItems(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	updated, err := svc.UpdateOrderStatus(ctx, types.UpdateOrderStatusInput{OrderID: "order-1", Status: "MAKING", ActorID: "admin"})
	require.NoError(t, err)
	require.Nil(t, updated.Items)

	order, err := repo.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusMaking, order.Status)
	require.Equal(t, domain.ItemStatusReady, order.Items[0].Status)
	require.Equal(t, domain.ItemStatusShipped, order.Items[1].Status)
}

func TestUpdateOrderStatus_DoneTwiceIsIdempotent(t *testing.T) {
	svc, repo, sink := newTestService(t)
	ctx := context.Background()
	in := types.UpdateOrderStatusInput{OrderID: "order-1", Status: "DONE", ActorID: "admin"}

	_, err := svc.UpdateOrderStatus(ctx, in)
	require.NoError(t, err)
	first, _ := repo.GetOrder(ctx, "order-1")

	_, err = svc.UpdateOrderStatus(ctx, in)
	require.NoError(t, err)
	second, _ := repo.GetOrder(ctx, "order-1")

	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.Items, second.Items)
	require.Len(t, sink.events, 2)
	require.Empty(t, sink.events[1].AffectedIDs)
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.UpdateOrderStatus(context.Background(), types.UpdateOrderStatusInput{OrderID: "missing", Status: "PAID", ActorID: "admin"})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestUpdateOrderStatus_ConcurrentWritersLastWins(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, status := range []string{"PAID", "MAKING", "SHIPPING", "PENDING"} {
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			_, err := svc.UpdateOrderStatus(ctx, types.UpdateOrderStatusInput{OrderID: "order-1", Status: status, ActorID: "admin"})
			assert.NoError(t, err)
		}(status)
	}
	wg.Wait()

	order, err := repo.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Contains(t, []domain.OrderStatus{
		domain.OrderStatusPaid, domain.OrderStatusMaking, domain.OrderStatusShipping, domain.OrderStatusPending,
	}, order.Status)
}

func TestUpdateItemStatus_DoesNotTouchOrder(t *testing.T) {
	svc, repo, sink := newTestService(t)
	ctx := context.Background()

	item, err := svc.UpdateItemStatus(ctx, types.UpdateItemStatusInput{OrderID: "order-1", ItemID: "B", Status: "DELIVERED", ActorID: "admin"})
	require.NoError(t, err)
	require.Equal(t, domain.ItemStatusDelivered, item.Status)
	require.Equal(t, fixedNow, *item.DeliveredAt)

	order, _ := repo.GetOrder(ctx, "order-1")
	require.Equal(t, domain.OrderStatusShipping, order.Status)
	require.Equal(t, []string{"orders.item.status_changed"}, sink.actions())
}

func TestUpdateItemStatus_RejectsOrderVocabulary(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.UpdateItemStatus(context.Background(), types.UpdateItemStatusInput{ItemID: "A", Status: "DONE"})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestUpdateItemStatus_ForeignOrderIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.UpdateItemStatus(context.Background(), types.UpdateItemStatusInput{OrderID: "order-2", ItemID: "A", Status: "READY"})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestUpdateItemsStatus_PartialFailure(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.UpdateItemsStatus(ctx, types.UpdateItemsStatusInput{
		OrderID: "order-1",
		ItemIDs: []string{"A", "missing", "B"},
		Status:  "SHIPPED",
		ActorID: "admin",
	})
	require.NoError(t, err)
	require.Len(t, result.Updated, 2)
	require.Equal(t, "A", result.Updated[0].ID)
	require.Equal(t, "B", result.Updated[1].ID)
	require.Len(t, result.Failures, 1)
	require.Equal(t, "missing", result.Failures[0].ID)
	require.Equal(t, "not found", result.Failures[0].Message)

	a, _ := repo.GetItem(ctx, "A")
	require.Equal(t, domain.ItemStatusShipped, a.Status)
}

func TestUpdateItemsStatus_AllFailed(t *testing.T) {
	svc, _, _ := newTestService(t)
	result, err := svc.UpdateItemsStatus(context.Background(), types.UpdateItemsStatusInput{
		OrderID: "order-1",
		ItemIDs: []string{"D", "nope"},
		Status:  "READY",
	})
	require.ErrorIs(t, err, ErrAllFailed)
	require.True(t, result.AllFailed())
	require.Equal(t, []string{"D", "nope"}, result.FailedIDs())
}

func TestUpdateItemsStatus_RejectsEmptyAndInvalid(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateItemsStatus(ctx, types.UpdateItemsStatusInput{OrderID: "order-1", ItemIDs: []string{" "}, Status: "READY"})
	require.ErrorIs(t, err, ErrEmptyTargets)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateItemsStatus(ctx, types.UpdateItemsStatusInput{OrderID: "order-1", ItemIDs: []string{"A"}, Status: "LOST"})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.UpdateItemsStatus(ctx, types.UpdateItemsStatusInput{OrderID: "missing", ItemIDs: []string{"A"}, Status: "READY"})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestBulkUpdateOrderStatus(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.BulkUpdateOrderStatus(ctx, types.BulkUpdateOrderStatusInput{
		OrderIDs: []string{"order-1", "ghost", "order-2"},
		Status:   "DONE",
		ActorID:  "admin",
	})
	require.NoError(t, err)
	require.Len(t, result.Updated, 2)
	require.Equal(t, []string{"ghost"}, result.FailedIDs())

	order, _ := repo.GetOrder(ctx, "order-2")
	require.Equal(t, domain.ItemStatusCompleted, order.Items[0].Status)
}

func TestHasCompletedPurchase(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	ok, err := svc.HasCompletedPurchase(ctx, "user-1", "album")
	require.NoError(t, err)
	require.False(t, ok, "order not DONE yet")

	_, err = svc.UpdateOrderStatus(ctx, types.UpdateOrderStatusInput{OrderID: "order-1", Status: "DONE", ActorID: "admin"})
	require.NoError(t, err)

	ok, err = svc.HasCompletedPurchase(ctx, "user-1", "album")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.HasCompletedPurchase(ctx, "user-2", "album")
	require.NoError(t, err)
	require.False(t, ok, "other buyer's order is still PAID")

	ok, err = svc.HasCompletedPurchase(ctx, "", "album")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasCompletedPurchase_DoneOrderWithIncompleteItemIsNotEntitled(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateOrderStatus(ctx, types.UpdateOrderStatusInput{OrderID: "order-1", Status: "DONE", ActorID: "admin"})
	require.NoError(t, err)
	_, err = svc.UpdateItemStatus(ctx, types.UpdateItemStatusInput{ItemID: "A", Status: "DELIVERED", ActorID: "admin"})
	require.NoError(t, err)

	ok, err := svc.HasCompletedPurchase(ctx, "user-1", "album")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetShipmentTracking(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.GetShipmentTracking(ctx, types.ShipmentTrackingInput{ItemID: "B", UserID: "user-1"})
	require.NoError(t, err)
	require.Nil(t, view)

	_, err = svc.UpdateTracking(ctx, types.UpdateTrackingInput{OrderID: "order-1", ItemID: "B", Carrier: "CJ", TrackingNumber: "1234", ActorID: "admin"})
	require.NoError(t, err)

	view, err = svc.GetShipmentTracking(ctx, types.ShipmentTrackingInput{OrderID: "order-1", ItemID: "B", UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, "CJ", view.Carrier)
	require.Equal(t, "1234", view.TrackingNumber)
	require.Equal(t, domain.ItemStatusShipped, view.Status)
}

func TestGetShipmentTracking_HidesOtherUsersItems(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, foreignErr := svc.GetShipmentTracking(ctx, types.ShipmentTrackingInput{ItemID: "B", UserID: "user-2"})
	_, missingErr := svc.GetShipmentTracking(ctx, types.ShipmentTrackingInput{ItemID: "zzz", UserID: "user-2"})
	_, mismatchErr := svc.GetShipmentTracking(ctx, types.ShipmentTrackingInput{OrderID: "order-2", ItemID: "B", UserID: "user-1"})

	require.ErrorIs(t, foreignErr, ports.ErrNotFound)
	require.ErrorIs(t, missingErr, ports.ErrNotFound)
	require.ErrorIs(t, mismatchErr, ports.ErrNotFound)
	require.Equal(t, missingErr.Error(), foreignErr.Error())
}

func TestGetOrder_OwnerOrAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetOrder(ctx, types.GetOrderInput{OrderID: "order-1", Requester: types.Requester{UserID: "user-1"}})
	require.NoError(t, err)
	_, err = svc.GetOrder(ctx, types.GetOrderInput{OrderID: "order-1", Requester: types.Requester{UserID: "admin", Admin: true}})
	require.NoError(t, err)
	_, err = svc.GetOrder(ctx, types.GetOrderInput{OrderID: "order-1", Requester: types.Requester{UserID: "user-2"}})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestListOrders(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	orders, err := svc.ListOrders(ctx, types.ListOrdersInput{Status: "PAID"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "order-2", orders[0].ID)

	_, err = svc.ListOrders(ctx, types.ListOrdersInput{Status: "paid"})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestUpdateTracking_Validates(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateTracking(ctx, types.UpdateTrackingInput{OrderID: "order-1", ItemID: "B", Carrier: "", TrackingNumber: "1"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateTracking(ctx, types.UpdateTrackingInput{OrderID: "order-1", ItemID: "D", Carrier: "CJ", TrackingNumber: "1"})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestIssueDownload(t *testing.T) {
	linker := &stubLinker{}
	svc, _, sink := newTestService(t, WithDownloadLinker(linker))
	ctx := context.Background()

	_, err := svc.IssueDownload(ctx, types.IssueDownloadInput{OrderID: "order-1", ItemID: "A", UserID: "user-1"})
	require.ErrorIs(t, err, ErrNotEntitled)
	require.Equal(t, []string{"orders.download.denied"}, sink.actions())
	require.Equal(t, ports.SeveritySecurity, sink.events[0].Severity)

	_, err = svc.UpdateOrderStatus(ctx, types.UpdateOrderStatusInput{OrderID: "order-1", Status: "DONE", ActorID: "admin"})
	require.NoError(t, err)

	ref, err := svc.IssueDownload(ctx, types.IssueDownloadInput{OrderID: "order-1", ItemID: "A", UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/album", ref.URL)
	require.Len(t, linker.requests, 1)

	_, err = svc.IssueDownload(ctx, types.IssueDownloadInput{OrderID: "order-1", ItemID: "B", UserID: "user-1"})
	require.ErrorIs(t, err, ErrNotDownloadable)

	_, err = svc.IssueDownload(ctx, types.IssueDownloadInput{OrderID: "order-1", ItemID: "A", UserID: "user-2"})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestAuditFailureDoesNotFailUpdate(t *testing.T) {
	svc, _, sink := newTestService(t)
	sink.err = errors.New("audit store down")

	_, err := svc.UpdateOrderStatus(context.Background(), types.UpdateOrderStatusInput{OrderID: "order-1", Status: "PAID", ActorID: "admin"})
	require.NoError(t, err)
}
