package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter. A single lock makes every write atomic.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	items  map[string]string // item id -> order id
	now    func() time.Time
}

// Option customises the repository.
type Option func(*Repository)

// WithClock overrides the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		orders: map[string]*domain.Order{},
		items:  map[string]string{},
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	clone := order.Clone()
	if !clone.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	now := r.now()
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now
	}
	if clone.UpdatedAt.IsZero() {
		clone.UpdatedAt = now
	}
	for i := range clone.Items {
		item := &clone.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.OrderID = clone.ID
		if item.Status == "" {
			item.Status = domain.ItemStatusPending
		}
		if !item.Status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
		if item.UpdatedAt.IsZero() {
			item.UpdatedAt = now
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if previous, ok := r.orders[clone.ID]; ok {
		for _, item := range previous.Items {
			delete(r.items, item.ID)
		}
	}
	r.orders[clone.ID] = clone
	for _, item := range clone.Items {
		r.items[item.ID] = clone.ID
	}
	return clone.Clone(), nil
}

func (r *Repository) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) GetItem(_ context.Context, id string) (*domain.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	orderID, ok := r.items[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	item, ok := r.orders[orderID].Item(id)
	if !ok {
		return nil, ports.ErrNotFound
	}
	return item.Clone(), nil
}

func (r *Repository) ListOrders(_ context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	matched := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		matched = append(matched, order.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if filter.Offset >= len(matched) {
		return []*domain.Order{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// SaveOrderStatus writes the order header and the cascaded items under one lock.
func (r *Repository) SaveOrderStatus(_ context.Context, order *domain.Order, cascadedItemIDs []string) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	stored.Status = order.Status
	stored.UpdatedBy = order.UpdatedBy
	stored.UpdatedAt = order.UpdatedAt
	for _, itemID := range cascadedItemIDs {
		source, ok := order.Item(itemID)
		if !ok {
			continue
		}
		target, ok := stored.Item(itemID)
		if !ok {
			continue
		}
		target.Status = source.Status
		target.UpdatedAt = source.UpdatedAt
	}
	return stored.Clone(), nil
}

func (r *Repository) SaveItem(_ context.Context, item *domain.OrderItem) (*domain.OrderItem, error) {
	if item == nil {
		return nil, errors.New("item is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	orderID, ok := r.items[item.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	target, ok := r.orders[orderID].Item(item.ID)
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := item.Clone()
	clone.OrderID = orderID
	*target = *clone
	return clone.Clone(), nil
}

func (r *Repository) HasCompletedPurchase(_ context.Context, userID, productID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, order := range r.orders {
		if order.UserID != userID || order.Status != domain.OrderStatusDone {
			continue
		}
		for _, item := range order.Items {
			if item.ProductID == productID && item.Status == domain.ItemStatusCompleted {
				return true, nil
			}
		}
	}
	return false, nil
}
