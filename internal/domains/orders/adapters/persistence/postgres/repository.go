package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders and order items in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order header to a relational table.
type orderRecord struct {
	ID                 string            `gorm:"primaryKey;column:id;size:64"`
	UserID             string            `gorm:"column:user_id;size:64;index:idx_orders_user_status"`
	BuyerName          string            `gorm:"column:buyer_name"`
	BuyerEmail         string            `gorm:"column:buyer_email"`
	BuyerPhone         string            `gorm:"column:buyer_phone"`
	ShippingName       string            `gorm:"column:shipping_name"`
	ShippingPhone      string            `gorm:"column:shipping_phone"`
	ShippingAddress    string            `gorm:"column:shipping_address"`
	ShippingPostalCode string            `gorm:"column:shipping_postal_code"`
	ShippingMemo       string            `gorm:"column:shipping_memo"`
	Total              decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2)"`
	Status             string            `gorm:"column:status;type:varchar(16);index:idx_orders_user_status"`
	UpdatedBy          string            `gorm:"column:updated_by"`
	CreatedAt          time.Time         `gorm:"column:created_at;index"`
	UpdatedAt          time.Time         `gorm:"column:updated_at"`
	Items              []orderItemRecord `gorm:"foreignKey:OrderID;references:ID"`
}

func (orderRecord) TableName() string { return "orders" }

// orderItemRecord maps a single order line.
type orderItemRecord struct {
	ID             string          `gorm:"primaryKey;column:id;size:64"`
	OrderID        string          `gorm:"column:order_id;size:64;index"`
	ProductID      string          `gorm:"column:product_id;size:64;index:idx_order_items_product_status"`
	ProductName    string          `gorm:"column:product_name"`
	ProductType    string          `gorm:"column:product_type;type:varchar(16)"`
	Quantity       int             `gorm:"column:quantity"`
	UnitPrice      decimal.Decimal `gorm:"column:price_snapshot;type:numeric(12,2)"`
	Status         string          `gorm:"column:item_status;type:varchar(16);index:idx_order_items_product_status"`
	Carrier        string          `gorm:"column:carrier"`
	TrackingNumber string          `gorm:"column:tracking_number"`
	ShippedAt      *time.Time      `gorm:"column:shipped_at"`
	DeliveredAt    *time.Time      `gorm:"column:delivered_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Save upserts the order header and every item in one transaction.
func (r *Repository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := record.Items
		record.Items = nil
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&record).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, record.ID)
}

// GetOrder fetches an order with its items.
func (r *Repository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetItem fetches a single order item.
func (r *Repository) GetItem(ctx context.Context, id string) (*domain.OrderItem, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderItemRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	item := record.toDomain()
	return &item, nil
}

// ListOrders returns orders newest first.
func (r *Repository) ListOrders(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("created_at DESC").Order("id")
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	var records []orderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

// SaveOrderStatus writes the order status and the cascaded item statuses in a single transaction.
func (r *Repository) SaveOrderStatus(ctx context.Context, order *domain.Order, cascadedItemIDs []string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderRecord{}).Where("id = ?", order.ID).Updates(map[string]any{
			"status":     string(order.Status),
			"updated_by": order.UpdatedBy,
			"updated_at": order.UpdatedAt,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrNotFound
		}
		for _, itemID := range cascadedItemIDs {
			item, ok := order.Item(itemID)
			if !ok {
				continue
			}
			if err := tx.Model(&orderItemRecord{}).
				Where("id = ? AND order_id = ?", item.ID, order.ID).
				Updates(map[string]any{
					"item_status": string(item.Status),
					"updated_at":  item.UpdatedAt,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, order.ID)
}

// SaveItem writes the mutable columns of an item.
func (r *Repository) SaveItem(ctx context.Context, item *domain.OrderItem) (*domain.OrderItem, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.New("item is nil")
	}
	result := r.db.WithContext(ctx).Model(&orderItemRecord{}).Where("id = ?", item.ID).Updates(map[string]any{
		"item_status":     string(item.Status),
		"carrier":         item.Carrier,
		"tracking_number": item.TrackingNumber,
		"shipped_at":      item.ShippedAt,
		"delivered_at":    item.DeliveredAt,
		"updated_at":      item.UpdatedAt,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return r.GetItem(ctx, item.ID)
}

// HasCompletedPurchase looks for a COMPLETED item of the product inside a DONE order of the user.
func (r *Repository) HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&orderItemRecord{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ?", userID, string(domain.OrderStatusDone)).
		Where("order_items.product_id = ? AND order_items.item_status = ?", productID, string(domain.ItemStatusCompleted)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	now := time.Now().UTC()
	rec := orderRecord{
		ID:                 order.ID,
		UserID:             order.UserID,
		BuyerName:          order.BuyerName,
		BuyerEmail:         order.BuyerEmail,
		BuyerPhone:         order.BuyerPhone,
		ShippingName:       order.ShippingName,
		ShippingPhone:      order.ShippingPhone,
		ShippingAddress:    order.ShippingAddress,
		ShippingPostalCode: order.ShippingPostalCode,
		ShippingMemo:       order.ShippingMemo,
		Total:              order.Total,
		Status:             string(order.Status),
		UpdatedBy:          order.UpdatedBy,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	for _, item := range order.Items {
		itemRec := orderItemRecord{
			ID:             item.ID,
			OrderID:        rec.ID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			ProductType:    string(item.ProductType),
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			Status:         string(item.Status),
			Carrier:        item.Carrier,
			TrackingNumber: item.TrackingNumber,
			ShippedAt:      item.ShippedAt,
			DeliveredAt:    item.DeliveredAt,
			UpdatedAt:      item.UpdatedAt,
		}
		if itemRec.ID == "" {
			itemRec.ID = uuid.NewString()
		}
		if itemRec.Status == "" {
			itemRec.Status = string(domain.ItemStatusPending)
		}
		if itemRec.UpdatedAt.IsZero() {
			itemRec.UpdatedAt = now
		}
		rec.Items = append(rec.Items, itemRec)
	}
	return rec
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:                 r.ID,
		UserID:             r.UserID,
		BuyerName:          r.BuyerName,
		BuyerEmail:         r.BuyerEmail,
		BuyerPhone:         r.BuyerPhone,
		ShippingName:       r.ShippingName,
		ShippingPhone:      r.ShippingPhone,
		ShippingAddress:    r.ShippingAddress,
		ShippingPostalCode: r.ShippingPostalCode,
		ShippingMemo:       r.ShippingMemo,
		Total:              r.Total,
		Status:             domain.OrderStatus(r.Status),
		UpdatedBy:          r.UpdatedBy,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Items:              make([]domain.OrderItem, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		order.Items = append(order.Items, item.toDomain())
	}
	return order
}

func (r orderItemRecord) toDomain() domain.OrderItem {
	return domain.OrderItem{
		ID:             r.ID,
		OrderID:        r.OrderID,
		ProductID:      r.ProductID,
		ProductName:    r.ProductName,
		ProductType:    domain.ProductType(r.ProductType),
		Quantity:       r.Quantity,
		UnitPrice:      r.UnitPrice,
		Status:         domain.ItemStatus(r.Status),
		Carrier:        r.Carrier,
		TrackingNumber: r.TrackingNumber,
		ShippedAt:      r.ShippedAt,
		DeliveredAt:    r.DeliveredAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
