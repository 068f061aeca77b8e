package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Adapters never automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&orderItemRecord{},
		&auditRecord{},
		&userRecord{},
		&verificationRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID                 string          `gorm:"primaryKey;column:id;size:64"`
	UserID             string          `gorm:"column:user_id;size:64;index:idx_orders_user_status"`
	BuyerName          string          `gorm:"column:buyer_name"`
	BuyerEmail         string          `gorm:"column:buyer_email"`
	BuyerPhone         string          `gorm:"column:buyer_phone"`
	ShippingName       string          `gorm:"column:shipping_name"`
	ShippingPhone      string          `gorm:"column:shipping_phone"`
	ShippingAddress    string          `gorm:"column:shipping_address"`
	ShippingPostalCode string          `gorm:"column:shipping_postal_code"`
	ShippingMemo       string          `gorm:"column:shipping_memo"`
	Total              decimal.Decimal `gorm:"column:total_price;type:numeric(12,2)"`
	Status             string          `gorm:"column:status;type:varchar(16);index:idx_orders_user_status"`
	UpdatedBy          string          `gorm:"column:updated_by"`
	CreatedAt          time.Time       `gorm:"column:created_at;index"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

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

// Audit schema mirrors the orders audit sink.
type auditRecord struct {
	ID          string            `gorm:"primaryKey;column:id;size:64"`
	Action      string            `gorm:"column:action;size:128;index"`
	ActorID     string            `gorm:"column:actor_id;size:64;index"`
	EntityType  string            `gorm:"column:entity_type;size:32"`
	EntityID    string            `gorm:"column:entity_id;size:64;index"`
	Before      string            `gorm:"column:before_value"`
	After       string            `gorm:"column:after_value"`
	AffectedIDs pq.StringArray    `gorm:"column:affected_ids;type:text[]"`
	Severity    string            `gorm:"column:severity;size:16"`
	Metadata    map[string]string `gorm:"column:metadata;serializer:json"`
	OccurredAt  time.Time         `gorm:"column:occurred_at;index"`
}

func (auditRecord) TableName() string { return "audit_logs" }

// User schema mirrors the identity Postgres adapter.
type userRecord struct {
	ID        string    `gorm:"primaryKey;column:id;size:64"`
	Email     string    `gorm:"column:email;size:320;uniqueIndex"`
	Name      string    `gorm:"column:name"`
	Role      string    `gorm:"column:role;type:varchar(16)"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

type verificationRecord struct {
	Email       string     `gorm:"primaryKey;column:email;size:320"`
	Purpose     string     `gorm:"primaryKey;column:purpose;type:varchar(16)"`
	CodeHash    string     `gorm:"column:code_hash"`
	Token       *string    `gorm:"column:token;size:64;uniqueIndex"`
	IssuedAt    time.Time  `gorm:"column:issued_at"`
	ExpiresAt   time.Time  `gorm:"column:expires_at"`
	VerifiedAt  *time.Time `gorm:"column:verified_at"`
	ConsumedAt  *time.Time `gorm:"column:consumed_at"`
	Attempts    int        `gorm:"column:attempts"`
	RetainUntil time.Time  `gorm:"column:retain_until;index"`
}

func (verificationRecord) TableName() string { return "email_verifications" }
