package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
)

var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository persists accounts in PostgreSQL using GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and migrations.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRecord struct {
	ID        string    `gorm:"primaryKey;column:id;size:64"`
	Email     string    `gorm:"column:email;size:320;uniqueIndex"`
	Name      string    `gorm:"column:name"`
	Role      string    `gorm:"column:role;type:varchar(16)"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

// Save inserts or updates a user keyed by email.
func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user is nil")
	}
	record := userRecord{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "role", "updated_at"}),
		}).
		Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByEmail(ctx, record.Email)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) first(ctx context.Context, query string, arg string) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record userRecord
	if err := r.db.WithContext(ctx).First(&record, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &domain.User{
		ID:        record.ID,
		Email:     record.Email,
		Name:      record.Name,
		Role:      domain.Role(record.Role),
		CreatedAt: record.CreatedAt,
	}, nil
}

func (r *UserRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres user repository not configured")
	}
	return nil
}
