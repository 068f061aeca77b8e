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

var _ ports.VerificationStore = (*VerificationStore)(nil)

// VerificationStore persists email verifications in PostgreSQL.
type VerificationStore struct {
	db *gorm.DB
}

func NewVerificationStore(db *gorm.DB) *VerificationStore {
	return &VerificationStore{db: db}
}

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

// Save replaces the verification for the email and purpose.
func (s *VerificationStore) Save(ctx context.Context, v *domain.Verification) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if v == nil {
		return errors.New("verification is nil")
	}
	record := toVerificationRecord(v)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}, {Name: "purpose"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"code_hash", "token", "issued_at", "expires_at",
				"verified_at", "consumed_at", "attempts", "retain_until",
			}),
		}).
		Create(&record).Error
}

func (s *VerificationStore) Get(ctx context.Context, email string, purpose domain.Purpose) (*domain.Verification, error) {
	return s.first(ctx, "email = ? AND purpose = ?", email, string(purpose))
}

func (s *VerificationStore) GetByToken(ctx context.Context, token string) (*domain.Verification, error) {
	return s.first(ctx, "token = ?", token)
}

// ConsumeToken locks the row and stamps consumed_at only while it is still unset.
func (s *VerificationStore) ConsumeToken(ctx context.Context, token string, now time.Time) (*domain.Verification, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var consumed *domain.Verification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record verificationRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token = ?", token).
			First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		v := toVerificationDomain(record)
		if err := v.Consume(now); err != nil {
			return err
		}
		result := tx.Model(&verificationRecord{}).
			Where("token = ? AND consumed_at IS NULL", token).
			Update("consumed_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrTokenConsumed
		}
		consumed = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

// PurgeExpired deletes rows past their retention. Use for housekeeping or cron.
func (s *VerificationStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).Where("retain_until <= ?", before).Delete(&verificationRecord{})
	return result.RowsAffected, result.Error
}

func (s *VerificationStore) first(ctx context.Context, query string, args ...any) (*domain.Verification, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var record verificationRecord
	if err := s.db.WithContext(ctx).Where(query, args...).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return toVerificationDomain(record), nil
}

func (s *VerificationStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres verification store not configured")
	}
	return nil
}

func toVerificationRecord(v *domain.Verification) verificationRecord {
	record := verificationRecord{
		Email:       v.Email,
		Purpose:     string(v.Purpose),
		CodeHash:    v.CodeHash,
		IssuedAt:    v.IssuedAt,
		ExpiresAt:   v.ExpiresAt,
		VerifiedAt:  v.VerifiedAt,
		ConsumedAt:  v.ConsumedAt,
		Attempts:    v.Attempts,
		RetainUntil: v.RetainUntil(),
	}
	if v.Token != "" {
		token := v.Token
		record.Token = &token
	}
	return record
}

func toVerificationDomain(record verificationRecord) *domain.Verification {
	v := &domain.Verification{
		Email:      record.Email,
		Purpose:    domain.Purpose(record.Purpose),
		CodeHash:   record.CodeHash,
		IssuedAt:   record.IssuedAt,
		ExpiresAt:  record.ExpiresAt,
		VerifiedAt: record.VerifiedAt,
		ConsumedAt: record.ConsumedAt,
		Attempts:   record.Attempts,
	}
	if record.Token != nil {
		v.Token = *record.Token
	}
	return v
}
