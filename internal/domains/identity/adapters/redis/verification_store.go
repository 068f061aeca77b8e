package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
)

var _ ports.VerificationStore = (*VerificationStore)(nil)

// VerificationStore keeps verifications in Redis; key expiry replaces purging.
type VerificationStore struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
}

type Option func(*VerificationStore)

// WithKeyPrefix namespaces every key, useful when sharing a Redis database.
func WithKeyPrefix(prefix string) Option {
	return func(s *VerificationStore) { s.prefix = prefix }
}

func WithClock(now func() time.Time) Option {
	return func(s *VerificationStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewVerificationStore(client goredis.UniversalClient, opts ...Option) *VerificationStore {
	s := &VerificationStore{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type verificationPayload struct {
	Email      string     `json:"email"`
	Purpose    string     `json:"purpose"`
	CodeHash   string     `json:"codeHash"`
	Token      string     `json:"token,omitempty"`
	IssuedAt   time.Time  `json:"issuedAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
	Attempts   int        `json:"attempts"`
}

func (s *VerificationStore) entryKey(email string, purpose domain.Purpose) string {
	return fmt.Sprintf("%sverification:%s:%s", s.prefix, purpose, email)
}

func (s *VerificationStore) tokenKey(token string) string {
	return s.prefix + "verification-token:" + token
}

// Save writes the entry and its token index with the same expiry.
func (s *VerificationStore) Save(ctx context.Context, v *domain.Verification) error {
	if err := s.ensureClient(); err != nil {
		return err
	}
	if v == nil {
		return errors.New("verification is nil")
	}
	key := s.entryKey(v.Email, v.Purpose)
	previous, err := s.load(ctx, key)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return err
	}

	ttl := v.RetainUntil().Sub(s.now())
	payload, err := json.Marshal(toPayload(v))
	if err != nil {
		return fmt.Errorf("encode verification: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if previous != nil && previous.Token != "" && previous.Token != v.Token {
			pipe.Del(ctx, s.tokenKey(previous.Token))
		}
		if ttl <= 0 {
			pipe.Del(ctx, key)
			if v.Token != "" {
				pipe.Del(ctx, s.tokenKey(v.Token))
			}
			return nil
		}
		pipe.Set(ctx, key, payload, ttl)
		if v.Token != "" {
			pipe.Set(ctx, s.tokenKey(v.Token), key, ttl)
		}
		return nil
	})
	return err
}

func (s *VerificationStore) Get(ctx context.Context, email string, purpose domain.Purpose) (*domain.Verification, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	return s.load(ctx, s.entryKey(email, purpose))
}

func (s *VerificationStore) GetByToken(ctx context.Context, token string) (*domain.Verification, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	key, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	v, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if v.Token != token {
		return nil, ports.ErrNotFound
	}
	return v, nil
}

// ConsumeToken watches the entry so a concurrent consumer aborts the transaction.
func (s *VerificationStore) ConsumeToken(ctx context.Context, token string, now time.Time) (*domain.Verification, error) {
	if err := s.ensureClient(); err != nil {
		return nil, err
	}
	key, err := s.client.Get(ctx, s.tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}

	var consumed *domain.Verification
	err = s.client.Watch(ctx, func(tx *goredis.Tx) error {
		v, err := s.loadWith(ctx, tx, key)
		if err != nil {
			return err
		}
		if v.Token != token {
			return ports.ErrNotFound
		}
		if err := v.Consume(now); err != nil {
			return err
		}
		payload, err := json.Marshal(toPayload(v))
		if err != nil {
			return fmt.Errorf("encode verification: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, payload, goredis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		consumed = v
		return nil
	}, key)
	if errors.Is(err, goredis.TxFailedErr) {
		return nil, domain.ErrTokenConsumed
	}
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

// PurgeExpired is a no-op; Redis expires keys on its own.
func (s *VerificationStore) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *VerificationStore) load(ctx context.Context, key string) (*domain.Verification, error) {
	return s.loadWith(ctx, s.client, key)
}

type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func (s *VerificationStore) loadWith(ctx context.Context, client getter, key string) (*domain.Verification, error) {
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	var payload verificationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode verification %s: %w", key, err)
	}
	return &domain.Verification{
		Email:      payload.Email,
		Purpose:    domain.Purpose(payload.Purpose),
		CodeHash:   payload.CodeHash,
		Token:      payload.Token,
		IssuedAt:   payload.IssuedAt,
		ExpiresAt:  payload.ExpiresAt,
		VerifiedAt: payload.VerifiedAt,
		ConsumedAt: payload.ConsumedAt,
		Attempts:   payload.Attempts,
	}, nil
}

func (s *VerificationStore) ensureClient() error {
	if s == nil || s.client == nil {
		return errors.New("redis verification store not configured")
	}
	return nil
}

func toPayload(v *domain.Verification) verificationPayload {
	return verificationPayload{
		Email:      v.Email,
		Purpose:    string(v.Purpose),
		CodeHash:   v.CodeHash,
		Token:      v.Token,
		IssuedAt:   v.IssuedAt,
		ExpiresAt:  v.ExpiresAt,
		VerifiedAt: v.VerifiedAt,
		ConsumedAt: v.ConsumedAt,
		Attempts:   v.Attempts,
	}
}
