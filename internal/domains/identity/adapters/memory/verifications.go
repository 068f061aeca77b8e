package memory

import (
	"context"
	"sync"
	"time"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
)

type verificationKey struct {
	email   string
	purpose domain.Purpose
}

// VerificationStore keeps verifications in process memory.
type VerificationStore struct {
	mu      sync.Mutex
	entries map[verificationKey]*domain.Verification
	tokens  map[string]verificationKey
}

func NewVerificationStore() *VerificationStore {
	return &VerificationStore{
		entries: make(map[verificationKey]*domain.Verification),
		tokens:  make(map[string]verificationKey),
	}
}

var _ ports.VerificationStore = (*VerificationStore)(nil)

func (s *VerificationStore) Save(_ context.Context, v *domain.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := verificationKey{email: v.Email, purpose: v.Purpose}
	if previous, ok := s.entries[key]; ok && previous.Token != "" && previous.Token != v.Token {
		delete(s.tokens, previous.Token)
	}
	s.entries[key] = cloneVerification(v)
	if v.Token != "" {
		s.tokens[v.Token] = key
	}
	return nil
}

func (s *VerificationStore) Get(_ context.Context, email string, purpose domain.Purpose) (*domain.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[verificationKey{email: email, purpose: purpose}]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneVerification(v), nil
}

func (s *VerificationStore) GetByToken(_ context.Context, token string) (*domain.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.tokens[token]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneVerification(s.entries[key]), nil
}

func (s *VerificationStore) ConsumeToken(_ context.Context, token string, now time.Time) (*domain.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.tokens[token]
	if !ok {
		return nil, ports.ErrNotFound
	}
	v := s.entries[key]
	if err := v.Consume(now); err != nil {
		return nil, err
	}
	return cloneVerification(v), nil
}

func (s *VerificationStore) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for key, v := range s.entries {
		if v.RetainUntil().After(before) {
			continue
		}
		delete(s.entries, key)
		if v.Token != "" {
			delete(s.tokens, v.Token)
		}
		purged++
	}
	return purged, nil
}

func cloneVerification(v *domain.Verification) *domain.Verification {
	clone := *v
	if v.VerifiedAt != nil {
		t := *v.VerifiedAt
		clone.VerifiedAt = &t
	}
	if v.ConsumedAt != nil {
		t := *v.ConsumedAt
		clone.ConsumedAt = &t
	}
	return &clone
}
