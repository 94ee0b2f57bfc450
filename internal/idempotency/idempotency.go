// Package idempotency deduplicates task submissions that share an
// Idempotency-Key header.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"
)

// Entry is the replayable response captured for a key.
type Entry struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type item struct {
	entry     Entry
	expiresAt time.Time
}

type claim struct {
	owner     string
	expiresAt time.Time
}

// Store keeps keyed responses in memory. Claim serializes concurrent
// submissions with the same key so only one request does the work; the rest
// replay the saved entry.
type Store struct {
	mu     sync.Mutex
	items  map[string]item
	claims map[string]claim
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		items:  make(map[string]item),
		claims: make(map[string]claim),
		now:    time.Now,
	}
}

// Lookup returns the saved entry for key if it has not expired.
func (s *Store) Lookup(_ context.Context, key string) (Entry, bool, error) {
	hashed, err := hashKey(key)
	if err != nil {
		return Entry{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.items[hashed]
	if !ok {
		return Entry{}, false, nil
	}
	if !found.expiresAt.IsZero() && s.now().UTC().After(found.expiresAt) {
		delete(s.items, hashed)
		return Entry{}, false, nil
	}
	entry := found.entry
	entry.Body = append([]byte(nil), entry.Body...)
	return entry, true, nil
}

// Claim takes the in-flight lock for key. It returns false while another
// owner holds an unexpired claim.
func (s *Store) Claim(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	hashed, err := hashKey(key)
	if err != nil {
		return false, err
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return false, errors.New("owner is required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.claims[hashed]
	if ok && now.Before(existing.expiresAt) {
		return false, nil
	}
	s.claims[hashed] = claim{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

// Save records the response to replay for key.
func (s *Store) Save(_ context.Context, key string, entry Entry, ttl time.Duration) error {
	hashed, err := hashKey(key)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cloned := entry
	cloned.Body = append([]byte(nil), entry.Body...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[hashed] = item{entry: cloned, expiresAt: s.now().UTC().Add(ttl)}
	return nil
}

// Release drops the claim if owner still holds it.
func (s *Store) Release(_ context.Context, key, owner string) error {
	hashed, err := hashKey(key)
	if err != nil {
		return err
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return errors.New("owner is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.claims[hashed]; ok && existing.owner == owner {
		delete(s.claims, hashed)
	}
	return nil
}

func hashKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("key is required")
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]), nil
}
