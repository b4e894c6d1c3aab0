// Package store provides the TTL key-value collaborator the gate uses
// for session and device state. Values are opaque bytes; callers
// serialize their own records.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a key is absent or its TTL has lapsed.
var ErrNotFound = errors.New("store: key not found")

// Store is a TTL key-value store. A zero or negative TTL means the key
// never expires.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// SessionRecord is the session state the gate keeps per session id:
// flags consumed by route conditions (maintenance trapdoor activation)
// and the operator-verification bit.
type SessionRecord struct {
	SessionID        string          `json:"session_id"`
	Flags            map[string]bool `json:"flags,omitempty"`
	OperatorID       string          `json:"operator_id,omitempty"`
	OperatorVerified bool            `json:"operator_verified,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

const sessionKeyPrefix = "powergate:session:"

// GetSession loads a session record, returning ErrNotFound when absent.
func GetSession(ctx context.Context, s Store, sessionID string) (SessionRecord, error) {
	raw, err := s.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		return SessionRecord{}, err
	}
	var rec SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return SessionRecord{}, fmt.Errorf("store: decode session %s: %w", sessionID, err)
	}
	return rec, nil
}

// PutSession saves a session record under the given TTL.
func PutSession(ctx context.Context, s Store, rec SessionRecord, ttl time.Duration) error {
	rec.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode session %s: %w", rec.SessionID, err)
	}
	return s.Set(ctx, sessionKeyPrefix+rec.SessionID, raw, ttl)
}

// DeleteSession removes a session record.
func DeleteSession(ctx context.Context, s Store, sessionID string) error {
	return s.Delete(ctx, sessionKeyPrefix+sessionID)
}
