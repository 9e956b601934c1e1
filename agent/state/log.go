package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Log is a typed, per-session view over a ListStore namespace. Entries are
// stored as JSON, one per list element, under "<namespace>:<session id>".
type Log[T any] struct {
	store     ListStore
	namespace string
	ttl       time.Duration
}

func NewLog[T any](store ListStore, namespace string, ttl time.Duration) *Log[T] {
	return &Log[T]{
		store:     store,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (l *Log[T]) Key(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrInvalidSession
	}
	return l.namespace + ":" + sessionID, nil
}

// Append stores v and restarts the session's expiry window for this log.
func (l *Log[T]) Append(ctx context.Context, sessionID string, v T) error {
	key, err := l.Key(sessionID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s entry: %w", l.namespace, err)
	}
	return l.store.Append(ctx, key, payload, l.ttl)
}

// All returns every live entry in append order.
func (l *Log[T]) All(ctx context.Context, sessionID string) ([]T, error) {
	key, err := l.Key(sessionID)
	if err != nil {
		return nil, err
	}
	raw, err := l.store.Range(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("unmarshal %s entry %d: %w", l.namespace, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Last returns the newest entry; ok is false when the log is empty.
func (l *Log[T]) Last(ctx context.Context, sessionID string) (v T, ok bool, err error) {
	all, err := l.All(ctx, sessionID)
	if err != nil || len(all) == 0 {
		return v, false, err
	}
	return all[len(all)-1], true, nil
}

func (l *Log[T]) Clear(ctx context.Context, sessionID string) error {
	key, err := l.Key(sessionID)
	if err != nil {
		return err
	}
	return l.store.Delete(ctx, key)
}

func (l *Log[T]) Length(ctx context.Context, sessionID string) (int, error) {
	key, err := l.Key(sessionID)
	if err != nil {
		return 0, err
	}
	n, err := l.store.Len(ctx, key)
	return int(n), err
}
