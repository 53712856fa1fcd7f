package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no record exists for a key
var ErrNotFound = errors.New("record not found")

// Record keys. Names match the keys the browser dashboard used in
// localStorage, so exported data can be dropped into a FileStore directly.
const (
	KeyCalls           = "td_calls_v2"
	KeyAttendance      = "td_attendance_v1"
	KeyOverrides       = "td_hour_overrides_v1"
	KeyCommissions     = "td_commissions_v1"
	KeyBonuses         = "td_bonus_v1"
	KeyInvoiceOverride = "td_invoice_override_v1"
	KeyWeekStart       = "td_week_start_v1"
)

// AllKeys lists every persisted record
var AllKeys = []string{
	KeyCalls,
	KeyAttendance,
	KeyOverrides,
	KeyCommissions,
	KeyBonuses,
	KeyInvoiceOverride,
	KeyWeekStart,
}

// Result is the outcome of a write. Callers that treat persistence as best
// effort may drop it, but the adapter always reports what happened.
type Result struct {
	Key   string
	Bytes int
	Err   error
}

// OK reports whether the write succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// Store is a key -> JSON document store, one logical record per key
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) Result
	Delete(ctx context.Context, key string) error
}

// GetJSON loads key into dst
func GetJSON(ctx context.Context, s Store, key string, dst any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// PutJSON encodes v and writes it under key
func PutJSON(ctx context.Context, s Store, key string, v any) Result {
	data, err := json.Marshal(v)
	if err != nil {
		return Result{Key: key, Err: fmt.Errorf("failed to encode %s: %w", key, err)}
	}
	return s.Put(ctx, key, data)
}
