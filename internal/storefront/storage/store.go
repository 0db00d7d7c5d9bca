// Package storage is the client-side persistence the storefront modules share.
// It plays the part of browser localStorage: string keys, JSON values, and a
// change feed for writes made by other handles ("tabs") on the same data.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	KeyCart          = "cart"
	KeyAdminProducts = "adminProducts"
	KeyCurrentUser   = "currentUser"
	KeyUsers         = "users"
	KeyPendingOrder  = "pendingOrder"
	KeyPaymentData   = "paymentData"
	KeySubscribers   = "subscribers"
	KeyOrders        = "orders"
)

var ErrClosed = errors.New("store is closed")

// Change describes a write made through another handle. Value is nil when the
// key was removed.
type Change struct {
	Key   string
	Value []byte
}

type Store interface {
	Load(key string) ([]byte, bool, error)
	Save(key string, value []byte) error
	Remove(key string) error
	// Watch streams changes made by other handles until ctx is done.
	Watch(ctx context.Context) <-chan Change
}

// LoadJSON decodes key into v. A missing or corrupt value leaves v untouched
// and reports false; only storage failures are returned as errors.
func LoadJSON(s Store, key string, v interface{}) (bool, error) {
	raw, ok, err := s.Load(key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, nil
	}
	return true, nil
}

func SaveJSON(s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Save(key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
