// Package store implements the persistent key-value store the session and
// cart managers write to. Values are JSON documents.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned by Get when a stored value cannot be decoded into dest.
var ErrMalformed = errors.New("malformed stored value")

// Store is a keyed get/set/remove over JSON-serializable values.
type Store interface {
	// Get decodes the value under key into dest and reports whether the key existed.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

func encode(value any) ([]byte, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return data, nil
}

func decode(key string, data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: key %s: %v", ErrMalformed, key, err)
	}
	return nil
}
