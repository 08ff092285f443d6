package mock

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/muffle"
)

var _ muffle.Storage = (*Storage)(nil)

// Storage is a mock implementation of muffle.Storage.
type Storage struct {
	GetFn func(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	SetFn func(ctx context.Context, values map[string]json.RawMessage) error
}

func (s *Storage) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	return s.GetFn(ctx, keys...)
}

func (s *Storage) Set(ctx context.Context, values map[string]json.RawMessage) error {
	return s.SetFn(ctx, values)
}
