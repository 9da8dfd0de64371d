// Package persist keeps one serialized list in a durable key-value slot.
package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Makepad-fr/todolist/internal/model"
)

// DefaultKey is the slot key the list lives under.
const DefaultKey = "todoList"

// Slot is a raw durable key-value medium.
// Get reports ok=false when the key has never been written.
type Slot interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Adapter reads and writes a model.List at a fixed key of a Slot.
type Adapter struct {
	slot Slot
	key  string
	log  *zap.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(a *Adapter) { a.key = key }
}

// WithLogger sets the logger used to report unreadable prior state.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAdapter wraps slot, storing the list under DefaultKey unless WithKey
// says otherwise.
func NewAdapter(slot Slot, opts ...Option) *Adapter {
	a := &Adapter{slot: slot, key: DefaultKey, log: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load returns the stored list. A missing key, a read failure or a
// malformed payload all yield an empty list: there is simply no prior
// state. Entries that would break id uniqueness are dropped.
func (a *Adapter) Load(ctx context.Context) model.List {
	raw, ok, err := a.slot.Get(ctx, a.key)
	if err != nil {
		a.log.Warn("read list, starting empty", zap.String("key", a.key), zap.Error(err))
		return model.List{}
	}
	if !ok {
		return model.List{}
	}
	list, err := Decode(raw)
	if err != nil {
		a.log.Warn("malformed list, starting empty", zap.String("key", a.key), zap.Error(err))
		return model.List{}
	}
	clean, dropped := list.Sanitize()
	if dropped > 0 {
		a.log.Warn("dropped invalid items", zap.String("key", a.key), zap.Int("dropped", dropped))
	}
	return clean
}

// Save writes the whole list under the adapter's key. Errors from the
// slot are returned as-is (wrapped); nothing is retried.
func (a *Adapter) Save(ctx context.Context, list model.List) error {
	b, err := Encode(list)
	if err != nil {
		return err
	}
	if err := a.slot.Set(ctx, a.key, b); err != nil {
		return fmt.Errorf("save %s: %w", a.key, err)
	}
	return nil
}

// Encode renders the canonical encoding: an order-preserving JSON array of
// item objects. A nil list encodes as [].
func Encode(list model.List) ([]byte, error) {
	if list == nil {
		list = model.List{}
	}
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}

// Decode parses the canonical encoding. JSON null decodes to an empty list.
func Decode(raw []byte) (model.List, error) {
	var list model.List
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if list == nil {
		list = model.List{}
	}
	return list, nil
}
