// Package liststore owns the canonical todo list.
//
// Every mutation builds a new list (and a new Item where one changes), swaps
// it in, notifies observers, and queues one deferred write of the whole list.
// Snapshots already handed out are never touched again.
//
// A Store belongs to one goroutine: the CLI command or the TUI update loop.
// Only the deferred writes may run elsewhere, and they carry their own
// snapshot.
package liststore

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Makepad-fr/todolist/internal/loop"
	"github.com/Makepad-fr/todolist/internal/model"
)

// Persister is the durable side of the store.
type Persister interface {
	Load(ctx context.Context) model.List
	Save(ctx context.Context, list model.List) error
}

// Scheduler runs tasks after the current synchronous turn.
type Scheduler interface {
	Defer(task loop.Task)
}

// IDGenerator returns a fresh id for each call.
type IDGenerator func() model.ID

// NewUUID is the default IDGenerator: a random (v4) UUID, 122 random bits.
// For n ids the chance of any collision is about n²/2¹²³, below 1e-25 for a
// million items. Ids are not checked for collisions.
func NewUUID() model.ID {
	return model.ID(uuid.NewString())
}

// Store holds the current list and fans changes out to observers and the
// persister.
type Store struct {
	list      model.List
	gen       uint64
	persister Persister
	sched     Scheduler
	newID     IDGenerator
	log       *zap.Logger

	observers map[int]func(model.List)
	order     []int
	nextObs   int
}

// Option configures a Store.
type Option func(*Store)

// WithPersister sets where deferred writes go. Without one, mutations
// stay in memory.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithScheduler sets the queue deferred writes are put on. Defaults to a
// private loop.Queue, which nothing drains; hosts that persist pass their own.
func WithScheduler(sched Scheduler) Option {
	return func(s *Store) { s.sched = sched }
}

// WithIDGenerator replaces NewUUID, mostly for tests.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New constructs a store holding initial. The list is copied; invalid
// entries (no id, no text, repeated id) are dropped.
func New(initial model.List, opts ...Option) *Store {
	s := &Store{
		newID:     NewUUID,
		log:       zap.NewNop(),
		observers: make(map[int]func(model.List)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sched == nil {
		s.sched = &loop.Queue{}
	}
	list, dropped := initial.Sanitize()
	if dropped > 0 {
		s.log.Warn("dropped invalid initial items", zap.Int("dropped", dropped))
	}
	s.list = list
	return s
}

// Open loads the persisted list from p, then constructs the store on it
// with p as its persister.
func Open(ctx context.Context, p Persister, opts ...Option) *Store {
	initial := p.Load(ctx)
	return New(initial, append([]Option{WithPersister(p)}, opts...)...)
}

// Snapshot returns a copy of the current list.
func (s *Store) Snapshot() model.List {
	return s.list.Clone()
}

// Add appends a new pending item and returns the resulting list. Text is
// trimmed; blank text is a no-op.
func (s *Store) Add(text string) model.List {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.Snapshot()
	}
	next := make(model.List, len(s.list), len(s.list)+1)
	copy(next, s.list)
	next = append(next, model.Item{ID: s.newID(), Text: text})
	return s.commit(next, "add")
}

// Toggle flips Completed on the item with id. Unknown ids are a no-op.
func (s *Store) Toggle(id model.ID) model.List {
	i := s.list.Index(id)
	if i < 0 {
		return s.Snapshot()
	}
	next := s.list.Clone()
	next[i] = s.list[i].Toggled()
	return s.commit(next, "toggle")
}

// Remove drops the item with id. Unknown ids are a no-op.
func (s *Store) Remove(id model.ID) model.List {
	i := s.list.Index(id)
	if i < 0 {
		return s.Snapshot()
	}
	next := make(model.List, 0, len(s.list)-1)
	next = append(next, s.list[:i]...)
	next = append(next, s.list[i+1:]...)
	return s.commit(next, "remove")
}

// Subscribe registers fn to receive every new list, in registration order,
// right after the change. The list passed to fn must not be modified. If fn
// mutates the store, observers not yet called skip the superseded list and
// only see the newer one. The returned func unregisters it.
func (s *Store) Subscribe(fn func(model.List)) (unsubscribe func()) {
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.order = append(s.order, id)
	return func() {
		if _, ok := s.observers[id]; !ok {
			return
		}
		delete(s.observers, id)
		for i, o := range s.order {
			if o == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
}

func (s *Store) commit(next model.List, op string) model.List {
	s.list = next
	s.gen++
	gen := s.gen
	s.log.Debug("list changed", zap.String("op", op), zap.Int("items", len(next)))

	// Queue the write before observers run, so a write queued by a nested
	// mutation lands after this one.
	s.schedulePersist(next)
	for _, id := range append([]int(nil), s.order...) {
		if s.gen != gen {
			break
		}
		if fn, ok := s.observers[id]; ok {
			fn(next)
		}
	}
	return next.Clone()
}

func (s *Store) schedulePersist(snapshot model.List) {
	if s.persister == nil {
		return
	}
	p, log := s.persister, s.log
	s.sched.Defer(func() error {
		if err := p.Save(context.Background(), snapshot); err != nil {
			log.Warn("persist list", zap.Int("items", len(snapshot)), zap.Error(err))
			return err
		}
		return nil
	})
}
