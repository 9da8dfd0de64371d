package liststore_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Makepad-fr/todolist/internal/loop"
	"github.com/Makepad-fr/todolist/internal/model"
	"github.com/Makepad-fr/todolist/internal/store/liststore"
	"github.com/Makepad-fr/todolist/internal/store/memstore"
	"github.com/Makepad-fr/todolist/internal/store/persist"
)

// sequentialIDs yields "1", "2", ...
func sequentialIDs() liststore.IDGenerator {
	n := 0
	return func() model.ID {
		n++
		return model.ID(strconv.Itoa(n))
	}
}

type failingSlot struct{ err error }

func (f failingSlot) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (f failingSlot) Set(context.Context, string, []byte) error         { return f.err }

type harness struct {
	store   *liststore.Store
	queue   *loop.Queue
	slot    *memstore.Store
	adapter *persist.Adapter
}

func newHarness(t *testing.T, initial model.List) *harness {
	t.Helper()
	h := &harness{queue: &loop.Queue{}, slot: memstore.New()}
	h.adapter = persist.NewAdapter(h.slot)
	if initial != nil {
		require.NoError(t, h.adapter.Save(context.Background(), initial))
	}
	h.store = liststore.Open(context.Background(), h.adapter,
		liststore.WithScheduler(h.queue),
		liststore.WithIDGenerator(sequentialIDs()),
	)
	return h
}

func (h *harness) durable(t *testing.T) model.List {
	t.Helper()
	return h.adapter.Load(context.Background())
}

func TestAddThenToggle(t *testing.T) {
	h := newHarness(t, nil)

	after := h.store.Add("buy milk")
	require.Len(t, after, 1)
	it := after[0]
	assert.Equal(t, "buy milk", it.Text)
	assert.False(t, it.Completed)
	assert.NotEmpty(t, it.ID)

	toggled := h.store.Toggle(it.ID)
	require.Len(t, toggled, 1)
	assert.Equal(t, model.Item{ID: it.ID, Text: "buy milk", Completed: true}, toggled[0])

	// the earlier snapshot is untouched
	assert.False(t, after[0].Completed)
}

func TestToggleTwiceRestores(t *testing.T) {
	h := newHarness(t, nil)
	l := h.store.Add("a")
	id := l[0].ID
	h.store.Toggle(id)
	assert.Equal(t, l, h.store.Toggle(id))
}

func TestRemove(t *testing.T) {
	h := newHarness(t, model.List{
		{ID: "1", Text: "a"},
		{ID: "2", Text: "b"},
	})
	got := h.store.Remove("1")
	assert.Equal(t, model.List{{ID: "2", Text: "b"}}, got)
}

func TestRemoveKeepsOrder(t *testing.T) {
	h := newHarness(t, nil)
	for _, s := range []string{"a", "b", "c", "d"} {
		h.store.Add(s)
	}
	got := h.store.Remove("2")
	texts := make([]string, 0, len(got))
	for _, it := range got {
		texts = append(texts, it.Text)
	}
	assert.Equal(t, []string{"a", "c", "d"}, texts)
}

func TestUnknownIDIsNoOp(t *testing.T) {
	initial := model.List{{ID: "1", Text: "a"}, {ID: "2", Text: "b", Completed: true}}
	h := newHarness(t, initial)
	var notified int
	h.store.Subscribe(func(model.List) { notified++ })

	assert.True(t, h.store.Toggle("missing").Equal(initial))
	assert.True(t, h.store.Remove("missing").Equal(initial))
	assert.True(t, h.store.Snapshot().Equal(initial))
	assert.Zero(t, notified)
	assert.Zero(t, h.queue.Len(), "no-ops must not schedule writes")
}

func TestEmptyAddRejected(t *testing.T) {
	h := newHarness(t, model.List{{ID: "1", Text: "a"}})
	before := h.store.Snapshot()
	for _, text := range []string{"", " ", "\t\n"} {
		assert.True(t, h.store.Add(text).Equal(before), "add(%q)", text)
	}
	assert.Zero(t, h.queue.Len())
}

func TestAddTrimsText(t *testing.T) {
	h := newHarness(t, nil)
	got := h.store.Add("  buy milk \n")
	assert.Equal(t, "buy milk", got[0].Text)
}

func TestUniquenessWithDefaultGenerator(t *testing.T) {
	s := liststore.New(nil)
	for i := 0; i < 2000; i++ {
		s.Add(fmt.Sprintf("item %d", i))
	}
	l := s.Snapshot()
	require.Len(t, l, 2000)
	assert.NoError(t, l.Validate())
}

func TestSnapshotsAreNotAliased(t *testing.T) {
	h := newHarness(t, nil)
	first := h.store.Add("a")
	second := h.store.Add("b")
	third := h.store.Toggle(second[0].ID)
	h.store.Remove(second[1].ID)

	assert.Equal(t, model.List{{ID: "1", Text: "a"}}, first)
	assert.Equal(t, model.List{{ID: "1", Text: "a"}, {ID: "2", Text: "b"}}, second)
	assert.Equal(t, model.List{{ID: "1", Text: "a", Completed: true}, {ID: "2", Text: "b"}}, third)
}

func TestPersistenceIsDeferred(t *testing.T) {
	h := newHarness(t, model.List{{ID: "seed", Text: "x"}})
	prior := h.durable(t)

	now := h.store.Add("buy milk")

	// the call has returned but the write has not run yet
	assert.True(t, h.durable(t).Equal(prior))
	assert.Equal(t, 1, h.queue.Len())

	require.NoError(t, h.queue.Flush())
	if diff := cmp.Diff(now, h.durable(t)); diff != "" {
		t.Errorf("durable state after flush (-want +got):\n%s", diff)
	}
}

func TestOneWritePerMutationAndConvergence(t *testing.T) {
	h := newHarness(t, nil)
	a := h.store.Add("a")[0].ID
	h.store.Add("b")
	h.store.Toggle(a)
	h.store.Remove("missing")
	final := h.store.Remove(a)

	assert.Equal(t, 4, h.queue.Len())
	require.NoError(t, h.queue.Flush())
	assert.Equal(t, final, h.durable(t))
}

func TestRoundTripThroughStore(t *testing.T) {
	h := newHarness(t, nil)
	h.store.Add("one")
	id := h.store.Add("two")[1].ID
	h.store.Add("three")
	h.store.Toggle(id)
	require.NoError(t, h.queue.Flush())

	reopened := liststore.Open(context.Background(), h.adapter)
	if diff := cmp.Diff(h.store.Snapshot(), reopened.Snapshot()); diff != "" {
		t.Errorf("reopened list (-want +got):\n%s", diff)
	}
}

func TestWriteFailureDoesNotRollBack(t *testing.T) {
	cause := errors.New("quota exceeded")
	core, logs := observer.New(zapcore.WarnLevel)
	q := &loop.Queue{}
	s := liststore.Open(context.Background(),
		persist.NewAdapter(failingSlot{err: cause}),
		liststore.WithScheduler(q),
		liststore.WithLogger(zap.New(core)),
	)

	got := s.Add("a")
	err := q.Flush()
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, got, s.Snapshot())
	assert.Equal(t, 1, logs.FilterMessage("persist list").Len())

	// later operations still work and are attempted again
	s.Add("b")
	assert.Len(t, s.Snapshot(), 2)
	assert.Error(t, q.Flush())
	assert.Equal(t, 2, logs.FilterMessage("persist list").Len())
}

func TestObservers(t *testing.T) {
	h := newHarness(t, nil)
	var calls []string
	var seen model.List
	unsubA := h.store.Subscribe(func(l model.List) { calls = append(calls, "a"); seen = l })
	h.store.Subscribe(func(model.List) { calls = append(calls, "b") })

	got := h.store.Add("x")
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Equal(t, got, seen)

	unsubA()
	unsubA()
	h.store.Add("y")
	assert.Equal(t, []string{"a", "b", "b"}, calls)
}

func TestObserverMayUnsubscribeItself(t *testing.T) {
	s := liststore.New(nil)
	var calls int
	var unsub func()
	unsub = s.Subscribe(func(model.List) { calls++; unsub() })
	s.Add("a")
	s.Add("b")
	assert.Equal(t, 1, calls)
}

func TestNewSanitizesInitialList(t *testing.T) {
	s := liststore.New(model.List{{ID: "1", Text: "a"}, {ID: "1", Text: "b"}, {ID: "2"}})
	assert.Equal(t, model.List{{ID: "1", Text: "a"}}, s.Snapshot())
}

func TestNewWithoutPersisterStaysInMemory(t *testing.T) {
	s := liststore.New(nil, liststore.WithIDGenerator(sequentialIDs()))
	assert.NotNil(t, s.Snapshot())
	assert.Equal(t, model.List{{ID: "1", Text: "a"}}, s.Add("a"))
}

func TestObserverMutationConverges(t *testing.T) {
	h := newHarness(t, nil)
	h.store.Subscribe(func(l model.List) {
		if len(l) == 1 && !l[0].Completed {
			h.store.Toggle(l[0].ID)
		}
	})
	var seen []model.List
	h.store.Subscribe(func(l model.List) { seen = append(seen, l) })

	h.store.Add("a")
	want := model.List{{ID: "1", Text: "a", Completed: true}}
	assert.Equal(t, want, h.store.Snapshot())
	assert.Equal(t, []model.List{want}, seen, "later observers only see the newest list")

	require.NoError(t, h.queue.Flush())
	if diff := cmp.Diff(h.store.Snapshot(), h.durable(t)); diff != "" {
		t.Errorf("durable state (-memory +durable):\n%s", diff)
	}
}

func TestReturnedListsAreCopies(t *testing.T) {
	h := newHarness(t, nil)
	added := h.store.Add("a")
	added[0].Text = "changed"

	snap := h.store.Snapshot()
	snap[0].Completed = true
	h.store.Toggle("missing")[0].Text = "also changed"

	assert.Equal(t, model.List{{ID: "1", Text: "a"}}, h.store.Snapshot())
	require.NoError(t, h.queue.Flush())
	assert.Equal(t, model.List{{ID: "1", Text: "a"}}, h.durable(t))
}
