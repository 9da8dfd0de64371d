package model

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrEmptyID     = errors.New("empty id")
	ErrEmptyText   = errors.New("empty text")
	ErrDuplicateID = errors.New("duplicate id")
)

// List is an ordered sequence of items; insertion order is display order.
// A List handed out as a snapshot is never modified afterwards.
type List []Item

// Index returns the position of the item with the given id, or -1.
func (l List) Index(id ID) int {
	return slices.IndexFunc(l, func(it Item) bool { return it.ID == id })
}

// Clone returns a copy backed by a new array. The result is never nil.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Equal reports whether both lists hold the same items in the same order.
// A nil list equals an empty one.
func (l List) Equal(other List) bool {
	return slices.Equal(l, other)
}

// Stats counts done and pending items.
func (l List) Stats() (done, pending int) {
	for _, it := range l {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// Validate checks the list invariants: every item has an id and a text,
// and ids are unique.
func (l List) Validate() error {
	seen := make(map[ID]struct{}, len(l))
	var errs []error
	for i, it := range l {
		if it.ID == "" {
			errs = append(errs, fmt.Errorf("item %d: %w", i, ErrEmptyID))
			continue
		}
		if it.Text == "" {
			errs = append(errs, fmt.Errorf("item %d (%s): %w", i, it.ID, ErrEmptyText))
		}
		if _, dup := seen[it.ID]; dup {
			errs = append(errs, fmt.Errorf("item %d (%s): %w", i, it.ID, ErrDuplicateID))
		}
		seen[it.ID] = struct{}{}
	}
	return errors.Join(errs...)
}

// Sanitize returns the list with invalid entries dropped: items without an
// id or a text, and every repeat of an id after its first occurrence.
// The second value is the number of dropped entries.
func (l List) Sanitize() (List, int) {
	seen := make(map[ID]struct{}, len(l))
	out := make(List, 0, len(l))
	for _, it := range l {
		if it.ID == "" || it.Text == "" {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out, len(l) - len(out)
}
