package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID identifies an Item for its whole lifetime.
type ID string

// UnmarshalJSON accepts a JSON string or a JSON number. Lists written by
// older clients carry numeric random ids; the number's literal text is kept.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: want string or number, got %s", b)
	}
	*id = ID(n.String())
	return nil
}

// Item is the domain model for a todo entry.
// Values are never edited in place; a toggle builds a new Item.
type Item struct {
	ID        ID     `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Toggled returns a copy with Completed flipped.
func (it Item) Toggled() Item {
	it.Completed = !it.Completed
	return it
}
