// Package iterator defines the forward-only cursor shared by every ordered source of key-value
// pairs in the engine (sorted tables, memtables). Compaction merges any mix of sources through it.
package iterator

import (
	"iter"

	"github.com/google/uuid"
	"github.com/navijation/mdb/storage/keyvaluepair"
)

// TableIterator is implemented once per source format.
type TableIterator interface {
	// Current returns the pair under the cursor. Only valid while !IsDone().
	Current() keyvaluepair.KeyValuePair
	// Next advances the cursor. Advancing a finished cursor is a no-op.
	Next() error
	IsDone() bool
	// Position is the logical position of the cursor within its source; a finished cursor reports
	// the source's end position.
	Position() uint64
	// FileID identifies the underlying source.
	FileID() uuid.UUID
	// Clone returns an independent cursor at the same position.
	Clone() TableIterator
}

// Cursor is an owned, copyable handle over a TableIterator. Copying with Copy yields an independent
// cursor; plain assignment shares the underlying state.
type Cursor struct {
	impl TableIterator
}

func NewCursor(impl TableIterator) Cursor {
	return Cursor{impl: impl}
}

func (me Cursor) Copy() Cursor {
	return Cursor{impl: me.impl.Clone()}
}

func (me Cursor) Current() keyvaluepair.KeyValuePair {
	return me.impl.Current()
}

func (me Cursor) Next() error {
	return me.impl.Next()
}

func (me Cursor) IsDone() bool {
	return me.impl.IsDone()
}

func (me Cursor) Position() uint64 {
	return me.impl.Position()
}

func (me Cursor) FileID() uuid.UUID {
	return me.impl.FileID()
}

// Equal reports whether both cursors are over the same source at the same position.
func (me Cursor) Equal(other Cursor) bool {
	return me.impl.FileID() == other.impl.FileID() && me.impl.Position() == other.impl.Position()
}

// All drains a copy of the cursor, leaving the receiver untouched.
func (me Cursor) All() iter.Seq2[keyvaluepair.KeyValuePair, error] {
	return func(yield func(keyvaluepair.KeyValuePair, error) bool) {
		cursor := me.Copy()
		for !cursor.IsDone() {
			if !yield(cursor.Current(), nil) {
				return
			}
			if err := cursor.Next(); err != nil {
				yield(keyvaluepair.KeyValuePair{}, err)
				return
			}
		}
	}
}
