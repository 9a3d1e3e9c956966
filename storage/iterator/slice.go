package iterator

import (
	"github.com/google/uuid"
	"github.com/navijation/mdb/storage/keyvaluepair"
)

var _ TableIterator = (*sliceIterator)(nil)

// sliceIterator walks a sorted, immutable slice of pairs. Clones share the slice.
type sliceIterator struct {
	id    uuid.UUID
	items []keyvaluepair.KeyValuePair
	pos   int
}

// FromSlice returns a cursor over items, which must already be in ascending key order and must not
// be modified afterwards.
func FromSlice(items []keyvaluepair.KeyValuePair) Cursor {
	return NewCursor(&sliceIterator{
		id:    uuid.New(),
		items: items,
	})
}

func (me *sliceIterator) Current() keyvaluepair.KeyValuePair {
	return me.items[me.pos]
}

func (me *sliceIterator) Next() error {
	if me.pos < len(me.items) {
		me.pos++
	}
	return nil
}

func (me *sliceIterator) IsDone() bool {
	return me.pos >= len(me.items)
}

func (me *sliceIterator) Position() uint64 {
	return uint64(me.pos)
}

func (me *sliceIterator) FileID() uuid.UUID {
	return me.id
}

func (me *sliceIterator) Clone() TableIterator {
	out := *me
	return &out
}
