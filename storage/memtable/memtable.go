package memtable

import (
	"bytes"
	"iter"
	"sync/atomic"

	"github.com/navijation/mdb/storage/iterator"
	"github.com/navijation/mdb/storage/keyvaluepair"
	"github.com/zhangyunhao116/skipmap"
)

type orderedMap = skipmap.FuncMap[[]byte, []byte]

// Memtable is the ordered buffer of the most recent writes. A key mapped to an empty value is a
// tombstone that shadows older values for the key, including values on disk.
//
// The underlying skip list is safe for concurrent use, but callers still serialize writers so that
// the byte estimate and the write-ahead log stay in step.
type Memtable struct {
	data *orderedMap
	// cumulative key+value bytes inserted since creation; overwrites are counted again
	size atomic.Uint64
}

func New() *Memtable {
	return &Memtable{
		data: newOrderedMap(),
	}
}

func newOrderedMap() *orderedMap {
	return skipmap.NewFunc[[]byte, []byte](func(a, b []byte) bool {
		return bytes.Compare(a, b) < 0
	})
}

// Put inserts or overwrites key. An empty value records a tombstone. Key and value are copied.
func (me *Memtable) Put(key, value []byte) {
	storedValue := []byte{}
	if len(value) > 0 {
		storedValue = bytes.Clone(value)
	}
	me.data.Store(bytes.Clone(key), storedValue)
	me.size.Add(uint64(len(key) + len(value)))
}

// Delete records a tombstone for key.
func (me *Memtable) Delete(key []byte) {
	me.Put(key, nil)
}

// Erase removes key entirely, leaving no tombstone behind.
func (me *Memtable) Erase(key []byte) {
	me.data.Delete(key)
}

// Get returns the stored value; a tombstone is reported as (empty, true).
func (me *Memtable) Get(key []byte) (value []byte, exists bool) {
	return me.data.Load(key)
}

func (me *Memtable) Len() int {
	return me.data.Len()
}

// Size is the byte estimate that drives flushing.
func (me *Memtable) Size() uint64 {
	return me.size.Load()
}

func (me *Memtable) IsEmpty() bool {
	return me.data.Len() == 0
}

// Clear drops every entry and resets the byte estimate. Requires exclusive access.
func (me *Memtable) Clear() {
	me.data = newOrderedMap()
	me.size.Store(0)
}

// Entries yields every pair, tombstones included, in ascending key order.
func (me *Memtable) Entries() iter.Seq[keyvaluepair.KeyValuePair] {
	return func(yield func(keyvaluepair.KeyValuePair) bool) {
		me.data.Range(func(key, value []byte) bool {
			return yield(keyvaluepair.New(key, value))
		})
	}
}

// Cursor returns a cursor over a point-in-time copy of the memtable's contents.
func (me *Memtable) Cursor() iterator.Cursor {
	items := make([]keyvaluepair.KeyValuePair, 0, me.data.Len())
	for kvp := range me.Entries() {
		items = append(items, kvp)
	}
	return iterator.FromSlice(items)
}
