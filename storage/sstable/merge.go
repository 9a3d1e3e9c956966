package sstable

import (
	"bytes"

	"github.com/navijation/mdb/storage/iterator"
	"github.com/navijation/mdb/storage/keyvaluepair"
	"github.com/navijation/mdb/util/heap"
)

type MergeArgs struct {
	// Srcs are ordered newest first; on duplicate keys the newest source wins.
	Srcs []iterator.Cursor
	Dst  *Writer
	// DropTombstones omits deleted keys from the output instead of carrying the tombstone.
	DropTombstones bool
}

// Merge writes the union of all sources into Dst in key order, keeping only the newest version of
// each key, then flushes Dst. Sources are read through copies and left untouched.
func Merge(args MergeArgs) error {
	mux := newTableMux(args.Srcs)

	for {
		kvp, hasNext, err := mux.NextEntry()
		if err != nil {
			return err
		}
		if !hasNext {
			break
		}
		if kvp.IsDeleted() && args.DropTombstones {
			continue
		}
		if err := args.Dst.Add(kvp.Key, kvp.Value); err != nil {
			return err
		}
	}

	return args.Dst.Flush()
}

type tableMuxEntry struct {
	cursor iterator.Cursor
	// position in the source list; lower is newer
	srcIndex int
}

type tableMux struct {
	heap         heap.Heap[tableMuxEntry]
	lastKey      []byte
	lastKeyIsSet bool
}

func newTableMux(srcs []iterator.Cursor) tableMux {
	var entries []tableMuxEntry
	for i, src := range srcs {
		if src.IsDone() {
			continue
		}
		entries = append(entries, tableMuxEntry{cursor: src.Copy(), srcIndex: i})
	}

	return tableMux{
		heap: heap.NewHeap(func(a, b tableMuxEntry) int {
			// lower keys first; on ties the newer source first so that later writes win
			if c := bytes.Compare(a.cursor.Current().Key, b.cursor.Current().Key); c != 0 {
				return c
			}
			return a.srcIndex - b.srcIndex
		}, entries...),
	}
}

func (me *tableMux) NextEntry() (out keyvaluepair.KeyValuePair, hasNext bool, _ error) {
	for !me.heap.Empty() {
		top := me.heap.Peek()
		current := top.cursor.Current()

		if err := top.cursor.Next(); err != nil {
			return out, false, err
		}
		if top.cursor.IsDone() {
			me.heap.Pop()
		} else {
			me.heap.ReplaceTop(top)
		}

		// older versions of a key already emitted
		if me.lastKeyIsSet && bytes.Equal(current.Key, me.lastKey) {
			continue
		}

		me.lastKey = current.Key
		me.lastKeyIsSet = true
		return current, true, nil
	}

	return out, false, nil
}
