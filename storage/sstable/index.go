package sstable

import (
	"bytes"
	"slices"

	"github.com/navijation/mdb/util"
)

// BlockIndex maps the first key of every block to the absolute file offset of the block's size
// header. Entries are in ascending key order.
type BlockIndex struct {
	Entries []BlockIndexEntry
}

type BlockIndexEntry struct {
	Key    []byte
	Offset uint64
}

// LookupBlock returns the offset of the block that may contain key: the block with the greatest
// first key <= key. No block can contain a key smaller than the first indexed key.
func (me *BlockIndex) LookupBlock(key []byte) (offset uint64, exists bool) {
	index, found := slices.BinarySearchFunc(
		me.Entries, key, func(entry BlockIndexEntry, key []byte) int {
			return bytes.Compare(entry.Key, key)
		},
	)
	if found {
		return me.Entries[index].Offset, true
	}
	if index == 0 {
		return 0, false
	}
	return me.Entries[index-1].Offset, true
}

func (me *BlockIndex) Len() int {
	return len(me.Entries)
}

func (me *BlockIndex) add(key []byte, offset uint64) {
	me.Entries = append(me.Entries, BlockIndexEntry{Key: key, Offset: offset})
}

func (me *BlockIndex) Clone() BlockIndex {
	return BlockIndex{
		Entries: util.CloneSliceFunc(me.Entries, func(entry BlockIndexEntry) BlockIndexEntry {
			return BlockIndexEntry{
				Key:    slices.Clone(entry.Key),
				Offset: entry.Offset,
			}
		}),
	}
}
