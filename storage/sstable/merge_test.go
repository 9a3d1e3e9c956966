package sstable

import (
	"testing"

	"github.com/navijation/mdb/storage/env"
	"github.com/navijation/mdb/storage/iterator"
	"github.com/navijation/mdb/storage/keyvaluepair"
	"github.com/navijation/mdb/storage/memtable"
	"github.com/navijation/mdb/util"
	testing_util "github.com/navijation/mdb/util/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kv(key, value string) keyvaluepair.KeyValuePair {
	return keyvaluepair.New([]byte(key), []byte(value))
}

func openTable(t *testing.T, e env.Env, path string, pairs ...keyvaluepair.KeyValuePair) *Reader {
	writer, err := NewWriter(WriterArgs{Env: e, Path: path, BlockSize: testBlockSize})
	require.NoError(t, err)
	for _, kvp := range pairs {
		require.NoError(t, writer.Add(kvp.Key, kvp.Value))
	}
	require.NoError(t, writer.Close())

	reader, err := OpenReader(ReaderArgs{Env: e, Path: path, Index: util.Some(writer.Index())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })
	return reader
}

func begin(t *testing.T, reader *Reader) iterator.Cursor {
	out, err := reader.Begin()
	require.NoError(t, err)
	return out
}

func mergeInto(t *testing.T, e env.Env, path string, args MergeArgs) []keyvaluepair.KeyValuePair {
	dst, err := NewWriter(WriterArgs{Env: e, Path: path, BlockSize: testBlockSize})
	require.NoError(t, err)
	args.Dst = dst
	require.NoError(t, Merge(args))
	require.NoError(t, dst.Close())

	reader, err := OpenReader(ReaderArgs{Env: e, Path: path})
	require.NoError(t, err)
	defer reader.Close()

	out, err := util.CollectErr(reader.Entries())
	require.NoError(t, err)
	return out
}

func TestMerge(t *testing.T) {
	t.Parallel()

	e := testing_util.MemEnv(t, "db")

	t.Run("no sources", func(t *testing.T) {
		entries := mergeInto(t, e, "db/none.mdb", MergeArgs{})
		assert.Empty(t, entries)
	})

	t.Run("one table", func(t *testing.T) {
		var pairs []keyvaluepair.KeyValuePair
		for i := range 100 {
			pairs = append(pairs, keyvaluepair.New(numberedKey(i), []byte("src")))
		}
		src := openTable(t, e, "db/one_src.mdb", pairs...)

		entries := mergeInto(t, e, "db/one.mdb", MergeArgs{Srcs: []iterator.Cursor{begin(t, src)}})
		require.Len(t, entries, 100)
		assert.Equal(t, kv("050", "src"), entries[50])
	})

	t.Run("newest source wins ties", func(t *testing.T) {
		older := openTable(t, e, "db/older.mdb",
			kv("all the rainbows", "could stop me"),
			kv("don't you know", "what I'm doing here"),
			kv("everybody's", "looking for someone"),
		)
		newer := openTable(t, e, "db/newer.mdb",
			kv("all the rainbows", "couldn't stop me"),
			kv("can you see", "the ship is alive"),
			kv("can't you see", "what I'm doing here"),
			kv("everybody's", ""),
			kv("i know", "what you're doing here"),
		)

		srcs := []iterator.Cursor{begin(t, newer), begin(t, older)}
		expected := []keyvaluepair.KeyValuePair{
			kv("all the rainbows", "couldn't stop me"),
			kv("can you see", "the ship is alive"),
			kv("can't you see", "what I'm doing here"),
			kv("don't you know", "what I'm doing here"),
			kv("everybody's", ""),
			kv("i know", "what you're doing here"),
		}

		entries := mergeInto(t, e, "db/ties.mdb", MergeArgs{Srcs: srcs})
		assert.Equal(t, expected, entries)

		// the source cursors were not consumed, so they can be merged again
		dropped := mergeInto(t, e, "db/ties_dropped.mdb", MergeArgs{Srcs: srcs, DropTombstones: true})
		assert.Equal(t, append(expected[:4:4], expected[5]), dropped)

		// reversing recency flips the winners
		reversed := mergeInto(t, e, "db/ties_reversed.mdb", MergeArgs{
			Srcs: []iterator.Cursor{begin(t, older), begin(t, newer)},
		})
		assert.Equal(t, kv("all the rainbows", "could stop me"), reversed[0])
		assert.Equal(t, kv("everybody's", "looking for someone"), reversed[4])
	})

	t.Run("memtable and tables", func(t *testing.T) {
		mt := memtable.New()
		mt.Put([]byte("b"), []byte("memtable"))
		mt.Delete([]byte("c"))
		mt.Put([]byte("e"), []byte("memtable"))

		middle := openTable(t, e, "db/middle.mdb", kv("a", "middle"), kv("b", "middle"), kv("d", "middle"))
		oldest := openTable(t, e, "db/oldest.mdb", kv("a", "oldest"), kv("c", "oldest"), kv("f", "oldest"))

		entries := mergeInto(t, e, "db/mixed.mdb", MergeArgs{
			Srcs: []iterator.Cursor{mt.Cursor(), begin(t, middle), begin(t, oldest)},
		})
		assert.Equal(t, []keyvaluepair.KeyValuePair{
			kv("a", "middle"),
			kv("b", "memtable"),
			kv("c", ""),
			kv("d", "middle"),
			kv("e", "memtable"),
			kv("f", "oldest"),
		}, entries)
	})

	t.Run("finished sources are ignored", func(t *testing.T) {
		src := openTable(t, e, "db/finished_src.mdb", kv("a", "1"))
		entries := mergeInto(t, e, "db/finished.mdb", MergeArgs{
			Srcs: []iterator.Cursor{src.End(), begin(t, src), iterator.FromSlice(nil)},
		})
		assert.Equal(t, []keyvaluepair.KeyValuePair{kv("a", "1")}, entries)
	})
}
