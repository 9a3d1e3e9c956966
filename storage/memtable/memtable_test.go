package memtable

import (
	"fmt"
	"sync"
	"testing"

	"github.com/navijation/mdb/storage/keyvaluepair"
	"github.com/navijation/mdb/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemtable_PutGetDelete(t *testing.T) {
	t.Parallel()

	mt := New()
	mt.Put([]byte("hello"), []byte("world"))
	mt.Put([]byte("123"), []byte("456"))
	mt.Put([]byte("hello"), []byte("overwrite"))
	mt.Delete([]byte("123"))

	value, exists := mt.Get([]byte("hello"))
	_ = assert.True(t, exists) && assert.Equal(t, "overwrite", string(value))

	value, exists = mt.Get([]byte("123"))
	_ = assert.True(t, exists) && assert.Empty(t, value)

	_, exists = mt.Get([]byte("missing"))
	assert.False(t, exists)

	assert.Equal(t, 2, mt.Len())
	// 5+5 + 3+3 + 5+9 + 3+0
	assert.Equal(t, uint64(33), mt.Size())

	mt.Erase([]byte("123"))
	_, exists = mt.Get([]byte("123"))
	assert.False(t, exists)
	assert.Equal(t, 1, mt.Len())
}

func TestMemtable_CopiesInput(t *testing.T) {
	t.Parallel()

	key := []byte("key")
	value := []byte("value")

	mt := New()
	mt.Put(key, value)
	key[0] = 'x'
	value[0] = 'x'

	stored, exists := mt.Get([]byte("key"))
	require.True(t, exists)
	assert.Equal(t, "value", string(stored))
}

func TestMemtable_OrderedTraversal(t *testing.T) {
	t.Parallel()

	mt := New()
	for _, key := range []string{"c", "a", "d", "b"} {
		mt.Put([]byte(key), []byte("v"+key))
	}
	mt.Delete([]byte("d"))

	var keys []string
	for kvp := range mt.Entries() {
		keys = append(keys, string(kvp.Key))
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, keys)

	cursor := mt.Cursor()
	collected, err := util.CollectErr(cursor.All())
	require.NoError(t, err)
	if assert.Len(t, collected, 4) {
		assert.Equal(t, keyvaluepair.New([]byte("a"), []byte("va")), collected[0])
		assert.True(t, collected[3].IsDeleted())
	}

	// the cursor is a snapshot
	mt.Put([]byte("0"), []byte("late"))
	collected, err = util.CollectErr(cursor.All())
	require.NoError(t, err)
	assert.Len(t, collected, 4)
}

func TestMemtable_Clear(t *testing.T) {
	t.Parallel()

	mt := New()
	mt.Put([]byte("a"), []byte("b"))
	mt.Clear()

	assert.True(t, mt.IsEmpty())
	assert.Zero(t, mt.Size())
}

func TestMemtable_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	mt := New()
	for i := range 100 {
		mt.Put([]byte(fmt.Sprintf("key%03d", i)), []byte(fmt.Sprintf("value%d", i)))
	}

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				value, exists := mt.Get([]byte(fmt.Sprintf("key%03d", (i+g)%100)))
				assert.True(t, exists)
				assert.Equal(t, fmt.Sprintf("value%d", (i+g)%100), string(value))
			}
		}()
	}
	wg.Wait()
}
