package lsm

import (
	"testing"

	"github.com/navijation/mdb/db/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyValue struct {
	key, value string
}

func putAll(t *testing.T, db *DB, pairs []keyValue) {
	for _, kv := range pairs {
		require.NoError(t, db.Put([]byte(kv.key), []byte(kv.value)))
	}
}

func assertGet(t *testing.T, db *DB, key, expected string) {
	t.Helper()
	value, exists, err := db.Get([]byte(key))
	require.NoError(t, err, key)
	if expected == "" {
		assert.False(t, exists, key)
		assert.Empty(t, value, key)
		return
	}
	assert.True(t, exists, key)
	assert.Equal(t, expected, string(value), key)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	opts := testOptions(t)

	db, err := Open(opts)
	require.NoError(t, err)

	t.Run("create new DB", func(t *testing.T) {
		assert.Equal(t, []string{"log0.dat"}, listFiles(t, opts.Env, "db"))
		assert.Equal(t, uint64(1), db.nextLog)
		assert.True(t, db.memtable.IsEmpty())
		assert.False(t, db.closed.Load())
	})

	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "closing twice is a no-op")
	assert.ErrorIs(t, db.Put([]byte("key"), []byte("value")), ErrClosed)
	assert.ErrorIs(t, db.Delete([]byte("key")), ErrClosed)
	_, _, err = db.Get([]byte("key"))
	assert.ErrorIs(t, err, ErrClosed)

	t.Run("invalid options", func(t *testing.T) {
		invalid := opts
		invalid.BlockSize = 0
		_, err := Open(invalid)
		assert.ErrorIs(t, err, options.ErrInvalidOptions)
	})

	t.Run("missing directory is created", func(t *testing.T) {
		nested := opts
		nested.Path = "db/nested/deeper"
		db, err := Open(nested)
		require.NoError(t, err)
		defer db.Close()
		assert.Equal(t, []string{"log0.dat"}, listFiles(t, opts.Env, "db/nested/deeper"))
	})
}

func TestOpen_RecoveryMode(t *testing.T) {
	t.Parallel()

	opts := testOptions(t)
	opts.MemtableMaxSize = 16

	pairs := []keyValue{
		// first flush
		{"hello", "world"},
		{"somekey", "somevalue"},
		// second flush, recovery must preserve order
		{"hello", "overwrite"},
		{"anotherkey", "anothervalue"},
		// not flushed, must be recovered from the log
		{"inmemory", "key"},
	}

	db, err := Open(opts)
	require.NoError(t, err)
	putAll(t, db, pairs)
	require.NoError(t, db.Close())

	require.Equal(t, []string{"log2.dat", "table0.mdb", "table1.mdb"}, listFiles(t, opts.Env, "db"))

	opts.RecoveryMode = true

	// recovering twice must give the same answers as recovering once
	for round := range 2 {
		db, err := Open(opts)
		require.NoError(t, err)

		assertGet(t, db, "hello", "overwrite")
		assertGet(t, db, "somekey", "somevalue")
		assertGet(t, db, "anotherkey", "anothervalue")
		assertGet(t, db, "inmemory", "key")
		assertGet(t, db, "neverwritten", "")

		// the replayed log was rewritten under the next generation
		expectedLog := []string{"log3.dat", "log4.dat"}[round]
		assert.Equal(t, []string{expectedLog, "table0.mdb", "table1.mdb"}, listFiles(t, opts.Env, "db"))

		require.NoError(t, db.Close())
	}
}

func TestOpen_RecoveryKeepsDeletes(t *testing.T) {
	t.Parallel()

	opts := testOptions(t)
	opts.MemtableMaxSize = 16

	db, err := Open(opts)
	require.NoError(t, err)
	// flushed to a table
	putAll(t, db, []keyValue{{"doomed", "value"}, {"111111111111111111", "1111111111111111111111"}})
	// only in the log
	require.NoError(t, db.Delete([]byte("doomed")))
	assertGet(t, db, "doomed", "")
	require.NoError(t, db.Close())

	opts.RecoveryMode = true
	db, err = Open(opts)
	require.NoError(t, err)
	defer db.Close()

	assertGet(t, db, "doomed", "")
	assertGet(t, db, "111111111111111111", "1111111111111111111111")
}

func TestOpen_RecoveryCleansDirectory(t *testing.T) {
	t.Parallel()

	opts := testOptions(t)
	opts.RecoveryMode = true

	writeJunk := func(name string) {
		file, err := opts.Env.MakeWriteOnlyIO(opts.Env.PathJoin("db", name))
		require.NoError(t, err)
		require.NoError(t, file.Close())
	}
	writeJunk("LOCK")
	writeJunk("log1.dat.tmp")
	// an empty stale log and an empty latest log
	writeJunk("log5.dat")
	writeJunk("log7.dat")
	require.NoError(t, opts.Env.MkdirAll("db/subdir"))

	db, err := Open(opts)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, []string{"log8.dat", "subdir"}, listFiles(t, opts.Env, "db"))
	assert.Equal(t, uint64(9), db.nextLog)
}

func TestOpen_WithoutRecoveryRemovesFiles(t *testing.T) {
	t.Parallel()

	opts := testOptions(t)
	opts.MemtableMaxSize = 16

	db, err := Open(opts)
	require.NoError(t, err)
	putAll(t, db, []keyValue{{"hello", "world"}, {"somekey", "somevalue"}, {"inmemory", "key"}})
	require.NoError(t, db.Close())

	db, err = Open(opts)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, []string{"log0.dat"}, listFiles(t, opts.Env, "db"))
	assertGet(t, db, "hello", "")
	assertGet(t, db, "inmemory", "")
}
