package options

import (
	"os"
	"path/filepath"
	"testing"

	testing_util "github.com/navijation/mdb/util/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir, cleanup := testing_util.MkdirTemp(t, "TestLoad")
	defer cleanup()

	t.Run("missing file", func(t *testing.T) {
		opts, err := Load(filepath.Join(dir, "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default().Path, opts.Path)
		assert.Equal(t, Default().MemtableMaxSize, opts.MemtableMaxSize)
		assert.NotNil(t, opts.Env)
		assert.NotNil(t, opts.Logger)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"path: /var/lib/mdb\n"+
				"write_sync: true\n"+
				"memtable_max_size: 1024\n"+
				"recovery_mode: true\n",
		), 0o644))

		opts, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/mdb", opts.Path)
		assert.True(t, opts.WriteSync)
		assert.True(t, opts.RecoveryMode)
		assert.Equal(t, uint64(1024), opts.MemtableMaxSize)
		assert.Equal(t, uint64(4096), opts.BlockSize)
		assert.Equal(t, 4, opts.TriggerCompactionAt)
		assert.Equal(t, uint64(1_000_000), opts.LevelSizeBase)
	})

	t.Run("invalid value", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("trigger_compaction_at: 0\n"), 0o644))

		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "malformed.yaml")
		require.NoError(t, os.WriteFile(path, []byte("block_size: [not a number\n"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		modify func(opts *Options)
		valid  bool
	}{
		{name: "defaults", modify: func(*Options) {}, valid: true},
		{name: "empty path", modify: func(opts *Options) { opts.Path = "" }},
		{name: "zero block size", modify: func(opts *Options) { opts.BlockSize = 0 }},
		{name: "zero trigger", modify: func(opts *Options) { opts.TriggerCompactionAt = 0 }},
		{name: "zero level size", modify: func(opts *Options) { opts.LevelSizeBase = 0 }},
		{name: "zero memtable size", modify: func(opts *Options) { opts.MemtableMaxSize = 0 }, valid: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts := Default()
			tc.modify(&opts)
			if tc.valid {
				assert.NoError(t, opts.Validate())
			} else {
				assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions)
			}
		})
	}
}

func TestOptions_LevelThreshold(t *testing.T) {
	t.Parallel()

	opts := Default()
	assert.Equal(t, uint64(10_000_000), opts.LevelThreshold(0))
	assert.Equal(t, uint64(100_000_000), opts.LevelThreshold(1))
	assert.Equal(t, uint64(1_000_000_000), opts.LevelThreshold(2))
}

func TestParseFileName(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name           string
		expectedKind   FileKind
		expectedNumber uint64
	}{
		{name: LogFileName(0), expectedKind: FileKindLog, expectedNumber: 0},
		{name: LogFileName(42), expectedKind: FileKindLog, expectedNumber: 42},
		{name: TableFileName(7), expectedKind: FileKindTable, expectedNumber: 7},
		{name: "table0012.mdb", expectedKind: FileKindTable, expectedNumber: 12},
		{name: "log.dat", expectedKind: FileKindUnknown},
		{name: "log1.dat.tmp", expectedKind: FileKindUnknown},
		{name: "xtable1.mdb", expectedKind: FileKindUnknown},
		{name: "table-1.mdb", expectedKind: FileKindUnknown},
		{name: "table99999999999999999999999.mdb", expectedKind: FileKindUnknown},
		{name: "LOCK", expectedKind: FileKindUnknown},
	} {
		kind, number := ParseFileName(tc.name)
		assert.Equal(t, tc.expectedKind, kind, tc.name)
		assert.Equal(t, tc.expectedNumber, number, tc.name)
	}

	assert.Equal(t, "log3.dat", LogFileName(3))
	assert.Equal(t, "table3.mdb", TableFileName(3))
}
