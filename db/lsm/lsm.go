// Package lsm is the database facade: a write-ahead logged memtable in front of a leveled set of
// sorted tables.
package lsm

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/navijation/mdb/db/options"
	"github.com/navijation/mdb/storage/journal"
	"github.com/navijation/mdb/storage/memtable"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrInvalidArgument is returned for empty keys, and for empty values on Put.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrClosed          = errors.New("database is closed")
)

// DB is safe for concurrent use. Writes are serialized; reads proceed concurrently with writes and
// with background compaction.
type DB struct {
	// immutable config
	opts   options.Options
	logger *zap.Logger

	// writeLock serializes Put, Delete and Close, and guards the log state
	writeLock sync.Mutex
	wal       *journal.Writer
	nextLog   uint64
	closed    atomic.Bool

	memtableLock sync.RWMutex
	memtable     *memtable.Memtable

	storage *DiskStorageManager
}

// Open starts a database in opts.Path. In recovery mode the files found there are the starting
// point; otherwise any log and table files left there are removed.
func Open(opts options.Options) (_ *DB, err error) {
	if opts.Env == nil || opts.Logger == nil {
		defaults := options.Default()
		if opts.Env == nil {
			opts.Env = defaults.Env
		}
		if opts.Logger == nil {
			opts.Logger = defaults.Logger
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if err := opts.Env.MkdirAll(opts.Path); err != nil {
		return nil, err
	}

	db := &DB{
		opts:     opts,
		logger:   opts.Logger,
		memtable: memtable.New(),
		storage:  NewDiskStorageManager(opts),
	}

	defer func() {
		if err != nil {
			if db.wal != nil {
				_ = db.wal.Close()
			}
			_ = db.storage.Close()
		}
	}()

	files, err := db.listFiles()
	if err != nil {
		return nil, err
	}

	if opts.RecoveryMode {
		err = db.recover(files)
	} else {
		err = db.removeFiles(files)
	}
	if err != nil {
		return nil, err
	}

	if db.wal == nil {
		if db.wal, err = db.createLog(); err != nil {
			return nil, err
		}
	}

	db.logger.Info("opened database",
		zap.String("path", opts.Path),
		zap.Bool("recovery_mode", opts.RecoveryMode),
		zap.Int("memtable_entries", db.memtable.Len()),
	)
	return db, nil
}

// Get returns the current value of key. Deleted and never-written keys are reported as absent.
// The returned slice belongs to the caller.
func (me *DB) Get(key []byte) (value []byte, exists bool, _ error) {
	if me.closed.Load() {
		return nil, false, ErrClosed
	}

	me.memtableLock.RLock()
	value, inMemtable := me.memtable.Get(key)
	if inMemtable {
		value = bytes.Clone(value)
	}
	me.memtableLock.RUnlock()

	if !inMemtable {
		var (
			found bool
			err   error
		)
		value, found, err = me.storage.ValueOf(key)
		if err != nil || !found {
			return nil, false, err
		}
	}

	if len(value) == 0 {
		// tombstone
		return nil, false, nil
	}
	return value, true, nil
}

// WaitForOngoingCompactions blocks until background compaction is idle.
func (me *DB) WaitForOngoingCompactions() {
	me.storage.WaitForOngoingCompactions()
}

// Close waits for compaction, flushes the log, and releases every file. The memtable is not
// flushed: its contents are recovered from the log by a later Open in recovery mode.
func (me *DB) Close() error {
	me.writeLock.Lock()
	defer me.writeLock.Unlock()

	if me.closed.Load() {
		return nil
	}
	me.closed.Store(true)

	walErr := me.wal.Close()
	storageErr := me.storage.Close()
	if walErr != nil {
		return walErr
	}
	return storageErr
}
