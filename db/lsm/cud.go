package lsm

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Put sets key to value. Both must be non-empty.
func (me *DB) Put(key, value []byte) error {
	if len(key) == 0 || len(value) == 0 {
		return errors.Wrap(ErrInvalidArgument, "key and value must be non-empty")
	}
	return me.putOrDelete(key, value)
}

// Delete removes key. Deleting a key that does not exist is not an error.
func (me *DB) Delete(key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(ErrInvalidArgument, "key must be non-empty")
	}
	return me.putOrDelete(key, nil)
}

func (me *DB) putOrDelete(key, value []byte) error {
	me.writeLock.Lock()
	defer me.writeLock.Unlock()

	if me.closed.Load() {
		return ErrClosed
	}

	if err := me.wal.Add(key, value); err != nil {
		return errors.Wrapf(err, "failed to log write to %q", me.wal.FileName())
	}

	me.memtableLock.Lock()
	if len(value) == 0 {
		me.memtable.Delete(key)
	} else {
		me.memtable.Put(key, value)
	}
	needsFlush := me.memtable.Size() > me.opts.MemtableMaxSize
	me.memtableLock.Unlock()

	if needsFlush {
		if err := me.flushMemtable(); err != nil {
			// the write itself is logged and visible; the flush is retried on the next write
			me.logger.Error("failed to flush memtable", zap.Error(err))
		}
	}
	return nil
}
