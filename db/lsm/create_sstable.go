package lsm

import "go.uber.org/zap"

// flushMemtable persists the memtable as a level 0 table, replaces the log it was built from with
// a fresh one, and starts an empty memtable. Must be called with writeLock held.
func (me *DB) flushMemtable() error {
	if err := me.wal.FlushBuffer(); err != nil {
		return err
	}

	// the memtable is only mutated under writeLock, so it can be read here without memtableLock
	if err := me.storage.WriteMemtable(me.memtable); err != nil {
		return err
	}

	wal, err := me.createLog()
	if err != nil {
		return err
	}
	obsolete := me.wal
	me.wal = wal

	if err := obsolete.Close(); err != nil {
		me.logger.Warn("failed to close obsolete log", zap.String("path", obsolete.FileName()), zap.Error(err))
	}
	me.removeFile(obsolete.FileName())

	me.memtableLock.Lock()
	me.memtable.Clear()
	me.memtableLock.Unlock()

	return nil
}
