package lsm

import (
	"github.com/navijation/mdb/db/options"
	"github.com/navijation/mdb/storage/journal"
	"go.uber.org/zap"
)

func (me *DB) logPath(number uint64) string {
	return me.opts.Env.PathJoin(me.opts.Path, options.LogFileName(number))
}

// createLog starts the next log generation.
func (me *DB) createLog() (*journal.Writer, error) {
	path := me.logPath(me.nextLog)
	wal, err := journal.Create(journal.CreateArgs{
		Env:    me.opts.Env,
		Path:   path,
		Sync:   me.opts.WriteSync,
		Logger: me.logger,
	})
	if err != nil {
		return nil, err
	}
	me.nextLog++
	return wal, nil
}

// removeFile removes a file the database no longer needs. Failure only leaks disk space, so it is
// logged rather than returned.
func (me *DB) removeFile(path string) {
	if err := me.opts.Env.RemoveFile(path); err != nil {
		me.logger.Error("failed to remove obsolete file", zap.String("path", path), zap.Error(err))
	}
}
