package lsm

import (
	"slices"

	"github.com/navijation/mdb/db/options"
	"github.com/navijation/mdb/storage/journal"
	"go.uber.org/zap"
)

type dbFiles struct {
	logs    []uint64
	tables  []uint64
	unknown []string
}

// listFiles classifies the regular files in the database directory.
func (me *DB) listFiles() (out dbFiles, _ error) {
	names, err := me.opts.Env.List(me.opts.Path)
	if err != nil {
		return out, err
	}

	for _, name := range names {
		path := me.opts.Env.PathJoin(me.opts.Path, name)
		info, err := me.opts.Env.Stat(path)
		if err != nil {
			return out, err
		}
		if info.IsDir() {
			me.logger.Warn("unexpected directory in database path", zap.String("path", path))
			continue
		}

		switch kind, number := options.ParseFileName(name); kind {
		case options.FileKindLog:
			out.logs = append(out.logs, number)
		case options.FileKindTable:
			out.tables = append(out.tables, number)
		default:
			out.unknown = append(out.unknown, path)
		}
	}

	slices.Sort(out.logs)
	slices.Sort(out.tables)
	return out, nil
}

// recover loads the tables and rebuilds the memtable from the newest log. The recovered entries
// are written to a fresh log before the replayed one is removed, so a crash during recovery loses
// nothing. Deletes are kept as tombstones because they may shadow values in the tables.
func (me *DB) recover(files dbFiles) error {
	for _, path := range files.unknown {
		me.logger.Warn("removing unrecognized file", zap.String("path", path))
		me.removeFile(path)
	}

	if err := me.storage.LoadTables(files.tables); err != nil {
		return err
	}

	if len(files.logs) == 0 {
		return nil
	}

	latest := files.logs[len(files.logs)-1]
	// older logs belong to memtables that were flushed before the log was replaced
	for _, number := range files.logs[:len(files.logs)-1] {
		me.removeFile(me.logPath(number))
	}

	reader, err := journal.OpenReader(journal.OpenReaderArgs{
		Env:  me.opts.Env,
		Path: me.logPath(latest),
	})
	if err != nil {
		return err
	}
	recovered := reader.ReadMemtable(journal.ReadArgs{KeepTombstones: true})
	if err := reader.Close(); err != nil {
		return err
	}

	me.nextLog = latest + 1
	wal, err := me.createLog()
	if err != nil {
		return err
	}
	for kvp := range recovered.Entries() {
		if err := wal.Add(kvp.Key, kvp.Value); err != nil {
			_ = wal.Close()
			return err
		}
	}
	if err := wal.Sync(); err != nil {
		_ = wal.Close()
		return err
	}

	me.wal = wal
	me.memtable = recovered
	me.removeFile(me.logPath(latest))

	me.logger.Info("recovered database",
		zap.Int("tables", len(files.tables)),
		zap.Uint64("log", latest),
		zap.Int("recovered_entries", recovered.Len()),
	)
	return nil
}

// removeFiles clears the log and table files of a previous instance.
func (me *DB) removeFiles(files dbFiles) error {
	var paths []string
	for _, number := range files.logs {
		paths = append(paths, me.logPath(number))
	}
	for _, number := range files.tables {
		paths = append(paths, me.storage.tablePath(number))
	}

	for _, path := range paths {
		if err := me.opts.Env.RemoveFile(path); err != nil {
			return err
		}
	}
	return nil
}
