package lsm

import (
	"slices"
	"sync"

	"github.com/navijation/mdb/db/options"
	"github.com/navijation/mdb/storage/iterator"
	"github.com/navijation/mdb/storage/memtable"
	"github.com/navijation/mdb/storage/sstable"
	"github.com/navijation/mdb/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DiskStorageManager owns the sorted tables of a database, organized in levels. Level 0 receives
// flushed memtables and may hold overlapping tables; compaction merges a whole level into a single
// table of the next level. Within a level, tables are kept newest first.
type DiskStorageManager struct {
	opts   options.Options
	logger *zap.Logger

	levelLock sync.RWMutex
	levels    [][]sstable.TableReader
	nextTable uint64
	closed    bool

	compactionLock sync.Mutex
	// closed when the in-flight compaction finishes; nil when none is running
	compaction chan struct{}
}

func NewDiskStorageManager(opts options.Options) *DiskStorageManager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiskStorageManager{
		opts:   opts,
		logger: logger,
	}
}

// ValueOf searches level 0 through the deepest level, newest table first, and returns the first
// match. A tombstone is reported as found with an empty value.
func (me *DiskStorageManager) ValueOf(key []byte) (value []byte, found bool, _ error) {
	me.levelLock.RLock()
	defer me.levelLock.RUnlock()

	if me.closed {
		return nil, false, ErrClosed
	}

	for _, level := range me.levels {
		for _, table := range level {
			value, found, err := table.ValueOf(key)
			if err != nil {
				return nil, false, err
			}
			if found {
				return value, true, nil
			}
		}
	}

	return nil, false, nil
}

// WriteMemtable persists mt, tombstones included, as the newest level 0 table and starts a
// background compaction if level 0 has reached its trigger.
func (me *DiskStorageManager) WriteMemtable(mt *memtable.Memtable) error {
	writer, err := me.newTableWriter(0)
	if err != nil {
		return err
	}
	if err := writer.WriteMemtable(mt, true); err != nil {
		me.discard(writer)
		return err
	}

	table, err := me.finishTable(writer)
	if err != nil {
		return err
	}

	me.levelLock.Lock()
	me.prependTable(0, table)
	me.levelLock.Unlock()

	me.maybeStartCompaction()
	return nil
}

func (me *DiskStorageManager) maybeStartCompaction() {
	me.compactionLock.Lock()
	defer me.compactionLock.Unlock()

	if me.compaction != nil || !me.needsCompaction(0) {
		return
	}

	done := make(chan struct{})
	me.compaction = done

	go func() {
		for {
			err := me.runCompactions()
			if err != nil {
				me.logger.Error("compaction failed", zap.Error(err))
			}

			me.compactionLock.Lock()
			// a memtable may have been flushed after the last check
			if err == nil && me.needsCompaction(0) {
				me.compactionLock.Unlock()
				continue
			}
			me.compaction = nil
			close(done)
			me.compactionLock.Unlock()
			return
		}
	}()
}

// runCompactions compacts level 0, cascades into deeper levels while they are over their size
// threshold, and starts over if level 0 filled up again in the meantime.
func (me *DiskStorageManager) runCompactions() error {
	for me.needsCompaction(0) {
		if err := me.Compact(0); err != nil {
			return err
		}
		for level := uint64(1); me.needsCompaction(level); level++ {
			if err := me.Compact(level); err != nil {
				return err
			}
		}
	}
	return nil
}

func (me *DiskStorageManager) needsCompaction(level uint64) bool {
	if level == 0 {
		return me.NumTables(0) >= me.opts.TriggerCompactionAt
	}
	return me.TotalSize(level) > me.opts.LevelThreshold(level)
}

// WaitForOngoingCompactions blocks until no compaction is running.
func (me *DiskStorageManager) WaitForOngoingCompactions() {
	for {
		me.compactionLock.Lock()
		done := me.compaction
		me.compactionLock.Unlock()

		if done == nil {
			return
		}
		<-done
	}
}

// Compact merges every table currently in level into one table at level+1. Tables added to level
// while the merge runs are left in place. Tombstones are dropped only when no deeper level holds
// tables, since otherwise they still shadow older values below.
func (me *DiskStorageManager) Compact(level uint64) error {
	me.levelLock.RLock()
	inputs := slices.Clone(me.level(level))
	dropTombstones := true
	for deeper := level + 1; deeper < uint64(len(me.levels)); deeper++ {
		if len(me.levels[deeper]) > 0 {
			dropTombstones = false
			break
		}
	}
	me.levelLock.RUnlock()

	if len(inputs) == 0 {
		return nil
	}

	srcs := make([]iterator.Cursor, 0, len(inputs))
	for _, input := range inputs {
		cursor, err := input.Begin()
		if err != nil {
			return err
		}
		srcs = append(srcs, cursor)
	}

	writer, err := me.newTableWriter(level + 1)
	if err != nil {
		return err
	}
	if err := sstable.Merge(sstable.MergeArgs{
		Srcs:           srcs,
		Dst:            writer,
		DropTombstones: dropTombstones,
	}); err != nil {
		me.discard(writer)
		return errors.Wrapf(err, "failed to compact level %d", level)
	}

	if writer.NumKeys() == 0 {
		// everything was deleted
		me.discard(writer)
	} else {
		table, err := me.finishTable(writer)
		if err != nil {
			return err
		}
		me.levelLock.Lock()
		me.prependTable(level+1, table)
		me.levelLock.Unlock()
	}

	me.levelLock.Lock()
	me.levels[level] = slices.DeleteFunc(me.levels[level], func(table sstable.TableReader) bool {
		return slices.Contains(inputs, table)
	})
	me.levelLock.Unlock()

	for _, input := range inputs {
		me.removeTable(input)
	}

	me.logger.Debug("compacted level",
		zap.Uint64("level", level),
		zap.Int("inputs", len(inputs)),
		zap.Uint64("keys", writer.NumKeys()),
		zap.Bool("dropped_tombstones", dropTombstones),
	)
	return nil
}

// LoadTables opens existing tables during recovery. Higher numbers are more recent; each table is
// placed in the level recorded in its header.
func (me *DiskStorageManager) LoadTables(numbers []uint64) error {
	numbers = slices.Clone(numbers)
	slices.Sort(numbers)

	me.levelLock.Lock()
	defer me.levelLock.Unlock()

	// oldest first, so that prepending leaves every level newest first
	for _, number := range numbers {
		table, err := sstable.OpenReader(sstable.ReaderArgs{
			Env:  me.opts.Env,
			Path: me.tablePath(number),
		})
		if err != nil {
			return err
		}
		me.prependTable(table.Level(), table)
		me.nextTable = max(me.nextTable, number+1)
	}

	return nil
}

func (me *DiskStorageManager) NumTables(level uint64) int {
	me.levelLock.RLock()
	defer me.levelLock.RUnlock()

	return len(me.level(level))
}

// TotalSize is the combined file size of the tables in level.
func (me *DiskStorageManager) TotalSize(level uint64) (out uint64) {
	me.levelLock.RLock()
	defer me.levelLock.RUnlock()

	for _, table := range me.level(level) {
		out += table.Size()
	}
	return out
}

// NumLevels is one past the deepest level that has ever held a table.
func (me *DiskStorageManager) NumLevels() int {
	me.levelLock.RLock()
	defer me.levelLock.RUnlock()

	return len(me.levels)
}

// Close waits for compactions and closes every table.
func (me *DiskStorageManager) Close() error {
	me.WaitForOngoingCompactions()

	me.levelLock.Lock()
	defer me.levelLock.Unlock()

	var firstErr error
	for _, level := range me.levels {
		for _, table := range level {
			if err := table.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	me.levels = nil
	me.closed = true
	return firstErr
}

// level must be called with levelLock held.
func (me *DiskStorageManager) level(level uint64) []sstable.TableReader {
	if level >= uint64(len(me.levels)) {
		return nil
	}
	return me.levels[level]
}

// prependTable must be called with levelLock held exclusively.
func (me *DiskStorageManager) prependTable(level uint64, table sstable.TableReader) {
	for uint64(len(me.levels)) <= level {
		me.levels = append(me.levels, nil)
	}
	me.levels[level] = slices.Insert(me.levels[level], 0, table)
}

func (me *DiskStorageManager) tablePath(number uint64) string {
	return me.opts.Env.PathJoin(me.opts.Path, options.TableFileName(number))
}

func (me *DiskStorageManager) newTableWriter(level uint64) (*sstable.Writer, error) {
	me.levelLock.Lock()
	number := me.nextTable
	me.nextTable++
	me.levelLock.Unlock()

	return sstable.NewWriter(sstable.WriterArgs{
		Env:       me.opts.Env,
		Path:      me.tablePath(number),
		BlockSize: me.opts.BlockSize,
		Sync:      me.opts.WriteSync,
		Level:     level,
	})
}

// finishTable closes writer and opens the table it built for reading.
func (me *DiskStorageManager) finishTable(writer *sstable.Writer) (sstable.TableReader, error) {
	if err := writer.Close(); err != nil {
		me.removeFile(writer.FileName())
		return nil, err
	}
	table, err := sstable.OpenReader(sstable.ReaderArgs{
		Env:   me.opts.Env,
		Path:  writer.FileName(),
		Index: util.Some(writer.Index()),
	})
	if err != nil {
		me.removeFile(writer.FileName())
		return nil, err
	}
	return table, nil
}

func (me *DiskStorageManager) discard(writer *sstable.Writer) {
	_ = writer.Close()
	me.removeFile(writer.FileName())
}

func (me *DiskStorageManager) removeTable(table sstable.TableReader) {
	if err := table.Close(); err != nil {
		me.logger.Warn("failed to close table", zap.String("path", table.FileName()), zap.Error(err))
	}
	me.removeFile(table.FileName())
}

func (me *DiskStorageManager) removeFile(path string) {
	if err := me.opts.Env.RemoveFile(path); err != nil {
		me.logger.Error("failed to remove obsolete file", zap.String("path", path), zap.Error(err))
	}
}
