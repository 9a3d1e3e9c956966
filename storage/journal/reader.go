package journal

import (
	"iter"

	"github.com/navijation/mdb/storage/env"
	"github.com/navijation/mdb/storage/keyvaluepair"
	"github.com/navijation/mdb/storage/memtable"
	"github.com/navijation/mdb/util"
)

// Reader replays a log file. Replay is defensive: a record whose length prefixes run past the end of
// the file, or that is cut short, ends the replay and every record before it is kept.
type Reader struct {
	file env.ReadableFile
}

type OpenReaderArgs struct {
	Env  env.Env
	Path string
}

func OpenReader(args OpenReaderArgs) (*Reader, error) {
	file, err := args.Env.MakeReadOnlyIO(args.Path)
	if err != nil {
		return nil, err
	}
	return NewReader(file), nil
}

func NewReader(file env.ReadableFile) *Reader {
	return &Reader{file: file}
}

// Records yields every complete record in log order.
func (me *Reader) Records() iter.Seq[keyvaluepair.KeyValuePair] {
	return func(yield func(keyvaluepair.KeyValuePair) bool) {
		size := me.file.Size()
		cursor := util.NewReaderAtCursor(me.file, 0)

		for cursor.Offset() < size {
			var stored keyvaluepair.StoredKeyValuePair
			if _, err := stored.ReadFromLimited(&cursor, size-cursor.Offset()); err != nil {
				// truncated or corrupted tail
				return
			}
			if !yield(stored.ToKeyValuePair()) {
				return
			}
		}
	}
}

type ReadArgs struct {
	// KeepTombstones stores delete markers as tombstones instead of erasing the key, so that a
	// replayed delete still shadows older values outside the log.
	KeepTombstones bool
}

// ReadMemtable replays the log into a fresh memtable.
func (me *Reader) ReadMemtable(args ReadArgs) *memtable.Memtable {
	out := memtable.New()
	for kvp := range me.Records() {
		switch {
		case !kvp.IsDeleted():
			out.Put(kvp.Key, kvp.Value)
		case args.KeepTombstones:
			out.Delete(kvp.Key)
		default:
			out.Erase(kvp.Key)
		}
	}
	return out
}

func (me *Reader) FileName() string {
	return me.file.FileName()
}

func (me *Reader) Close() error {
	return me.file.Close()
}
