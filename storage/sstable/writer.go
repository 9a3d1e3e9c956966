package sstable

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
	"github.com/navijation/mdb/storage/env"
	"github.com/navijation/mdb/storage/iterator"
	"github.com/navijation/mdb/storage/keyvaluepair"
	"github.com/navijation/mdb/storage/memtable"
	"github.com/navijation/mdb/util"
	"github.com/pkg/errors"
)

// Writer builds a sorted table from keys added in strictly ascending order. Records are collected
// into blocks of roughly BlockSize bytes; each block is written with a single call once full.
type Writer struct {
	file      env.WritableFile
	header    Header
	blockSize uint64
	sync      bool

	// pending block, starting with its reserved size header
	buf []byte
	// file offset the pending block will be written at
	offset uint64

	index   BlockIndex
	numKeys uint64
	lastKey []byte
}

type WriterArgs struct {
	Env       env.Env
	Path      string
	BlockSize uint64
	// Sync fsyncs the file after every block.
	Sync  bool
	Level uint64
}

// NewWriter creates (or truncates) the table at args.Path and writes its header.
func NewWriter(args WriterArgs) (*Writer, error) {
	if args.BlockSize == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "block size must be positive")
	}

	file, err := args.Env.MakeWriteOnlyIO(args.Path)
	if err != nil {
		return nil, err
	}

	out := &Writer{
		file: file,
		header: Header{
			ID:      uuid.New(),
			Version: CurrentVersion,
			Level:   args.Level,
		},
		blockSize: args.BlockSize,
		sync:      args.Sync,
		buf:       make([]byte, 0, args.BlockSize+util.WordSize),
	}

	n, err := out.header.WriteTo(file)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "failed to write header of %q", args.Path)
	}
	out.offset = uint64(n)

	return out, nil
}

// Add appends a pair. An empty value is written as a tombstone.
func (me *Writer) Add(key, value []byte) error {
	if len(key) == 0 {
		return errors.Wrap(ErrInvalidArgument, "empty key")
	}
	if me.numKeys > 0 && bytes.Compare(key, me.lastKey) <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "key %q added after %q", key, me.lastKey)
	}

	if len(me.buf) == 0 {
		me.index.add(slices.Clone(key), me.offset)
		me.buf = util.AppendUint64(me.buf, 0)
	}

	kvp := keyvaluepair.New(key, value)
	stored := kvp.ToStoredKeyValuePair()
	me.buf = stored.AppendTo(me.buf)
	me.numKeys++
	me.lastKey = append(me.lastKey[:0], key...)

	if uint64(len(me.buf)) >= me.blockSize {
		return me.writeBlock()
	}
	return nil
}

func (me *Writer) writeBlock() error {
	util.PutUint64At(me.buf, 0, uint64(len(me.buf))-util.WordSize)

	if _, err := me.file.Write(me.buf); err != nil {
		return errors.Wrapf(err, "failed to write block at offset %d of %q", me.offset, me.FileName())
	}
	me.offset += uint64(len(me.buf))
	me.buf = me.buf[:0]

	if me.sync {
		return me.file.Sync()
	}
	return nil
}

// Flush writes the pending partial block, if any.
func (me *Writer) Flush() error {
	if len(me.buf) == 0 {
		return nil
	}
	return me.writeBlock()
}

// WriteMemtable adds every pair of mt in key order, skipping tombstones unless writeDeleted is
// set, then flushes.
func (me *Writer) WriteMemtable(mt *memtable.Memtable, writeDeleted bool) error {
	for kvp := range mt.Entries() {
		if kvp.IsDeleted() && !writeDeleted {
			continue
		}
		if err := me.Add(kvp.Key, kvp.Value); err != nil {
			return err
		}
	}
	return me.Flush()
}

// WriteFrom drains a copy of cursor into the table, skipping tombstones unless writeDeleted is
// set, then flushes.
func (me *Writer) WriteFrom(cursor iterator.Cursor, writeDeleted bool) error {
	for kvp, err := range cursor.All() {
		if err != nil {
			return err
		}
		if kvp.IsDeleted() && !writeDeleted {
			continue
		}
		if err := me.Add(kvp.Key, kvp.Value); err != nil {
			return err
		}
	}
	return me.Flush()
}

func (me *Writer) NumKeys() uint64 {
	return me.numKeys
}

// Index returns a copy of the block index built so far, suitable for handing to OpenReader.
func (me *Writer) Index() BlockIndex {
	return me.index.Clone()
}

func (me *Writer) ID() uuid.UUID {
	return me.header.ID
}

func (me *Writer) Level() uint64 {
	return me.header.Level
}

func (me *Writer) FileName() string {
	return me.file.FileName()
}

// Close flushes the pending block, syncs, and closes the file.
func (me *Writer) Close() error {
	if err := me.Flush(); err != nil {
		_ = me.file.Close()
		return err
	}
	if err := me.file.Sync(); err != nil {
		_ = me.file.Close()
		return err
	}
	return me.file.Close()
}
