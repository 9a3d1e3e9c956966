package sstable

import (
	"bytes"
	"io"
	"iter"

	"github.com/google/uuid"
	"github.com/navijation/mdb/storage/env"
	"github.com/navijation/mdb/storage/iterator"
	"github.com/navijation/mdb/storage/keyvaluepair"
	"github.com/navijation/mdb/util"
	"github.com/pkg/errors"
)

// TableReader is the read side of a sorted table as used by the storage manager.
type TableReader interface {
	// ValueOf looks key up. A tombstone is reported as found with an empty value.
	ValueOf(key []byte) (value []byte, found bool, _ error)
	Begin() (iterator.Cursor, error)
	End() iterator.Cursor
	FileName() string
	Size() uint64
	Level() uint64
	ID() uuid.UUID
	Close() error
}

var _ TableReader = (*Reader)(nil)

// Reader serves point lookups and ordered scans over an immutable table file. All reads are
// positioned, so a Reader is safe for concurrent use.
type Reader struct {
	file   env.ReadableFile
	header Header
	index  BlockIndex
}

type ReaderArgs struct {
	Env  env.Env
	Path string
	// Index, when handed over by the Writer that built the table, saves rebuilding it from the
	// block headers.
	Index util.Optional[BlockIndex]
}

func OpenReader(args ReaderArgs) (_ *Reader, err error) {
	file, err := args.Env.MakeReadOnlyIO(args.Path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = file.Close()
		}
	}()

	out := &Reader{file: file}

	if file.Size() < HeaderSize {
		return nil, errors.Wrapf(ErrCorrupted, "%q is smaller than a table header", args.Path)
	}
	cursor := util.NewReaderAtCursor(file, 0)
	if _, err := out.header.ReadFrom(&cursor); err != nil {
		return nil, errors.Wrapf(err, "failed to read header of %q", args.Path)
	}

	if index, ok := args.Index.Unpack(); ok {
		out.index = index
	} else if err := out.Reindex(); err != nil {
		return nil, err
	}

	return out, nil
}

// Reindex rebuilds the block index by walking the block headers.
func (me *Reader) Reindex() error {
	var index BlockIndex
	for offset := uint64(HeaderSize); offset < me.Size(); {
		block, err := me.readBlock(offset)
		if err != nil {
			return err
		}
		stored, _, err := keyvaluepair.ParseAt(block, 0)
		if err != nil {
			return me.corrupted(err, offset)
		}
		index.add(stored.Key, offset)
		offset += util.WordSize + uint64(len(block))
	}
	me.index = index
	return nil
}

// readBlock returns the payload of the block whose size header is at offset.
func (me *Reader) readBlock(offset uint64) ([]byte, error) {
	size := me.Size()

	payloadSize, _, err := util.ReadUint64At(me.file, offset)
	if err != nil {
		return nil, me.corrupted(err, offset)
	}
	start := offset + util.WordSize
	if start > size || payloadSize > size-start {
		return nil, me.corrupted(errors.Errorf("block of %d bytes exceeds file", payloadSize), offset)
	}

	block := make([]byte, payloadSize)
	n, err := me.file.ReadAt(block, int64(start))
	if n < len(block) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrapf(err, "failed to read block at offset %d of %q", offset, me.FileName())
	}
	return block, nil
}

func (me *Reader) corrupted(cause error, offset uint64) error {
	return errors.Wrapf(ErrCorrupted, "%q at offset %d: %v", me.FileName(), offset, cause)
}

func (me *Reader) ValueOf(key []byte) (value []byte, found bool, _ error) {
	offset, ok := me.index.LookupBlock(key)
	if !ok {
		return nil, false, nil
	}

	block, err := me.readBlock(offset)
	if err != nil {
		return nil, false, err
	}

	for pos := uint64(0); pos < uint64(len(block)); {
		stored, n, err := keyvaluepair.ParseAt(block, pos)
		if err != nil {
			return nil, false, me.corrupted(err, offset+util.WordSize+pos)
		}
		switch bytes.Compare(stored.Key, key) {
		case 0:
			return stored.Value, true, nil
		case 1:
			return nil, false, nil
		}
		pos += n
	}

	return nil, false, nil
}

// Begin returns a cursor at the first pair of the table.
func (me *Reader) Begin() (iterator.Cursor, error) {
	it := &tableIterator{reader: me}
	if err := it.loadBlock(HeaderSize); err != nil {
		return iterator.Cursor{}, err
	}
	return iterator.NewCursor(it), nil
}

// End returns a finished cursor; a cursor advanced past the last pair equals it.
func (me *Reader) End() iterator.Cursor {
	return iterator.NewCursor(&tableIterator{reader: me, done: true})
}

// Entries yields every pair in key order, tombstones included.
func (me *Reader) Entries() iter.Seq2[keyvaluepair.KeyValuePair, error] {
	return func(yield func(keyvaluepair.KeyValuePair, error) bool) {
		cursor, err := me.Begin()
		if err != nil {
			yield(keyvaluepair.KeyValuePair{}, err)
			return
		}
		for kvp, err := range cursor.All() {
			if !yield(kvp, err) {
				return
			}
		}
	}
}

func (me *Reader) Header() Header {
	return me.header
}

// Index returns a copy of the block index.
func (me *Reader) Index() BlockIndex {
	return me.index.Clone()
}

func (me *Reader) FileName() string {
	return me.file.FileName()
}

func (me *Reader) Size() uint64 {
	return me.file.Size()
}

func (me *Reader) Level() uint64 {
	return me.header.Level
}

func (me *Reader) ID() uuid.UUID {
	return me.header.ID
}

func (me *Reader) Close() error {
	return me.file.Close()
}

var _ iterator.TableIterator = (*tableIterator)(nil)

// tableIterator walks a table one block at a time. Position is the absolute file offset of the
// current record, or the file size once done.
type tableIterator struct {
	reader *Reader

	blockOffset uint64
	// payload of the current block; shared, never mutated
	block   []byte
	pos     uint64
	nextPos uint64
	current keyvaluepair.KeyValuePair
	done    bool
}

func (me *tableIterator) loadBlock(offset uint64) error {
	if offset >= me.reader.Size() {
		me.done = true
		me.block = nil
		me.current = keyvaluepair.KeyValuePair{}
		return nil
	}

	block, err := me.reader.readBlock(offset)
	if err != nil {
		return err
	}
	me.blockOffset = offset
	me.block = block
	me.pos = 0
	return me.parseCurrent()
}

func (me *tableIterator) parseCurrent() error {
	stored, n, err := keyvaluepair.ParseAt(me.block, me.pos)
	if err != nil {
		return me.reader.corrupted(err, me.Position())
	}
	me.current = stored.ToKeyValuePair()
	me.nextPos = me.pos + n
	return nil
}

func (me *tableIterator) Current() keyvaluepair.KeyValuePair {
	return me.current
}

func (me *tableIterator) Next() error {
	if me.done {
		return nil
	}
	if me.nextPos >= uint64(len(me.block)) {
		return me.loadBlock(me.blockOffset + util.WordSize + uint64(len(me.block)))
	}
	me.pos = me.nextPos
	return me.parseCurrent()
}

func (me *tableIterator) IsDone() bool {
	return me.done
}

func (me *tableIterator) Position() uint64 {
	if me.done {
		return me.reader.Size()
	}
	return me.blockOffset + util.WordSize + me.pos
}

func (me *tableIterator) FileID() uuid.UUID {
	return me.reader.ID()
}

func (me *tableIterator) Clone() iterator.TableIterator {
	out := *me
	return &out
}
