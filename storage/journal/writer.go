// Package journal implements the write-ahead log. Every mutation is appended to the active log
// before it is applied to the memtable, so the memtable can be rebuilt by replaying the log after a
// restart.
//
// A log file is a bare sequence of records (see keyvaluepair.StoredKeyValuePair). A record with an
// empty value is a delete marker.
package journal

import (
	"github.com/navijation/mdb/storage/env"
	"github.com/navijation/mdb/storage/keyvaluepair"
	"go.uber.org/zap"
)

// BlockSize is the size of the in-memory buffer records are collected in before being written.
const BlockSize = 512

// Writer appends records to a single log generation. Writer is not safe for concurrent use.
type Writer struct {
	file   env.WritableFile
	sync   bool
	logger *zap.Logger

	buf    [BlockSize]byte
	bufPos int
	// bytes handed to the file so far
	size uint64
}

type CreateArgs struct {
	Env  env.Env
	Path string
	// Sync writes and fsyncs every record immediately instead of buffering.
	Sync   bool
	Logger *zap.Logger
}

// Create creates (or truncates) the log file at args.Path.
func Create(args CreateArgs) (*Writer, error) {
	file, err := args.Env.MakeWriteOnlyIO(args.Path)
	if err != nil {
		return nil, err
	}

	logger := args.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Writer{
		file:   file,
		sync:   args.Sync,
		logger: logger,
	}, nil
}

// Add records a write of value to key. An empty value records a delete.
func (me *Writer) Add(key, value []byte) error {
	// The record is encoded in one piece so that a failure can never leave a key without its value
	// in the buffer.
	kvp := keyvaluepair.New(key, value)
	stored := kvp.ToStoredKeyValuePair()
	return me.append(stored.AppendTo(make([]byte, 0, stored.SizeOf())))
}

// MarkDelete records a delete of key.
func (me *Writer) MarkDelete(key []byte) error {
	return me.Add(key, nil)
}

func (me *Writer) append(data []byte) error {
	if me.sync {
		if err := me.write(data); err != nil {
			return err
		}
		return me.file.Sync()
	}

	if len(data) > BlockSize {
		// too large to buffer; the pending buffer must reach the file first to keep record order
		if err := me.FlushBuffer(); err != nil {
			return err
		}
		return me.write(data)
	}

	if len(data) > BlockSize-me.bufPos {
		if err := me.FlushBuffer(); err != nil {
			return err
		}
	}
	me.bufPos += copy(me.buf[me.bufPos:], data)
	return nil
}

// FlushBuffer writes any buffered records to the file.
func (me *Writer) FlushBuffer() error {
	if me.bufPos == 0 {
		return nil
	}
	if err := me.write(me.buf[:me.bufPos]); err != nil {
		return err
	}
	me.bufPos = 0
	return nil
}

func (me *Writer) write(data []byte) error {
	if _, err := me.file.Write(data); err != nil {
		return err
	}
	me.size += uint64(len(data))
	return nil
}

// Sync flushes the buffer and fsyncs the file.
func (me *Writer) Sync() error {
	if err := me.FlushBuffer(); err != nil {
		return err
	}
	return me.file.Sync()
}

// Size is the number of bytes logged, including buffered bytes.
func (me *Writer) Size() uint64 {
	return me.size + uint64(me.bufPos)
}

// Buffered is the number of bytes not yet handed to the file.
func (me *Writer) Buffered() int {
	return me.bufPos
}

func (me *Writer) FileName() string {
	return me.file.FileName()
}

// Close flushes pending records and closes the file. A failed flush is logged rather than
// returned: by the time a log is closed its owner is tearing down and cannot act on the error.
func (me *Writer) Close() error {
	if err := me.FlushBuffer(); err != nil {
		me.logger.Error(
			"failed to flush write-ahead log on close; recent writes may be lost",
			zap.String("path", me.FileName()),
			zap.Int("buffered", me.bufPos),
			zap.Error(err),
		)
	}
	return me.file.Close()
}
