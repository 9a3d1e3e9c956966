package util

import (
	"errors"
	"io"
)

var _ io.Reader = (*ReaderAtCursor)(nil)

// ReaderAtCursor is a sequential reader over an io.ReaderAt starting at an offset. It only uses
// `ReadAt`, which does not mutate any shared file state, so any number of cursors can be created
// over a single open file and used concurrently.
type ReaderAtCursor struct {
	reader io.ReaderAt
	offset uint64
}

func NewReaderAtCursor(reader io.ReaderAt, offset uint64) ReaderAtCursor {
	return ReaderAtCursor{
		reader: reader,
		offset: offset,
	}
}

func (me *ReaderAtCursor) Read(b []byte) (n int, err error) {
	n, err = me.reader.ReadAt(b, int64(me.offset))
	me.offset += uint64(n)
	if n == len(b) && errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

func (me *ReaderAtCursor) Offset() uint64 {
	return me.offset
}
