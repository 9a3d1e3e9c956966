package sstable

import (
	"io"

	"github.com/google/uuid"
	"github.com/navijation/mdb/util"
)

// CurrentVersion is the format version stamped into new tables.
const CurrentVersion uint64 = 1

// HeaderSize is the encoded size of Header.
const HeaderSize = 16 + 2*util.WordSize

// ______________________________________________
// | 16 bytes  | 8 bytes    | 8 bytes            |
// |---------------------------------------------|
// | ID (UUID) | version    | level              |
// |---------------------------------------------|
type Header struct {
	ID      uuid.UUID
	Version uint64
	Level   uint64
}

func (me *Header) WriteTo(writer io.Writer) (n int64, _ error) {
	dn, err := writer.Write(me.ID[:])
	n += int64(dn)
	if err != nil {
		return n, err
	}

	dn, err = util.WriteUint64s(writer, me.Version, me.Level)
	return n + int64(dn), err
}

func (me *Header) ReadFrom(reader io.Reader) (n int64, _ error) {
	dn, err := io.ReadFull(reader, me.ID[:])
	n += int64(dn)
	if err != nil {
		return n, err
	}

	dn, err = util.ReadUint64s(reader, &me.Version, &me.Level)
	return n + int64(dn), err
}

func (me *Header) SizeOf() uint64 {
	return HeaderSize
}
