package util

import (
	"encoding/binary"
	"io"
)

// WordSize is the width of every length prefix and header field written by the engine.
const WordSize = 8

type Word64 [WordSize]byte

func (me Word64) Uint64() uint64 {
	return binary.BigEndian.Uint64(me[:])
}

func Uint64ToWord64(v uint64) (out Word64) {
	binary.BigEndian.PutUint64(out[:], v)
	return out
}

func ReadUint64(reader io.Reader) (value uint64, n int, _ error) {
	var word Word64
	n, err := io.ReadAtLeast(reader, word[:], len(word))
	if err != nil {
		return 0, n, err
	}
	return word.Uint64(), n, nil
}

func ReadUint64s(reader io.Reader, vs ...*uint64) (n int, _ error) {
	for _, v := range vs {
		value, dn, err := ReadUint64(reader)
		n += dn
		if err != nil {
			return n, err
		}
		*v = value
	}
	return n, nil
}

// ReadUint64At reads a single word at offset without disturbing any cursor state.
func ReadUint64At(reader io.ReaderAt, offset uint64) (value uint64, n int, _ error) {
	var word Word64
	n, err := reader.ReadAt(word[:], int64(offset))
	if n == len(word) {
		// io.ReaderAt may report io.EOF alongside a complete read at the end of the input
		return word.Uint64(), n, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return 0, n, err
}

func WriteUint64(writer io.Writer, v uint64) (n int, _ error) {
	word := Uint64ToWord64(v)
	return writer.Write(word[:])
}

func WriteUint64s(writer io.Writer, vs ...uint64) (n int, _ error) {
	for _, v := range vs {
		dn, err := WriteUint64(writer, v)
		n += dn
		if err != nil {
			return n, err
		}
	}

	return n, nil
}

func AppendUint64(buf []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(buf, v)
}

// PutUint64At overwrites the word starting at offset, which must already be allocated.
func PutUint64At(buf []byte, offset int, v uint64) {
	binary.BigEndian.PutUint64(buf[offset:offset+WordSize], v)
}

func Uint64At(buf []byte, offset uint64) uint64 {
	return binary.BigEndian.Uint64(buf[offset : offset+WordSize])
}
