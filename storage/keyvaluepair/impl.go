package keyvaluepair

import (
	"io"

	"github.com/navijation/mdb/util"
)

func New(key, value []byte) KeyValuePair {
	return KeyValuePair{Key: key, Value: value}
}

func Tombstone(key []byte) KeyValuePair {
	return KeyValuePair{Key: key}
}

func (me *KeyValuePair) IsDeleted() bool {
	return len(me.Value) == 0
}

// SizeOf is the byte estimate used for memtable accounting.
func (me *KeyValuePair) SizeOf() uint64 {
	return uint64(len(me.Key) + len(me.Value))
}

func (me *KeyValuePair) ToStoredKeyValuePair() StoredKeyValuePair {
	return StoredKeyValuePair{
		KeySize:   uint64(len(me.Key)),
		ValueSize: uint64(len(me.Value)),
		Key:       me.Key,
		Value:     me.Value,
	}
}

func (me *StoredKeyValuePair) IsDeleted() bool {
	return me.ValueSize == 0
}

func (me *StoredKeyValuePair) ToKeyValuePair() KeyValuePair {
	return KeyValuePair{
		Key:   me.Key,
		Value: me.Value,
	}
}

func (me *StoredKeyValuePair) SizeOf() uint64 {
	return 2*util.WordSize + me.KeySize + me.ValueSize
}

// AppendTo appends the encoded record to buf; used to build WAL records and table blocks in memory
// before a single write.
func (me *StoredKeyValuePair) AppendTo(buf []byte) []byte {
	buf = util.AppendUint64(buf, me.KeySize)
	buf = append(buf, me.Key...)
	buf = util.AppendUint64(buf, me.ValueSize)
	return append(buf, me.Value...)
}

func (me *StoredKeyValuePair) WriteTo(writer io.Writer) (n int64, _ error) {
	if dn, err := util.WriteUint64(writer, me.KeySize); err != nil {
		return n + int64(dn), err
	} else {
		n += int64(dn)
	}

	if dn, err := writer.Write(me.Key); err != nil {
		return n + int64(dn), err
	} else {
		n += int64(dn)
	}

	if dn, err := util.WriteUint64(writer, me.ValueSize); err != nil {
		return n + int64(dn), err
	} else {
		n += int64(dn)
	}

	if dn, err := writer.Write(me.Value); err != nil {
		return n + int64(dn), err
	} else {
		n += int64(dn)
	}

	return n, nil
}

// ReadFromLimited decodes one record. It never allocates more than limit bytes for the key and value, so
// a corrupted length prefix cannot trigger a huge allocation; limit is the number of bytes known to
// remain in the underlying input.
func (me *StoredKeyValuePair) ReadFromLimited(reader io.Reader, limit uint64) (n int64, err error) {
	keySize, dn, err := util.ReadUint64(reader)
	n += int64(dn)
	if err != nil {
		return n, err
	}
	if uint64(n) > limit || keySize > limit-uint64(n) {
		return n, ErrTruncated
	}
	me.KeySize = keySize

	me.Key = make([]byte, keySize)
	dn, err = io.ReadAtLeast(reader, me.Key, int(keySize))
	n += int64(dn)
	if err != nil {
		return n, err
	}

	valueSize, dn, err := util.ReadUint64(reader)
	n += int64(dn)
	if err != nil {
		return n, err
	}
	if uint64(n) > limit || valueSize > limit-uint64(n) {
		return n, ErrTruncated
	}
	me.ValueSize = valueSize

	me.Value = make([]byte, valueSize)
	dn, err = io.ReadAtLeast(reader, me.Value, int(valueSize))
	n += int64(dn)
	return n, err
}

// ParseAt decodes the record starting at buf[offset:], returning the number of bytes consumed. The
// returned key and value alias buf.
func ParseAt(buf []byte, offset uint64) (out StoredKeyValuePair, n uint64, _ error) {
	size := uint64(len(buf))
	pos := offset

	if pos > size || size-pos < util.WordSize {
		return out, 0, ErrTruncated
	}
	out.KeySize = util.Uint64At(buf, pos)
	pos += util.WordSize
	if out.KeySize > size-pos {
		return out, 0, ErrTruncated
	}
	out.Key = buf[pos : pos+out.KeySize]
	pos += out.KeySize

	if size-pos < util.WordSize {
		return out, 0, ErrTruncated
	}
	out.ValueSize = util.Uint64At(buf, pos)
	pos += util.WordSize
	if out.ValueSize > size-pos {
		return out, 0, ErrTruncated
	}
	out.Value = buf[pos : pos+out.ValueSize]
	pos += out.ValueSize

	return out, pos - offset, nil
}
