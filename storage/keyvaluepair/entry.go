package keyvaluepair

import "github.com/pkg/errors"

// ErrTruncated reports a record whose length prefixes point past the end of the available bytes.
var ErrTruncated = errors.New("record is truncated")

// Directly serde-able key-value pair. The binary representation is as follows; a value size of
// zero is the delete marker (tombstone).
// _____________________________________________________________________
// | 8 bytes    | (key size) bytes | 8 bytes    | (value size) bytes    |
// |--------------------------------------------------------------------|
// | key size   |     key          | value size |      value            |
// |--------------------------------------------------------------------|
type StoredKeyValuePair struct {
	KeySize   uint64
	ValueSize uint64
	Key       []byte
	Value     []byte
}

// Higher-level DTO for passing around key-value pairs conveniently. An empty Value marks the key
// as deleted.
type KeyValuePair struct {
	Key   []byte
	Value []byte
}
