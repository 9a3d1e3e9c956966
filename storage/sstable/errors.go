package sstable

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument is returned for keys that are empty or not strictly ascending.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCorrupted is returned when a block or record length reaches past the end of the file.
	ErrCorrupted = errors.New("sorted table is corrupted")
)
