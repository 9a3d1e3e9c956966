package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/navijation/mdb/storage/env"
	"github.com/navijation/mdb/storage/iterator"
	"github.com/navijation/mdb/storage/sstable"
	"github.com/navijation/mdb/util"
	"github.com/urfave/cli/v3"
)

func mergeTables(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 2 {
		return errors.New("usage: merge dest_path src_path1 [src_path2 ...]")
	}

	e := env.Default()
	destPath := cmd.Args().Get(0)

	var srcs []iterator.Cursor
	var maxLevel uint64
	for i := 1; i < cmd.Args().Len(); i++ {
		src, err := sstable.OpenReader(sstable.ReaderArgs{
			Env:  e,
			Path: cmd.Args().Get(i),
		})
		if err != nil {
			return err
		}
		defer src.Close()

		cursor, err := src.Begin()
		if err != nil {
			return err
		}
		srcs = append(srcs, cursor)
		maxLevel = max(maxLevel, src.Level())
	}

	dst, err := sstable.NewWriter(sstable.WriterArgs{
		Env:       e,
		Path:      destPath,
		BlockSize: uint64(cmd.Uint("block-size")),
		Level:     maxLevel + 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", destPath, err)
	}

	if err := sstable.Merge(sstable.MergeArgs{
		Srcs:           srcs,
		Dst:            dst,
		DropTombstones: cmd.Bool("drop-tombstones"),
	}); err != nil {
		_ = dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	reader, err := sstable.OpenReader(sstable.ReaderArgs{
		Env:   e,
		Path:  destPath,
		Index: util.Some(dst.Index()),
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	return visualizeTableFileHelper(reader)
}
