package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/navijation/mdb/storage/env"
	"github.com/navijation/mdb/storage/memtable"
	"github.com/navijation/mdb/storage/sstable"
	"github.com/urfave/cli/v3"
)

func constructTableFile(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: construct table_path")
	}

	path := cmd.Args().First()

	// lines may arrive in any order; the memtable sorts them and keeps the last value per key
	mt := memtable.New()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fragments := strings.SplitN(scanner.Text(), ":", 2)
		if len(fragments) != 2 {
			fmt.Fprintf(os.Stderr, "Entry must be in \"key: value\" format, or \"key:\" format\n")
			continue
		}

		key, value := strings.TrimSpace(fragments[0]), strings.TrimSpace(fragments[1])
		if key == "" {
			fmt.Fprintf(os.Stderr, "Entry key must not be empty\n")
			continue
		}
		if value == "" {
			mt.Delete([]byte(key))
		} else {
			mt.Put([]byte(key), []byte(value))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	e := env.Default()
	writer, err := sstable.NewWriter(sstable.WriterArgs{
		Env:       e,
		Path:      path,
		BlockSize: uint64(cmd.Uint("block-size")),
		Level:     uint64(cmd.Uint("level")),
	})
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}

	if err := writer.WriteMemtable(mt, true); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	reader, err := sstable.OpenReader(sstable.ReaderArgs{Env: e, Path: path})
	if err != nil {
		return err
	}
	defer reader.Close()

	return visualizeTableFileHelper(reader)
}
