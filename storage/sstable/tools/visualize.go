package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/navijation/mdb/storage/env"
	"github.com/navijation/mdb/storage/sstable"
	"github.com/urfave/cli/v3"
)

func visualizeTableFile(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: visualize table_path")
	}

	path := cmd.Args().First()

	reader, err := sstable.OpenReader(sstable.ReaderArgs{
		Env:  env.Default(),
		Path: path,
	})
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}

	defer reader.Close()

	return visualizeTableFileHelper(reader)
}

func visualizeTableFileHelper(reader *sstable.Reader) error {
	header := reader.Header()
	fmt.Printf(
		"Header\n"+
			"  ID: %s\n"+
			"  Version: %d\n"+
			"  Level: %d\n"+
			"  Size: %d\n\n",
		header.ID.String(),
		header.Version,
		header.Level,
		reader.Size(),
	)

	index := reader.Index()
	fmt.Printf("Index\n" + "  Blocks:\n")
	for _, entry := range index.Entries {
		fmt.Printf("   - %q -> @%d\n", entry.Key, entry.Offset)
	}

	cursor, err := reader.Begin()
	if err != nil {
		return fmt.Errorf("failed to read first block: %w", err)
	}

	var (
		nextIndex   int
		entryNumber int
	)

	fmt.Printf("\n" + "Entries:\n")
	for !cursor.IsDone() {
		kvp := cursor.Current()

		if nextIndex < len(index.Entries) &&
			string(index.Entries[nextIndex].Key) == string(kvp.Key) {
			fmt.Printf("----- block @%d\n", index.Entries[nextIndex].Offset)
			nextIndex++
		}
		if kvp.IsDeleted() {
			fmt.Printf("  - #%d @%d: %q (%d bytes) -> <deleted>\n",
				entryNumber, cursor.Position(), kvp.Key, len(kvp.Key),
			)
		} else {
			fmt.Printf("  - #%d @%d: %q (%d bytes) -> %q (%d bytes)\n",
				entryNumber, cursor.Position(), kvp.Key, len(kvp.Key), kvp.Value, len(kvp.Value),
			)
		}

		entryNumber++
		if err := cursor.Next(); err != nil {
			return fmt.Errorf("failed to read table entry: %w", err)
		}
	}

	return nil
}
