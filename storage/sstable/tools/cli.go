package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "sstable_tools",
		Usage: "visualize and manipulate sorted table files",
		Commands: []*cli.Command{
			{
				Name:      "visualize",
				Usage:     "print the header, block index and records of a table",
				ArgsUsage: "table_path",
				Action:    visualizeTableFile,
			},
			{
				Name:      "construct",
				Usage:     "build a table from \"key: value\" lines on stdin; \"key:\" writes a tombstone",
				ArgsUsage: "table_path",
				Action:    constructTableFile,
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  "block-size",
						Value: 4096,
						Usage: "approximate size of table blocks in bytes",
					},
					&cli.UintFlag{
						Name:  "level",
						Value: 0,
						Usage: "level stamped into the table header",
					},
				},
			},
			{
				Name:      "merge",
				Usage:     "merge tables, listed newest first, into a new table",
				ArgsUsage: "dest_path src_path1 [src_path2 ...]",
				Action:    mergeTables,
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  "block-size",
						Value: 4096,
						Usage: "approximate size of table blocks in bytes",
					},
					&cli.BoolFlag{
						Name:  "drop-tombstones",
						Usage: "omit deleted keys from the output",
					},
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
