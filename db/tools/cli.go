package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "mdb_tools",
		Usage: "read and write a database directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "mdb.yaml",
				Usage: "YAML options file; defaults are used when it does not exist",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "database directory, overriding the options file",
			},
			&cli.BoolFlag{
				Name:  "fresh",
				Usage: "discard existing files instead of recovering them",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "emit production JSON logs instead of development console logs",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "put",
				Usage:     "set a key",
				ArgsUsage: "key value",
				Action:    withDB(putKey),
			},
			{
				Name:      "get",
				Usage:     "print the value of a key",
				ArgsUsage: "key",
				Action:    withDB(getKey),
			},
			{
				Name:      "delete",
				Usage:     "delete a key",
				ArgsUsage: "key",
				Action:    withDB(deleteKey),
			},
			{
				Name:   "fill",
				Usage:  "write random keys",
				Action: withDB(fillRandom, checkFillArgs),
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  "count",
						Value: 10_000,
						Usage: "number of writes",
					},
					&cli.UintFlag{
						Name:  "key-space",
						Value: 1_000_000,
						Usage: "keys are drawn uniformly from this many distinct keys",
					},
					&cli.UintFlag{
						Name:  "value-size",
						Value: 100,
						Usage: "size of every value in bytes",
					},
				},
			},
			{
				Name:   "compact-wait",
				Usage:  "open the database and wait for any compaction it starts",
				Action: withDB(compactWait),
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
