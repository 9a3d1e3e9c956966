package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/navijation/mdb/db/lsm"
	"github.com/navijation/mdb/db/options"
	"github.com/urfave/cli/v3"
	"github.com/zhangyunhao116/fastrand"
	"go.uber.org/zap"
)

type dbAction func(ctx context.Context, cmd *cli.Command, db *lsm.DB, logger *zap.Logger) error

// withDB opens the database described by the global flags around action. Each check runs first
// and aborts the command before any file is touched.
func withDB(action dbAction, checks ...cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) (err error) {
		for _, check := range checks {
			if err := check(ctx, cmd); err != nil {
				return err
			}
		}

		logger, err := newLogger(cmd.Bool("log-json"))
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		opts, err := options.Load(cmd.String("config"))
		if err != nil {
			return err
		}
		if path := cmd.String("path"); path != "" {
			opts.Path = path
		}
		opts.RecoveryMode = !cmd.Bool("fresh")
		opts.Logger = logger

		db, err := lsm.Open(opts)
		if err != nil {
			return fmt.Errorf("failed to open %q: %w", opts.Path, err)
		}
		defer func() {
			if closeErr := db.Close(); err == nil {
				err = closeErr
			}
		}()

		return action(ctx, cmd, db, logger)
	}
}

func newLogger(json bool) (*zap.Logger, error) {
	if json {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func putKey(_ context.Context, cmd *cli.Command, db *lsm.DB, _ *zap.Logger) error {
	if cmd.Args().Len() != 2 {
		return errors.New("usage: put key value")
	}
	return db.Put([]byte(cmd.Args().Get(0)), []byte(cmd.Args().Get(1)))
}

func getKey(_ context.Context, cmd *cli.Command, db *lsm.DB, _ *zap.Logger) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: get key")
	}

	value, exists, err := db.Get([]byte(cmd.Args().First()))
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("key %q not found", cmd.Args().First())
	}
	fmt.Printf("%s\n", value)
	return nil
}

func deleteKey(_ context.Context, cmd *cli.Command, db *lsm.DB, _ *zap.Logger) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: delete key")
	}
	return db.Delete([]byte(cmd.Args().First()))
}

// checkFillArgs runs before the database is opened.
func checkFillArgs(_ context.Context, cmd *cli.Command) error {
	return validateFillArgs(cmd.Uint("key-space"), cmd.Uint("value-size"))
}

func validateFillArgs(keySpace, valueSize uint64) error {
	if keySpace == 0 || keySpace > math.MaxUint32 {
		return errors.New("key-space must be between 1 and 2^32-1")
	}
	if valueSize == 0 {
		return errors.New("value-size must be positive")
	}
	return nil
}

func fillRandom(ctx context.Context, cmd *cli.Command, db *lsm.DB, logger *zap.Logger) error {
	count := cmd.Uint("count")
	keySpace := cmd.Uint("key-space")

	value := make([]byte, cmd.Uint("value-size"))
	for i := range value {
		value[i] = byte('a' + fastrand.Uint32n(26))
	}

	start := time.Now()
	for i := range count {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		key := fmt.Sprintf("key%016d", fastrand.Uint32n(uint32(keySpace)))
		if err := db.Put([]byte(key), value); err != nil {
			return err
		}
	}
	db.WaitForOngoingCompactions()

	logger.Info("filled database",
		zap.Uint64("writes", uint64(count)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func compactWait(_ context.Context, _ *cli.Command, db *lsm.DB, logger *zap.Logger) error {
	start := time.Now()
	db.WaitForOngoingCompactions()
	logger.Info("no compaction running", zap.Duration("waited", time.Since(start)))
	return nil
}
