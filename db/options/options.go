// Package options holds the tunables of a database instance and the naming scheme of the files it
// keeps in its directory.
package options

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/navijation/mdb/storage/env"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrInvalidOptions = errors.New("invalid options")

type Options struct {
	// Path is the directory holding the log and table files.
	Path string `yaml:"path"`
	// WriteSync fsyncs every log record and table block as it is written.
	WriteSync bool `yaml:"write_sync"`
	// BlockSize is the approximate size of a table block in bytes.
	BlockSize uint64 `yaml:"block_size"`
	// MemtableMaxSize is the byte estimate past which the memtable is flushed to a table.
	MemtableMaxSize uint64 `yaml:"memtable_max_size"`
	// RecoveryMode rebuilds state from the files in Path; otherwise they are removed.
	RecoveryMode bool `yaml:"recovery_mode"`
	// TriggerCompactionAt is the number of level 0 tables that starts a compaction.
	TriggerCompactionAt int `yaml:"trigger_compaction_at"`
	// LevelSizeBase scales the byte threshold of each level: level n may hold
	// LevelSizeBase * 10^(n+1) bytes before it is compacted into level n+1.
	LevelSizeBase uint64 `yaml:"level_size_base"`

	Env    env.Env     `yaml:"-"`
	Logger *zap.Logger `yaml:"-"`
}

func Default() Options {
	return Options{
		Path:                "./db_files/",
		BlockSize:           4096,
		MemtableMaxSize:     4 << 20,
		TriggerCompactionAt: 4,
		LevelSizeBase:       1_000_000,
		Env:                 env.Default(),
		Logger:              zap.NewNop(),
	}
}

// Load reads options from a YAML file. Keys missing from the file keep their default value, and a
// missing file yields Default().
func Load(path string) (Options, error) {
	out := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, errors.Wrapf(err, "failed to read options from %q", path)
	}

	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, errors.Wrapf(err, "failed to parse options from %q", path)
	}

	return out, out.Validate()
}

func (me *Options) Validate() error {
	switch {
	case me.Path == "":
		return errors.Wrap(ErrInvalidOptions, "path must not be empty")
	case me.BlockSize == 0:
		return errors.Wrap(ErrInvalidOptions, "block_size must be positive")
	case me.TriggerCompactionAt < 1:
		return errors.Wrap(ErrInvalidOptions, "trigger_compaction_at must be at least 1")
	case me.LevelSizeBase == 0:
		return errors.Wrap(ErrInvalidOptions, "level_size_base must be positive")
	}
	return nil
}

// LevelThreshold is the number of bytes level may hold before it is compacted.
func (me *Options) LevelThreshold(level uint64) uint64 {
	out := me.LevelSizeBase
	for range level + 1 {
		out *= 10
	}
	return out
}

type FileKind int

const (
	FileKindUnknown FileKind = iota
	FileKindLog
	FileKindTable
)

var (
	logFileRegexp   = regexp.MustCompile(`^log([0-9]+)\.dat$`)
	tableFileRegexp = regexp.MustCompile(`^table([0-9]+)\.mdb$`)
)

func LogFileName(number uint64) string {
	return fmt.Sprintf("log%d.dat", number)
}

func TableFileName(number uint64) string {
	return fmt.Sprintf("table%d.mdb", number)
}

// ParseFileName classifies a base name found in the database directory.
func ParseFileName(name string) (kind FileKind, number uint64) {
	for _, candidate := range []struct {
		kind   FileKind
		regexp *regexp.Regexp
	}{
		{kind: FileKindLog, regexp: logFileRegexp},
		{kind: FileKindTable, regexp: tableFileRegexp},
	} {
		match := candidate.regexp.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		number, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			// too many digits
			return FileKindUnknown, 0
		}
		return candidate.kind, number
	}
	return FileKindUnknown, 0
}
