package testing_util

import (
	"os"
	"testing"

	"github.com/navijation/mdb/storage/env"
)

func MkdirTemp(t *testing.T, prefix string) (path string, cleanup func()) {
	out, err := os.MkdirTemp(os.TempDir(), prefix)
	if err != nil {
		t.Fatalf("failed to create temporary directory: %v", err)
	}

	if err := os.Chmod(out, 0o777); err != nil {
		t.Fatalf("failed to make temporary directory accessible: %s", err)
	}

	return out, func() {
		os.RemoveAll(out)
	}
}

// MemEnv returns an in-memory environment in which dir already exists.
func MemEnv(t testing.TB, dir string) *env.FSEnv {
	out := env.NewMem()
	if err := out.MkdirAll(dir); err != nil {
		t.Fatalf("failed to create %q: %v", dir, err)
	}
	return out
}
