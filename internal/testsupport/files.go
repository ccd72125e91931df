package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes contents to path, creating parent directories.
func WriteFile(t testing.TB, path, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteTLSMaterial writes placeholder cert.pem, key.pem, and ca.pem files
// into dir. The contents are not valid PEM; they satisfy presence checks only.
func WriteTLSMaterial(t testing.TB, dir string) {
	t.Helper()

	for _, name := range []string{"cert.pem", "key.pem", "ca.pem"} {
		WriteFile(t, filepath.Join(dir, name), "placeholder "+name+"\n")
	}
}

// ShortTempDir returns a temp directory with a short path, suitable for unix
// sockets whose paths are length limited.
func ShortTempDir(t testing.TB) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "dps")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}
