package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// LoadHex returns a trimmed hex string from a testdata relative path.
func LoadHex(t *testing.T, rel string) string {
	t.Helper()
	return strings.TrimSpace(string(readTestdata(t, rel)))
}

// LoadText returns a testdata file verbatim as a string.
func LoadText(t *testing.T, rel string) string {
	t.Helper()
	return string(readTestdata(t, rel))
}

func readTestdata(t *testing.T, rel string) []byte {
	t.Helper()
	candidates := []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
	}
	for _, path := range candidates {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
	}
	t.Fatalf("unable to locate testdata file %s", rel)
	return nil
}
