package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/itglabs/impact-agent/internal/pathutil"
)

// ResolveSQLiteDSN normalizes a sqlite DSN. Memory and file: URIs pass
// through untouched; plain paths get home expansion and a parent dir.
func ResolveSQLiteDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("db.dsn is required")
	}
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn, nil
	}
	path := pathutil.ExpandHomePath(dsn)
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("create db dir %s: %w", dir, err)
		}
	}
	return path, nil
}
