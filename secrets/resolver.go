// Package secrets resolves credential references from configuration
// into their material. A reference is either "env:NAME" (environment
// variable), "file:PATH" (file contents, with ~ expansion), or a
// literal value passed through unchanged.
package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/itglabs/impact-agent/internal/pathutil"
)

const (
	envScheme  = "env:"
	fileScheme = "file:"
)

// Resolve is fail-closed: a reference that names a missing or empty
// source is an error, never a silent empty string.
func Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty secret reference")
	}

	switch {
	case strings.HasPrefix(ref, envScheme):
		name := strings.TrimSpace(ref[len(envScheme):])
		if name == "" {
			return "", fmt.Errorf("empty env secret reference")
		}
		val, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("secret not found (env var %q is not set)", name)
		}
		if strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("secret is empty (env var %q)", name)
		}
		return val, nil

	case strings.HasPrefix(ref, fileScheme):
		path := pathutil.ExpandHomePath(strings.TrimSpace(ref[len(fileScheme):]))
		if path == "" {
			return "", fmt.Errorf("empty file secret reference")
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read secret file: %w", err)
		}
		if strings.TrimSpace(string(raw)) == "" {
			return "", fmt.Errorf("secret file %q is empty", path)
		}
		return string(raw), nil

	default:
		return ref, nil
	}
}
