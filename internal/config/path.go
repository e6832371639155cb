// Package config loads and validates the application configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves ~ and $VAR references in a configured path. The
// database path and the registry file overrides all pass through here, so
// config files can stay machine-independent.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
