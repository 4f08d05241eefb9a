package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "MOBILE_HARNESS_HOME"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the mobile-harness home directory. Relative paths in the
// configuration (app binary, log and screenshot directories) resolve against it.
//
// Resolution order:
//  1. $MOBILE_HARNESS_HOME environment variable
//  2. Parent of the binary's directory (if binary is in <home>/bin/)
//  3. Current working directory (development fallback)
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// ResolvePath returns p unchanged if it is absolute, otherwise joined to base.
// An empty base means GetHome().
func ResolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if base == "" {
		base = GetHome()
	}
	return filepath.Join(base, p)
}

func resolveHome() string {
	// 1. Environment variable
	if env := os.Getenv(envHome); env != "" {
		return env
	}

	// 2. Binary-relative: if binary is at <home>/bin/mobile-harness, use <home>
	if execPath, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}
		binDir := filepath.Dir(execPath)
		if filepath.Base(binDir) == "bin" {
			return filepath.Dir(binDir)
		}
	}

	// 3. Current working directory
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}

	return "."
}

// ResetHome resets the cached home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
