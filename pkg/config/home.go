package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "AUTOMATION_HOME"

// configNames are the workspace config file names, in lookup order.
var configNames = []string{"config.yaml", "config.yml"}

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the automation workspace directory.
//
// Resolution order:
//  1. $AUTOMATION_HOME
//  2. The current directory, if it holds config.yaml or config.yml
//  3. Parent of the binary's directory (if the binary is in <home>/bin/)
//  4. The current directory
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// LoadFromHome loads the workspace config found in GetHome.
func LoadFromHome() (*Config, error) {
	return LoadFromDir(GetHome())
}

func resolveHome() string {
	if env := os.Getenv(envHome); env != "" {
		return env
	}

	cwd, cwdErr := os.Getwd()
	if cwdErr == nil && hasConfig(cwd) {
		return cwd
	}

	if execPath, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}
		binDir := filepath.Dir(execPath)
		if filepath.Base(binDir) == "bin" {
			return filepath.Dir(binDir)
		}
	}

	if cwdErr == nil {
		return cwd
	}
	return "."
}

func hasConfig(dir string) bool {
	for _, name := range configNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// ResetHome resets the cached home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
