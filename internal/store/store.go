package store

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultDataFile = "contacts.dat"
	DefaultDBFile   = "contacts.db"
)

// CheckExists verifies if the data file exists at the given path.
// Returns true if the file exists, false otherwise.
func CheckExists(dataPath string) (bool, error) {
	info, err := os.Stat(dataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check data file existence: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("data path is a directory, expected file: %s", dataPath)
	}
	return true, nil
}

// GetStorePath returns the directory holding the data file.
// Defaults to the current working directory.
func GetStorePath() string {
	return "."
}

// GetDataPath returns the full path to the default data file for a backend.
func GetDataPath(storePath, backend string) string {
	if backend == "sqlite" {
		return filepath.Join(storePath, DefaultDBFile)
	}
	return filepath.Join(storePath, DefaultDataFile)
}
