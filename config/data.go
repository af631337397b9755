package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir is where amsflow keeps its run ledger when neither
// DATA_DIR nor AMSFLOW_DATA_DIR is set.
const DefaultDataDir = "./data"

// GetDataDir determines the data directory path.
// Priority: explicit setting > AMSFLOW_DATA_DIR environment variable > "./data" default
func GetDataDir(setting string) string {
	if setting != "" {
		return setting
	}
	if dir := os.Getenv(envPrefix + "DATA_DIR"); dir != "" {
		return dir
	}
	return DefaultDataDir
}

// GetRunsDBPath returns the full path to the run ledger database.
// The ledger records every run and the remote resources it created.
// Path: {DATA_DIR}/runs.db
func GetRunsDBPath(dataDir string) string {
	return filepath.Join(GetDataDir(dataDir), "runs.db")
}

// GetOutputDir returns the local folder downloaded asset blobs are written to.
// Path: {OUTPUT_FOLDER}/{assetName}
func GetOutputDir(outputFolder, assetName string) string {
	if outputFolder == "" {
		outputFolder = DefaultOutputFolder
	}
	return filepath.Join(outputFolder, assetName)
}
