package sinks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"amsflow/config"
	"amsflow/logger"
)

func localDir(settings map[string]string, folder string) string {
	return config.GetOutputDir(settings["dir"], folder)
}

// writeLocal writes the blob below {dir}/{folder}, creating directories for
// blob names that contain slashes.
func writeLocal(ctx context.Context, settings map[string]string, folder, name string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	baseDir := localDir(settings, folder)
	fullPath := filepath.Join(baseDir, filepath.FromSlash(name))
	if rel, err := filepath.Rel(baseDir, fullPath); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("blob name %q escapes %s", name, baseDir)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}

	logger.Debugf("Saved '%s' to '%s'", name, fullPath)
	return nil
}
