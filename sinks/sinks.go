// Package sinks persists downloaded output asset blobs.
package sinks

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Supported destination types.
const (
	TypeLocal = "local"
	TypeS3    = "s3"
	TypeGCS   = "gcs"
	TypeSFTP  = "sftp"
)

// Destination is a sink type plus its backend settings (the SINK_* keys of
// settings.ini, prefix stripped and lowercased).
type Destination struct {
	Type     string
	Settings map[string]string
}

// Write stores the blob name read from reader under folder at the destination.
func Write(ctx context.Context, dest Destination, folder, name string, reader io.Reader) error {
	switch strings.ToLower(dest.Type) {
	case TypeLocal, "":
		if err := writeLocal(ctx, dest.Settings, folder, name, reader); err != nil {
			return fmt.Errorf("failed to write to local folder: %w", err)
		}
	case TypeS3:
		if err := writeS3(ctx, dest.Settings, objectKey(dest.Settings["prefix"], folder, name), reader); err != nil {
			return fmt.Errorf("failed to upload to S3: %w", err)
		}
	case TypeGCS:
		if err := writeGCS(ctx, dest.Settings, objectKey(dest.Settings["prefix"], folder, name), reader); err != nil {
			return fmt.Errorf("failed to upload to GCS: %w", err)
		}
	case TypeSFTP:
		remote := path.Join("/", dest.Settings["remote_dir"], folder, name)
		if err := writeSFTP(ctx, dest.Settings, remote, reader); err != nil {
			return fmt.Errorf("failed to upload to SFTP: %w", err)
		}
	default:
		return fmt.Errorf("unknown sink type: %s", dest.Type)
	}
	return nil
}

// Describe renders the destination root for log lines without leaking credentials.
func Describe(dest Destination, folder string) string {
	switch strings.ToLower(dest.Type) {
	case TypeS3:
		return "s3://" + path.Join(dest.Settings["bucket"], dest.Settings["prefix"], folder)
	case TypeGCS:
		return "gs://" + path.Join(dest.Settings["bucket"], dest.Settings["prefix"], folder)
	case TypeSFTP:
		return "sftp://" + dest.Settings["host"] + path.Join("/", dest.Settings["remote_dir"], folder)
	default:
		return localDir(dest.Settings, folder)
	}
}

func objectKey(prefix, folder, name string) string {
	return strings.TrimPrefix(path.Join(prefix, folder, name), "/")
}

func require(settings map[string]string, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if settings[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing sink settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
