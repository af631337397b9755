package sinks

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"amsflow/logger"
)

// writeGCS uploads reader to gs://{bucket}/{object}.
// Settings: bucket, and either credentials_json (base64 service account key)
// or credentials_file. With neither, application default credentials are used.
func writeGCS(ctx context.Context, settings map[string]string, object string, reader io.Reader) error {
	if err := require(settings, "bucket"); err != nil {
		return err
	}

	var opts []option.ClientOption
	switch {
	case settings["credentials_json"] != "":
		credentialsJSON, err := base64.StdEncoding.DecodeString(settings["credentials_json"])
		if err != nil {
			return fmt.Errorf("decode credentials_json: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	case settings["credentials_file"] != "":
		opts = append(opts, option.WithCredentialsFile(settings["credentials_file"]))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("storage.NewClient: %w", err)
	}
	defer client.Close()

	wc := client.Bucket(settings["bucket"]).Object(object).NewWriter(ctx)
	if _, err := io.Copy(wc, reader); err != nil {
		wc.Close()
		return fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %w", err)
	}

	logger.Debugf("Uploaded gs://%s/%s", settings["bucket"], object)
	return nil
}
