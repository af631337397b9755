package sinks

import (
	"context"
	"fmt"
	"io"

	"amsflow/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// writeS3 uploads reader to s3://{bucket}/{key} with static credentials.
// Settings: access_key, secret_key, region, bucket, optional endpoint for
// S3-compatible stores.
func writeS3(ctx context.Context, settings map[string]string, key string, reader io.Reader) error {
	if err := require(settings, "access_key", "secret_key", "region", "bucket"); err != nil {
		return err
	}

	creds := credentials.NewStaticCredentialsProvider(settings["access_key"], settings["secret_key"], "")
	opts := s3.Options{
		Region:      settings["region"],
		Credentials: creds,
	}
	if endpoint := settings["endpoint"]; endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	client := s3.New(opts)

	uploader := manager.NewUploader(client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(settings["bucket"]),
		Key:    aws.String(key),
		Body:   reader,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	logger.Debugf("Uploaded s3://%s/%s", settings["bucket"], key)
	return nil
}
