package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"

	"amsflow/logger"
	"amsflow/media"
	"amsflow/sinks"
)

// CreateInputAsset creates an asset and uploads localPath into its container.
func (r *Runner) CreateInputAsset(ctx context.Context, name, localPath string) (media.Asset, error) {
	asset, err := r.Client.CreateOrUpdateAsset(ctx, name)
	if err != nil {
		return media.Asset{}, fmt.Errorf("failed to create input asset: %w", err)
	}

	sasURL, err := r.Client.ContainerSASURL(ctx, asset.Name, media.PermissionReadWrite, r.Now().UTC().Add(SASExpiry))
	if err != nil {
		return asset, fmt.Errorf("failed to get upload URL: %w", err)
	}

	logger.Infof("Uploading %s to asset %s", filepath.Base(localPath), asset.Name)
	if err := r.Blobs.UploadFile(ctx, sasURL, localPath); err != nil {
		return asset, fmt.Errorf("failed to upload %s: %w", localPath, err)
	}
	return asset, nil
}

// CreateOutputAsset creates the job output asset. When name is taken a
// UUID suffix is appended and the returned asset carries the new name.
func (r *Runner) CreateOutputAsset(ctx context.Context, name string) (media.Asset, error) {
	outputName := name
	_, err := r.Client.GetAsset(ctx, name)
	switch {
	case err == nil:
		outputName = name + "-" + uuid.NewString()
		logger.Warnf("Found an existing Asset with name = %s", name)
		logger.Warnf("Creating an Asset with this name instead: %s", outputName)
	case errors.Is(err, media.ErrNotFound):
	default:
		return media.Asset{}, fmt.Errorf("failed to look up output asset: %w", err)
	}

	asset, err := r.Client.CreateOrUpdateAsset(ctx, outputName)
	if err != nil {
		return media.Asset{}, fmt.Errorf("failed to create output asset: %w", err)
	}
	return asset, nil
}

// GetOrCreateTransform returns the named transform, creating it with preset
// only when it does not exist. An existing transform is assumed to use the same preset.
func (r *Runner) GetOrCreateTransform(ctx context.Context, name string, preset media.Preset) (media.Transform, error) {
	t, err := r.Client.GetTransform(ctx, name)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, media.ErrNotFound) {
		return media.Transform{}, fmt.Errorf("failed to look up transform: %w", err)
	}

	logger.Infof("Creating transform %s", name)
	t, err = r.Client.CreateOrUpdateTransform(ctx, media.Transform{Name: name, Presets: []media.Preset{preset}})
	if err != nil {
		return media.Transform{}, fmt.Errorf("failed to create transform: %w", err)
	}
	return t, nil
}

// GetOrCreateContentKeyPolicy returns the named policy, creating it from
// policy when missing. created reports whether this call created it.
func (r *Runner) GetOrCreateContentKeyPolicy(ctx context.Context, policy media.ContentKeyPolicy) (p media.ContentKeyPolicy, created bool, err error) {
	p, err = r.Client.GetContentKeyPolicy(ctx, policy.Name)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, media.ErrNotFound) {
		return media.ContentKeyPolicy{}, false, fmt.Errorf("failed to look up content key policy: %w", err)
	}

	logger.Infof("Creating content key policy %s", policy.Name)
	p, err = r.Client.CreateOrUpdateContentKeyPolicy(ctx, policy)
	if err != nil {
		return media.ContentKeyPolicy{}, false, fmt.Errorf("failed to create content key policy: %w", err)
	}
	return p, true, nil
}

// SubmitJob starts transform on input, writing into output.
func (r *Runner) SubmitJob(ctx context.Context, transform, name, input, output string) (media.Job, error) {
	logger.Infof("Submitting job %s", name)
	job, err := r.Client.SubmitJob(ctx, media.JobRequest{
		Name:         name,
		Transform:    transform,
		InputAsset:   input,
		OutputAssets: []string{output},
	})
	if err != nil {
		return media.Job{}, fmt.Errorf("failed to submit job: %w", err)
	}
	return job, nil
}

// DownloadOutputAsset copies every blob of the asset into the configured sink
// under a folder named after the asset.
func (r *Runner) DownloadOutputAsset(ctx context.Context, assetName string) error {
	sasURL, err := r.Client.ContainerSASURL(ctx, assetName, media.PermissionRead, r.Now().UTC().Add(SASExpiry))
	if err != nil {
		return fmt.Errorf("failed to get download URL: %w", err)
	}

	logger.Infof("Downloading output results to %s", sinks.Describe(r.Sink, assetName))
	err = r.Blobs.Each(ctx, sasURL, func(name string, body io.Reader) error {
		return sinks.Write(ctx, r.Sink, assetName, name, body)
	})
	if err != nil {
		return fmt.Errorf("failed to download asset %s: %w", assetName, err)
	}
	logger.Info("Download complete.")
	return nil
}

// EnsureEndpointRunning starts the streaming endpoint if it is stopped.
func (r *Runner) EnsureEndpointRunning(ctx context.Context, name string) (media.StreamingEndpoint, error) {
	endpoint, err := r.Client.GetStreamingEndpoint(ctx, name)
	if err != nil {
		return media.StreamingEndpoint{}, fmt.Errorf("failed to get streaming endpoint %s: %w", name, err)
	}
	if endpoint.Running {
		return endpoint, nil
	}

	logger.Info("Streaming Endpoint was Stopped, restarting now..")
	if err := r.Client.StartStreamingEndpoint(ctx, name); err != nil {
		return endpoint, fmt.Errorf("failed to start streaming endpoint %s: %w", name, err)
	}
	endpoint.Running = true
	return endpoint, nil
}
