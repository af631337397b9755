package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"amsflow/ledger"
	"amsflow/logger"
	"amsflow/media"
	"amsflow/poller"
)

const (
	// LiveManifestName is the manifest the live output writes into the archive asset.
	LiveManifestName = "output"
	// LiveArchiveWindow is how much of the stream stays seekable.
	LiveArchiveWindow = 10 * time.Minute
)

// liveState is shared between the pipeline and its cleanup.
type liveState struct {
	eventCreated bool
	eventDeleted bool
}

// Live creates a pass-through RTMP live event with an archive and prints
// the ingest, preview and playback URLs. Cleanup runs exactly once, also
// when the pipeline fails, and a pipeline error is returned after it.
func (r *Runner) Live(ctx context.Context) error {
	names := NewLiveNames(r.Uniqueness())
	rn := r.begin("live")
	state := &liveState{}

	err := r.live(ctx, rn, names, state)
	if err != nil {
		logger.Errorf("Live failed: %v", err)
	}

	cerr := r.cleanupLive(rn, names, state)
	rn.finish(errors.Join(err, cerr))
	return errors.Join(err, cerr)
}

func (r *Runner) live(ctx context.Context, rn *run, names LiveNames, state *liveState) error {
	location, err := r.Client.AccountLocation(ctx)
	if err != nil {
		return fmt.Errorf("failed to get account location: %w", err)
	}

	logger.Infof("Creating a live event named %s", names.Event)
	logger.Info("Creating the LiveEvent, be patient this can take time...")
	rn.track(ledger.Resource{Kind: ledger.KindLiveEvent, Name: names.Event})
	state.eventCreated = true
	if _, err := r.Client.CreateLiveEvent(ctx, media.LiveEventSpec{
		Name:                names.Event,
		Location:            location,
		Description:         "Sample LiveEvent for testing",
		LowLatency:          true,
		AutoStart:           true,
		AllowedAddress:      "0.0.0.0",
		AllowedPrefixLength: 0,
	}); err != nil {
		return fmt.Errorf("failed to create live event: %w", err)
	}

	event, err := poller.WaitForLiveEvent(ctx, r.Client, names.Event, r.Poll)
	if err != nil {
		return err
	}
	if len(event.IngestURLs) == 0 || len(event.PreviewURLs) == 0 {
		return fmt.Errorf("live event %s has no ingest or preview endpoint", names.Event)
	}

	r.printf("The ingest url to configure the on premise encoder with is: %s\n", event.IngestURLs[0])
	r.printf("The preview url is %s\n", event.PreviewURLs[0])
	r.printf("Open the live preview in your browser and use the Azure Media Player to monitor the preview playback:\n")
	r.printf("\t%s\n", media.LowLatencyPlayerURL(event.PreviewURLs[0]))

	logger.Infof("Creating an asset named %s", names.Asset)
	rn.track(ledger.Resource{Kind: ledger.KindAsset, Name: names.Asset})
	asset, err := r.Client.CreateOrUpdateAsset(ctx, names.Asset)
	if err != nil {
		return fmt.Errorf("failed to create archive asset: %w", err)
	}

	logger.Infof("Creating a live output named %s", names.Output)
	if _, err := r.Client.CreateLiveOutput(ctx, media.LiveOutput{
		Name:          names.Output,
		LiveEvent:     names.Event,
		AssetName:     asset.Name,
		ManifestName:  LiveManifestName,
		ArchiveWindow: LiveArchiveWindow,
	}); err != nil {
		return fmt.Errorf("failed to create live output: %w", err)
	}

	logger.Infof("Creating a streaming locator named %s", names.Locator)
	rn.track(ledger.Resource{Kind: ledger.KindStreamingLocator, Name: names.Locator})
	if _, err := r.Client.CreateStreamingLocator(ctx, media.StreamingLocator{
		Name:            names.Locator,
		AssetName:       asset.Name,
		StreamingPolicy: media.PolicyClearStreamingOnly,
	}); err != nil {
		return fmt.Errorf("failed to create streaming locator: %w", err)
	}

	endpoint, err := r.EnsureEndpointRunning(ctx, media.DefaultStreamingEndpoint)
	if err != nil {
		return err
	}
	paths, err := r.Client.StreamingLocatorPaths(ctx, names.Locator)
	if err != nil {
		return fmt.Errorf("failed to list streaming paths: %w", err)
	}

	r.printf("The urls to stream the output from a client:\n")
	var playerPath string
	published := 0
	for _, p := range paths {
		if len(p.Paths) == 0 {
			continue
		}
		published++
		u := media.EndpointURL(endpoint.HostName, p.Paths[0])
		r.printf("\t%s-%s\t\t%s\n", p.Protocol, p.EncryptionScheme, u)
		if playerPath == "" && p.Protocol == media.ProtocolDash {
			playerPath = u
		}
	}

	if published == 0 {
		r.printf("No Streaming Paths were detected. Has the Stream been started?\n")
		r.printf("Cleaning up and Exiting...\n")
		return nil
	}

	r.printf("Open the following URL to playback the published,recording LiveOutput in the Azure Media Player\n")
	r.printf("\t %s\n", media.LowLatencyPlayerURL(playerPath))
	r.printf("Continue experimenting with the stream until you are ready to finish.\n")
	if err := r.pause(ctx, "Press enter to stop the LiveOutput..."); err != nil {
		return err
	}

	if err := r.TeardownLiveEvent(ctx, names.Event); err != nil && !errors.Is(err, media.ErrNotFound) {
		return fmt.Errorf("failed to stop live event: %w", err)
	}
	state.eventDeleted = true
	rn.forget(ledger.Resource{Kind: ledger.KindLiveEvent, Name: names.Event})

	r.printf("The LiveOutput and LiveEvent are now deleted.  The event is available as an archive and can still be streamed.\n")
	return r.pause(ctx, "Press enter to finish cleanup...")
}

// cleanupLive tears down the live event if the pipeline did not, then
// deletes the locator and the archive asset.
func (r *Runner) cleanupLive(rn *run, names LiveNames, state *liveState) error {
	ctx, cancel := r.cleanupContext()
	defer cancel()

	logger.Info("Cleaning up...")
	s := &sweep{run: rn}
	if state.eventCreated && !state.eventDeleted {
		res := ledger.Resource{Kind: ledger.KindLiveEvent, Name: names.Event}
		s.do(res, func() error { return r.TeardownLiveEvent(ctx, names.Event) })
	}
	locator := ledger.Resource{Kind: ledger.KindStreamingLocator, Name: names.Locator}
	s.do(locator, func() error { return r.Client.DeleteStreamingLocator(ctx, names.Locator) })
	asset := ledger.Resource{Kind: ledger.KindAsset, Name: names.Asset}
	s.do(asset, func() error { return r.Client.DeleteAsset(ctx, names.Asset) })
	r.cleanupEndpoint(ctx, s)
	return s.err()
}
