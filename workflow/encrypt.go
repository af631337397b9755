package workflow

import (
	"context"
	"errors"
	"fmt"

	"amsflow/ledger"
	"amsflow/logger"
	"amsflow/media"
	"amsflow/token"
)

// AdaptiveStreamingPreset is the built-in encoder preset the encrypt workflow uses.
const AdaptiveStreamingPreset = "AdaptiveStreaming"

// EncryptOptions configures the token-restricted content key policy.
type EncryptOptions struct {
	PolicyName string
	Issuer     string
	Audience   string
	ClaimType  string
}

func (o EncryptOptions) validate() error {
	if o.PolicyName == "" || o.Issuer == "" || o.Audience == "" || o.ClaimType == "" {
		return errors.New("content key policy name, issuer, audience and claim type are required")
	}
	return nil
}

// Encrypt encodes the input for adaptive streaming, publishes it behind an
// AES clear key policy and prints a player URL carrying a playback token.
func (r *Runner) Encrypt(ctx context.Context, opts EncryptOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	names := NewNames(r.Uniqueness())
	rn := r.begin("encrypt")
	made := &created{}

	err := r.encrypt(ctx, rn, names, opts, made)
	if err != nil {
		logger.Errorf("Encrypt failed: %v", err)
	}

	if ctx.Err() == nil {
		if perr := r.pause(ctx, "Press enter to clean up..."); perr != nil {
			err = errors.Join(err, perr)
		}
	}
	cerr := r.cleanupJobRun(rn, made)
	rn.finish(errors.Join(err, cerr))
	return errors.Join(err, cerr)
}

func (r *Runner) encrypt(ctx context.Context, rn *run, names Names, opts EncryptOptions, made *created) error {
	key, err := token.NewSigningKey()
	if err != nil {
		return err
	}

	preset := media.Preset{Kind: media.PresetBuiltInEncoder, EncoderPreset: AdaptiveStreamingPreset}
	if _, err := r.GetOrCreateTransform(ctx, r.TransformName, preset); err != nil {
		return err
	}

	output, err := r.runJob(ctx, rn, names, made)
	if err != nil {
		return err
	}

	_, createdPolicy, err := r.GetOrCreateContentKeyPolicy(ctx, media.ContentKeyPolicy{
		Name:       opts.PolicyName,
		Issuer:     opts.Issuer,
		Audience:   opts.Audience,
		SigningKey: key,
		ClaimType:  opts.ClaimType,
	})
	if err != nil {
		return err
	}
	made.policy = opts.PolicyName
	if createdPolicy {
		rn.track(ledger.Resource{Kind: ledger.KindContentKeyPolicy, Name: opts.PolicyName})
	} else {
		logger.Warnf("Content key policy %s already exists; its signing key is not this run's key", opts.PolicyName)
	}

	made.locators = append(made.locators, names.Locator)
	rn.track(ledger.Resource{Kind: ledger.KindStreamingLocator, Name: names.Locator})
	locator, err := r.Client.CreateStreamingLocator(ctx, media.StreamingLocator{
		Name:             names.Locator,
		AssetName:        output,
		StreamingPolicy:  media.PolicyClearKey,
		ContentKeyPolicy: opts.PolicyName,
	})
	if err != nil {
		return fmt.Errorf("failed to create streaming locator: %w", err)
	}

	// the service generated the content key, so its id has to be read back
	keyIDs, err := r.Client.StreamingLocatorKeyIDs(ctx, locator.Name)
	if err != nil {
		return fmt.Errorf("failed to read content keys: %w", err)
	}
	if len(keyIDs) == 0 {
		return fmt.Errorf("streaming locator %s has no content keys", locator.Name)
	}

	tok, err := token.Build(token.Params{
		Issuer:    opts.Issuer,
		Audience:  opts.Audience,
		ClaimType: opts.ClaimType,
		KeyID:     keyIDs[0],
		Key:       key,
		Now:       r.Now(),
	})
	if err != nil {
		return err
	}
	if _, err := token.Verify(tok, key, opts.ClaimType); err != nil {
		return fmt.Errorf("playback token failed verification: %w", err)
	}

	endpoint, err := r.EnsureEndpointRunning(ctx, media.DefaultStreamingEndpoint)
	if err != nil {
		return err
	}
	paths, err := r.Client.StreamingLocatorPaths(ctx, locator.Name)
	if err != nil {
		return fmt.Errorf("failed to list streaming paths: %w", err)
	}
	dash, ok := media.FirstPath(paths, media.ProtocolDash)
	if !ok {
		return fmt.Errorf("streaming locator %s has no DASH path", locator.Name)
	}

	r.printf("Copy and paste the following URL in your browser to play back the file in the Azure Media Player.\n")
	r.printf("Note, the player is set to use the AES token and the Bearer token is specified.\n\n")
	r.printf("%s\n\n", media.AESPlayerURL(media.EndpointURL(endpoint.HostName, dash), tok))
	return nil
}
