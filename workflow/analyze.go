package workflow

import (
	"context"
	"errors"
	"fmt"

	"amsflow/ledger"
	"amsflow/logger"
	"amsflow/media"
	"amsflow/poller"
)

// DefaultAudioLanguage is the analyzer language unless overridden.
const DefaultAudioLanguage = "en-US"

// AnalyzeOptions selects the analyzer preset.
type AnalyzeOptions struct {
	AudioOnly     bool
	AudioLanguage string
}

func (o AnalyzeOptions) preset() media.Preset {
	lang := o.AudioLanguage
	if lang == "" {
		lang = DefaultAudioLanguage
	}
	if o.AudioOnly {
		return media.Preset{Kind: media.PresetAudioAnalyzer, AudioLanguage: lang}
	}
	return media.Preset{Kind: media.PresetVideoAnalyzer, AudioLanguage: lang}
}

// created collects what a job workflow made so cleanup only touches its own resources.
type created struct {
	assets   []string
	locators []string
	policy   string
}

// Analyze uploads the input file, runs the analyzer transform and downloads
// the insights into the sink. Cleanup always runs.
func (r *Runner) Analyze(ctx context.Context, opts AnalyzeOptions) error {
	names := NewNames(r.Uniqueness())
	rn := r.begin("analyze")
	made := &created{}

	err := r.analyze(ctx, rn, names, opts, made)
	if err != nil {
		logger.Errorf("Analyze failed: %v", err)
	}

	cerr := r.cleanupJobRun(rn, made)
	rn.finish(errors.Join(err, cerr))
	return errors.Join(err, cerr)
}

func (r *Runner) analyze(ctx context.Context, rn *run, names Names, opts AnalyzeOptions, made *created) error {
	if _, err := r.GetOrCreateTransform(ctx, r.TransformName, opts.preset()); err != nil {
		return err
	}

	output, err := r.runJob(ctx, rn, names, made)
	if err != nil {
		return err
	}

	if err := r.DownloadOutputAsset(ctx, output); err != nil {
		return err
	}
	logger.Info("Done.")
	return nil
}

// runJob uploads the input, creates the output asset, submits the job and
// waits for it. It returns the output asset name once the job has finished.
func (r *Runner) runJob(ctx context.Context, rn *run, names Names, made *created) (string, error) {
	made.assets = append(made.assets, names.Input)
	rn.track(ledger.Resource{Kind: ledger.KindAsset, Name: names.Input})
	if _, err := r.CreateInputAsset(ctx, names.Input, r.InputFile); err != nil {
		return "", err
	}

	output, err := r.CreateOutputAsset(ctx, names.Output)
	if err != nil {
		return "", err
	}
	made.assets = append(made.assets, output.Name)
	rn.track(ledger.Resource{Kind: ledger.KindAsset, Name: output.Name})

	rn.track(ledger.Resource{Kind: ledger.KindJob, Name: names.Job, Parent: r.TransformName})
	if _, err := r.SubmitJob(ctx, r.TransformName, names.Job, names.Input, output.Name); err != nil {
		return "", err
	}

	job, err := poller.WaitForJob(ctx, r.Client, r.TransformName, names.Job, r.Poll)
	if err != nil {
		return "", err
	}
	if job.State != media.JobFinished {
		return "", fmt.Errorf("%w: %s ended in state %s%s", ErrJobNotFinished, job.Name, job.State, outputErrors(job))
	}
	logger.Info("Job finished.")
	return output.Name, nil
}

func outputErrors(job media.Job) string {
	var msg string
	for _, out := range job.Outputs {
		if out.Error != "" {
			msg += ": " + out.Error
		}
	}
	return msg
}

// cleanupJobRun removes the transform's jobs and whatever the run created.
func (r *Runner) cleanupJobRun(rn *run, made *created) error {
	ctx, cancel := r.cleanupContext()
	defer cancel()

	logger.Info("Cleaning up...")
	s := &sweep{run: rn}
	r.deleteTransformJobs(ctx, s, r.TransformName)
	for _, name := range made.locators {
		res := ledger.Resource{Kind: ledger.KindStreamingLocator, Name: name}
		s.do(res, func() error { return r.Client.DeleteStreamingLocator(ctx, name) })
	}
	for _, name := range made.assets {
		res := ledger.Resource{Kind: ledger.KindAsset, Name: name}
		s.do(res, func() error { return r.Client.DeleteAsset(ctx, name) })
	}
	if made.policy != "" {
		res := ledger.Resource{Kind: ledger.KindContentKeyPolicy, Name: made.policy}
		s.do(res, func() error { return r.Client.DeleteContentKeyPolicy(ctx, made.policy) })
	}
	r.cleanupEndpoint(ctx, s)
	return s.err()
}
