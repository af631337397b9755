package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"amsflow/ledger"
	"amsflow/logger"
	"amsflow/media"
)

// sweep runs deletes best effort, collecting every error.
type sweep struct {
	run  *run
	errs []error
}

func (s *sweep) do(res ledger.Resource, fn func() error) {
	if err := fn(); err != nil && !errors.Is(err, media.ErrNotFound) {
		logger.Errorf("Failed to delete %s %s: %v", res.Kind, res.Name, err)
		s.errs = append(s.errs, fmt.Errorf("delete %s %s: %w", res.Kind, res.Name, err))
		return
	}
	logger.Debugf("Deleted %s %s", res.Kind, res.Name)
	if s.run != nil {
		s.run.forget(res)
	}
}

func (s *sweep) err() error {
	return errors.Join(s.errs...)
}

// deleteTransformJobs removes every job of the transform.
func (r *Runner) deleteTransformJobs(ctx context.Context, s *sweep, transform string) {
	jobs, err := r.Client.ListJobs(ctx, transform)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return
		}
		logger.Errorf("Failed to list jobs of %s: %v", transform, err)
		s.errs = append(s.errs, fmt.Errorf("list jobs: %w", err))
		return
	}
	for _, job := range jobs {
		res := ledger.Resource{Kind: ledger.KindJob, Name: job.Name, Parent: transform}
		s.do(res, func() error { return r.Client.DeleteJob(ctx, transform, job.Name) })
	}
}

// TeardownLiveEvent stops a running live event, removing its outputs,
// waits for the state change and deletes it.
func (r *Runner) TeardownLiveEvent(ctx context.Context, name string) error {
	event, err := r.Client.GetLiveEvent(ctx, name)
	if err != nil {
		return err
	}
	if event.Running {
		logger.Infof("Stopping live event %s", name)
		if err := r.Client.StopLiveEvent(ctx, name, true); err != nil {
			return err
		}
		if err := sleep(ctx, r.LiveStopWait); err != nil {
			return err
		}
	}
	logger.Infof("Deleting live event %s", name)
	return r.Client.DeleteLiveEvent(ctx, name)
}

// cleanupEndpoint applies StopEndpoint and DeleteEndpoint to the default endpoint.
func (r *Runner) cleanupEndpoint(ctx context.Context, s *sweep) {
	if !r.StopEndpoint && !r.DeleteEndpoint {
		return
	}
	res := ledger.Resource{Kind: "streaming-endpoint", Name: media.DefaultStreamingEndpoint}
	s.do(res, func() error {
		endpoint, err := r.Client.GetStreamingEndpoint(ctx, res.Name)
		if err != nil {
			return err
		}
		if endpoint.Running {
			if err := r.Client.StopStreamingEndpoint(ctx, res.Name); err != nil {
				return err
			}
		}
		if r.DeleteEndpoint {
			return r.Client.DeleteStreamingEndpoint(ctx, res.Name)
		}
		return nil
	})
}

// kindOrder deletes dependents before the things they reference.
var kindOrder = map[string]int{
	ledger.KindJob:              0,
	ledger.KindLiveEvent:        1,
	ledger.KindStreamingLocator: 2,
	ledger.KindAsset:            3,
	ledger.KindContentKeyPolicy: 4,
}

func (r *Runner) deleteResource(ctx context.Context, res ledger.Resource) error {
	switch res.Kind {
	case ledger.KindJob:
		return r.Client.DeleteJob(ctx, res.Parent, res.Name)
	case ledger.KindLiveEvent:
		return r.TeardownLiveEvent(ctx, res.Name)
	case ledger.KindStreamingLocator:
		return r.Client.DeleteStreamingLocator(ctx, res.Name)
	case ledger.KindAsset:
		return r.Client.DeleteAsset(ctx, res.Name)
	case ledger.KindContentKeyPolicy:
		return r.Client.DeleteContentKeyPolicy(ctx, res.Name)
	}
	return fmt.Errorf("unknown resource kind %q", res.Kind)
}

// CleanupRun deletes every resource the ledger still holds for runID.
func (r *Runner) CleanupRun(ctx context.Context, runID string) error {
	if r.Ledger == nil {
		return errors.New("run ledger is not open")
	}
	record, err := r.Ledger.Get(runID)
	if err != nil {
		return err
	}

	resources := append([]ledger.Resource(nil), record.Resources...)
	sort.SliceStable(resources, func(i, j int) bool {
		return kindOrder[resources[i].Kind] < kindOrder[resources[j].Kind]
	})

	logger.Infof("Cleaning up %d resources of %s run %s", len(resources), record.Workflow, record.ID)
	s := &sweep{run: &run{ledger: r.Ledger, id: record.ID}}
	for _, res := range resources {
		s.do(res, func() error { return r.deleteResource(ctx, res) })
	}

	if record.State == ledger.StateRunning {
		if err := r.Ledger.Finish(record.ID, errors.New("interrupted; cleaned up later")); err != nil {
			logger.Warnf("Failed to close run %s: %v", record.ID, err)
		}
	}
	return s.err()
}

// CleanupAll runs CleanupRun for every run that still holds resources.
func (r *Runner) CleanupAll(ctx context.Context) error {
	if r.Ledger == nil {
		return errors.New("run ledger is not open")
	}
	records, err := r.Ledger.List()
	if err != nil {
		return err
	}

	var errs []error
	cleaned := 0
	for _, record := range records {
		if len(record.Resources) == 0 {
			continue
		}
		cleaned++
		if err := r.CleanupRun(ctx, record.ID); err != nil {
			errs = append(errs, fmt.Errorf("run %s: %w", record.ID, err))
		}
	}
	if cleaned == 0 {
		logger.Info("Nothing left to clean up.")
	}
	return errors.Join(errs...)
}
