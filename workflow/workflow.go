// Package workflow sequences the media client, blob transfer, poller and
// sinks into the analyze, encrypt and live pipelines.
package workflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"amsflow/ledger"
	"amsflow/logger"
	"amsflow/media"
	"amsflow/poller"
	"amsflow/sinks"
)

const (
	// SASExpiry is how long upload and download container URLs stay valid.
	SASExpiry = 4 * time.Hour
	// DefaultCleanupTimeout bounds the cleanup pass, which runs on its own context.
	DefaultCleanupTimeout = 10 * time.Minute
	// DefaultLiveStopWait is the pause between stopping and deleting a live event.
	DefaultLiveStopWait = 10 * time.Second
)

// ErrJobNotFinished is returned when a job reaches Error or Canceled.
var ErrJobNotFinished = errors.New("job did not finish")

// Uploader puts a local file into an asset container.
type Uploader interface {
	UploadFile(ctx context.Context, sasURL, localPath string) error
}

// Downloader streams every blob out of an asset container.
type Downloader interface {
	Each(ctx context.Context, sasURL string, fn func(name string, r io.Reader) error) error
}

// Transfer is both directions of blob access.
type Transfer interface {
	Uploader
	Downloader
}

// Prompter blocks until the operator is ready to continue or ctx is done.
type Prompter interface {
	Pause(ctx context.Context, message string) error
}

// LinePrompter waits for a line on in. A single goroutine owns the reader so
// an abandoned Pause does not lose the next line.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer

	once  sync.Once
	lines chan error
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Pause returns ctx.Err() if ctx ends before a line arrives. Closed input
// counts as confirmation.
func (p *LinePrompter) Pause(ctx context.Context, message string) error {
	fmt.Fprint(p.out, message)
	p.once.Do(func() {
		p.lines = make(chan error)
		go p.read()
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err, ok := <-p.lines:
		if !ok {
			return nil
		}
		return err
	}
}

func (p *LinePrompter) read() {
	defer close(p.lines)
	for {
		if _, err := p.in.ReadString('\n'); err != nil {
			if !errors.Is(err, io.EOF) {
				p.lines <- err
			}
			return
		}
		p.lines <- nil
	}
}

// AutoConfirm never waits. Used for --yes.
type AutoConfirm struct{}

func (AutoConfirm) Pause(ctx context.Context, message string) error {
	logger.Debugf("Skipping prompt: %s", message)
	return nil
}

// Runner holds everything a workflow needs. Zero-valued optional fields
// are filled with defaults by New.
type Runner struct {
	Client media.Client
	Blobs  Transfer
	// Ledger may be nil, in which case nothing is recorded.
	Ledger *ledger.Ledger
	Prompt Prompter
	Out    io.Writer
	Sink   sinks.Destination
	Poll   poller.Options

	TransformName string
	InputFile     string

	// StopEndpoint and DeleteEndpoint apply to the default streaming endpoint during cleanup.
	StopEndpoint   bool
	DeleteEndpoint bool

	CleanupTimeout time.Duration
	LiveStopWait   time.Duration

	// Uniqueness returns the per-run name suffix.
	Uniqueness func() string
	Now        func() time.Time
}

// New returns a Runner with defaults for everything not set on r.
func New(r Runner) *Runner {
	if r.Prompt == nil {
		r.Prompt = NewLinePrompter(os.Stdin, os.Stdout)
	}
	if r.Out == nil {
		r.Out = os.Stdout
	}
	if r.Sink.Type == "" {
		r.Sink.Type = sinks.TypeLocal
	}
	if r.CleanupTimeout <= 0 {
		r.CleanupTimeout = DefaultCleanupTimeout
	}
	if r.LiveStopWait <= 0 {
		r.LiveStopWait = DefaultLiveStopWait
	}
	if r.Uniqueness == nil {
		r.Uniqueness = Uniqueness
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	return &r
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.Out, format, args...)
}

// pause returns an error only when ctx ends first. Other prompt failures are
// logged and treated as confirmation.
func (r *Runner) pause(ctx context.Context, message string) error {
	err := r.Prompt.Pause(ctx, message)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logger.Warnf("Prompt failed, continuing: %v", err)
	return nil
}

// cleanupContext is detached from the workflow context so cleanup still
// runs after an interrupt.
func (r *Runner) cleanupContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.CleanupTimeout)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// run ties one workflow execution to its ledger record.
type run struct {
	ledger *ledger.Ledger
	id     string
}

func (r *Runner) begin(workflow string) *run {
	if r.Ledger == nil {
		return &run{}
	}
	record, err := r.Ledger.Begin(workflow)
	if err != nil {
		logger.Warnf("Failed to record %s run: %v", workflow, err)
		return &run{}
	}
	logger.Infof("Started %s run %s", workflow, record.ID)
	return &run{ledger: r.Ledger, id: record.ID}
}

func (rn *run) track(res ledger.Resource) {
	if rn.ledger == nil {
		return
	}
	if err := rn.ledger.Track(rn.id, res); err != nil {
		logger.Warnf("Failed to record %s %s: %v", res.Kind, res.Name, err)
	}
}

func (rn *run) forget(res ledger.Resource) {
	if rn.ledger == nil {
		return
	}
	if err := rn.ledger.Forget(rn.id, res); err != nil {
		logger.Warnf("Failed to update run %s: %v", rn.id, err)
	}
}

func (rn *run) finish(err error) {
	if rn.ledger == nil {
		return
	}
	if ferr := rn.ledger.Finish(rn.id, err); ferr != nil {
		logger.Warnf("Failed to close run %s: %v", rn.id, ferr)
	}
}
