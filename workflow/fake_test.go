package workflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"amsflow/media"
)

// fakeClient is an in-memory media.Client. Set failOn to make a named
// method fail once it is reached.
type fakeClient struct {
	mu sync.Mutex

	assets     map[string]media.Asset
	transforms map[string]media.Transform
	jobs       map[string]media.Job
	policies   map[string]media.ContentKeyPolicy
	locators   map[string]media.StreamingLocator
	events     map[string]media.LiveEvent
	outputs    map[string]media.LiveOutput
	endpoint   media.StreamingEndpoint

	jobStates []media.JobState
	jobPolls  int
	paths     []media.StreamingPath
	failOn    map[string]error
	calls     map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		assets:     map[string]media.Asset{},
		transforms: map[string]media.Transform{},
		jobs:       map[string]media.Job{},
		policies:   map[string]media.ContentKeyPolicy{},
		locators:   map[string]media.StreamingLocator{},
		events:     map[string]media.LiveEvent{},
		outputs:    map[string]media.LiveOutput{},
		endpoint:   media.StreamingEndpoint{Name: media.DefaultStreamingEndpoint, HostName: "amsaccount-usw22.streaming.media.azure.net"},
		jobStates:  []media.JobState{media.JobQueued, media.JobProcessing, media.JobFinished},
		paths: []media.StreamingPath{
			{Protocol: media.ProtocolHLS, EncryptionScheme: "EnvelopeEncryption", Paths: []string{"/loc/manifest(format=m3u8-aapl)"}},
			{Protocol: media.ProtocolDash, EncryptionScheme: "EnvelopeEncryption", Paths: []string{"/loc/manifest(format=mpd-time-csf)"}},
		},
		failOn: map[string]error{},
		calls:  map[string]int{},
	}
}

func (f *fakeClient) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.failOn[method]
}

func (f *fakeClient) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func notFound(kind, name string) error {
	return fmt.Errorf("%s %s: %w", kind, name, media.ErrNotFound)
}

func (f *fakeClient) AccountLocation(ctx context.Context) (string, error) {
	if err := f.enter("AccountLocation"); err != nil {
		return "", err
	}
	return "westus2", nil
}

func (f *fakeClient) CreateOrUpdateAsset(ctx context.Context, name string) (media.Asset, error) {
	if err := f.enter("CreateOrUpdateAsset"); err != nil {
		return media.Asset{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a := media.Asset{Name: name, Container: "asset-" + name, StorageAccount: "amsstorage"}
	f.assets[name] = a
	return a, nil
}

func (f *fakeClient) GetAsset(ctx context.Context, name string) (media.Asset, error) {
	if err := f.enter("GetAsset"); err != nil {
		return media.Asset{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[name]
	if !ok {
		return media.Asset{}, notFound("asset", name)
	}
	return a, nil
}

func (f *fakeClient) ListAssets(ctx context.Context) ([]media.Asset, error) {
	if err := f.enter("ListAssets"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []media.Asset
	for _, a := range f.assets {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeClient) DeleteAsset(ctx context.Context, name string) error {
	if err := f.enter("DeleteAsset"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assets, name)
	return nil
}

func (f *fakeClient) ContainerSASURL(ctx context.Context, asset string, perm media.ContainerPermission, expiry time.Time) (string, error) {
	if err := f.enter("ContainerSASURL"); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://amsstorage.blob.core.windows.net/asset-%s?sp=%s", asset, perm), nil
}

func (f *fakeClient) GetTransform(ctx context.Context, name string) (media.Transform, error) {
	if err := f.enter("GetTransform"); err != nil {
		return media.Transform{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transforms[name]
	if !ok {
		return media.Transform{}, notFound("transform", name)
	}
	return t, nil
}

func (f *fakeClient) CreateOrUpdateTransform(ctx context.Context, t media.Transform) (media.Transform, error) {
	if err := f.enter("CreateOrUpdateTransform"); err != nil {
		return media.Transform{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transforms[t.Name] = t
	return t, nil
}

func (f *fakeClient) SubmitJob(ctx context.Context, req media.JobRequest) (media.Job, error) {
	if err := f.enter("SubmitJob"); err != nil {
		return media.Job{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	j := media.Job{Name: req.Name, Transform: req.Transform, InputAsset: req.InputAsset, State: media.JobQueued}
	for _, out := range req.OutputAssets {
		j.Outputs = append(j.Outputs, media.JobOutput{AssetName: out, State: media.JobQueued})
	}
	f.jobs[req.Transform+"/"+req.Name] = j
	return j, nil
}

func (f *fakeClient) GetJob(ctx context.Context, transform, name string) (media.Job, error) {
	if err := f.enter("GetJob"); err != nil {
		return media.Job{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[transform+"/"+name]
	if !ok {
		return media.Job{}, notFound("job", name)
	}
	i := f.jobPolls
	if i >= len(f.jobStates) {
		i = len(f.jobStates) - 1
	}
	f.jobPolls++
	j.State = f.jobStates[i]
	for k := range j.Outputs {
		j.Outputs[k].State = j.State
	}
	f.jobs[transform+"/"+name] = j
	return j, nil
}

func (f *fakeClient) ListJobs(ctx context.Context, transform string) ([]media.Job, error) {
	if err := f.enter("ListJobs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []media.Job
	for key, j := range f.jobs {
		if strings.HasPrefix(key, transform+"/") {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeClient) DeleteJob(ctx context.Context, transform, name string) error {
	if err := f.enter("DeleteJob"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, transform+"/"+name)
	return nil
}

func (f *fakeClient) GetContentKeyPolicy(ctx context.Context, name string) (media.ContentKeyPolicy, error) {
	if err := f.enter("GetContentKeyPolicy"); err != nil {
		return media.ContentKeyPolicy{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.policies[name]
	if !ok {
		return media.ContentKeyPolicy{}, notFound("content key policy", name)
	}
	return p, nil
}

func (f *fakeClient) CreateOrUpdateContentKeyPolicy(ctx context.Context, p media.ContentKeyPolicy) (media.ContentKeyPolicy, error) {
	if err := f.enter("CreateOrUpdateContentKeyPolicy"); err != nil {
		return media.ContentKeyPolicy{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.policies[p.Name] = p
	return p, nil
}

func (f *fakeClient) DeleteContentKeyPolicy(ctx context.Context, name string) error {
	if err := f.enter("DeleteContentKeyPolicy"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.policies, name)
	return nil
}

func (f *fakeClient) CreateStreamingLocator(ctx context.Context, l media.StreamingLocator) (media.StreamingLocator, error) {
	if err := f.enter("CreateStreamingLocator"); err != nil {
		return media.StreamingLocator{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locators[l.Name] = l
	return l, nil
}

func (f *fakeClient) ListStreamingLocators(ctx context.Context) ([]media.StreamingLocator, error) {
	if err := f.enter("ListStreamingLocators"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []media.StreamingLocator
	for _, l := range f.locators {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeClient) StreamingLocatorKeyIDs(ctx context.Context, name string) ([]string, error) {
	if err := f.enter("StreamingLocatorKeyIDs"); err != nil {
		return nil, err
	}
	return []string{"0e2b1c4d-1111-4000-8000-00000000abcd"}, nil
}

func (f *fakeClient) StreamingLocatorPaths(ctx context.Context, name string) ([]media.StreamingPath, error) {
	if err := f.enter("StreamingLocatorPaths"); err != nil {
		return nil, err
	}
	return f.paths, nil
}

func (f *fakeClient) DeleteStreamingLocator(ctx context.Context, name string) error {
	if err := f.enter("DeleteStreamingLocator"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locators, name)
	return nil
}

func (f *fakeClient) GetStreamingEndpoint(ctx context.Context, name string) (media.StreamingEndpoint, error) {
	if err := f.enter("GetStreamingEndpoint"); err != nil {
		return media.StreamingEndpoint{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.endpoint, nil
}

func (f *fakeClient) StartStreamingEndpoint(ctx context.Context, name string) error {
	if err := f.enter("StartStreamingEndpoint"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoint.Running = true
	return nil
}

func (f *fakeClient) StopStreamingEndpoint(ctx context.Context, name string) error {
	if err := f.enter("StopStreamingEndpoint"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoint.Running = false
	return nil
}

func (f *fakeClient) DeleteStreamingEndpoint(ctx context.Context, name string) error {
	return f.enter("DeleteStreamingEndpoint")
}

func (f *fakeClient) CreateLiveEvent(ctx context.Context, spec media.LiveEventSpec) (media.LiveEvent, error) {
	if err := f.enter("CreateLiveEvent"); err != nil {
		return media.LiveEvent{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e := media.LiveEvent{
		Name:        spec.Name,
		Running:     spec.AutoStart,
		IngestURLs:  []string{"rtmp://" + spec.Name + ".channel.media.azure.net:1935/live/abc"},
		PreviewURLs: []string{"https://" + spec.Name + ".preview.media.azure.net/manifest"},
	}
	f.events[spec.Name] = e
	return e, nil
}

func (f *fakeClient) GetLiveEvent(ctx context.Context, name string) (media.LiveEvent, error) {
	if err := f.enter("GetLiveEvent"); err != nil {
		return media.LiveEvent{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[name]
	if !ok {
		return media.LiveEvent{}, notFound("live event", name)
	}
	return e, nil
}

func (f *fakeClient) StopLiveEvent(ctx context.Context, name string, removeOutputs bool) error {
	if err := f.enter("StopLiveEvent"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.events[name]
	e.Running = false
	f.events[name] = e
	if removeOutputs {
		for key, o := range f.outputs {
			if o.LiveEvent == name {
				delete(f.outputs, key)
			}
		}
	}
	return nil
}

func (f *fakeClient) DeleteLiveEvent(ctx context.Context, name string) error {
	if err := f.enter("DeleteLiveEvent"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, name)
	return nil
}

func (f *fakeClient) CreateLiveOutput(ctx context.Context, o media.LiveOutput) (media.LiveOutput, error) {
	if err := f.enter("CreateLiveOutput"); err != nil {
		return media.LiveOutput{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[o.Name] = o
	return o, nil
}

// fakeBlobs records uploads and serves fixed blobs for downloads.
type fakeBlobs struct {
	mu       sync.Mutex
	uploaded []string
	blobs    map[string]string
}

func (b *fakeBlobs) UploadFile(ctx context.Context, sasURL, localPath string) error {
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploaded = append(b.uploaded, sasURL+"|"+filepath.Base(localPath))
	return nil
}

func (b *fakeBlobs) Each(ctx context.Context, sasURL string, fn func(name string, r io.Reader) error) error {
	names := make([]string, 0, len(b.blobs))
	for name := range b.blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := fn(name, strings.NewReader(b.blobs[name])); err != nil {
			return err
		}
	}
	return nil
}

// countingPrompter records every pause.
type countingPrompter struct {
	messages []string
}

func (p *countingPrompter) Pause(ctx context.Context, message string) error {
	p.messages = append(p.messages, message)
	return nil
}
