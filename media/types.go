package media

import (
	"errors"
	"time"
)

// ErrNotFound is returned by every Get when the remote resource does not exist.
var ErrNotFound = errors.New("resource not found")

// Predefined streaming policies used by the workflows.
const (
	PolicyClearKey           = "Predefined_ClearKey"
	PolicyClearStreamingOnly = "Predefined_ClearStreamingOnly"
)

// DefaultStreamingEndpoint is the endpoint every Media Services account is created with.
const DefaultStreamingEndpoint = "default"

// Asset is a storage container tracked by the media service.
type Asset struct {
	Name           string
	Container      string
	StorageAccount string
}

// PresetKind selects the recipe a Transform applies.
type PresetKind string

const (
	PresetVideoAnalyzer  PresetKind = "VideoAnalyzer"
	PresetAudioAnalyzer  PresetKind = "AudioAnalyzer"
	PresetBuiltInEncoder PresetKind = "BuiltInStandardEncoder"
)

// Preset describes one transform output. AudioLanguage applies to the analyzer
// presets, EncoderPreset to the built-in encoder (e.g. "AdaptiveStreaming").
type Preset struct {
	Kind          PresetKind
	AudioLanguage string
	EncoderPreset string
}

// Transform is a reusable processing recipe.
type Transform struct {
	Name    string
	Presets []Preset
}

// JobState mirrors the service job lifecycle.
type JobState string

const (
	JobQueued     JobState = "Queued"
	JobScheduled  JobState = "Scheduled"
	JobProcessing JobState = "Processing"
	JobFinished   JobState = "Finished"
	JobError      JobState = "Error"
	JobCanceling  JobState = "Canceling"
	JobCanceled   JobState = "Canceled"
)

// Terminal reports whether a job in this state will never change again.
func (s JobState) Terminal() bool {
	return s == JobFinished || s == JobError || s == JobCanceled
}

// JobOutput is the per-output progress of a job.
type JobOutput struct {
	AssetName string
	State     JobState
	Progress  int32
	Error     string
}

// Job is one execution of a Transform against an input asset.
type Job struct {
	Name       string
	Transform  string
	InputAsset string
	State      JobState
	Outputs    []JobOutput
}

// JobRequest is what Submit needs to create a job.
type JobRequest struct {
	Name         string
	Transform    string
	InputAsset   string
	OutputAssets []string
}

// ContentKeyPolicy is a token-restricted clear key delivery policy.
type ContentKeyPolicy struct {
	Name       string
	Issuer     string
	Audience   string
	SigningKey []byte
	// ClaimType names the claim whose value must be the content key identifier.
	ClaimType string
}

// StreamingLocator binds an asset to a streaming policy.
type StreamingLocator struct {
	Name             string
	AssetName        string
	StreamingPolicy  string
	ContentKeyPolicy string
}

// StreamingPath is one protocol/encryption combination a locator can be played with.
type StreamingPath struct {
	Protocol         string
	EncryptionScheme string
	Paths            []string
}

// Streaming protocols reported in StreamingPath.Protocol.
const (
	ProtocolDash            = "Dash"
	ProtocolHLS             = "Hls"
	ProtocolSmoothStreaming = "SmoothStreaming"
	ProtocolDownload        = "Download"
)

// StreamingEndpoint serves locator paths to players.
type StreamingEndpoint struct {
	Name     string
	HostName string
	Running  bool
}

// LiveEventSpec is the desired shape of a new pass-through RTMP live event.
type LiveEventSpec struct {
	Name        string
	Location    string
	Description string
	LowLatency  bool
	AutoStart   bool
	// AllowedAddress and AllowedPrefixLength restrict both ingest and
	// preview; 0.0.0.0 with prefix 0 allows everyone.
	AllowedAddress      string
	AllowedPrefixLength int32
}

// LiveEvent is an ingest session.
type LiveEvent struct {
	Name        string
	Running     bool
	IngestURLs  []string
	PreviewURLs []string
}

// LiveOutput records a live event into an asset.
type LiveOutput struct {
	Name          string
	LiveEvent     string
	AssetName     string
	ManifestName  string
	ArchiveWindow time.Duration
}
