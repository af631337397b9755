package media

import (
	"context"
	"time"
)

// ContainerPermission scopes a container SAS URL.
type ContainerPermission string

const (
	PermissionRead      ContainerPermission = "Read"
	PermissionReadWrite ContainerPermission = "ReadWrite"
)

// Client is every Media Services management call the workflows make.
// Get methods return ErrNotFound when the resource does not exist.
type Client interface {
	AccountLocation(ctx context.Context) (string, error)

	CreateOrUpdateAsset(ctx context.Context, name string) (Asset, error)
	GetAsset(ctx context.Context, name string) (Asset, error)
	ListAssets(ctx context.Context) ([]Asset, error)
	DeleteAsset(ctx context.Context, name string) error
	ContainerSASURL(ctx context.Context, asset string, perm ContainerPermission, expiry time.Time) (string, error)

	GetTransform(ctx context.Context, name string) (Transform, error)
	CreateOrUpdateTransform(ctx context.Context, t Transform) (Transform, error)

	SubmitJob(ctx context.Context, req JobRequest) (Job, error)
	GetJob(ctx context.Context, transform, name string) (Job, error)
	ListJobs(ctx context.Context, transform string) ([]Job, error)
	DeleteJob(ctx context.Context, transform, name string) error

	GetContentKeyPolicy(ctx context.Context, name string) (ContentKeyPolicy, error)
	CreateOrUpdateContentKeyPolicy(ctx context.Context, p ContentKeyPolicy) (ContentKeyPolicy, error)
	DeleteContentKeyPolicy(ctx context.Context, name string) error

	CreateStreamingLocator(ctx context.Context, l StreamingLocator) (StreamingLocator, error)
	ListStreamingLocators(ctx context.Context) ([]StreamingLocator, error)
	StreamingLocatorKeyIDs(ctx context.Context, name string) ([]string, error)
	StreamingLocatorPaths(ctx context.Context, name string) ([]StreamingPath, error)
	DeleteStreamingLocator(ctx context.Context, name string) error

	GetStreamingEndpoint(ctx context.Context, name string) (StreamingEndpoint, error)
	StartStreamingEndpoint(ctx context.Context, name string) error
	StopStreamingEndpoint(ctx context.Context, name string) error
	DeleteStreamingEndpoint(ctx context.Context, name string) error

	CreateLiveEvent(ctx context.Context, spec LiveEventSpec) (LiveEvent, error)
	GetLiveEvent(ctx context.Context, name string) (LiveEvent, error)
	StopLiveEvent(ctx context.Context, name string, removeOutputs bool) error
	DeleteLiveEvent(ctx context.Context, name string) error

	CreateLiveOutput(ctx context.Context, o LiveOutput) (LiveOutput, error)
}
