package ams

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/mediaservices/armmediaservices/v3"

	"amsflow/media"
)

func toLocator(l armmediaservices.StreamingLocator) media.StreamingLocator {
	out := media.StreamingLocator{Name: deref(l.Name)}
	if l.Properties != nil {
		out.AssetName = deref(l.Properties.AssetName)
		out.StreamingPolicy = deref(l.Properties.StreamingPolicyName)
		out.ContentKeyPolicy = deref(l.Properties.DefaultContentKeyPolicyName)
	}
	return out
}

func (c *Client) CreateStreamingLocator(ctx context.Context, l media.StreamingLocator) (media.StreamingLocator, error) {
	props := &armmediaservices.StreamingLocatorProperties{
		AssetName:           to.Ptr(l.AssetName),
		StreamingPolicyName: to.Ptr(l.StreamingPolicy),
	}
	if l.ContentKeyPolicy != "" {
		props.DefaultContentKeyPolicyName = to.Ptr(l.ContentKeyPolicy)
	}
	resp, err := c.locators.Create(ctx, c.rg(), c.name(), l.Name, armmediaservices.StreamingLocator{Properties: props}, nil)
	if err != nil {
		return media.StreamingLocator{}, mapError("create streaming locator", l.Name, err)
	}
	return toLocator(resp.StreamingLocator), nil
}

func (c *Client) ListStreamingLocators(ctx context.Context) ([]media.StreamingLocator, error) {
	var locators []media.StreamingLocator
	pager := c.locators.NewListPager(c.rg(), c.name(), nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError("list streaming locators", c.name(), err)
		}
		for _, l := range page.Value {
			if l != nil {
				locators = append(locators, toLocator(*l))
			}
		}
	}
	return locators, nil
}

// StreamingLocatorKeyIDs returns the content key IDs the service generated for the locator.
func (c *Client) StreamingLocatorKeyIDs(ctx context.Context, name string) ([]string, error) {
	resp, err := c.locators.ListContentKeys(ctx, c.rg(), c.name(), name, nil)
	if err != nil {
		return nil, mapError("list content keys", name, err)
	}
	ids := make([]string, 0, len(resp.ContentKeys))
	for _, k := range resp.ContentKeys {
		if k != nil && k.ID != nil {
			ids = append(ids, *k.ID)
		}
	}
	return ids, nil
}

func (c *Client) StreamingLocatorPaths(ctx context.Context, name string) ([]media.StreamingPath, error) {
	resp, err := c.locators.ListPaths(ctx, c.rg(), c.name(), name, nil)
	if err != nil {
		return nil, mapError("list paths", name, err)
	}
	paths := make([]media.StreamingPath, 0, len(resp.StreamingPaths))
	for _, p := range resp.StreamingPaths {
		if p == nil {
			continue
		}
		sp := media.StreamingPath{
			Protocol:         string(deref(p.StreamingProtocol)),
			EncryptionScheme: string(deref(p.EncryptionScheme)),
		}
		for _, path := range p.Paths {
			if path != nil {
				sp.Paths = append(sp.Paths, *path)
			}
		}
		paths = append(paths, sp)
	}
	return paths, nil
}

func (c *Client) DeleteStreamingLocator(ctx context.Context, name string) error {
	_, err := c.locators.Delete(ctx, c.rg(), c.name(), name, nil)
	return mapError("delete streaming locator", name, err)
}

func (c *Client) GetStreamingEndpoint(ctx context.Context, name string) (media.StreamingEndpoint, error) {
	resp, err := c.endpoints.Get(ctx, c.rg(), c.name(), name, nil)
	if err != nil {
		return media.StreamingEndpoint{}, mapError("get streaming endpoint", name, err)
	}
	out := media.StreamingEndpoint{Name: deref(resp.Name)}
	if resp.Properties != nil {
		out.HostName = deref(resp.Properties.HostName)
		out.Running = deref(resp.Properties.ResourceState) == armmediaservices.StreamingEndpointResourceStateRunning
	}
	return out, nil
}

// StartStreamingEndpoint blocks until the long-running start operation completes.
func (c *Client) StartStreamingEndpoint(ctx context.Context, name string) error {
	poller, err := c.endpoints.BeginStart(ctx, c.rg(), c.name(), name, nil)
	if err != nil {
		return mapError("start streaming endpoint", name, err)
	}
	_, err = poller.PollUntilDone(ctx, nil)
	return mapError("start streaming endpoint", name, err)
}

func (c *Client) StopStreamingEndpoint(ctx context.Context, name string) error {
	poller, err := c.endpoints.BeginStop(ctx, c.rg(), c.name(), name, nil)
	if err != nil {
		return mapError("stop streaming endpoint", name, err)
	}
	_, err = poller.PollUntilDone(ctx, nil)
	return mapError("stop streaming endpoint", name, err)
}

func (c *Client) DeleteStreamingEndpoint(ctx context.Context, name string) error {
	poller, err := c.endpoints.BeginDelete(ctx, c.rg(), c.name(), name, nil)
	if err != nil {
		return mapError("delete streaming endpoint", name, err)
	}
	_, err = poller.PollUntilDone(ctx, nil)
	return mapError("delete streaming endpoint", name, err)
}
