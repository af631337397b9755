package ams

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/mediaservices/armmediaservices/v3"

	"amsflow/media"
)

func endpointURLs(endpoints []*armmediaservices.LiveEventEndpoint) []string {
	var urls []string
	for _, e := range endpoints {
		if e != nil && e.URL != nil {
			urls = append(urls, *e.URL)
		}
	}
	return urls
}

func toLiveEvent(e armmediaservices.LiveEvent) media.LiveEvent {
	out := media.LiveEvent{Name: deref(e.Name)}
	if e.Properties == nil {
		return out
	}
	out.Running = deref(e.Properties.ResourceState) == armmediaservices.LiveEventResourceStateRunning
	if e.Properties.Input != nil {
		out.IngestURLs = endpointURLs(e.Properties.Input.Endpoints)
	}
	if e.Properties.Preview != nil {
		out.PreviewURLs = endpointURLs(e.Properties.Preview.Endpoints)
	}
	return out
}

// CreateLiveEvent creates a pass-through RTMP live event and waits for the
// long-running operation. With AutoStart the event is billed from creation.
func (c *Client) CreateLiveEvent(ctx context.Context, spec media.LiveEventSpec) (media.LiveEvent, error) {
	access := &armmediaservices.IPAccessControl{
		Allow: []*armmediaservices.IPRange{{
			Name:               to.Ptr("AllowAll"),
			Address:            to.Ptr(spec.AllowedAddress),
			SubnetPrefixLength: to.Ptr(spec.AllowedPrefixLength),
		}},
	}

	props := &armmediaservices.LiveEventProperties{
		Description:       to.Ptr(spec.Description),
		UseStaticHostname: to.Ptr(false),
		Encoding: &armmediaservices.LiveEventEncoding{
			EncodingType: to.Ptr(armmediaservices.LiveEventEncodingTypePassthroughStandard),
		},
		Input: &armmediaservices.LiveEventInput{
			StreamingProtocol: to.Ptr(armmediaservices.LiveEventInputProtocolRTMP),
			AccessControl:     &armmediaservices.LiveEventInputAccessControl{IP: access},
		},
		Preview: &armmediaservices.LiveEventPreview{
			AccessControl: &armmediaservices.LiveEventPreviewAccessControl{IP: access},
		},
	}
	if spec.LowLatency {
		props.StreamOptions = []*armmediaservices.StreamOptionsFlag{
			to.Ptr(armmediaservices.StreamOptionsFlagLowLatency),
		}
	}

	event := armmediaservices.LiveEvent{
		Location:   to.Ptr(spec.Location),
		Properties: props,
	}
	opts := &armmediaservices.LiveEventsClientBeginCreateOptions{AutoStart: to.Ptr(spec.AutoStart)}
	poller, err := c.liveEvents.BeginCreate(ctx, c.rg(), c.name(), spec.Name, event, opts)
	if err != nil {
		return media.LiveEvent{}, mapError("create live event", spec.Name, err)
	}
	resp, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return media.LiveEvent{}, mapError("create live event", spec.Name, err)
	}
	return toLiveEvent(resp.LiveEvent), nil
}

func (c *Client) GetLiveEvent(ctx context.Context, name string) (media.LiveEvent, error) {
	resp, err := c.liveEvents.Get(ctx, c.rg(), c.name(), name, nil)
	if err != nil {
		return media.LiveEvent{}, mapError("get live event", name, err)
	}
	return toLiveEvent(resp.LiveEvent), nil
}

func (c *Client) StopLiveEvent(ctx context.Context, name string, removeOutputs bool) error {
	input := armmediaservices.LiveEventActionInput{RemoveOutputsOnStop: to.Ptr(removeOutputs)}
	poller, err := c.liveEvents.BeginStop(ctx, c.rg(), c.name(), name, input, nil)
	if err != nil {
		return mapError("stop live event", name, err)
	}
	_, err = poller.PollUntilDone(ctx, nil)
	return mapError("stop live event", name, err)
}

func (c *Client) DeleteLiveEvent(ctx context.Context, name string) error {
	poller, err := c.liveEvents.BeginDelete(ctx, c.rg(), c.name(), name, nil)
	if err != nil {
		return mapError("delete live event", name, err)
	}
	_, err = poller.PollUntilDone(ctx, nil)
	return mapError("delete live event", name, err)
}

func (c *Client) CreateLiveOutput(ctx context.Context, o media.LiveOutput) (media.LiveOutput, error) {
	params := armmediaservices.LiveOutput{
		Properties: &armmediaservices.LiveOutputProperties{
			AssetName:           to.Ptr(o.AssetName),
			ManifestName:        to.Ptr(o.ManifestName),
			ArchiveWindowLength: to.Ptr(isoDuration(o.ArchiveWindow)),
		},
	}
	poller, err := c.liveOutput.BeginCreate(ctx, c.rg(), c.name(), o.LiveEvent, o.Name, params, nil)
	if err != nil {
		return media.LiveOutput{}, mapError("create live output", o.Name, err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return media.LiveOutput{}, mapError("create live output", o.Name, err)
	}
	return o, nil
}

// isoDuration renders d as an ISO 8601 duration such as PT10M or PT1H30M5S.
func isoDuration(d time.Duration) string {
	if d <= 0 {
		return "PT0S"
	}
	d = d.Round(time.Second)
	h := int64(d / time.Hour)
	m := int64((d % time.Hour) / time.Minute)
	s := int64((d % time.Minute) / time.Second)

	out := "PT"
	if h > 0 {
		out += fmt.Sprintf("%dH", h)
	}
	if m > 0 {
		out += fmt.Sprintf("%dM", m)
	}
	if s > 0 {
		out += fmt.Sprintf("%dS", s)
	}
	return out
}
