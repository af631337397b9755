package ams

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/mediaservices/armmediaservices/v3"

	"amsflow/media"
)

const (
	odataJobInputAsset  = "#Microsoft.Media.JobInputAsset"
	odataJobOutputAsset = "#Microsoft.Media.JobOutputAsset"
)

func toJob(transform string, j armmediaservices.Job) media.Job {
	out := media.Job{Name: deref(j.Name), Transform: transform}
	if j.Properties == nil {
		return out
	}
	out.State = media.JobState(deref(j.Properties.State))
	if in, ok := j.Properties.Input.(*armmediaservices.JobInputAsset); ok {
		out.InputAsset = deref(in.AssetName)
	}
	for _, o := range j.Properties.Outputs {
		if o == nil {
			continue
		}
		base := o.GetJobOutput()
		output := media.JobOutput{
			State:    media.JobState(deref(base.State)),
			Progress: deref(base.Progress),
		}
		if asset, ok := o.(*armmediaservices.JobOutputAsset); ok {
			output.AssetName = deref(asset.AssetName)
		}
		if base.Error != nil {
			output.Error = deref(base.Error.Message)
		}
		out.Outputs = append(out.Outputs, output)
	}
	return out
}

// SubmitJob creates a job reading req.InputAsset and writing to each of req.OutputAssets.
func (c *Client) SubmitJob(ctx context.Context, req media.JobRequest) (media.Job, error) {
	outputs := make([]armmediaservices.JobOutputClassification, 0, len(req.OutputAssets))
	for _, name := range req.OutputAssets {
		outputs = append(outputs, &armmediaservices.JobOutputAsset{
			ODataType: to.Ptr(odataJobOutputAsset),
			AssetName: to.Ptr(name),
		})
	}

	params := armmediaservices.Job{
		Properties: &armmediaservices.JobProperties{
			Input: &armmediaservices.JobInputAsset{
				ODataType: to.Ptr(odataJobInputAsset),
				AssetName: to.Ptr(req.InputAsset),
			},
			Outputs: outputs,
		},
	}
	resp, err := c.jobs.Create(ctx, c.rg(), c.name(), req.Transform, req.Name, params, nil)
	if err != nil {
		return media.Job{}, mapError("submit job", req.Name, err)
	}
	return toJob(req.Transform, resp.Job), nil
}

func (c *Client) GetJob(ctx context.Context, transform, name string) (media.Job, error) {
	resp, err := c.jobs.Get(ctx, c.rg(), c.name(), transform, name, nil)
	if err != nil {
		return media.Job{}, mapError("get job", name, err)
	}
	return toJob(transform, resp.Job), nil
}

func (c *Client) ListJobs(ctx context.Context, transform string) ([]media.Job, error) {
	var jobs []media.Job
	pager := c.jobs.NewListPager(c.rg(), c.name(), transform, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError("list jobs", transform, err)
		}
		for _, j := range page.Value {
			if j != nil {
				jobs = append(jobs, toJob(transform, *j))
			}
		}
	}
	return jobs, nil
}

func (c *Client) DeleteJob(ctx context.Context, transform, name string) error {
	_, err := c.jobs.Delete(ctx, c.rg(), c.name(), transform, name, nil)
	return mapError("delete job", name, err)
}
