package ams

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/mediaservices/armmediaservices/v3"

	"amsflow/media"
)

func toAsset(a armmediaservices.Asset) media.Asset {
	out := media.Asset{Name: deref(a.Name)}
	if a.Properties != nil {
		out.Container = deref(a.Properties.Container)
		out.StorageAccount = deref(a.Properties.StorageAccountName)
	}
	return out
}

// AccountLocation returns the Azure region of the Media Services account.
func (c *Client) AccountLocation(ctx context.Context) (string, error) {
	resp, err := c.accounts.Get(ctx, c.rg(), c.name(), nil)
	if err != nil {
		return "", mapError("get account", c.name(), err)
	}
	return deref(resp.Location), nil
}

// CreateOrUpdateAsset creates the asset (and its storage container) if needed.
func (c *Client) CreateOrUpdateAsset(ctx context.Context, name string) (media.Asset, error) {
	resp, err := c.assets.CreateOrUpdate(ctx, c.rg(), c.name(), name, armmediaservices.Asset{}, nil)
	if err != nil {
		return media.Asset{}, mapError("create asset", name, err)
	}
	return toAsset(resp.Asset), nil
}

func (c *Client) GetAsset(ctx context.Context, name string) (media.Asset, error) {
	resp, err := c.assets.Get(ctx, c.rg(), c.name(), name, nil)
	if err != nil {
		return media.Asset{}, mapError("get asset", name, err)
	}
	return toAsset(resp.Asset), nil
}

func (c *Client) ListAssets(ctx context.Context) ([]media.Asset, error) {
	var assets []media.Asset
	pager := c.assets.NewListPager(c.rg(), c.name(), nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError("list assets", c.name(), err)
		}
		for _, a := range page.Value {
			if a != nil {
				assets = append(assets, toAsset(*a))
			}
		}
	}
	return assets, nil
}

func (c *Client) DeleteAsset(ctx context.Context, name string) error {
	_, err := c.assets.Delete(ctx, c.rg(), c.name(), name, nil)
	return mapError("delete asset", name, err)
}

// ContainerSASURL returns the first SAS URL the service issues for the asset container.
func (c *Client) ContainerSASURL(ctx context.Context, asset string, perm media.ContainerPermission, expiry time.Time) (string, error) {
	var permission armmediaservices.AssetContainerPermission
	switch perm {
	case media.PermissionRead:
		permission = armmediaservices.AssetContainerPermissionRead
	case media.PermissionReadWrite:
		permission = armmediaservices.AssetContainerPermissionReadWrite
	default:
		return "", fmt.Errorf("unsupported container permission %q", perm)
	}

	input := armmediaservices.ListContainerSasInput{
		ExpiryTime:  to.Ptr(expiry.UTC()),
		Permissions: to.Ptr(permission),
	}
	resp, err := c.assets.ListContainerSas(ctx, c.rg(), c.name(), asset, input, nil)
	if err != nil {
		return "", mapError("list container sas", asset, err)
	}
	for _, u := range resp.AssetContainerSasUrls {
		if u != nil && *u != "" {
			return *u, nil
		}
	}
	return "", fmt.Errorf("list container sas %s: %w", asset, errors.New("service returned no SAS URLs"))
}
