// Package ams implements media.Client on the Azure Resource Manager
// Media Services SDK.
package ams

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/mediaservices/armmediaservices/v3"

	"amsflow/media"
)

// Account identifies the Media Services account every call is scoped to.
type Account struct {
	SubscriptionID    string
	ResourceGroupName string
	AccountName       string
}

// Client talks to one Media Services account.
type Client struct {
	account Account

	accounts   *armmediaservices.Client
	assets     *armmediaservices.AssetsClient
	transforms *armmediaservices.TransformsClient
	jobs       *armmediaservices.JobsClient
	policies   *armmediaservices.ContentKeyPoliciesClient
	locators   *armmediaservices.StreamingLocatorsClient
	endpoints  *armmediaservices.StreamingEndpointsClient
	liveEvents *armmediaservices.LiveEventsClient
	liveOutput *armmediaservices.LiveOutputsClient
}

var _ media.Client = (*Client)(nil)

// New builds the per-resource SDK clients for account.
func New(account Account, cred azcore.TokenCredential, opts *arm.ClientOptions) (*Client, error) {
	if account.SubscriptionID == "" || account.ResourceGroupName == "" || account.AccountName == "" {
		return nil, errors.New("subscription, resource group and account name are required")
	}

	c := &Client{account: account}
	var err error
	sub := account.SubscriptionID

	if c.accounts, err = armmediaservices.NewClient(sub, cred, opts); err != nil {
		return nil, fmt.Errorf("failed to create media services client: %w", err)
	}
	if c.assets, err = armmediaservices.NewAssetsClient(sub, cred, opts); err != nil {
		return nil, fmt.Errorf("failed to create assets client: %w", err)
	}
	if c.transforms, err = armmediaservices.NewTransformsClient(sub, cred, opts); err != nil {
		return nil, fmt.Errorf("failed to create transforms client: %w", err)
	}
	if c.jobs, err = armmediaservices.NewJobsClient(sub, cred, opts); err != nil {
		return nil, fmt.Errorf("failed to create jobs client: %w", err)
	}
	if c.policies, err = armmediaservices.NewContentKeyPoliciesClient(sub, cred, opts); err != nil {
		return nil, fmt.Errorf("failed to create content key policies client: %w", err)
	}
	if c.locators, err = armmediaservices.NewStreamingLocatorsClient(sub, cred, opts); err != nil {
		return nil, fmt.Errorf("failed to create streaming locators client: %w", err)
	}
	if c.endpoints, err = armmediaservices.NewStreamingEndpointsClient(sub, cred, opts); err != nil {
		return nil, fmt.Errorf("failed to create streaming endpoints client: %w", err)
	}
	if c.liveEvents, err = armmediaservices.NewLiveEventsClient(sub, cred, opts); err != nil {
		return nil, fmt.Errorf("failed to create live events client: %w", err)
	}
	if c.liveOutput, err = armmediaservices.NewLiveOutputsClient(sub, cred, opts); err != nil {
		return nil, fmt.Errorf("failed to create live outputs client: %w", err)
	}
	return c, nil
}

func (c *Client) rg() string   { return c.account.ResourceGroupName }
func (c *Client) name() string { return c.account.AccountName }

// mapError turns a 404 from the service into media.ErrNotFound and wraps everything else.
func mapError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", op, name, media.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, name, err)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
