package ams

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/mediaservices/armmediaservices/v3"

	"amsflow/media"
)

const (
	odataClearKeyConfiguration = "#Microsoft.Media.ContentKeyPolicyClearKeyConfiguration"
	odataTokenRestriction      = "#Microsoft.Media.ContentKeyPolicyTokenRestriction"
	odataSymmetricTokenKey     = "#Microsoft.Media.ContentKeyPolicySymmetricTokenKey"
)

func toPolicy(p armmediaservices.ContentKeyPolicy) media.ContentKeyPolicy {
	out := media.ContentKeyPolicy{Name: deref(p.Name)}
	if p.Properties == nil {
		return out
	}
	for _, opt := range p.Properties.Options {
		if opt == nil {
			continue
		}
		restriction, ok := opt.Restriction.(*armmediaservices.ContentKeyPolicyTokenRestriction)
		if !ok {
			continue
		}
		out.Issuer = deref(restriction.Issuer)
		out.Audience = deref(restriction.Audience)
		if key, ok := restriction.PrimaryVerificationKey.(*armmediaservices.ContentKeyPolicySymmetricTokenKey); ok {
			out.SigningKey = key.KeyValue
		}
		for _, claim := range restriction.RequiredClaims {
			if claim != nil && claim.ClaimType != nil {
				out.ClaimType = *claim.ClaimType
				break
			}
		}
		break
	}
	return out
}

func (c *Client) GetContentKeyPolicy(ctx context.Context, name string) (media.ContentKeyPolicy, error) {
	resp, err := c.policies.Get(ctx, c.rg(), c.name(), name, nil)
	if err != nil {
		return media.ContentKeyPolicy{}, mapError("get content key policy", name, err)
	}
	return toPolicy(resp.ContentKeyPolicy), nil
}

// CreateOrUpdateContentKeyPolicy writes a single clear key option restricted
// by a JWT signed with p.SigningKey that must carry p.ClaimType.
func (c *Client) CreateOrUpdateContentKeyPolicy(ctx context.Context, p media.ContentKeyPolicy) (media.ContentKeyPolicy, error) {
	restriction := &armmediaservices.ContentKeyPolicyTokenRestriction{
		ODataType: to.Ptr(odataTokenRestriction),
		Issuer:    to.Ptr(p.Issuer),
		Audience:  to.Ptr(p.Audience),
		PrimaryVerificationKey: &armmediaservices.ContentKeyPolicySymmetricTokenKey{
			ODataType: to.Ptr(odataSymmetricTokenKey),
			KeyValue:  p.SigningKey,
		},
		RestrictionTokenType: to.Ptr(armmediaservices.ContentKeyPolicyRestrictionTokenTypeJwt),
		RequiredClaims: []*armmediaservices.ContentKeyPolicyTokenClaim{
			{ClaimType: to.Ptr(p.ClaimType)},
		},
	}

	params := armmediaservices.ContentKeyPolicy{
		Properties: &armmediaservices.ContentKeyPolicyProperties{
			Options: []*armmediaservices.ContentKeyPolicyOption{{
				Configuration: &armmediaservices.ContentKeyPolicyClearKeyConfiguration{
					ODataType: to.Ptr(odataClearKeyConfiguration),
				},
				Restriction: restriction,
			}},
		},
	}
	resp, err := c.policies.CreateOrUpdate(ctx, c.rg(), c.name(), p.Name, params, nil)
	if err != nil {
		return media.ContentKeyPolicy{}, mapError("create content key policy", p.Name, err)
	}
	return toPolicy(resp.ContentKeyPolicy), nil
}

func (c *Client) DeleteContentKeyPolicy(ctx context.Context, name string) error {
	_, err := c.policies.Delete(ctx, c.rg(), c.name(), name, nil)
	return mapError("delete content key policy", name, err)
}
