// Package auth exchanges client credentials for management-plane bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/confidential"

	"amsflow/logger"
)

const (
	// DefaultAuthorityHost is the Entra ID login endpoint of the public cloud.
	DefaultAuthorityHost = "https://login.microsoftonline.com"
	// ManagementScope grants access to the Azure Resource Manager API.
	ManagementScope = "https://management.azure.com/.default"
)

// tokenClient is the part of the MSAL confidential client ClientSecretCredential uses.
type tokenClient interface {
	AcquireTokenSilent(ctx context.Context, scopes []string, opts ...confidential.AcquireSilentOption) (confidential.AuthResult, error)
	AcquireTokenByCredential(ctx context.Context, scopes []string, opts ...confidential.AcquireByCredentialOption) (confidential.AuthResult, error)
}

// ClientSecretCredential is an azcore.TokenCredential backed by an MSAL
// confidential client. MSAL caches tokens in memory and the silent call
// returns the cached token until it is close to expiry.
type ClientSecretCredential struct {
	client tokenClient
}

var _ azcore.TokenCredential = (*ClientSecretCredential)(nil)

// NewClientSecretCredential builds a credential for the app registration clientID in tenantID.
func NewClientSecretCredential(authorityHost, tenantID, clientID, secret string) (*ClientSecretCredential, error) {
	if tenantID == "" || clientID == "" || secret == "" {
		return nil, errors.New("tenant, client id and secret are required")
	}
	if authorityHost == "" {
		authorityHost = DefaultAuthorityHost
	}

	cred, err := confidential.NewCredFromSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to build client credential: %w", err)
	}
	authority := strings.TrimRight(authorityHost, "/") + "/" + tenantID
	client, err := confidential.New(authority, clientID, cred)
	if err != nil {
		return nil, fmt.Errorf("failed to create confidential client: %w", err)
	}
	return &ClientSecretCredential{client: client}, nil
}

// GetToken returns a cached token when one is valid, otherwise performs the
// client credentials exchange.
func (c *ClientSecretCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = []string{ManagementScope}
	}

	result, err := c.client.AcquireTokenSilent(ctx, scopes)
	if err != nil {
		logger.Debugf("No cached token for %v, requesting a new one", scopes)
		result, err = c.client.AcquireTokenByCredential(ctx, scopes)
		if err != nil {
			return azcore.AccessToken{}, fmt.Errorf("client credentials exchange failed: %w", err)
		}
	}
	return azcore.AccessToken{Token: result.AccessToken, ExpiresOn: result.ExpiresOn}, nil
}

// Options selects how New authenticates.
type Options struct {
	AuthorityHost string
	TenantID      string
	ClientID      string
	ClientSecret  string
}

// New returns a client secret credential when a secret is configured and
// falls back to the azidentity default chain (environment, workload identity,
// managed identity, Azure CLI) otherwise.
func New(opts Options) (azcore.TokenCredential, error) {
	if opts.ClientSecret != "" {
		logger.Debugf("Authenticating as application %s in tenant %s", opts.ClientID, opts.TenantID)
		return NewClientSecretCredential(opts.AuthorityHost, opts.TenantID, opts.ClientID, opts.ClientSecret)
	}

	logger.Info("No client secret configured, using the default Azure credential chain")
	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		TenantID: opts.TenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create default credential: %w", err)
	}
	return cred, nil
}
