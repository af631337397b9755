package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/confidential"
)

type fakeTokenClient struct {
	cached      *confidential.AuthResult
	exchangeErr error
	exchanges   int
	lastScopes  []string
}

func (f *fakeTokenClient) AcquireTokenSilent(ctx context.Context, scopes []string, opts ...confidential.AcquireSilentOption) (confidential.AuthResult, error) {
	f.lastScopes = scopes
	if f.cached == nil {
		return confidential.AuthResult{}, errors.New("no token in cache")
	}
	return *f.cached, nil
}

func (f *fakeTokenClient) AcquireTokenByCredential(ctx context.Context, scopes []string, opts ...confidential.AcquireByCredentialOption) (confidential.AuthResult, error) {
	f.exchanges++
	f.lastScopes = scopes
	if f.exchangeErr != nil {
		return confidential.AuthResult{}, f.exchangeErr
	}
	result := confidential.AuthResult{AccessToken: "fresh-token", ExpiresOn: time.Now().Add(time.Hour)}
	f.cached = &result
	return result, nil
}

func TestGetTokenExchangesThenUsesCache(t *testing.T) {
	fake := &fakeTokenClient{}
	cred := &ClientSecretCredential{client: fake}

	tok, err := cred.GetToken(context.Background(), policy.TokenRequestOptions{})
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if tok.Token != "fresh-token" {
		t.Errorf("Expected fresh-token, got %s", tok.Token)
	}
	if len(fake.lastScopes) != 1 || fake.lastScopes[0] != ManagementScope {
		t.Errorf("Expected default management scope, got %v", fake.lastScopes)
	}

	if _, err := cred.GetToken(context.Background(), policy.TokenRequestOptions{Scopes: []string{"custom/.default"}}); err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if fake.exchanges != 1 {
		t.Errorf("Expected a single credential exchange, got %d", fake.exchanges)
	}
	if fake.lastScopes[0] != "custom/.default" {
		t.Errorf("Expected caller scopes to be used, got %v", fake.lastScopes)
	}
}

func TestGetTokenExchangeError(t *testing.T) {
	fake := &fakeTokenClient{exchangeErr: errors.New("AADSTS7000215: invalid client secret")}
	cred := &ClientSecretCredential{client: fake}

	if _, err := cred.GetToken(context.Background(), policy.TokenRequestOptions{}); err == nil {
		t.Fatal("Expected error from failed exchange")
	}
}

func TestNewClientSecretCredentialValidation(t *testing.T) {
	if _, err := NewClientSecretCredential("", "tenant", "", "secret"); err == nil {
		t.Error("Expected error for missing client id")
	}
}
