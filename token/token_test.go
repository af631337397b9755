package token

import (
	"errors"
	"testing"
	"time"
)

const claimType = "urn:microsoft:azure:mediaservices:contentkeyidentifier"

func TestBuildCarriesConfiguredClaims(t *testing.T) {
	key, err := NewSigningKey()
	if err != nil {
		t.Fatalf("NewSigningKey failed: %v", err)
	}
	if len(key) != SigningKeySize {
		t.Fatalf("Expected %d byte key, got %d", SigningKeySize, len(key))
	}

	issued := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tok, err := Build(Params{
		Issuer:    "myIssuer",
		Audience:  "myAudience",
		ClaimType: claimType,
		KeyID:     "5a2b1c4d-0000-4000-8000-00000000abcd",
		Key:       key,
		Now:       issued,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	claims, err := Verify(tok, key, claimType)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Issuer != "myIssuer" {
		t.Errorf("Expected issuer myIssuer, got %s", claims.Issuer)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != "myAudience" {
		t.Errorf("Expected audience myAudience, got %v", claims.Audience)
	}
	if claims.KeyID != "5a2b1c4d-0000-4000-8000-00000000abcd" {
		t.Errorf("Unexpected key id %s", claims.KeyID)
	}
	if !claims.Expiry.Equal(issued.Add(time.Hour)) {
		t.Errorf("Expected expiry one hour after issuance, got %v", claims.Expiry)
	}
	if !claims.NotBefore.Equal(issued.Add(-5 * time.Minute)) {
		t.Errorf("Expected nbf five minutes before issuance, got %v", claims.NotBefore)
	}
}

func TestVerifyRejectsOtherKey(t *testing.T) {
	key, _ := NewSigningKey()
	other, _ := NewSigningKey()

	tok, err := Build(Params{Issuer: "i", Audience: "a", ClaimType: claimType, KeyID: "k", Key: key})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := Verify(tok, other, claimType); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Expected ErrInvalidSignature, got %v", err)
	}
}

func TestBuildRequiresClaim(t *testing.T) {
	key, _ := NewSigningKey()
	if _, err := Build(Params{Issuer: "i", Audience: "a", ClaimType: claimType, Key: key}); !errors.Is(err, ErrMissingClaim) {
		t.Errorf("Expected ErrMissingClaim, got %v", err)
	}
	if _, err := Build(Params{ClaimType: claimType, KeyID: "k"}); err == nil {
		t.Error("Expected error for missing signing key")
	}
}

func TestVerifyMalformed(t *testing.T) {
	key, _ := NewSigningKey()
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		if _, err := Verify(tok, key, claimType); err == nil {
			t.Errorf("Expected error for %q", tok)
		}
	}
}
