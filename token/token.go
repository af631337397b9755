package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

const (
	// SigningKeySize matches the 40 random bytes the key delivery samples use.
	SigningKeySize = 40

	// NotBeforeSkew backdates nbf so players with slightly slow clocks accept the token.
	NotBeforeSkew = 5 * time.Minute
	// Lifetime is how long a playback token stays valid.
	Lifetime = time.Hour
)

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingClaim     = errors.New("missing content key identifier claim")
)

// NewSigningKey returns a random HMAC key for one run's content key policy.
func NewSigningKey() ([]byte, error) {
	key := make([]byte, SigningKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	return key, nil
}

// Params describes one playback token.
type Params struct {
	Issuer   string
	Audience string
	// ClaimType is the content key identifier claim name configured on the policy.
	ClaimType string
	// KeyID is the content key identifier the locator was issued with.
	KeyID string
	Key   []byte
	Now   time.Time
}

// Claims is what Verify extracts from a playback token.
type Claims struct {
	Issuer    string
	Audience  []string
	KeyID     string
	NotBefore time.Time
	Expiry    time.Time
}

// Build signs an HS256 JWT carrying iss, aud, the content key identifier
// claim, nbf = Now-5m and exp = Now+1h.
func Build(p Params) (string, error) {
	if p.ClaimType == "" || p.KeyID == "" {
		return "", ErrMissingClaim
	}
	if len(p.Key) == 0 {
		return "", errors.New("signing key is required")
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: p.Key}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}

	registered := jwt.Claims{
		Issuer:    p.Issuer,
		Audience:  jwt.Audience{p.Audience},
		NotBefore: jwt.NewNumericDate(now.Add(-NotBeforeSkew)),
		Expiry:    jwt.NewNumericDate(now.Add(Lifetime)),
	}
	custom := map[string]interface{}{p.ClaimType: p.KeyID}

	token, err := jwt.Signed(signer).Claims(registered).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to create JWT: %w", err)
	}
	return token, nil
}

// Verify checks the HS256 signature with key and returns the claims, reading
// the key identifier from claimType. Time validity is left to the caller.
func Verify(tokenString string, key []byte, claimType string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	tok, err := jwt.ParseSigned(tokenString, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var registered jwt.Claims
	custom := make(map[string]interface{})
	if err := tok.Claims(key, &registered, &custom); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	keyID, _ := custom[claimType].(string)
	if keyID == "" {
		return nil, ErrMissingClaim
	}

	claims := &Claims{
		Issuer:   registered.Issuer,
		Audience: []string(registered.Audience),
		KeyID:    keyID,
	}
	if registered.NotBefore != nil {
		claims.NotBefore = registered.NotBefore.Time()
	}
	if registered.Expiry != nil {
		claims.Expiry = registered.Expiry.Time()
	}
	return claims, nil
}
