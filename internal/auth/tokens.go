package auth

import (
	"encoding/json"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/listenupapp/catalog-server/internal/domain"
	domainerrors "github.com/listenupapp/catalog-server/internal/errors"
)

const (
	tokenIssuer   = "catalog-server"
	tokenAudience = "catalog-client"

	// PASETO v4 symmetric key requirement.
	keyBytesSize = 32
)

// TokenService issues and verifies PASETO v4.local identity tokens.
// It is immutable after construction and safe for concurrent use.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	ttl          time.Duration
}

// NewTokenService creates a token service from a 32 byte key.
// A zero ttl issues tokens without an expiry claim.
func NewTokenService(key []byte, ttl time.Duration) (*TokenService, error) {
	if len(key) != keyBytesSize {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyBytesSize, len(key))
	}
	if ttl < 0 {
		return nil, fmt.Errorf("token ttl cannot be negative: %s", ttl)
	}
	// Expiry claims carry whole seconds.
	if ttl > 0 && ttl < time.Second {
		return nil, fmt.Errorf("token ttl must be 0 or at least 1s, got %s", ttl)
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey: symmetricKey,
		ttl:          ttl,
	}, nil
}

// Issue encrypts a fresh token for identity. Every call yields a distinct token.
func (s *TokenService) Issue(identity domain.Identity) (string, error) {
	if identity.ID == "" || identity.Username == "" {
		return "", fmt.Errorf("identity requires id and username")
	}

	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(identity.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	if s.ttl > 0 {
		token.SetExpiration(now.Add(s.ttl))
	}
	token.SetJti(uuid.NewString())

	token.SetString("user_id", identity.ID)
	token.SetString("username", identity.Username)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts tokenString and returns the identity it carries.
// Any failure (wrong key, tampering, wrong issuer or audience, expiry) is an InvalidToken error.
func (s *TokenService) Verify(tokenString string) (domain.Identity, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return domain.Identity{}, domainerrors.InvalidToken("invalid token").WithCause(err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return domain.Identity{}, domainerrors.InvalidToken("malformed token claims").WithCause(err)
	}

	if !claims.Expiration.IsZero() && time.Now().After(claims.Expiration) {
		return domain.Identity{}, domainerrors.InvalidToken("token expired")
	}

	if claims.UserID == "" || claims.Username == "" || claims.UserID != claims.Subject {
		return domain.Identity{}, domainerrors.InvalidToken("token is missing identity claims")
	}

	return domain.Identity{ID: claims.UserID, Username: claims.Username}, nil
}
