package auth

import (
	"context"
	"fmt"
	"log"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"classhub/pkg/interfaces"
	"classhub/pkg/types"
)

// Claims is the credential payload minted by the external token issuer. The
// user id travels in the registered subject claim; 'jti' is used for the
// revocation list.
type Claims struct {
	DisplayName string `json:"name"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier validates bearer credentials
// ARCHITECTURAL DISCOVERY: The session server only verifies and trusts the
// credential; issuing policy belongs to the external issuer. Role comes from
// the verified claims and nowhere else.
type JWTVerifier struct {
	secret            []byte
	redisClient       *redis.Client
	revocationListKey string
}

// NewJWTVerifier creates a verifier for HMAC-signed credentials. redisClient
// may be nil, in which case revocation checking is skipped.
func NewJWTVerifier(secret string, redisClient *redis.Client, revocationListKey string) *JWTVerifier {
	return &JWTVerifier{
		secret:            []byte(secret),
		redisClient:       redisClient,
		revocationListKey: revocationListKey,
	}
}

// Verify parses and validates a credential, returning the embedded identity.
// All failure modes fold into interfaces.ErrInvalidCredential so admission
// has a single refusal path.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*interfaces.Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		// Covers signature failures, malformed tokens and expiry.
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidCredential, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, interfaces.ErrInvalidCredential
	}

	if claims.Subject == "" || !types.IsValidUserID(claims.Subject) {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidCredential, ErrMissingSubject)
	}
	if !types.IsValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidCredential, ErrUnknownRole)
	}

	revoked, err := v.isRevoked(ctx, claims.ID)
	if err != nil {
		// Fail open: a revocation-store outage must not lock every classroom.
		log.Printf("Failed to check credential revocation status: %v", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidCredential, ErrRevokedCredential)
	}

	return &interfaces.Identity{
		UserID:      claims.Subject,
		DisplayName: claims.DisplayName,
		Role:        claims.Role,
	}, nil
}

// isRevoked checks the token id against the Redis revocation list.
func (v *JWTVerifier) isRevoked(ctx context.Context, jti string) (bool, error) {
	if v.redisClient == nil || jti == "" {
		return false, nil
	}

	key := fmt.Sprintf("%s:%s", v.revocationListKey, jti)
	exists, err := v.redisClient.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis command failed: %w", err)
	}
	return exists == 1, nil
}
