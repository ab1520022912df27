package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA-256 hashing of token ids
	"encoding/hex"  // hex encoding of digests
	"errors"
	"strconv"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"       // random token ids
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its id and
// expiry.  Only a hash of ID is persisted server side; the token itself is
// returned to the client and sent back in the Authorization header.
type AccessToken struct {
	Token string    // the serialized JWT string
	ID    string    // the jti claim
	Exp   time.Time // the UTC expiration time
}

// Claims is what a verified access token carries.
type Claims struct {
	UserID uint64
	ID     string
	Exp    time.Time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The token
// carries the user id as subject, a random jti, the issue time and the
// expiry ttlMin minutes from now.
func NewAccessToken(secret string, userID uint64, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	jti := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	// JWT timestamps have second precision
	return AccessToken{Token: signed, ID: jti, Exp: exp.Truncate(time.Second)}, nil
}

// ParseAccessToken verifies signature, algorithm and expiry and returns
// the claims.  Any failure is reported as ErrInvalidToken.
func ParseAccessToken(secret, raw string) (Claims, error) {
	var rc jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &rc, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	uid, err := strconv.ParseUint(rc.Subject, 10, 64)
	if err != nil || uid == 0 || rc.ID == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: uid, ID: rc.ID, Exp: rc.ExpiresAt.Time}, nil
}

// HashTokenID returns the SHA-256 hex digest of a token id.  Sessions are
// stored under this digest so a leaked table cannot be replayed.
func HashTokenID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}
