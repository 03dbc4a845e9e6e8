// Package auth implements the relay's trust boundary: bearer tokens issued by
// the identity service (IDS) and signed with a shared HMAC secret.
//
// Verification is purely local - the relay never contacts IDS. A token is
// accepted iff it is well-formed, HS256-signed with the shared secret, not
// expired, and carries a non-empty subject. The subject is the caller's
// opaque user id and is the only identity the relay acts on.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer is the issuer claim stamped on tokens minted by MintToken.
// Tokens from the real IDS carry their own issuer; the relay does not check
// it - the signature over the shared secret is the trust anchor.
const TokenIssuer = "ids"

// Verifier validates bearer tokens against the shared signing secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier. Secret length is enforced at config load,
// not here.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// ValidateToken parses and validates a bearer token and returns the subject
// (the caller's opaque user id).
func (v *Verifier) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", errors.New("invalid token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if subject == "" {
		return "", errors.New("token has no subject")
	}

	return subject, nil
}

// MintToken creates a token the relay will accept for userID. The real tokens
// come from IDS; this is for relayctl and tests, which share the secret.
func MintToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    TokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
