package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/golang-jwt/jwt/v5"
)

// JWTTokenIssuer signs and verifies HS256 bearer tokens.
type JWTTokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewJWTTokenIssuer(secret string) *JWTTokenIssuer {
	return &JWTTokenIssuer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// WithClock replaces the time source used for iat/exp and expiry checks.
func (j *JWTTokenIssuer) WithClock(now func() time.Time) *JWTTokenIssuer {
	j.now = now
	return j
}

// Sign stamps iat and exp (iat + ttl) onto claims and signs them.
func (j *JWTTokenIssuer) Sign(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	issuedAt := j.now()
	claims.IssuedAt = jwt.NewNumericDate(issuedAt)
	claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Verify fails with internal.ErrTokenExpired when the signature is valid but
// exp has passed, and with internal.ErrInvalidToken for anything else.
func (j *JWTTokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired.WithCause(err)
		}
		return nil, internal.ErrInvalidToken.WithCause(err)
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
