package helpers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const refreshTokenBytes = 32

// JWTManager issues HS256 access tokens and opaque refresh tokens.
type JWTManager struct {
	secret     []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the clock used for issuance and expiry; defaults to time.Now.
	Now func() time.Time
}

func NewJWTManager(secret, issuer, audience string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		Issuer:     issuer,
		Audience:   audience,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Now:        time.Now,
	}
}

// TokenSubject is the identity embedded into an access token.
type TokenSubject struct {
	UserID string
	Email  string
	Name   string
	Roles  []string
}

type Claims struct {
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func (m *JWTManager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// GenerateAccessToken signs a short-lived token for s and returns it with its expiry.
func (m *JWTManager) GenerateAccessToken(s TokenSubject) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.AccessTTL)
	claims := &Claims{
		Email: s.Email,
		Name:  s.Name,
		Roles: slices.Clone(s.Roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			Issuer:    m.Issuer,
			Audience:  jwt.ClaimStrings{m.Audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	str, err := t.SignedString(m.secret)
	return str, exp, err
}

// GenerateRefreshToken returns 256 bits of randomness, base64 encoded.
// The value carries no claims and is only meaningful against the user store.
func (m *JWTManager) GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// RefreshTokenExpiry is the expiry for a refresh token issued now.
func (m *JWTManager) RefreshTokenExpiry() time.Time {
	return m.now().Add(m.RefreshTTL)
}

// ParseAccessToken fully validates an access token, expiry included.
func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.Issuer),
		jwt.WithAudience(m.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SubjectFromExpiredToken returns the subject of a token whose signature,
// algorithm, issuer and audience check out, ignoring its expiry. Only the
// refresh flow may use it. Any failure yields ok == false.
func (m *JWTManager) SubjectFromExpiredToken(tokenStr string) (string, bool) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || tkn == nil || !tkn.Valid {
		return "", false
	}
	if claims.Issuer != m.Issuer || !slices.Contains(claims.Audience, m.Audience) {
		return "", false
	}
	if claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return m.secret, nil
}
