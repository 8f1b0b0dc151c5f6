// Package auth issues and verifies JWT access and refresh tokens and manages account passwords
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access and refresh tokens
type TokenType string

// token types
const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// ErrInvalidToken is returned for malformed, expired or badly signed tokens
var ErrInvalidToken = errors.New("token is invalid or expired")

// ErrWrongTokenType is returned when a refresh token is used as access token and vice versa
var ErrWrongTokenType = errors.New("wrong token type")

// Claims of issued tokens
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// UserID returns numeric user id from the subject
func (c Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject %q: %w", c.Subject, ErrInvalidToken)
	}
	return id, nil
}

// Pair is an access and refresh token issued together
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Tokens signs and parses HS256 tokens
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

// NewTokens makes Tokens with the given secret and lifetimes, zero TTLs fall back to 1h and 7 days
func NewTokens(secret, issuer string, accessTTL, refreshTTL time.Duration) *Tokens {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), issuer: issuer, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// Issue makes a new access and refresh pair for the user
func (t *Tokens) Issue(userID int64) (Pair, error) {
	access, err := t.sign(userID, AccessToken, t.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := t.sign(userID, RefreshToken, t.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Access makes a new access token for the user
func (t *Tokens) Access(userID int64) (string, error) {
	return t.sign(userID, AccessToken, t.accessTTL)
}

// Parse verifies signature, expiration and type of the token and returns its claims
func (t *Tokens) Parse(token string, typ TokenType) (Claims, error) {
	claims := Claims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return Claims{}, fmt.Errorf("%w: missing token id", ErrInvalidToken)
	}
	if claims.TokenType != typ {
		return Claims{}, fmt.Errorf("%w: expected %s, got %q", ErrWrongTokenType, typ, claims.TokenType)
	}
	return claims, nil
}

func (t *Tokens) sign(userID int64, typ TokenType, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: typ,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return token, nil
}
