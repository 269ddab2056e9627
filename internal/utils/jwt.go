// Package utils issues and verifies the tokens handed to clients and hashes
// passwords.
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// AccessToken is a signed HS256 JWT and its expiry (UTC).
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is the opaque value returned to the client. The database
// keeps HashRefreshRaw(Raw) only.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

const refreshBytes = 48

// Claims carried by access tokens. Subject holds the user id; Staff and
// Active mirror the account flags at issue time.
type Claims struct {
	Staff  bool `json:"staff"`
	Active bool `json:"active"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT for a user.
func NewAccessToken(secret string, u model.User, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := Claims{
		Staff:  u.IsStaff,
		Active: u.IsActive,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(u.ID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw and returns the principal it names. Only
// HMAC signatures are accepted.
func ParseAccessToken(secret, raw string) (model.Principal, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return model.Principal{}, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return model.Principal{}, ErrInvalidToken
	}
	return model.Principal{ID: id, IsStaff: claims.Staff, IsActive: claims.Active}, nil
}

// NewRefreshToken draws refreshBytes of crypto/rand, hex encoded.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	var b [refreshBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return RefreshToken{}, err
	}
	exp := time.Now().UTC().AddDate(0, 0, ttlDays)
	return RefreshToken{Raw: hex.EncodeToString(b[:]), Exp: exp}, nil
}

// HashRefreshRaw is the lookup key of a refresh token.
func HashRefreshRaw(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}
