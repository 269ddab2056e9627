package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/utils"
)

var testCfg = config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}

func authServer(users *memUsers, tokens *memTokens, p model.Principal) *echo.Echo {
	a := NewAuthHandler(testCfg, users, tokens)
	e := echo.New()
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	e.GET("/v1/me", a.Me, as(p))
	return e
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) authResp {
	t.Helper()
	var out authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegisterNormalisesAndIssuesTokens(t *testing.T) {
	users, tokens := newMemUsers(), newMemTokens()
	e := authServer(users, tokens, model.Principal{})

	rec := call(e, http.MethodPost, "/v1/auth/register",
		`{"email":" Ada@Example.COM ","password":"correct horse","first_name":"aDA","last_name":"lovelace"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decodeAuth(t, rec)
	assert.Equal(t, "ada@example.com", out.User.Email)
	assert.Equal(t, "Ada", out.User.FirstName)
	assert.Equal(t, "Lovelace", out.User.LastName)
	assert.False(t, out.User.IsStaff)
	assert.True(t, out.User.IsActive)

	p, err := utils.ParseAccessToken(testCfg.JWTSecret, out.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, model.Principal{ID: out.User.ID, IsActive: true}, p)
	assert.Contains(t, tokens.owner, utils.HashRefreshRaw(out.Refresh.Token))

	rec = call(e, http.MethodPost, "/v1/auth/register",
		`{"email":"ada@example.com","password":"correct horse","first_name":"Ada","last_name":"Lovelace"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	e := authServer(newMemUsers(), newMemTokens(), model.Principal{})
	for _, body := range []string{
		`{"email":"not-an-email","password":"correct horse","first_name":"Ada","last_name":"Lovelace"}`,
		`{"email":"ada@example.com","password":"short","first_name":"Ada","last_name":"Lovelace"}`,
		`{"email":"ada@example.com","password":"correct horse","first_name":"Ada2","last_name":"Lovelace"}`,
		`{"email":"ada@example.com","password":"correct horse","first_name":"Ada","last_name":""}`,
		`{"email":"ada@example.com","password":"correct horse","first_name":"Ada","last_name":"Lovelace","phone":"call me"}`,
	} {
		rec := call(e, http.MethodPost, "/v1/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("correct horse", 4)
	require.NoError(t, err)
	users := newMemUsers(
		model.User{ID: 1, Email: "ada@example.com", PasswordHash: hash, IsActive: true, IsStaff: true},
		model.User{ID: 2, Email: "gone@example.com", PasswordHash: hash},
	)
	e := authServer(users, newMemTokens(), model.Principal{})

	rec := call(e, http.MethodPost, "/v1/auth/login", `{"email":"ADA@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p, err := utils.ParseAccessToken(testCfg.JWTSecret, decodeAuth(t, rec).Access.Token)
	require.NoError(t, err)
	assert.True(t, p.IsStaff)

	rec = call(e, http.MethodPost, "/v1/auth/login", `{"email":"ada@example.com","password":"wrong horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(e, http.MethodPost, "/v1/auth/login", `{"email":"nobody@example.com","password":"correct horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(e, http.MethodPost, "/v1/auth/login", `{"email":"gone@example.com","password":"correct horse"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	users := newMemUsers(model.User{ID: 1, Email: "ada@example.com", IsActive: true})
	tokens := newMemTokens()
	e := authServer(users, tokens, model.Principal{})

	raw := "raw-refresh-token"
	tokens.owner[utils.HashRefreshRaw(raw)] = 1

	rec := call(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+raw+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	next := decodeAuth(t, rec).Refresh.Token
	assert.NotEqual(t, raw, next)

	rec = call(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+raw+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(e, http.MethodPost, "/v1/auth/refresh", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// staleTokens validates a token even after it was revoked, as a second
// request racing the first would see it.
type staleTokens struct{ *memTokens }

func (s staleTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	uid, ok := s.owner[hash]
	if !ok {
		return 0, repository.ErrTokenInvalid
	}
	return uid, nil
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	users := newMemUsers(model.User{ID: 1, Email: "ada@example.com", IsActive: true})
	tokens := newMemTokens()
	h := NewAuthHandler(testCfg, users, staleTokens{tokens})
	e := echo.New()
	e.POST("/v1/auth/refresh", h.Refresh)

	tokens.owner[utils.HashRefreshRaw("raw")] = 1
	rec := call(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"raw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	issued := len(tokens.owner)

	rec = call(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"raw"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Len(t, tokens.owner, issued)
}

func TestLogout(t *testing.T) {
	users := newMemUsers(model.User{ID: 1, Email: "ada@example.com", IsActive: true})
	tokens := newMemTokens()
	e := authServer(users, tokens, model.Principal{})
	tokens.owner[utils.HashRefreshRaw("a")] = 1
	tokens.owner[utils.HashRefreshRaw("b")] = 1

	rec := call(e, http.MethodPost, "/v1/auth/logout", `{"refresh_token":"a"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, tokens.revoked[utils.HashRefreshRaw("a")])
	assert.False(t, tokens.revoked[utils.HashRefreshRaw("b")])

	access, err := utils.NewAccessToken(testCfg.JWTSecret, model.User{ID: 1, IsActive: true}, 5)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", strings.NewReader(""))
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access.Token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, tokens.revoked[utils.HashRefreshRaw("b")])

	rec = call(e, http.MethodPost, "/v1/auth/logout", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	users := newMemUsers(model.User{ID: 1, Email: "ada@example.com", FirstName: "Ada", IsActive: true})

	rec := call(authServer(users, newMemTokens(), customer), http.MethodGet, "/v1/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = call(authServer(users, newMemTokens(), model.Principal{}), http.MethodGet, "/v1/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
