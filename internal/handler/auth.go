package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/apperr"
	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/policy"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/utils"
)

// UserStore is the account persistence used by the auth and user handlers.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id uint64) error
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler serves registration, login and the refresh token lifecycle.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	if u == nil || t == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupReq struct {
	credentials
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     *string `json:"phone"`
}

type tokenReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (r tokenReq) raw() string { return strings.TrimSpace(r.RefreshToken) }

type issuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type authResp struct {
	User    userResponse `json:"user"`
	Access  issuedToken  `json:"access"`
	Refresh issuedToken  `json:"refresh"`
}

// reject answers 401 with the given message.
func reject(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg, "code": codeUnauthorized})
}

// Register creates an account and returns a token pair immediately. New
// accounts are active and never staff.
func (h *AuthHandler) Register(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	email := repository.NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return respondError(c, apperr.Validation("a valid email is required"))
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return respondError(c, apperr.Validation("%s", err.Error()))
	}
	first, err := normalizeName("first_name", req.FirstName)
	if err != nil {
		return respondError(c, err)
	}
	last, err := normalizeName("last_name", req.LastName)
	if err != nil {
		return respondError(c, err)
	}
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return respondError(c, err)
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u := model.User{
		Email:        email,
		Phone:        phone,
		FirstName:    first,
		LastName:     last,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := h.Users.Create(ctx, &u); err != nil {
		return respondError(c, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	email := repository.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return respondError(c, apperr.Validation("email and password are required"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return reject(c, "invalid credentials")
		}
		return respondError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return reject(c, "invalid credentials")
	}
	if !u.IsActive {
		return respondError(c, policy.ErrInactive)
	}
	resp, err := h.issue(ctx, *u)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil || req.raw() == "" {
		return respondError(c, apperr.Validation("refresh_token is required"))
	}
	hash := utils.HashRefreshRaw(req.raw())

	ctx, cancel := requestContext(c)
	defer cancel()

	owner, err := h.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrTokenInvalid) {
		return reject(c, "invalid refresh token")
	} else if err != nil {
		return respondError(c, err)
	}
	u, err := h.Users.GetByID(ctx, owner)
	if errors.Is(err, repository.ErrUserNotFound) {
		return reject(c, "invalid refresh token")
	} else if err != nil {
		return respondError(c, err)
	}
	if !u.IsActive {
		return respondError(c, policy.ErrInactive)
	}
	// Revoking is the single-use gate: a concurrent refresh with the same
	// token loses here.
	if err := h.Tokens.RevokeByHash(ctx, hash); errors.Is(err, repository.ErrTokenInvalid) {
		return reject(c, "invalid refresh token")
	} else if err != nil {
		return respondError(c, err)
	}
	resp, err := h.issue(ctx, *u)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer when no body token is given.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req tokenReq
	_ = c.Bind(&req)

	ctx, cancel := requestContext(c)
	defer cancel()

	if raw := req.raw(); raw != "" {
		hash := utils.HashRefreshRaw(raw)
		_, err := h.Tokens.ValidateRefresh(ctx, hash)
		if err == nil {
			err = h.Tokens.RevokeByHash(ctx, hash)
		}
		if errors.Is(err, repository.ErrTokenInvalid) {
			return reject(c, "invalid refresh token")
		} else if err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	bearer, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !ok {
		return respondError(c, apperr.Validation("provide Authorization header or refresh_token"))
	}
	p, err := utils.ParseAccessToken(h.Cfg.JWTSecret, bearer)
	if err != nil {
		return unauthorized(c)
	}
	if err := h.Tokens.RevokeAllForUser(ctx, p.ID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the account of the authenticated caller.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, p.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(*u))
}

func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    toUserResponse(u),
		Access:  issuedToken{Token: access.Token, ExpiresAt: access.Exp},
		Refresh: issuedToken{Token: refresh.Raw, ExpiresAt: refresh.Exp},
	}, nil
}
