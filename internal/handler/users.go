package handler

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/apperr"
	"github.com/iliyamo/movie-reservation/internal/policy"
)

var phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// UserHandler manages account records. Staff see every user; everyone
// else only their own record.
type UserHandler struct {
	Users UserStore
}

func NewUserHandler(u UserStore) *UserHandler {
	if u == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Users: u}
}

type updateUserReq struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     *string `json:"phone"`
}

// normalizeName requires a purely alphabetic name and capitalises it:
// first letter upper case, the rest lower case.
func normalizeName(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("%s is required", field)
	}
	if utf8.RuneCountInString(s) > 50 {
		return "", apperr.Validation("%s must be at most 50 characters", field)
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return "", apperr.Validation("%s must contain only letters", field)
		}
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:]), nil
}

// normalizePhone trims an optional phone number; empty means none.
func normalizePhone(p *string) (*string, error) {
	if p == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil, nil
	}
	if !phoneRe.MatchString(s) {
		return nil, apperr.Validation("phone must be 7 to 15 digits with an optional leading +")
	}
	return &s, nil
}

// List handles GET /v1/users (staff only).
func (h *UserHandler) List(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	if err := policy.CanListUsers(p); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Users.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := policy.CanManageUser(p, id); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(*u))
}

// Update handles PUT /v1/users/:id. Only the profile fields change;
// email, password and flags are not writable here.
func (h *UserHandler) Update(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := policy.CanManageUser(p, id); err != nil {
		return respondError(c, err)
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
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

	ctx, cancel := requestContext(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	u.FirstName, u.LastName, u.Phone = first, last, phone
	if err := h.Users.UpdateProfile(ctx, u); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(*u))
}

// Delete handles DELETE /v1/users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := policy.CanManageUser(p, id); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
