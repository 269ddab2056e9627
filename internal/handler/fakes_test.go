package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/middleware"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/service"
)

var (
	customer = model.Principal{ID: 1, IsActive: true}
	staff    = model.Principal{ID: 9, IsStaff: true, IsActive: true}
)

// as injects p the way JWTAuth would.
func as(p model.Principal) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p.ID != 0 {
				c.Set(middleware.PrincipalKey, p)
			}
			return next(c)
		}
	}
}

func call(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type mockReservationService struct {
	ListAvailableSeatsFunc func(ctx context.Context, showtimeID uint64) ([]model.Seat, error)
	ListReservationsFunc   func(ctx context.Context, p model.Principal, all bool) ([]model.Reservation, error)
	GetReservationFunc     func(ctx context.Context, p model.Principal, id uint64) (*model.Reservation, error)
	CreateReservationFunc  func(ctx context.Context, p model.Principal, in service.CreateReservationInput) (*model.Reservation, error)
	CancelReservationFunc  func(ctx context.Context, p model.Principal, id uint64) error
}

func (m *mockReservationService) ListAvailableSeats(ctx context.Context, showtimeID uint64) ([]model.Seat, error) {
	return m.ListAvailableSeatsFunc(ctx, showtimeID)
}

func (m *mockReservationService) ListReservations(ctx context.Context, p model.Principal, all bool) ([]model.Reservation, error) {
	return m.ListReservationsFunc(ctx, p, all)
}

func (m *mockReservationService) GetReservation(ctx context.Context, p model.Principal, id uint64) (*model.Reservation, error) {
	return m.GetReservationFunc(ctx, p, id)
}

func (m *mockReservationService) CreateReservation(ctx context.Context, p model.Principal, in service.CreateReservationInput) (*model.Reservation, error) {
	return m.CreateReservationFunc(ctx, p, in)
}

func (m *mockReservationService) CancelReservation(ctx context.Context, p model.Principal, id uint64) error {
	return m.CancelReservationFunc(ctx, p, id)
}

// memUsers is an in-memory UserStore.
type memUsers struct {
	byID   map[uint64]*model.User
	nextID uint64
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{byID: map[uint64]*model.User{}}
	for i := range users {
		u := users[i]
		m.byID[u.ID] = &u
		if u.ID > m.nextID {
			m.nextID = u.ID
		}
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.byID {
		if u.Email == repository.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(context.Context) ([]model.User, error) {
	out := []model.User{}
	for id := uint64(1); id <= m.nextID; id++ {
		if u, ok := m.byID[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, u *model.User) error {
	if _, ok := m.byID[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) Delete(_ context.Context, id uint64) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.byID, id)
	return nil
}

// memTokens is an in-memory TokenStore keyed by token hash.
type memTokens struct {
	owner   map[string]uint64
	revoked map[string]bool
}

func newMemTokens() *memTokens {
	return &memTokens{owner: map[string]uint64{}, revoked: map[string]bool{}}
}

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	m.owner[hash] = userID
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	uid, ok := m.owner[hash]
	if !ok || m.revoked[hash] {
		return 0, repository.ErrTokenInvalid
	}
	return uid, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	if _, ok := m.owner[hash]; !ok || m.revoked[hash] {
		return repository.ErrTokenInvalid
	}
	m.revoked[hash] = true
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	for h, uid := range m.owner {
		if uid == userID {
			m.revoked[h] = true
		}
	}
	return nil
}

// stubCatalog implements every catalog store with function fields; unset
// functions report not found.
type stubCatalog struct {
	genres    []model.Genre
	movies    []model.Movie
	createdST *model.Showtime
	seatCount int

	GetShowtimeFunc    func(id uint64) (*model.Showtime, error)
	ListShowingOnFunc  func(date time.Time) ([]repository.MovieSchedule, error)
	DeleteShowtimeFunc func(id uint64) error
	SeatsFunc          func(showtimeID uint64) ([]model.Seat, error)
}

type genreStub struct{ *stubCatalog }
type movieStub struct{ *stubCatalog }
type showtimeStub struct{ *stubCatalog }
type seatStub struct{ *stubCatalog }

func (s genreStub) List(context.Context) ([]model.Genre, error) { return s.genres, nil }
func (s genreStub) GetByID(_ context.Context, id uint64) (*model.Genre, error) {
	for _, g := range s.genres {
		if g.ID == id {
			return &g, nil
		}
	}
	return nil, repository.ErrGenreNotFound
}
func (s genreStub) Create(_ context.Context, g *model.Genre) error {
	g.ID = uint64(len(s.genres) + 1)
	g.Slug = strings.ToLower(strings.ReplaceAll(g.Name, " ", "-"))
	s.genres = append(s.genres, *g)
	return nil
}
func (s genreStub) Update(_ context.Context, g *model.Genre) error {
	for i := range s.genres {
		if s.genres[i].ID == g.ID {
			s.genres[i] = *g
			return nil
		}
	}
	return repository.ErrGenreNotFound
}
func (s genreStub) Delete(_ context.Context, id uint64) error     { return repository.ErrGenreNotFound }

func (s movieStub) List(context.Context) ([]model.Movie, error) { return []model.Movie{}, nil }
func (s movieStub) GetByID(_ context.Context, id uint64) (*model.Movie, error) {
	for _, m := range s.movies {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, repository.ErrMovieNotFound
}
func (s movieStub) Create(_ context.Context, m *model.Movie) error { m.ID = 1; return nil }
func (s movieStub) Update(_ context.Context, m *model.Movie) error {
	for i := range s.movies {
		if s.movies[i].ID == m.ID {
			s.movies[i] = *m
			return nil
		}
	}
	return repository.ErrMovieNotFound
}
func (s movieStub) Delete(_ context.Context, id uint64) error     { return repository.ErrInUse }
func (s movieStub) ListShowingOn(_ context.Context, date time.Time) ([]repository.MovieSchedule, error) {
	if s.ListShowingOnFunc != nil {
		return s.ListShowingOnFunc(date)
	}
	return []repository.MovieSchedule{}, nil
}

func (s showtimeStub) Create(_ context.Context, st *model.Showtime, seatCount int) error {
	st.ID = 5
	s.createdST = st
	s.seatCount = seatCount
	return nil
}
func (s showtimeStub) GetByID(_ context.Context, id uint64) (*model.Showtime, error) {
	if s.GetShowtimeFunc != nil {
		return s.GetShowtimeFunc(id)
	}
	return nil, repository.ErrShowtimeNotFound
}
func (s showtimeStub) ListByMovie(context.Context, uint64) ([]model.Showtime, error) {
	return []model.Showtime{}, nil
}
func (s showtimeStub) Delete(_ context.Context, id uint64) error {
	if s.DeleteShowtimeFunc != nil {
		return s.DeleteShowtimeFunc(id)
	}
	return nil
}

func (s seatStub) GetByID(context.Context, uint64) (*model.Seat, error) {
	return nil, repository.ErrSeatNotFound
}
func (s seatStub) ListByShowtime(_ context.Context, showtimeID uint64) ([]model.Seat, error) {
	if s.SeatsFunc != nil {
		return s.SeatsFunc(showtimeID)
	}
	return []model.Seat{}, nil
}

func newCatalog(s *stubCatalog) *CatalogHandler {
	return NewCatalogHandler(genreStub{s}, movieStub{s}, showtimeStub{s}, seatStub{s})
}
