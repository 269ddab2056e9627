package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/handler"
	"github.com/iliyamo/movie-reservation/internal/middleware"
)

// Middlewares are the optional Redis backed middlewares. A nil field is
// skipped.
type Middlewares struct {
	RateLimit echo.MiddlewareFunc // token bucket per client
	Cache     echo.MiddlewareFunc // response cache for catalog reads
	Purge     echo.MiddlewareFunc // cache invalidation after catalog writes
}

func chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// protected /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, mw Middlewares) {
	g := e.Group("/v1/auth", chain(mw.RateLimit)...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh token in the body or a bearer token,
	// so it is not behind JWTAuth.
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterCatalog registers genre, movie, showtime and seat routes. Reads
// are open to any authenticated user and cached; writes require staff and
// purge the cache.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string, mw Middlewares) {
	read := e.Group("/v1", chain(middleware.JWTAuth(jwtSecret), middleware.RequireActive(), mw.RateLimit)...)
	cached := chain(mw.Cache)

	read.GET("/genres", h.ListGenres, cached...)
	read.GET("/genres/:id", h.GetGenre, cached...)
	read.GET("/movies", h.ListMovies, cached...)
	read.GET("/movies/showtimes", h.MoviesShowingOn, cached...)
	read.GET("/movies/:id", h.GetMovie, cached...)
	read.GET("/movies/:id/showtimes", h.MovieShowtimes, cached...)
	read.GET("/showtimes/:id", h.GetShowtime, cached...)
	// Seat state changes with every reservation and is never cached.
	read.GET("/showtimes/:id/seats", h.ShowtimeSeats)
	read.GET("/seats/:id", h.GetSeat)

	write := e.Group("/v1", chain(middleware.JWTAuth(jwtSecret), middleware.RequireCatalogWriter(), mw.RateLimit, mw.Purge)...)
	write.POST("/genres", h.CreateGenre)
	write.PUT("/genres/:id", h.UpdateGenre)
	write.DELETE("/genres/:id", h.DeleteGenre)
	write.POST("/movies", h.CreateMovie)
	write.PUT("/movies/:id", h.UpdateMovie)
	write.DELETE("/movies/:id", h.DeleteMovie)
	write.POST("/showtimes", h.CreateShowtime)
	write.DELETE("/showtimes/:id", h.DeleteShowtime)
}

// RegisterReservations registers seat availability and the reservation
// lifecycle. Ownership and staff checks happen in the service.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, mw Middlewares) {
	g := e.Group("/v1", chain(middleware.JWTAuth(jwtSecret), mw.RateLimit)...)
	g.GET("/showtimes/:id/available-seats", h.AvailableSeats)
	g.GET("/reservations", h.List)
	g.GET("/my-reservations", h.ListMine)
	g.GET("/reservations/:id", h.Get)
	g.POST("/reservations", h.Create)
	g.DELETE("/reservations/:id", h.Cancel)
}

// RegisterUsers registers account management routes.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, jwtSecret string, mw Middlewares) {
	g := e.Group("/v1/users", chain(middleware.JWTAuth(jwtSecret), mw.RateLimit)...)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
