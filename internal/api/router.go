// Package api assembles the HTTP surface: explicit construction of stores,
// services, and handlers, then a stdlib mux with a functional middleware
// chain (authenticate -> validate -> dispatch). No process-wide singletons.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gatherspace/server/internal/api/handlers"
	"github.com/gatherspace/server/internal/api/middleware"
	"github.com/gatherspace/server/internal/auth"
	"github.com/gatherspace/server/internal/config"
	"github.com/gatherspace/server/internal/domain/events"
	"github.com/gatherspace/server/internal/domain/participants"
	"github.com/gatherspace/server/internal/domain/users"
	"github.com/gatherspace/server/internal/metrics"
	"github.com/gatherspace/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, version string) (http.Handler, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, err
	}

	usersService := users.NewService(repo.Users(), logger)
	eventsService := events.NewService(repo.Events(), logger)
	participantsService := participants.NewService(repo.Participants(), logger)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	usersHandler := handlers.NewUsersHandler(usersService, cfg.Environment)
	authHandler := handlers.NewAuthHandler(usersService, jwtManager, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, cfg.Environment)
	participantsHandler := handlers.NewParticipantsHandler(participantsService, cfg.Environment)
	healthChecker := handlers.NewHealthChecker(pool, version)

	mux := NewMux(Deps{
		Cfg:          cfg,
		JWT:          jwtManager,
		Users:        usersHandler,
		Auth:         authHandler,
		Events:       eventsHandler,
		Participants: participantsHandler,
		Health:       healthChecker.Health(),
	})

	var handler http.Handler = mux
	handler = middleware.RequestSizeLimit(middleware.DefaultMaxBodyBytes)(handler)
	handler = metrics.Middleware(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.CorrelationID(logger)(handler)
	handler = middleware.SecurityHeaders(handler)
	return handler, nil
}

// Deps carries the constructed handlers into NewMux so tests can assemble
// the route table around in-memory stores.
type Deps struct {
	Cfg          config.Config
	JWT          *auth.JWTManager
	Users        *handlers.UsersHandler
	Auth         *handlers.AuthHandler
	Events       *handlers.EventsHandler
	Participants *handlers.ParticipantsHandler
	Health       http.HandlerFunc
}

// NewMux builds the route table. Guarded routes reject missing or invalid
// bearer tokens before any handler logic runs.
func NewMux(deps Deps) *http.ServeMux {
	guard := middleware.BearerAuth(deps.JWT, deps.Cfg.Environment)
	rl := middleware.RateLimit(deps.Cfg.RateLimit)

	public := func(h http.HandlerFunc) http.Handler {
		return rl(h)
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimitTier(middleware.TierAuthed)(rl(guard(h)))
	}
	login := func(h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimitTier(middleware.TierLogin)(rl(h))
	}

	mux := http.NewServeMux()
	mux.Handle("/health", methodMux(map[string]http.Handler{
		http.MethodGet: deps.Health,
	}))
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/users", methodMux(map[string]http.Handler{
		http.MethodPost: public(deps.Users.Create),
	}))
	mux.Handle("/users/profile", methodMux(map[string]http.Handler{
		http.MethodGet: authed(deps.Users.Profile),
	}))
	mux.Handle("/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: login(deps.Auth.Login),
	}))

	mux.Handle("/events", methodMux(map[string]http.Handler{
		http.MethodGet:  public(deps.Events.List),
		http.MethodPost: authed(deps.Events.Create),
	}))
	mux.Handle("/events/user/my", methodMux(map[string]http.Handler{
		http.MethodGet: authed(deps.Events.ListMine),
	}))
	mux.Handle("/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    public(deps.Events.Get),
		http.MethodPatch:  authed(deps.Events.Update),
		http.MethodDelete: authed(deps.Events.Delete),
	}))

	mux.Handle("/participants/register", methodMux(map[string]http.Handler{
		http.MethodPost: authed(deps.Participants.Register),
	}))
	mux.Handle("/participants/unregister/{eventId}", methodMux(map[string]http.Handler{
		http.MethodDelete: authed(deps.Participants.Unregister),
	}))
	mux.Handle("/participants/event/{eventId}", methodMux(map[string]http.Handler{
		http.MethodGet: authed(deps.Participants.ListByEvent),
	}))

	return mux
}

func methodMux(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := routes[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(routes))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(routes map[string]http.Handler) string {
	methods := make([]string, 0, len(routes))
	for method := range routes {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
