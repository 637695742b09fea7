package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"

	"auth_api/internal/api/handler"
	"auth_api/internal/api/middleware"
	"auth_api/internal/app/service"
	"auth_api/internal/common"
	"auth_api/internal/common/security"
	"auth_api/internal/domain/model"
	"auth_api/internal/platform/config"
	"auth_api/internal/platform/limiter"
)

// Route-class budgets. The general budget covers every non-health route;
// auth and create budgets stack on top for their route classes.
const (
	generalLimit  = 20
	generalWindow = 15 * time.Minute
	authLimit     = 5
	authWindow    = 15 * time.Minute
	createLimit   = 10
	createWindow  = time.Minute
)

func NewRouter(
	cfg *config.Config,
	log *slog.Logger,
	tokens *security.TokenService,
	authService *service.AuthService,
	userService *service.UserService,
	limStore limiter.Store,
) http.Handler {
	er := &common.ErrorResponder{Log: log, Production: cfg.IsProduction()}

	r := chi.NewRouter()

	// Base middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Extracts and verifies a bearer token when present; the auth gate
	// decides what a missing or bad token means per route.
	r.Use(jwtauth.Verifier(tokens.JWTAuth()))

	generalLimiter := middleware.RateLimit(limStore, middleware.RateLimitOpts{
		Name:    "general",
		Limit:   generalLimit,
		Window:  generalWindow,
		Message: common.MsgTooManyRequests,
		Skip:    func(r *http.Request) bool { return r.URL.Path == "/health" },
	}, er)
	authLimiter := middleware.RateLimit(limStore, middleware.RateLimitOpts{
		Name:           "auth",
		Limit:          authLimit,
		Window:         authWindow,
		Message:        common.MsgTooManyAuthAttempts,
		SkipSuccessful: true,
	}, er)
	createLimiter := middleware.RateLimit(limStore, middleware.RateLimitOpts{
		Name:    "create",
		Limit:   createLimit,
		Window:  createWindow,
		Message: common.MsgTooManyCreates,
	}, er)

	authn := middleware.Authenticator(er)
	adminOnly := middleware.RequireRoles(er, model.RoleAdmin)

	authHandler := handler.NewAuthHandler(authService, er)
	userHandler := handler.NewUserHandler(userService, er)

	// Health check, exempt from every governor.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		er.Respond(w, r, common.E(common.ErrNotFound, common.MsgRouteNotFound))
	})

	r.Route("/auth", func(ar chi.Router) {
		ar.Use(generalLimiter)

		// Public routes. Validation runs before anything else touches the
		// payload.
		ar.With(authLimiter, createLimiter, middleware.Validate(handler.RegisterSchema, er)).
			Post("/register", authHandler.Register)
		ar.With(authLimiter, middleware.Validate(handler.LoginSchema, er)).
			Post("/login", authHandler.Login)

		// Protected routes: validate, then authenticate.
		ar.With(authn).Get("/profile", authHandler.GetProfile)
		ar.With(middleware.Validate(handler.UpdateProfileSchema, er), authn).
			Put("/profile", authHandler.UpdateProfile)
		ar.With(middleware.Validate(handler.ChangePasswordSchema, er), authn).
			Post("/change-password", authHandler.ChangePassword)
	})

	r.Route("/users", func(ur chi.Router) {
		ur.Use(generalLimiter, authn, adminOnly)
		ur.Get("/", userHandler.ListActive)
	})

	return r
}
