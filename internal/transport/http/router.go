package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/campus-auth-api/internal/application/account"
	"github.com/campus-auth-api/internal/config"
	"github.com/campus-auth-api/internal/transport/http/handler"
	appmiddleware "github.com/campus-auth-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	accountSvc := account.NewService(account.ServiceDeps{
		AccountRepo:   deps.AccountRepo,
		ChallengeRepo: deps.ChallengeRepo,
		OutboxRepo:    deps.OutboxRepo,
	})

	healthH := handler.NewHealthHandler()
	accountH := handler.NewAccountHandler(accountSvc)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		// chi matches static segments before params, so /api/health-check
		// never falls into the {role} subtree.
		r.Route("/{role}", func(r chi.Router) {
			r.Use(appmiddleware.RoleFromPath)
			r.Post("/signup", accountH.Signup)
			r.Post("/verify-otp", accountH.VerifyOTP)
			r.Post("/login", accountH.Login)
		})
	})

	return r
}
