package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/vaultpass/securevault-go/internal/middleware"
)

// Routes collects what NewRouter wires together.
type Routes struct {
	Auth      *AuthHandler
	TwoFactor *TwoFactorHandler
	Vault     *VaultHandler
	Generator *GeneratorHandler

	Tokens middleware.TokenValidator
	Logger *slog.Logger

	// TrustProxy takes the client address from X-Forwarded-For and friends.
	// Only enable it behind a proxy that overwrites those headers, since the
	// rate limiter keys on that address.
	TrustProxy bool

	// AuthLimit guards the unauthenticated auth routes and the 2fa routes.
	// Nil disables limiting.
	AuthLimit func(http.Handler) http.Handler
}

// NewRouter builds the HTTP API.
func NewRouter(rt Routes) http.Handler {
	logger := rt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := rt.AuthLimit
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if rt.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/generate", rt.Generator.HandleGenerate)

		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/auth/signup", rt.Auth.HandleSignup)
			r.Post("/auth/login", rt.Auth.HandleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(rt.Tokens))
			r.Get("/auth/me", rt.Auth.HandleMe)

			r.Route("/2fa", func(r chi.Router) {
				r.Use(limit)
				r.Post("/setup", rt.TwoFactor.HandleSetup)
				r.Post("/verify", rt.TwoFactor.HandleVerify)
				r.Post("/disable", rt.TwoFactor.HandleDisable)
				r.Get("/status", rt.TwoFactor.HandleStatus)
			})

			r.Get("/vault", rt.Vault.HandleList)
			r.Post("/vault", rt.Vault.HandleCreate)
			r.Put("/vault/{id}", rt.Vault.HandleUpdate)
			r.Delete("/vault/{id}", rt.Vault.HandleDelete)
		})
	})

	return r
}
