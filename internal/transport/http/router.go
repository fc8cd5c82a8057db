package http

import (
	"net/http"

	"github.com/go-auth-api/internal/application/auth"
	fileapp "github.com/go-auth-api/internal/application/file"
	"github.com/go-auth-api/internal/application/otp"
	"github.com/go-auth-api/internal/application/user"
	"github.com/go-auth-api/internal/config"
	"github.com/go-auth-api/internal/domain"
	"github.com/go-auth-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-auth-api/internal/infrastructure/jwt"
	s3infra "github.com/go-auth-api/internal/infrastructure/s3"
	"github.com/go-auth-api/internal/infrastructure/smtp"
	"github.com/go-auth-api/internal/infrastructure/sns"
	"github.com/go-auth-api/internal/pkg/revocation"
	"github.com/go-auth-api/internal/transport/http/handler"
	appmiddleware "github.com/go-auth-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	OTPRepo     *dynamo.OTPRepo
	FileRepo    *dynamo.FileRepo
	S3Store     *s3infra.Store
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
	Revocations *revocation.Registry
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	handler.SetProduction(cfg.IsProduction())

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	otpMgr := otp.NewManager(otp.ManagerDeps{
		Store:     deps.OTPRepo,
		Mailer:    deps.Mailer,
		SMSSender: deps.SMSSender,
		TTL:       cfg.OTPExpiry,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:   deps.UserRepo,
		OTPManager: otpMgr,
		Tokens:     deps.JWTProvider,
		BcryptCost: cfg.BcryptCost,
	})
	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.UserRepo})
	fileSvc := fileapp.NewService(fileapp.ServiceDeps{
		ObjectStore: deps.S3Store,
		FileRepo:    deps.FileRepo,
	})

	gate := appmiddleware.NewGate(appmiddleware.GateDeps{
		Tokens:      deps.JWTProvider,
		Users:       deps.UserRepo,
		Revocations: deps.Revocations,
		MaxTokenAge: cfg.MaxTokenAge,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(handler.AuthHandlerDeps{
		Service:       authSvc,
		Revocations:   deps.Revocations,
		RefreshTTL:    cfg.JWTRefreshExpiry,
		SecureCookies: cfg.IsProduction(),
	})
	userH := handler.NewUserHandler(userSvc)
	fileH := handler.NewFileHandler(fileSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Check)

		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/admin-login", authH.AdminLogin)
		r.With(sensitiveRL.Limit).Post("/auth/google-login", authH.GoogleLogin)
		r.With(sensitiveRL.Limit).Post("/auth/verify-email", authH.VerifyEmail)
		r.With(sensitiveRL.Limit).Post("/auth/resend-otp", authH.ResendOTP)
		r.With(sensitiveRL.Limit).Post("/auth/forgot-password", authH.ForgotPassword)
		r.With(sensitiveRL.Limit).Post("/auth/verify-reset-otp", authH.VerifyResetOTP)
		r.Post("/auth/refresh-token", authH.Refresh)

		// ── Reset-token routes ───────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(gate.ResetAuth)
			r.Post("/auth/reset-password", authH.ResetPassword)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(gate.Auth())

			r.Post("/auth/change-password", authH.ChangePassword)
			r.Post("/auth/logout", authH.Logout)
			r.Delete("/auth/account", authH.DeleteAccount)

			r.Get("/users/me", userH.Me)
			r.Put("/users/me", userH.UpdateMe)

			r.Post("/files", fileH.Upload)
			r.Post("/files/base64", fileH.UploadBase64)
			r.Get("/files/{id}", fileH.Download)
			r.Get("/files/{id}/url", fileH.DownloadURL)
			r.Delete("/files/{id}", fileH.Delete)
		})

		// ── Admin routes ─────────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(gate.Auth(domain.RoleAdmin, domain.RoleSuperAdmin))

			r.Get("/users", userH.List)
			r.Get("/users/{id}", userH.Get)
			r.Post("/users/{id}/block", userH.Block)
			r.Post("/users/{id}/unblock", userH.Unblock)
		})
	})

	return r
}
