package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/smart-referral-api/internal/application/approval"
	"github.com/smart-referral-api/internal/application/company"
	"github.com/smart-referral-api/internal/application/customer"
	"github.com/smart-referral-api/internal/application/media"
	"github.com/smart-referral-api/internal/application/referral"
	"github.com/smart-referral-api/internal/application/session"
	"github.com/smart-referral-api/internal/application/signuptoken"
	"github.com/smart-referral-api/internal/config"
	"github.com/smart-referral-api/internal/domain"
	"github.com/smart-referral-api/internal/pkg/metrics"
	"github.com/smart-referral-api/internal/transport/http/handler"
	appmiddleware "github.com/smart-referral-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router. ctx bounds the
// lifetime of background rate-limiter cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	companyOnly := appmiddleware.RequireKind(domain.KindCompany)
	customerOnly := appmiddleware.RequireKind(domain.KindCustomer)

	trusted, err := appmiddleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		slog.Warn("ignoring malformed TRUSTED_PROXIES entries", "err", err)
	}
	// 5 requests/second, burst of 10, on public endpoints that touch credentials or tokens.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10, trusted)

	mediaSvc := media.NewService(media.ServiceDeps{Store: deps.S3Store, PresignTTL: cfg.PresignTTL})
	tokenSvc := signuptoken.NewService(signuptoken.ServiceDeps{TokenRepo: deps.SignupTokenRepo, TTL: cfg.SignupTokenTTL})
	companySvc := company.NewService(company.ServiceDeps{
		CompanyRepo: deps.CompanyRepo,
		LinkRepo:    deps.LinkRepo,
		UserRepo:    deps.UserRepo,
		Media:       mediaSvc,
	})
	customerSvc := customer.NewService(customer.ServiceDeps{
		UserRepo:    deps.UserRepo,
		CompanyRepo: deps.CompanyRepo,
		Tokens:      tokenSvc,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		CompanyRepo: deps.CompanyRepo,
		UserRepo:    deps.UserRepo,
		JWTProvider: deps.JWTProvider,
	})
	approvalSvc := approval.NewService(approval.ServiceDeps{
		ApprovalRepo: deps.ApprovalRepo,
		UserRepo:     deps.UserRepo,
		Events:       deps.Events,
	})
	referralSvc := referral.NewService(referral.ServiceDeps{
		UserRepo:  deps.UserRepo,
		Approvals: approvalSvc,
		Media:     mediaSvc,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(companySvc, sessionSvc)
	signupH := handler.NewSignupHandler(tokenSvc, customerSvc, companySvc, cfg.SignupPageURL)
	submissionH := handler.NewSubmissionHandler(referralSvc, customerSvc, cfg.MaxUploadBytes)
	reviewH := handler.NewReviewHandler(approvalSvc, referralSvc)
	companyH := handler.NewCompanyHandler(companySvc, cfg.MaxUploadBytes)
	mediaH := handler.NewMediaHandler(mediaSvc)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Health)
		r.Post("/logout", authH.Logout)
		r.With(appmiddleware.OptionalAuth(deps.JWTProvider)).Get("/check-auth", authH.CheckAuth)
		r.Get("/links/{step_name}", companyH.GetLinks)

		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)

			r.Post("/signup", authH.CompanySignup)
			r.Post("/login", authH.Login)
			r.Get("/signup/{company_name}/{token}", signupH.Redirect)
			r.Post("/validate-token", signupH.ValidateToken)
			r.Post("/customer/signup", signupH.CustomerSignup)
			r.Get("/media/download/{encoded_key}", mediaH.Download)
		})

		// ── Company routes ───────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(companyOnly)

			r.Post("/signup-links", signupH.GenerateLink)
			r.Post("/approve-form", reviewH.ApproveForm)
			r.Get("/clients", reviewH.Clients)
			r.Put("/links/{step_name}", companyH.PutLink)
			r.Get("/discount", companyH.GetDiscount)
			r.Put("/discount", companyH.PutDiscount)
			r.Get("/posttags", companyH.GetPostTags)
			r.Put("/posttags", companyH.PutPostTags)
		})

		// ── Customer routes ──────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(customerOnly)

			r.Post("/submit", submissionH.Submit)
			r.Post("/upload", submissionH.Upload)
			r.Get("/terms/status", submissionH.TermsStatus)
			r.Post("/terms/accept", submissionH.AcceptTerms)
		})
	})

	return r
}
