package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"blogify/internal/apperr"
	"blogify/internal/auth"
	"blogify/internal/blog"
	"blogify/internal/config"
	"blogify/internal/constants"
)

// Services are the collaborators the HTTP surface dispatches to.
type Services struct {
	Auth     *auth.Service
	Blogs    *blog.Service
	Users    UserDirectory
	Database Pinger
}

type Server struct {
	router *chi.Mux
	config *config.Config
}

func NewServer(cfg *config.Config, svc Services) *Server {
	authHandler := NewAuthHandler(svc.Auth)
	blogHandler := NewBlogHandler(svc.Blogs)
	userHandler := NewUserHandler(svc.Users)
	healthHandler := NewHealthHandler(svc.Database)

	authMiddleware := NewAuthMiddleware(svc.Auth)
	authLimiter := rateLimit(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(slogRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(cfg.Server.CORSAllowedOrigins))
	r.Use(securityHeadersMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperr.New(apperr.KindNotFound, "Route not found"))
	})

	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		r.Use(maxBodySizeMiddleware(cfg.Server.MaxBodyBytes))

		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/register", authHandler.Register)
			r.With(authLimiter).Post("/login", authHandler.Login)
			r.With(authLimiter).Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Post("/logout", authHandler.Logout)
				r.Get("/verify", authHandler.Verify)
			})
		})

		r.Route("/blogs", func(r chi.Router) {
			r.Get("/tags/popular", blogHandler.PopularTags)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.OptionalAuthenticate)
				r.Get("/", blogHandler.List)
				r.Get("/{id}", blogHandler.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Get("/my", blogHandler.ListMine)
				r.Get("/my/{id}", blogHandler.GetMine)
				r.Post("/", blogHandler.Create)
				r.Put("/{id}", blogHandler.Update)
				r.Delete("/{id}", blogHandler.Delete)
				r.Post("/{id}/like", blogHandler.ToggleLike)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.With(Authorize(constants.RoleAdmin)).Patch("/{id}/status", userHandler.UpdateStatus)
		})
	})

	return &Server{
		router: r,
		config: cfg,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

func maxBodySizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
