package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/cellgroup/internal/auth"
	"github.com/ovaphlow/cellgroup/internal/cellgroup"
	"github.com/ovaphlow/cellgroup/internal/export"
	"github.com/ovaphlow/cellgroup/internal/httpx"
	"github.com/ovaphlow/cellgroup/internal/leader"
	"github.com/ovaphlow/cellgroup/internal/meetingnote"
	"github.com/ovaphlow/cellgroup/internal/member"
	"github.com/ovaphlow/cellgroup/internal/report"
	"github.com/ovaphlow/cellgroup/internal/user"
	"github.com/ovaphlow/cellgroup/internal/weekevent"
	"github.com/ovaphlow/cellgroup/pkg/database"
)

// Options carries the settings the HTTP layer needs from config.
type Options struct {
	JWTSecret   string
	JWTIssuer   string
	TokenTTL    time.Duration
	CORSOrigins []string
	BcryptCost  int
}

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// No framing; the API and its exports are never embedded
			w.Header().Set("X-Frame-Options", "DENY")

			// Referrer policy - send full referrer for same-origin, origin only otherwise
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")

			// Permissions policy - none of these features are used by the client
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// Conservative default CSP. The headers are shared with the handler, so a
			// handler serving a document (the meeting note export) sets its own.
			w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")

			// HSTS - only over TLS, 30 days
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes wires every service onto a chi router mounted under /api.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, opts Options) http.Handler {
	tx := database.NewTxRunner(db)

	users := user.NewUserService(db, nil, user.BcryptHasher{Cost: opts.BcryptCost})
	groups := cellgroup.NewService(db, tx, users)
	members := member.NewService(db)
	reports := report.NewService(db, tx)
	leaders := leader.NewService(db, tx, groups, members)
	notes := meetingnote.NewService(db)
	events := weekevent.NewService(db)
	exports := export.NewService(db, notes)
	authSvc := auth.NewService(users, groups, auth.Options{
		Secret: opts.JWTSecret,
		Issuer: opts.JWTIssuer,
		TTL:    opts.TokenTTL,
	})

	authH := auth.NewHandler(authSvc, logger)
	userH := user.NewHandler(users, logger)
	groupH := cellgroup.NewHandler(groups, logger)
	memberH := member.NewHandler(members, logger)
	reportH := report.NewHandler(reports, logger)
	leaderH := leader.NewHandler(leaders, logger)
	noteH := meetingnote.NewHandler(notes, logger)
	eventH := weekevent.NewHandler(events, logger)
	exportH := export.NewHandler(exports, logger)

	authenticate := auth.Authenticate(authSvc, logger)
	requireAdmin := auth.RequireAdmin(logger)
	requireLeader := auth.RequireLeader(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteJSON(w, http.StatusOK, map[string]string{
				"status":    "ok",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		})

		r.Post("/auth/login", authH.Login)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/auth/me", authH.Me)

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAdmin)

				r.Get("/cell-groups", groupH.List)
				r.Post("/cell-groups", groupH.Create)
				r.Put("/cell-groups/{id}", groupH.Update)
				r.Delete("/cell-groups/{id}", groupH.Delete)

				r.Put("/leaders/{id}", userH.UpdateLeader)

				r.Get("/members", memberH.List)
				r.Post("/members", memberH.Create)
				r.Put("/members/{id}", memberH.Update)
				r.Delete("/members/{id}", memberH.Delete)

				r.Get("/reports", reportH.List)
				r.Get("/reports/summary", reportH.Summary)

				r.Get("/attendance/week/{weekStart}", reportH.AttendanceWeek)
				r.Post("/attendance/batch", reportH.AttendanceBatch)
			})

			r.Route("/leader", func(r chi.Router) {
				r.Use(requireLeader)

				r.Get("/my-cell-group", leaderH.MyCellGroup)
				r.Post("/members", leaderH.AddMember)
				r.Put("/members/{id}", leaderH.UpdateMember)
				r.Get("/reports/week/{weekStart}", leaderH.WeekForm)
				r.Post("/reports/batch", leaderH.SubmitBatch)
				r.Get("/reports/history", leaderH.History)
			})

			r.Route("/meeting-notes", func(r chi.Router) {
				r.Get("/", noteH.List)
				r.Get("/{id}", noteH.Get)
				r.With(requireAdmin).Post("/", noteH.Create)
				r.With(requireAdmin).Put("/{id}", noteH.Update)
				r.With(requireAdmin).Delete("/{id}", noteH.Delete)
			})

			r.Route("/week-events", func(r chi.Router) {
				r.Get("/", eventH.List)
				r.With(requireAdmin).Post("/", eventH.Set)
			})

			r.Route("/export", func(r chi.Router) {
				r.With(requireAdmin).Get("/excel", exportH.Excel)
				r.With(requireAdmin).Get("/csv", exportH.CSV)
				r.With(requireAdmin).Get("/summary", exportH.Summary)
				r.Get("/meeting-note/{id}/pdf", exportH.MeetingNote)
			})
		})
	})

	return r
}
