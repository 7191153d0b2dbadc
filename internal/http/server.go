package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fyp-portal/internal/auth"
	"fyp-portal/internal/config"
	"fyp-portal/internal/ratelimit"
	"fyp-portal/internal/repository"
)

const sessionCookieName = "session"

type Server struct {
	cfg      config.Config
	store    *repository.Store
	limiter  *ratelimit.Limiter
	validate *validator.Validate
}

func NewServer(cfg config.Config, store *repository.Store, limiter *ratelimit.Limiter) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		limiter:  limiter,
		validate: validator.New(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/session", s.handleCreateSession)
	r.Post("/session/logout", s.handleLogout)
	r.With(s.authMiddleware).Get("/me", s.handleGetMe)

	r.With(s.authMiddleware).Get("/projects", s.handleListProjects)
	r.With(s.authMiddleware).Get("/projects/{projectId}", s.handleGetProject)
	r.With(s.authMiddleware, s.requireAdmin).Post("/projects", s.handleCreateProject)
	r.With(s.authMiddleware, s.requireAdmin).Put("/projects/{projectId}", s.handleUpdateProject)
	r.With(s.authMiddleware, s.requireAdmin).Delete("/projects/{projectId}", s.handleDeleteProject)

	r.With(s.authMiddleware, s.requireStudent).Post("/projects/{projectId}/borrow", s.handleCreateBorrowRequest)
	r.With(s.authMiddleware, s.requireStudent).Post("/projects/{projectId}/like", s.handleLikeProject)
	r.With(s.authMiddleware, s.requireStudent).Delete("/projects/{projectId}/like", s.handleUnlikeProject)
	r.With(s.authMiddleware, s.requireStudent).Post("/projects/{projectId}/comments", s.handleCreateComment)
	r.With(s.authMiddleware).Get("/projects/{projectId}/comments", s.handleListComments)

	r.With(s.authMiddleware).Get("/requests", s.handleListBorrowRequests)
	r.With(s.authMiddleware, s.requireAdmin).Put("/requests/{requestId}", s.handleResolveBorrowRequest)
	r.With(s.authMiddleware, s.requireAdmin).Delete("/requests/{requestId}", s.handleDeleteBorrowRequest)

	r.With(s.authMiddleware, s.requireAdmin).Get("/students", s.handleListStudents)
	r.With(s.authMiddleware, s.requireAdmin).Post("/students", s.handleCreateStudent)
	r.With(s.authMiddleware).Get("/students/{studentId}", s.handleGetStudent)

	r.With(s.authMiddleware, s.requireAdmin).Get("/admins", s.handleListAdmins)
	r.With(s.authMiddleware, s.requireAdmin).Post("/admins", s.handleCreateAdmin)

	return r
}

// Auth

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			if cookie, err := r.Cookie(sessionCookieName); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "token_expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return s.requireRole(next, auth.RoleAdmin)
}

func (s *Server) requireStudent(next http.Handler) http.Handler {
	return s.requireRole(next, auth.RoleStudent)
}

func (s *Server) requireRole(next http.Handler, role string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Role != role {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func urlParam(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

// JSON helpers

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// Postgres error mapping: unique violations become 409s and foreign key
// violations 400s at the handler boundary.

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// writeServerError hides failure detail from callers outside dev mode; the
// detail always goes to the server log.
func (s *Server) writeServerError(w http.ResponseWriter, err error) {
	log.Printf("server error: %v", err)
	if s.cfg.Dev() {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "server_error",
			"detail": err.Error(),
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "server_error")
}
