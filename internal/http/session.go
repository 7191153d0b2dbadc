package http

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"fyp-portal/internal/auth"
	"fyp-portal/internal/crypto"
)

type sessionRequest struct {
	Role       string `json:"role"`
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type sessionResponse struct {
	Token     string           `json:"token"`
	Principal principalSummary `json:"principal"`
}

type principalSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Email       string `json:"email,omitempty"`
	ProgramID   string `json:"program_id,omitempty"`
	ProgramName string `json:"program_name,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Role = strings.TrimSpace(strings.ToLower(req.Role))
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Secret == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}
	if req.Role != auth.RoleAdmin && req.Role != auth.RoleStudent {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	allowed, err := s.limiter.Allow(r.Context(), req.Role, req.Identifier)
	if err != nil {
		log.Printf("login limiter error: %v", err)
	}
	if !allowed {
		writeError(w, http.StatusTooManyRequests, "too_many_attempts")
		return
	}

	principal, hash, err := s.lookupPrincipal(r, req.Role, req.Identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Indistinguishable from a wrong secret for the caller; the
			// log keeps the detail for operators.
			log.Printf("login failed: unknown %s %q", req.Role, req.Identifier)
			_ = s.limiter.RecordFailure(r.Context(), req.Role, req.Identifier)
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		s.writeServerError(w, err)
		return
	}

	if err := crypto.CheckPassword(hash, req.Secret); err != nil {
		log.Printf("login failed: secret mismatch for %s %q", req.Role, req.Identifier)
		_ = s.limiter.RecordFailure(r.Context(), req.Role, req.Identifier)
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	_ = s.limiter.Reset(r.Context(), req.Role, req.Identifier)

	token, err := auth.NewSessionToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.SessionTTL, auth.Claims{
		SubjectID: principal.ID,
		Role:      req.Role,
	})
	if err != nil {
		s.writeServerError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   !s.cfg.Dev(),
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Principal: principal})
}

func (s *Server) lookupPrincipal(r *http.Request, role, identifier string) (principalSummary, string, error) {
	if role == auth.RoleAdmin {
		admin, err := s.store.GetAdmin(r.Context(), identifier)
		if err != nil {
			return principalSummary{}, "", err
		}
		return principalSummary{
			ID:   admin.AdminID,
			Name: admin.Name,
			Role: auth.RoleAdmin,
		}, admin.PasswordHash, nil
	}

	student, err := s.store.GetStudent(r.Context(), identifier)
	if err != nil {
		return principalSummary{}, "", err
	}
	return principalSummary{
		ID:          student.StudentID,
		Name:        student.Name,
		Role:        auth.RoleStudent,
		Email:       student.Email,
		ProgramID:   student.ProgramID,
		ProgramName: student.ProgramName,
	}, student.PasswordHash, nil
}

// handleLogout only clears the cookie; session tokens are stateless and
// expire on their own.
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	if claims.Role == auth.RoleAdmin {
		admin, err := s.store.GetAdmin(r.Context(), claims.SubjectID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusNotFound, "admin_not_found")
				return
			}
			s.writeServerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, principalSummary{
			ID:   admin.AdminID,
			Name: admin.Name,
			Role: auth.RoleAdmin,
		})
		return
	}

	student, err := s.store.GetStudent(r.Context(), claims.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		s.writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, principalSummary{
		ID:          student.StudentID,
		Name:        student.Name,
		Role:        auth.RoleStudent,
		Email:       student.Email,
		ProgramID:   student.ProgramID,
		ProgramName: student.ProgramName,
	})
}
