package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fyp-portal/internal/model"
)

func (s *Server) handleLikeProject(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	projectID := urlParam(r, "projectId")
	if _, err := uuid.Parse(projectID); err != nil {
		writeError(w, http.StatusNotFound, "project_not_found")
		return
	}

	like := model.Like{
		ProjectID: projectID,
		StudentID: claims.SubjectID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateLike(r.Context(), like); err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "already_liked")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusNotFound, "project_not_found")
			return
		}
		s.writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Unlike is idempotent: removing a like that is not there still succeeds.
func (s *Server) handleUnlikeProject(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	projectID := urlParam(r, "projectId")
	if _, err := uuid.Parse(projectID); err != nil {
		writeError(w, http.StatusNotFound, "project_not_found")
		return
	}

	if err := s.store.DeleteLike(r.Context(), projectID, claims.SubjectID); err != nil {
		s.writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type createCommentRequest struct {
	Content string `json:"content"`
}

type commentResponse struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	projectID := urlParam(r, "projectId")
	if _, err := uuid.Parse(projectID); err != nil {
		writeError(w, http.StatusNotFound, "project_not_found")
		return
	}

	var req createCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content_required")
		return
	}

	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "project_not_found")
			return
		}
		s.writeServerError(w, err)
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

	comment := model.Comment{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		StudentID: student.StudentID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateComment(r.Context(), comment); err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "invalid_reference")
			return
		}
		s.writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, commentResponse{
		ID:          comment.ID,
		ProjectID:   comment.ProjectID,
		StudentID:   comment.StudentID,
		StudentName: student.Name,
		Content:     comment.Content,
		CreatedAt:   comment.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "projectId")
	if _, err := uuid.Parse(projectID); err != nil {
		writeError(w, http.StatusNotFound, "project_not_found")
		return
	}

	comments, err := s.store.ListComments(r.Context(), projectID)
	if err != nil {
		s.writeServerError(w, err)
		return
	}

	resp := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		resp = append(resp, commentResponse{
			ID:          comment.ID,
			ProjectID:   comment.ProjectID,
			StudentID:   comment.StudentID,
			StudentName: comment.StudentName,
			Content:     comment.Content,
			CreatedAt:   comment.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
