package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fyp-portal/internal/auth"
	"fyp-portal/internal/model"
)

type borrowRequestResponse struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name"`
	ProjectID    string  `json:"project_id"`
	ProjectTitle string  `json:"project_title"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	ResponseDate *string `json:"response_date"`
}

func mapBorrowRequest(detail model.BorrowRequestDetail) borrowRequestResponse {
	resp := borrowRequestResponse{
		ID:           detail.ID,
		StudentID:    detail.StudentID,
		StudentName:  detail.StudentName,
		ProjectID:    detail.ProjectID,
		ProjectTitle: detail.ProjectTitle,
		Status:       detail.Status,
		CreatedAt:    detail.RequestDate.UTC().Format(time.RFC3339),
	}
	if detail.ResponseDate != nil {
		responded := detail.ResponseDate.UTC().Format(time.RFC3339)
		resp.ResponseDate = &responded
	}
	return resp
}

func (s *Server) handleCreateBorrowRequest(w http.ResponseWriter, r *http.Request) {
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
	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "project_not_found")
			return
		}
		s.writeServerError(w, err)
		return
	}

	// Pre-check for a friendly conflict; the partial unique index on
	// (project_id, student_id, status=pending) is the authority when two
	// creates race past this read.
	pending, err := s.store.HasPendingBorrowRequest(r.Context(), projectID, claims.SubjectID)
	if err != nil {
		s.writeServerError(w, err)
		return
	}
	if pending {
		writeError(w, http.StatusConflict, "borrow_request_exists")
		return
	}

	request := model.BorrowRequest{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		StudentID:   claims.SubjectID,
		Status:      model.StatusPending,
		RequestDate: time.Now().UTC(),
	}
	if err := s.store.CreateBorrowRequest(r.Context(), request); err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "borrow_request_exists")
			return
		}
		s.writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type resolveRequestBody struct {
	Status string `json:"status"`
}

func (s *Server) handleResolveBorrowRequest(w http.ResponseWriter, r *http.Request) {
	requestID := urlParam(r, "requestId")
	if _, err := uuid.Parse(requestID); err != nil {
		writeError(w, http.StatusNotFound, "request_not_found")
		return
	}

	var body resolveRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	status := strings.TrimSpace(strings.ToLower(body.Status))
	if status != model.StatusApproved && status != model.StatusRejected {
		// pending is deliberately not accepted: decisions are final.
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	request, err := s.store.GetBorrowRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "request_not_found")
			return
		}
		s.writeServerError(w, err)
		return
	}
	if request.Status != model.StatusPending {
		writeError(w, http.StatusConflict, "request_already_resolved")
		return
	}

	resolved, err := s.store.ResolveBorrowRequest(r.Context(), requestID, status, time.Now().UTC())
	if err != nil {
		s.writeServerError(w, err)
		return
	}
	if !resolved {
		// Lost a race against another admin's decision.
		writeError(w, http.StatusConflict, "request_already_resolved")
		return
	}

	detail, err := s.store.GetBorrowRequestDetail(r.Context(), requestID)
	if err != nil {
		s.writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapBorrowRequest(detail))
}

func (s *Server) handleDeleteBorrowRequest(w http.ResponseWriter, r *http.Request) {
	requestID := urlParam(r, "requestId")
	if _, err := uuid.Parse(requestID); err != nil {
		writeError(w, http.StatusNotFound, "request_not_found")
		return
	}

	deleted, err := s.store.DeleteBorrowRequest(r.Context(), requestID)
	if err != nil {
		s.writeServerError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "request_not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListBorrowRequests(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var (
		details []model.BorrowRequestDetail
		err     error
	)
	if claims.Role == auth.RoleAdmin {
		details, err = s.store.ListBorrowRequests(r.Context())
	} else {
		details, err = s.store.ListBorrowRequestsByStudent(r.Context(), claims.SubjectID)
	}
	if err != nil {
		s.writeServerError(w, err)
		return
	}

	resp := make([]borrowRequestResponse, 0, len(details))
	for _, detail := range details {
		resp = append(resp, mapBorrowRequest(detail))
	}
	writeJSON(w, http.StatusOK, resp)
}
