package http

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fyp-portal/internal/model"
	"fyp-portal/internal/repository"
)

// Storage locations name a physical shelf slot, e.g. "6C4R" (column, row).
var storageLocationPattern = regexp.MustCompile(`^\d+C\d+R$`)

type projectResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	StudentID       string  `json:"student_id"`
	Category        string  `json:"category"`
	AdminID         string  `json:"admin_id"`
	Grade           string  `json:"grade"`
	ReportURL       *string `json:"report_url"`
	StorageLocation *string `json:"storage_location"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type projectDetailResponse struct {
	projectResponse
	StudentName string `json:"student_name"`
	ProgramID   string `json:"program_id"`
	ProgramName string `json:"program_name"`
	Likes       int    `json:"likes"`
}

func mapProject(project model.Project) projectResponse {
	return projectResponse{
		ID:              project.ID,
		Title:           project.Title,
		Description:     project.Description,
		StudentID:       project.StudentID,
		Category:        project.Category,
		AdminID:         project.AdminID,
		Grade:           project.Grade,
		ReportURL:       project.ReportURL,
		StorageLocation: project.StorageLocation,
		CreatedAt:       project.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       project.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.writeServerError(w, err)
		return
	}

	resp := make([]projectResponse, 0, len(projects))
	for _, project := range projects {
		resp = append(resp, mapProject(project))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "projectId")
	if _, err := uuid.Parse(projectID); err != nil {
		writeError(w, http.StatusNotFound, "project_not_found")
		return
	}

	detail, err := s.store.GetProjectDetail(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "project_not_found")
			return
		}
		s.writeServerError(w, err)
		return
	}

	likes, err := s.store.CountLikes(r.Context(), projectID)
	if err != nil {
		s.writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projectDetailResponse{
		projectResponse: mapProject(detail.Project),
		StudentName:     detail.StudentName,
		ProgramID:       detail.ProgramID,
		ProgramName:     detail.ProgramName,
		Likes:           likes,
	})
}

type createProjectRequest struct {
	Title           string  `json:"title" validate:"required"`
	Description     string  `json:"description"`
	StudentID       string  `json:"student_id" validate:"required"`
	Category        string  `json:"category"`
	Grade           string  `json:"grade"`
	ReportURL       *string `json:"report_url"`
	StorageLocation *string `json:"storage_location"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}
		s.writeServerError(w, err)
		return
	}
	if req.StorageLocation != nil && !storageLocationPattern.MatchString(*req.StorageLocation) {
		writeError(w, http.StatusBadRequest, "invalid_storage_location")
		return
	}

	if _, err := s.store.GetStudent(r.Context(), req.StudentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		s.writeServerError(w, err)
		return
	}

	now := time.Now().UTC()
	project := model.Project{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		StudentID:       req.StudentID,
		Category:        req.Category,
		AdminID:         claims.SubjectID,
		Grade:           req.Grade,
		ReportURL:       req.ReportURL,
		StorageLocation: req.StorageLocation,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateProject(r.Context(), project); err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "invalid_reference")
			return
		}
		s.writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapProject(project))
}

type updateProjectRequest struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	StudentID       *string `json:"student_id,omitempty"`
	Category        *string `json:"category,omitempty"`
	Grade           *string `json:"grade,omitempty"`
	ReportURL       *string `json:"report_url,omitempty"`
	StorageLocation *string `json:"storage_location,omitempty"`
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "projectId")
	if _, err := uuid.Parse(projectID); err != nil {
		writeError(w, http.StatusNotFound, "project_not_found")
		return
	}

	var req updateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.StorageLocation != nil && !storageLocationPattern.MatchString(*req.StorageLocation) {
		writeError(w, http.StatusBadRequest, "invalid_storage_location")
		return
	}

	if req.StudentID != nil {
		if _, err := s.store.GetStudent(r.Context(), *req.StudentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusNotFound, "student_not_found")
				return
			}
			s.writeServerError(w, err)
			return
		}
	}

	project, err := s.store.UpdateProject(r.Context(), projectID, repository.ProjectUpdate{
		Title:           req.Title,
		Description:     req.Description,
		StudentID:       req.StudentID,
		Category:        req.Category,
		Grade:           req.Grade,
		ReportURL:       req.ReportURL,
		StorageLocation: req.StorageLocation,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "project_not_found")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "invalid_reference")
			return
		}
		s.writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapProject(project))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "projectId")
	if _, err := uuid.Parse(projectID); err != nil {
		writeError(w, http.StatusNotFound, "project_not_found")
		return
	}

	deleted, err := s.store.DeleteProject(r.Context(), projectID)
	if err != nil {
		s.writeServerError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "project_not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
