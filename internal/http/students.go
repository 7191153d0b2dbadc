package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"fyp-portal/internal/auth"
	"fyp-portal/internal/crypto"
	"fyp-portal/internal/model"
)

type studentSummary struct {
	StudentID   string `json:"student_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	ProgramID   string `json:"program_id"`
	ProgramName string `json:"program_name"`
	CreatedAt   string `json:"created_at"`
}

// studentProfile is the subset other students may see.
type studentProfile struct {
	StudentID   string `json:"student_id"`
	Name        string `json:"name"`
	ProgramID   string `json:"program_id"`
	ProgramName string `json:"program_name"`
}

func mapStudent(student model.Student) studentSummary {
	return studentSummary{
		StudentID:   student.StudentID,
		Name:        student.Name,
		Email:       student.Email,
		Phone:       student.Phone,
		Address:     student.Address,
		ProgramID:   student.ProgramID,
		ProgramName: student.ProgramName,
		CreatedAt:   student.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.store.ListStudents(r.Context())
	if err != nil {
		s.writeServerError(w, err)
		return
	}

	resp := make([]studentSummary, 0, len(students))
	for _, student := range students {
		resp = append(resp, mapStudent(student))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createStudentRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Password    string `json:"password" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	ProgramID   string `json:"program_id"`
	ProgramName string `json:"program_name"`
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := s.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}
		s.writeServerError(w, err)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.writeServerError(w, err)
		return
	}

	student := model.Student{
		StudentID:    req.StudentID,
		Name:         req.Name,
		PasswordHash: hash,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		ProgramID:    req.ProgramID,
		ProgramName:  req.ProgramName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateStudent(r.Context(), student); err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "student_exists")
			return
		}
		s.writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapStudent(student))
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	studentID := urlParam(r, "studentId")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "missing_student_id")
		return
	}

	student, err := s.store.GetStudent(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		s.writeServerError(w, err)
		return
	}

	// Admins and the student themselves see the full record; everyone
	// else gets the public profile.
	if claims.Role == auth.RoleAdmin || claims.SubjectID == student.StudentID {
		writeJSON(w, http.StatusOK, mapStudent(student))
		return
	}
	writeJSON(w, http.StatusOK, studentProfile{
		StudentID:   student.StudentID,
		Name:        student.Name,
		ProgramID:   student.ProgramID,
		ProgramName: student.ProgramName,
	})
}

type adminSummary struct {
	AdminID   string `json:"admin_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.store.ListAdmins(r.Context())
	if err != nil {
		s.writeServerError(w, err)
		return
	}

	resp := make([]adminSummary, 0, len(admins))
	for _, admin := range admins {
		resp = append(resp, adminSummary{
			AdminID:   admin.AdminID,
			Name:      admin.Name,
			CreatedAt: admin.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type createAdminRequest struct {
	AdminID  string `json:"admin_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.AdminID = strings.TrimSpace(req.AdminID)
	if err := s.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}
		s.writeServerError(w, err)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.writeServerError(w, err)
		return
	}

	admin := model.Admin{
		AdminID:      req.AdminID,
		Name:         req.Name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateAdmin(r.Context(), admin); err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "admin_exists")
			return
		}
		s.writeServerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, adminSummary{
		AdminID:   admin.AdminID,
		Name:      admin.Name,
		CreatedAt: admin.CreatedAt.UTC().Format(time.RFC3339),
	})
}
