package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fyp-portal/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Principals

func (s *Store) GetAdmin(ctx context.Context, adminID string) (model.Admin, error) {
	var admin model.Admin
	row := s.pool.QueryRow(ctx, `
		SELECT admin_id, name, password_hash, created_at
		FROM admins
		WHERE admin_id = $1
	`, adminID)
	err := row.Scan(&admin.AdminID, &admin.Name, &admin.PasswordHash, &admin.CreatedAt)
	return admin, err
}

func (s *Store) CreateAdmin(ctx context.Context, admin model.Admin) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admins (admin_id, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, admin.AdminID, admin.Name, admin.PasswordHash, admin.CreatedAt)
	return err
}

func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT admin_id, name, password_hash, created_at
		FROM admins
		ORDER BY admin_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := []model.Admin{}
	for rows.Next() {
		var admin model.Admin
		if err := rows.Scan(&admin.AdminID, &admin.Name, &admin.PasswordHash, &admin.CreatedAt); err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

func (s *Store) GetStudent(ctx context.Context, studentID string) (model.Student, error) {
	var student model.Student
	row := s.pool.QueryRow(ctx, `
		SELECT student_id, name, password_hash, email, phone, address, program_id, program_name, created_at
		FROM students
		WHERE student_id = $1
	`, studentID)
	err := row.Scan(
		&student.StudentID,
		&student.Name,
		&student.PasswordHash,
		&student.Email,
		&student.Phone,
		&student.Address,
		&student.ProgramID,
		&student.ProgramName,
		&student.CreatedAt,
	)
	return student, err
}

func (s *Store) CreateStudent(ctx context.Context, student model.Student) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (student_id, name, password_hash, email, phone, address, program_id, program_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, student.StudentID, student.Name, student.PasswordHash, student.Email, student.Phone,
		student.Address, student.ProgramID, student.ProgramName, student.CreatedAt)
	return err
}

func (s *Store) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT student_id, name, password_hash, email, phone, address, program_id, program_name, created_at
		FROM students
		ORDER BY student_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		var student model.Student
		if err := rows.Scan(
			&student.StudentID,
			&student.Name,
			&student.PasswordHash,
			&student.Email,
			&student.Phone,
			&student.Address,
			&student.ProgramID,
			&student.ProgramName,
			&student.CreatedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

// Projects

func (s *Store) CreateProject(ctx context.Context, project model.Project) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO projects (id, title, description, student_id, category, admin_id, grade, report_url, storage_location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, project.ID, project.Title, project.Description, project.StudentID, project.Category,
		project.AdminID, project.Grade, project.ReportURL, project.StorageLocation,
		project.CreatedAt, project.UpdatedAt)
	return err
}

func (s *Store) GetProject(ctx context.Context, projectID string) (model.Project, error) {
	var project model.Project
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, description, student_id, category, admin_id, grade, report_url, storage_location, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, projectID)
	err := scanProject(row, &project)
	return project, err
}

func (s *Store) GetProjectDetail(ctx context.Context, projectID string) (model.ProjectDetail, error) {
	var detail model.ProjectDetail
	row := s.pool.QueryRow(ctx, `
		SELECT p.id, p.title, p.description, p.student_id, p.category, p.admin_id, p.grade,
		       p.report_url, p.storage_location, p.created_at, p.updated_at,
		       st.name, st.program_id, st.program_name
		FROM projects p
		JOIN students st ON st.student_id = p.student_id
		WHERE p.id = $1
	`, projectID)
	err := row.Scan(
		&detail.ID,
		&detail.Title,
		&detail.Description,
		&detail.StudentID,
		&detail.Category,
		&detail.AdminID,
		&detail.Grade,
		&detail.ReportURL,
		&detail.StorageLocation,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.StudentName,
		&detail.ProgramID,
		&detail.ProgramName,
	)
	return detail, err
}

func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, student_id, category, admin_id, grade, report_url, storage_location, created_at, updated_at
		FROM projects
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var project model.Project
		if err := scanProject(rows, &project); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

type ProjectUpdate struct {
	Title           *string
	Description     *string
	StudentID       *string
	Category        *string
	Grade           *string
	ReportURL       *string
	StorageLocation *string
}

func (s *Store) UpdateProject(ctx context.Context, projectID string, update ProjectUpdate) (model.Project, error) {
	var project model.Project
	row := s.pool.QueryRow(ctx, `
		UPDATE projects
		SET title            = COALESCE($2, title),
		    description      = COALESCE($3, description),
		    student_id       = COALESCE($4, student_id),
		    category         = COALESCE($5, category),
		    grade            = COALESCE($6, grade),
		    report_url       = COALESCE($7, report_url),
		    storage_location = COALESCE($8, storage_location),
		    updated_at       = now()
		WHERE id = $1
		RETURNING id, title, description, student_id, category, admin_id, grade, report_url, storage_location, created_at, updated_at
	`, projectID, update.Title, update.Description, update.StudentID, update.Category,
		update.Grade, update.ReportURL, update.StorageLocation)
	err := scanProject(row, &project)
	return project, err
}

func (s *Store) DeleteProject(ctx context.Context, projectID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner, project *model.Project) error {
	return row.Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		&project.StudentID,
		&project.Category,
		&project.AdminID,
		&project.Grade,
		&project.ReportURL,
		&project.StorageLocation,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
}

// Borrow requests

func (s *Store) CreateBorrowRequest(ctx context.Context, request model.BorrowRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO borrow_requests (id, project_id, student_id, status, request_date, response_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, request.ID, request.ProjectID, request.StudentID, request.Status, request.RequestDate, request.ResponseDate)
	return err
}

func (s *Store) HasPendingBorrowRequest(ctx context.Context, projectID, studentID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM borrow_requests
			WHERE project_id = $1 AND student_id = $2 AND status = 'pending'
		)
	`, projectID, studentID).Scan(&exists)
	return exists, err
}

func (s *Store) GetBorrowRequest(ctx context.Context, requestID string) (model.BorrowRequest, error) {
	var request model.BorrowRequest
	row := s.pool.QueryRow(ctx, `
		SELECT id, project_id, student_id, status, request_date, response_date
		FROM borrow_requests
		WHERE id = $1
	`, requestID)
	err := row.Scan(&request.ID, &request.ProjectID, &request.StudentID, &request.Status,
		&request.RequestDate, &request.ResponseDate)
	return request, err
}

// ResolveBorrowRequest moves a pending request to a terminal status. The
// status guard in the WHERE clause keeps concurrent decisions from
// overwriting each other; false means the request was no longer pending.
func (s *Store) ResolveBorrowRequest(ctx context.Context, requestID, status string, respondedAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE borrow_requests
		SET status = $2, response_date = $3
		WHERE id = $1 AND status = 'pending'
	`, requestID, status, respondedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteBorrowRequest(ctx context.Context, requestID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM borrow_requests WHERE id = $1`, requestID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetBorrowRequestDetail(ctx context.Context, requestID string) (model.BorrowRequestDetail, error) {
	var detail model.BorrowRequestDetail
	row := s.pool.QueryRow(ctx, `
		SELECT r.id, r.project_id, r.student_id, r.status, r.request_date, r.response_date,
		       st.name, p.title
		FROM borrow_requests r
		JOIN students st ON st.student_id = r.student_id
		JOIN projects p ON p.id = r.project_id
		WHERE r.id = $1
	`, requestID)
	err := scanBorrowRequestDetail(row, &detail)
	return detail, err
}

func (s *Store) ListBorrowRequests(ctx context.Context) ([]model.BorrowRequestDetail, error) {
	return s.listBorrowRequests(ctx, "")
}

func (s *Store) ListBorrowRequestsByStudent(ctx context.Context, studentID string) ([]model.BorrowRequestDetail, error) {
	return s.listBorrowRequests(ctx, studentID)
}

func (s *Store) listBorrowRequests(ctx context.Context, studentID string) ([]model.BorrowRequestDetail, error) {
	query := `
		SELECT r.id, r.project_id, r.student_id, r.status, r.request_date, r.response_date,
		       st.name, p.title
		FROM borrow_requests r
		JOIN students st ON st.student_id = r.student_id
		JOIN projects p ON p.id = r.project_id
		WHERE $1 = '' OR r.student_id = $1
		ORDER BY r.request_date DESC
	`
	rows, err := s.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []model.BorrowRequestDetail{}
	for rows.Next() {
		var detail model.BorrowRequestDetail
		if err := scanBorrowRequestDetail(rows, &detail); err != nil {
			return nil, err
		}
		requests = append(requests, detail)
	}
	return requests, rows.Err()
}

func scanBorrowRequestDetail(row scanner, detail *model.BorrowRequestDetail) error {
	return row.Scan(
		&detail.ID,
		&detail.ProjectID,
		&detail.StudentID,
		&detail.Status,
		&detail.RequestDate,
		&detail.ResponseDate,
		&detail.StudentName,
		&detail.ProjectTitle,
	)
}

// Likes

func (s *Store) CreateLike(ctx context.Context, like model.Like) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO project_likes (project_id, student_id, created_at)
		VALUES ($1, $2, $3)
	`, like.ProjectID, like.StudentID, like.CreatedAt)
	return err
}

func (s *Store) DeleteLike(ctx context.Context, projectID, studentID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM project_likes
		WHERE project_id = $1 AND student_id = $2
	`, projectID, studentID)
	return err
}

func (s *Store) CountLikes(ctx context.Context, projectID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM project_likes WHERE project_id = $1
	`, projectID).Scan(&count)
	return count, err
}

// Comments

func (s *Store) CreateComment(ctx context.Context, comment model.Comment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO project_comments (id, project_id, student_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, comment.ID, comment.ProjectID, comment.StudentID, comment.Content, comment.CreatedAt)
	return err
}

func (s *Store) ListComments(ctx context.Context, projectID string) ([]model.Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.project_id, c.student_id, st.name, c.content, c.created_at
		FROM project_comments c
		JOIN students st ON st.student_id = c.student_id
		WHERE c.project_id = $1
		ORDER BY c.created_at DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var comment model.Comment
		if err := rows.Scan(&comment.ID, &comment.ProjectID, &comment.StudentID,
			&comment.StudentName, &comment.Content, &comment.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
