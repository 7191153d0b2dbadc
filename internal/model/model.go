package model

import "time"

type Admin struct {
	AdminID      string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

type Student struct {
	StudentID    string
	Name         string
	PasswordHash string
	Email        string
	Phone        string
	Address      string
	ProgramID    string
	ProgramName  string
	CreatedAt    time.Time
}

type Project struct {
	ID              string
	Title           string
	Description     string
	StudentID       string
	Category        string
	AdminID         string
	Grade           string
	ReportURL       *string
	StorageLocation *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProjectDetail is a Project joined with its owner for display.
type ProjectDetail struct {
	Project
	StudentName string
	ProgramID   string
	ProgramName string
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type BorrowRequest struct {
	ID           string
	ProjectID    string
	StudentID    string
	Status       string
	RequestDate  time.Time
	ResponseDate *time.Time
}

// BorrowRequestDetail carries the joined names the dashboards render.
type BorrowRequestDetail struct {
	BorrowRequest
	StudentName  string
	ProjectTitle string
}

type Like struct {
	ProjectID string
	StudentID string
	CreatedAt time.Time
}

type Comment struct {
	ID          string
	ProjectID   string
	StudentID   string
	StudentName string
	Content     string
	CreatedAt   time.Time
}
