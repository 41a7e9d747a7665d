package models

import "time"

// Submission is a student's answer to an assignment File.
type Submission struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"studentId"`
	AssignmentID string    `db:"assignment_id" json:"assignmentId"`
	File         string    `db:"file" json:"file"`
	Grade        *float64  `db:"grade" json:"grade"`
	Feedback     string    `db:"feedback" json:"feedback"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// GradebookRow joins a submission with the names needed for exports.
type GradebookRow struct {
	StudentID      string    `db:"student_id"`
	StudentName    string    `db:"student_name"`
	AssignmentID   string    `db:"assignment_id"`
	AssignmentName string    `db:"assignment_name"`
	Grade          *float64  `db:"grade"`
	Feedback       string    `db:"feedback"`
	SubmittedAt    time.Time `db:"created_at"`
}
