package models

import (
	"time"

	"github.com/lib/pq"
)

// Class groups one teacher with an ordered roster of students.
type Class struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	TeacherID string         `db:"teacher_id" json:"teacherId"`
	Students  pq.StringArray `db:"students" json:"students"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// HasStudent reports whether userID is on the roster.
func (c *Class) HasStudent(userID string) bool {
	for _, id := range c.Students {
		if id == userID {
			return true
		}
	}
	return false
}

// CanAccess is true for the class teacher and enrolled students.
func (c *Class) CanAccess(userID string) bool {
	return c.TeacherID == userID || c.HasStudent(userID)
}
