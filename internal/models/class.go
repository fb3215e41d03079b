package models

import (
	"fmt"
	"strings"
	"time"
)

// ClassKey builds the synthetic uniqueness key for a class:
// "<institution_id>/<grade_level>-<LETTER>".
func ClassKey(institutionID, gradeLevel int, classLetter string) string {
	return fmt.Sprintf("%d/%d-%s", institutionID, gradeLevel, strings.ToUpper(classLetter))
}

// ClassRecord is one class group. A class is unique per institution by
// grade level and letter.
type ClassRecord struct {
	ID            int       `db:"id" json:"id"`
	InstitutionID int       `db:"institution_id" json:"institution_id"`
	GradeLevel    int       `db:"grade_level" json:"grade_level"`
	ClassLetter   string    `db:"class_letter" json:"class_letter"`
	Capacity      *int      `db:"capacity" json:"capacity"`
	RoomNumber    string    `db:"room_number" json:"room_number"`
	TeacherEmail  string    `db:"teacher_email" json:"teacher_email"`
	AcademicYear  string    `db:"academic_year" json:"academic_year"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
