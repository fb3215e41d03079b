package models

import "time"

// StudentRecord is one enrolled student. StudentNumber is the natural key
// for duplicate detection.
type StudentRecord struct {
	ID             int        `db:"id" json:"id"`
	StudentNumber  string     `db:"student_number" json:"student_number"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Patronymic     string     `db:"patronymic" json:"patronymic"`
	InstitutionID  int        `db:"institution_id" json:"institution_id"`
	BirthDate      *time.Time `db:"birth_date" json:"birth_date"`
	Gender         string     `db:"gender" json:"gender"`
	GradeName      string     `db:"grade_name" json:"grade_name"`
	EnrollmentDate *time.Time `db:"enrollment_date" json:"enrollment_date"`
	GuardianName   string     `db:"guardian_name" json:"guardian_name"`
	GuardianPhone  string     `db:"guardian_phone" json:"guardian_phone"`
	GuardianEmail  string     `db:"guardian_email" json:"guardian_email"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
