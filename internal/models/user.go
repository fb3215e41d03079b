package models

import "time"

// Role names carried in JWT claims. They mirror the roles assigned by the
// identity service; scope computation only cares about these values.
const (
	RoleSuperAdmin     = "superadmin"
	RoleRegionAdmin    = "regionadmin"
	RoleRegionOperator = "regionoperator"
	RoleSectorAdmin    = "sektoradmin"
	RoleSchoolAdmin    = "schooladmin"
	RoleTeacher        = "teacher"
)

type User struct {
	ID            int       `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Patronymic    string    `db:"patronymic" json:"patronymic"`
	Role          string    `db:"role" json:"role"`
	InstitutionID int       `db:"institution_id" json:"institution_id"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// TeacherRecord carries the profile fields ingested by the staff import.
// Email is the natural key for duplicate detection.
type TeacherRecord struct {
	ID                   int        `db:"id" json:"id"`
	Email                string     `db:"email" json:"email"`
	Username             string     `db:"username" json:"username"`
	FirstName            string     `db:"first_name" json:"first_name"`
	LastName             string     `db:"last_name" json:"last_name"`
	Patronymic           string     `db:"patronymic" json:"patronymic"`
	InstitutionID        int        `db:"institution_id" json:"institution_id"`
	PositionType         string     `db:"position_type" json:"position_type"`
	WorkplaceType        string     `db:"workplace_type" json:"workplace_type"`
	Specialty            string     `db:"specialty" json:"specialty"`
	MainSubject          string     `db:"main_subject" json:"main_subject"`
	AssessmentType       string     `db:"assessment_type" json:"assessment_type"`
	AssessmentScore      *float64   `db:"assessment_score" json:"assessment_score"`
	ContactPhone         string     `db:"contact_phone" json:"contact_phone"`
	ContractStartDate    *time.Time `db:"contract_start_date" json:"contract_start_date"`
	ContractEndDate      *time.Time `db:"contract_end_date" json:"contract_end_date"`
	EducationLevel       string     `db:"education_level" json:"education_level"`
	GraduationUniversity string     `db:"graduation_university" json:"graduation_university"`
	GraduationYear       *int       `db:"graduation_year" json:"graduation_year"`
	PasswordHash         string     `db:"password_hash" json:"-"`
	IsActive             bool       `db:"is_active" json:"is_active"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}
