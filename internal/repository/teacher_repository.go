package repository

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"education-web/internal/models"
)

type TeacherRepository struct {
	db *sqlx.DB
}

func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

func (r *TeacherRepository) FindByEmail(email string) (*models.TeacherRecord, error) {
	var teacher models.TeacherRecord
	query := "SELECT * FROM teachers WHERE email = ? LIMIT 1"
	err := r.db.Get(&teacher, query, email)
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *TeacherRepository) FindByInstitution(institutionID, limit, offset int) ([]models.TeacherRecord, int, error) {
	var teachers []models.TeacherRecord
	var total int

	err := r.db.Get(&total, "SELECT COUNT(*) FROM teachers WHERE institution_id = ?", institutionID)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM teachers WHERE institution_id = ?
	          ORDER BY last_name, first_name LIMIT ? OFFSET ?`
	err = r.db.Select(&teachers, query, institutionID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return teachers, total, nil
}

func (r *TeacherRepository) ExistsByEmail(email string) (bool, error) {
	var count int
	err := r.db.Get(&count, "SELECT COUNT(*) FROM teachers WHERE email = ?", email)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *TeacherRepository) Create(teacher *models.TeacherRecord) error {
	query := `INSERT INTO teachers
	          (email, username, first_name, last_name, patronymic, institution_id,
	           position_type, workplace_type, specialty, main_subject,
	           assessment_type, assessment_score, contact_phone,
	           contract_start_date, contract_end_date, education_level,
	           graduation_university, graduation_year, password_hash, is_active)
	          VALUES (:email, :username, :first_name, :last_name, :patronymic,
	           :institution_id, :position_type, :workplace_type, :specialty,
	           :main_subject, :assessment_type, :assessment_score, :contact_phone,
	           :contract_start_date, :contract_end_date, :education_level,
	           :graduation_university, :graduation_year, :password_hash, :is_active)`
	result, err := r.db.NamedExec(query, teacher)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	teacher.ID = int(id)
	return nil
}

// UpdateByEmail refreshes the profile fields of an existing teacher. The
// password hash and username are left untouched on update.
func (r *TeacherRepository) UpdateByEmail(email string, teacher *models.TeacherRecord) error {
	teacher.Email = email
	query := `UPDATE teachers SET first_name = :first_name, last_name = :last_name,
	          patronymic = :patronymic, institution_id = :institution_id,
	          position_type = :position_type, workplace_type = :workplace_type,
	          specialty = :specialty, main_subject = :main_subject,
	          assessment_type = :assessment_type, assessment_score = :assessment_score,
	          contact_phone = :contact_phone, contract_start_date = :contract_start_date,
	          contract_end_date = :contract_end_date, education_level = :education_level,
	          graduation_university = :graduation_university,
	          graduation_year = :graduation_year
	          WHERE email = :email`
	_, err := r.db.NamedExec(query, teacher)
	return err
}

func (r *TeacherRepository) ExistingEmails(emails []string) (map[string]bool, error) {
	return existingValues(r.db, "teachers", "email", emails)
}

func (r *TeacherRepository) ExistingUsernames(usernames []string) (map[string]bool, error) {
	return existingValues(r.db, "teachers", "username", usernames)
}

func lowerKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
