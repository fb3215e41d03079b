package repository

import (
	"github.com/jmoiron/sqlx"

	"education-web/internal/models"
)

type StudentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) FindByNumber(number string) (*models.StudentRecord, error) {
	var student models.StudentRecord
	query := "SELECT * FROM students WHERE student_number = ? LIMIT 1"
	err := r.db.Get(&student, query, number)
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *StudentRepository) ExistsByNumber(number string) (bool, error) {
	var count int
	err := r.db.Get(&count, "SELECT COUNT(*) FROM students WHERE student_number = ?", number)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *StudentRepository) Create(student *models.StudentRecord) error {
	query := `INSERT INTO students
	          (student_number, first_name, last_name, patronymic, institution_id,
	           birth_date, gender, grade_name, enrollment_date,
	           guardian_name, guardian_phone, guardian_email, is_active)
	          VALUES (:student_number, :first_name, :last_name, :patronymic,
	           :institution_id, :birth_date, :gender, :grade_name, :enrollment_date,
	           :guardian_name, :guardian_phone, :guardian_email, :is_active)`
	result, err := r.db.NamedExec(query, student)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	student.ID = int(id)
	return nil
}

func (r *StudentRepository) UpdateByNumber(number string, student *models.StudentRecord) error {
	student.StudentNumber = number
	query := `UPDATE students SET first_name = :first_name, last_name = :last_name,
	          patronymic = :patronymic, institution_id = :institution_id,
	          birth_date = :birth_date, gender = :gender, grade_name = :grade_name,
	          enrollment_date = :enrollment_date, guardian_name = :guardian_name,
	          guardian_phone = :guardian_phone, guardian_email = :guardian_email
	          WHERE student_number = :student_number`
	_, err := r.db.NamedExec(query, student)
	return err
}

func (r *StudentRepository) ExistingNumbers(numbers []string) (map[string]bool, error) {
	return existingValues(r.db, "students", "student_number", numbers)
}
