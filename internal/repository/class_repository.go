package repository

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"education-web/internal/models"
)

type ClassRepository struct {
	db *sqlx.DB
}

func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) Exists(institutionID, gradeLevel int, classLetter string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM classes
	          WHERE institution_id = ? AND grade_level = ? AND class_letter = ?`
	err := r.db.Get(&count, query, institutionID, gradeLevel, strings.ToUpper(classLetter))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ClassRepository) Create(class *models.ClassRecord) error {
	class.ClassLetter = strings.ToUpper(class.ClassLetter)
	query := `INSERT INTO classes
	          (institution_id, grade_level, class_letter, capacity, room_number,
	           teacher_email, academic_year, is_active)
	          VALUES (:institution_id, :grade_level, :class_letter, :capacity,
	           :room_number, :teacher_email, :academic_year, :is_active)`
	result, err := r.db.NamedExec(query, class)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	class.ID = int(id)
	return nil
}

func (r *ClassRepository) Update(class *models.ClassRecord) error {
	class.ClassLetter = strings.ToUpper(class.ClassLetter)
	query := `UPDATE classes SET capacity = :capacity, room_number = :room_number,
	          teacher_email = :teacher_email, academic_year = :academic_year
	          WHERE institution_id = :institution_id AND grade_level = :grade_level
	            AND class_letter = :class_letter`
	_, err := r.db.NamedExec(query, class)
	return err
}

// ExistingClasses checks (institution, grade, letter) triples in one query
// and returns the matched ones keyed by the same synthetic form the import
// uses: "<institution_id>/<grade_level>-<LETTER>".
func (r *ClassRepository) ExistingClasses(triples []models.ClassRecord) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(triples) == 0 {
		return existing, nil
	}

	var conditions []string
	var args []interface{}
	for _, t := range triples {
		conditions = append(conditions, "(institution_id = ? AND grade_level = ? AND class_letter = ?)")
		args = append(args, t.InstitutionID, t.GradeLevel, strings.ToUpper(t.ClassLetter))
	}

	query := `SELECT institution_id, grade_level, class_letter FROM classes WHERE ` +
		strings.Join(conditions, " OR ")

	var matched []models.ClassRecord
	err := r.db.Select(&matched, query, args...)
	if err != nil {
		return nil, err
	}

	for _, m := range matched {
		existing[lowerKey(models.ClassKey(m.InstitutionID, m.GradeLevel, m.ClassLetter))] = true
	}
	return existing, nil
}
