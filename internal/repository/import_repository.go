package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"education-web/internal/models"
)

type ImportSessionRepository struct {
	db *sqlx.DB
}

func NewImportSessionRepository(db *sqlx.DB) *ImportSessionRepository {
	return &ImportSessionRepository{db: db}
}

func (r *ImportSessionRepository) Create(session *models.ImportSession) error {
	query := `INSERT INTO import_sessions
	          (session_code, user_id, kind, filename, file_path, total_rows,
	           processed_rows, failed_rows, status, error_message)
	          VALUES (:session_code, :user_id, :kind, :filename, :file_path,
	           :total_rows, :processed_rows, :failed_rows, :status, :error_message)`
	result, err := r.db.NamedExec(query, session)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	session.ID = int(id)
	return nil
}

func (r *ImportSessionRepository) FindByCode(code string) (*models.ImportSession, error) {
	var session models.ImportSession
	query := "SELECT * FROM import_sessions WHERE session_code = ? LIMIT 1"
	err := r.db.Get(&session, query, code)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ImportSessionRepository) FindByUser(userID, limit, offset int) ([]models.ImportSession, int, error) {
	var sessions []models.ImportSession
	var total int

	err := r.db.Get(&total, "SELECT COUNT(*) FROM import_sessions WHERE user_id = ?", userID)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM import_sessions WHERE user_id = ?
	          ORDER BY created_at DESC LIMIT ? OFFSET ?`
	err = r.db.Select(&sessions, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *ImportSessionRepository) UpdateFilePath(code, filePath string) error {
	_, err := r.db.Exec("UPDATE import_sessions SET file_path = ? WHERE session_code = ?", filePath, code)
	return err
}

func (r *ImportSessionRepository) UpdateStatus(code, status, errorMessage string) error {
	query := `UPDATE import_sessions SET status = ?, error_message = ?
	          WHERE session_code = ?`
	_, err := r.db.Exec(query, status, errorMessage, code)
	return err
}

func (r *ImportSessionRepository) UpdateProgress(code string, totalRows, processedRows, failedRows int) error {
	query := `UPDATE import_sessions SET total_rows = ?, processed_rows = ?,
	          failed_rows = ? WHERE session_code = ?`
	_, err := r.db.Exec(query, totalRows, processedRows, failedRows, code)
	return err
}

// ImportKeyRepository answers the validation pipeline's bulk key-existence
// questions for every import kind.
type ImportKeyRepository struct {
	db      *sqlx.DB
	classes *ClassRepository
}

func NewImportKeyRepository(db *sqlx.DB) *ImportKeyRepository {
	return &ImportKeyRepository{db: db, classes: NewClassRepository(db)}
}

func (r *ImportKeyRepository) ExistingNaturalKeys(ctx context.Context, kind string, keys []string) (map[string]bool, error) {
	switch kind {
	case "teachers":
		return existingValues(r.db, "teachers", "email", keys)
	case "students":
		return existingValues(r.db, "students", "student_number", keys)
	case "institutions":
		return existingValues(r.db, "institutions", "utis_code", keys)
	case "classes":
		return r.existingClassKeys(keys)
	}
	return nil, fmt.Errorf("unknown import kind: %s", kind)
}

func (r *ImportKeyRepository) ExistingSecondaryKeys(ctx context.Context, kind, column string, keys []string) (map[string]bool, error) {
	if kind == "teachers" && column == "username" {
		return existingValues(r.db, "teachers", "username", keys)
	}
	return nil, fmt.Errorf("unknown secondary key %s.%s", kind, column)
}

func (r *ImportKeyRepository) existingClassKeys(keys []string) (map[string]bool, error) {
	var triples []models.ClassRecord
	for _, key := range keys {
		if triple, ok := parseClassKey(key); ok {
			triples = append(triples, triple)
		}
	}
	return r.classes.ExistingClasses(triples)
}

// parseClassKey inverts models.ClassKey.
func parseClassKey(key string) (models.ClassRecord, bool) {
	slash := strings.Index(key, "/")
	dash := strings.LastIndex(key, "-")
	if slash < 0 || dash < slash {
		return models.ClassRecord{}, false
	}

	institutionID, err1 := strconv.Atoi(key[:slash])
	gradeLevel, err2 := strconv.Atoi(key[slash+1 : dash])
	letter := key[dash+1:]
	if err1 != nil || err2 != nil || letter == "" {
		return models.ClassRecord{}, false
	}

	return models.ClassRecord{
		InstitutionID: institutionID,
		GradeLevel:    gradeLevel,
		ClassLetter:   letter,
	}, true
}
