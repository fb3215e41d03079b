package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"education-web/internal/models"
)

type InstitutionRepository struct {
	db *sqlx.DB
}

func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// FindAllActive loads every active institution. The hierarchy snapshot is
// built from this set on startup and after tree mutations.
func (r *InstitutionRepository) FindAllActive() ([]models.Institution, error) {
	var institutions []models.Institution
	query := `
		SELECT id,
		       parent_id,
		       level,
		       name,
		       COALESCE(short_name, '') as short_name,
		       type,
		       COALESCE(utis_code, '') as utis_code,
		       COALESCE(institution_code, '') as institution_code,
		       COALESCE(region_code, '') as region_code,
		       is_active,
		       established_date,
		       created_at,
		       updated_at
		FROM institutions
		WHERE is_active = 1
		ORDER BY level, id`
	err := r.db.Select(&institutions, query)
	if err != nil {
		return nil, err
	}
	return institutions, nil
}

func (r *InstitutionRepository) FindByID(id int) (*models.Institution, error) {
	var institution models.Institution
	query := "SELECT * FROM institutions WHERE id = ? LIMIT 1"
	err := r.db.Get(&institution, query, id)
	if err != nil {
		return nil, err
	}
	return &institution, nil
}

func (r *InstitutionRepository) FindByUTISCode(code string) (*models.Institution, error) {
	var institution models.Institution
	query := "SELECT * FROM institutions WHERE utis_code = ? LIMIT 1"
	err := r.db.Get(&institution, query, code)
	if err != nil {
		return nil, err
	}
	return &institution, nil
}

func (r *InstitutionRepository) Create(institution *models.Institution) error {
	query := `INSERT INTO institutions
	          (parent_id, level, name, short_name, type, utis_code, institution_code,
	           region_code, is_active, established_date)
	          VALUES (:parent_id, :level, :name, :short_name, :type, :utis_code,
	           :institution_code, :region_code, :is_active, :established_date)`
	result, err := r.db.NamedExec(query, institution)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	institution.ID = int(id)
	return nil
}

func (r *InstitutionRepository) Update(institution *models.Institution) error {
	query := `UPDATE institutions SET parent_id = :parent_id, level = :level,
	          name = :name, short_name = :short_name, type = :type,
	          utis_code = :utis_code, institution_code = :institution_code,
	          region_code = :region_code, is_active = :is_active,
	          established_date = :established_date
	          WHERE id = :id`
	_, err := r.db.NamedExec(query, institution)
	return err
}

func (r *InstitutionRepository) UpdateByUTISCode(code string, institution *models.Institution) error {
	query := `UPDATE institutions SET name = :name, short_name = :short_name,
	          type = :type, institution_code = :institution_code,
	          region_code = :region_code, established_date = :established_date
	          WHERE utis_code = :utis_code`
	institution.UTISCode = code
	_, err := r.db.NamedExec(query, institution)
	return err
}

func (r *InstitutionRepository) ExistsByUTISCode(code string) (bool, error) {
	var count int
	err := r.db.Get(&count, "SELECT COUNT(*) FROM institutions WHERE utis_code = ?", code)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistingUTISCodes returns the subset of codes already persisted,
// lowercased for case-insensitive matching.
func (r *InstitutionRepository) ExistingUTISCodes(codes []string) (map[string]bool, error) {
	return existingValues(r.db, "institutions", "utis_code", codes)
}

// existingValues runs one IN query and returns the matched values as a
// lowercased set. Shared by all key-preload lookups.
func existingValues(db *sqlx.DB, table, column string, values []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(values) == 0 {
		return existing, nil
	}

	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (?)", column, table, column), values)
	if err != nil {
		return nil, err
	}

	var matched []string
	err = db.Select(&matched, db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, v := range matched {
		existing[lowerKey(v)] = true
	}
	return existing, nil
}
