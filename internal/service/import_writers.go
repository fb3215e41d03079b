package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"education-web/internal/models"
	"education-web/internal/repository"
	"education-web/internal/utils"
)

// Record writers adapt validated rows onto the per-kind repositories. The
// writers trust the pipeline: rows arriving here passed field validation,
// so conversion errors are not re-reported, only persistence errors are.

type TeacherWriter struct {
	teachers *repository.TeacherRepository
}

func NewTeacherWriter(teachers *repository.TeacherRepository) *TeacherWriter {
	return &TeacherWriter{teachers: teachers}
}

func (w *TeacherWriter) Exists(ctx context.Context, naturalKey string) (bool, error) {
	return w.teachers.ExistsByEmail(naturalKey)
}

func (w *TeacherWriter) Create(ctx context.Context, row *models.ImportRow) error {
	record, err := w.toRecord(row)
	if err != nil {
		return err
	}

	hash, err := utils.HashPassword(row.Data["password"])
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	record.PasswordHash = hash

	return w.teachers.Create(record)
}

func (w *TeacherWriter) Update(ctx context.Context, naturalKey string, row *models.ImportRow) error {
	record, err := w.toRecord(row)
	if err != nil {
		return err
	}
	return w.teachers.UpdateByEmail(naturalKey, record)
}

func (w *TeacherWriter) toRecord(row *models.ImportRow) (*models.TeacherRecord, error) {
	start, err := optDate(row.Data["contract_start_date"])
	if err != nil {
		return nil, err
	}
	end, err := optDate(row.Data["contract_end_date"])
	if err != nil {
		return nil, err
	}
	score, err := optFloat(row.Data["assessment_score"])
	if err != nil {
		return nil, err
	}
	year, err := optInt(row.Data["graduation_year"])
	if err != nil {
		return nil, err
	}

	return &models.TeacherRecord{
		Email:                strings.TrimSpace(row.Data["email"]),
		Username:             strings.TrimSpace(row.Data["username"]),
		FirstName:            strings.TrimSpace(row.Data["first_name"]),
		LastName:             strings.TrimSpace(row.Data["last_name"]),
		Patronymic:           strings.TrimSpace(row.Data["patronymic"]),
		InstitutionID:        row.InstitutionID,
		PositionType:         row.Data["position_type"],
		WorkplaceType:        row.Data["workplace_type"],
		Specialty:            row.Data["specialty"],
		MainSubject:          row.Data["main_subject"],
		AssessmentType:       row.Data["assessment_type"],
		AssessmentScore:      score,
		ContactPhone:         row.Data["contact_phone"],
		ContractStartDate:    start,
		ContractEndDate:      end,
		EducationLevel:       row.Data["education_level"],
		GraduationUniversity: row.Data["graduation_university"],
		GraduationYear:       year,
		IsActive:             true,
	}, nil
}

type StudentWriter struct {
	students *repository.StudentRepository
}

func NewStudentWriter(students *repository.StudentRepository) *StudentWriter {
	return &StudentWriter{students: students}
}

func (w *StudentWriter) Exists(ctx context.Context, naturalKey string) (bool, error) {
	return w.students.ExistsByNumber(naturalKey)
}

func (w *StudentWriter) Create(ctx context.Context, row *models.ImportRow) error {
	record, err := w.toRecord(row)
	if err != nil {
		return err
	}
	return w.students.Create(record)
}

func (w *StudentWriter) Update(ctx context.Context, naturalKey string, row *models.ImportRow) error {
	record, err := w.toRecord(row)
	if err != nil {
		return err
	}
	return w.students.UpdateByNumber(naturalKey, record)
}

func (w *StudentWriter) toRecord(row *models.ImportRow) (*models.StudentRecord, error) {
	birth, err := optDate(row.Data["birth_date"])
	if err != nil {
		return nil, err
	}
	enrollment, err := optDate(row.Data["enrollment_date"])
	if err != nil {
		return nil, err
	}

	return &models.StudentRecord{
		StudentNumber:  strings.TrimSpace(row.Data["student_number"]),
		FirstName:      strings.TrimSpace(row.Data["first_name"]),
		LastName:       strings.TrimSpace(row.Data["last_name"]),
		Patronymic:     strings.TrimSpace(row.Data["patronymic"]),
		InstitutionID:  row.InstitutionID,
		BirthDate:      birth,
		Gender:         row.Data["gender"],
		GradeName:      strings.TrimSpace(row.Data["grade_name"]),
		EnrollmentDate: enrollment,
		GuardianName:   strings.TrimSpace(row.Data["guardian_name"]),
		GuardianPhone:  row.Data["guardian_phone"],
		GuardianEmail:  strings.TrimSpace(row.Data["guardian_email"]),
		IsActive:       true,
	}, nil
}

type ClassWriter struct {
	classes *repository.ClassRepository
}

func NewClassWriter(classes *repository.ClassRepository) *ClassWriter {
	return &ClassWriter{classes: classes}
}

func (w *ClassWriter) Exists(ctx context.Context, naturalKey string) (bool, error) {
	existing, err := w.classes.ExistingClasses(classTriple(naturalKey))
	if err != nil {
		return false, err
	}
	return len(existing) > 0, nil
}

func (w *ClassWriter) Create(ctx context.Context, row *models.ImportRow) error {
	record, err := w.toRecord(row)
	if err != nil {
		return err
	}
	return w.classes.Create(record)
}

func (w *ClassWriter) Update(ctx context.Context, naturalKey string, row *models.ImportRow) error {
	record, err := w.toRecord(row)
	if err != nil {
		return err
	}
	return w.classes.Update(record)
}

func (w *ClassWriter) toRecord(row *models.ImportRow) (*models.ClassRecord, error) {
	gradeLevel, err := strconv.Atoi(strings.TrimSpace(row.Data["grade_level"]))
	if err != nil {
		return nil, fmt.Errorf("invalid grade level: %w", err)
	}
	capacity, err := optInt(row.Data["capacity"])
	if err != nil {
		return nil, err
	}

	return &models.ClassRecord{
		InstitutionID: row.InstitutionID,
		GradeLevel:    gradeLevel,
		ClassLetter:   strings.ToUpper(strings.TrimSpace(row.Data["class_letter"])),
		Capacity:      capacity,
		RoomNumber:    strings.TrimSpace(row.Data["room_number"]),
		TeacherEmail:  strings.TrimSpace(row.Data["teacher_email"]),
		AcademicYear:  strings.TrimSpace(row.Data["academic_year"]),
		IsActive:      true,
	}, nil
}

type InstitutionWriter struct {
	institutions *repository.InstitutionRepository
}

func NewInstitutionWriter(institutions *repository.InstitutionRepository) *InstitutionWriter {
	return &InstitutionWriter{institutions: institutions}
}

func (w *InstitutionWriter) Exists(ctx context.Context, naturalKey string) (bool, error) {
	if naturalKey == "" {
		// Institutions without a UTIS code are always created.
		return false, nil
	}
	return w.institutions.ExistsByUTISCode(naturalKey)
}

func (w *InstitutionWriter) Create(ctx context.Context, row *models.ImportRow) error {
	record, err := w.toRecord(row)
	if err != nil {
		return err
	}
	return w.institutions.Create(record)
}

func (w *InstitutionWriter) Update(ctx context.Context, naturalKey string, row *models.ImportRow) error {
	record, err := w.toRecord(row)
	if err != nil {
		return err
	}
	return w.institutions.UpdateByUTISCode(naturalKey, record)
}

func (w *InstitutionWriter) toRecord(row *models.ImportRow) (*models.Institution, error) {
	level, err := strconv.Atoi(strings.TrimSpace(row.Data["level"]))
	if err != nil {
		return nil, fmt.Errorf("invalid level: %w", err)
	}
	established, err := optDate(row.Data["established_date"])
	if err != nil {
		return nil, err
	}

	record := &models.Institution{
		Level:           level,
		Name:            strings.TrimSpace(row.Data["name"]),
		ShortName:       strings.TrimSpace(row.Data["short_name"]),
		Type:            row.Data["type"],
		UTISCode:        strings.TrimSpace(row.Data["utis_code"]),
		InstitutionCode: strings.TrimSpace(row.Data["new_institution_code"]),
		RegionCode:      strings.ToUpper(strings.TrimSpace(row.Data["region_code"])),
		IsActive:        true,
		EstablishedDate: established,
	}
	// The resolved node is the parent of the new institution.
	if row.InstitutionID != 0 {
		parentID := row.InstitutionID
		record.ParentID = &parentID
	}
	return record, nil
}

func classTriple(naturalKey string) []models.ClassRecord {
	parts := strings.SplitN(naturalKey, "/", 2)
	if len(parts) != 2 {
		return nil
	}
	dash := strings.LastIndex(parts[1], "-")
	if dash < 0 {
		return nil
	}
	institutionID, err1 := strconv.Atoi(parts[0])
	gradeLevel, err2 := strconv.Atoi(parts[1][:dash])
	if err1 != nil || err2 != nil {
		return nil
	}
	return []models.ClassRecord{{
		InstitutionID: institutionID,
		GradeLevel:    gradeLevel,
		ClassLetter:   parts[1][dash+1:],
	}}
}

func optDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func optInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
