package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"education-web/internal/models"
)

// Field kinds understood by the generic field validator.
const (
	KindText  = "text"
	KindEmail = "email"
	KindPhone = "phone"
	KindDate  = "date"
	KindInt   = "int"
	KindFloat = "float"
	KindBool  = "bool"
)

var (
	emailPattern      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern      = regexp.MustCompile(`^(\+994|0)?[1-9]\d{8,}$`)
	regionCodePattern = regexp.MustCompile(`^[A-Z]{2,10}$`)
)

// FieldRule is one column constraint. Zero-valued bounds are not enforced.
type FieldRule struct {
	Column   string
	Required bool
	Kind     string
	MinLen   int
	MaxLen   int
	Min      float64
	Max      float64
	HasRange bool
	Enum     []string
}

// DateOrderRule asserts End >= Start when both columns are present.
type DateOrderRule struct {
	Start string
	End   string
}

// RowSchema describes one import kind: which headers must exist, the field
// constraints, and which column is the natural key for duplicate detection.
type RowSchema struct {
	Kind             string
	RequiredHeaders  []string
	Fields           []FieldRule
	DateOrder        []DateOrderRule
	NaturalKeyColumn string
	// SecondaryKeyColumns are additional uniqueness keys checked in-batch
	// and against persisted data (e.g. username next to email).
	SecondaryKeyColumns []string
}

// Import kinds.
const (
	ImportKindTeachers     = "teachers"
	ImportKindStudents     = "students"
	ImportKindClasses      = "classes"
	ImportKindInstitutions = "institutions"
)

func SchemaForKind(kind string) (RowSchema, error) {
	switch kind {
	case ImportKindTeachers:
		return TeacherRowSchema(), nil
	case ImportKindStudents:
		return StudentRowSchema(), nil
	case ImportKindClasses:
		return ClassRowSchema(), nil
	case ImportKindInstitutions:
		return InstitutionRowSchema(), nil
	default:
		return RowSchema{}, fmt.Errorf("unknown import kind: %s", kind)
	}
}

// Position types accepted for staff rows.
var positionTypes = []string{
	"direktor",
	"direktor_muavini_tedris",
	"direktor_muavini_inzibati",
	"terbiyeci",
	"metodik_birlesme_rehberi",
	"muellim_sinif_rehberi",
	"muellim",
	"psixoloq",
	"kitabxanaci",
	"laborant",
	"tibb_iscisi",
}

func TeacherRowSchema() RowSchema {
	return RowSchema{
		Kind: ImportKindTeachers,
		RequiredHeaders: []string{
			"email", "username", "first_name", "last_name", "patronymic",
			"position_type", "workplace_type", "password",
		},
		Fields: []FieldRule{
			{Column: "email", Required: true, Kind: KindEmail, MaxLen: 255},
			{Column: "username", Required: true, Kind: KindText, MinLen: 3, MaxLen: 50},
			{Column: "first_name", Required: true, Kind: KindText, MaxLen: 100},
			{Column: "last_name", Required: true, Kind: KindText, MaxLen: 100},
			{Column: "patronymic", Required: true, Kind: KindText, MaxLen: 100},
			{Column: "position_type", Required: true, Kind: KindText, Enum: positionTypes},
			{Column: "workplace_type", Required: true, Kind: KindText, Enum: []string{"primary", "secondary"}},
			{Column: "password", Required: true, Kind: KindText, MinLen: 8},
			{Column: "specialty", Kind: KindText, MaxLen: 255},
			{Column: "main_subject", Kind: KindText, MaxLen: 255},
			{Column: "assessment_type", Kind: KindText, Enum: []string{"sertifikasiya", "miq_100", "miq_60", "diaqnostik"}},
			{Column: "assessment_score", Kind: KindFloat, Min: 0, Max: 100, HasRange: true},
			{Column: "contact_phone", Kind: KindPhone, MaxLen: 20},
			{Column: "contract_start_date", Kind: KindDate},
			{Column: "contract_end_date", Kind: KindDate},
			{Column: "education_level", Kind: KindText, Enum: []string{"bachelor", "master", "phd"}},
			{Column: "graduation_university", Kind: KindText, MaxLen: 255},
			{Column: "graduation_year", Kind: KindInt, Min: 1950, Max: float64(time.Now().Year()), HasRange: true},
			{Column: "notes", Kind: KindText, MaxLen: 1000},
		},
		DateOrder: []DateOrderRule{
			{Start: "contract_start_date", End: "contract_end_date"},
		},
		NaturalKeyColumn:    "email",
		SecondaryKeyColumns: []string{"username"},
	}
}

func StudentRowSchema() RowSchema {
	return RowSchema{
		Kind: ImportKindStudents,
		RequiredHeaders: []string{
			"student_number", "first_name", "last_name", "birth_date", "grade_name",
		},
		Fields: []FieldRule{
			{Column: "student_number", Required: true, Kind: KindText, MaxLen: 50},
			{Column: "first_name", Required: true, Kind: KindText, MaxLen: 100},
			{Column: "last_name", Required: true, Kind: KindText, MaxLen: 100},
			{Column: "patronymic", Kind: KindText, MaxLen: 100},
			{Column: "birth_date", Required: true, Kind: KindDate},
			{Column: "gender", Kind: KindText, Enum: []string{"male", "female"}},
			{Column: "grade_name", Required: true, Kind: KindText, MaxLen: 20},
			{Column: "enrollment_date", Kind: KindDate},
			{Column: "guardian_name", Kind: KindText, MaxLen: 200},
			{Column: "guardian_phone", Kind: KindPhone, MaxLen: 20},
			{Column: "guardian_email", Kind: KindEmail, MaxLen: 255},
		},
		DateOrder: []DateOrderRule{
			{Start: "birth_date", End: "enrollment_date"},
		},
		NaturalKeyColumn: "student_number",
	}
}

func ClassRowSchema() RowSchema {
	return RowSchema{
		Kind: ImportKindClasses,
		RequiredHeaders: []string{
			"grade_level", "class_letter",
		},
		Fields: []FieldRule{
			{Column: "grade_level", Required: true, Kind: KindInt, Min: 1, Max: 11, HasRange: true},
			{Column: "class_letter", Required: true, Kind: KindText, MaxLen: 5},
			{Column: "capacity", Kind: KindInt, Min: 1, Max: 60, HasRange: true},
			{Column: "room_number", Kind: KindText, MaxLen: 20},
			{Column: "teacher_email", Kind: KindEmail, MaxLen: 255},
			{Column: "academic_year", Kind: KindText, MaxLen: 9},
		},
		// Natural key is synthesized from institution + level + letter at
		// duplicate-check time; there is no single key column.
	}
}

func InstitutionRowSchema() RowSchema {
	return RowSchema{
		Kind: ImportKindInstitutions,
		RequiredHeaders: []string{
			"name", "type", "level",
		},
		Fields: []FieldRule{
			{Column: "name", Required: true, Kind: KindText, MinLen: 3, MaxLen: 255},
			{Column: "short_name", Kind: KindText, MaxLen: 50},
			{Column: "type", Required: true, Kind: KindText, Enum: []string{
				"regional_education_department", "sector_education_office",
				"secondary_school", "primary_school", "lyceum", "gymnasium", "kindergarten",
			}},
			{Column: "level", Required: true, Kind: KindInt, Min: 1, Max: 4, HasRange: true},
			{Column: "utis_code", Kind: KindText, MaxLen: 50},
			{Column: "new_institution_code", Kind: KindText, MaxLen: 50},
			{Column: "region_code", Kind: KindText, MaxLen: 10},
			{Column: "phone", Kind: KindPhone, MaxLen: 20},
			{Column: "email", Kind: KindEmail, MaxLen: 255},
			{Column: "address", Kind: KindText, MaxLen: 500},
			{Column: "student_count", Kind: KindInt, Min: 0, Max: 100000, HasRange: true},
			{Column: "teacher_count", Kind: KindInt, Min: 0, Max: 10000, HasRange: true},
			{Column: "classroom_count", Kind: KindInt, Min: 0, Max: 1000, HasRange: true},
			{Column: "established_date", Kind: KindDate},
		},
		NaturalKeyColumn: "utis_code",
	}
}

// ValidateFields applies the schema's field rules to one row and returns the
// findings. Presence rules run first; format, bounds and enum membership are
// checked only on non-empty values.
func (s RowSchema) ValidateFields(row map[string]string) []models.Finding {
	var findings []models.Finding

	for _, rule := range s.Fields {
		value := strings.TrimSpace(row[rule.Column])

		if value == "" {
			if rule.Required {
				findings = append(findings, models.Finding{
					Field:    rule.Column,
					Severity: models.SeverityCritical,
					Category: models.CategoryMissingField,
					Message:  fmt.Sprintf("%s is required", rule.Column),
				})
			}
			continue
		}

		if rule.MinLen > 0 && len(value) < rule.MinLen {
			findings = append(findings, models.Finding{
				Field:    rule.Column,
				Value:    value,
				Severity: models.SeverityCritical,
				Category: models.CategoryInvalidFormat,
				Message:  fmt.Sprintf("%s must be at least %d characters", rule.Column, rule.MinLen),
			})
		}
		if rule.MaxLen > 0 && len(value) > rule.MaxLen {
			findings = append(findings, models.Finding{
				Field:    rule.Column,
				Value:    value,
				Severity: models.SeverityCritical,
				Category: models.CategoryInvalidFormat,
				Message:  fmt.Sprintf("%s cannot exceed %d characters", rule.Column, rule.MaxLen),
			})
		}

		findings = append(findings, validateKind(rule, value)...)

		if len(rule.Enum) > 0 && !containsString(rule.Enum, value) {
			findings = append(findings, models.Finding{
				Field:      rule.Column,
				Value:      value,
				Severity:   models.SeverityCritical,
				Category:   models.CategoryInvalidEnum,
				Message:    fmt.Sprintf("%s must be one of: %s", rule.Column, strings.Join(rule.Enum, ", ")),
				Suggestion: fmt.Sprintf("accepted values for %s are listed on the template reference sheet", rule.Column),
			})
		}
	}

	for _, order := range s.DateOrder {
		start := strings.TrimSpace(row[order.Start])
		end := strings.TrimSpace(row[order.End])
		if start == "" || end == "" {
			continue
		}
		startDate, err1 := parseDate(start)
		endDate, err2 := parseDate(end)
		if err1 != nil || err2 != nil {
			continue // format findings already recorded per field
		}
		if endDate.Before(startDate) {
			findings = append(findings, models.Finding{
				Field:    order.End,
				Value:    end,
				Severity: models.SeverityCritical,
				Category: models.CategoryCrossField,
				Message:  fmt.Sprintf("%s must not be earlier than %s", order.End, order.Start),
			})
		}
	}

	return findings
}

func validateKind(rule FieldRule, value string) []models.Finding {
	var findings []models.Finding

	switch rule.Kind {
	case KindEmail:
		if !emailPattern.MatchString(value) {
			findings = append(findings, models.Finding{
				Field:      rule.Column,
				Value:      value,
				Severity:   models.SeverityCritical,
				Category:   models.CategoryInvalidFormat,
				Message:    fmt.Sprintf("%s is not a valid email address", rule.Column),
				Suggestion: "expected format: name@domain.com",
			})
		}
	case KindPhone:
		normalized := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' || r == '+' {
				return r
			}
			return -1
		}, value)
		if !phonePattern.MatchString(normalized) {
			// Non-standard phone formats are tolerated, flagged only.
			findings = append(findings, models.Finding{
				Field:      rule.Column,
				Value:      value,
				Severity:   models.SeverityWarning,
				Category:   models.CategoryInvalidFormat,
				Message:    fmt.Sprintf("%s has a non-standard phone format", rule.Column),
				Suggestion: "expected format: +994XXXXXXXXX",
			})
		}
	case KindDate:
		if _, err := parseDate(value); err != nil {
			findings = append(findings, models.Finding{
				Field:      rule.Column,
				Value:      value,
				Severity:   models.SeverityCritical,
				Category:   models.CategoryInvalidFormat,
				Message:    fmt.Sprintf("%s is not a recognizable date", rule.Column),
				Suggestion: "use YYYY-MM-DD",
			})
		}
	case KindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			findings = append(findings, models.Finding{
				Field:    rule.Column,
				Value:    value,
				Severity: models.SeverityCritical,
				Category: models.CategoryInvalidFormat,
				Message:  fmt.Sprintf("%s must be a whole number", rule.Column),
			})
			break
		}
		if rule.HasRange && (float64(n) < rule.Min || float64(n) > rule.Max) {
			findings = append(findings, models.Finding{
				Field:    rule.Column,
				Value:    value,
				Severity: models.SeverityCritical,
				Category: models.CategoryInvalidFormat,
				Message:  fmt.Sprintf("%s must be between %d and %d", rule.Column, int(rule.Min), int(rule.Max)),
			})
		}
	case KindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			findings = append(findings, models.Finding{
				Field:    rule.Column,
				Value:    value,
				Severity: models.SeverityCritical,
				Category: models.CategoryInvalidFormat,
				Message:  fmt.Sprintf("%s must be a number", rule.Column),
			})
			break
		}
		if rule.HasRange && (f < rule.Min || f > rule.Max) {
			findings = append(findings, models.Finding{
				Field:    rule.Column,
				Value:    value,
				Severity: models.SeverityCritical,
				Category: models.CategoryInvalidFormat,
				Message:  fmt.Sprintf("%s must be between %g and %g", rule.Column, rule.Min, rule.Max),
			})
		}
	case KindBool:
		if !isBooleanLike(value) {
			findings = append(findings, models.Finding{
				Field:    rule.Column,
				Value:    value,
				Severity: models.SeverityCritical,
				Category: models.CategoryInvalidFormat,
				Message:  fmt.Sprintf("%s must be Yes/No, Y/N, 1/0, or true/false", rule.Column),
			})
		}
	}

	return findings
}

// NaturalKey extracts the row's natural key value, or builds the synthetic
// class key when the schema has no single key column.
func (s RowSchema) NaturalKey(row map[string]string, institutionID int) string {
	if s.NaturalKeyColumn != "" {
		return strings.TrimSpace(row[s.NaturalKeyColumn])
	}
	if s.Kind == ImportKindClasses {
		level := strings.TrimSpace(row["grade_level"])
		letter := strings.TrimSpace(row["class_letter"])
		if level == "" && letter == "" {
			return ""
		}
		n, err := strconv.Atoi(level)
		if err != nil {
			return ""
		}
		return models.ClassKey(institutionID, n, letter)
	}
	return ""
}

// ValidateRegionCode flags region codes that do not match the expected
// uppercase short form. Warning only, mirroring the reference data rules.
func ValidateRegionCode(value string) *models.Finding {
	code := strings.TrimSpace(value)
	if code == "" || regionCodePattern.MatchString(code) {
		return nil
	}
	return &models.Finding{
		Field:      "region_code",
		Value:      code,
		Severity:   models.SeverityWarning,
		Category:   models.CategoryInvalidFormat,
		Message:    "region code format is unusual (2-10 uppercase letters expected)",
		Suggestion: "check the region code against the reference sheet",
	}
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func isBooleanLike(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "no", "y", "n", "1", "0", "true", "false":
		return true
	}
	return false
}

func parseBoolValue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "1", "true":
		return true
	}
	return false
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	formats := []string{
		"2006-01-02", // ISO standard
		"2006/01/02",
		"02-01-2006", // European
		"02/01/2006",
		"01/02/2006", // US, as exported by some spreadsheet locales
		"02 Jan 2006",
		"Jan 02, 2006",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}
