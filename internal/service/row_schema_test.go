package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"education-web/internal/models"
)

func validTeacherRow() map[string]string {
	return map[string]string{
		"email":          "aliyeva.g@example.edu.az",
		"username":       "g.aliyeva",
		"first_name":     "Gunel",
		"last_name":      "Aliyeva",
		"patronymic":     "Rashid",
		"position_type":  "muellim",
		"workplace_type": "primary",
		"password":       "s3cret-pass",
	}
}

func findingFor(findings []models.Finding, field string) *models.Finding {
	for i := range findings {
		if findings[i].Field == field {
			return &findings[i]
		}
	}
	return nil
}

func TestValidateFieldsCleanRow(t *testing.T) {
	schema := TeacherRowSchema()
	assert.Empty(t, schema.ValidateFields(validTeacherRow()))
}

func TestValidateFieldsRequired(t *testing.T) {
	schema := TeacherRowSchema()
	row := validTeacherRow()
	row["email"] = ""
	row["last_name"] = "   "

	findings := schema.ValidateFields(row)
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, models.SeverityCritical, f.Severity)
		assert.Equal(t, models.CategoryMissingField, f.Category)
	}
}

func TestValidateFieldsFormats(t *testing.T) {
	schema := TeacherRowSchema()

	t.Run("bad email", func(t *testing.T) {
		row := validTeacherRow()
		row["email"] = "not-an-email"
		f := findingFor(schema.ValidateFields(row), "email")
		require.NotNil(t, f)
		assert.Equal(t, models.SeverityCritical, f.Severity)
		assert.Equal(t, models.CategoryInvalidFormat, f.Category)
	})

	t.Run("short username", func(t *testing.T) {
		row := validTeacherRow()
		row["username"] = "ab"
		f := findingFor(schema.ValidateFields(row), "username")
		require.NotNil(t, f)
		assert.Contains(t, f.Message, "at least 3")
	})

	t.Run("overlong field", func(t *testing.T) {
		row := validTeacherRow()
		row["first_name"] = strings.Repeat("a", 101)
		f := findingFor(schema.ValidateFields(row), "first_name")
		require.NotNil(t, f)
		assert.Contains(t, f.Message, "cannot exceed 100")
	})

	t.Run("unknown enum value", func(t *testing.T) {
		row := validTeacherRow()
		row["position_type"] = "astronaut"
		f := findingFor(schema.ValidateFields(row), "position_type")
		require.NotNil(t, f)
		assert.Equal(t, models.CategoryInvalidEnum, f.Category)
	})

	t.Run("score out of range", func(t *testing.T) {
		row := validTeacherRow()
		row["assessment_score"] = "150"
		f := findingFor(schema.ValidateFields(row), "assessment_score")
		require.NotNil(t, f)
		assert.Contains(t, f.Message, "between 0 and 100")
	})

	t.Run("score not numeric", func(t *testing.T) {
		row := validTeacherRow()
		row["assessment_score"] = "ninety"
		f := findingFor(schema.ValidateFields(row), "assessment_score")
		require.NotNil(t, f)
		assert.Equal(t, models.CategoryInvalidFormat, f.Category)
	})

	t.Run("unparseable date", func(t *testing.T) {
		row := validTeacherRow()
		row["contract_start_date"] = "next tuesday"
		f := findingFor(schema.ValidateFields(row), "contract_start_date")
		require.NotNil(t, f)
		assert.Equal(t, models.CategoryInvalidFormat, f.Category)
	})

	t.Run("phone warning is not critical", func(t *testing.T) {
		row := validTeacherRow()
		row["contact_phone"] = "12"
		f := findingFor(schema.ValidateFields(row), "contact_phone")
		require.NotNil(t, f)
		assert.Equal(t, models.SeverityWarning, f.Severity)
	})

	t.Run("optional empty fields stay silent", func(t *testing.T) {
		row := validTeacherRow()
		row["specialty"] = ""
		row["assessment_score"] = ""
		assert.Empty(t, schema.ValidateFields(row))
	})
}

func TestValidateFieldsDateOrder(t *testing.T) {
	schema := TeacherRowSchema()

	t.Run("reversed contract dates", func(t *testing.T) {
		row := validTeacherRow()
		row["contract_start_date"] = "2025-09-01"
		row["contract_end_date"] = "2024-06-15"
		f := findingFor(schema.ValidateFields(row), "contract_end_date")
		require.NotNil(t, f)
		assert.Equal(t, models.CategoryCrossField, f.Category)
	})

	t.Run("equal dates are allowed", func(t *testing.T) {
		row := validTeacherRow()
		row["contract_start_date"] = "2025-09-01"
		row["contract_end_date"] = "2025-09-01"
		assert.Empty(t, schema.ValidateFields(row))
	})

	t.Run("order skipped when one side is broken", func(t *testing.T) {
		row := validTeacherRow()
		row["contract_start_date"] = "garbage"
		row["contract_end_date"] = "2024-06-15"
		findings := schema.ValidateFields(row)
		require.Len(t, findings, 1)
		assert.Equal(t, models.CategoryInvalidFormat, findings[0].Category)
	})
}

func TestParseDateFormats(t *testing.T) {
	for _, raw := range []string{
		"2024-09-15",
		"2024/09/15",
		"15-09-2024",
		"15/09/2024",
		"15 Sep 2024",
		"Sep 15, 2024",
	} {
		_, err := parseDate(raw)
		assert.NoError(t, err, raw)
	}

	_, err := parseDate("15th of September")
	assert.Error(t, err)
}

func TestNaturalKey(t *testing.T) {
	t.Run("key column", func(t *testing.T) {
		schema := TeacherRowSchema()
		assert.Equal(t, "a@b.az", schema.NaturalKey(map[string]string{"email": "  a@b.az "}, 6))
	})

	t.Run("synthetic class key", func(t *testing.T) {
		schema := ClassRowSchema()
		key := schema.NaturalKey(map[string]string{"grade_level": "5", "class_letter": "b"}, 6)
		assert.Equal(t, models.ClassKey(6, 5, "b"), key)
		assert.Equal(t, "6/5-B", key)
	})

	t.Run("class key with broken level", func(t *testing.T) {
		schema := ClassRowSchema()
		assert.Empty(t, schema.NaturalKey(map[string]string{"grade_level": "x", "class_letter": "b"}, 6))
	})
}

func TestValidateRegionCode(t *testing.T) {
	assert.Nil(t, ValidateRegionCode("BA"))
	assert.Nil(t, ValidateRegionCode(""))

	f := ValidateRegionCode("ba-12")
	require.NotNil(t, f)
	assert.Equal(t, models.SeverityWarning, f.Severity)
}

func TestSchemaForKind(t *testing.T) {
	for _, kind := range []string{ImportKindTeachers, ImportKindStudents, ImportKindClasses, ImportKindInstitutions} {
		schema, err := SchemaForKind(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, schema.Kind)
	}

	_, err := SchemaForKind("furniture")
	assert.Error(t, err)
}
