package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"education-web/internal/models"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		for j, value := range row {
			cell := fmt.Sprintf("%s%d", getColumnName(j), i+1)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}

	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseImportFile(t *testing.T) {
	svc := NewExcelService()
	schema := StudentRowSchema()

	path := writeWorkbook(t, [][]interface{}{
		{"Student_Number", "First_Name ", "last_name", "birth_date", "grade_name", "gender"},
		{"STU-001", "Nigar", "Mammadova", "2012-05-14", "6A", "female"},
		{"", "", "", "", "", ""}, // blank rows are skipped
		{"STU-002", "Kamran", "Aliyev", "2012-11-02", "6A"},
	})

	sheet, err := svc.ParseImportFile(path, schema)
	require.NoError(t, err)

	// Headers are case- and whitespace-normalized.
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "STU-001", sheet.Rows[0]["student_number"])
	assert.Equal(t, "Nigar", sheet.Rows[0]["first_name"])

	// Row numbers point at the workbook, skipping the blank line.
	assert.Equal(t, []int{2, 4}, sheet.RowNumbers)

	// A short row yields empty strings, not a panic.
	assert.Equal(t, "", sheet.Rows[1]["gender"])
}

func TestParseImportFileStructuralErrors(t *testing.T) {
	svc := NewExcelService()
	schema := StudentRowSchema()

	structuralCode := func(t *testing.T, err error) string {
		t.Helper()
		require.True(t, IsStructural(err))
		var structural *StructuralError
		require.True(t, errors.As(err, &structural))
		return structural.Code
	}

	t.Run("unreadable file", func(t *testing.T) {
		_, err := svc.ParseImportFile(filepath.Join(t.TempDir(), "missing.xlsx"), schema)
		assert.Equal(t, StructuralUnreadableFile, structuralCode(t, err))
	})

	t.Run("missing required header", func(t *testing.T) {
		path := writeWorkbook(t, [][]interface{}{
			{"student_number", "first_name"},
			{"STU-001", "Nigar"},
		})
		_, err := svc.ParseImportFile(path, schema)
		assert.Equal(t, StructuralMissingHeader, structuralCode(t, err))
		assert.Contains(t, err.Error(), "last_name")
	})

	t.Run("header only, no data", func(t *testing.T) {
		path := writeWorkbook(t, [][]interface{}{
			{"student_number", "first_name", "last_name", "birth_date", "grade_name"},
		})
		_, err := svc.ParseImportFile(path, schema)
		assert.Equal(t, StructuralEmptyFile, structuralCode(t, err))
	})
}

func TestGenerateImportTemplateRoundTrip(t *testing.T) {
	svc := NewExcelService()
	schema := TeacherRowSchema()

	path := filepath.Join(t.TempDir(), "teachers_template.xlsx")
	require.NoError(t, svc.GenerateImportTemplate(schema, testInstitutions(), path))

	// The generated template parses back through the import path.
	sheet, err := svc.ParseImportFile(path, schema)
	require.NoError(t, err)
	require.NotEmpty(t, sheet.Rows)
	assert.Contains(t, sheet.Headers, ColUTISCode)
	assert.Equal(t, "r.aliyev@example.edu.az", sheet.Rows[0]["email"])

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Reference")
	assert.Contains(t, f.GetSheetList(), "Institutions")
}

func TestGenerateValidationReport(t *testing.T) {
	svc := NewExcelService()

	report := &models.ImportReport{
		TotalRows:    2,
		ValidCount:   1,
		InvalidCount: 1,
		InvalidRows: []models.ImportRow{{
			RowNumber: 3,
			Findings: []models.Finding{{
				Field:    "email",
				Value:    "nope",
				Severity: models.SeverityCritical,
				Category: models.CategoryInvalidFormat,
				Message:  "email is not a valid email address",
			}},
		}},
		ValidPercentage: 50,
	}

	path := filepath.Join(t.TempDir(), "errors.xlsx")
	require.NoError(t, svc.GenerateValidationReport(report, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Validation Errors")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, "3", rows[1][0])
	assert.Equal(t, "email", rows[1][1])
}
