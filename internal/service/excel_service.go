package service

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"education-web/internal/models"
)

type ExcelService struct{}

func NewExcelService() *ExcelService {
	return &ExcelService{}
}

// ParsedSheet is an Excel sheet decoded into header-keyed rows. RowNumbers
// holds the original 1-based workbook row for each entry in Rows, so report
// rows can point back at the uploaded file.
type ParsedSheet struct {
	Headers    []string
	Rows       []map[string]string
	RowNumbers []int
}

// ParseImportFile reads the first sheet of an uploaded workbook and returns
// header-keyed rows. Missing expected headers and an empty data region are
// structural failures; no per-row validation happens here.
func (s *ExcelService) ParseImportFile(filePath string, schema RowSchema) (*ParsedSheet, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, NewStructuralError(StructuralUnreadableFile, fmt.Sprintf("failed to open Excel file: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewStructuralError(StructuralUnreadableFile, "no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, NewStructuralError(StructuralUnreadableFile, fmt.Sprintf("failed to read rows: %v", err))
	}

	if len(rows) == 0 {
		return nil, NewStructuralError(StructuralMissingHeader, "file has no header row")
	}

	headers := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(rows[0]))
	for i, h := range rows[0] {
		name := normalizeHeader(h)
		headers[i] = name
		seen[name] = true
	}

	var missing []string
	for _, required := range schema.RequiredHeaders {
		if !seen[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, NewStructuralError(StructuralMissingHeader,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	parsed := &ParsedSheet{Headers: headers}
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		data := make(map[string]string, len(headers))
		for col, name := range headers {
			if name == "" {
				continue
			}
			data[name] = getCellValue(row, col)
		}
		parsed.Rows = append(parsed.Rows, data)
		parsed.RowNumbers = append(parsed.RowNumbers, i+1)
	}

	if len(parsed.Rows) == 0 {
		return nil, NewStructuralError(StructuralEmptyFile, "file must contain at least one data row")
	}

	return parsed, nil
}

// Templates: one sheet of headers plus sample rows, one reference sheet with
// the accepted values for each enum column.

// GenerateImportTemplate writes a template workbook for one import kind.
// When institutions are given (the caller's scope, typically) they are listed
// on their own sheet so operators can copy codes instead of guessing them.
func (s *ExcelService) GenerateImportTemplate(schema RowSchema, institutions []models.Institution, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := templateSheetName(schema.Kind)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	headers := templateHeaders(schema)
	for i, header := range headers {
		cell := fmt.Sprintf("%s1", getColumnName(i))
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", getColumnName(len(headers)-1)), headerStyle)

	for rowIdx, rowData := range sampleRows(schema.Kind) {
		row := rowIdx + 2
		for colIdx, value := range rowData {
			cell := fmt.Sprintf("%s%d", getColumnName(colIdx), row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		colName := getColumnName(i)
		f.SetColWidth(sheetName, colName, colName, 22)
	}

	s.writeReferenceSheet(f, schema)
	if len(institutions) > 0 {
		s.writeInstitutionSheet(f, institutions)
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(outputPath)
}

// writeReferenceSheet lists accepted enum values and the resolution columns.
func (s *ExcelService) writeReferenceSheet(f *excelize.File, schema RowSchema) {
	sheetName := "Reference"
	if _, err := f.NewSheet(sheetName); err != nil {
		return
	}

	f.SetCellValue(sheetName, "A1", "Column")
	f.SetCellValue(sheetName, "B1", "Accepted Values")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", "B1", headerStyle)

	row := 2
	for _, rule := range schema.Fields {
		if len(rule.Enum) == 0 {
			continue
		}
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rule.Column)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), strings.Join(rule.Enum, ", "))
		row++
	}

	row += 2
	notes := []string{
		"Institution resolution:",
		fmt.Sprintf("Fill exactly one of %s, %s or %s to identify the institution.",
			ColUTISCode, ColInstitutionCode, ColInstitutionID),
		fmt.Sprintf("%s is matched by exact name only as a last resort.", ColInstitutionName),
		"Dates use the YYYY-MM-DD format.",
	}
	for i, note := range notes {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row+i), note)
	}

	f.SetColWidth(sheetName, "A", "A", 30)
	f.SetColWidth(sheetName, "B", "B", 80)
}

// writeInstitutionSheet lists the institutions the caller may target, with
// the codes the resolver accepts.
func (s *ExcelService) writeInstitutionSheet(f *excelize.File, institutions []models.Institution) {
	sheetName := "Institutions"
	if _, err := f.NewSheet(sheetName); err != nil {
		return
	}

	headers := []string{"UTIS Code", "Institution Code", "ID", "Name", "Level"}
	for i, header := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s1", getColumnName(i)), header)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", getColumnName(len(headers)-1)), headerStyle)

	for i, inst := range institutions {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), inst.UTISCode)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), inst.InstitutionCode)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), inst.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), inst.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), inst.Level)
	}

	f.SetColWidth(sheetName, "A", "B", 18)
	f.SetColWidth(sheetName, "D", "D", 50)
}

// GenerateValidationReport writes the invalid rows of a report into a
// workbook operators can fix up and re-upload: one finding per line, with
// a summary block at the bottom.
func (s *ExcelService) GenerateValidationReport(report *models.ImportReport, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Validation Errors"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	headers := []string{
		"Row Number", "Field", "Severity", "Category", "Message", "Invalid Value", "Suggestion",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%s1", getColumnName(i))
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFE6E6"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", getColumnName(len(headers)-1)), headerStyle)

	warningStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFFFCC"}, Pattern: 1},
	})
	criticalStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFD6D6"}, Pattern: 1},
	})

	row := 2
	writeFindings := func(importRow models.ImportRow) {
		for _, finding := range importRow.Findings {
			values := []interface{}{
				importRow.RowNumber,
				finding.Field,
				finding.Severity,
				finding.Category,
				finding.Message,
				finding.Value,
				finding.Suggestion,
			}
			for colIdx, value := range values {
				cell := fmt.Sprintf("%s%d", getColumnName(colIdx), row)
				f.SetCellValue(sheetName, cell, value)
			}

			style := warningStyle
			if finding.Severity == models.SeverityCritical {
				style = criticalStyle
			}
			f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row),
				fmt.Sprintf("%s%d", getColumnName(len(headers)-1), row), style)
			row++
		}
	}

	for _, importRow := range report.InvalidRows {
		writeFindings(importRow)
	}
	for _, importRow := range report.ValidRows {
		if importRow.WarningCount() > 0 {
			writeFindings(importRow)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 22)
	f.SetColWidth(sheetName, "C", "C", 10)
	f.SetColWidth(sheetName, "D", "D", 22)
	f.SetColWidth(sheetName, "E", "E", 50)
	f.SetColWidth(sheetName, "F", "F", 25)
	f.SetColWidth(sheetName, "G", "G", 50)

	summaryStartRow := row + 2
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryStartRow), "Validation Summary")
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryStartRow+1), "Total Rows Processed:")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryStartRow+1), report.TotalRows)
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryStartRow+2), "Valid Rows:")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryStartRow+2), report.ValidCount)
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryStartRow+3), "Invalid Rows:")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryStartRow+3), report.InvalidCount)
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryStartRow+4), "Warnings:")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryStartRow+4), report.WarningCount)
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryStartRow+5), "Success Rate:")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryStartRow+5), fmt.Sprintf("%.1f%%", report.ValidPercentage))

	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryStartRow), fmt.Sprintf("A%d", summaryStartRow), summaryStyle)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(outputPath)
}

// GenerateOutcomeReport writes per-row commit outcomes after a bulk import.
func (s *ExcelService) GenerateOutcomeReport(outcomes []models.RowOutcome, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Import Outcomes"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	headers := []string{"Row Number", "Natural Key", "Status", "Message"}
	for i, header := range headers {
		cell := fmt.Sprintf("%s1", getColumnName(i))
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", getColumnName(len(headers)-1)), headerStyle)

	for rowIdx, outcome := range outcomes {
		row := rowIdx + 2
		values := []interface{}{
			outcome.RowNumber,
			outcome.NaturalKey,
			outcome.Status,
			outcome.Message,
		}
		for colIdx, value := range values {
			cell := fmt.Sprintf("%s%d", getColumnName(colIdx), row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 30)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 60)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(outputPath)
}

func templateSheetName(kind string) string {
	switch kind {
	case ImportKindTeachers:
		return "Teachers"
	case ImportKindStudents:
		return "Students"
	case ImportKindClasses:
		return "Classes"
	case ImportKindInstitutions:
		return "Institutions"
	}
	return "Data"
}

// templateHeaders puts the resolution columns first, then every schema column.
func templateHeaders(schema RowSchema) []string {
	headers := []string{ColUTISCode, ColInstitutionCode, ColInstitutionName}
	for _, rule := range schema.Fields {
		headers = append(headers, rule.Column)
	}
	return headers
}

func sampleRows(kind string) [][]interface{} {
	switch kind {
	case ImportKindTeachers:
		return [][]interface{}{
			{"UTIS-10234", "", "", "r.aliyev@example.edu.az", "r.aliyev", "Rashad", "Aliyev", "Mammad", "muellim", "primary", "ChangeMe123!", "Mathematics", "Mathematics", "miq_100", 78.5, "+994501234567", "2024-09-01", "2025-06-15", "bachelor", "Baku State University", 2018, ""},
			{"", "SCH-0042", "", "l.huseynova@example.edu.az", "l.huseynova", "Leyla", "Huseynova", "Ilham", "muellim_sinif_rehberi", "primary", "ChangeMe123!", "Primary education", "Azerbaijani language", "sertifikasiya", 85, "+994552345678", "2023-09-01", "", "master", "ADPU", 2015, ""},
		}
	case ImportKindStudents:
		return [][]interface{}{
			{"UTIS-10234", "", "", "STU-2024-0001", "Nigar", "Mammadova", "Elchin", "2012-05-14", "female", "6A", "2024-09-15", "Elchin Mammadov", "+994703456789", "e.mammadov@example.com"},
		}
	case ImportKindClasses:
		return [][]interface{}{
			{"UTIS-10234", "", "", 6, "A", 30, "204", "r.aliyev@example.edu.az", "2024-2025"},
		}
	case ImportKindInstitutions:
		return [][]interface{}{
			{"", "SEC-BAKU-01", "", "School-Lyceum No. 42", "42 nömrəli məktəb", "secondary_school", 4, "UTIS-10234", "SCH-0042", "BA", "+994124567890", "info@school42.edu.az", "Baku, Nizami district", 850, 62, 38, "1968-09-01"},
		}
	}
	return nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func getCellValue(row []string, index int) string {
	if index < len(row) {
		return strings.TrimSpace(row[index])
	}
	return ""
}

func getColumnName(index int) string {
	result := ""
	for index >= 0 {
		result = string(rune('A'+(index%26))) + result
		index = index/26 - 1
	}
	return result
}
