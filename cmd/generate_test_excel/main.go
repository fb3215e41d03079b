package main

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"education-web/internal/service"
)

// Generates test workbooks for manual import runs: one clean template per
// import kind, plus a teachers file with deliberately broken rows to
// exercise the validation report.
func main() {
	outputDir := "./storage/testdata"

	excelService := service.NewExcelService()
	for _, kind := range []string{"teachers", "students", "classes", "institutions"} {
		schema, err := service.SchemaForKind(kind)
		if err != nil {
			fmt.Printf("Error resolving schema %s: %v\n", kind, err)
			return
		}
		path := filepath.Join(outputDir, fmt.Sprintf("%s_template.xlsx", kind))
		if err := excelService.GenerateImportTemplate(schema, nil, path); err != nil {
			fmt.Printf("Error generating %s template: %v\n", kind, err)
			return
		}
		fmt.Printf("Template created: %s\n", path)
	}

	if err := generateBrokenTeachersFile(filepath.Join(outputDir, "teachers_invalid.xlsx")); err != nil {
		fmt.Printf("Error generating invalid teachers file: %v\n", err)
		return
	}

	fmt.Println("Test files generated successfully")
}

func generateBrokenTeachersFile(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Teachers"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	headers := []string{
		"institution_utis_code", "institution_code", "institution_name",
		"email", "username", "first_name", "last_name", "patronymic",
		"position_type", "workplace_type", "password",
		"assessment_type", "assessment_score", "contract_start_date", "contract_end_date",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	rows := [][]interface{}{
		// valid row
		{"UTIS-10234", "", "", "ok.teacher@example.edu.az", "ok.teacher", "Ok", "Teacher", "Test", "muellim", "primary", "ChangeMe123!", "miq_100", 70, "2024-09-01", "2025-06-15"},
		// unknown institution
		{"UTIS-99999", "", "", "no.school@example.edu.az", "no.school", "No", "School", "Test", "muellim", "primary", "ChangeMe123!", "", "", "", ""},
		// bad email, bad enum, score out of range
		{"UTIS-10234", "", "", "not-an-email", "bad.row", "Bad", "Row", "Test", "astronaut", "primary", "ChangeMe123!", "miq_100", 150, "", ""},
		// contract dates reversed
		{"UTIS-10234", "", "", "dates@example.edu.az", "dates", "Bad", "Dates", "Test", "muellim", "primary", "ChangeMe123!", "", "", "2025-06-15", "2024-09-01"},
		// duplicate of the first row's email
		{"UTIS-10234", "", "", "ok.teacher@example.edu.az", "dup.teacher", "Dup", "Teacher", "Test", "muellim", "primary", "ChangeMe123!", "", "", "", ""},
	}
	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(path)
}
