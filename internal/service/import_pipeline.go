package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"education-web/internal/models"
	"education-web/internal/utils"
)

// KeyChecker answers bulk "which of these keys already exist" questions so
// the pipeline can preload persisted keys once instead of querying per row.
type KeyChecker interface {
	ExistingNaturalKeys(ctx context.Context, kind string, keys []string) (map[string]bool, error)
	ExistingSecondaryKeys(ctx context.Context, kind, column string, keys []string) (map[string]bool, error)
}

// ImportValidationPipeline runs the two-phase validation over an uploaded
// sheet: the structural phase rejects the whole file, the row phase records
// findings per row. Every parsed row reaches the report exactly once.
type ImportValidationPipeline struct {
	hierarchy *HierarchyService
	keys      KeyChecker
	workers   int
	log       *logrus.Logger
}

// PipelineOption configures a pipeline.
type PipelineOption func(*ImportValidationPipeline)

// WithWorkers sets the number of goroutines used for the row phase.
// Output order is unaffected.
func WithWorkers(n int) PipelineOption {
	return func(p *ImportValidationPipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

func NewImportValidationPipeline(hierarchy *HierarchyService, keys KeyChecker, opts ...PipelineOption) *ImportValidationPipeline {
	p := &ImportValidationPipeline{
		hierarchy: hierarchy,
		keys:      keys,
		workers:   1,
		log:       utils.GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validate runs the row phase over a parsed sheet. The caller has already
// cleared the structural phase via ExcelService.ParseImportFile. The policy
// decides how persisted duplicates are graded: under reject they are
// critical, under skip or update the executor handles them, so they are
// recorded as warnings.
func (p *ImportValidationPipeline) Validate(ctx context.Context, sheet *ParsedSheet, schema RowSchema, scope models.AccessScope, policy string) (*models.ImportReport, error) {
	resolver := NewEntityResolver(scope, p.hierarchy.Store())

	rows := make([]models.ImportRow, len(sheet.Rows))

	// Resolution and field rules are pure per-row work, safe to fan out.
	// Results are index-addressed so worker scheduling cannot reorder them.
	if err := p.runRowPhase(ctx, sheet, schema, resolver, rows); err != nil {
		return nil, err
	}

	if err := p.applyDuplicateChecks(ctx, schema, policy, rows); err != nil {
		return nil, err
	}

	return p.buildReport(rows), nil
}

func (p *ImportValidationPipeline) runRowPhase(ctx context.Context, sheet *ParsedSheet, schema RowSchema, resolver *EntityResolver, rows []models.ImportRow) error {
	if p.workers <= 1 {
		for i := range sheet.Rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows[i] = p.validateRow(sheet.RowNumbers[i], sheet.Rows[i], schema, resolver)
		}
		return nil
	}

	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				rows[i] = p.validateRow(sheet.RowNumbers[i], sheet.Rows[i], schema, resolver)
			}
		}()
	}

	var cancelled error
feed:
	for i := range sheet.Rows {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()

	return cancelled
}

func (p *ImportValidationPipeline) validateRow(rowNumber int, data map[string]string, schema RowSchema, resolver *EntityResolver) models.ImportRow {
	row := models.ImportRow{
		RowNumber: rowNumber,
		Data:      data,
	}

	institution, findings := resolver.Resolve(data)
	row.Findings = append(row.Findings, findings...)
	if institution != nil {
		row.InstitutionID = institution.ID
	}

	row.Findings = append(row.Findings, schema.ValidateFields(data)...)

	if schema.Kind == ImportKindInstitutions {
		if finding := ValidateRegionCode(data["region_code"]); finding != nil {
			row.Findings = append(row.Findings, *finding)
		}
		if institution != nil {
			row.Findings = append(row.Findings, p.checkParentLevel(data, institution)...)
		}
	}

	return row
}

// checkParentLevel verifies that a new institution's declared level sits
// directly under the resolved parent.
func (p *ImportValidationPipeline) checkParentLevel(data map[string]string, parent *models.Institution) []models.Finding {
	level := strings.TrimSpace(data["level"])
	if level == "" {
		return nil
	}
	want := fmt.Sprintf("%d", parent.Level+1)
	if level == want {
		return nil
	}
	return []models.Finding{{
		Field:      "level",
		Value:      level,
		Severity:   models.SeverityCritical,
		Category:   models.CategoryCrossField,
		Message:    fmt.Sprintf("level must be %s for a child of %q (level %d)", want, parent.Name, parent.Level),
		Suggestion: "check that the parent institution columns point at the intended node",
	}}
}

// applyDuplicateChecks runs sequentially in input order: in-batch duplicate
// detection must see rows in file order so the first occurrence wins, and
// persisted keys are preloaded in one bulk query per key column.
func (p *ImportValidationPipeline) applyDuplicateChecks(ctx context.Context, schema RowSchema, policy string, rows []models.ImportRow) error {
	persistedSeverity := models.SeverityWarning
	if policy == models.PolicyReject {
		persistedSeverity = models.SeverityCritical
	}

	keyColumns := make([]string, 0, 1+len(schema.SecondaryKeyColumns))
	if schema.NaturalKeyColumn != "" || schema.Kind == ImportKindClasses {
		keyColumns = append(keyColumns, schema.NaturalKeyColumn)
	}
	keyColumns = append(keyColumns, schema.SecondaryKeyColumns...)

	for _, column := range keyColumns {
		values := make([]string, 0, len(rows))
		for i := range rows {
			if key := p.rowKey(schema, column, &rows[i]); key != "" {
				values = append(values, key)
			}
		}

		persisted, err := p.lookupPersisted(ctx, schema, column, values)
		if err != nil {
			return fmt.Errorf("failed to preload existing keys for %s: %w", schema.Kind, err)
		}

		seen := make(map[string]int, len(rows))
		for i := range rows {
			key := p.rowKey(schema, column, &rows[i])
			if key == "" {
				continue
			}
			lowered := strings.ToLower(key)

			if firstRow, dup := seen[lowered]; dup {
				rows[i].AddFinding(models.Finding{
					Field:    p.keyFieldName(schema, column),
					Value:    key,
					Severity: models.SeverityCritical,
					Category: models.CategoryDuplicateInBatch,
					Message:  fmt.Sprintf("duplicate of row %d in this file", firstRow),
				})
				continue
			}
			seen[lowered] = rows[i].RowNumber

			if persisted[lowered] {
				message := "a record with this key already exists"
				suggestion := ""
				switch policy {
				case models.PolicySkip:
					message += " and will be skipped"
				case models.PolicyUpdate:
					message += " and will be updated"
				default:
					suggestion = "remove the row or re-submit with the skip or update policy"
				}
				rows[i].AddFinding(models.Finding{
					Field:      p.keyFieldName(schema, column),
					Value:      key,
					Severity:   persistedSeverity,
					Category:   models.CategoryDuplicate,
					Message:    message,
					Suggestion: suggestion,
				})
			}
		}
	}

	return nil
}

// rowKey returns the value of one key column for a row. The empty column
// name stands for the schema's (possibly synthesized) natural key.
func (p *ImportValidationPipeline) rowKey(schema RowSchema, column string, row *models.ImportRow) string {
	if column == schema.NaturalKeyColumn {
		return schema.NaturalKey(row.Data, row.InstitutionID)
	}
	return strings.TrimSpace(row.Data[column])
}

func (p *ImportValidationPipeline) keyFieldName(schema RowSchema, column string) string {
	if column != "" {
		return column
	}
	return "class"
}

func (p *ImportValidationPipeline) lookupPersisted(ctx context.Context, schema RowSchema, column string, values []string) (map[string]bool, error) {
	if p.keys == nil || len(values) == 0 {
		return map[string]bool{}, nil
	}
	if column == schema.NaturalKeyColumn {
		return p.keys.ExistingNaturalKeys(ctx, schema.Kind, values)
	}
	return p.keys.ExistingSecondaryKeys(ctx, schema.Kind, column, values)
}

// fileAdvice maps each finding category to the counted file-level
// suggestion buildReport emits when the category occurred.
var fileAdvice = []struct {
	category string
	format   string
}{
	{models.CategoryStructural, "%d rows could not be read; re-export the file from the template"},
	{models.CategoryMissingInstitution, "%d rows reference institutions that could not be found; verify the codes against the template's institution sheet"},
	{models.CategoryNotInScope, "%d rows reference institutions outside your access scope"},
	{models.CategoryNameMatch, "%d rows matched an institution by name only; prefer UTIS or institution codes"},
	{models.CategoryMissingField, "%d rows are missing required fields; fill every required column before re-uploading"},
	{models.CategoryInvalidFormat, "%d rows contain badly formatted values; compare them with the template's sample row"},
	{models.CategoryInvalidEnum, "%d rows use values outside the allowed options for their column"},
	{models.CategoryCrossField, "%d rows have fields that contradict each other; check related columns together"},
	{models.CategoryDuplicate, "%d rows match records that already exist; pick the duplicate policy that fits"},
	{models.CategoryDuplicateInBatch, "%d rows duplicate earlier rows in the same file; remove the repeats before re-uploading"},
}

func (p *ImportValidationPipeline) buildReport(rows []models.ImportRow) *models.ImportReport {
	report := &models.ImportReport{
		TotalRows:      len(rows),
		CategoryCounts: make(map[string]int),
	}

	suggestionSet := make(map[string]bool)

	for _, row := range rows {
		for _, finding := range row.Findings {
			report.CategoryCounts[finding.Category]++
			if finding.Severity == models.SeverityWarning {
				report.WarningCount++
			}
			if finding.Suggestion != "" && !suggestionSet[finding.Suggestion] {
				suggestionSet[finding.Suggestion] = true
				report.Suggestions = append(report.Suggestions, finding.Suggestion)
			}
		}

		if row.IsValid() {
			report.ValidRows = append(report.ValidRows, row)
			report.ValidCount++
		} else {
			report.InvalidRows = append(report.InvalidRows, row)
			report.InvalidCount++
		}
	}

	// File-level advice keyed on how often each problem occurred, one
	// line per category that showed up at all.
	for _, advice := range fileAdvice {
		if n := report.CategoryCounts[advice.category]; n > 0 {
			report.Suggestions = append(report.Suggestions, fmt.Sprintf(advice.format, n))
		}
	}

	if report.TotalRows > 0 {
		report.ValidPercentage = float64(report.ValidCount) / float64(report.TotalRows) * 100
	}

	p.log.WithFields(logrus.Fields{
		"total_rows":   report.TotalRows,
		"valid_rows":   report.ValidCount,
		"invalid_rows": report.InvalidCount,
		"warnings":     report.WarningCount,
	}).Info("Import validation completed")

	return report
}
