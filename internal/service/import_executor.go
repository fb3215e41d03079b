package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"education-web/internal/models"
	"education-web/internal/utils"
)

// RecordWriter persists one import kind. Implementations map a row's
// column values onto the target table; Create must surface unique-key
// violations so the executor can classify them.
type RecordWriter interface {
	Exists(ctx context.Context, naturalKey string) (bool, error)
	Create(ctx context.Context, row *models.ImportRow) error
	Update(ctx context.Context, naturalKey string, row *models.ImportRow) error
}

// ProgressFunc receives (processed, total) after every batch.
type ProgressFunc func(processed, total int)

// CommitResult is the outcome of one commit run. Outcomes holds one entry
// per input row, in input order, including rows a cancellation left
// unattempted.
type CommitResult struct {
	Outcomes []models.RowOutcome `json:"outcomes"`
	Created  int                 `json:"created"`
	Updated  int                 `json:"updated"`
	Skipped  int                 `json:"skipped"`
	Failed   int                 `json:"failed"`
	Canceled bool                `json:"canceled"`
}

// BulkImportExecutor commits validated rows in fixed-size batches.
// Cancellation is honored between batches only, so a canceled run keeps
// every batch that already went through.
type BulkImportExecutor struct {
	batchSize int
	progress  ProgressFunc
	log       *logrus.Logger
}

const defaultCommitBatchSize = 200

type ExecutorOption func(*BulkImportExecutor)

func WithBatchSize(n int) ExecutorOption {
	return func(e *BulkImportExecutor) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func WithProgress(fn ProgressFunc) ExecutorOption {
	return func(e *BulkImportExecutor) {
		e.progress = fn
	}
}

func NewBulkImportExecutor(opts ...ExecutorOption) *BulkImportExecutor {
	e := &BulkImportExecutor{
		batchSize: defaultCommitBatchSize,
		log:       utils.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Commit writes rows through the writer under the given duplicate policy.
// Infrastructure failures on a single row fail that row, never the run;
// the only non-nil error return is a nil-writer misuse.
func (e *BulkImportExecutor) Commit(ctx context.Context, rows []models.ImportRow, schema RowSchema, writer RecordWriter, policy string) (*CommitResult, error) {
	if writer == nil {
		return nil, fmt.Errorf("record writer is required")
	}

	result := &CommitResult{
		Outcomes: make([]models.RowOutcome, len(rows)),
	}

	total := len(rows)
	for start := 0; start < total; start += e.batchSize {
		if err := ctx.Err(); err != nil {
			result.Canceled = true
			for i := start; i < total; i++ {
				result.Outcomes[i] = models.RowOutcome{
					RowNumber:  rows[i].RowNumber,
					NaturalKey: schema.NaturalKey(rows[i].Data, rows[i].InstitutionID),
					Status:     models.OutcomePending,
					Message:    "commit canceled before this batch",
				}
			}
			break
		}

		end := start + e.batchSize
		if end > total {
			end = total
		}

		for i := start; i < end; i++ {
			result.Outcomes[i] = e.commitRow(ctx, &rows[i], schema, writer, policy)
			switch result.Outcomes[i].Status {
			case models.OutcomeCreated:
				result.Created++
			case models.OutcomeUpdated:
				result.Updated++
			case models.OutcomeSkipped:
				result.Skipped++
			case models.OutcomeFailed:
				result.Failed++
			}
		}

		if e.progress != nil {
			e.progress(end, total)
		}
	}

	e.log.WithFields(logrus.Fields{
		"kind":     schema.Kind,
		"total":    total,
		"created":  result.Created,
		"updated":  result.Updated,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
		"canceled": result.Canceled,
	}).Info("Bulk import commit finished")

	return result, nil
}

func (e *BulkImportExecutor) commitRow(ctx context.Context, row *models.ImportRow, schema RowSchema, writer RecordWriter, policy string) models.RowOutcome {
	outcome := models.RowOutcome{
		RowNumber:  row.RowNumber,
		NaturalKey: schema.NaturalKey(row.Data, row.InstitutionID),
	}

	exists, err := writer.Exists(ctx, outcome.NaturalKey)
	if err != nil {
		outcome.Status = models.OutcomeFailed
		outcome.Message = fmt.Sprintf("existence check failed: %v", err)
		return outcome
	}

	if exists {
		switch policy {
		case models.PolicySkip:
			outcome.Status = models.OutcomeSkipped
			return outcome
		case models.PolicyUpdate:
			if err := writer.Update(ctx, outcome.NaturalKey, row); err != nil {
				outcome.Status = models.OutcomeFailed
				outcome.Message = fmt.Sprintf("update failed: %v", err)
				return outcome
			}
			outcome.Status = models.OutcomeUpdated
			return outcome
		default:
			outcome.Status = models.OutcomeFailed
			outcome.Message = "record already exists"
			return outcome
		}
	}

	if err := writer.Create(ctx, row); err != nil {
		// A unique-key violation here means the record appeared after the
		// existence check. Resolve it under the same policy.
		if isDuplicateKeyErr(err) {
			switch policy {
			case models.PolicySkip:
				outcome.Status = models.OutcomeSkipped
				outcome.Message = "record appeared concurrently, skipped"
				return outcome
			case models.PolicyUpdate:
				if uerr := writer.Update(ctx, outcome.NaturalKey, row); uerr == nil {
					outcome.Status = models.OutcomeUpdated
					return outcome
				}
			}
			outcome.Status = models.OutcomeFailed
			outcome.Message = "record already exists"
			return outcome
		}
		outcome.Status = models.OutcomeFailed
		outcome.Message = fmt.Sprintf("insert failed: %v", err)
		return outcome
	}

	outcome.Status = models.OutcomeCreated
	return outcome
}

// MySQL error 1062: duplicate entry for a unique key.
func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
