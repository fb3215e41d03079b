package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"education-web/internal/models"
)

// fakeRecordWriter records calls and simulates an existing-key set. Setting
// raceOnCreate makes Create fail with a duplicate-key error as if another
// writer inserted the record between the existence check and the insert.
type fakeRecordWriter struct {
	existing     map[string]bool
	raceOnCreate bool
	failUpdate   bool
	failCreate   error

	created []string
	updated []string
}

func (w *fakeRecordWriter) Exists(_ context.Context, naturalKey string) (bool, error) {
	return w.existing[naturalKey], nil
}

func (w *fakeRecordWriter) Create(_ context.Context, row *models.ImportRow) error {
	if w.failCreate != nil {
		return w.failCreate
	}
	if w.raceOnCreate {
		return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	}
	w.created = append(w.created, row.Data["email"])
	return nil
}

func (w *fakeRecordWriter) Update(_ context.Context, naturalKey string, _ *models.ImportRow) error {
	if w.failUpdate {
		return errors.New("update refused")
	}
	w.updated = append(w.updated, naturalKey)
	return nil
}

func importRows(emails ...string) []models.ImportRow {
	rows := make([]models.ImportRow, 0, len(emails))
	for i, email := range emails {
		rows = append(rows, models.ImportRow{
			RowNumber: i + 2,
			Data:      map[string]string{"email": email},
		})
	}
	return rows
}

func TestCommitCreatesNewRecords(t *testing.T) {
	writer := &fakeRecordWriter{existing: map[string]bool{}}
	exec := NewBulkImportExecutor()

	result, err := exec.Commit(context.Background(), importRows("a@x.az", "b@x.az"), TeacherRowSchema(), writer, models.PolicyReject)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.False(t, result.Canceled)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, models.OutcomeCreated, result.Outcomes[0].Status)
	assert.Equal(t, "a@x.az", result.Outcomes[0].NaturalKey)
	assert.Equal(t, []string{"a@x.az", "b@x.az"}, writer.created)
}

func TestCommitDuplicatePolicies(t *testing.T) {
	t.Run("skip leaves the record alone", func(t *testing.T) {
		writer := &fakeRecordWriter{existing: map[string]bool{"a@x.az": true}}
		result, err := NewBulkImportExecutor().Commit(context.Background(), importRows("a@x.az"), TeacherRowSchema(), writer, models.PolicySkip)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Skipped)
		assert.Empty(t, writer.created)
		assert.Empty(t, writer.updated)
	})

	t.Run("update overwrites", func(t *testing.T) {
		writer := &fakeRecordWriter{existing: map[string]bool{"a@x.az": true}}
		result, err := NewBulkImportExecutor().Commit(context.Background(), importRows("a@x.az"), TeacherRowSchema(), writer, models.PolicyUpdate)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Updated)
		assert.Equal(t, []string{"a@x.az"}, writer.updated)
	})

	t.Run("reject fails the row", func(t *testing.T) {
		writer := &fakeRecordWriter{existing: map[string]bool{"a@x.az": true}}
		result, err := NewBulkImportExecutor().Commit(context.Background(), importRows("a@x.az"), TeacherRowSchema(), writer, models.PolicyReject)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, "record already exists", result.Outcomes[0].Message)
	})
}

func TestCommitInsertRace(t *testing.T) {
	t.Run("skip under race", func(t *testing.T) {
		writer := &fakeRecordWriter{existing: map[string]bool{}, raceOnCreate: true}
		result, err := NewBulkImportExecutor().Commit(context.Background(), importRows("a@x.az"), TeacherRowSchema(), writer, models.PolicySkip)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Skipped)
		assert.Contains(t, result.Outcomes[0].Message, "appeared concurrently")
	})

	t.Run("update retries as an update", func(t *testing.T) {
		writer := &fakeRecordWriter{existing: map[string]bool{}, raceOnCreate: true}
		result, err := NewBulkImportExecutor().Commit(context.Background(), importRows("a@x.az"), TeacherRowSchema(), writer, models.PolicyUpdate)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Updated)
		assert.Equal(t, []string{"a@x.az"}, writer.updated)
	})

	t.Run("reject fails the row", func(t *testing.T) {
		writer := &fakeRecordWriter{existing: map[string]bool{}, raceOnCreate: true}
		result, err := NewBulkImportExecutor().Commit(context.Background(), importRows("a@x.az"), TeacherRowSchema(), writer, models.PolicyReject)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Failed)
	})

	t.Run("update retry that also fails", func(t *testing.T) {
		writer := &fakeRecordWriter{existing: map[string]bool{}, raceOnCreate: true, failUpdate: true}
		result, err := NewBulkImportExecutor().Commit(context.Background(), importRows("a@x.az"), TeacherRowSchema(), writer, models.PolicyUpdate)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Failed)
	})
}

func TestCommitRowFailureDoesNotStopRun(t *testing.T) {
	writer := &fakeRecordWriter{existing: map[string]bool{"b@x.az": true}}
	result, err := NewBulkImportExecutor().Commit(context.Background(), importRows("a@x.az", "b@x.az", "c@x.az"), TeacherRowSchema(), writer, models.PolicyReject)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, models.OutcomeFailed, result.Outcomes[1].Status)
	assert.Equal(t, models.OutcomeCreated, result.Outcomes[2].Status)
}

func TestCommitInfrastructureErrorFailsRowOnly(t *testing.T) {
	writer := &fakeRecordWriter{existing: map[string]bool{}, failCreate: errors.New("connection reset")}
	result, err := NewBulkImportExecutor().Commit(context.Background(), importRows("a@x.az"), TeacherRowSchema(), writer, models.PolicyReject)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Outcomes[0].Message, "insert failed")
}

func TestCommitBatchProgress(t *testing.T) {
	writer := &fakeRecordWriter{existing: map[string]bool{}}

	var reports [][2]int
	exec := NewBulkImportExecutor(
		WithBatchSize(2),
		WithProgress(func(processed, total int) {
			reports = append(reports, [2]int{processed, total})
		}),
	)

	rows := importRows("a@x.az", "b@x.az", "c@x.az", "d@x.az", "e@x.az")
	_, err := exec.Commit(context.Background(), rows, TeacherRowSchema(), writer, models.PolicyReject)
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{2, 5}, {4, 5}, {5, 5}}, reports)
}

func TestCommitCancellationBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	writer := &fakeRecordWriter{existing: map[string]bool{}}
	exec := NewBulkImportExecutor(
		WithBatchSize(2),
		WithProgress(func(processed, total int) {
			if processed >= 2 {
				cancel()
			}
		}),
	)
	defer cancel()

	rows := importRows("a@x.az", "b@x.az", "c@x.az", "d@x.az", "e@x.az")
	result, err := exec.Commit(ctx, rows, TeacherRowSchema(), writer, models.PolicyReject)
	require.NoError(t, err)

	// First batch committed, everything after is left pending.
	assert.True(t, result.Canceled)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Outcomes, 5)
	for i := 0; i < 2; i++ {
		assert.Equal(t, models.OutcomeCreated, result.Outcomes[i].Status)
	}
	for i := 2; i < 5; i++ {
		assert.Equal(t, models.OutcomePending, result.Outcomes[i].Status)
		assert.Contains(t, result.Outcomes[i].Message, "canceled")
	}
}

func TestCommitNilWriter(t *testing.T) {
	_, err := NewBulkImportExecutor().Commit(context.Background(), importRows("a@x.az"), TeacherRowSchema(), nil, models.PolicyReject)
	assert.Error(t, err)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.True(t, isDuplicateKeyErr(&mysql.MySQLError{Number: 1062}))
	assert.True(t, isDuplicateKeyErr(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicateKeyErr(&mysql.MySQLError{Number: 1045}))
	assert.False(t, isDuplicateKeyErr(errors.New("plain")))
}
