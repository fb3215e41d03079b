package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"education-web/internal/config"
	"education-web/internal/models"
	"education-web/internal/repository"
	"education-web/internal/utils"
)

// ImportService drives an upload through its lifecycle:
// pending -> validating -> validated -> committing -> completed.
// Validation is stateless and recomputed at commit time, so nothing stale
// can slip through between the dry run and the write.
type ImportService struct {
	cfg       *config.Config
	sessions  *repository.ImportSessionRepository
	hierarchy *HierarchyService
	excel     *ExcelService
	pipeline  *ImportValidationPipeline
	writers   map[string]RecordWriter
	log       *logrus.Logger
}

func NewImportService(db *sqlx.DB, cfg *config.Config, hierarchy *HierarchyService) *ImportService {
	keys := repository.NewImportKeyRepository(db)
	pipeline := NewImportValidationPipeline(hierarchy, keys, WithWorkers(cfg.ImportWorkers))

	return &ImportService{
		cfg:       cfg,
		sessions:  repository.NewImportSessionRepository(db),
		hierarchy: hierarchy,
		excel:     NewExcelService(),
		pipeline:  pipeline,
		writers: map[string]RecordWriter{
			ImportKindTeachers:     NewTeacherWriter(repository.NewTeacherRepository(db)),
			ImportKindStudents:     NewStudentWriter(repository.NewStudentRepository(db)),
			ImportKindClasses:      NewClassWriter(repository.NewClassRepository(db)),
			ImportKindInstitutions: NewInstitutionWriter(repository.NewInstitutionRepository(db)),
		},
		log: utils.GetLogger(),
	}
}

// CreateSession registers a new upload in the pending state.
func (s *ImportService) CreateSession(userID int, kind, filename, filePath string) (*models.ImportSession, error) {
	if _, err := SchemaForKind(kind); err != nil {
		return nil, err
	}

	session := &models.ImportSession{
		SessionCode: newSessionCode(),
		UserID:      userID,
		Kind:        kind,
		Filename:    filename,
		FilePath:    filePath,
		Status:      models.SessionPending,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create import session: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"session_code": session.SessionCode,
		"kind":         kind,
		"user_id":      userID,
	}).Info("Import session created")

	return session, nil
}

// SetSessionFile records where the uploaded workbook was stored. The file
// can only land after the session exists because its name embeds the code.
func (s *ImportService) SetSessionFile(code, filePath string) error {
	return s.sessions.UpdateFilePath(code, filePath)
}

func (s *ImportService) GetSession(code string) (*models.ImportSession, error) {
	session, err := s.sessions.FindByCode(code)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *ImportService) ListSessions(userID, limit, offset int) ([]models.ImportSession, int, error) {
	return s.sessions.FindByUser(userID, limit, offset)
}

// ValidateSession runs the full two-phase validation for a session and
// returns the report. The session ends up validated (some rows committable)
// or failed (structural error or zero valid rows).
func (s *ImportService) ValidateSession(ctx context.Context, code string, scope models.AccessScope, policy string) (*models.ImportReport, error) {
	session, err := s.GetSession(code)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case models.SessionCommitting, models.SessionCompleted, models.SessionCanceled:
		return nil, ErrSessionConsumed
	}

	s.sessions.UpdateStatus(code, models.SessionValidating, "")

	report, err := s.validate(ctx, session, scope, policy)
	if err != nil {
		if IsStructural(err) {
			s.sessions.UpdateStatus(code, models.SessionFailed, err.Error())
		} else {
			s.sessions.UpdateStatus(code, models.SessionFailed, "validation error")
		}
		return nil, err
	}

	s.sessions.UpdateProgress(code, report.TotalRows, 0, report.InvalidCount)
	if report.ValidCount == 0 {
		s.sessions.UpdateStatus(code, models.SessionFailed, "no valid rows")
	} else {
		s.sessions.UpdateStatus(code, models.SessionValidated, "")
	}

	return report, nil
}

// CommitSession re-validates and writes the valid rows through the kind's
// writer. Rows that fail validation on the second pass are simply not
// committed; their findings are in the returned report.
func (s *ImportService) CommitSession(ctx context.Context, code string, scope models.AccessScope, policy string, progress ProgressFunc) (*models.ImportReport, *CommitResult, error) {
	session, err := s.GetSession(code)
	if err != nil {
		return nil, nil, err
	}
	if session.Status != models.SessionValidated {
		if session.Status == models.SessionCommitting || session.Status == models.SessionCompleted || session.Status == models.SessionCanceled {
			return nil, nil, ErrSessionConsumed
		}
		return nil, nil, ErrSessionNotValidated
	}

	s.sessions.UpdateStatus(code, models.SessionCommitting, "")

	// A user cancel flips the session to canceled; the poll in the
	// progress callback stops the executor before its next batch.
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	report, err := s.validate(ctx, session, scope, policy)
	if err != nil {
		s.sessions.UpdateStatus(code, models.SessionFailed, err.Error())
		return nil, nil, err
	}
	if report.ValidCount == 0 {
		s.sessions.UpdateStatus(code, models.SessionFailed, "no valid rows")
		return report, nil, ErrNoValidRows
	}

	schema, _ := SchemaForKind(session.Kind)
	executor := NewBulkImportExecutor(
		WithBatchSize(s.cfg.ImportBatchSize),
		WithProgress(func(processed, total int) {
			s.sessions.UpdateProgress(code, report.TotalRows, processed, report.InvalidCount)
			if current, err := s.GetSession(code); err == nil && current.Status == models.SessionCanceled {
				stop()
			}
			if progress != nil {
				progress(processed, total)
			}
		}),
	)

	result, err := executor.Commit(ctx, report.ValidRows, schema, s.writers[session.Kind], policy)
	if err != nil {
		s.sessions.UpdateStatus(code, models.SessionFailed, err.Error())
		return report, nil, err
	}

	s.sessions.UpdateProgress(code, report.TotalRows,
		result.Created+result.Updated+result.Skipped, report.InvalidCount+result.Failed)

	current := models.SessionCommitting
	if refreshed, err := s.GetSession(code); err == nil {
		current = refreshed.Status
	}
	if status, message, ok := finalCommitStatus(current, result); ok {
		s.sessions.UpdateStatus(code, status, message)
	}

	// New or renamed institutions change the tree the next request sees.
	if session.Kind == ImportKindInstitutions && result.Created+result.Updated > 0 {
		if err := s.hierarchy.Reload(); err != nil {
			s.log.WithError(err).Warn("Failed to reload hierarchy after institution import")
		}
	}

	return report, result, nil
}

// CancelSession marks a session canceled unless it already ran to an end
// state. The background commit observes the status flip between batches.
func (s *ImportService) CancelSession(code string) error {
	session, err := s.GetSession(code)
	if err != nil {
		return err
	}
	switch session.Status {
	case models.SessionCompleted, models.SessionFailed, models.SessionCanceled:
		return ErrSessionConsumed
	}
	return s.sessions.UpdateStatus(code, models.SessionCanceled, "canceled by user")
}

// finalCommitStatus decides the session's end state once the executor
// returns. A cancel that landed while the last batch was still writing
// keeps the canceled status instead of being overwritten with completed.
func finalCommitStatus(current string, result *CommitResult) (status, message string, ok bool) {
	switch {
	case result.Canceled:
		return models.SessionCanceled, "canceled during commit", true
	case current == models.SessionCanceled:
		return "", "", false
	case result.Failed > 0:
		return models.SessionCompleted, fmt.Sprintf("%d rows failed during commit", result.Failed), true
	default:
		return models.SessionCompleted, "", true
	}
}

// GenerateValidationReportFile writes the report workbook next to the
// uploaded file and returns its path.
func (s *ImportService) GenerateValidationReportFile(code string, report *models.ImportReport) (string, error) {
	outputPath := fmt.Sprintf("%s/%s_errors.xlsx", s.cfg.UploadPath, code)
	if err := s.excel.GenerateValidationReport(report, outputPath); err != nil {
		return "", fmt.Errorf("failed to generate validation report: %w", err)
	}
	return outputPath, nil
}

func (s *ImportService) validate(ctx context.Context, session *models.ImportSession, scope models.AccessScope, policy string) (*models.ImportReport, error) {
	schema, err := SchemaForKind(session.Kind)
	if err != nil {
		return nil, err
	}

	sheet, err := s.excel.ParseImportFile(session.FilePath, schema)
	if err != nil {
		return nil, err
	}

	if max := s.cfg.ImportMaxRows; max > 0 && len(sheet.Rows) > max {
		return nil, NewStructuralError(StructuralTooManyRows,
			fmt.Sprintf("file has %d data rows, the limit is %d", len(sheet.Rows), max))
	}

	return s.pipeline.Validate(ctx, sheet, schema, scope, policy)
}

func newSessionCode() string {
	return "IMP-" + strings.ToUpper(uuid.New().String()[:8])
}
