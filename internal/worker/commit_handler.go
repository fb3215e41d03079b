package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"education-web/internal/config"
	"education-web/internal/models"
	"education-web/internal/repository"
	"education-web/internal/service"
	"education-web/internal/utils"
)

// TypeImportCommit is the asynq task type for background commits.
const TypeImportCommit = "import:commit"

// ProgressKey is the redis key batch progress is published under.
func ProgressKey(sessionCode string) string {
	return fmt.Sprintf("import:progress:%s", sessionCode)
}

// CommitTaskPayload carries everything the worker needs to recompute the
// submitter's scope: scopes are never trusted from the queue, only the
// role and home institution are.
type CommitTaskPayload struct {
	SessionCode   string `json:"session_code"`
	UserID        int    `json:"user_id"`
	Role          string `json:"role"`
	InstitutionID int    `json:"institution_id"`
	Policy        string `json:"policy"`
}

type CommitTaskHandler struct {
	redis         *redis.Client
	hierarchy     *service.HierarchyService
	importService *service.ImportService
	log           *logrus.Logger
}

func NewCommitTaskHandler(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) *CommitTaskHandler {
	hierarchy := service.NewHierarchyService(repository.NewInstitutionRepository(db))
	return &CommitTaskHandler{
		redis:         redisClient,
		hierarchy:     hierarchy,
		importService: service.NewImportService(db, cfg, hierarchy),
		log:           utils.GetLogger(),
	}
}

func (h *CommitTaskHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload CommitTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	log := h.log.WithFields(logrus.Fields{
		"session_code": payload.SessionCode,
		"user_id":      payload.UserID,
		"policy":       payload.Policy,
	})
	log.Info("Starting import commit")

	// The snapshot must be fresh: the web process may have imported
	// institutions since this worker last looked.
	if err := h.hierarchy.Reload(); err != nil {
		return fmt.Errorf("failed to load hierarchy: %w", err)
	}

	session, err := h.importService.GetSession(payload.SessionCode)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session.Status != models.SessionValidated {
		log.WithField("status", session.Status).Info("Session not committable, skipping")
		return nil
	}

	scope := h.hierarchy.ScopeFor(payload.Role, payload.InstitutionID)

	progress := func(processed, total int) {
		value := fmt.Sprintf("%d/%d", processed, total)
		if err := h.redis.Set(ctx, ProgressKey(payload.SessionCode), value, time.Hour).Err(); err != nil {
			log.WithError(err).Warn("Failed to publish commit progress")
		}
	}

	report, result, err := h.importService.CommitSession(ctx, payload.SessionCode, scope, payload.Policy, progress)
	if err != nil {
		log.WithError(err).Error("Import commit failed")
		// Session state already reflects the failure; retrying would
		// hit a consumed session.
		return nil
	}

	log.WithFields(logrus.Fields{
		"valid_rows": report.ValidCount,
		"created":    result.Created,
		"updated":    result.Updated,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
		"canceled":   result.Canceled,
	}).Info("Import commit finished")

	return nil
}
