package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"education-web/internal/config"
	"education-web/internal/models"
	"education-web/internal/service"
	"education-web/internal/utils"
	"education-web/internal/worker"
)

type ImportHandler struct {
	importService *service.ImportService
	hierarchy     *service.HierarchyService
	excelService  *service.ExcelService
	asynqClient   *asynq.Client
	redis         *redis.Client
	cfg           *config.Config
}

func NewImportHandler(
	importService *service.ImportService,
	hierarchy *service.HierarchyService,
	excelService *service.ExcelService,
	asynqClient *asynq.Client,
	redisClient *redis.Client,
	cfg *config.Config,
) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		hierarchy:     hierarchy,
		excelService:  excelService,
		asynqClient:   asynqClient,
		redis:         redisClient,
		cfg:           cfg,
	}
}

// UploadFile accepts a workbook and registers a pending import session.
func (h *ImportHandler) UploadFile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int)

	kind := c.FormValue("kind")
	if kind == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Import kind is required", nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File is required", err)
	}

	ext := filepath.Ext(file.Filename)
	if ext != ".xlsx" && ext != ".xls" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Only Excel files (.xlsx, .xls) are allowed", nil)
	}

	if file.Size > int64(h.cfg.UploadMaxSize) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File size exceeds maximum limit", nil)
	}

	session, err := h.importService.CreateSession(userID, kind, file.Filename, "")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to create import session", err)
	}

	filePath := filepath.Join(h.cfg.UploadPath, fmt.Sprintf("%s%s", session.SessionCode, ext))
	if err := c.SaveFile(file, filePath); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save file", err)
	}
	if err := h.importService.SetSessionFile(session.SessionCode, filePath); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update session", err)
	}
	session.FilePath = filePath

	return utils.SuccessResponse(c, "File uploaded successfully", fiber.Map{
		"session": session,
	})
}

// Validate runs the dry-run validation and returns the full report.
func (h *ImportHandler) Validate(c *fiber.Ctx) error {
	code := c.Params("code")
	policy := h.policyParam(c)

	report, err := h.importService.ValidateSession(c.Context(), code, h.callerScope(c), policy)
	if err != nil {
		return h.importError(c, err)
	}

	return utils.SuccessResponse(c, "Validation completed", report)
}

// Commit enqueues the background commit task for a validated session.
func (h *ImportHandler) Commit(c *fiber.Ctx) error {
	if h.asynqClient == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable,
			"Background commits are unavailable without Redis", nil)
	}

	code := c.Params("code")
	policy := h.policyParam(c)

	session, err := h.importService.GetSession(code)
	if err != nil {
		return h.importError(c, err)
	}
	if session.Status != models.SessionValidated {
		return utils.ErrorResponse(c, fiber.StatusConflict,
			fmt.Sprintf("Session is %s, expected validated", session.Status), nil)
	}

	payload, _ := json.Marshal(worker.CommitTaskPayload{
		SessionCode:   code,
		UserID:        c.Locals("user_id").(int),
		Role:          c.Locals("role").(string),
		InstitutionID: c.Locals("institution_id").(int),
		Policy:        policy,
	})

	task := asynq.NewTask(worker.TypeImportCommit, payload)
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(0)); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to enqueue commit task", err)
	}

	return utils.SuccessResponse(c, "Commit started", fiber.Map{
		"session_code": code,
		"policy":       policy,
	})
}

// GetSession returns session state plus live batch progress, if any.
func (h *ImportHandler) GetSession(c *fiber.Ctx) error {
	code := c.Params("code")

	session, err := h.importService.GetSession(code)
	if err != nil {
		return h.importError(c, err)
	}

	data := fiber.Map{"session": session}
	if h.redis != nil {
		if progress, err := h.redis.Get(context.Background(), worker.ProgressKey(code)).Result(); err == nil {
			data["progress"] = progress
		}
	}

	return utils.SuccessResponse(c, "Session retrieved", data)
}

func (h *ImportHandler) ListSessions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int)
	params := utils.GetPaginationParams(c)

	sessions, total, err := h.importService.ListSessions(userID, params.Limit, utils.GetOffset(params.Page, params.Limit))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list sessions", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Sessions retrieved", sessions, pagination)
}

func (h *ImportHandler) Cancel(c *fiber.Ctx) error {
	code := c.Params("code")
	if err := h.importService.CancelSession(code); err != nil {
		return h.importError(c, err)
	}
	return utils.SuccessResponse(c, "Session canceled", fiber.Map{"session_code": code})
}

// DownloadReport re-runs validation and streams the error workbook.
func (h *ImportHandler) DownloadReport(c *fiber.Ctx) error {
	code := c.Params("code")
	policy := h.policyParam(c)

	session, err := h.importService.GetSession(code)
	if err != nil {
		return h.importError(c, err)
	}

	report, err := h.importService.ValidateSession(c.Context(), session.SessionCode, h.callerScope(c), policy)
	if err != nil {
		return h.importError(c, err)
	}

	path, err := h.importService.GenerateValidationReportFile(code, report)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate report", err)
	}

	return c.Download(path, fmt.Sprintf("%s_errors.xlsx", code))
}

// DownloadTemplate streams an empty template for the given import kind.
func (h *ImportHandler) DownloadTemplate(c *fiber.Ctx) error {
	kind := c.Params("kind")

	schema, err := service.SchemaForKind(kind)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown import kind", err)
	}

	// List the caller's reachable institutions on the template's lookup
	// sheet so rows can reference real codes.
	scope := h.callerScope(c)
	store := h.hierarchy.Store()
	var institutions []models.Institution
	for _, id := range scope.IDs() {
		if node, ok := store.Node(id); ok {
			institutions = append(institutions, node)
		}
	}

	path := filepath.Join(h.cfg.UploadPath, fmt.Sprintf("template_%s.xlsx", kind))
	if err := h.excelService.GenerateImportTemplate(schema, institutions, path); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate template", err)
	}

	return c.Download(path, fmt.Sprintf("%s_template.xlsx", kind))
}

func (h *ImportHandler) callerScope(c *fiber.Ctx) models.AccessScope {
	role, _ := c.Locals("role").(string)
	institutionID, _ := c.Locals("institution_id").(int)
	return h.hierarchy.ScopeFor(role, institutionID)
}

func (h *ImportHandler) policyParam(c *fiber.Ctx) string {
	policy := strings.ToLower(c.Query("policy", models.PolicyReject))
	switch policy {
	case models.PolicySkip, models.PolicyUpdate, models.PolicyReject:
		return policy
	}
	return models.PolicyReject
}

func (h *ImportHandler) importError(c *fiber.Ctx, err error) error {
	switch {
	case err == service.ErrSessionNotFound:
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", nil)
	case err == service.ErrSessionConsumed:
		return utils.ErrorResponse(c, fiber.StatusConflict, "Import session already finished", nil)
	case err == service.ErrSessionNotValidated:
		return utils.ErrorResponse(c, fiber.StatusConflict, "Import session has not been validated", nil)
	case err == service.ErrNoValidRows:
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "No valid rows to commit", nil)
	case service.IsStructural(err):
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "File failed structural validation", err)
	}
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Import operation failed", err)
}
