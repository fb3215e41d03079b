package handler

import (
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"education-web/internal/models"
	"education-web/internal/service"
	"education-web/internal/utils"
)

type HierarchyHandler struct {
	hierarchy *service.HierarchyService
}

func NewHierarchyHandler(hierarchy *service.HierarchyService) *HierarchyHandler {
	return &HierarchyHandler{hierarchy: hierarchy}
}

// GetScope returns the caller's visible institution ids and their count.
func (h *HierarchyHandler) GetScope(c *fiber.Ctx) error {
	scope := h.callerScope(c)
	return utils.SuccessResponse(c, "Scope retrieved", fiber.Map{
		"institution_ids": scope.IDs(),
		"count":           scope.Len(),
	})
}

// GetInstitution returns one node with its ancestor path, provided it is
// inside the caller's scope. Out-of-scope ids read as not found.
func (h *HierarchyHandler) GetInstitution(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid institution id", nil)
	}

	scope := h.callerScope(c)
	store := h.hierarchy.Store()

	node, ok := store.Node(id)
	if !ok || !scope.Contains(id) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Institution not found", nil)
	}

	return utils.SuccessResponse(c, "Institution retrieved", fiber.Map{
		"institution": node,
		"path":        store.AncestorPath(id),
	})
}

// GetChildren returns the direct children of a node within scope.
func (h *HierarchyHandler) GetChildren(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid institution id", nil)
	}

	scope := h.callerScope(c)
	if !scope.Contains(id) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Institution not found", nil)
	}

	var children []models.Institution
	for _, child := range h.hierarchy.Store().ChildrenAt(id, 1) {
		if scope.Contains(child.ID) {
			children = append(children, child)
		}
	}
	sortInstitutions(children)

	return utils.SuccessResponse(c, "Children retrieved", children)
}

// GetSubtree returns every visible institution under a node.
func (h *HierarchyHandler) GetSubtree(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid institution id", nil)
	}

	scope := h.callerScope(c)
	nodes := h.hierarchy.SubtreeFor(scope, id)
	if nodes == nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Institution not found", nil)
	}
	sortInstitutions(nodes)

	return utils.SuccessResponse(c, "Subtree retrieved", nodes)
}

// Reload rebuilds the snapshot from the database.
func (h *HierarchyHandler) Reload(c *fiber.Ctx) error {
	if err := h.hierarchy.Reload(); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reload hierarchy", err)
	}
	return utils.SuccessResponse(c, "Hierarchy reloaded", fiber.Map{
		"institutions": h.hierarchy.Store().Len(),
	})
}

func (h *HierarchyHandler) callerScope(c *fiber.Ctx) models.AccessScope {
	role, _ := c.Locals("role").(string)
	institutionID, _ := c.Locals("institution_id").(int)
	return h.hierarchy.ScopeFor(role, institutionID)
}

func sortInstitutions(nodes []models.Institution) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Level != nodes[j].Level {
			return nodes[i].Level < nodes[j].Level
		}
		return nodes[i].ID < nodes[j].ID
	})
}
