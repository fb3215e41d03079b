package service

import (
	"fmt"
	"strconv"
	"strings"

	"education-web/internal/models"
)

// Row columns used for institution lookup, in cascade priority order.
const (
	ColUTISCode        = "institution_utis_code"
	ColInstitutionCode = "institution_code"
	ColInstitutionID   = "institution_id"
	ColInstitutionName = "institution_name"
)

// CacheIndex holds the lookup maps for one pipeline run. Built once from the
// nodes inside the current scope and read-only afterwards, so rows can be
// resolved concurrently without locking.
type CacheIndex struct {
	byUTIS map[string]models.Institution
	byCode map[string]models.Institution
	byID   map[int]models.Institution
	byName map[string]models.Institution
}

// EntityResolver maps raw row identifiers onto institutions inside an access
// scope. Lookup keys are tried in strict priority: government UTIS code,
// local institution code, numeric id, then exact name as a last resort.
type EntityResolver struct {
	scope models.AccessScope
	index CacheIndex
}

func NewEntityResolver(scope models.AccessScope, store *HierarchyStore) *EntityResolver {
	index := CacheIndex{
		byUTIS: make(map[string]models.Institution),
		byCode: make(map[string]models.Institution),
		byID:   make(map[int]models.Institution),
		byName: make(map[string]models.Institution),
	}

	for _, id := range scope.IDs() {
		inst, ok := store.Node(id)
		if !ok {
			continue
		}
		index.byID[inst.ID] = inst
		if code := strings.TrimSpace(inst.UTISCode); code != "" {
			index.byUTIS[code] = inst
		}
		if code := strings.TrimSpace(inst.InstitutionCode); code != "" {
			index.byCode[code] = inst
		}
		if name := strings.TrimSpace(inst.Name); name != "" {
			index.byName[name] = inst
		}
	}

	return &EntityResolver{scope: scope, index: index}
}

// Resolve maps one row onto an institution. Each cascade step runs only when
// the prior ones produced no candidate. A found candidate is still checked
// against the scope: the cache is scope-filtered already, but membership is
// asserted per resolution rather than assumed from the pre-filtering.
func (r *EntityResolver) Resolve(row map[string]string) (*models.Institution, []models.Finding) {
	var findings []models.Finding

	utisCode := strings.TrimSpace(row[ColUTISCode])
	instCode := strings.TrimSpace(row[ColInstitutionCode])
	instID := strings.TrimSpace(row[ColInstitutionID])
	instName := strings.TrimSpace(row[ColInstitutionName])

	var candidate *models.Institution

	if utisCode != "" {
		if inst, ok := r.index.byUTIS[utisCode]; ok {
			candidate = &inst
		}
	}

	if candidate == nil && instCode != "" {
		if inst, ok := r.index.byCode[instCode]; ok {
			candidate = &inst
		}
	}

	if candidate == nil && instID != "" {
		if id, err := strconv.Atoi(instID); err == nil {
			if inst, ok := r.index.byID[id]; ok {
				candidate = &inst
			}
		}
	}

	if candidate == nil && instName != "" {
		if inst, ok := r.index.byName[instName]; ok {
			candidate = &inst
			findings = append(findings, models.Finding{
				Field:      ColInstitutionName,
				Value:      instName,
				Severity:   models.SeverityWarning,
				Category:   models.CategoryNameMatch,
				Message:    "institution matched by name only",
				Suggestion: "use the UTIS code or institution code instead of the name",
			})
		}
	}

	if candidate == nil {
		identifier := firstNonEmpty(utisCode, instCode, instID, instName)
		findings = append(findings, models.Finding{
			Field:      "institution",
			Value:      identifier,
			Severity:   models.SeverityCritical,
			Category:   models.CategoryMissingInstitution,
			Message:    missingInstitutionMessage(utisCode, instCode, instID),
			Suggestion: "check the code against the institution reference sheet",
		})
		return nil, findings
	}

	if !r.scope.Contains(candidate.ID) {
		findings = append(findings, models.Finding{
			Field:      "institution",
			Value:      fmt.Sprintf("%d", candidate.ID),
			Severity:   models.SeverityCritical,
			Category:   models.CategoryNotInScope,
			Message:    fmt.Sprintf("institution %q is not in your scope", candidate.Name),
			Suggestion: "only institutions under your own region or sector can be targeted",
		})
		return nil, findings
	}

	return candidate, findings
}

func missingInstitutionMessage(utisCode, instCode, instID string) string {
	var empty []string
	if utisCode == "" {
		empty = append(empty, ColUTISCode)
	}
	if instCode == "" {
		empty = append(empty, ColInstitutionCode)
	}
	if instID == "" {
		empty = append(empty, ColInstitutionID)
	}
	if len(empty) == 3 {
		return "no institution identifier provided (utis code, institution code and id are all empty)"
	}
	return fmt.Sprintf("institution not found; empty keys: %s", strings.Join(empty, ", "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "(empty)"
}
