package service

import "education-web/internal/models"

// ComputeScope resolves the set of institutions an actor may act upon from
// its role and home institution. Pure function over the store: no queries,
// no mutation, so it is testable with table-driven cases.
//
// Deny is always expressed as an empty scope, never an error.
func ComputeScope(role string, homeID int, store *HierarchyStore) models.AccessScope {
	switch role {
	case models.RoleSuperAdmin:
		return models.NewAccessScope(store.AllIDs())

	case models.RoleRegionAdmin, models.RoleRegionOperator:
		region, ok := homeRegion(homeID, store)
		if !ok {
			return models.EmptyAccessScope()
		}
		return models.NewAccessScopeFromSet(store.Descendants(region.ID))

	case models.RoleSectorAdmin:
		home, ok := store.Node(homeID)
		if !ok || home.Level != models.LevelSector {
			return models.EmptyAccessScope()
		}
		return models.NewAccessScopeFromSet(store.Descendants(home.ID))

	case models.RoleSchoolAdmin, models.RoleTeacher:
		if _, ok := store.Node(homeID); !ok {
			return models.EmptyAccessScope()
		}
		return models.NewAccessScope([]int{homeID})

	default:
		return models.EmptyAccessScope()
	}
}

// ComputeScopeForRegion is ComputeScope narrowed to an explicitly requested
// region. A request for a region outside the actor's home region yields the
// empty scope rather than an error.
func ComputeScopeForRegion(role string, homeID, requestedRegionID int, store *HierarchyStore) models.AccessScope {
	scope := ComputeScope(role, homeID, store)
	if role == models.RoleSuperAdmin {
		if _, ok := store.Node(requestedRegionID); !ok {
			return models.EmptyAccessScope()
		}
		return models.NewAccessScopeFromSet(store.Descendants(requestedRegionID))
	}
	if !scope.Contains(requestedRegionID) {
		return models.EmptyAccessScope()
	}
	return models.NewAccessScopeFromSet(store.Descendants(requestedRegionID))
}

// homeRegion maps a home institution onto its level-2 region: the node itself
// when it already is a region, otherwise its parent.
func homeRegion(homeID int, store *HierarchyStore) (models.Institution, bool) {
	home, ok := store.Node(homeID)
	if !ok {
		return models.Institution{}, false
	}
	if home.Level == models.LevelRegion {
		return home, true
	}
	if home.ParentID == nil {
		return models.Institution{}, false
	}
	parent, ok := store.Node(*home.ParentID)
	if !ok || parent.Level != models.LevelRegion {
		return models.Institution{}, false
	}
	return parent, true
}
