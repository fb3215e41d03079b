package service

import (
	"fmt"
	"sync"

	"education-web/internal/models"
	"education-web/internal/repository"
	"education-web/internal/utils"
)

// HierarchyService owns the in-memory snapshot of the institution tree.
// The snapshot is immutable once built; Reload swaps it atomically, so
// readers never see a half-built tree.
type HierarchyService struct {
	institutions *repository.InstitutionRepository

	mu    sync.RWMutex
	store *HierarchyStore
}

func NewHierarchyService(institutions *repository.InstitutionRepository) *HierarchyService {
	return &HierarchyService{institutions: institutions}
}

// NewHierarchyServiceWithStore seeds a service with a prebuilt snapshot.
// Reload is unavailable on a service built this way.
func NewHierarchyServiceWithStore(store *HierarchyStore) *HierarchyService {
	return &HierarchyService{store: store}
}

// Reload rebuilds the snapshot from the database. Called on startup and
// after any import that creates or updates institutions.
func (s *HierarchyService) Reload() error {
	all, err := s.institutions.FindAllActive()
	if err != nil {
		return fmt.Errorf("failed to load institutions: %w", err)
	}

	store := NewHierarchyStore(all)

	s.mu.Lock()
	s.store = store
	s.mu.Unlock()

	utils.GetLogger().WithField("institutions", store.Len()).Info("Hierarchy snapshot reloaded")
	return nil
}

// Store returns the current snapshot. Empty before the first Reload.
func (s *HierarchyService) Store() *HierarchyStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return NewHierarchyStore(nil)
	}
	return s.store
}

// ScopeFor computes the caller's access scope against the current snapshot.
func (s *HierarchyService) ScopeFor(role string, institutionID int) models.AccessScope {
	return ComputeScope(role, institutionID, s.Store())
}

// SubtreeFor returns the institutions visible to the caller under rootID,
// or nil when rootID is outside the caller's scope.
func (s *HierarchyService) SubtreeFor(scope models.AccessScope, rootID int) []models.Institution {
	if !scope.Contains(rootID) {
		return nil
	}

	store := s.Store()
	var nodes []models.Institution
	for id := range store.Descendants(rootID) {
		if node, ok := store.Node(id); ok && scope.Contains(id) {
			nodes = append(nodes, node)
		}
	}
	return nodes
}
