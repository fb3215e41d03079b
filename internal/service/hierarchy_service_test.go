package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"education-web/internal/models"
)

func TestHierarchyServiceScopeFor(t *testing.T) {
	svc := NewHierarchyServiceWithStore(testStore())

	scope := svc.ScopeFor(models.RoleSectorAdmin, 4)
	assert.Equal(t, []int{4, 6, 7}, scope.IDs())

	assert.True(t, svc.ScopeFor("auditor", 4).IsEmpty())
}

func TestHierarchyServiceSubtreeFor(t *testing.T) {
	svc := NewHierarchyServiceWithStore(testStore())
	scope := svc.ScopeFor(models.RoleRegionAdmin, 2)

	t.Run("subtree inside scope", func(t *testing.T) {
		nodes := svc.SubtreeFor(scope, 4)
		assert.ElementsMatch(t, []int{4, 6, 7}, institutionIDs(nodes))
	})

	t.Run("root outside scope", func(t *testing.T) {
		assert.Nil(t, svc.SubtreeFor(scope, 3))
	})
}

func TestHierarchyServiceEmptyBeforeLoad(t *testing.T) {
	svc := NewHierarchyServiceWithStore(nil)

	assert.Zero(t, svc.Store().Len())
	assert.True(t, svc.ScopeFor(models.RoleSchoolAdmin, 6).IsEmpty())
}
