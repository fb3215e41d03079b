package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"education-web/internal/models"
)

func intPtr(v int) *int { return &v }

// testInstitutions builds the fixture tree used across the service tests:
//
//	1 ministry
//	├── 2 region "Baku"          (UTIS-R2 / REG-BAKU / BA)
//	│   ├── 4 sector "Nizami"    (UTIS-S4 / SEC-NIZ)
//	│   │   ├── 6 school No. 6   (UTIS-10234 / SCH-0006)
//	│   │   └── 7 school No. 7   (UTIS-10235 / SCH-0007)
//	│   └── 5 sector "Sabail"    (UTIS-S5 / SEC-SAB)
//	│       └── 8 school No. 8   (UTIS-10236 / SCH-0008)
//	└── 3 region "Ganja"         (UTIS-R3 / REG-GANJA / GA)
//	    └── 9 sector "Kapaz"     (UTIS-S9 / SEC-KAP)
func testInstitutions() []models.Institution {
	return []models.Institution{
		{ID: 1, Level: models.LevelMinistry, Name: "Ministry of Education", UTISCode: "UTIS-R1"},
		{ID: 2, ParentID: intPtr(1), Level: models.LevelRegion, Name: "Baku City Education Department", UTISCode: "UTIS-R2", InstitutionCode: "REG-BAKU", RegionCode: "BA"},
		{ID: 3, ParentID: intPtr(1), Level: models.LevelRegion, Name: "Ganja City Education Department", UTISCode: "UTIS-R3", InstitutionCode: "REG-GANJA", RegionCode: "GA"},
		{ID: 4, ParentID: intPtr(2), Level: models.LevelSector, Name: "Nizami Sector Office", UTISCode: "UTIS-S4", InstitutionCode: "SEC-NIZ"},
		{ID: 5, ParentID: intPtr(2), Level: models.LevelSector, Name: "Sabail Sector Office", UTISCode: "UTIS-S5", InstitutionCode: "SEC-SAB"},
		{ID: 6, ParentID: intPtr(4), Level: models.LevelSchool, Name: "School No. 6", UTISCode: "UTIS-10234", InstitutionCode: "SCH-0006"},
		{ID: 7, ParentID: intPtr(4), Level: models.LevelSchool, Name: "School No. 7", UTISCode: "UTIS-10235", InstitutionCode: "SCH-0007"},
		{ID: 8, ParentID: intPtr(5), Level: models.LevelSchool, Name: "School No. 8", UTISCode: "UTIS-10236", InstitutionCode: "SCH-0008"},
		{ID: 9, ParentID: intPtr(3), Level: models.LevelSector, Name: "Kapaz Sector Office", UTISCode: "UTIS-S9", InstitutionCode: "SEC-KAP"},
	}
}

func testStore() *HierarchyStore {
	return NewHierarchyStore(testInstitutions())
}

func TestDescendants(t *testing.T) {
	store := testStore()

	t.Run("full tree from root", func(t *testing.T) {
		got := store.Descendants(1)
		assert.Len(t, got, 9)
	})

	t.Run("region subtree", func(t *testing.T) {
		got := store.Descendants(2)
		assert.Len(t, got, 6)
		for _, id := range []int{2, 4, 5, 6, 7, 8} {
			assert.Contains(t, got, id)
		}
		assert.NotContains(t, got, 3)
		assert.NotContains(t, got, 9)
	})

	t.Run("leaf includes only itself", func(t *testing.T) {
		got := store.Descendants(6)
		assert.Equal(t, map[int]struct{}{6: {}}, got)
	})

	t.Run("unknown id yields empty set", func(t *testing.T) {
		assert.Empty(t, store.Descendants(999))
	})
}

func TestDescendantsCycleTerminates(t *testing.T) {
	// 10 -> 11 -> 10 parent links form a cycle.
	store := NewHierarchyStore([]models.Institution{
		{ID: 10, ParentID: intPtr(11), Level: 2, Name: "A"},
		{ID: 11, ParentID: intPtr(10), Level: 3, Name: "B"},
	})

	got := store.Descendants(10)
	assert.Len(t, got, 2)
}

func TestAncestorPath(t *testing.T) {
	store := testStore()

	t.Run("school path runs root to leaf", func(t *testing.T) {
		path := store.AncestorPath(6)
		require.Len(t, path, 4)
		assert.Equal(t, []int{1, 2, 4, 6}, []int{path[0].ID, path[1].ID, path[2].ID, path[3].ID})
	})

	t.Run("root path is itself", func(t *testing.T) {
		path := store.AncestorPath(1)
		require.Len(t, path, 1)
		assert.Equal(t, 1, path[0].ID)
	})

	t.Run("unknown node", func(t *testing.T) {
		assert.Nil(t, store.AncestorPath(999))
	})
}

func TestAncestorPathCycleTruncates(t *testing.T) {
	store := NewHierarchyStore([]models.Institution{
		{ID: 10, ParentID: intPtr(11), Level: 2, Name: "A"},
		{ID: 11, ParentID: intPtr(10), Level: 3, Name: "B"},
	})

	path := store.AncestorPath(10)
	assert.NotEmpty(t, path)
	assert.LessOrEqual(t, len(path), 2)
}

func TestChildrenAt(t *testing.T) {
	store := testStore()

	t.Run("direct children", func(t *testing.T) {
		children := store.ChildrenAt(2, 1)
		ids := institutionIDs(children)
		assert.ElementsMatch(t, []int{4, 5}, ids)
	})

	t.Run("grandchildren", func(t *testing.T) {
		children := store.ChildrenAt(2, 2)
		ids := institutionIDs(children)
		assert.ElementsMatch(t, []int{6, 7, 8}, ids)
	})

	t.Run("past the leaves", func(t *testing.T) {
		assert.Empty(t, store.ChildrenAt(6, 1))
	})

	t.Run("zero offset", func(t *testing.T) {
		assert.Nil(t, store.ChildrenAt(2, 0))
	})
}

func TestValidParentLevel(t *testing.T) {
	store := testStore()

	assert.True(t, store.ValidParentLevel(nil, models.LevelMinistry))
	assert.False(t, store.ValidParentLevel(nil, models.LevelRegion))
	assert.True(t, store.ValidParentLevel(intPtr(2), models.LevelSector))
	assert.False(t, store.ValidParentLevel(intPtr(2), models.LevelSchool))
	assert.False(t, store.ValidParentLevel(intPtr(999), models.LevelSector))
}

func institutionIDs(nodes []models.Institution) []int {
	ids := make([]int, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}
