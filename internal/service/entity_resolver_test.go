package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"education-web/internal/models"
)

// regionScopeResolver builds a resolver scoped to region 2 (Baku).
func regionScopeResolver() *EntityResolver {
	store := testStore()
	scope := ComputeScope(models.RoleRegionAdmin, 2, store)
	return NewEntityResolver(scope, store)
}

func TestResolveCascadePriority(t *testing.T) {
	r := regionScopeResolver()

	t.Run("utis code wins over everything else", func(t *testing.T) {
		// The other keys point at school 7; UTIS code must take priority.
		inst, findings := r.Resolve(map[string]string{
			ColUTISCode:        "UTIS-10234",
			ColInstitutionCode: "SCH-0007",
			ColInstitutionID:   "7",
			ColInstitutionName: "School No. 7",
		})
		require.NotNil(t, inst)
		assert.Equal(t, 6, inst.ID)
		assert.Empty(t, findings)
	})

	t.Run("institution code wins over id and name", func(t *testing.T) {
		inst, findings := r.Resolve(map[string]string{
			ColInstitutionCode: "SCH-0006",
			ColInstitutionID:   "7",
			ColInstitutionName: "School No. 7",
		})
		require.NotNil(t, inst)
		assert.Equal(t, 6, inst.ID)
		assert.Empty(t, findings)
	})

	t.Run("numeric id wins over name", func(t *testing.T) {
		inst, findings := r.Resolve(map[string]string{
			ColInstitutionID:   "6",
			ColInstitutionName: "School No. 7",
		})
		require.NotNil(t, inst)
		assert.Equal(t, 6, inst.ID)
		assert.Empty(t, findings)
	})

	t.Run("whitespace around keys is tolerated", func(t *testing.T) {
		inst, findings := r.Resolve(map[string]string{
			ColUTISCode: "  UTIS-10234  ",
		})
		require.NotNil(t, inst)
		assert.Equal(t, 6, inst.ID)
		assert.Empty(t, findings)
	})
}

func TestResolveNameMatchWarning(t *testing.T) {
	r := regionScopeResolver()

	inst, findings := r.Resolve(map[string]string{
		ColInstitutionName: "School No. 6",
	})
	require.NotNil(t, inst)
	assert.Equal(t, 6, inst.ID)

	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityWarning, findings[0].Severity)
	assert.Equal(t, models.CategoryNameMatch, findings[0].Category)
}

func TestResolveFailures(t *testing.T) {
	r := regionScopeResolver()

	t.Run("unknown code", func(t *testing.T) {
		inst, findings := r.Resolve(map[string]string{
			ColUTISCode: "UTIS-99999",
		})
		assert.Nil(t, inst)
		require.Len(t, findings, 1)
		assert.Equal(t, models.SeverityCritical, findings[0].Severity)
		assert.Equal(t, models.CategoryMissingInstitution, findings[0].Category)
		assert.Equal(t, "UTIS-99999", findings[0].Value)
	})

	t.Run("no identifiers at all", func(t *testing.T) {
		inst, findings := r.Resolve(map[string]string{})
		assert.Nil(t, inst)
		require.Len(t, findings, 1)
		assert.Equal(t, models.CategoryMissingInstitution, findings[0].Category)
		assert.Contains(t, findings[0].Message, "no institution identifier provided")
	})

	t.Run("valid code outside the scope", func(t *testing.T) {
		// Scope is Baku; UTIS-S9 lives under Ganja and is absent from the
		// index, so from the caller's view it simply does not exist.
		inst, findings := r.Resolve(map[string]string{
			ColUTISCode: "UTIS-S9",
		})
		assert.Nil(t, inst)
		require.Len(t, findings, 1)
		assert.Equal(t, models.CategoryMissingInstitution, findings[0].Category)
	})

	t.Run("non-numeric id falls through to name", func(t *testing.T) {
		inst, findings := r.Resolve(map[string]string{
			ColInstitutionID:   "abc",
			ColInstitutionName: "School No. 8",
		})
		require.NotNil(t, inst)
		assert.Equal(t, 8, inst.ID)
		require.Len(t, findings, 1)
		assert.Equal(t, models.CategoryNameMatch, findings[0].Category)
	})
}

func TestResolveScopeRecheck(t *testing.T) {
	// An index built over a wider set than the scope still denies: membership
	// is asserted per resolution, not assumed from the cache contents.
	store := testStore()
	wide := ComputeScope(models.RoleSuperAdmin, 0, store)
	narrow := models.NewAccessScope([]int{6})

	r := &EntityResolver{scope: narrow, index: NewEntityResolver(wide, store).index}

	inst, findings := r.Resolve(map[string]string{ColUTISCode: "UTIS-10235"})
	assert.Nil(t, inst)
	require.Len(t, findings, 1)
	assert.Equal(t, models.CategoryNotInScope, findings[0].Category)
}
