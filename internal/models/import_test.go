package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImportRowValidity(t *testing.T) {
	row := ImportRow{RowNumber: 2}
	assert.True(t, row.IsValid())

	row.AddFinding(Finding{Severity: SeverityWarning, Category: CategoryNameMatch})
	assert.True(t, row.IsValid(), "warnings alone keep a row valid")
	assert.Equal(t, 1, row.WarningCount())

	row.AddFinding(Finding{Severity: SeverityCritical, Category: CategoryInvalidFormat})
	assert.False(t, row.IsValid())
	assert.Equal(t, 1, row.WarningCount())
}

func TestClassKey(t *testing.T) {
	assert.Equal(t, "6/5-B", ClassKey(6, 5, "b"))
	assert.Equal(t, ClassKey(6, 5, "B"), ClassKey(6, 5, "b"))
	assert.NotEqual(t, ClassKey(6, 5, "A"), ClassKey(7, 5, "A"))
}
