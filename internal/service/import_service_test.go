package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"education-web/internal/models"
)

func TestFinalCommitStatus(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		result     *CommitResult
		wantWrite  bool
		wantStatus string
	}{
		{
			name:       "clean run completes",
			current:    models.SessionCommitting,
			result:     &CommitResult{Created: 5},
			wantWrite:  true,
			wantStatus: models.SessionCompleted,
		},
		{
			name:       "row failures still complete",
			current:    models.SessionCommitting,
			result:     &CommitResult{Created: 3, Failed: 2},
			wantWrite:  true,
			wantStatus: models.SessionCompleted,
		},
		{
			name:       "executor stopped mid-run",
			current:    models.SessionCommitting,
			result:     &CommitResult{Created: 2, Canceled: true},
			wantWrite:  true,
			wantStatus: models.SessionCanceled,
		},
		{
			name:      "user cancel during last batch is kept",
			current:   models.SessionCanceled,
			result:    &CommitResult{Created: 5},
			wantWrite: false,
		},
		{
			name:      "user cancel with failed rows is kept",
			current:   models.SessionCanceled,
			result:    &CommitResult{Created: 3, Failed: 2},
			wantWrite: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, ok := finalCommitStatus(tt.current, tt.result)
			assert.Equal(t, tt.wantWrite, ok)
			if tt.wantWrite {
				assert.Equal(t, tt.wantStatus, status)
			}
		})
	}
}

func TestNewSessionCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := newSessionCode()
		assert.True(t, strings.HasPrefix(code, "IMP-"))
		assert.Len(t, code, 12)
		assert.Equal(t, strings.ToUpper(code), code)
		assert.False(t, seen[code])
		seen[code] = true
	}
}
