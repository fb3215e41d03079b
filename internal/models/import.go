package models

import "time"

// Finding severities. Critical findings make a row invalid; warnings never do.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Finding categories used for grouping and suggestion generation.
const (
	CategoryStructural         = "structural"
	CategoryMissingInstitution = "missing_institution"
	CategoryNotInScope         = "not_in_scope"
	CategoryNameMatch          = "name_match"
	CategoryMissingField       = "missing_required_field"
	CategoryInvalidFormat      = "invalid_format"
	CategoryInvalidEnum        = "invalid_enum"
	CategoryCrossField         = "cross_field"
	CategoryDuplicate          = "duplicate_identifier"
	CategoryDuplicateInBatch   = "duplicate_in_batch"
)

// Finding is a single validation observation attached to a row.
type Finding struct {
	Field      string `json:"field"`
	Value      string `json:"value"`
	Severity   string `json:"severity"`
	Category   string `json:"category"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ImportRow is one source row plus its resolution result and findings.
// RowNumber is the spreadsheet row (header is row 1).
type ImportRow struct {
	RowNumber     int               `json:"row_number"`
	Data          map[string]string `json:"data"`
	InstitutionID int               `json:"institution_id"`
	Findings      []Finding         `json:"findings,omitempty"`
}

func (r *ImportRow) AddFinding(f Finding) {
	r.Findings = append(r.Findings, f)
}

// IsValid reports whether the row carries zero critical findings.
func (r *ImportRow) IsValid() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			return false
		}
	}
	return true
}

func (r *ImportRow) WarningCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// ImportReport aggregates all row outcomes of one validation run. It is
// immutable once returned: every input row appears in exactly one of
// ValidRows/InvalidRows, in input order.
type ImportReport struct {
	TotalRows       int            `json:"total_rows"`
	ValidCount      int            `json:"valid_count"`
	InvalidCount    int            `json:"invalid_count"`
	WarningCount    int            `json:"warning_count"`
	ValidPercentage float64        `json:"valid_percentage"`
	ValidRows       []ImportRow    `json:"valid_rows"`
	InvalidRows     []ImportRow    `json:"invalid_rows"`
	CategoryCounts  map[string]int `json:"category_counts"`
	Suggestions     []string       `json:"suggestions"`
}

// Duplicate handling policies for commit.
const (
	PolicySkip   = "skip"
	PolicyUpdate = "update"
	PolicyReject = "reject"
)

// Row commit states. A row moves Pending -> Resolved -> FieldValid ->
// DuplicateChecked and terminates in one of Skipped/Updated/Created/Failed.
const (
	OutcomePending          = "pending"
	OutcomeResolved         = "resolved"
	OutcomeFieldValid       = "field_valid"
	OutcomeDuplicateChecked = "duplicate_checked"
	OutcomeSkipped          = "skipped"
	OutcomeUpdated          = "updated"
	OutcomeCreated          = "created"
	OutcomeFailed           = "failed"
)

// RowOutcome is the per-row commit result.
type RowOutcome struct {
	RowNumber  int    `json:"row_number"`
	NaturalKey string `json:"natural_key"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// ImportSession tracks one upload through its lifecycle.
type ImportSession struct {
	ID            int       `db:"id" json:"id"`
	SessionCode   string    `db:"session_code" json:"session_code"`
	UserID        int       `db:"user_id" json:"user_id"`
	Kind          string    `db:"kind" json:"kind"`
	Filename      string    `db:"filename" json:"filename"`
	FilePath      string    `db:"file_path" json:"file_path"`
	TotalRows     int       `db:"total_rows" json:"total_rows"`
	ProcessedRows int       `db:"processed_rows" json:"processed_rows"`
	FailedRows    int       `db:"failed_rows" json:"failed_rows"`
	Status        string    `db:"status" json:"status"`
	ErrorMessage  string    `db:"error_message" json:"error_message"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Import session statuses.
const (
	SessionPending    = "pending"
	SessionValidating = "validating"
	SessionValidated  = "validated"
	SessionCommitting = "committing"
	SessionCompleted  = "completed"
	SessionFailed     = "failed"
	SessionCanceled   = "canceled"
)
