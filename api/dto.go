/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures of the HTTP surface. Plan rows and imported rows are
  served with the maintenance package's own json tags (Spanish column
  names), so only envelopes and request bodies live here.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - maintenance/types.go: Record, ImportedEquipment
*/
package api

import (
	"github.com/warp/maintenance-plan/maintenance"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// ConfigDTO is the persisted configuration exposed to the UI.
type ConfigDTO struct {
	StoreLocation string `json:"plan_db"`
}

// SelectStoreRequest picks (and creates when needed) the plan database.
type SelectStoreRequest struct {
	Path string `json:"plan_db"`
}

// =============================================================================
// IMPORT AND PLANNING
// =============================================================================

// ImportResponse is returned after a roster upload.
type ImportResponse struct {
	Rows      []maintenance.ImportedEquipment `json:"rows"`
	Locations []string                        `json:"locations"`
}

// SavePlanRequest carries tentative dates for imported rows.
type SavePlanRequest struct {
	Assignments []maintenance.Assignment `json:"assignments"`
}

// =============================================================================
// RECORDS AND COMPLIANCE
// =============================================================================

// DeleteRecordsRequest lists plan rows to remove.
type DeleteRecordsRequest struct {
	IDs []int64 `json:"ids"`
}

// ComplianceChange sets one record's completion state.
type ComplianceChange struct {
	ID        int64 `json:"id"`
	Completed bool  `json:"cumplido"`
}

// ComplianceRequest is a batch of completion changes.
type ComplianceRequest struct {
	Changes []ComplianceChange `json:"changes"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Affected int64 `json:"affected"`
}

// =============================================================================
// INSIGHTS
// =============================================================================

// InsightsDTO is the fleet summary with its drill-down lists.
type InsightsDTO struct {
	Total             int                  `json:"total"`
	Completed         int                  `json:"completed"`
	Pending           int                  `json:"pending"`
	CompletionPct     string               `json:"completion_pct"`
	OverdueCount      int                  `json:"overdue_count"`
	DueThisMonthCount int                  `json:"due_this_month_count"`
	Overdue           []maintenance.Record `json:"overdue"`
	DueThisMonth      []maintenance.Record `json:"due_this_month"`
	Summary           string               `json:"summary"`
}

func toInsightsDTO(in maintenance.Insights) InsightsDTO {
	return InsightsDTO{
		Total:             in.Total,
		Completed:         in.Completed,
		Pending:           in.Pending,
		CompletionPct:     in.CompletionPct.StringFixed(1),
		OverdueCount:      in.OverdueCount(),
		DueThisMonthCount: in.DueThisMonthCount(),
		Overdue:           in.Overdue,
		DueThisMonth:      in.DueThisMonth,
		Summary:           in.Summary(),
	}
}

// =============================================================================
// REPORT
// =============================================================================

// ReportRequest describes a LaTeX report run. PresentationDate defaults to
// today's date in long Spanish form.
type ReportRequest struct {
	TemplatePath     string `json:"template"`
	OutputPath       string `json:"output"`
	Period           string `json:"periodo_academico"`
	PresentationDate string `json:"fecha_presentacion"`
}

// ReportResponse confirms where the report was written.
type ReportResponse struct {
	OutputPath string `json:"output"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}
