/*
handlers.go - HTTP API handlers for the maintenance plan

PURPOSE:
  Exposes the maintenance core via a REST API for the planning UI.
  Handles HTTP request/response and JSON serialization, and delegates to
  the maintenance, importer and report packages.

ENDPOINTS:
  Configuration:
    GET    /api/config                 Current store location
    PUT    /api/config/store           Select/create the plan database

  Import and planning:
    POST   /api/import                 Upload a roster (multipart "file")
    GET    /api/import                 Imported rows (?ubicacion=)
    GET    /api/import/locations       Distinct imported locations
    POST   /api/plan                   Save tentative dates

  Plan records:
    GET    /api/records                List (?ubicacion=, ?cumplido=)
    DELETE /api/records                Delete by ids
    POST   /api/compliance             Batch completion toggle

  Reporting:
    GET    /api/insights               Completion summary
    POST   /api/report                 Generate LaTeX report

ARCHITECTURE:
  Handler owns the planning Session (imported roster + selected store)
  and the persisted configuration. Session access is serialized with a
  mutex; the core packages do no locking of their own.

ERROR HANDLING:
  Errors are returned as JSON with an HTTP status from their category:
  - 400: Invalid input, missing import columns
  - 404: Record not found
  - 422: Report template unusable, empty plan
  - 503: Store missing, locked or unreadable
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/warp/maintenance-plan/config"
	"github.com/warp/maintenance-plan/importer"
	"github.com/warp/maintenance-plan/maintenance"
	"github.com/warp/maintenance-plan/report"
	"github.com/warp/maintenance-plan/store/sqlite"
)

// maxUploadBytes bounds roster uploads.
const maxUploadBytes = 32 << 20

// StoreFactory opens the plan store at a location.
type StoreFactory func(path string) maintenance.Store

// SQLiteStore is the default StoreFactory.
func SQLiteStore(path string) maintenance.Store {
	return sqlite.New(path)
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Config    *config.File
	OpenStore StoreFactory
	// Now is the clock for classification, insights and completion dates.
	Now func() time.Time

	mu      sync.Mutex
	session *maintenance.Session
}

// NewHandler creates a handler. When the configuration remembers a store
// location, that store is selected.
func NewHandler(cfg *config.File, open StoreFactory) *Handler {
	if open == nil {
		open = SQLiteStore
	}
	h := &Handler{
		Config:    cfg,
		OpenStore: open,
		Now:       time.Now,
		session:   maintenance.NewSession(nil),
	}
	if loc := cfg.StoreLocation(); loc != "" {
		h.session.Store = open(loc)
	}
	return h
}

func (h *Handler) today() time.Time {
	return maintenance.Midnight(h.Now())
}

// store returns the selected store or ErrNoStoreSelected.
func (h *Handler) store() (maintenance.Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session.Store == nil {
		return nil, maintenance.ErrNoStoreSelected
	}
	return h.session.Store, nil
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// GetConfig returns the persisted configuration.
// GET /api/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConfigDTO{StoreLocation: h.Config.StoreLocation()})
}

// SelectStore creates/migrates the plan database and remembers it.
// PUT /api/config/store
func (h *Handler) SelectStore(w http.ResponseWriter, r *http.Request) {
	var req SelectStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		writeError(w, http.StatusBadRequest, "plan_db is required", nil)
		return
	}

	store := h.OpenStore(path)
	if err := store.EnsureSchema(r.Context()); err != nil {
		writeDomainError(w, "Failed to open plan database", err)
		return
	}
	if err := h.Config.SetStoreLocation(path); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save configuration", err)
		return
	}

	h.mu.Lock()
	h.session.Store = store
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, ConfigDTO{StoreLocation: path})
}

// =============================================================================
// IMPORT AND PLANNING
// =============================================================================

// ImportRoster reads an uploaded roster into the session.
// POST /api/import
func (h *Handler) ImportRoster(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Multipart field 'file' is required", err)
		return
	}
	defer file.Close()

	today := h.today()
	rows, err := importer.Read(file, header.Filename, today)
	if err != nil {
		writeDomainError(w, "Failed to import roster", err)
		return
	}

	h.mu.Lock()
	loaded := h.session.Load(rows, today)
	locations := h.session.Locations()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, ImportResponse{Rows: loaded, Locations: nonNil(locations)})
}

// ListImported returns the imported roster.
// GET /api/import?ubicacion=Lab1
func (h *Handler) ListImported(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	rows := h.session.Imported(r.URL.Query().Get("ubicacion"))
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, rows)
}

// ListImportedLocations returns the distinct imported locations.
// GET /api/import/locations
func (h *Handler) ListImportedLocations(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	locs := h.session.Locations()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, nonNil(locs))
}

// SavePlan persists tentative dates for imported rows.
// POST /api/plan
func (h *Handler) SavePlan(w http.ResponseWriter, r *http.Request) {
	var req SavePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Assignments) == 0 {
		writeError(w, http.StatusBadRequest, "At least one assignment is required", nil)
		return
	}

	h.mu.Lock()
	result, err := h.session.SavePlan(r.Context(), req.Assignments)
	h.mu.Unlock()
	if err != nil {
		writeDomainError(w, "Failed to save plan", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// =============================================================================
// PLAN RECORDS
// =============================================================================

// ListRecords returns plan rows.
// GET /api/records?ubicacion=Lab1&cumplido=false
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	store, err := h.store()
	if err != nil {
		writeDomainError(w, "No plan database selected", err)
		return
	}

	q := r.URL.Query()
	filter := maintenance.Filter{Location: q.Get("ubicacion")}
	if v := q.Get("cumplido"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid cumplido (use true/false)", err)
			return
		}
		filter.Completed = &b
	}

	records, err := store.ListBy(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "Failed to list records", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// DeleteRecords removes plan rows by id.
// DELETE /api/records
func (h *Handler) DeleteRecords(w http.ResponseWriter, r *http.Request) {
	var req DeleteRecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	store, err := h.store()
	if err != nil {
		writeDomainError(w, "No plan database selected", err)
		return
	}
	n, err := store.Delete(r.Context(), req.IDs)
	if err != nil {
		writeDomainError(w, "Failed to delete records", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Affected: n})
}

// UpdateCompliance applies a batch of completion changes.
// POST /api/compliance
func (h *Handler) UpdateCompliance(w http.ResponseWriter, r *http.Request) {
	var req ComplianceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	store, err := h.store()
	if err != nil {
		writeDomainError(w, "No plan database selected", err)
		return
	}

	changes := make(map[int64]bool, len(req.Changes))
	for _, c := range req.Changes {
		changes[c.ID] = c.Completed
	}

	updater := maintenance.NewUpdater(store)
	updater.Now = h.Now
	n, err := updater.ApplyBatch(r.Context(), changes)
	if err != nil {
		writeDomainError(w, "Failed to update compliance", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Affected: n})
}

// =============================================================================
// REPORTING
// =============================================================================

// GetInsights summarizes the plan as of today.
// GET /api/insights
func (h *Handler) GetInsights(w http.ResponseWriter, r *http.Request) {
	store, err := h.store()
	if err != nil {
		writeDomainError(w, "No plan database selected", err)
		return
	}
	records, err := store.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to read plan", err)
		return
	}
	writeJSON(w, http.StatusOK, toInsightsDTO(maintenance.Summarize(records, h.today())))
}

// GenerateReport renders the LaTeX report to OutputPath.
// POST /api/report
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Period) == "" {
		writeError(w, http.StatusBadRequest, "periodo_academico is required", nil)
		return
	}
	if strings.TrimSpace(req.PresentationDate) == "" {
		req.PresentationDate = report.PresentationDate(h.Now())
	}

	store, err := h.store()
	if err != nil {
		writeDomainError(w, "No plan database selected", err)
		return
	}

	err = report.NewGenerator(store).Generate(r.Context(), report.Request{
		TemplatePath: req.TemplatePath,
		OutputPath:   req.OutputPath,
		Params: report.Params{
			Period:           strings.TrimSpace(req.Period),
			PresentationDate: strings.TrimSpace(req.PresentationDate),
		},
	})
	if err != nil {
		writeDomainError(w, "Failed to generate report", err)
		return
	}
	writeJSON(w, http.StatusOK, ReportResponse{OutputPath: req.OutputPath})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's category.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var missing *maintenance.MissingColumnsError
	if errors.As(err, &missing) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   message,
			Details: map[string]any{"missing_columns": missing.Columns},
		})
		return
	}
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case maintenance.IsInputError(err):
		return http.StatusBadRequest
	case maintenance.IsNotFound(err):
		return http.StatusNotFound
	case maintenance.IsTemplateError(err), errors.Is(err, maintenance.ErrNoRecords):
		return http.StatusUnprocessableEntity
	case maintenance.IsStorageError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
