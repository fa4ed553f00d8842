/*
handlers.go - HTTP API handlers for the HR analytics dashboard

PURPOSE:
  Exposes the analytics engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the Dashboard, the payroll file
  codec and the insight runner.

ENDPOINTS:
  Period:
    GET    /api/period                      Selected period and comparison periods
    PUT    /api/period                      Change year and/or month

  Organizations:
    GET    /api/organizations               List the roster
    PUT    /api/organizations               Replace the roster (validated)
    GET    /api/tree                        Org chart with metrics of the selection
    GET    /api/unattributed                Organizations outside every unit

  Aggregates:
    GET    /api/summary                     KPIs of the selected period
    GET    /api/reporting-units             Per-unit rollup with status
    GET    /api/reporting-units/comparison  Overtime: last year, last month, now
    GET    /api/production/comparison       Same series per production team

  Records:
    GET    /api/records/{kind}?period=      kind: headcount | payroll | attendance
    PUT    /api/records/{kind}?period=      Whole-period replacement
    PATCH  /api/attendance/{orgID}?period=  Manual attendance edit
    GET    /api/attendance/report?period=   Attendance table in report order

  Payroll files:
    POST   /api/payroll/import?period=      Correction CSV upload
    GET    /api/payroll/template?period=    Template download

  Insights:
    POST   /api/insights                    Start generation for the selection
    GET    /api/insights/{id}               Task state and text

  Datasets:
    GET    /api/datasets                    List demo datasets
    POST   /api/datasets/reset              Reload a dataset

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Dashboard: single writer of the record store, hands out snapshots
  - Insights:  background generation tasks
  - Datasets:  demo dataset catalog
  - Metrics:   prometheus collectors

  Every read takes one Snapshot and answers from it, so a response never
  mixes data from two revisions.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, unreadable files
  - 404: Organization, task or dataset not found
  - 422: Payroll file matched no organization
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - datasets.go: Demo dataset loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/hr-dashboard/analytics"
	"github.com/warp/hr-dashboard/insight"
	"github.com/warp/hr-dashboard/payroll"
)

// maxUploadBytes bounds payroll file uploads.
const maxUploadBytes = 10 << 20

// Record kinds accepted by the records endpoints.
const (
	KindHeadcount  = "headcount"
	KindPayroll    = "payroll"
	KindAttendance = "attendance"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Dashboard *analytics.Dashboard
	Insights  *insight.Runner
	Datasets  *Datasets
	Metrics   *Metrics
	Logger    *zap.Logger
}

// NewHandler creates a handler. A nil logger or metrics gets a no-op/fresh
// instance.
func NewHandler(d *analytics.Dashboard, insights *insight.Runner, datasets *Datasets, metrics *Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Handler{
		Dashboard: d,
		Insights:  insights,
		Datasets:  datasets,
		Metrics:   metrics,
		Logger:    logger,
	}
}

// snapshot loads the current snapshot or writes a 500.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (*analytics.Snapshot, bool) {
	snap, err := h.Dashboard.Snapshot(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to load dashboard data", err)
		return nil, false
	}
	return snap, true
}

// period reads ?period=YYYY-MM, defaulting to the selection.
func (h *Handler) period(w http.ResponseWriter, r *http.Request) (analytics.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return h.Dashboard.Selector().Period(), true
	}
	p, err := analytics.ParsePeriod(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return analytics.Period{}, false
	}
	return p, true
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// GetPeriod returns the selection.
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPeriodDTO(h.Dashboard.Selector()))
}

// SelectPeriod changes year, month or both.
func (h *Handler) SelectPeriod(w http.ResponseWriter, r *http.Request) {
	var req SelectPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var err error
	switch {
	case req.Year != nil && req.Month != nil:
		err = h.Dashboard.Select(*req.Year, time.Month(*req.Month))
	case req.Year != nil:
		err = h.Dashboard.SetYear(*req.Year)
	case req.Month != nil:
		err = h.Dashboard.SetMonth(time.Month(*req.Month))
	default:
		writeError(w, http.StatusBadRequest, "year or month is required", nil)
		return
	}
	if err != nil {
		h.writeDomainError(w, "Failed to change period", err)
		return
	}

	h.Logger.Info("period selected", zap.Stringer("period", h.Dashboard.Selector()))
	writeJSON(w, http.StatusOK, toPeriodDTO(h.Dashboard.Selector()))
}

// =============================================================================
// ORGANIZATION HANDLERS
// =============================================================================

// ListOrganizations returns the roster in roster order.
func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationDTOs(snap.Organizations))
}

// ReplaceOrganizations swaps the roster. Cycles, duplicate IDs and unknown
// levels are rejected and leave the roster unchanged.
func (h *Handler) ReplaceOrganizations(w http.ResponseWriter, r *http.Request) {
	var req []OrganizationDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	orgs := make([]analytics.Organization, len(req))
	for i, dto := range req {
		orgs[i] = dto.toOrganization()
	}
	if err := h.Dashboard.ReplaceOrganizations(r.Context(), orgs); err != nil {
		h.writeDomainError(w, "Failed to replace organizations", err)
		return
	}

	h.Logger.Info("organizations replaced", zap.Int("count", len(orgs)))
	writeJSON(w, http.StatusOK, toOrganizationDTOs(orgs))
}

// GetTree returns the org chart with the metrics of the selected period.
func (h *Handler) GetTree(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTreeResponse(snap.Tree()))
}

// GetUnattributed lists organizations that roll up into no reporting unit.
func (h *Handler) GetUnattributed(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	resp := UnattributedResponse{
		MaxDepth:      snap.Rules.MaxDepth,
		Organizations: []OrganizationDTO{},
	}
	for _, id := range snap.Attribution().Unattributed {
		if org, ok := snap.Organization(id); ok {
			resp.Organizations = append(resp.Organizations, toOrganizationDTO(org))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// AGGREGATE HANDLERS
// =============================================================================

// GetSummary returns the KPIs of the selected period.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	s := snap.Summary()
	writeJSON(w, http.StatusOK, SummaryDTO{
		Period:           s.Period.String(),
		TotalsDTO:        toTotalsDTO(s.Totals),
		AvgWagePerHead:   s.AvgWagePerHead.InexactFloat64(),
		AvgWorkingHours:  s.AvgWorkingHours.InexactFloat64(),
		AttendanceIssues: s.AttendanceIssues,
	})
}

// GetReportingUnits returns the rollup of the selected period.
func (h *Handler) GetReportingUnits(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	rollup := snap.Current()
	members := snap.Attribution().Members
	resp := ReportingUnitsResponse{
		Period:            rollup.Period.String(),
		OvertimeThreshold: snap.Rules.OvertimeThreshold.InexactFloat64(),
		Units:             make([]UnitDTO, len(rollup.Units)),
		Total:             toTotalsDTO(rollup.Total),
	}
	for i, u := range rollup.Units {
		m := members[u.Unit.ID]
		if m == nil {
			m = []string{}
		}
		resp.Units[i] = UnitDTO{
			OrgID:     u.Unit.ID,
			OrgName:   u.Unit.Name,
			TotalsDTO: toTotalsDTO(u.Totals),
			Status:    string(u.Status),
			Members:   m,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetUnitComparison returns the overtime series per reporting unit.
func (h *Handler) GetUnitComparison(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, comparisonResponse(snap.Selected, snap.UnitComparison()))
}

// GetProductionComparison returns the overtime series per production team.
func (h *Handler) GetProductionComparison(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, comparisonResponse(snap.Selected, snap.ProductionComparison()))
}

func comparisonResponse(p analytics.Period, cs []analytics.Comparison) ComparisonResponse {
	return ComparisonResponse{
		Period:            p.String(),
		PreviousMonth:     p.AddMonths(-1).String(),
		SameMonthLastYear: p.AddMonths(-12).String(),
		Series:            toComparisonDTOs(cs),
	}
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// GetRecords returns the records of one kind for one period.
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !validKind(kind) {
		writeError(w, http.StatusNotFound, "Unknown record kind", fmt.Errorf("%q", kind))
		return
	}
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	recs := snap.PeriodRecords(p)
	resp := RecordsResponse{Kind: kind, Period: p.String()}
	switch kind {
	case KindHeadcount:
		resp.Headcount = make([]HeadcountDTO, len(recs.Headcount))
		for i, rec := range recs.Headcount {
			resp.Headcount[i] = toHeadcountDTO(rec)
		}
	case KindPayroll:
		resp.Payroll = make([]PayrollDTO, len(recs.Payroll))
		for i, rec := range recs.Payroll {
			resp.Payroll[i] = toPayrollDTO(rec)
		}
	case KindAttendance:
		resp.Attendance = make([]AttendanceDTO, len(recs.Attendance))
		for i, rec := range recs.Attendance {
			resp.Attendance[i] = toAttendanceDTO(rec)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReplaceRecords replaces every record of one kind in one period with the
// request body. Records of other periods are untouched.
func (h *Handler) ReplaceRecords(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !validKind(kind) {
		writeError(w, http.StatusNotFound, "Unknown record kind", fmt.Errorf("%q", kind))
		return
	}
	p, ok := h.period(w, r)
	if !ok {
		return
	}

	var (
		err   error
		count int
	)
	switch kind {
	case KindHeadcount:
		var req []HeadcountDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		recs := make([]analytics.Headcount, len(req))
		for i, dto := range req {
			recs[i] = dto.toHeadcount()
		}
		count = len(recs)
		err = h.Dashboard.ReplaceHeadcount(r.Context(), p, recs)
	case KindPayroll:
		var req []PayrollDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		recs := make([]analytics.Payroll, len(req))
		for i, dto := range req {
			recs[i] = dto.toPayroll()
		}
		count = len(recs)
		err = h.Dashboard.ReplacePayroll(r.Context(), p, recs)
	case KindAttendance:
		var req []AttendanceDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		recs := make([]analytics.Attendance, len(req))
		for i, dto := range req {
			recs[i] = dto.toAttendance()
		}
		count = len(recs)
		err = h.Dashboard.ReplaceAttendance(r.Context(), p, recs)
	}
	if err != nil {
		h.writeDomainError(w, "Failed to replace records", err)
		return
	}

	h.Logger.Info("records replaced",
		zap.String("kind", kind),
		zap.Stringer("period", p),
		zap.Int("count", count))
	h.GetRecords(w, r)
}

// EditAttendance applies a manual edit to one organization's attendance.
// The overtime total in the response is recomputed from the saved hours.
func (h *Handler) EditAttendance(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	p, ok := h.period(w, r)
	if !ok {
		return
	}

	var req AttendanceEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	saved, err := h.Dashboard.EditAttendance(r.Context(), orgID, p, req.toEdit())
	if err != nil {
		h.writeDomainError(w, "Failed to save attendance", err)
		return
	}

	h.Metrics.observeAttendanceEdit()
	h.Logger.Info("attendance edited",
		zap.String("org_id", orgID),
		zap.Stringer("period", p),
		zap.Stringer("total_overtime_hours", saved.TotalOvertimeHours()))
	writeJSON(w, http.StatusOK, toAttendanceDTO(saved))
}

// GetAttendanceReport returns the attendance table for one period.
func (h *Handler) GetAttendanceReport(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	rows := snap.Rules.AttendanceReport(snap.Organizations, p, snap.Records.Attendance)
	dtos := make([]AttendanceRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = AttendanceRowDTO{
			OrganizationDTO: toOrganizationDTO(row.Org),
			Depth:           row.Depth,
			ReportingUnit:   row.ReportingUnit,
			Production:      row.Production,
			Attendance:      toAttendanceDTO(row.Attendance),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func validKind(kind string) bool {
	return kind == KindHeadcount || kind == KindPayroll || kind == KindAttendance
}

// =============================================================================
// PAYROLL FILE HANDLERS
// =============================================================================

// ImportPayroll applies a correction file to one period. The body is the
// CSV itself, or a multipart form with the CSV in "file".
func (h *Handler) ImportPayroll(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	body, err := uploadBody(w, r)
	if err != nil {
		h.Metrics.observeImport("rejected")
		writeError(w, http.StatusBadRequest, "Failed to read upload", err)
		return
	}
	defer body.Close()

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	res, err := payroll.Import(body, snap.Organizations, p)
	if err != nil {
		h.Metrics.observeImport("rejected")
		h.writeDomainError(w, "Failed to import payroll file", err)
		return
	}
	if err := h.Dashboard.ApplyPayrollCorrections(r.Context(), p, res.Records); err != nil {
		h.Metrics.observeImport("failed")
		h.writeDomainError(w, "Failed to save payroll corrections", err)
		return
	}

	h.Metrics.observeImport("applied")
	h.Logger.Info("payroll corrections applied",
		zap.String("batch_id", res.BatchID),
		zap.Stringer("period", p),
		zap.Int("mapped", res.Mapped),
		zap.Int("skipped", res.Skipped),
		zap.Strings("unmatched", res.Unmatched))
	writeJSON(w, http.StatusOK, toImportResponse(res))
}

func uploadBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, nil
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	return f, nil
}

// DownloadPayrollTemplate streams the payroll template for one period,
// prefilled with the current figures.
func (h *Handler) DownloadPayrollTemplate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	recs := snap.PeriodRecords(p)
	if err := payroll.Export(&buf, snap.Organizations, p, recs.Payroll); err != nil {
		h.writeDomainError(w, "Failed to build payroll template", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", payroll.TemplateFilename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// INSIGHT HANDLERS
// =============================================================================

// StartInsight queues narrative generation over the selected period.
func (h *Handler) StartInsight(w http.ResponseWriter, r *http.Request) {
	if h.Insights == nil {
		writeError(w, http.StatusServiceUnavailable, "Insight generation is not configured", nil)
		return
	}
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	recs := snap.PeriodRecords(snap.Selected)
	task := h.Insights.Start(insight.Input{
		Period:        snap.Selected,
		Organizations: snap.Organizations,
		Headcount:     recs.Headcount,
		Payroll:       recs.Payroll,
	})

	h.Logger.Info("insight task started", zap.String("task_id", task.ID), zap.String("period", task.Period))
	writeJSON(w, http.StatusAccepted, toInsightTaskDTO(task))
}

// GetInsight returns one task.
func (h *Handler) GetInsight(w http.ResponseWriter, r *http.Request) {
	if h.Insights == nil {
		writeError(w, http.StatusServiceUnavailable, "Insight generation is not configured", nil)
		return
	}
	task, err := h.Insights.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Insight task not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toInsightTaskDTO(task))
}

// =============================================================================
// DATASET HANDLERS
// =============================================================================

// ListDatasets returns the demo dataset catalog.
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	list := h.Datasets.List()
	dtos := make([]DatasetDTO, len(list))
	for i, ds := range list {
		dtos[i] = DatasetDTO{ID: ds.ID, Name: ds.Name, Description: ds.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ResetDataset replaces every organization and record with a dataset. An
// empty body loads the default dataset.
func (h *Handler) ResetDataset(w http.ResponseWriter, r *http.Request) {
	var req ResetDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ds, ok := h.Datasets.Find(req.DatasetID)
	if !ok {
		writeError(w, http.StatusNotFound, "Dataset not found", fmt.Errorf("%q", req.DatasetID))
		return
	}
	orgs, recs, err := ds.Load()
	if err != nil {
		h.writeDomainError(w, "Failed to build dataset", err)
		return
	}
	if err := h.Dashboard.Reset(r.Context(), orgs, recs); err != nil {
		h.writeDomainError(w, "Failed to load dataset", err)
		return
	}

	h.Logger.Info("dataset loaded", zap.String("dataset_id", ds.ID), zap.Int("organizations", len(orgs)))
	writeJSON(w, http.StatusOK, DatasetDTO{ID: ds.ID, Name: ds.Name, Description: ds.Description})
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

// writeDomainError maps engine errors to a status code. Unexpected errors
// are logged and reported as 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case analytics.IsClientError(err),
		errors.Is(err, payroll.ErrEmptyFile),
		errors.Is(err, payroll.ErrMalformedFile):
		writeError(w, http.StatusBadRequest, message, err)
	case analytics.IsNotFound(err), errors.Is(err, insight.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, payroll.ErrNoOrganizationsMatched):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
