/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the analytics model from the external API contract. Field names follow
  the dashboard's spreadsheet vocabulary (org_id, reference_month, ...).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS:
  Money and hours are decimals internally and float64 on the wire. Requests
  are converted back with decimal.NewFromFloat.

VALIDATION:
  Validation is done in handlers and the analytics package, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/hr-dashboard/analytics"
	"github.com/warp/hr-dashboard/insight"
	"github.com/warp/hr-dashboard/payroll"
)

// =============================================================================
// PERIOD
// =============================================================================

// PeriodDTO is the current selection with its comparison periods.
type PeriodDTO struct {
	Period            string `json:"period"`
	Year              int    `json:"year"`
	Month             int    `json:"month"`
	PreviousMonth     string `json:"previous_month"`
	SameMonthLastYear string `json:"same_month_last_year"`
}

// SelectPeriodRequest changes the selection. Omitted fields keep their value.
type SelectPeriodRequest struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
}

func toPeriodDTO(s analytics.Selector) PeriodDTO {
	return PeriodDTO{
		Period:            s.String(),
		Year:              s.Year(),
		Month:             int(s.Month()),
		PreviousMonth:     s.PreviousMonth().String(),
		SameMonthLastYear: s.SameMonthLastYear().String(),
	}
}

// =============================================================================
// ORGANIZATIONS
// =============================================================================

// OrganizationDTO represents an organization. ParentID is null for a root.
type OrganizationDTO struct {
	ID       string  `json:"org_id"`
	Name     string  `json:"org_name"`
	ParentID *string `json:"parent_org_id"`
	Level    string  `json:"org_level"`
	Manager  string  `json:"manager_name"`
	Location string  `json:"location"`
}

func toOrganizationDTO(o analytics.Organization) OrganizationDTO {
	dto := OrganizationDTO{
		ID:       o.ID,
		Name:     o.Name,
		Level:    string(o.Level),
		Manager:  o.Manager,
		Location: o.Location,
	}
	if !o.IsRoot() {
		dto.ParentID = strPtr(o.ParentID)
	}
	return dto
}

func toOrganizationDTOs(orgs []analytics.Organization) []OrganizationDTO {
	out := make([]OrganizationDTO, len(orgs))
	for i, o := range orgs {
		out[i] = toOrganizationDTO(o)
	}
	return out
}

func (d OrganizationDTO) toOrganization() analytics.Organization {
	o := analytics.Organization{
		ID:       d.ID,
		Name:     d.Name,
		Level:    analytics.Level(d.Level),
		Manager:  d.Manager,
		Location: d.Location,
	}
	if d.ParentID != nil {
		o.ParentID = *d.ParentID
	}
	return o
}

// =============================================================================
// RECORDS
// =============================================================================

// HeadcountDTO represents one headcount record.
type HeadcountDTO struct {
	OrgID        string `json:"org_id"`
	Period       string `json:"reference_month"`
	Total        int    `json:"total_headcount"`
	Regular      int    `json:"regular_headcount"`
	Contract     int    `json:"contract_headcount"`
	Executive    int    `json:"executive_headcount"`
	NewHires     int    `json:"new_hires"`
	Resignations int    `json:"resignations"`
}

// PayrollDTO represents one payroll record.
type PayrollDTO struct {
	OrgID              string  `json:"org_id"`
	Period             string  `json:"effective_month"`
	BasePay            float64 `json:"base_pay"`
	BasePayRetro       float64 `json:"base_pay_retro"`
	FixedOvertime      float64 `json:"fixed_overtime"`
	RankAllowance      float64 `json:"rank_allowance"`
	MealAllowance      float64 `json:"meal_allowance"`
	PositionAllowance  float64 `json:"position_allowance"`
	ChildcareAllowance float64 `json:"childcare_allowance"`
	HolidayWorkPay     float64 `json:"holiday_work_pay"`
	OvertimeWorkPay    float64 `json:"overtime_work_pay"`
	OtherAllowance     float64 `json:"other_allowance"`
	CertAllowance      float64 `json:"cert_allowance"`
	AnnualLeavePay     float64 `json:"annual_leave_pay"`
	Incentive          float64 `json:"incentive"`
	Currency           string  `json:"currency"`
	TotalLaborCost     float64 `json:"total_labor_cost"`
}

// AttendanceDTO represents one attendance record. TotalOvertimeHours is
// derived and ignored on input.
type AttendanceDTO struct {
	OrgID                string  `json:"org_id"`
	Period               string  `json:"reference_month"`
	AvgWorkingHours      float64 `json:"avg_working_hours"`
	WeekdayOvertimeHours float64 `json:"weekday_overtime_hours"`
	HolidayOvertimeHours float64 `json:"holiday_overtime_hours"`
	TotalOvertimeHours   float64 `json:"total_overtime_hours"`
	AttendanceIssues     int     `json:"attendance_issues"`
}

// AttendanceEditRequest patches one attendance record. Omitted fields are
// left unchanged.
type AttendanceEditRequest struct {
	AvgWorkingHours      *float64 `json:"avg_working_hours"`
	WeekdayOvertimeHours *float64 `json:"weekday_overtime_hours"`
	HolidayOvertimeHours *float64 `json:"holiday_overtime_hours"`
	AttendanceIssues     *int     `json:"attendance_issues"`
}

func toHeadcountDTO(h analytics.Headcount) HeadcountDTO {
	return HeadcountDTO{
		OrgID:        h.OrgID,
		Period:       h.Period.String(),
		Total:        h.Total,
		Regular:      h.Regular,
		Contract:     h.Contract,
		Executive:    h.Executive,
		NewHires:     h.NewHires,
		Resignations: h.Resignations,
	}
}

func (d HeadcountDTO) toHeadcount() analytics.Headcount {
	return analytics.Headcount{
		OrgID:        d.OrgID,
		Total:        d.Total,
		Regular:      d.Regular,
		Contract:     d.Contract,
		Executive:    d.Executive,
		NewHires:     d.NewHires,
		Resignations: d.Resignations,
	}
}

// components returns the component fields in canonical order.
func (d *PayrollDTO) components() []*float64 {
	return []*float64{
		&d.BasePay, &d.BasePayRetro, &d.FixedOvertime, &d.RankAllowance,
		&d.MealAllowance, &d.PositionAllowance, &d.ChildcareAllowance,
		&d.HolidayWorkPay, &d.OvertimeWorkPay, &d.OtherAllowance,
		&d.CertAllowance, &d.AnnualLeavePay, &d.Incentive,
	}
}

func toPayrollDTO(p analytics.Payroll) PayrollDTO {
	dto := PayrollDTO{
		OrgID:          p.OrgID,
		Period:         p.Period.String(),
		Currency:       string(p.Currency),
		TotalLaborCost: analytics.TotalLaborCost(p).InexactFloat64(),
	}
	fields := dto.components()
	for i, c := range analytics.Components() {
		*fields[i] = p.Component(c).InexactFloat64()
	}
	return dto
}

func (d PayrollDTO) toPayroll() analytics.Payroll {
	p := analytics.Payroll{OrgID: d.OrgID, Currency: analytics.Currency(d.Currency)}
	fields := d.components()
	for i, c := range analytics.Components() {
		p.SetComponent(c, decimal.NewFromFloat(*fields[i]))
	}
	return p
}

func toAttendanceDTO(a analytics.Attendance) AttendanceDTO {
	return AttendanceDTO{
		OrgID:                a.OrgID,
		Period:               a.Period.String(),
		AvgWorkingHours:      a.AvgWorkingHours.InexactFloat64(),
		WeekdayOvertimeHours: a.WeekdayOvertimeHours.InexactFloat64(),
		HolidayOvertimeHours: a.HolidayOvertimeHours.InexactFloat64(),
		TotalOvertimeHours:   a.TotalOvertimeHours().InexactFloat64(),
		AttendanceIssues:     a.AttendanceIssues,
	}
}

func (d AttendanceDTO) toAttendance() analytics.Attendance {
	return analytics.Attendance{
		OrgID:                d.OrgID,
		AvgWorkingHours:      decimal.NewFromFloat(d.AvgWorkingHours),
		WeekdayOvertimeHours: decimal.NewFromFloat(d.WeekdayOvertimeHours),
		HolidayOvertimeHours: decimal.NewFromFloat(d.HolidayOvertimeHours),
		AttendanceIssues:     d.AttendanceIssues,
	}
}

func (r AttendanceEditRequest) toEdit() analytics.AttendanceEdit {
	var edit analytics.AttendanceEdit
	if r.AvgWorkingHours != nil {
		edit.AvgWorkingHours = decPtr(*r.AvgWorkingHours)
	}
	if r.WeekdayOvertimeHours != nil {
		edit.WeekdayOvertimeHours = decPtr(*r.WeekdayOvertimeHours)
	}
	if r.HolidayOvertimeHours != nil {
		edit.HolidayOvertimeHours = decPtr(*r.HolidayOvertimeHours)
	}
	edit.AttendanceIssues = r.AttendanceIssues
	return edit
}

// RecordsResponse carries the records of one kind for one period; only the
// slice matching Kind is set.
type RecordsResponse struct {
	Kind       string          `json:"kind"`
	Period     string          `json:"period"`
	Headcount  []HeadcountDTO  `json:"headcount,omitempty"`
	Payroll    []PayrollDTO    `json:"payroll,omitempty"`
	Attendance []AttendanceDTO `json:"attendance,omitempty"`
}

// =============================================================================
// TREE
// =============================================================================

// MetricsDTO is the metrics bundle of a tree node.
type MetricsDTO struct {
	Headcount  HeadcountDTO  `json:"headcount"`
	Payroll    PayrollDTO    `json:"payroll"`
	Attendance AttendanceDTO `json:"attendance"`
}

// TreeNodeDTO is one node of the org chart with its subtree.
type TreeNodeDTO struct {
	OrganizationDTO
	Metrics  MetricsDTO    `json:"metrics"`
	Children []TreeNodeDTO `json:"children"`
}

// TreeResponse is the org chart of one period.
type TreeResponse struct {
	Period     string        `json:"period"`
	Roots      []TreeNodeDTO `json:"roots"`
	Detached   []string      `json:"detached,omitempty"`
	Duplicates []string      `json:"duplicates,omitempty"`
}

func toTreeResponse(t *analytics.Tree) TreeResponse {
	resp := TreeResponse{
		Period:     t.Period.String(),
		Roots:      make([]TreeNodeDTO, 0, len(t.Roots)),
		Detached:   t.Detached,
		Duplicates: t.Duplicates,
	}
	for _, id := range t.Roots {
		if n, ok := t.Node(id); ok {
			resp.Roots = append(resp.Roots, toTreeNodeDTO(t, n))
		}
	}
	return resp
}

func toTreeNodeDTO(t *analytics.Tree, n analytics.Node) TreeNodeDTO {
	dto := TreeNodeDTO{
		OrganizationDTO: toOrganizationDTO(n.Organization),
		Metrics: MetricsDTO{
			Headcount:  toHeadcountDTO(n.Metrics.Headcount),
			Payroll:    toPayrollDTO(n.Metrics.Payroll),
			Attendance: toAttendanceDTO(n.Metrics.Attendance),
		},
		Children: make([]TreeNodeDTO, 0, len(n.Children)),
	}
	for _, child := range t.Children(n.ID) {
		dto.Children = append(dto.Children, toTreeNodeDTO(t, child))
	}
	return dto
}

// =============================================================================
// AGGREGATES
// =============================================================================

// TotalsDTO is a set of summed metrics.
type TotalsDTO struct {
	Headcount       int     `json:"headcount"`
	LaborCost       float64 `json:"labor_cost"`
	WeekdayOvertime float64 `json:"weekday_overtime_hours"`
	HolidayOvertime float64 `json:"holiday_overtime_hours"`
	TotalOvertime   float64 `json:"total_overtime_hours"`
	OvertimePay     float64 `json:"overtime_pay"`
	HolidayPay      float64 `json:"holiday_pay"`
}

// UnitDTO is one reporting unit's rollup.
type UnitDTO struct {
	OrgID   string `json:"org_id"`
	OrgName string `json:"org_name"`
	TotalsDTO
	Status  string   `json:"status"`
	Members []string `json:"members"`
}

// ReportingUnitsResponse is the rollup of the selected period.
type ReportingUnitsResponse struct {
	Period            string    `json:"period"`
	OvertimeThreshold float64   `json:"overtime_threshold"`
	Units             []UnitDTO `json:"units"`
	Total             TotalsDTO `json:"total"`
}

// ComparisonDTO is one overtime series.
type ComparisonDTO struct {
	OrgID         string  `json:"org_id"`
	OrgName       string  `json:"org_name"`
	PreviousYear  float64 `json:"previous_year"`
	PreviousMonth float64 `json:"previous_month"`
	Current       float64 `json:"current"`
}

// ComparisonResponse wraps series with the periods they cover.
type ComparisonResponse struct {
	Period            string          `json:"period"`
	PreviousMonth     string          `json:"previous_month"`
	SameMonthLastYear string          `json:"same_month_last_year"`
	Series            []ComparisonDTO `json:"series"`
}

// SummaryDTO holds the dashboard KPIs.
type SummaryDTO struct {
	Period string `json:"period"`
	TotalsDTO
	AvgWagePerHead   float64 `json:"avg_wage_per_head"`
	AvgWorkingHours  float64 `json:"avg_working_hours"`
	AttendanceIssues int     `json:"attendance_issues"`
}

// UnattributedResponse lists organizations outside every reporting unit.
type UnattributedResponse struct {
	MaxDepth      int               `json:"max_depth"`
	Organizations []OrganizationDTO `json:"organizations"`
}

// AttendanceRowDTO is one line of the attendance table.
type AttendanceRowDTO struct {
	OrganizationDTO
	Depth         int           `json:"depth"`
	ReportingUnit bool          `json:"reporting_unit"`
	Production    bool          `json:"production"`
	Attendance    AttendanceDTO `json:"attendance"`
}

func toTotalsDTO(t analytics.Totals) TotalsDTO {
	return TotalsDTO{
		Headcount:       t.Headcount,
		LaborCost:       t.LaborCost.InexactFloat64(),
		WeekdayOvertime: t.WeekdayOvertime.InexactFloat64(),
		HolidayOvertime: t.HolidayOvertime.InexactFloat64(),
		TotalOvertime:   t.TotalOvertime().InexactFloat64(),
		OvertimePay:     t.OvertimePay.InexactFloat64(),
		HolidayPay:      t.HolidayPay.InexactFloat64(),
	}
}

func toComparisonDTOs(cs []analytics.Comparison) []ComparisonDTO {
	out := make([]ComparisonDTO, len(cs))
	for i, c := range cs {
		out[i] = ComparisonDTO{
			OrgID:         c.Org.ID,
			OrgName:       c.Org.Name,
			PreviousYear:  c.PreviousYear.InexactFloat64(),
			PreviousMonth: c.PreviousMonth.InexactFloat64(),
			Current:       c.Current.InexactFloat64(),
		}
	}
	return out
}

// =============================================================================
// PAYROLL FILES
// =============================================================================

// ImportResponse summarizes a payroll correction upload.
type ImportResponse struct {
	BatchID   string   `json:"batch_id"`
	Period    string   `json:"period"`
	Mapped    int      `json:"mapped"`
	Skipped   int      `json:"skipped"`
	Unmatched []string `json:"unmatched"`
	Message   string   `json:"message"`
}

func toImportResponse(r payroll.ImportResult) ImportResponse {
	unmatched := r.Unmatched
	if unmatched == nil {
		unmatched = []string{}
	}
	return ImportResponse{
		BatchID:   r.BatchID,
		Period:    r.Period.String(),
		Mapped:    r.Mapped,
		Skipped:   r.Skipped,
		Unmatched: unmatched,
		Message:   r.Message(),
	}
}

// =============================================================================
// INSIGHTS
// =============================================================================

// InsightTaskDTO reports an insight task.
type InsightTaskDTO struct {
	ID         string `json:"id"`
	Period     string `json:"period"`
	State      string `json:"state"`
	Text       string `json:"text,omitempty"`
	CreatedAt  string `json:"created_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func toInsightTaskDTO(t insight.Task) InsightTaskDTO {
	dto := InsightTaskDTO{
		ID:        t.ID,
		Period:    t.Period,
		State:     string(t.State),
		Text:      t.Text,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
	if t.FinishedAt != nil {
		dto.FinishedAt = t.FinishedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// DATASETS
// =============================================================================

// DatasetDTO describes a loadable demo dataset.
type DatasetDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ResetDatasetRequest selects the dataset to load; empty means the default.
type ResetDatasetRequest struct {
	DatasetID string `json:"dataset_id"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func strPtr(s string) *string {
	return &s
}

func decPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}
