package analytics

import (
	"slices"
	"strings"
)

// OrderByPrefix sorts orgs by the first prefix in order that their ID starts
// with. Organizations matching no prefix go last. The sort is stable, so
// roster order holds within each group.
func OrderByPrefix(orgs []Organization, order []string) []Organization {
	rank := func(id string) int {
		for i, prefix := range order {
			if strings.HasPrefix(id, prefix) {
				return i
			}
		}
		return len(order)
	}
	out := slices.Clone(orgs)
	slices.SortStableFunc(out, func(a, b Organization) int {
		return rank(a.ID) - rank(b.ID)
	})
	return out
}

// AttendanceRow is one line of the attendance table.
type AttendanceRow struct {
	Org           Organization
	Depth         int
	ReportingUnit bool
	Production    bool
	Attendance    Attendance
}

// AttendanceReport lists the attendance of every organization that has a
// record in period, in report order. Duplicate records are merged.
func (r Rules) AttendanceReport(orgs []Organization, period Period, attendance []Attendance) []AttendanceRow {
	merged := make(map[string]Attendance)
	for _, a := range attendance {
		if a.Period != period {
			continue
		}
		if prev, ok := merged[a.OrgID]; ok {
			merged[a.OrgID] = prev.Add(a)
		} else {
			merged[a.OrgID] = a
		}
	}

	var rows []AttendanceRow
	seen := make(map[string]bool)
	for _, org := range OrderByPrefix(orgs, r.ReportOrder) {
		a, ok := merged[org.ID]
		if !ok || seen[org.ID] {
			continue
		}
		seen[org.ID] = true
		depth := org.Level.Rank() - LevelHeadquarters.Rank()
		if depth < 0 {
			depth = 0
		}
		rows = append(rows, AttendanceRow{
			Org:           org,
			Depth:         depth,
			ReportingUnit: r.IsReportingUnit(org),
			Production:    r.IsProductionTeam(org.ID),
			Attendance:    a,
		})
	}
	return rows
}
