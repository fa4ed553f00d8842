package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/hr-dashboard/analytics"
)

//go:embed seed.yaml
var seedYAML []byte

// =============================================================================
// SEED SCHEMA TYPES
// =============================================================================

// Seed is a demo dataset. Payroll and attendance are templates expanded for
// every organization and period; headcount is listed per record.
type Seed struct {
	Periods       []string           `yaml:"periods"`
	Organizations []OrganizationYAML `yaml:"organizations"`
	Headcount     []HeadcountYAML    `yaml:"headcount"`

	// Payroll maps a level name (or "default") to component amounts keyed
	// by component key.
	Payroll map[string]map[string]float64 `yaml:"payroll"`

	Attendance AttendanceSeed `yaml:"attendance"`
}

// OrganizationYAML is one roster entry.
type OrganizationYAML struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Parent   string `yaml:"parent"`
	Level    string `yaml:"level"`
	Manager  string `yaml:"manager"`
	Location string `yaml:"location"`
}

// HeadcountYAML is one headcount record.
type HeadcountYAML struct {
	OrgID        string `yaml:"org_id"`
	Period       string `yaml:"period"`
	Total        int    `yaml:"total"`
	Regular      int    `yaml:"regular"`
	Contract     int    `yaml:"contract"`
	Executive    int    `yaml:"executive"`
	NewHires     int    `yaml:"new_hires"`
	Resignations int    `yaml:"resignations"`
}

// AttendanceYAML holds attendance values; nil fields fall back to the
// default template.
type AttendanceYAML struct {
	AvgWorkingHours      *float64 `yaml:"avg_working_hours"`
	WeekdayOvertimeHours *float64 `yaml:"weekday_overtime_hours"`
	HolidayOvertimeHours *float64 `yaml:"holiday_overtime_hours"`
	AttendanceIssues     *int     `yaml:"attendance_issues"`
}

// AttendanceSeed is the default template plus per-organization overrides.
type AttendanceSeed struct {
	Default   AttendanceYAML            `yaml:"default"`
	Overrides map[string]AttendanceYAML `yaml:"overrides"`
}

const defaultTemplate = "default"

// =============================================================================
// LOADING
// =============================================================================

// DefaultSeed returns the embedded demo dataset.
func DefaultSeed() (Seed, error) {
	return ParseSeedYAML(seedYAML)
}

// ParseSeedYAML decodes a seed file.
func ParseSeedYAML(b []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Seed{}, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	if len(s.Organizations) == 0 {
		return Seed{}, fmt.Errorf("%w: seed has no organizations", ErrInvalidConfig)
	}
	return s, nil
}

// LoadSeed reads the seed at path, or the embedded one when path is empty.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	return ParseSeedYAML(b)
}

// =============================================================================
// EXPANSION
// =============================================================================

// Dataset expands the seed into a roster and records.
func (s Seed) Dataset() ([]analytics.Organization, analytics.Records, error) {
	orgs := make([]analytics.Organization, 0, len(s.Organizations))
	for _, o := range s.Organizations {
		level, err := analytics.ParseLevel(o.Level)
		if err != nil {
			return nil, analytics.Records{}, fmt.Errorf("organization %s: %w", o.ID, err)
		}
		orgs = append(orgs, analytics.Organization{
			ID:       o.ID,
			Name:     o.Name,
			ParentID: o.Parent,
			Level:    level,
			Manager:  o.Manager,
			Location: o.Location,
		})
	}

	periods, err := s.periods()
	if err != nil {
		return nil, analytics.Records{}, err
	}

	var recs analytics.Records
	for _, h := range s.Headcount {
		p, err := analytics.ParsePeriod(h.Period)
		if err != nil {
			return nil, analytics.Records{}, fmt.Errorf("headcount %s: %w", h.OrgID, err)
		}
		recs.Headcount = append(recs.Headcount, analytics.Headcount{
			OrgID:        h.OrgID,
			Period:       p,
			Total:        h.Total,
			Regular:      h.Regular,
			Contract:     h.Contract,
			Executive:    h.Executive,
			NewHires:     h.NewHires,
			Resignations: h.Resignations,
		})
	}

	for _, p := range periods {
		for _, org := range orgs {
			pay, err := s.payrollFor(org, p)
			if err != nil {
				return nil, analytics.Records{}, err
			}
			recs.Payroll = append(recs.Payroll, pay)
			recs.Attendance = append(recs.Attendance, s.attendanceFor(org.ID, p))
		}
	}
	return orgs, recs, nil
}

// SelectedPeriod is the latest listed period, the dashboard's initial
// selection.
func (s Seed) SelectedPeriod() (analytics.Period, error) {
	periods, err := s.periods()
	if err != nil {
		return analytics.Period{}, err
	}
	if len(periods) == 0 {
		return analytics.Period{}, fmt.Errorf("%w: seed lists no periods", ErrInvalidConfig)
	}
	latest := periods[0]
	for _, p := range periods[1:] {
		if latest.Before(p) {
			latest = p
		}
	}
	return latest, nil
}

func (s Seed) periods() ([]analytics.Period, error) {
	out := make([]analytics.Period, 0, len(s.Periods))
	for _, raw := range s.Periods {
		p, err := analytics.ParsePeriod(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s Seed) payrollFor(org analytics.Organization, p analytics.Period) (analytics.Payroll, error) {
	rec := analytics.Payroll{OrgID: org.ID, Period: p, Currency: analytics.CurrencyKRW}
	tmpl, ok := s.Payroll[string(org.Level)]
	if !ok {
		tmpl = s.Payroll[defaultTemplate]
	}
	for key, amount := range tmpl {
		c, ok := analytics.ComponentByKey(key)
		if !ok {
			return analytics.Payroll{}, fmt.Errorf("%w: unknown payroll component %q", ErrInvalidConfig, key)
		}
		rec.SetComponent(c, decimal.NewFromFloat(amount))
	}
	return rec, nil
}

func (s Seed) attendanceFor(orgID string, p analytics.Period) analytics.Attendance {
	a := analytics.Attendance{OrgID: orgID, Period: p}
	apply := func(t AttendanceYAML) {
		if t.AvgWorkingHours != nil {
			a.AvgWorkingHours = decimal.NewFromFloat(*t.AvgWorkingHours)
		}
		if t.WeekdayOvertimeHours != nil {
			a.SetWeekdayOvertime(decimal.NewFromFloat(*t.WeekdayOvertimeHours))
		}
		if t.HolidayOvertimeHours != nil {
			a.SetHolidayOvertime(decimal.NewFromFloat(*t.HolidayOvertimeHours))
		}
		if t.AttendanceIssues != nil {
			a.AttendanceIssues = *t.AttendanceIssues
		}
	}
	apply(s.Attendance.Default)
	if o, ok := s.Attendance.Overrides[orgID]; ok {
		apply(o)
	}
	return a
}
