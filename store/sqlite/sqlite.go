/*
Package sqlite provides a SQLite-backed analytics.RecordStore.

PURPOSE:
  Same contract as the in-memory store, backed by SQLite. The server opens it
  on ":memory:" by default; pass a file path to keep data across restarts.

KEY TABLES:
  organizations: the roster, ordered by position
  headcount:     one row per record, rowid keeps insertion order
  payroll:       one TEXT column per pay component
  attendance:    hours stored as TEXT decimals

REPLACE-BY-PERIOD:
  Replace* runs DELETE ... WHERE period = ? and the INSERTs in one
  transaction. Rows of other periods are never touched, and there are no
  UPDATE statements on record tables.

DECIMALS:
  Money and hours are stored as TEXT via decimal.String() so values
  round-trip exactly.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. An in-memory database exists per
  connection, so the pool is pinned to a single connection.

USAGE:
  st, err := sqlite.New(":memory:")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
  dash := analytics.NewDashboard(st, rules, period, logger)

SEE ALSO:
  - analytics/store.go: RecordStore contract
  - analytics/store/memory.go: in-memory implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/hr-dashboard/analytics"
)

// Store implements analytics.RecordStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ analytics.RecordStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on"
	if dbPath != ":memory:" {
		dsn += "&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// payrollColumns lists the component columns in canonical order.
func payrollColumns() []string {
	cols := make([]string, 0, len(analytics.Components()))
	for _, c := range analytics.Components() {
		cols = append(cols, c.Key())
	}
	return cols
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	var pay strings.Builder
	for _, col := range payrollColumns() {
		fmt.Fprintf(&pay, "\t\t%s TEXT NOT NULL DEFAULT '0',\n", col)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS organizations (
		position INTEGER NOT NULL,
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		parent_id TEXT NOT NULL DEFAULT '',
		level TEXT NOT NULL,
		manager TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS headcount (
		org_id TEXT NOT NULL,
		period TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		regular INTEGER NOT NULL DEFAULT 0,
		contract INTEGER NOT NULL DEFAULT 0,
		executive INTEGER NOT NULL DEFAULT 0,
		new_hires INTEGER NOT NULL DEFAULT 0,
		resignations INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_headcount_period ON headcount(period);

	CREATE TABLE IF NOT EXISTS payroll (
		org_id TEXT NOT NULL,
		period TEXT NOT NULL,
` + pay.String() + `		currency TEXT NOT NULL DEFAULT 'KRW'
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_period ON payroll(period);

	CREATE TABLE IF NOT EXISTS attendance (
		org_id TEXT NOT NULL,
		period TEXT NOT NULL,
		avg_working_hours TEXT NOT NULL DEFAULT '0',
		weekday_overtime_hours TEXT NOT NULL DEFAULT '0',
		holiday_overtime_hours TEXT NOT NULL DEFAULT '0',
		attendance_issues INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_period ON attendance(period);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// ORGANIZATIONS
// =============================================================================

// Organizations returns the roster in the order it was written.
func (s *Store) Organizations(ctx context.Context) ([]analytics.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, parent_id, level, manager, location
		FROM organizations
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	var orgs []analytics.Organization
	for rows.Next() {
		var org analytics.Organization
		var level string
		if err := rows.Scan(&org.ID, &org.Name, &org.ParentID, &level, &org.Manager, &org.Location); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		org.Level = analytics.Level(level)
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// ReplaceOrganizations swaps the whole roster.
func (s *Store) ReplaceOrganizations(ctx context.Context, orgs []analytics.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM organizations"); err != nil {
			return err
		}
		for i, org := range orgs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO organizations (position, id, name, parent_id, level, manager, location)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, i, org.ID, org.Name, org.ParentID, string(org.Level), org.Manager, org.Location)
			if err != nil {
				if isUniqueConstraintError(err) {
					return fmt.Errorf("%w: %s", analytics.ErrDuplicateOrganization, org.ID)
				}
				return fmt.Errorf("failed to insert organization: %w", err)
			}
		}
		return nil
	})
}

// =============================================================================
// HEADCOUNT
// =============================================================================

const headcountSelect = `
	SELECT org_id, period, total, regular, contract, executive, new_hires, resignations
	FROM headcount`

// Headcount returns every headcount record in insertion order.
func (s *Store) Headcount(ctx context.Context) ([]analytics.Headcount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryHeadcount(ctx, headcountSelect+" ORDER BY rowid ASC")
}

// HeadcountFor returns the headcount records of one period.
func (s *Store) HeadcountFor(ctx context.Context, p analytics.Period) ([]analytics.Headcount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryHeadcount(ctx, headcountSelect+" WHERE period = ? ORDER BY rowid ASC", p.String())
}

// ReplaceHeadcount drops period p and writes recs.
func (s *Store) ReplaceHeadcount(ctx context.Context, p analytics.Period, recs []analytics.Headcount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.replacePeriod(ctx, "headcount", p, func(tx *sql.Tx) error {
		for _, h := range recs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO headcount (org_id, period, total, regular, contract, executive, new_hires, resignations)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, h.OrgID, p.String(), h.Total, h.Regular, h.Contract, h.Executive, h.NewHires, h.Resignations)
			if err != nil {
				return fmt.Errorf("failed to insert headcount: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) queryHeadcount(ctx context.Context, query string, args ...any) ([]analytics.Headcount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query headcount: %w", err)
	}
	defer rows.Close()

	var out []analytics.Headcount
	for rows.Next() {
		var h analytics.Headcount
		var period string
		if err := rows.Scan(&h.OrgID, &period, &h.Total, &h.Regular, &h.Contract, &h.Executive, &h.NewHires, &h.Resignations); err != nil {
			return nil, fmt.Errorf("failed to scan headcount: %w", err)
		}
		if h.Period, err = analytics.ParsePeriod(period); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYROLL
// =============================================================================

func payrollSelect() string {
	return "SELECT org_id, period, " + strings.Join(payrollColumns(), ", ") + ", currency FROM payroll"
}

// Payroll returns every payroll record in insertion order.
func (s *Store) Payroll(ctx context.Context) ([]analytics.Payroll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryPayroll(ctx, payrollSelect()+" ORDER BY rowid ASC")
}

// PayrollFor returns the payroll records of one period.
func (s *Store) PayrollFor(ctx context.Context, p analytics.Period) ([]analytics.Payroll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryPayroll(ctx, payrollSelect()+" WHERE period = ? ORDER BY rowid ASC", p.String())
}

// ReplacePayroll drops period p and writes recs.
func (s *Store) ReplacePayroll(ctx context.Context, p analytics.Period, recs []analytics.Payroll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols := payrollColumns()
	query := fmt.Sprintf("INSERT INTO payroll (org_id, period, %s, currency) VALUES (?, ?%s, ?)",
		strings.Join(cols, ", "), strings.Repeat(", ?", len(cols)))

	return s.replacePeriod(ctx, "payroll", p, func(tx *sql.Tx) error {
		for _, r := range recs {
			args := make([]any, 0, len(cols)+3)
			args = append(args, r.OrgID, p.String())
			for _, c := range analytics.Components() {
				args = append(args, r.Component(c).String())
			}
			currency := r.Currency
			if currency == "" {
				currency = analytics.CurrencyKRW
			}
			args = append(args, string(currency))
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to insert payroll: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) queryPayroll(ctx context.Context, query string, args ...any) ([]analytics.Payroll, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll: %w", err)
	}
	defer rows.Close()

	components := analytics.Components()
	var out []analytics.Payroll
	for rows.Next() {
		var r analytics.Payroll
		var period, currency string
		values := make([]string, len(components))
		dest := make([]any, 0, len(components)+3)
		dest = append(dest, &r.OrgID, &period)
		for i := range values {
			dest = append(dest, &values[i])
		}
		dest = append(dest, &currency)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan payroll: %w", err)
		}

		if r.Period, err = analytics.ParsePeriod(period); err != nil {
			return nil, err
		}
		for i, c := range components {
			v, err := parseDecimal(values[i])
			if err != nil {
				return nil, fmt.Errorf("payroll %s %s: %w", r.OrgID, c.Key(), err)
			}
			r.SetComponent(c, v)
		}
		r.Currency = analytics.Currency(currency)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// ATTENDANCE
// =============================================================================

const attendanceSelect = `
	SELECT org_id, period, avg_working_hours, weekday_overtime_hours, holiday_overtime_hours, attendance_issues
	FROM attendance`

// Attendance returns every attendance record in insertion order.
func (s *Store) Attendance(ctx context.Context) ([]analytics.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAttendance(ctx, attendanceSelect+" ORDER BY rowid ASC")
}

// AttendanceFor returns the attendance records of one period.
func (s *Store) AttendanceFor(ctx context.Context, p analytics.Period) ([]analytics.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryAttendance(ctx, attendanceSelect+" WHERE period = ? ORDER BY rowid ASC", p.String())
}

// ReplaceAttendance drops period p and writes recs.
func (s *Store) ReplaceAttendance(ctx context.Context, p analytics.Period, recs []analytics.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.replacePeriod(ctx, "attendance", p, func(tx *sql.Tx) error {
		for _, a := range recs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO attendance (org_id, period, avg_working_hours, weekday_overtime_hours, holiday_overtime_hours, attendance_issues)
				VALUES (?, ?, ?, ?, ?, ?)
			`, a.OrgID, p.String(),
				a.AvgWorkingHours.String(),
				a.WeekdayOvertimeHours.String(),
				a.HolidayOvertimeHours.String(),
				a.AttendanceIssues)
			if err != nil {
				return fmt.Errorf("failed to insert attendance: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) queryAttendance(ctx context.Context, query string, args ...any) ([]analytics.Attendance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var out []analytics.Attendance
	for rows.Next() {
		var a analytics.Attendance
		var period, avg, weekday, holiday string
		if err := rows.Scan(&a.OrgID, &period, &avg, &weekday, &holiday, &a.AttendanceIssues); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		if a.Period, err = analytics.ParsePeriod(period); err != nil {
			return nil, err
		}
		if a.AvgWorkingHours, err = parseDecimal(avg); err != nil {
			return nil, err
		}
		if a.WeekdayOvertimeHours, err = parseDecimal(weekday); err != nil {
			return nil, err
		}
		if a.HolidayOvertimeHours, err = parseDecimal(holiday); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// RESET
// =============================================================================

// Reset drops every row of every table.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"organizations", "headcount", "payroll", "attendance"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// replacePeriod deletes the rows of period p from table and runs insert, all
// in one transaction. table is always a package constant.
func (s *Store) replacePeriod(ctx context.Context, table string, p analytics.Period, insert func(tx *sql.Tx) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := deletePeriod(ctx, tx, table, p); err != nil {
			return err
		}
		return insert(tx)
	})
}

func deletePeriod(ctx context.Context, db execer, table string, p analytics.Period) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE period = ?", p.String()); err != nil {
		return fmt.Errorf("failed to clear %s for %s: %w", table, p, err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
