/*
Package payroll reads and writes the payroll correction spreadsheet.

FILE FORMAT:
  UTF-8 CSV, optionally BOM-prefixed, one header row then one row per
  organization:

    Organization,Base Pay,Base Pay (Retroactive),...,Incentive
    Accounting Team,45000000,0,...,5000000

  Column 0 is the organization's display name. Columns 1-13 are the pay
  components in canonical order (see analytics.Components).

IMPORT RULES:
  - the header row is discarded
  - rows with fewer than 14 columns are skipped and counted
  - names match the roster exactly after trimming and NFC normalization
  - rows whose name matches nothing are counted as unmatched
  - a cell that is not a number reads as zero; thousands separators are
    allowed inside quoted cells
  - a later row for the same organization replaces an earlier one
  - a malformed file fails as a whole, nothing is applied

EXPORT:
  Always BOM-prefixed so spreadsheet tools pick UTF-8. Organizations without
  a record for the period get a row of zeros.
*/
package payroll

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/warp/hr-dashboard/analytics"
)

// TemplateFilename is the download name of the exported template.
const TemplateFilename = "HR_Payroll_Input_Template.csv"

// NameColumn is the header of column 0.
const NameColumn = "Organization"

// Columns is the number of columns in a complete row.
var Columns = 1 + len(analytics.Components())

var (
	// ErrEmptyFile is returned when the file has no data rows.
	ErrEmptyFile = errors.New("payroll file is empty")

	// ErrMalformedFile is returned when the file is not valid CSV.
	ErrMalformedFile = errors.New("payroll file is malformed")

	// ErrNoOrganizationsMatched is returned when no row names a known
	// organization.
	ErrNoOrganizationsMatched = errors.New("no organizations matched")
)

// Header returns the template header row.
func Header() []string {
	header := make([]string, 0, Columns)
	header = append(header, NameColumn)
	for _, c := range analytics.Components() {
		header = append(header, c.Label())
	}
	return header
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportResult summarizes one import.
type ImportResult struct {
	BatchID string
	Period  analytics.Period

	// Records holds one corrected record per matched organization, in
	// first-seen file order.
	Records []analytics.Payroll

	Mapped    int
	Skipped   int
	Unmatched []string
}

// Message is the user-facing summary of the import.
func (r ImportResult) Message() string {
	msg := fmt.Sprintf("Mapped payroll for %d organizations for %s.", r.Mapped, r.Period)
	if n := len(r.Unmatched); n > 0 {
		msg += fmt.Sprintf(" %d unmatched.", n)
	}
	if r.Skipped > 0 {
		msg += fmt.Sprintf(" %d incomplete rows skipped.", r.Skipped)
	}
	return msg
}

// Import parses a correction file for period against the roster orgs.
// The returned records are ready for Dashboard.ApplyPayrollCorrections.
func Import(r io.Reader, orgs []analytics.Organization, period analytics.Period) (ImportResult, error) {
	res := ImportResult{BatchID: uuid.NewString(), Period: period}

	byName := make(map[string]string, len(orgs))
	for _, org := range orgs {
		key := normalizeName(org.Name)
		if _, taken := byName[key]; !taken {
			byName[key] = org.ID
		}
	}

	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return res, ErrEmptyFile
		}
		return res, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	index := make(map[string]int)
	rows := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
		rows++

		if len(row) < Columns {
			res.Skipped++
			continue
		}
		name := normalizeName(row[0])
		orgID, ok := byName[name]
		if !ok {
			res.Unmatched = append(res.Unmatched, name)
			continue
		}

		rec := analytics.Payroll{OrgID: orgID, Period: period, Currency: analytics.CurrencyKRW}
		for i, c := range analytics.Components() {
			rec.SetComponent(c, parseAmount(row[i+1]))
		}
		if at, seen := index[orgID]; seen {
			res.Records[at] = rec
			continue
		}
		index[orgID] = len(res.Records)
		res.Records = append(res.Records, rec)
	}

	if rows == 0 {
		return res, ErrEmptyFile
	}
	res.Mapped = len(res.Records)
	if res.Mapped == 0 {
		return res, fmt.Errorf("%w: %d rows, %d unmatched, %d skipped",
			ErrNoOrganizationsMatched, rows, len(res.Unmatched), res.Skipped)
	}
	return res, nil
}

func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// parseAmount reads a cell as a decimal; anything unparseable is zero.
func parseAmount(cell string) decimal.Decimal {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// EXPORT
// =============================================================================

// Export writes the BOM-prefixed template for period: one row per
// organization with its current components, zero when it has no record.
// Duplicate records of one organization are summed.
func Export(w io.Writer, orgs []analytics.Organization, period analytics.Period, records []analytics.Payroll) error {
	current := make(map[string]analytics.Payroll)
	for _, r := range records {
		if r.Period != period {
			continue
		}
		if prev, ok := current[r.OrgID]; ok {
			current[r.OrgID] = prev.Add(r)
		} else {
			current[r.OrgID] = r
		}
	}

	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, org := range orgs {
		rec := current[org.ID]
		row := make([]string, 0, Columns)
		row = append(row, org.Name)
		for _, c := range analytics.Components() {
			row = append(row, rec.Component(c).String())
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Close()
}
