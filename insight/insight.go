/*
Package insight produces narrative HR analysis from dashboard data.

PURPOSE:
  Wraps an external text-generation service behind a Generator interface.
  The dashboard treats it as opaque: given the roster plus the headcount and
  payroll records of a period it returns text, or a fixed failure message.

COMPONENTS:
  Generator:  anything that turns an Input into text
  Client:     HTTP client for a generateContent-style API (client.go)
  Runner:     async task tracker with pending/succeeded/failed states and a
              bounded wait per task (runner.go)

ERRORS:
  Service errors never reach the caller as errors. A failed task carries
  FailureMessage as its text; the cause is logged.
*/
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/hr-dashboard/analytics"
)

// FailureMessage is shown in place of the analysis when generation fails.
const FailureMessage = "An error occurred while generating the AI analysis report."

var (
	// ErrMissingAPIKey is returned when the client has no credentials.
	ErrMissingAPIKey = errors.New("insight API key is not configured")

	// ErrEmptyResponse is returned when the service answers without text.
	ErrEmptyResponse = errors.New("insight service returned no text")

	// ErrTaskNotFound is returned for unknown task IDs.
	ErrTaskNotFound = errors.New("insight task not found")
)

// Input is the data handed to the generator.
type Input struct {
	Period        analytics.Period
	Organizations []analytics.Organization
	Headcount     []analytics.Headcount
	Payroll       []analytics.Payroll
}

// Generator turns dashboard data into narrative text.
type Generator interface {
	Generate(ctx context.Context, in Input) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, in Input) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, in Input) (string, error) { return f(ctx, in) }

// =============================================================================
// PROMPT
// =============================================================================

// Totals returns the headcount and labor cost the prompt summarizes. Labor
// cost covers all thirteen pay components.
func (in Input) Totals() (headcount int, laborCost decimal.Decimal) {
	for _, h := range in.Headcount {
		headcount += h.Total
	}
	laborCost = decimal.Zero
	for _, p := range in.Payroll {
		laborCost = laborCost.Add(analytics.TotalLaborCost(p))
	}
	return headcount, laborCost
}

type promptOrg struct {
	ID       string `json:"org_id"`
	Name     string `json:"org_name"`
	ParentID string `json:"parent_org_id,omitempty"`
	Level    string `json:"org_level"`
}

type promptHeadcount struct {
	OrgID     string `json:"org_id"`
	Total     int    `json:"total_headcount"`
	Regular   int    `json:"regular_headcount"`
	Contract  int    `json:"contract_headcount"`
	Executive int    `json:"executive_headcount"`
}

// BuildPrompt renders the analysis request.
func BuildPrompt(in Input) string {
	headcount, cost := in.Totals()

	orgs := make([]promptOrg, len(in.Organizations))
	for i, o := range in.Organizations {
		orgs[i] = promptOrg{ID: o.ID, Name: o.Name, ParentID: o.ParentID, Level: string(o.Level)}
	}
	hc := make([]promptHeadcount, len(in.Headcount))
	for i, h := range in.Headcount {
		hc[i] = promptHeadcount{OrgID: h.OrgID, Total: h.Total, Regular: h.Regular, Contract: h.Contract, Executive: h.Executive}
	}
	pay := make([]map[string]string, len(in.Payroll))
	for i, p := range in.Payroll {
		row := map[string]string{"org_id": p.OrgID}
		for _, c := range analytics.Components() {
			if v := p.Component(c); !v.IsZero() {
				row[c.Key()] = v.String()
			}
		}
		pay[i] = row
	}

	var b strings.Builder
	b.WriteString("You are a corporate HR strategy consultant. Analyze the HR data below and provide insights for an executive report.\n\n")
	fmt.Fprintf(&b, "Data summary (%s):\n", in.Period)
	fmt.Fprintf(&b, "- Organizations: %d\n", len(in.Organizations))
	fmt.Fprintf(&b, "- Total headcount: %d\n", headcount)
	fmt.Fprintf(&b, "- Total labor cost: %s\n\n", cost.StringFixed(0))
	b.WriteString("Requirements:\n")
	b.WriteString("1. Efficiency of the workforce mix (regular vs contract)\n")
	b.WriteString("2. Notable patterns in labor cost spending\n")
	b.WriteString("3. Health of the organization structure and suggested improvements\n\n")
	b.WriteString("Detailed data (JSON):\n")
	writeJSON(&b, "Orgs", orgs)
	writeJSON(&b, "Headcount", hc)
	writeJSON(&b, "Payroll", pay)
	return b.String()
}

func writeJSON(b *strings.Builder, label string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte("null")
	}
	fmt.Fprintf(b, "%s: %s\n", label, data)
}
